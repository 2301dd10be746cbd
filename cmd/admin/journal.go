package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	persistlog "tokenwheel.ai/internal/persistence/log"
	"tokenwheel.ai/internal/sim/world"
)

type journalSummary struct {
	Entries     int
	FirstTick   uint64
	LastTick    uint64
	Inputs      int
	Rejections  map[string]int
	Kills       int
	Bounty      int64
	Completed   int
	LastBalance int64
	LastPhase   string
	// Gaps counts missing ticks between consecutive entries.
	Gaps uint64
}

func summarize(entries []world.TickLogEntry) journalSummary {
	s := journalSummary{Rejections: map[string]int{}}
	for i, e := range entries {
		if i == 0 {
			s.FirstTick = e.Tick
		} else if e.Tick > s.LastTick+1 {
			s.Gaps += e.Tick - s.LastTick - 1
		}
		s.Entries++
		s.LastTick = e.Tick
		s.Inputs += len(e.Inputs)
		for _, r := range e.Rejections {
			s.Rejections[r.Code]++
		}
		s.Kills += len(e.Kills)
		for _, k := range e.Kills {
			s.Bounty += k.Bounty
		}
		s.Completed += len(e.Completed)
		s.LastBalance = e.Economy.Balance
		s.LastPhase = e.Phase
	}
	return s
}

func journalCmd(args []string) {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	files, err := filepath.Glob(filepath.Join(*dataDir, "journal", "ticks-*.jsonl.zst"))
	if err != nil || len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no journal files under", filepath.Join(*dataDir, "journal"))
		os.Exit(2)
	}
	sort.Strings(files)

	var all []world.TickLogEntry
	for _, p := range files {
		entries, err := persistlog.ReadTicks(p)
		size := "?"
		if st, statErr := os.Stat(p); statErr == nil {
			size = humanize.Bytes(uint64(st.Size()))
		}
		fmt.Printf("%s  %s  entries=%d\n", filepath.Base(p), size, len(entries))
		if err != nil {
			fmt.Fprintln(os.Stderr, "  warning:", err)
		}
		all = append(all, entries...)
	}

	s := summarize(all)
	fmt.Printf("ticks %d..%d (%s entries, %d missing)\n", s.FirstTick, s.LastTick, humanize.Comma(int64(s.Entries)), s.Gaps)
	fmt.Printf("inputs=%s kills=%s bounty=%s completed=%d\n", humanize.Comma(int64(s.Inputs)), humanize.Comma(int64(s.Kills)), humanize.Comma(s.Bounty), s.Completed)
	fmt.Printf("final balance=%s phase=%s\n", humanize.Comma(s.LastBalance), s.LastPhase)
	if len(s.Rejections) > 0 {
		codes := make([]string, 0, len(s.Rejections))
		for c := range s.Rejections {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		parts := make([]string, 0, len(codes))
		for _, c := range codes {
			parts = append(parts, fmt.Sprintf("%s=%d", c, s.Rejections[c]))
		}
		fmt.Printf("rejections %s\n", strings.Join(parts, " "))
	}
}
