package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"tokenwheel.ai/internal/persistence/indexdb"
)

type rogueKills struct {
	Rogue  string `db:"rogue" json:"rogue"`
	Kills  int64  `db:"kills" json:"kills"`
	Bounty int64  `db:"bounty" json:"bounty"`
}

type rejectionCount struct {
	Code  string `db:"code" json:"code"`
	Count int64  `db:"n" json:"count"`
}

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite index path (default: <data>/index/tokenwheel.sqlite)")
	limit := fs.Int("limit", 20, "result limit")
	asJSON := fs.Bool("json", false, "print JSON rows")
	_ = fs.Parse(args)

	q := "summary"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "tokenwheel.sqlite")
	}
	if *limit <= 0 {
		*limit = 20
	}

	// Read-only; the server may hold the writer.
	db, err := sqlx.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	var out any
	switch q {
	case "summary":
		var s struct {
			Ticks      int64 `db:"ticks" json:"ticks"`
			LastTick   int64 `db:"last_tick" json:"last_tick"`
			Kills      int64 `db:"kills" json:"kills"`
			Rejections int64 `db:"rejections" json:"rejections"`
			Balance    int64 `db:"balance" json:"balance"`
		}
		err = db.Get(&s, `SELECT
			(SELECT COUNT(*) FROM ticks) AS ticks,
			(SELECT COALESCE(MAX(tick),0) FROM ticks) AS last_tick,
			(SELECT COUNT(*) FROM kills) AS kills,
			(SELECT COUNT(*) FROM rejections) AS rejections,
			(SELECT COALESCE((SELECT balance FROM economy ORDER BY tick DESC LIMIT 1),0)) AS balance`)
		if err == nil && !*asJSON {
			fmt.Printf("ticks=%s last_tick=%d kills=%s rejections=%s balance=%s\n",
				humanize.Comma(s.Ticks), s.LastTick, humanize.Comma(s.Kills), humanize.Comma(s.Rejections), humanize.Comma(s.Balance))
			return
		}
		out = s
	case "kills":
		var rows []indexdb.KillRow
		err = db.Select(&rows, `SELECT tick,entity_id,rogue,bounty,x,y,projectile FROM kills ORDER BY tick DESC, entity_id DESC LIMIT ?`, *limit)
		out = rows
	case "rogues":
		var rows []rogueKills
		err = db.Select(&rows, `SELECT rogue, COUNT(*) AS kills, SUM(bounty) AS bounty FROM kills GROUP BY rogue ORDER BY kills DESC LIMIT ?`, *limit)
		if err == nil && !*asJSON {
			for _, r := range rows {
				fmt.Printf("%-24s kills=%-8s bounty=%s\n", r.Rogue, humanize.Comma(r.Kills), humanize.Comma(r.Bounty))
			}
			return
		}
		out = rows
	case "rejections":
		var rows []rejectionCount
		err = db.Select(&rows, `SELECT code, COUNT(*) AS n FROM rejections GROUP BY code ORDER BY n DESC LIMIT ?`, *limit)
		out = rows
	case "economy":
		var rows []indexdb.EconomyRow
		err = db.Select(&rows, `SELECT tick,balance,income_per_tick,expenditure_per_tick,heat,crank_tier,phase FROM economy ORDER BY tick DESC LIMIT ?`, *limit)
		out = rows
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(want summary|kills|rogues|rejections|economy)")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
