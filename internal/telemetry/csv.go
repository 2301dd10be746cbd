// Package telemetry samples the tick stream into a CSV file, one row per
// window of ticks.
package telemetry

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gocarina/gocsv"

	"tokenwheel.ai/internal/sim/world"
)

// Sample is one CSV row. Counters cover the window ending at Tick; gauges
// are the values at Tick.
type Sample struct {
	Tick        uint64  `csv:"tick"`
	Phase       string  `csv:"phase"`
	Balance     int64   `csv:"balance"`
	Income      float64 `csv:"income_per_tick"`
	Expenditure float64 `csv:"expenditure_per_tick"`
	Heat        float64 `csv:"heat"`
	CrankTier   string  `csv:"crank_tier"`
	Entities    int     `csv:"entities"`
	Agents      int     `csv:"agents"`
	Rogues      int     `csv:"rogues"`
	Inputs      int     `csv:"inputs"`
	Rejections  int     `csv:"rejections"`
	Kills       int     `csv:"kills"`
	Bounty      int64   `csv:"bounty"`
	Spawned     int     `csv:"spawned"`
	Completed   int     `csv:"completed"`
}

// Recorder is a world.TickLogger. It accumulates counters on the caller's
// goroutine and hands finished rows to a writer goroutine; rows are dropped
// when the writer falls behind.
type Recorder struct {
	every uint64
	log   *log.Logger

	acc Sample
	n   uint64

	f             *os.File
	headerWritten bool

	ch      chan Sample
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

// NewRecorder creates path and writes one row every `every` ticks.
func NewRecorder(path string, every int, logger *log.Logger) (*Recorder, error) {
	if every <= 0 {
		every = 1
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[telemetry] ", log.LstdFlags|log.Lmicroseconds)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	r := &Recorder{
		every: uint64(every),
		log:   logger,
		f:     f,
		ch:    make(chan Sample, 256),
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for s := range r.ch {
			if err := r.write(s); err != nil {
				r.log.Printf("%v", err)
			}
		}
	}()
	return r, nil
}

func (r *Recorder) WriteTick(e world.TickLogEntry) error {
	if r == nil || r.closed.Load() {
		return nil
	}
	a := &r.acc
	a.Inputs += len(e.Inputs)
	a.Rejections += len(e.Rejections)
	a.Kills += len(e.Kills)
	for _, k := range e.Kills {
		a.Bounty += k.Bounty
	}
	a.Spawned += e.Spawned
	a.Completed += len(e.Completed)
	r.n++
	if r.n < r.every {
		return nil
	}

	a.Tick = e.Tick
	a.Phase = e.Phase
	a.Balance = e.Economy.Balance
	a.Income = e.Economy.IncomePerTick
	a.Expenditure = e.Economy.ExpenditurePerTick
	a.Heat = e.Economy.Heat
	a.CrankTier = e.Economy.CrankTier
	a.Entities, a.Agents, a.Rogues = e.Entities, e.Agents, e.Rogues

	select {
	case r.ch <- *a:
	default:
		r.dropped.Add(1)
	}
	r.acc = Sample{}
	r.n = 0
	return nil
}

// Dropped is the number of rows lost to a full queue.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

func (r *Recorder) write(s Sample) error {
	rows := []Sample{s}
	if !r.headerWritten {
		if err := gocsv.Marshal(rows, r.f); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, r.f); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// Close flushes queued rows and closes the file. Call it after the world
// loop has stopped.
func (r *Recorder) Close() error {
	var err error
	r.once.Do(func() {
		r.closed.Store(true)
		close(r.ch)
		r.wg.Wait()
		err = r.f.Close()
	})
	return err
}
