// Package indexdb maintains a sqlite read model of the tick stream: one row
// per tick, one per kill, one per economy sample. It is fed asynchronously
// and may drop entries under load; the journal remains the complete record.
package indexdb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"tokenwheel.ai/internal/sim/catalogs"
	"tokenwheel.ai/internal/sim/tuning"
	"tokenwheel.ai/internal/sim/world"
)

const (
	queueSize     = 4096
	commitEvery   = 500
	commitMaxWait = time.Second
)

type SQLiteIndex struct {
	db  *sqlx.DB
	log *log.Logger

	ch   chan world.TickLogEntry
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
	written atomic.Uint64
}

// Stats is a point-in-time view of the writer queue.
type Stats struct {
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	DroppedTotal  uint64 `json:"dropped_total"`
	WrittenTotal  uint64 `json:"written_total"`
}

// KillRow is one hostile kill as stored.
type KillRow struct {
	Tick       int64   `db:"tick" json:"tick"`
	EntityID   int64   `db:"entity_id" json:"entity_id"`
	Rogue      string  `db:"rogue" json:"rogue"`
	Bounty     int64   `db:"bounty" json:"bounty"`
	X          float64 `db:"x" json:"x"`
	Y          float64 `db:"y" json:"y"`
	Projectile bool    `db:"projectile" json:"projectile"`
}

// EconomyRow is one economy sample.
type EconomyRow struct {
	Tick        int64   `db:"tick" json:"tick"`
	Balance     int64   `db:"balance" json:"balance"`
	Income      float64 `db:"income_per_tick" json:"income_per_tick"`
	Expenditure float64 `db:"expenditure_per_tick" json:"expenditure_per_tick"`
	Heat        float64 `db:"heat" json:"heat"`
	CrankTier   string  `db:"crank_tier" json:"crank_tier"`
	Phase       string  `db:"phase" json:"phase"`
}

func OpenSQLite(path string, logger *log.Logger) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[indexdb] ", log.LstdFlags|log.Lmicroseconds)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index schema: %w", err)
	}

	s := &SQLiteIndex{
		db:  db,
		log: logger,
		ch:  make(chan world.TickLogEntry, queueSize),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			phase TEXT NOT NULL,
			entities INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			rogues INTEGER NOT NULL,
			inputs INTEGER NOT NULL,
			rejections INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS kills (
			tick INTEGER NOT NULL,
			entity_id INTEGER NOT NULL,
			rogue TEXT NOT NULL,
			bounty INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			projectile INTEGER NOT NULL,
			PRIMARY KEY (tick, entity_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_kills_rogue_tick ON kills(rogue, tick);`,
		`CREATE TABLE IF NOT EXISTS economy (
			tick INTEGER PRIMARY KEY,
			balance INTEGER NOT NULL,
			income_per_tick REAL NOT NULL,
			expenditure_per_tick REAL NOT NULL,
			heat REAL NOT NULL,
			crank_tier TEXT NOT NULL,
			phase TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS rejections (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			action TEXT NOT NULL,
			code TEXT NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick queues an entry. It never blocks the world loop: when the queue
// is full the entry is dropped and counted.
func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- entry:
	default:
		s.dropped.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DroppedTotal:  s.dropped.Load(),
		WrittenTotal:  s.written.Load(),
	}
}

// UpsertCatalogs records the digests and raw JSON of the loaded catalogs and
// the tuning actually applied.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil || cats == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type row struct {
		name, digest string
		json         []byte
	}
	var rows []row
	for _, f := range []struct{ name, file, digest string }{
		{"buildings", "buildings.json", cats.Buildings.Digest},
		{"upgrades", "upgrades.json", cats.Upgrades.Digest},
		{"manifest", "manifest.json", cats.Manifest.Digest},
	} {
		b, err := os.ReadFile(filepath.Join(configDir, f.file))
		if err != nil || f.digest == "" {
			continue
		}
		rows = append(rows, row{name: f.name, digest: f.digest, json: b})
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	rows = append(rows, row{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})

	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`,
			r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecentKills returns up to limit kills, newest first.
func (s *SQLiteIndex) RecentKills(ctx context.Context, limit int) ([]KillRow, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []KillRow
	err := s.db.SelectContext(ctx, &out,
		`SELECT tick, entity_id, rogue, bounty, x, y, projectile FROM kills ORDER BY tick DESC, entity_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent kills: %w", err)
	}
	return out, nil
}

// EconomySeries returns samples with from <= tick < to, sampled every step
// ticks, oldest first.
func (s *SQLiteIndex) EconomySeries(ctx context.Context, from, to uint64, step int) ([]EconomyRow, error) {
	if step <= 0 {
		step = 1
	}
	var out []EconomyRow
	err := s.db.SelectContext(ctx, &out,
		`SELECT tick, balance, income_per_tick, expenditure_per_tick, heat, crank_tier, phase
		 FROM economy WHERE tick >= ? AND tick < ? AND tick % ? = 0 ORDER BY tick`,
		int64(from), int64(to), step)
	if err != nil {
		return nil, fmt.Errorf("economy series: %w", err)
	}
	return out, nil
}

func (s *SQLiteIndex) loop() {
	var (
		tx         *sqlx.Tx
		opCount    int
		lastCommit = time.Now()
	)
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.log.Printf("commit: %v", err)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func(err error) {
		s.log.Printf("write: %v", err)
		if tx != nil {
			_ = tx.Rollback()
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for e := range s.ch {
		if tx == nil {
			t, err := s.db.Beginx()
			if err != nil {
				s.log.Printf("begin: %v", err)
				time.Sleep(50 * time.Millisecond)
				continue
			}
			tx = t
		}
		n, err := writeEntry(tx, e)
		if err != nil {
			rollback(err)
			continue
		}
		opCount += n
		s.written.Add(1)
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
	commit()
}

func writeEntry(tx *sqlx.Tx, e world.TickLogEntry) (int, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return 0, err
	}
	tick := int64(e.Tick)
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO ticks(tick,digest,phase,entities,agents,rogues,inputs,rejections,raw_json) VALUES(?,?,?,?,?,?,?,?,?)`,
		tick, e.Digest, e.Phase, e.Entities, e.Agents, e.Rogues, len(e.Inputs), len(e.Rejections), string(raw),
	); err != nil {
		return 0, err
	}
	ops := 1
	ec := e.Economy
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO economy(tick,balance,income_per_tick,expenditure_per_tick,heat,crank_tier,phase) VALUES(?,?,?,?,?,?,?)`,
		tick, ec.Balance, ec.IncomePerTick, ec.ExpenditurePerTick, ec.Heat, ec.CrankTier, e.Phase,
	); err != nil {
		return ops, err
	}
	ops++
	for _, k := range e.Kills {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO kills(tick,entity_id,rogue,bounty,x,y,projectile) VALUES(?,?,?,?,?,?,?)`,
			tick, int64(k.ID), k.Rogue, k.Bounty, k.X, k.Y, k.Projectile,
		); err != nil {
			return ops, err
		}
		ops++
	}
	for i, r := range e.Rejections {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO rejections(tick,seq,action,code,message) VALUES(?,?,?,?,?)`,
			tick, i, r.Action, r.Code, r.Message,
		); err != nil {
			return ops, err
		}
		ops++
	}
	return ops, nil
}
