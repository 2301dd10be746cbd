package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "tokenwheel.ai/internal/persistence/log"
	"tokenwheel.ai/internal/sim/catalogs"
	"tokenwheel.ai/internal/sim/collision"
	"tokenwheel.ai/internal/sim/tuning"
	"tokenwheel.ai/internal/sim/world"
	"tokenwheel.ai/internal/telemetry"
	"tokenwheel.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		seed       = flag.Uint64("seed", 0, "override the tuning seed (0 keeps it)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read-model index")
		noJournal  = flag.Bool("no_journal", false, "disable the tick journal")
		noCSV      = flag.Bool("no_telemetry", false, "disable the telemetry CSV")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)
	newLogger := func(prefix string) *log.Logger {
		return log.New(os.Stdout, "["+prefix+"] ", log.LstdFlags|log.Lmicroseconds)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	cats, err := catalogs.Load(*configDir, newLogger("catalogs"))
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	idx, err := openRuntimeIndex(*dataDir, *disableDB, newLogger("indexdb"))
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	w := world.New(world.Config{
		Tuning:   tune,
		Catalogs: cats,
		Walk:     collision.Terrain,
		Logger:   newLogger("world"),
	})

	var sinks world.TickLoggers
	if !*noJournal {
		tickLog := persistlog.NewTickLogger(*dataDir)
		defer tickLog.Close()
		sinks = append(sinks, tickLog)
	}
	if idx != nil {
		sinks = append(sinks, idx)
	}
	if !*noCSV {
		rec, err := telemetry.NewRecorder(filepath.Join(*dataDir, "telemetry", "telemetry.csv"), tune.TelemetryEveryTicks, newLogger("telemetry"))
		if err != nil {
			logger.Fatalf("telemetry: %v", err)
		}
		defer rec.Close()
		sinks = append(sinks, rec)
	}
	if len(sinks) > 0 {
		w.SetTickLogger(sinks)
	}

	ctx, cancel := signalContext()
	defer cancel()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	wsSrv := ws.NewServer(w, tune.RateLimits, newLogger("ws"))
	mux := newMux(httpDeps{
		world:       w,
		ws:          wsSrv,
		idx:         idx,
		log:         logger,
		enableAdmin: envBool("TW_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
		enablePprof: envBool("TW_ENABLE_PPROF_HTTP", false),
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (tick_rate=%dHz seed=%d)", *addr, tune.TickRateHz, tune.Seed)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	// Sinks close after the loop has stopped writing to them.
	cancel()
	<-worldDone
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
