package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/pprof"
	"strconv"
	"strings"
	"time"

	"tokenwheel.ai/internal/persistence/indexdb"
	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/world"
	"tokenwheel.ai/internal/transport/ws"
)

// AdminSession tags inputs injected through the admin endpoint.
const AdminSession = "admin"

type httpDeps struct {
	world *world.World
	ws    *ws.Server
	idx   *indexdb.SQLiteIndex
	log   *log.Logger

	enableAdmin bool
	enablePprof bool
}

func newMux(d httpDeps) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, d)
	})

	if d.enableAdmin {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/metrics", loopbackOnly(func(rw http.ResponseWriter, r *http.Request) {
			resp := struct {
				Metrics world.WorldMetrics `json:"metrics"`
				WS      ws.Stats           `json:"ws"`
				Index   indexdb.Stats      `json:"index"`
			}{
				Metrics: d.world.Metrics(),
				Index:   d.idx.Stats(),
			}
			if d.ws != nil {
				resp.WS = d.ws.Stats()
			}
			writeJSON(rw, http.StatusOK, resp)
		}))
		mux.HandleFunc("/admin/v1/debug", loopbackOnly(func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			b, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
			if err != nil {
				http.Error(rw, err.Error(), http.StatusBadRequest)
				return
			}
			var act protocol.PlayerAction
			if err := json.Unmarshal(b, &act); err != nil {
				writeJSON(rw, http.StatusBadRequest, map[string]any{"ok": false, "code": protocol.ErrProtoBadRequest, "error": err.Error()})
				return
			}
			if !strings.HasPrefix(act.Kind, "Debug") {
				writeJSON(rw, http.StatusBadRequest, map[string]any{"ok": false, "code": protocol.ErrBadRequest, "error": "only Debug* actions are accepted"})
				return
			}
			env := world.InputEnvelope{Session: AdminSession, Input: protocol.PlayerInput{Action: &act}}
			select {
			case d.world.Inbox() <- env:
			case <-time.After(2 * time.Second):
				writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "inbox full"})
				return
			}
			d.log.Printf("admin: queued %s", act.Kind)
			writeJSON(rw, http.StatusAccepted, map[string]any{"ok": true, "kind": act.Kind})
		}))
		mux.HandleFunc("/admin/v1/kills", loopbackOnly(func(rw http.ResponseWriter, r *http.Request) {
			if d.idx == nil {
				http.Error(rw, "index disabled", http.StatusServiceUnavailable)
				return
			}
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			rows, err := d.idx.RecentKills(ctx, limit)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(rw, http.StatusOK, rows)
		}))
		mux.HandleFunc("/admin/v1/economy", loopbackOnly(func(rw http.ResponseWriter, r *http.Request) {
			if d.idx == nil {
				http.Error(rw, "index disabled", http.StatusServiceUnavailable)
				return
			}
			q := r.URL.Query()
			from, _ := strconv.ParseUint(q.Get("from"), 10, 64)
			to, err := strconv.ParseUint(q.Get("to"), 10, 64)
			if err != nil || to == 0 {
				to = d.world.Metrics().Tick + 1
			}
			step, _ := strconv.Atoi(q.Get("step"))
			if step <= 0 {
				step = d.world.TickRateHz()
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			rows, err := d.idx.EconomySeries(ctx, from, to, step)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(rw, http.StatusOK, rows)
		}))
	} else {
		d.log.Printf("admin endpoints disabled (TW_ENABLE_ADMIN_HTTP=false)")
	}
	if d.enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		d.log.Printf("pprof endpoints disabled (TW_ENABLE_PPROF_HTTP=false)")
	}
	if d.ws != nil {
		mux.HandleFunc("/v1/ws", d.ws.Handler())
	}
	return mux
}

func loopbackOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		h(rw, r)
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

// writeMetrics renders the Prometheus text exposition format.
func writeMetrics(rw io.Writer, d httpDeps) {
	m := d.world.Metrics()

	gauge := func(name, help string, v any) {
		fmt.Fprintf(rw, "# HELP %s %s\n", name, help)
		fmt.Fprintf(rw, "# TYPE %s gauge\n", name)
		fmt.Fprintf(rw, "%s %v\n", name, v)
	}
	counter := func(name, help string, v uint64) {
		fmt.Fprintf(rw, "# HELP %s %s\n", name, help)
		fmt.Fprintf(rw, "# TYPE %s counter\n", name)
		fmt.Fprintf(rw, "%s %d\n", name, v)
	}

	gauge("tokenwheel_world_tick", "Current world tick.", m.Tick)
	gauge("tokenwheel_world_balance", "Token balance.", m.Balance)
	gauge("tokenwheel_world_heat", "Token wheel heat.", fmt.Sprintf("%.3f", m.Heat))
	gauge("tokenwheel_world_client", "Whether a client session is attached.", boolGauge(m.Client))
	gauge("tokenwheel_world_player_dead", "Whether the player is rebooting.", boolGauge(m.PlayerDead))
	gauge("tokenwheel_world_revealed_chunks", "Chunks revealed by light.", m.RevealedChunks)
	gauge("tokenwheel_world_step_ms", "Last tick step duration in milliseconds.", fmt.Sprintf("%.3f", m.StepMS))

	fmt.Fprintf(rw, "# HELP tokenwheel_world_entities Live entities by kind.\n")
	fmt.Fprintf(rw, "# TYPE tokenwheel_world_entities gauge\n")
	fmt.Fprintf(rw, "tokenwheel_world_entities{kind=%q} %d\n", "all", m.Entities)
	fmt.Fprintf(rw, "tokenwheel_world_entities{kind=%q} %d\n", "agent", m.Agents)
	fmt.Fprintf(rw, "tokenwheel_world_entities{kind=%q} %d\n", "rogue", m.Rogues)
	fmt.Fprintf(rw, "tokenwheel_world_entities{kind=%q} %d\n", "building", m.Buildings)
	fmt.Fprintf(rw, "tokenwheel_world_entities{kind=%q} %d\n", "projectile", m.Projectiles)

	fmt.Fprintf(rw, "# HELP tokenwheel_world_phase Settlement phase (1 for the current phase).\n")
	fmt.Fprintf(rw, "# TYPE tokenwheel_world_phase gauge\n")
	fmt.Fprintf(rw, "tokenwheel_world_phase{phase=%q} 1\n", m.Phase)

	fmt.Fprintf(rw, "# HELP tokenwheel_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE tokenwheel_world_queue_depth gauge\n")
	fmt.Fprintf(rw, "tokenwheel_world_queue_depth{queue=%q} %d\n", "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(rw, "tokenwheel_world_queue_depth{queue=%q} %d\n", "attach", m.QueueDepths.Attach)

	counter("tokenwheel_world_spawned_total", "Hostiles spawned.", m.SpawnedTotal)
	counter("tokenwheel_world_kills_total", "Hostiles killed.", m.KillsTotal)
	counter("tokenwheel_world_rejections_total", "Rejected player actions.", m.RejectionsTotal)
	counter("tokenwheel_world_completed_total", "Buildings completed.", m.CompletedTotal)

	if d.ws != nil {
		s := d.ws.Stats()
		gauge("tokenwheel_ws_sessions", "Open websocket sessions.", s.Sessions)
		counter("tokenwheel_ws_limited_total", "Inputs dropped by the rate limiter.", s.Limited)
		counter("tokenwheel_ws_invalid_total", "Inputs that failed to decode.", s.Invalid)
	}
	if d.idx != nil {
		s := d.idx.Stats()
		gauge("tokenwheel_index_queue_depth", "Index writer backlog.", s.QueueDepth)
		counter("tokenwheel_index_dropped_total", "Tick entries dropped by the index.", s.DroppedTotal)
	}
}
