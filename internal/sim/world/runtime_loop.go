package world

import (
	"context"
	"time"

	"tokenwheel.ai/internal/protocol"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.tun.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []InputEnvelope

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.attach:
			w.handleAttach(req)
		case session := <-w.detach:
			w.handleDetach(session)
		case env := <-w.inbox:
			pending = append(pending, env)
		case <-ticker.C:
			w.stepInternal(pending)
			pending = pending[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick with the given inputs, using
// the same ordering as Run. It is intended for deterministic tests.
func (w *World) StepOnce(inputs []protocol.PlayerInput) (tick uint64, digest string) {
	tick = w.state.Tick
	envs := make([]InputEnvelope, 0, len(inputs))
	for _, in := range inputs {
		envs = append(envs, InputEnvelope{Input: in})
	}
	w.stepInternal(envs)
	return tick, w.lastDigest
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
