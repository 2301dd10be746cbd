package world

import (
	"math"

	"tokenwheel.ai/internal/sim/collision"
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/fog"
	"tokenwheel.ai/internal/sim/state"
)

// movePlayer applies the held movement intent. The vector is clamped to unit
// length and scaled by player speed less the armor penalty.
func (w *World) movePlayer() {
	s := w.store
	pid, ok := s.Player()
	if !ok {
		return
	}
	pos := s.Position.Get(pid)
	vel := s.Velocity.Get(pid)
	if pos == nil {
		return
	}
	mx, my := w.move.X, w.move.Y
	l := math.Hypot(mx, my)
	if w.state.PlayerDead || l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		if vel != nil {
			vel.X, vel.Y = 0, 0
		}
		return
	}
	if l > 1 {
		mx, my = mx/l, my/l
	}
	speed := w.tun.PlayerSpeed
	if a := s.Armor.Get(pid); a != nil {
		speed *= 1 - a.SpeedPenalty
	}
	dx, dy := mx*speed, my*speed
	pos.X, pos.Y = collision.Slide(w.walk, pos.X, pos.Y, dx, dy)
	if vel != nil {
		vel.X, vel.Y = dx, dy
	}
	if fc := s.Facing.Get(pid); fc != nil {
		fc.X, fc.Y = w.move.X/l, w.move.Y/l
	}
}

// checkPlayerDeath handles dying and the respawn timer.
func (w *World) checkPlayerDeath() {
	s, g, f := w.store, w.state, &w.frame
	pid, ok := s.Player()
	if !ok {
		return
	}
	hp := s.Health.Get(pid)
	if hp == nil {
		return
	}
	if !g.PlayerDead {
		if hp.Current > 0 {
			return
		}
		hp.Current = 0
		g.PlayerDead = true
		g.DeathTick = g.Tick
		w.cranking = false
		g.Crank.IsCranking = false
		f.Logf(events.LogSystem, "You have been terminated. Rebooting in %d seconds...", w.tun.RespawnTicks/w.tun.TickRateHz)
		f.Play(events.AgentDeath)
		return
	}
	if g.Tick-g.DeathTick < uint64(w.tun.RespawnTicks) {
		return
	}
	g.PlayerDead = false
	hp.Current = hp.Max
	if pos := s.Position.Get(pid); pos != nil {
		pos.X, pos.Y = SpawnX, SpawnY
	}
	if vel := s.Velocity.Get(pid); vel != nil {
		vel.X, vel.Y = 0, 0
	}
	f.Logf(events.LogSystem, "Rebooted at home base.")
}

// deathTimer is the respawn countdown in seconds, zero while alive.
func (w *World) deathTimer() float64 {
	g := w.state
	if !g.PlayerDead {
		return 0
	}
	left := int64(w.tun.RespawnTicks) - int64(g.Tick-g.DeathTick)
	if left < 0 {
		left = 0
	}
	return float64(left) / float64(w.tun.TickRateHz)
}

// phaseFor maps a completed-building count onto the phase it earns.
func (w *World) phaseFor(completed int) state.Phase {
	t := w.tun.Phases
	switch {
	case completed >= t.City:
		return state.City
	case completed >= t.Network:
		return state.Network
	case completed >= t.Village:
		return state.Village
	case completed >= t.Outpost:
		return state.Outpost
	}
	return state.Hut
}

// progressPhase advances the phase when enough buildings are complete. It
// never moves the phase backwards.
func (w *World) progressPhase() {
	g := w.state
	next := w.phaseFor(w.completedBuildings())
	if next <= g.Phase {
		return
	}
	w.setPhase(next)
	w.frame.Logf(events.LogBuilding, "Settlement grew into a %s", next)
}

func (w *World) setPhase(p state.Phase) {
	g := w.state
	g.Phase = p
	if p == state.City && !g.CityReached {
		g.CityReached = true
		g.CityReachedTick = g.Tick
	}
}

// lights lists the live light sources: the player's torch and every
// completed building that emits light.
func (w *World) lights() []fog.Light {
	s := w.store
	var out []fog.Light
	if pid, ok := s.Player(); ok && !w.state.PlayerDead {
		pos := s.Position.Get(pid)
		torch := s.Torch.Get(pid)
		if pos != nil && torch != nil {
			out = append(out, fog.Light{X: pos.X, Y: pos.Y, Radius: torch.Radius})
		}
	}
	for _, id := range s.Buildings() {
		l := s.Light.Get(id)
		p := s.Progress.Get(id)
		pos := s.Position.Get(id)
		if l == nil || p == nil || pos == nil || !p.Complete() {
			continue
		}
		out = append(out, fog.Light{X: pos.X, Y: pos.Y, Radius: l.Radius})
	}
	return out
}

// nearestAgent returns the closest agent to the player within radius.
func (w *World) nearestAgent(radius float64, ok func(entity.ID) bool) (entity.ID, bool) {
	s := w.store
	pid, found := s.Player()
	if !found {
		return 0, false
	}
	pp := s.Position.Get(pid)
	if pp == nil {
		return 0, false
	}
	best, bestD := entity.ID(0), radius*radius
	for _, id := range s.Agents() {
		pos := s.Position.Get(id)
		if pos == nil || !ok(id) {
			continue
		}
		dx, dy := pos.X-pp.X, pos.Y-pp.Y
		if d := dx*dx + dy*dy; d <= bestD && (best == 0 || d < bestD) {
			best, bestD = id, d
		}
	}
	return best, best != 0
}
