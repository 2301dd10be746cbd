package world

import (
	"math"
	"strings"

	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/state"
	"tokenwheel.ai/internal/sim/systems/agents"
	"tokenwheel.ai/internal/sim/systems/spawn"
)

// DebugSpawnDistance is how far from the player debug spawns appear.
const DebugSpawnDistance = 80.0

func isDebug(kind string) bool { return strings.HasPrefix(kind, "Debug") }

func (w *World) applyDebug(a *protocol.PlayerAction) error {
	s, g, f := w.store, w.state, &w.frame

	switch a.Kind {
	case protocol.ActDebugSetTokens:
		g.Economy.Balance = a.Amount
		f.Logf(events.LogSystem, "[debug] balance set to %d", a.Amount)

	case protocol.ActDebugAddTokens:
		g.Economy.Balance += a.Amount
		f.Logf(events.LogSystem, "[debug] added %d tokens", a.Amount)

	case protocol.ActDebugToggleSpawning:
		g.SpawningEnabled = !g.SpawningEnabled
		f.Logf(events.LogSystem, "[debug] spawning %s", onOff(g.SpawningEnabled))

	case protocol.ActDebugClearRogues:
		ids := s.Rogues()
		for _, id := range ids {
			s.Despawn(id)
		}
		f.Logf(events.LogSystem, "[debug] cleared %d rogues", len(ids))

	case protocol.ActDebugSetPhase:
		p, ok := state.ParsePhase(a.Phase)
		if !ok {
			return protocol.Rejectf(protocol.ErrBadRequest, "Unknown phase: %s", a.Phase)
		}
		w.setPhase(p)
		f.Logf(events.LogSystem, "[debug] phase set to %s", p)

	case protocol.ActDebugSetCrankTier:
		t, ok := state.ParseCrankTier(a.Tier)
		if !ok {
			return protocol.Rejectf(protocol.ErrBadRequest, "Unknown crank tier: %s", a.Tier)
		}
		g.Crank.Tier = t
		f.Logf(events.LogSystem, "[debug] crank tier set to %s", t)

	case protocol.ActDebugToggleGodMode:
		g.GodMode = !g.GodMode
		f.Logf(events.LogSystem, "[debug] god mode %s", onOff(g.GodMode))

	case protocol.ActDebugSpawnRogue:
		k, ok := entity.ParseRogueKind(a.RogueType)
		if !ok {
			return protocol.Rejectf(protocol.ErrBadRequest, "Unknown rogue type: %s", a.RogueType)
		}
		x, y := w.nearPlayer()
		spawn.SpawnRogue(s, k, x, y)
		f.Logf(events.LogSystem, "[debug] spawned %s", k)

	case protocol.ActDebugHealPlayer:
		pid, ok := s.Player()
		if !ok {
			return protocol.Rejectf(protocol.ErrInvalidTarget, "No player")
		}
		if hp := s.Health.Get(pid); hp != nil {
			hp.Current = hp.Max
		}
		f.Logf(events.LogSystem, "[debug] player healed")

	case protocol.ActDebugSpawnAgent:
		t, ok := entity.ParseTier(a.Tier)
		if !ok {
			return protocol.Rejectf(protocol.ErrBadRequest, "Unknown tier: %s", a.Tier)
		}
		x, y := w.nearPlayer()
		id := agents.Spawn(s, t, x, y, w.rng)
		setWanderHome(s, id, x, y)
		f.Logf(events.LogSystem, "[debug] spawned %s agent %s", t, agentName(s, id))

	case protocol.ActDebugClearAgents:
		ids := s.Agents()
		for _, id := range ids {
			s.Despawn(id)
		}
		g.Crank.AssignedAgent = 0
		f.Logf(events.LogSystem, "[debug] cleared %d agents", len(ids))

	default:
		return protocol.Rejectf(protocol.ErrBadRequest, "Unknown action: %s", a.Kind)
	}
	return nil
}

// nearPlayer picks a random point DebugSpawnDistance from the player.
func (w *World) nearPlayer() (float64, float64) {
	x, y := SpawnX, SpawnY
	if pid, ok := w.store.Player(); ok {
		if pos := w.store.Position.Get(pid); pos != nil {
			x, y = pos.X, pos.Y
		}
	}
	angle := w.rng.Float64() * 2 * math.Pi
	return x + math.Cos(angle)*DebugSpawnDistance, y + math.Sin(angle)*DebugSpawnDistance
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
