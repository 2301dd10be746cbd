package world

import (
	"time"

	"github.com/dustin/go-humanize"

	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/systems/agents"
	"tokenwheel.ai/internal/sim/systems/ai"
	"tokenwheel.ai/internal/sim/systems/combat"
	"tokenwheel.ai/internal/sim/systems/construction"
	"tokenwheel.ai/internal/sim/systems/economy"
	"tokenwheel.ai/internal/sim/systems/spawn"
)

// statusEverySeconds is how often the loop writes an operator status line.
const statusEverySeconds = 60

func (w *World) stepInternal(inputs []InputEnvelope) {
	stepStart := time.Now()
	s, g, f := w.store, w.state, &w.frame
	nowTick := g.Tick
	f.Reset()
	w.attacking = false

	// Inputs in receive order.
	recorded := make([]RecordedInput, 0, len(inputs))
	var rejections []Rejection
	for _, env := range inputs {
		recorded = append(recorded, RecordedInput{Session: env.Session, Input: env.Input})
		if w.client == nil || env.Session == w.client.session {
			w.move = env.Input.Movement
		}
		if env.Input.Action == nil {
			continue
		}
		if err := w.applyAction(env.Input.Action, env.Input.Target); err != nil {
			rejections = append(rejections, Rejection{
				Action:  env.Input.Action.Kind,
				Code:    protocol.CodeOf(err),
				Message: err.Error(),
			})
			f.Logf(events.LogSystem, "%s", err.Error())
		}
	}
	w.movePlayer()

	// Systems: AI -> spawn -> combat -> projectiles -> death -> construction
	// -> economy -> crank -> agent turns -> wander -> phase -> fog.
	player := w.playerCandidate()
	ai.Step(s, player, w.rng)

	if player != nil {
		spawn.Step(s, g, player.X, player.Y, w.rng, f)
		spawn.Camps(s, g, player.X, player.Y, w.rng, f)
	}

	combat.TickCooldown(s)
	res := combat.Resolve(s, g, w.attacking && !g.PlayerDead, f)
	if res.Fire {
		combat.Fire(s)
	}
	combat.StepProjectiles(s, g, f)
	w.checkPlayerDeath()

	construction.Step(s, f)
	economy.Aggregate(s, g)
	economy.Crank(g, w.cranking && !g.PlayerDead, agents.WheelWorker(s, g), f)
	agents.Tick(s, &g.Economy, w.rng, f)
	agents.Wander(s, w.walk, w.rng)
	w.progressPhase()

	fresh := w.fog.Update(w.lights())

	upd := w.buildUpdate(nowTick, fresh)
	if w.client != nil {
		msg := protocol.ServerMessage{Type: protocol.TypeGameState, GameState: &upd}
		if b, err := w.client.codec.Marshal(msg); err == nil {
			sendLatest(w.client.out, b)
		} else {
			w.log.Printf("encode tick %d: %v", nowTick, err)
		}
	}
	w.lastUpdate = upd

	digest := w.stateDigest(nowTick)
	w.lastDigest = digest
	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(w.tickLogEntry(nowTick, recorded, rejections, digest)); err != nil {
			w.log.Printf("tick log: %v", err)
		}
	}

	w.totals.spawned += uint64(f.Spawned)
	w.totals.kills += uint64(len(f.Kills))
	w.totals.rejections += uint64(len(rejections))
	w.totals.completed += uint64(len(f.Completed))

	if every := uint64(w.tun.TickRateHz * statusEverySeconds); nowTick > 0 && nowTick%every == 0 {
		w.log.Printf("tick=%s phase=%s balance=%s entities=%d kills=%s",
			humanize.Comma(int64(nowTick)), g.Phase, humanize.Comma(g.Economy.Balance),
			s.Len(), humanize.Comma(int64(w.totals.kills)))
	}

	g.Tick++
	w.publishMetrics(time.Since(stepStart))
}

// playerCandidate is the player as an AI target, or nil while dead.
func (w *World) playerCandidate() *ai.Candidate {
	if w.state.PlayerDead {
		return nil
	}
	pid, ok := w.store.Player()
	if !ok {
		return nil
	}
	pos := w.store.Position.Get(pid)
	if pos == nil {
		return nil
	}
	return &ai.Candidate{ID: pid, X: pos.X, Y: pos.Y}
}

func (w *World) tickLogEntry(tick uint64, inputs []RecordedInput, rejections []Rejection, digest string) TickLogEntry {
	s, g, f := w.store, w.state, &w.frame
	e := TickLogEntry{
		Tick:       tick,
		Inputs:     inputs,
		Rejections: rejections,
		Economy: EconomyRecord{
			Balance:            g.Economy.Balance,
			IncomePerTick:      g.Economy.IncomePerTick,
			ExpenditurePerTick: g.Economy.ExpenditurePerTick,
			Heat:               g.Crank.Heat,
			CrankTier:          g.Crank.Tier.String(),
			IsCranking:         g.Crank.IsCranking,
		},
		Phase:    g.Phase.String(),
		Entities: s.Len(),
		Agents:   len(s.Agents()),
		Rogues:   len(s.Rogues()),
		Spawned:  f.Spawned,
		Digest:   digest,
	}
	for _, k := range f.Kills {
		e.Kills = append(e.Kills, KillRecord{
			ID:         uint64(k.ID),
			Rogue:      k.Rogue.String(),
			Bounty:     k.Bounty,
			X:          k.X,
			Y:          k.Y,
			Projectile: k.Projectile,
		})
	}
	for _, id := range f.Completed {
		if bt := s.BType.Get(id); bt != nil {
			e.Completed = append(e.Completed, bt.Kind.String())
		}
	}
	return e
}

// completedBuildings counts finished buildings other than the home base
// fixtures the world starts with.
func (w *World) completedBuildings() int {
	s := w.store
	n := 0
	for _, id := range s.Buildings() {
		bt := s.BType.Get(id)
		p := s.Progress.Get(id)
		if bt == nil || p == nil || !p.Complete() {
			continue
		}
		if bt.Kind == entity.TokenWheel || bt.Kind == entity.CraftingTable {
			continue
		}
		n++
	}
	return n
}
