// Package agents holds the worker rules: tier tables, recruitment, task
// assignment, the per-tick turn/burn-out check and idle wandering.
package agents

import (
	"tokenwheel.ai/internal/sim/entity"
)

// Rand is the randomness the agent rules consume. *math/rand/v2.Rand
// satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

var NameBank = [...]string{
	"sol", "mira", "echo", "nova", "kai", "iris", "ash", "luna", "byte", "flux", "pip", "hex",
	"reed", "sage", "fern", "rune", "wren", "arc", "ori", "lux", "coda", "vale", "drift", "ember",
}

// Cost is the recruitment price of a tier.
func Cost(t entity.Tier) int64 {
	switch t {
	case entity.Journeyman:
		return 60
	case entity.Artisan:
		return 150
	case entity.Architect:
		return 400
	}
	return 20
}

// Vibe returns the model profile of a tier with no turns used.
func Vibe(t entity.Tier) entity.AgentVibe {
	switch t {
	case entity.Journeyman:
		return entity.AgentVibe{ModelLoreName: "Steady Flame", MaxTurns: 15, TokenBurnRate: 2, ErrorChanceBase: 0.08, Stars: 2}
	case entity.Artisan:
		return entity.AgentVibe{ModelLoreName: "Codestral Engine", MaxTurns: 30, TokenBurnRate: 1, ErrorChanceBase: 0.04, Stars: 3}
	case entity.Architect:
		return entity.AgentVibe{ModelLoreName: "Abyssal Architect", MaxTurns: 50, TokenBurnRate: 1, ErrorChanceBase: 0.02, Stars: 3}
	default:
		return entity.AgentVibe{ModelLoreName: "Flickering Candle", MaxTurns: 5, TokenBurnRate: 3, ErrorChanceBase: 0.15, Stars: 1}
	}
}

type span struct{ lo, hi float64 }

func (s span) pick(r Rand) float64 { return s.lo + r.Float64()*(s.hi-s.lo) }

type statRanges struct{ rel, spd, aw, res span }

var tierRanges = map[entity.Tier]statRanges{
	entity.Apprentice: {span{0.5, 0.65}, span{0.8, 1.0}, span{60, 80}, span{40, 55}},
	entity.Journeyman: {span{0.65, 0.8}, span{1.0, 1.3}, span{80, 105}, span{60, 80}},
	entity.Artisan:    {span{0.8, 0.9}, span{1.2, 1.5}, span{100, 130}, span{80, 105}},
	entity.Architect:  {span{0.9, 0.98}, span{1.4, 1.7}, span{120, 150}, span{100, 130}},
}

// RollStats draws random stats inside the tier's ranges.
func RollStats(t entity.Tier, r Rand) entity.AgentStats {
	rg, ok := tierRanges[t]
	if !ok {
		rg = tierRanges[entity.Apprentice]
	}
	return entity.AgentStats{
		Reliability: rg.rel.pick(r),
		Speed:       rg.spd.pick(r),
		Awareness:   rg.aw.pick(r),
		Resilience:  rg.res.pick(r),
	}
}

// Spawn creates a recruited, idle agent of the given tier at (x, y). Health
// equals resilience.
func Spawn(s *entity.Store, t entity.Tier, x, y float64, r Rand) entity.ID {
	stats := RollStats(t, r)
	hp := int(stats.Resilience)
	name := NameBank[r.IntN(len(NameBank))]

	id := s.Spawn()
	s.AgentTag.Set(id, entity.Agent{})
	s.Name.Set(id, entity.AgentName{Name: name})
	s.Position.Set(id, entity.Position{X: x, Y: y})
	s.Velocity.Set(id, entity.Velocity{})
	s.Collider.Set(id, entity.Collider{Radius: 5})
	s.Health.Set(id, entity.Health{Current: hp, Max: hp})
	s.Stats.Set(id, stats)
	s.Status.Set(id, entity.AgentStatus{State: entity.AgentIdle})
	s.Tier.Set(id, entity.AgentTier{Tier: t})
	s.Morale.Set(id, entity.AgentMorale{Value: 0.7})
	s.XP.Set(id, entity.AgentXP{Level: 1})
	s.Vibe.Set(id, Vibe(t))
	s.Assignment.Set(id, entity.Assignment{Task: entity.TaskIdle})
	return id
}
