// Package spawn creates hostiles: random roamers around the player at a
// phase-scaled rate, and the fixed camps of guardians that hold dormant
// agents.
package spawn

import (
	"math"

	"gonum.org/v1/gonum/stat/sampleuv"

	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/state"
)

// Rand is the randomness the spawners consume. Uint64 feeds the weighted
// type sampler. *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	Uint64() uint64
}

const (
	MinDistance    = 300.0
	MaxDistance    = 500.0
	PerBuilding    = 0.002
	ColliderRadius = 6.0
)

// BaseRate is the per-tick spawn chance of a phase before buildings are
// counted.
func BaseRate(p state.Phase) float64 {
	switch p {
	case state.Outpost:
		return 0.005
	case state.Village:
		return 0.01
	case state.Network:
		return 0.02
	case state.City:
		return 0.03
	default:
		return 0.002
	}
}

// Chance counts every building, finished or not.
func Chance(p state.Phase, buildings int) float64 {
	return BaseRate(p) + float64(buildings)*PerBuilding
}

type weightTable struct {
	kinds   []entity.RogueKind
	weights []float64
}

var (
	hutTable = weightTable{
		kinds:   []entity.RogueKind{entity.Swarm, entity.Corruptor},
		weights: []float64{0.70, 0.30},
	}
	outpostTable = weightTable{
		kinds:   []entity.RogueKind{entity.Swarm, entity.Corruptor, entity.Looper, entity.TokenDrain},
		weights: []float64{0.40, 0.30, 0.15, 0.15},
	}
	lateTable = weightTable{
		kinds: []entity.RogueKind{
			entity.Swarm, entity.Corruptor, entity.Looper, entity.TokenDrain,
			entity.Assassin, entity.Mimic, entity.RogueArchitect,
		},
		weights: []float64{0.25, 0.20, 0.15, 0.15, 0.10, 0.10, 0.05},
	}
)

func tableFor(p state.Phase) weightTable {
	switch p {
	case state.Hut:
		return hutTable
	case state.Outpost:
		return outpostTable
	default:
		return lateTable
	}
}

// Weights returns a copy of the phase's type distribution.
func Weights(p state.Phase) map[entity.RogueKind]float64 {
	t := tableFor(p)
	out := make(map[entity.RogueKind]float64, len(t.kinds))
	for i, k := range t.kinds {
		out[k] = t.weights[i]
	}
	return out
}

// PickKind draws a hostile type from the phase's weighted table.
func PickKind(p state.Phase, r Rand) entity.RogueKind {
	t := tableFor(p)
	// Take zeroes the drawn weight, so the sampler is single use.
	w := sampleuv.NewWeighted(append([]float64(nil), t.weights...), r)
	i, ok := w.Take()
	if !ok {
		return t.kinds[0]
	}
	return t.kinds[i]
}

// HP is the spawn health of a hostile type.
func HP(k entity.RogueKind) int {
	switch k {
	case entity.Swarm:
		return 15
	case entity.Corruptor:
		return 40
	case entity.Looper:
		return 25
	case entity.TokenDrain:
		return 20
	case entity.Assassin:
		return 35
	case entity.Mimic:
		return 30
	case entity.RogueArchitect:
		return 80
	}
	return 15
}

// SpawnRogue creates a roaming hostile at (x, y). TokenDrains start
// invisible.
func SpawnRogue(s *entity.Store, k entity.RogueKind, x, y float64) entity.ID {
	hp := HP(k)
	id := s.Spawn()
	s.RogueTag.Set(id, entity.Rogue{})
	s.Position.Set(id, entity.Position{X: x, Y: y})
	s.Velocity.Set(id, entity.Velocity{})
	s.Collider.Set(id, entity.Collider{Radius: ColliderRadius})
	s.Health.Set(id, entity.Health{Current: hp, Max: hp})
	s.RogueType.Set(id, entity.RogueType{Kind: k})
	s.RogueAI.Set(id, entity.RogueAI{State: entity.Wandering})
	s.Visibility.Set(id, entity.RogueVisibility{Visible: k != entity.TokenDrain})
	return id
}

// Step rolls once for a new hostile near (px, py). It returns the new id, or
// 0 when nothing spawned.
func Step(s *entity.Store, g *state.GameState, px, py float64, r Rand, f *events.Frame) entity.ID {
	if !g.SpawningEnabled {
		return 0
	}
	chance := Chance(g.Phase, len(s.Buildings()))
	if r.Float64() > chance {
		return 0
	}
	angle := r.Float64() * 2 * math.Pi
	dist := MinDistance + r.Float64()*(MaxDistance-MinDistance)
	k := PickKind(g.Phase, r)
	id := SpawnRogue(s, k, px+math.Cos(angle)*dist, py+math.Sin(angle)*dist)
	if f != nil {
		f.Spawned++
		f.Play(events.RogueSpawn)
	}
	return id
}
