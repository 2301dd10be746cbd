package spawn

import (
	"math"

	"tokenwheel.ai/internal/sim/collision"
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/state"
	"tokenwheel.ai/internal/sim/systems/agents"
)

const (
	CampGridStep    = 384
	CampSeed        = 77777
	CampSpawnRadius = 600.0
	CampDensity     = 6 // percent of grid cells

	GuardianLeash   = 200.0
	GuardianMinDist = 30.0
	GuardianMaxDist = 60.0
	BoundWander     = 20.0
)

var BoundNames = [...]string{
	"Drift", "Ember", "Null", "Shard", "Byte", "Flux", "Haze", "Rune",
	"Volt", "Cipher", "Ash", "Echo", "Pulse", "Wraith", "Gloom", "Spark",
}

// CampHash is the lattice hash folded to a non-negative int32. The one
// value with no positive counterpart stays negative.
func CampHash(x, y, seed int32) int32 {
	h := int32(collision.Hash(x, y, seed))
	if h < 0 {
		h = -h
	}
	return h
}

// HasCamp reports whether grid cell (gx, gy) hosts a camp. The cells around
// the starting area never do.
func HasCamp(gx, gy int32) bool {
	if (gx == 0 && gy == 0) || (gx == 1 && gy == 0) || (gx == 0 && gy == 1) {
		return false
	}
	return CampHash(gx, gy, CampSeed)%100 < CampDensity
}

// CampTier derives the bound agent's tier from a second hash of the cell.
func CampTier(gx, gy int32) entity.Tier {
	switch roll := CampHash(gx+1000, gy+1000, CampSeed) % 100; {
	case roll < 50:
		return entity.Apprentice
	case roll < 75:
		return entity.Journeyman
	case roll < 90:
		return entity.Artisan
	default:
		return entity.Architect
	}
}

func campName(gx, gy int32) string {
	h := CampHash(gx, gy, CampSeed)
	return BoundNames[uint64(int64(h))%uint64(len(BoundNames))]
}

func boundHP(t entity.Tier) int {
	switch t {
	case entity.Journeyman:
		return 80
	case entity.Artisan:
		return 120
	case entity.Architect:
		return 200
	}
	return 50
}

// GuardianKinds lists the camp's guardians, ring order.
func GuardianKinds(t entity.Tier) []entity.RogueKind {
	cycle := []entity.RogueKind{entity.Swarm, entity.Corruptor, entity.Looper, entity.Assassin}
	n, width := 2, 1
	switch t {
	case entity.Journeyman:
		n, width = 3, 2
	case entity.Artisan:
		n, width = 4, 3
	case entity.Architect:
		n, width = 5, 4
	}
	out := make([]entity.RogueKind, n)
	for i := range out {
		out[i] = cycle[i%width]
	}
	return out
}

// Camps spawns every not-yet-seen camp whose grid cell lies in the box of
// half-width CampSpawnRadius around (px, py) and returns the cells that got
// one. Cells are not filtered by distance, so corner camps can be well past
// the radius.
func Camps(s *entity.Store, g *state.GameState, px, py float64, r Rand, f *events.Frame) []state.Cell {
	const step = float64(CampGridStep)
	// Saturated bounds; int64 counters so a box at the int32 edge still ends.
	minGX := int64(collision.Saturate(math.Floor((px - CampSpawnRadius) / step)))
	maxGX := int64(collision.Saturate(math.Ceil((px + CampSpawnRadius) / step)))
	minGY := int64(collision.Saturate(math.Floor((py - CampSpawnRadius) / step)))
	maxGY := int64(collision.Saturate(math.Ceil((py + CampSpawnRadius) / step)))

	var spawned []state.Cell
	for x := minGX; x <= maxGX; x++ {
		for y := minGY; y <= maxGY; y++ {
			gx, gy := int32(x), int32(y)
			c := state.Cell{X: gx, Y: gy}
			if g.SpawnedCamps[c] || !HasCamp(gx, gy) {
				continue
			}
			if g.SpawnedCamps == nil {
				g.SpawnedCamps = map[state.Cell]bool{}
			}
			g.SpawnedCamps[c] = true
			spawnCamp(s, gx, gy, r)
			spawned = append(spawned, c)
			if f != nil {
				f.Logf(events.LogExploration, "A %s agent is held at a camp to the %s", CampTier(gx, gy), direction(float64(gx)*step-px, float64(gy)*step-py))
			}
		}
	}
	return spawned
}

func spawnCamp(s *entity.Store, gx, gy int32, r Rand) entity.ID {
	wx, wy := float64(gx)*CampGridStep, float64(gy)*CampGridStep
	tier := CampTier(gx, gy)
	hp := boundHP(tier)

	agent := s.Spawn()
	s.AgentTag.Set(agent, entity.Agent{})
	s.BoundTag.Set(agent, entity.BoundAgent{})
	s.Name.Set(agent, entity.AgentName{Name: campName(gx, gy)})
	s.Position.Set(agent, entity.Position{X: wx, Y: wy})
	s.Velocity.Set(agent, entity.Velocity{})
	s.Collider.Set(agent, entity.Collider{Radius: 5})
	s.Health.Set(agent, entity.Health{Current: hp, Max: hp})
	s.Stats.Set(agent, entity.AgentStats{
		Reliability: 0.4 + r.Float64()*0.5,
		Speed:       0.6 + r.Float64()*0.8,
		Awareness:   40 + r.Float64()*60,
		Resilience:  float64(hp),
	})
	s.Status.Set(agent, entity.AgentStatus{State: entity.AgentDormant})
	s.Tier.Set(agent, entity.AgentTier{Tier: tier})
	s.Morale.Set(agent, entity.AgentMorale{Value: 0.5})
	s.XP.Set(agent, entity.AgentXP{Level: 1})
	s.Vibe.Set(agent, agents.Vibe(tier))
	s.Recruit.Set(agent, entity.Recruitable{Cost: agents.Cost(tier)})
	s.Wander.Set(agent, entity.WanderState{HomeX: wx, HomeY: wy, WaypointX: wx, WaypointY: wy, Radius: BoundWander})

	kinds := GuardianKinds(tier)
	for i, k := range kinds {
		angle := float64(i) / float64(len(kinds)) * 2 * math.Pi
		d := GuardianMinDist + r.Float64()*(GuardianMaxDist-GuardianMinDist)
		x, y := wx+math.Cos(angle)*d, wy+math.Sin(angle)*d
		id := SpawnRogue(s, k, x, y)
		s.Guardian.Set(id, entity.GuardianRogue{
			HomeX:       x,
			HomeY:       y,
			LeashRadius: GuardianLeash,
			WaypointX:   x,
			WaypointY:   y,
			BoundAgent:  agent,
		})
	}
	return agent
}

func direction(dx, dy float64) string {
	names := [...]string{"east", "southeast", "south", "southwest", "west", "northwest", "north", "northeast"}
	a := math.Atan2(dy, dx)
	i := int(math.Round(a/(math.Pi/4))+8) % 8
	return names[i]
}
