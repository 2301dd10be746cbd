// Package ai moves hostiles and maintains their behaviour state.
//
// Roaming hostiles chase the nearest candidate (player first, then agents in
// creation order). Camp guardians run a separate leash/aggro/patrol machine,
// see GuardianStep.
package ai

import (
	"math"

	"tokenwheel.ai/internal/sim/entity"
)

const (
	AttackRadius   = 20.0
	ApproachRadius = 200.0
)

// Speed is the fixed per-tick movement speed of a hostile type.
func Speed(k entity.RogueKind) float64 {
	switch k {
	case entity.Swarm:
		return 1.5
	case entity.Assassin:
		return 3.0
	case entity.Corruptor:
		return 0.8
	case entity.Looper:
		return 1.0
	case entity.TokenDrain:
		return 0.5
	case entity.Mimic:
		return 0
	case entity.RogueArchitect:
		return 0.6
	}
	return 0
}

// Classify maps the distance to the current target onto a behaviour state.
func Classify(dist float64) entity.Behavior {
	switch {
	case dist < AttackRadius:
		return entity.Attacking
	case dist < ApproachRadius:
		return entity.Approaching
	default:
		return entity.Wandering
	}
}

// Candidate is a potential target.
type Candidate struct {
	ID   entity.ID
	X, Y float64
	XP   uint64
}

// Nearest returns the candidate with the smallest squared distance to
// (x, y). A later candidate replaces the current best only when strictly
// closer, so on ties the earliest one wins.
func Nearest(x, y float64, cands []Candidate) (Candidate, bool) {
	best := -1
	bestD := 0.0
	for i, c := range cands {
		dx, dy := c.X-x, c.Y-y
		d := dx*dx + dy*dy
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	if best < 0 {
		return Candidate{}, false
	}
	return cands[best], true
}

// HighestXP returns the agent with the most XP. Ties go to the earliest
// created agent, the same first-match rule Nearest uses, not the last one.
func HighestXP(agents []Candidate) (Candidate, bool) {
	best := -1
	for i, c := range agents {
		if best < 0 || c.XP > agents[best].XP {
			best = i
		}
	}
	if best < 0 {
		return Candidate{}, false
	}
	return agents[best], true
}

// moveToward steps pos toward (tx, ty) at speed and records the velocity.
// It returns the distance to the destination measured before moving.
func moveToward(pos *entity.Position, vel *entity.Velocity, tx, ty, speed float64) float64 {
	dx, dy := tx-pos.X, ty-pos.Y
	dist := math.Sqrt(dx*dx + dy*dy)
	if speed > 0 && dist > 0.001 {
		vx, vy := dx/dist*speed, dy/dist*speed
		if vel != nil {
			vel.X, vel.Y = vx, vy
		}
		pos.X += vx
		pos.Y += vy
	}
	return dist
}

func hold(vel *entity.Velocity) {
	if vel != nil {
		vel.X, vel.Y = 0, 0
	}
}

// Rand is the randomness guardians need to pick patrol points.
type Rand interface {
	Float64() float64
}

// Step runs one AI tick. player is nil when there is no living player.
func Step(s *entity.Store, player *Candidate, rng Rand) {
	agents := candidates(s)

	for _, id := range s.Guardians() {
		pos := s.Position.Get(id)
		g := s.Guardian.Get(id)
		rt := s.RogueType.Get(id)
		if pos == nil || g == nil || rt == nil {
			continue
		}
		out := GuardianStep(*pos, g, player, Speed(rt.Kind), rng)
		vel := s.Velocity.Get(id)
		if out.Speed > 0 {
			moveToward(pos, vel, out.ToX, out.ToY, out.Speed)
		} else {
			hold(vel)
		}
		if brain := s.RogueAI.Get(id); brain != nil {
			brain.State = out.Behavior
			brain.Target = out.Target
		}
	}

	var all []Candidate
	if player != nil {
		all = append(all, *player)
	}
	all = append(all, agents...)

	for _, id := range s.Roamers() {
		pos := s.Position.Get(id)
		rt := s.RogueType.Get(id)
		if pos == nil || rt == nil {
			continue
		}
		var (
			target Candidate
			ok     bool
		)
		if rt.Kind == entity.Assassin {
			target, ok = HighestXP(agents)
			if !ok && player != nil {
				target, ok = *player, true
			}
		} else {
			target, ok = Nearest(pos.X, pos.Y, all)
		}

		vel := s.Velocity.Get(id)
		dist := math.MaxFloat64
		var tid entity.ID
		if ok {
			dist = moveToward(pos, vel, target.X, target.Y, Speed(rt.Kind))
			tid = target.ID
		} else {
			hold(vel)
		}
		if brain := s.RogueAI.Get(id); brain != nil {
			brain.State = Classify(dist)
			brain.Target = tid
		}
	}
}

// candidates lists agents that can be targeted, in creation order. Dormant
// recruits are targets; only unresponsive agents are skipped.
func candidates(s *entity.Store) []Candidate {
	var out []Candidate
	for _, id := range s.Agents() {
		pos := s.Position.Get(id)
		if pos == nil {
			continue
		}
		if st := s.Status.Get(id); st != nil && st.State == entity.AgentUnresponsive {
			continue
		}
		c := Candidate{ID: id, X: pos.X, Y: pos.Y}
		if xp := s.XP.Get(id); xp != nil {
			c.XP = xp.XP
		}
		out = append(out, c)
	}
	return out
}
