package agents

import (
	"math"

	"tokenwheel.ai/internal/sim/collision"
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/state"
)

const (
	WanderSpeedScale = 0.4
	WaypointReached  = 2.0
	MinPauseTicks    = 20
	MaxPauseTicks    = 60
)

func working(st entity.AgentState) bool {
	return st == entity.AgentBuilding || st == entity.AgentExploring || st == entity.AgentDefending
}

// Tick spends one turn for every working agent. Agents that hit their turn
// limit, or fail the random error roll, start Erroring. Erroring agents burn
// tokens every tick; the balance may go negative.
func Tick(s *entity.Store, econ *state.TokenEconomy, r Rand, f *events.Frame) int64 {
	var (
		burn    int64
		toError []entity.ID
	)
	for _, id := range s.Agents() {
		st := s.Status.Get(id)
		v := s.Vibe.Get(id)
		stats := s.Stats.Get(id)
		if st == nil || v == nil || stats == nil {
			continue
		}
		switch {
		case working(st.State):
			v.TurnsUsed++
			if v.TurnsUsed >= v.MaxTurns {
				toError = append(toError, id)
				continue
			}
			ratio := float64(v.TurnsUsed) / float64(v.MaxTurns)
			if r.Float64() < v.ErrorChanceBase*(1-stats.Reliability)*ratio {
				toError = append(toError, id)
			}
		case st.State == entity.AgentErroring:
			burn += v.TokenBurnRate
		}
	}
	for _, id := range toError {
		s.Status.Get(id).State = entity.AgentErroring
		f.Logf(events.LogAgent, "[%s] context limit reached -- ERRORING", nameOf(s, id))
	}
	econ.Balance -= burn
	return burn
}

// Wander walks idle agents between random waypoints around their home. Moves
// are checked against walk per axis.
func Wander(s *entity.Store, walk collision.Oracle, r Rand) {
	for _, id := range s.Agents() {
		st := s.Status.Get(id)
		w := s.Wander.Get(id)
		pos := s.Position.Get(id)
		if st == nil || w == nil || pos == nil || st.State != entity.AgentIdle {
			continue
		}
		speed := 1.0
		if stats := s.Stats.Get(id); stats != nil {
			speed = stats.Speed
		}
		vel := s.Velocity.Get(id)

		if w.PauseRemaining > 0 {
			w.PauseRemaining--
			if vel != nil {
				vel.X, vel.Y = 0, 0
			}
			continue
		}

		dx, dy := w.WaypointX-pos.X, w.WaypointY-pos.Y
		dist := math.Sqrt(dx*dx + dy*dy)
		if dist < WaypointReached {
			w.PauseRemaining = MinPauseTicks + int(r.Float64()*(MaxPauseTicks-MinPauseTicks))
			angle := r.Float64() * 2 * math.Pi
			rad := math.Sqrt(r.Float64()) * w.Radius
			w.WaypointX = w.HomeX + math.Cos(angle)*rad
			w.WaypointY = w.HomeY + math.Sin(angle)*rad
			if vel != nil {
				vel.X, vel.Y = 0, 0
			}
			continue
		}

		ws := WanderSpeedScale * speed
		vx, vy := dx/dist*ws, dy/dist*ws
		if vel != nil {
			vel.X, vel.Y = vx, vy
		}
		pos.X, pos.Y = collision.Slide(walk, pos.X, pos.Y, vx, vy)
	}
}
