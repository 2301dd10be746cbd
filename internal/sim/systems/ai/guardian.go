package ai

import (
	"math"

	"tokenwheel.ai/internal/sim/entity"
)

const (
	AggroRadius      = 100.0
	PatrolSpeedScale = 0.4
	PatrolArrival    = 3.0
	PatrolMinDist    = 20.0
	PatrolMaxDist    = 80.0
	PatrolMinPause   = 30
	PatrolMaxPause   = 90
)

// GuardianMode names the branch GuardianStep took.
type GuardianMode uint8

const (
	ModeLeash GuardianMode = iota
	ModeChase
	ModePause
	ModePatrol
	ModeArrive
)

var guardianModeNames = [...]string{"Leash", "Chase", "Pause", "Patrol", "Arrive"}

func (m GuardianMode) String() string {
	if int(m) < len(guardianModeNames) {
		return guardianModeNames[m]
	}
	return "Unknown"
}

// GuardianOutcome is what the guardian does this tick. Speed 0 means hold
// position with zero velocity.
type GuardianOutcome struct {
	Mode     GuardianMode
	Behavior entity.Behavior
	Target   entity.ID
	ToX, ToY float64
	Speed    float64
}

// GuardianStep is the guardian transition function. It updates the patrol
// fields of g in place and returns where to move. Evaluation order is fixed:
// leash, then aggro, then patrol.
func GuardianStep(pos entity.Position, g *entity.GuardianRogue, player *Candidate, speed float64, rng Rand) GuardianOutcome {
	hx, hy := pos.X-g.HomeX, pos.Y-g.HomeY
	if math.Sqrt(hx*hx+hy*hy) > g.LeashRadius {
		return GuardianOutcome{Mode: ModeLeash, Behavior: entity.Fleeing, ToX: g.HomeX, ToY: g.HomeY, Speed: speed}
	}

	if player != nil {
		dx, dy := player.X-pos.X, player.Y-pos.Y
		d := math.Sqrt(dx*dx + dy*dy)
		if d < AggroRadius {
			b := entity.Approaching
			if d < AttackRadius {
				b = entity.Attacking
			}
			return GuardianOutcome{Mode: ModeChase, Behavior: b, Target: player.ID, ToX: player.X, ToY: player.Y, Speed: speed}
		}
	}

	if g.PatrolPause > 0 {
		g.PatrolPause--
		return GuardianOutcome{Mode: ModePause, Behavior: entity.Wandering}
	}

	wx, wy := g.WaypointX-pos.X, g.WaypointY-pos.Y
	if math.Sqrt(wx*wx+wy*wy) < PatrolArrival {
		angle := rng.Float64() * 2 * math.Pi
		dist := PatrolMinDist + rng.Float64()*(PatrolMaxDist-PatrolMinDist)
		g.WaypointX = g.HomeX + math.Cos(angle)*dist
		g.WaypointY = g.HomeY + math.Sin(angle)*dist
		g.PatrolPause = PatrolMinPause + int(rng.Float64()*(PatrolMaxPause-PatrolMinPause))
		return GuardianOutcome{Mode: ModeArrive, Behavior: entity.Wandering}
	}

	return GuardianOutcome{
		Mode:     ModePatrol,
		Behavior: entity.Wandering,
		ToX:      g.WaypointX,
		ToY:      g.WaypointY,
		Speed:    speed * PatrolSpeedScale,
	}
}
