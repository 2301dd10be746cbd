// Package combat resolves player attacks, hostile attacks on the player and
// on agents, and player projectiles.
package combat

import (
	"math"

	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/state"
)

// InArc reports whether the target lies inside the attacker's facing cone.
func InArc(facing entity.Facing, from, to entity.Position, arcDegrees float64) bool {
	if arcDegrees >= 360 {
		return true
	}
	dx, dy := to.X-from.X, to.Y-from.Y
	l := math.Sqrt(dx*dx + dy*dy)
	if l < 0.001 {
		return true
	}
	dot := facing.X*dx/l + facing.Y*dy/l
	return dot >= math.Cos(arcDegrees/2*math.Pi/180)
}

func distSq(a, b entity.Position) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// TickCooldown counts the player's attack cooldown down by one.
func TickCooldown(s *entity.Store) {
	pid, ok := s.Player()
	if !ok {
		return
	}
	if c := s.Combat.Get(pid); c != nil && c.CooldownRemaining > 0 {
		c.CooldownRemaining--
	}
}

type Result struct {
	// Attacked is set when the player's attack went off this tick.
	Attacked bool
	// Fire asks the caller to spawn a projectile for a ranged weapon.
	Fire   bool
	Bounty int64
}

type hostile struct {
	id   entity.ID
	pos  entity.Position
	kind entity.RogueKind
}

// Resolve runs one combat tick. Hostiles are snapshotted up front, so a
// hostile killed by the player this tick still gets its own attacks in
// before it is despawned at the end.
func Resolve(s *entity.Store, g *state.GameState, attacking bool, f *events.Frame) Result {
	var res Result
	pid, ok := s.Player()
	if !ok {
		return res
	}
	ppos := s.Position.Get(pid)
	power := s.Combat.Get(pid)
	if ppos == nil || power == nil {
		return res
	}
	var facing entity.Facing
	if fc := s.Facing.Get(pid); fc != nil {
		facing = *fc
	}
	var reduction float64
	if a := s.Armor.Get(pid); a != nil {
		reduction = a.DamageReduction
	}
	player := *ppos

	var hostiles []hostile
	for _, id := range s.Rogues() {
		pos := s.Position.Get(id)
		rt := s.RogueType.Get(id)
		if pos == nil || rt == nil {
			continue
		}
		hostiles = append(hostiles, hostile{id: id, pos: *pos, kind: rt.Kind})
	}

	var killed []entity.ID
	if attacking && power.CooldownRemaining == 0 {
		res.Attacked = true
		power.CooldownRemaining = power.CooldownTicks
		if power.IsProjectile {
			res.Fire = true
		} else {
			rangeSq := power.Range * power.Range
			for _, h := range hostiles {
				if distSq(player, h.pos) > rangeSq || !InArc(facing, player, h.pos, power.ArcDegrees) {
					continue
				}
				hp := s.Health.Get(h.id)
				if hp == nil {
					continue
				}
				hp.Current -= power.BaseDamage
				kill := hp.Current <= 0
				f.Play(events.CombatHit)
				f.Hits = append(f.Hits, events.Hit{X: h.pos.X, Y: h.pos.Y, Damage: power.BaseDamage, Kill: kill, Rogue: h.kind})
				if kill {
					b := Bounty(h.kind)
					res.Bounty += b
					killed = append(killed, h.id)
					f.Kills = append(f.Kills, events.Kill{ID: h.id, Rogue: h.kind, Bounty: b, X: h.pos.X, Y: h.pos.Y})
					f.Logf(events.LogCombat, "[combat] %s terminated", h.kind)
				}
			}
		}
	}

	if !g.GodMode && !g.PlayerDead {
		if hp := s.Health.Get(pid); hp != nil {
			for _, h := range hostiles {
				if distSq(player, h.pos) > PlayerThreatRadius*PlayerThreatRadius {
					continue
				}
				if h.kind == entity.TokenDrain {
					g.Economy.Balance = max(g.Economy.Balance-1, 0)
					continue
				}
				dmg := Mitigate(DamageToPlayer(h.kind), reduction)
				if dmg == 0 {
					continue
				}
				hp.Current -= dmg
				f.PlayerHit = true
				f.PlayerHitDamage += dmg
			}
		}
	}

	agentThreat := AgentThreatRadius * AgentThreatRadius
	for _, aid := range s.Agents() {
		st := s.Status.Get(aid)
		apos := s.Position.Get(aid)
		hp := s.Health.Get(aid)
		if st == nil || apos == nil || hp == nil || !st.State.Active() {
			continue
		}
		for _, h := range hostiles {
			if distSq(*apos, h.pos) > agentThreat {
				continue
			}
			hp.Current -= DamageToAgent(h.kind)
			if hp.Current <= 0 {
				st.State = entity.AgentUnresponsive
				name := ""
				if n := s.Name.Get(aid); n != nil {
					name = n.Name
				}
				f.AgentsDown = append(f.AgentsDown, aid)
				f.Logf(events.LogAgent, "[agent_%s] has stopped responding.", name)
				f.Play(events.AgentDeath)
				break
			}
		}
	}

	for _, id := range killed {
		s.Despawn(id)
	}
	g.Economy.Balance += res.Bounty
	return res
}
