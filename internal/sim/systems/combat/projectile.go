package combat

import (
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/state"
)

// Fire spawns a player projectile along the player's facing, using the
// equipped weapon's damage and range. It does nothing when the player is
// facing nowhere.
func Fire(s *entity.Store) (entity.ID, bool) {
	pid, ok := s.Player()
	if !ok {
		return 0, false
	}
	pos := s.Position.Get(pid)
	power := s.Combat.Get(pid)
	fc := s.Facing.Get(pid)
	if pos == nil || power == nil || fc == nil || (fc.X == 0 && fc.Y == 0) {
		return 0, false
	}
	origin, dir, dmg, rng := *pos, *fc, power.BaseDamage, power.Range
	id := s.Spawn()
	s.Position.Set(id, origin)
	s.Projectile.Set(id, entity.Projectile{
		DirX:           dir.X,
		DirY:           dir.Y,
		Speed:          ProjectileSpeed,
		Damage:         dmg,
		RangeRemaining: rng,
		OwnerIsPlayer:  true,
	})
	return id, true
}

// StepProjectiles advances every projectile, expires the spent ones and
// resolves player projectiles against hostiles. A projectile hits at most
// one hostile; a hostile killed earlier in the pass cannot be hit again.
func StepProjectiles(s *entity.Store, g *state.GameState, f *events.Frame) int64 {
	type live struct {
		id     entity.ID
		pos    entity.Position
		damage int
		player bool
	}
	var (
		alive   []live
		despawn []entity.ID
	)
	for _, id := range s.Projectiles() {
		pos := s.Position.Get(id)
		p := s.Projectile.Get(id)
		if pos == nil || p == nil {
			continue
		}
		pos.X += p.DirX * p.Speed
		pos.Y += p.DirY * p.Speed
		p.RangeRemaining -= p.Speed
		if p.RangeRemaining <= 0 {
			despawn = append(despawn, id)
			continue
		}
		alive = append(alive, live{id: id, pos: *pos, damage: p.Damage, player: p.OwnerIsPlayer})
	}

	var hostiles []hostile
	for _, id := range s.Rogues() {
		pos := s.Position.Get(id)
		rt := s.RogueType.Get(id)
		if pos == nil || rt == nil {
			continue
		}
		hostiles = append(hostiles, hostile{id: id, pos: *pos, kind: rt.Kind})
	}

	var (
		bounty int64
		killed []entity.ID
		dead   = map[entity.ID]bool{}
	)
	hitSq := ProjectileHitRange * ProjectileHitRange
	for _, p := range alive {
		if !p.player {
			continue
		}
		for _, h := range hostiles {
			if dead[h.id] || distSq(p.pos, h.pos) > hitSq {
				continue
			}
			if hp := s.Health.Get(h.id); hp != nil {
				hp.Current -= p.damage
				kill := hp.Current <= 0
				f.Play(events.CombatHit)
				f.Hits = append(f.Hits, events.Hit{X: h.pos.X, Y: h.pos.Y, Damage: p.damage, Kill: kill, Rogue: h.kind})
				if kill {
					b := Bounty(h.kind)
					bounty += b
					dead[h.id] = true
					killed = append(killed, h.id)
					f.Kills = append(f.Kills, events.Kill{ID: h.id, Rogue: h.kind, Bounty: b, X: h.pos.X, Y: h.pos.Y, Projectile: true})
					f.Logf(events.LogCombat, "[combat] %s terminated", h.kind)
				}
			}
			despawn = append(despawn, p.id)
			break
		}
	}

	for _, id := range despawn {
		s.Despawn(id)
	}
	for _, id := range killed {
		s.Despawn(id)
	}
	g.Economy.Balance += bounty
	return bounty
}
