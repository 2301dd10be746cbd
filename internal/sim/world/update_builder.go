package world

import (
	"sort"

	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/fog"
	"tokenwheel.ai/internal/sim/systems/economy"
)

// buildUpdate assembles the outbound snapshot for tick. Every live agent,
// building, hostile and projectile is listed in full each tick; removals are
// the ids despawned since the previous snapshot.
func (w *World) buildUpdate(tick uint64, fresh []fog.Chunk) protocol.GameStateUpdate {
	s, g, f := w.store, w.state, &w.frame
	hz := float64(w.tun.TickRateHz)

	upd := protocol.GameStateUpdate{
		Tick:            tick,
		Player:          w.playerSnapshot(),
		EntitiesChanged: []protocol.EntityDelta{},
		EntitiesRemoved: []uint64{},
		FogUpdates:      make([]protocol.ChunkPos, 0, len(fresh)),
		Economy: protocol.EconomySnapshot{
			Balance:           g.Economy.Balance,
			IncomePerSec:      g.Economy.IncomePerTick * hz,
			ExpenditurePerSec: g.Economy.ExpenditurePerTick * hz,
		},
		LogEntries:    make([]protocol.LogEntry, 0, len(f.Logs)),
		AudioTriggers: make([]string, 0, len(f.Audio)),
		Debug: protocol.DebugSnapshot{
			SpawningEnabled: g.SpawningEnabled,
			GodMode:         g.GodMode,
			Phase:           g.Phase.String(),
			CrankTier:       g.Crank.Tier.String(),
		},
		Wheel:             w.wheelSnapshot(),
		CombatEvents:      make([]protocol.CombatEvent, 0, len(f.Hits)),
		PlayerHit:         f.PlayerHit,
		PlayerHitDamage:   f.PlayerHitDamage,
		Inventory:         []protocol.InventoryItem{},
		PurchasedUpgrades: g.PurchasedUpgrades(),
	}

	for _, id := range s.Agents() {
		if d, ok := w.agentDelta(id); ok {
			upd.EntitiesChanged = append(upd.EntitiesChanged, d)
		}
	}
	for _, id := range s.Buildings() {
		if d, ok := w.buildingDelta(id); ok {
			upd.EntitiesChanged = append(upd.EntitiesChanged, d)
		}
	}
	for _, id := range s.Rogues() {
		if d, ok := w.rogueDelta(id); ok {
			upd.EntitiesChanged = append(upd.EntitiesChanged, d)
		}
	}
	for _, id := range s.Projectiles() {
		pos := s.Position.Get(id)
		p := s.Projectile.Get(id)
		if pos == nil || p == nil {
			continue
		}
		upd.EntitiesChanged = append(upd.EntitiesChanged, protocol.EntityDelta{
			ID:         uint64(id),
			Kind:       protocol.KindProjectile,
			Position:   protocol.Vec2{X: pos.X, Y: pos.Y},
			Projectile: &protocol.ProjectileData{DX: p.DirX, DY: p.DirY},
		})
	}
	for _, id := range s.DrainRemoved() {
		upd.EntitiesRemoved = append(upd.EntitiesRemoved, uint64(id))
	}

	for _, c := range fresh {
		upd.FogUpdates = append(upd.FogUpdates, protocol.ChunkPos{X: c.X, Y: c.Y})
	}
	for _, e := range f.Logs {
		upd.LogEntries = append(upd.LogEntries, protocol.LogEntry{Tick: tick, Text: e.Text, Category: e.Category.String()})
	}
	for _, a := range f.Audio {
		upd.AudioTriggers = append(upd.AudioTriggers, a.String())
	}
	for _, h := range f.Hits {
		upd.CombatEvents = append(upd.CombatEvents, protocol.CombatEvent{
			X: h.X, Y: h.Y, Damage: h.Damage, IsKill: h.Kill, RogueType: h.Rogue.String(),
		})
	}

	items := make([]string, 0, len(g.Inventory))
	for item := range g.Inventory {
		items = append(items, item)
	}
	sort.Strings(items)
	for _, item := range items {
		upd.Inventory = append(upd.Inventory, protocol.InventoryItem{ItemType: item, Count: g.Inventory[item]})
	}
	return upd
}

func (w *World) playerSnapshot() protocol.PlayerSnapshot {
	s, g := w.store, w.state
	ps := protocol.PlayerSnapshot{
		Tokens:     g.Economy.Balance,
		Dead:       g.PlayerDead,
		DeathTimer: w.deathTimer(),
	}
	pid, ok := s.Player()
	if !ok {
		return ps
	}
	if pos := s.Position.Get(pid); pos != nil {
		ps.Position = protocol.Vec2{X: pos.X, Y: pos.Y}
	}
	if hp := s.Health.Get(pid); hp != nil {
		ps.Health, ps.MaxHealth = hp.Current, hp.Max
	}
	if t := s.Torch.Get(pid); t != nil {
		ps.TorchRange = t.Radius
	}
	if fc := s.Facing.Get(pid); fc != nil {
		ps.Facing = protocol.Vec2{X: fc.X, Y: fc.Y}
	}
	if c := s.Combat.Get(pid); c != nil && c.CooldownTicks > 0 {
		ps.AttackCooldownPct = float64(c.CooldownRemaining) / float64(c.CooldownTicks)
	}
	return ps
}

func (w *World) wheelSnapshot() protocol.WheelSnapshot {
	c := w.state.Crank
	ws := protocol.WheelSnapshot{
		Tier:              c.Tier.String(),
		TokensPerRotation: c.TokensPerRotation * economy.Efficiency(c.Tier),
		AgentBonusPerTick: economy.WorkerBonus(c.Tier),
		Heat:              c.Heat,
		MaxHeat:           c.MaxHeat,
		IsCranking:        c.IsCranking,
	}
	if c.AssignedAgent != 0 {
		id := uint64(c.AssignedAgent)
		ws.AssignedAgentID = &id
	}
	if cost, ok := w.wheelCosts().Next(c.Tier); ok {
		ws.UpgradeCost = &cost
	}
	return ws
}

func pct(h *entity.Health) float64 {
	if h == nil || h.Max <= 0 {
		return 0
	}
	return float64(max(h.Current, 0)) / float64(h.Max)
}

func (w *World) agentDelta(id entity.ID) (protocol.EntityDelta, bool) {
	s := w.store
	pos := s.Position.Get(id)
	st := s.Status.Get(id)
	if pos == nil || st == nil {
		return protocol.EntityDelta{}, false
	}
	d := &protocol.AgentData{
		Name:      agentName(s, id),
		State:     st.State.String(),
		HealthPct: pct(s.Health.Get(id)),
		Bound:     s.BoundTag.Has(id),
	}
	if t := s.Tier.Get(id); t != nil {
		d.Tier = t.Tier.String()
	}
	if m := s.Morale.Get(id); m != nil {
		d.MoralePct = m.Value
	}
	if v := s.Vibe.Get(id); v != nil {
		d.Stars, d.TurnsUsed, d.MaxTurns, d.ModelLoreName = v.Stars, v.TurnsUsed, v.MaxTurns, v.ModelLoreName
	}
	if xp := s.XP.Get(id); xp != nil {
		d.XP, d.Level = xp.XP, xp.Level
	}
	if r := s.Recruit.Get(id); r != nil {
		cost := r.Cost
		d.RecruitableCost = &cost
	}
	if as := s.Assignment.Get(id); as != nil {
		d.Task, d.Project = as.Task.String(), as.Project
	}
	return protocol.EntityDelta{
		ID:       uint64(id),
		Kind:     protocol.KindAgent,
		Position: protocol.Vec2{X: pos.X, Y: pos.Y},
		Agent:    d,
	}, true
}

func (w *World) buildingDelta(id entity.ID) (protocol.EntityDelta, bool) {
	s := w.store
	pos := s.Position.Get(id)
	bt := s.BType.Get(id)
	if pos == nil || bt == nil {
		return protocol.EntityDelta{}, false
	}
	d := &protocol.BuildingData{BuildingType: bt.Kind.String(), HealthPct: pct(s.Health.Get(id))}
	if p := s.Progress.Get(id); p != nil {
		if p.Total > 0 {
			d.ConstructionPct = p.Current / p.Total
		} else {
			d.ConstructionPct = 1
		}
		for _, a := range p.Assigned {
			d.AssignedAgents = append(d.AssignedAgents, uint64(a))
		}
	}
	return protocol.EntityDelta{
		ID:       uint64(id),
		Kind:     protocol.KindBuilding,
		Position: protocol.Vec2{X: pos.X, Y: pos.Y},
		Building: d,
	}, true
}

func (w *World) rogueDelta(id entity.ID) (protocol.EntityDelta, bool) {
	s := w.store
	pos := s.Position.Get(id)
	rt := s.RogueType.Get(id)
	if pos == nil || rt == nil {
		return protocol.EntityDelta{}, false
	}
	d := &protocol.RogueData{
		RogueType: rt.Kind.String(),
		HealthPct: pct(s.Health.Get(id)),
		Visible:   true,
		Guardian:  s.Guardian.Has(id),
	}
	if v := s.Visibility.Get(id); v != nil {
		d.Visible = v.Visible
	}
	if brain := s.RogueAI.Get(id); brain != nil {
		d.Behavior = brain.State.String()
	}
	return protocol.EntityDelta{
		ID:       uint64(id),
		Kind:     protocol.KindRogue,
		Position: protocol.Vec2{X: pos.X, Y: pos.Y},
		Rogue:    d,
	}, true
}
