package world

import (
	"math"

	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/systems/agents"
	"tokenwheel.ai/internal/sim/systems/combat"
	"tokenwheel.ai/internal/sim/systems/economy"
	"tokenwheel.ai/internal/sim/upgrades"
)

// InteractRadius is how close a recruitable agent must be for Interact.
const InteractRadius = 48.0

// applyAction performs one player action. A returned error is a rejection:
// the action had no effect.
func (w *World) applyAction(a *protocol.PlayerAction, target *uint64) error {
	s, g, f := w.store, w.state, &w.frame

	switch a.Kind {
	case protocol.ActAttack:
		if !g.PlayerDead {
			w.attacking = true
		}
		return nil

	case protocol.ActInteract:
		id, ok := w.nearestAgent(InteractRadius, func(id entity.ID) bool { return s.Recruit.Has(id) })
		if !ok {
			return protocol.Rejectf(protocol.ErrInvalidTarget, "Nothing to interact with")
		}
		return agents.Recruit(s, &g.Economy, id, f)

	case protocol.ActAssignTask:
		id, err := targetID(target)
		if err != nil {
			return err
		}
		name := a.Task
		if name == "" {
			name = entity.TaskBuild.String()
		}
		task, ok := entity.ParseTask(name)
		if !ok {
			return protocol.Rejectf(protocol.ErrBadRequest, "Unknown task: %s", a.Task)
		}
		if task == entity.TaskCrank {
			return w.assignWheel(id)
		}
		if err := agents.AssignTask(s, id, task); err != nil {
			return err
		}
		if g.Crank.AssignedAgent == id {
			g.Crank.AssignedAgent = 0
		}
		f.Logf(events.LogAgent, "[%s] assigned to %s", agentName(s, id), task)
		return nil

	case protocol.ActPlaceBuilding:
		return w.placeBuilding(a.BuildingType, a.X, a.Y)

	case protocol.ActCrankStart:
		if g.PlayerDead {
			return protocol.Rejectf(protocol.ErrBlocked, "You cannot crank while rebooting")
		}
		w.cranking = true
		return nil

	case protocol.ActCrankStop:
		w.cranking = false
		return nil

	case protocol.ActRecruitAgent:
		return agents.Recruit(s, &g.Economy, entity.ID(a.EntityID), f)

	case protocol.ActUpgradeWheel:
		if err := economy.UpgradeWheel(g, w.wheelCosts()); err != nil {
			return err
		}
		f.Logf(events.LogEconomy, "Token wheel upgraded to %s", g.Crank.Tier)
		return nil

	case protocol.ActAssignAgentToWheel:
		return w.assignWheel(entity.ID(a.AgentID))

	case protocol.ActUnassignAgentFromWheel:
		if err := agents.UnassignFromWheel(s, g); err != nil {
			return err
		}
		f.Logf(events.LogEconomy, "Token wheel worker released")
		return nil

	case protocol.ActRollbackAgent:
		id, err := targetID(target)
		if err != nil {
			return err
		}
		return agents.Rollback(s, id, f)

	case protocol.ActEquipWeapon:
		return w.equipWeapon(a.WeaponID)

	case protocol.ActEquipArmor:
		return w.equipArmor(a.ArmorID)

	case protocol.ActPurchaseUpgrade:
		def, err := upgrades.Purchase(&w.cat.Upgrades, g, a.UpgradeID)
		if err != nil {
			return err
		}
		f.Logf(events.LogEconomy, "Purchased %s for %d tokens", def.Name, def.Cost)
		return nil

	case protocol.ActAddInventoryItem:
		return w.addItem(a.ItemType, a.Count)

	case protocol.ActRemoveInventoryItem:
		return w.removeItem(a.ItemType, a.Count)

	case protocol.ActAssignAgentToProject:
		return w.assignProject(entity.ID(a.AgentID), a.BuildingID)

	case protocol.ActUnassignAgentFromProject:
		return w.unassignProject(entity.ID(a.AgentID), a.BuildingID)
	}

	if isDebug(a.Kind) {
		return w.applyDebug(a)
	}
	return protocol.Rejectf(protocol.ErrBadRequest, "Unknown action: %s", a.Kind)
}

func targetID(target *uint64) (entity.ID, error) {
	if target == nil || *target == 0 {
		return 0, protocol.Rejectf(protocol.ErrBadRequest, "No target selected")
	}
	return entity.ID(*target), nil
}

func agentName(s *entity.Store, id entity.ID) string {
	if n := s.Name.Get(id); n != nil {
		return n.Name
	}
	return "agent"
}

func (w *World) wheelCosts() economy.WheelCosts {
	c := economy.DefaultWheelCosts
	copy(c[:], w.tun.WheelUpgradeCosts)
	return c
}

func (w *World) assignWheel(id entity.ID) error {
	g := w.state
	if !upgrades.Has(g, upgrades.CrankAssignment) {
		name := upgrades.CrankAssignment
		if def, ok := w.cat.Upgrades.ByID[upgrades.CrankAssignment]; ok {
			name = def.Name
		}
		return protocol.Rejectf(protocol.ErrBlocked, "Requires the %s upgrade", name)
	}
	if err := agents.AssignToWheel(w.store, g, id); err != nil {
		return err
	}
	w.frame.Logf(events.LogEconomy, "[%s] is now turning the token wheel", agentName(w.store, id))
	return nil
}

func (w *World) placeBuilding(typ string, x, y float64) error {
	def, ok := w.cat.Buildings.Lookup(typ)
	if !ok {
		return protocol.Rejectf(protocol.ErrInvalidTarget, "Unknown building type: %s", typ)
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return protocol.Rejectf(protocol.ErrBadRequest, "Invalid placement position")
	}
	econ := &w.state.Economy
	if !econ.Spend(def.Cost) {
		return protocol.Rejectf(protocol.ErrNoResource, "Not enough tokens: need %d, have %d", def.Cost, econ.Balance)
	}
	w.spawnBuilding(def, x, y, def.BuildTime <= 0)
	w.frame.Logf(events.LogBuilding, "Placed %s for %d tokens", def.Name, def.Cost)
	return nil
}

func (w *World) equipWeapon(id string) error {
	kind, ok := combat.WeaponByID(id)
	if !ok {
		return protocol.Rejectf(protocol.ErrInvalidTarget, "Unknown weapon: %s", id)
	}
	pid, ok := w.store.Player()
	if !ok {
		return protocol.Rejectf(protocol.ErrInvalidTarget, "No player")
	}
	w.store.Combat.Set(pid, combat.WeaponStats(kind))
	w.frame.Logf(events.LogSystem, "Equipped %s", kind)
	return nil
}

func (w *World) equipArmor(id string) error {
	kind, ok := combat.ArmorByID(id)
	if !ok {
		return protocol.Rejectf(protocol.ErrInvalidTarget, "Unknown armor: %s", id)
	}
	pid, ok := w.store.Player()
	if !ok {
		return protocol.Rejectf(protocol.ErrInvalidTarget, "No player")
	}
	w.store.Armor.Set(pid, combat.ArmorStats(kind))
	w.frame.Logf(events.LogSystem, "Equipped %s", kind)
	return nil
}

func (w *World) addItem(item string, count int) error {
	if item == "" || count <= 0 {
		return protocol.Rejectf(protocol.ErrBadRequest, "Item and a positive count are required")
	}
	w.state.Inventory[item] += count
	return nil
}

func (w *World) removeItem(item string, count int) error {
	if item == "" || count <= 0 {
		return protocol.Rejectf(protocol.ErrBadRequest, "Item and a positive count are required")
	}
	have := w.state.Inventory[item]
	if have < count {
		return protocol.Rejectf(protocol.ErrNoResource, "Not enough %s: need %d, have %d", item, count, have)
	}
	if have == count {
		delete(w.state.Inventory, item)
	} else {
		w.state.Inventory[item] = have - count
	}
	return nil
}

func (w *World) assignProject(agent entity.ID, project string) error {
	def, ok := w.cat.Manifest.Project(project)
	if !ok {
		return protocol.Rejectf(protocol.ErrInvalidTarget, "Unknown project: %s", project)
	}
	kind, ok := def.Kind()
	if !ok {
		return protocol.Rejectf(protocol.ErrInvalidTarget, "Project %s has no building type", project)
	}
	return agents.AssignToProject(w.store, agent, def.ID, kind, &w.frame)
}

func (w *World) unassignProject(agent entity.ID, project string) error {
	as := w.store.Assignment.Get(agent)
	if as == nil || as.Project == "" || (project != "" && as.Project != project) {
		return protocol.Rejectf(protocol.ErrConflict, "Agent is not assigned to %s", project)
	}
	as.Project, as.Building = "", 0
	w.frame.Logf(events.LogAgent, "[%s] released from project %s", agentName(w.store, agent), project)
	return nil
}
