// Package upgrades applies purchases from the upgrade catalog to the game
// state.
package upgrades

import (
	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/catalogs"
	"tokenwheel.ai/internal/sim/state"
)

// CrankAssignment unlocks putting an agent on the token wheel.
const CrankAssignment = "CrankAssignment"

func Has(g *state.GameState, id string) bool { return g.Upgrades[id] }

// CanPurchase reports whether Purchase would succeed.
func CanPurchase(cat *catalogs.UpgradeCatalog, g *state.GameState, id string) bool {
	return check(cat, g, id) == nil
}

func check(cat *catalogs.UpgradeCatalog, g *state.GameState, id string) error {
	def, ok := cat.ByID[id]
	if !ok {
		return protocol.Rejectf(protocol.ErrInvalidTarget, "unknown upgrade: %s", id)
	}
	if g.Upgrades[id] {
		return protocol.Rejectf(protocol.ErrConflict, "already purchased")
	}
	if g.Economy.Balance < def.Cost {
		return protocol.Rejectf(protocol.ErrNoResource, "not enough tokens (need %d, have %d)", def.Cost, g.Economy.Balance)
	}
	if def.Prerequisite != "" && !g.Upgrades[def.Prerequisite] {
		name := def.Prerequisite
		if pre, ok := cat.ByID[def.Prerequisite]; ok {
			name = pre.Name
		}
		return protocol.Rejectf(protocol.ErrBlocked, "prerequisite not met: %s", name)
	}
	return nil
}

// Purchase deducts the upgrade's cost and records it. Checks run in a fixed
// order: already purchased, balance, prerequisite.
func Purchase(cat *catalogs.UpgradeCatalog, g *state.GameState, id string) (catalogs.UpgradeDef, error) {
	if err := check(cat, g, id); err != nil {
		return catalogs.UpgradeDef{}, err
	}
	def := cat.ByID[id]
	g.Economy.Balance -= def.Cost
	if g.Upgrades == nil {
		g.Upgrades = map[string]bool{}
	}
	g.Upgrades[id] = true
	return def, nil
}

// Available lists, in catalog order, the upgrades not yet purchased whose
// prerequisite is met. Affordability is not considered.
func Available(cat *catalogs.UpgradeCatalog, g *state.GameState) []catalogs.UpgradeDef {
	var out []catalogs.UpgradeDef
	for _, id := range cat.Order {
		def := cat.ByID[id]
		if g.Upgrades[id] {
			continue
		}
		if def.Prerequisite != "" && !g.Upgrades[def.Prerequisite] {
			continue
		}
		out = append(out, def)
	}
	return out
}
