// Package state holds the GameState resource: global simulation state that
// is not attached to any entity. The tick loop owns the single instance and
// passes it by pointer into each system.
package state

import (
	"math"
	"sort"

	"tokenwheel.ai/internal/sim/entity"
)

type Phase uint8

const (
	Hut Phase = iota
	Outpost
	Village
	Network
	City
)

var phaseNames = [...]string{"Hut", "Outpost", "Village", "Network", "City"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "Unknown"
}

func ParsePhase(s string) (Phase, bool) {
	for i, n := range phaseNames {
		if n == s {
			return Phase(i), true
		}
	}
	return 0, false
}

type CrankTier uint8

const (
	HandCrank CrankTier = iota
	GearAssembly
	WaterWheel
	RunicEngine
)

var crankTierNames = [...]string{"HandCrank", "GearAssembly", "WaterWheel", "RunicEngine"}

func (t CrankTier) String() string {
	if int(t) < len(crankTierNames) {
		return crankTierNames[t]
	}
	return "Unknown"
}

func ParseCrankTier(s string) (CrankTier, bool) {
	for i, n := range crankTierNames {
		if n == s {
			return CrankTier(i), true
		}
	}
	return 0, false
}

// Next returns the following tier; ok is false at the top tier.
func (t CrankTier) Next() (CrankTier, bool) {
	if t >= RunicEngine {
		return t, false
	}
	return t + 1, true
}

type CrankState struct {
	Heat              float64
	MaxHeat           float64
	HeatRate          float64
	CoolRate          float64
	Tier              CrankTier
	IsCranking        bool
	AssignedAgent     entity.ID
	TokensPerRotation float64
}

// Flow is one named income source or expenditure sink.
type Flow struct {
	Name   string
	Amount float64
}

// TokenEconomy keeps the integral balance and the sub-unit remainder of
// fractional generation. Fractional is always in [0,1).
type TokenEconomy struct {
	Balance            int64
	Fractional         float64
	IncomePerTick      float64
	ExpenditurePerTick float64
	Sources            []Flow
	Sinks              []Flow
}

// Generate adds a fractional amount: first to Fractional, then whole units
// are carried into Balance. Negative or zero amounts are ignored.
func (e *TokenEconomy) Generate(amount float64) int64 {
	if !(amount > 0) {
		return 0
	}
	e.Fractional += amount
	whole := math.Floor(e.Fractional)
	if whole < 1 {
		return 0
	}
	e.Fractional -= whole
	if e.Fractional < 0 {
		e.Fractional = 0
	}
	e.Balance += int64(whole)
	return int64(whole)
}

// Spend deducts cost when affordable and reports whether it did.
func (e *TokenEconomy) Spend(cost int64) bool {
	if e.Balance < cost {
		return false
	}
	e.Balance -= cost
	return true
}

type Cell struct{ X, Y int32 }

type GameState struct {
	Tick            uint64
	Phase           Phase
	CityReachedTick uint64
	CityReached     bool

	Crank   CrankState
	Economy TokenEconomy

	CascadeActive bool
	PlayerDead    bool
	DeathTick     uint64

	Upgrades        map[string]bool
	SpawningEnabled bool
	GodMode         bool

	Inventory    map[string]int
	SpawnedCamps map[Cell]bool
}

// New returns the initial GameState.
func New() *GameState {
	return &GameState{
		Phase: Hut,
		Crank: CrankState{
			MaxHeat:           100,
			HeatRate:          1.0,
			CoolRate:          0.5,
			Tier:              HandCrank,
			TokensPerRotation: 0.02,
		},
		Upgrades:        map[string]bool{},
		SpawningEnabled: true,
		Inventory:       map[string]int{},
		SpawnedCamps:    map[Cell]bool{},
	}
}

// PurchasedUpgrades returns purchased upgrade ids in sorted order.
func (g *GameState) PurchasedUpgrades() []string {
	out := make([]string, 0, len(g.Upgrades))
	for id, ok := range g.Upgrades {
		if ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
