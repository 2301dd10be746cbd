// Package economy runs the token wheel (crank) and the per-tick
// income/expenditure aggregator.
//
// The two paths round differently. The crank adds everything to the
// fractional accumulator so sub-unit generation is never lost. The
// aggregator applies its net change truncated to an integer with no carry,
// so small wage drains or incomes may round to zero for many ticks.
package economy

import (
	"math"

	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/state"
)

func Efficiency(t state.CrankTier) float64 {
	switch t {
	case state.GearAssembly:
		return 1.5
	case state.WaterWheel:
		return 2.0
	case state.RunicEngine:
		return 4.0
	}
	return 1.0
}

// Passive is generated every tick regardless of cranking.
func Passive(t state.CrankTier) float64 {
	switch t {
	case state.WaterWheel:
		return 0.006
	case state.RunicEngine:
		return 0.04
	}
	return 0
}

// WorkerBonus is generated every tick while an agent is assigned to the wheel.
func WorkerBonus(t state.CrankTier) float64 {
	switch t {
	case state.GearAssembly:
		return 0.0016
	case state.WaterWheel:
		return 0.002
	case state.RunicEngine:
		return 0.003
	}
	return 0.001
}

const OverheatMessage = "Token wheel overheated — cooling required"

// Crank runs the wheel for one tick and returns the amount generated.
func Crank(g *state.GameState, cranking, workerAssigned bool, f *events.Frame) float64 {
	c := &g.Crank
	var gen float64
	if cranking {
		if c.Heat < c.MaxHeat {
			c.IsCranking = true
			c.Heat = math.Min(c.Heat+c.HeatRate, c.MaxHeat)
			gen += c.TokensPerRotation * Efficiency(c.Tier)
		} else {
			c.IsCranking = false
			if f != nil {
				f.Logf(events.LogEconomy, OverheatMessage)
			}
		}
	} else {
		c.IsCranking = false
		c.Heat = math.Max(0, c.Heat-c.CoolRate)
	}
	gen += Passive(c.Tier)
	if workerAssigned {
		gen += WorkerBonus(c.Tier)
	}
	g.Economy.Generate(gen)
	return gen
}

// Wage is the per-tick cost of an agent of the given tier and state.
func Wage(t entity.Tier, st entity.AgentState) float64 {
	if !st.Active() {
		return 0
	}
	var w float64
	switch t {
	case entity.Apprentice:
		w = 0.05
	case entity.Journeyman:
		w = 0.1
	case entity.Artisan:
		w = 0.2
	case entity.Architect:
		w = 0.4
	}
	if st == entity.AgentIdle {
		w *= 0.5
	}
	return w
}

// Income is the built-in per-tick income of a completed building type.
func Income(k entity.BuildingKind) float64 {
	switch k {
	case entity.ComputeFarm:
		return 0.5
	case entity.TodoApp:
		return 0.02
	case entity.WeatherDashboard:
		return 0.1
	case entity.EcommerceStore:
		return 0.3
	case entity.AiImageGenerator:
		return 0.25
	case entity.Blockchain:
		return 1.0
	}
	return 0
}

// Aggregate recomputes income and expenditure from the world and applies the
// truncated net change to the balance. It returns the applied change.
// Catalog PassiveIncome effects count only for types Income does not list.
func Aggregate(s *entity.Store, g *state.GameState) int64 {
	e := &g.Economy
	e.Sources = e.Sources[:0]
	e.Sinks = e.Sinks[:0]

	var wages float64
	for _, id := range s.Agents() {
		st := s.Status.Get(id)
		tier := s.Tier.Get(id)
		if st == nil || tier == nil {
			continue
		}
		w := Wage(tier.Tier, st.State)
		if w == 0 {
			continue
		}
		wages += w
		e.Sinks = append(e.Sinks, state.Flow{Name: tier.Tier.String(), Amount: w})
	}

	var income float64
	for _, id := range s.Buildings() {
		p := s.Progress.Get(id)
		bt := s.BType.Get(id)
		if p == nil || bt == nil || p.Current < p.Total {
			continue
		}
		in := Income(bt.Kind)
		if in == 0 {
			if fx := s.Effects.Get(id); fx != nil {
				for _, eff := range fx.Effects {
					if eff.Kind == entity.PassiveIncome {
						in += eff.Amount
					}
				}
			}
		}
		if in > 0 {
			income += in
			e.Sources = append(e.Sources, state.Flow{Name: bt.Kind.String(), Amount: in})
		}
	}

	e.IncomePerTick = income
	e.ExpenditurePerTick = wages
	net := int64(income - wages)
	e.Balance += net
	return net
}

// WheelCosts are the prices of GearAssembly, WaterWheel and RunicEngine.
type WheelCosts [3]int64

var DefaultWheelCosts = WheelCosts{25, 75, 200}

// Next returns the price of upgrading from t; ok is false at the top tier.
func (c WheelCosts) Next(t state.CrankTier) (int64, bool) {
	next, ok := t.Next()
	if !ok {
		return 0, false
	}
	return c[next-1], true
}

// UpgradeWheel buys the next crank tier.
func UpgradeWheel(g *state.GameState, costs WheelCosts) error {
	cost, ok := costs.Next(g.Crank.Tier)
	if !ok {
		return protocol.Rejectf(protocol.ErrConflict, "Token wheel is already at max tier")
	}
	if g.Economy.Balance < cost {
		return protocol.Rejectf(protocol.ErrNoResource, "Not enough tokens: need %d, have %d", cost, g.Economy.Balance)
	}
	g.Economy.Balance -= cost
	g.Crank.Tier, _ = g.Crank.Tier.Next()
	return nil
}
