// Package construction advances incomplete buildings using the combined
// speed of every agent that is building.
package construction

import (
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
)

const (
	BuilderXP  = 10
	XPPerLevel = 100
)

// Step distributes builder throughput equally over incomplete buildings and
// returns the buildings that completed this tick. Each incomplete site's
// Assigned list is refreshed to the current builders; a completed site keeps
// the builders that finished it. A building is reported
// only on the tick it crosses its total.
func Step(s *entity.Store, f *events.Frame) []entity.ID {
	var (
		total    float64
		builders []entity.ID
	)
	for _, id := range s.Agents() {
		st := s.Status.Get(id)
		as := s.Assignment.Get(id)
		stats := s.Stats.Get(id)
		if st == nil || as == nil || stats == nil {
			continue
		}
		if st.State == entity.AgentBuilding && as.Task == entity.TaskBuild {
			total += stats.Speed
			builders = append(builders, id)
		}
	}

	// Every builder works on every incomplete site.
	var incomplete []entity.ID
	for _, id := range s.Buildings() {
		if p := s.Progress.Get(id); p != nil && p.Current < p.Total {
			p.Assigned = append(p.Assigned[:0], builders...)
			incomplete = append(incomplete, id)
		}
	}
	if len(incomplete) == 0 || total <= 0 {
		return nil
	}

	share := total / float64(len(incomplete))
	var done []entity.ID
	for _, id := range incomplete {
		p := s.Progress.Get(id)
		p.Current += share
		if p.Current < p.Total {
			continue
		}
		p.Current = p.Total
		done = append(done, id)
		kind := entity.BuildingKind(0)
		if bt := s.BType.Get(id); bt != nil {
			kind = bt.Kind
		}
		f.Logf(events.LogBuilding, "%s construction complete!", kind)
		f.Play(events.BuildComplete)
		f.Completed = append(f.Completed, id)
	}

	if len(done) > 0 {
		for _, id := range builders {
			Award(s, id, BuilderXP)
		}
	}
	return done
}

// Award adds XP to an agent and recomputes its level.
func Award(s *entity.Store, id entity.ID, xp uint64) {
	x := s.XP.Get(id)
	if x == nil {
		return
	}
	x.XP += xp
	x.Level = uint32(1 + x.XP/XPPerLevel)
}
