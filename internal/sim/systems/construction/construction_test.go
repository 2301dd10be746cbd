package construction

import (
	"testing"

	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
)

func builder(s *entity.Store, speed float64, st entity.AgentState, task entity.Task) entity.ID {
	id := s.Spawn()
	s.AgentTag.Set(id, entity.Agent{})
	s.Stats.Set(id, entity.AgentStats{Speed: speed})
	s.Status.Set(id, entity.AgentStatus{State: st})
	s.Assignment.Set(id, entity.Assignment{Task: task})
	s.XP.Set(id, entity.AgentXP{Level: 1})
	return id
}

func site(s *entity.Store, kind entity.BuildingKind, current, total float64) entity.ID {
	id := s.Spawn()
	s.BuildingTag.Set(id, entity.Building{})
	s.BType.Set(id, entity.BuildingType{Kind: kind})
	s.Progress.Set(id, entity.ConstructionProgress{Current: current, Total: total})
	return id
}

func TestStep_DistributesEvenlyAndClamps(t *testing.T) {
	s := entity.NewStore()
	builder(s, 1.0, entity.AgentBuilding, entity.TaskBuild)
	builder(s, 0.5, entity.AgentBuilding, entity.TaskBuild)
	builder(s, 9.0, entity.AgentBuilding, entity.TaskCrank)
	builder(s, 9.0, entity.AgentIdle, entity.TaskBuild)

	a := site(s, entity.TodoApp, 0, 10)
	b := site(s, entity.Calculator, 9.5, 10)
	site(s, entity.TokenWheel, 1, 1)

	var f events.Frame
	done := Step(s, &f)
	if got := s.Progress.Get(a).Current; got != 0.75 {
		t.Fatalf("a=%v want 0.75", got)
	}
	if got := s.Progress.Get(b).Current; got != 10 {
		t.Fatalf("b=%v want clamped to 10", got)
	}
	if len(done) != 1 || done[0] != b {
		t.Fatalf("done=%v want [%d]", done, b)
	}
	if f.Logs[0].Text != "Calculator construction complete!" || f.Audio[0] != events.BuildComplete {
		t.Fatalf("frame=%+v", f)
	}
}

func TestStep_CompletionFiresOnce(t *testing.T) {
	s := entity.NewStore()
	w := builder(s, 2, entity.AgentBuilding, entity.TaskBuild)
	b := site(s, entity.Pylon, 0, 5)

	var f events.Frame
	completions := 0
	for tick := 0; tick < 20; tick++ {
		completions += len(Step(s, &f))
		p := s.Progress.Get(b)
		if p.Current < 0 || p.Current > p.Total {
			t.Fatalf("tick %d: progress %v outside [0,%v]", tick, p.Current, p.Total)
		}
	}
	if completions != 1 {
		t.Fatalf("completions=%d want 1", completions)
	}
	if xp := s.XP.Get(w); xp.XP != BuilderXP || xp.Level != 1 {
		t.Fatalf("xp=%+v", xp)
	}
}

func TestStep_NoBuildersOrSites(t *testing.T) {
	s := entity.NewStore()
	b := site(s, entity.Pylon, 0, 5)
	var f events.Frame
	if done := Step(s, &f); done != nil || s.Progress.Get(b).Current != 0 {
		t.Fatalf("no builders must be a no-op")
	}

	s2 := entity.NewStore()
	builder(s2, 1, entity.AgentBuilding, entity.TaskBuild)
	if done := Step(s2, &f); done != nil {
		t.Fatalf("no sites must be a no-op")
	}
}

func TestStep_TracksAssignedBuilders(t *testing.T) {
	s := entity.NewStore()
	a := builder(s, 1, entity.AgentBuilding, entity.TaskBuild)
	b := builder(s, 1, entity.AgentBuilding, entity.TaskBuild)
	builder(s, 1, entity.AgentIdle, entity.TaskBuild)
	x := site(s, entity.Pylon, 0, 100)
	y := site(s, entity.TodoApp, 0, 100)

	var f events.Frame
	Step(s, &f)
	for _, id := range []entity.ID{x, y} {
		got := s.Progress.Get(id).Assigned
		if len(got) != 2 || got[0] != a || got[1] != b {
			t.Fatalf("site %d assigned=%v want [%d %d]", id, got, a, b)
		}
	}

	s.Status.Get(a).State = entity.AgentIdle
	Step(s, &f)
	if got := s.Progress.Get(x).Assigned; len(got) != 1 || got[0] != b {
		t.Fatalf("assigned=%v want [%d]", got, b)
	}

	s.Status.Get(b).State = entity.AgentIdle
	Step(s, &f)
	if got := s.Progress.Get(x).Assigned; len(got) != 0 {
		t.Fatalf("assigned=%v want none", got)
	}
}

func TestAward_Levels(t *testing.T) {
	s := entity.NewStore()
	id := builder(s, 1, entity.AgentIdle, entity.TaskIdle)
	Award(s, id, 250)
	if xp := s.XP.Get(id); xp.Level != 3 {
		t.Fatalf("level=%d want 3", xp.Level)
	}
	Award(s, 999, 10) // unknown id is ignored
}
