package agents

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/collision"
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/state"
)

type fixed struct{ v float64 }

func (f fixed) Float64() float64 { return f.v }
func (f fixed) IntN(n int) int   { return int(f.v * float64(n)) }

func dormant(s *entity.Store, cost int64) entity.ID {
	id := s.Spawn()
	s.AgentTag.Set(id, entity.Agent{})
	s.BoundTag.Set(id, entity.BoundAgent{})
	s.Name.Set(id, entity.AgentName{Name: "Rune"})
	s.Status.Set(id, entity.AgentStatus{State: entity.AgentDormant})
	s.Recruit.Set(id, entity.Recruitable{Cost: cost})
	return id
}

func TestSpawn_TierRanges(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for _, tier := range []entity.Tier{entity.Apprentice, entity.Journeyman, entity.Artisan, entity.Architect} {
		s := entity.NewStore()
		id := Spawn(s, tier, 5, 15, r)
		stats := s.Stats.Get(id)
		rg := tierRanges[tier]
		if stats.Reliability < rg.rel.lo || stats.Reliability > rg.rel.hi || stats.Speed < rg.spd.lo || stats.Speed > rg.spd.hi {
			t.Fatalf("%s stats out of range: %+v", tier, stats)
		}
		if hp := s.Health.Get(id); hp.Max != int(stats.Resilience) || hp.Current != hp.Max {
			t.Fatalf("%s health=%+v resilience=%v", tier, hp, stats.Resilience)
		}
		if st := s.Status.Get(id).State; st != entity.AgentIdle {
			t.Fatalf("spawned agent state=%s", st)
		}
		if !slices.Contains(NameBank[:], s.Name.Get(id).Name) {
			t.Fatalf("name %q not from bank", s.Name.Get(id).Name)
		}
		if v := s.Vibe.Get(id); *v != Vibe(tier) {
			t.Fatalf("vibe=%+v", v)
		}
	}
	if v := Vibe(entity.Architect); v.MaxTurns != 50 || v.ModelLoreName != "Abyssal Architect" {
		t.Fatalf("architect vibe=%+v", v)
	}
}

func TestRecruit(t *testing.T) {
	s := entity.NewStore()
	econ := &state.TokenEconomy{Balance: 10}
	id := dormant(s, 20)
	var f events.Frame

	err := Recruit(s, econ, id, &f)
	if err == nil || err.Error() != "Insufficient balance: need 20 tokens but only have 10" {
		t.Fatalf("err=%v", err)
	}
	if econ.Balance != 10 || !s.Recruit.Has(id) {
		t.Fatalf("rejected recruit mutated state")
	}

	econ.Balance = 25
	if err := Recruit(s, econ, id, &f); err != nil {
		t.Fatalf("recruit: %v", err)
	}
	if econ.Balance != 5 || s.Recruit.Has(id) || s.BoundTag.Has(id) {
		t.Fatalf("balance=%d recruitable=%v bound=%v", econ.Balance, s.Recruit.Has(id), s.BoundTag.Has(id))
	}
	if st := s.Status.Get(id).State; st != entity.AgentIdle {
		t.Fatalf("state=%s want Idle", st)
	}
	if err := Recruit(s, econ, id, &f); protocol.CodeOf(err) != protocol.ErrInvalidTarget {
		t.Fatalf("second recruit err=%v", err)
	}
}

func TestAssignTask_Transitions(t *testing.T) {
	s := entity.NewStore()
	id := Spawn(s, entity.Apprentice, 0, 0, fixed{0.5})
	for _, task := range []entity.Task{entity.TaskBuild, entity.TaskExplore, entity.TaskGuard, entity.TaskCrank, entity.TaskIdle} {
		if err := AssignTask(s, id, task); err != nil {
			t.Fatalf("assign %s: %v", task, err)
		}
		if got := s.Status.Get(id).State; got != task.StateFor() {
			t.Fatalf("task %s: state=%s", task, got)
		}
		if got := s.Assignment.Get(id).Task; got != task {
			t.Fatalf("assignment=%s want %s", got, task)
		}
	}

	s.Status.Get(id).State = entity.AgentUnresponsive
	err := AssignTask(s, id, entity.TaskBuild)
	if err == nil || err.Error() != "Agent is unresponsive and cannot accept tasks" {
		t.Fatalf("err=%v", err)
	}
	if s.Status.Get(id).State != entity.AgentUnresponsive {
		t.Fatalf("rejected assignment changed state")
	}

	d := dormant(s, 10)
	if err := AssignTask(s, d, entity.TaskBuild); protocol.CodeOf(err) != protocol.ErrBlocked {
		t.Fatalf("dormant err=%v", err)
	}
	if err := AssignTask(s, 999, entity.TaskBuild); protocol.CodeOf(err) != protocol.ErrInvalidTarget {
		t.Fatalf("unknown err=%v", err)
	}
}

func TestRollback(t *testing.T) {
	s := entity.NewStore()
	id := Spawn(s, entity.Apprentice, 0, 0, fixed{0.5})
	var f events.Frame
	if err := Rollback(s, id, &f); protocol.CodeOf(err) != protocol.ErrConflict {
		t.Fatalf("rollback of healthy agent err=%v", err)
	}
	s.Status.Get(id).State = entity.AgentErroring
	s.Vibe.Get(id).TurnsUsed = 5
	if err := Rollback(s, id, &f); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if s.Status.Get(id).State != entity.AgentIdle || s.Vibe.Get(id).TurnsUsed != 0 {
		t.Fatalf("state=%s turns=%d", s.Status.Get(id).State, s.Vibe.Get(id).TurnsUsed)
	}
}

func TestTick_TurnLimitAndBurn(t *testing.T) {
	s := entity.NewStore()
	econ := &state.TokenEconomy{Balance: 10}
	id := Spawn(s, entity.Apprentice, 0, 0, fixed{0.5})
	if err := AssignTask(s, id, entity.TaskBuild); err != nil {
		t.Fatal(err)
	}
	var f events.Frame
	never := fixed{0.99}
	for i := 0; i < 4; i++ {
		Tick(s, econ, never, &f)
		if s.Status.Get(id).State != entity.AgentBuilding {
			t.Fatalf("tick %d: errored early", i)
		}
	}
	Tick(s, econ, never, &f)
	if s.Status.Get(id).State != entity.AgentErroring {
		t.Fatalf("agent must error when turns reach max")
	}
	if len(f.Logs) != 1 || f.Logs[0].Text != "["+s.Name.Get(id).Name+"] context limit reached -- ERRORING" {
		t.Fatalf("logs=%+v", f.Logs)
	}
	if burn := Tick(s, econ, never, &f); burn != 3 || econ.Balance != 7 {
		t.Fatalf("burn=%d balance=%d", burn, econ.Balance)
	}
}

func TestTick_RandomError(t *testing.T) {
	s := entity.NewStore()
	econ := &state.TokenEconomy{}
	id := Spawn(s, entity.Architect, 0, 0, fixed{0.5})
	_ = AssignTask(s, id, entity.TaskExplore)
	var f events.Frame
	Tick(s, econ, fixed{0}, &f)
	if s.Status.Get(id).State != entity.AgentErroring {
		t.Fatalf("roll 0 must trigger an error")
	}
}

func TestWander(t *testing.T) {
	s := entity.NewStore()
	id := Spawn(s, entity.Apprentice, 100, 100, fixed{0.5})
	s.Stats.Get(id).Speed = 1
	s.Wander.Set(id, entity.WanderState{HomeX: 100, HomeY: 100, WaypointX: 110, WaypointY: 100, Radius: 40})

	Wander(s, collision.Open, fixed{0.5})
	if p := s.Position.Get(id); math.Abs(p.X-100.4) > 1e-12 || p.Y != 100 {
		t.Fatalf("pos=%+v want x=100.4", p)
	}

	s.Position.Set(id, entity.Position{X: 109, Y: 100})
	Wander(s, collision.Open, fixed{0.5})
	w := s.Wander.Get(id)
	if w.PauseRemaining != 40 {
		t.Fatalf("pause=%d want 40", w.PauseRemaining)
	}
	if d := math.Hypot(w.WaypointX-100, w.WaypointY-100); d > 40 {
		t.Fatalf("waypoint %v from home exceeds radius", d)
	}
	Wander(s, collision.Open, fixed{0.5})
	if w := s.Wander.Get(id); w.PauseRemaining != 39 {
		t.Fatalf("pause did not count down: %d", w.PauseRemaining)
	}

	wall := func(px, py float64) bool { return px < 109 }
	s.Wander.Get(id).PauseRemaining = 0
	s.Wander.Get(id).WaypointX, s.Wander.Get(id).WaypointY = 200, 100
	Wander(s, wall, fixed{0.5})
	if p := s.Position.Get(id); p.X != 109 {
		t.Fatalf("blocked move changed x to %v", p.X)
	}

	_ = AssignTask(s, id, entity.TaskBuild)
	before := *s.Position.Get(id)
	Wander(s, collision.Open, fixed{0.5})
	if *s.Position.Get(id) != before {
		t.Fatalf("only idle agents wander")
	}
}

func TestWheelAssignment(t *testing.T) {
	s := entity.NewStore()
	g := state.New()
	a := Spawn(s, entity.Apprentice, 0, 0, fixed{0.5})
	b := Spawn(s, entity.Apprentice, 0, 0, fixed{0.5})
	if err := AssignToWheel(s, g, a); err != nil {
		t.Fatal(err)
	}
	if !WheelWorker(s, g) {
		t.Fatalf("worker not active")
	}
	if err := AssignToWheel(s, g, b); err != nil {
		t.Fatal(err)
	}
	if g.Crank.AssignedAgent != b || s.Assignment.Get(a).Task != entity.TaskIdle {
		t.Fatalf("previous worker not released")
	}
	s.Status.Get(b).State = entity.AgentErroring
	if WheelWorker(s, g) {
		t.Fatalf("erroring worker must not count")
	}
	if err := UnassignFromWheel(s, g); err != nil || g.Crank.AssignedAgent != 0 {
		t.Fatalf("unassign: %v", err)
	}
	if err := UnassignFromWheel(s, g); err == nil {
		t.Fatalf("second unassign must be rejected")
	}
}

func TestAssignToProject(t *testing.T) {
	s := entity.NewStore()
	a := Spawn(s, entity.Apprentice, 0, 0, fixed{0.5})
	var f events.Frame
	if err := AssignToProject(s, a, "todo_app", entity.TodoApp, &f); protocol.CodeOf(err) != protocol.ErrBlocked {
		t.Fatalf("no building err=%v", err)
	}
	b := s.Spawn()
	s.BuildingTag.Set(b, entity.Building{})
	s.BType.Set(b, entity.BuildingType{Kind: entity.TodoApp})
	s.Progress.Set(b, entity.ConstructionProgress{Current: 5, Total: 5})
	if err := AssignToProject(s, a, "todo_app", entity.TodoApp, &f); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if as := s.Assignment.Get(a); as.Building != b || as.Project != "todo_app" {
		t.Fatalf("assignment=%+v", as)
	}
	d := dormant(s, 10)
	if err := AssignToProject(s, d, "todo_app", entity.TodoApp, &f); protocol.CodeOf(err) != protocol.ErrBlocked {
		t.Fatalf("dormant err=%v", err)
	}
}
