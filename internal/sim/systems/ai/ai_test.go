package ai

import (
	"math"
	"testing"

	"tokenwheel.ai/internal/sim/entity"
)

type seqRand struct {
	vals []float64
	i    int
}

func (r *seqRand) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

func guardianAt(homeX, homeY float64) *entity.GuardianRogue {
	return &entity.GuardianRogue{HomeX: homeX, HomeY: homeY, LeashRadius: 200, WaypointX: homeX, WaypointY: homeY}
}

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		d    float64
		want entity.Behavior
	}{
		{0, entity.Attacking},
		{19.999, entity.Attacking},
		{20, entity.Approaching},
		{199.999, entity.Approaching},
		{200, entity.Wandering},
		{math.MaxFloat64, entity.Wandering},
	}
	for _, c := range cases {
		if got := Classify(c.d); got != c.want {
			t.Fatalf("Classify(%v)=%s want %s", c.d, got, c.want)
		}
	}
}

func TestNearest_TieGoesToEarliest(t *testing.T) {
	cands := []Candidate{{ID: 1, X: 10}, {ID: 2, X: -10}, {ID: 3, Y: 10}}
	got, ok := Nearest(0, 0, cands)
	if !ok || got.ID != 1 {
		t.Fatalf("Nearest=%v,%v want id 1", got, ok)
	}
	cands = append(cands, Candidate{ID: 4, X: 9})
	if got, _ := Nearest(0, 0, cands); got.ID != 4 {
		t.Fatalf("strictly closer candidate must win, got %d", got.ID)
	}
	if _, ok := Nearest(0, 0, nil); ok {
		t.Fatalf("no candidates must report !ok")
	}
}

func TestHighestXP_TieGoesToEarliest(t *testing.T) {
	agents := []Candidate{{ID: 3, XP: 10}, {ID: 5, XP: 40}, {ID: 7, XP: 40}}
	got, ok := HighestXP(agents)
	if !ok || got.ID != 5 {
		t.Fatalf("HighestXP=%v want id 5", got)
	}
}

func TestGuardianStep_LeashOverridesChase(t *testing.T) {
	g := guardianAt(0, 0)
	pos := entity.Position{X: 200.5}
	player := &Candidate{ID: 1, X: 205}
	out := GuardianStep(pos, g, player, 1.5, &seqRand{vals: []float64{0.5}})
	if out.Mode != ModeLeash || out.Behavior != entity.Fleeing {
		t.Fatalf("out=%+v want leash/Fleeing", out)
	}
	if out.Target != 0 {
		t.Fatalf("leash must clear target, got %d", out.Target)
	}
	if out.ToX != 0 || out.ToY != 0 || out.Speed != 1.5 {
		t.Fatalf("leash must head home at full speed: %+v", out)
	}
}

func TestGuardianStep_LeashBoundaryIsInclusive(t *testing.T) {
	g := guardianAt(0, 0)
	out := GuardianStep(entity.Position{X: 200}, g, nil, 1, &seqRand{vals: []float64{0.5}})
	if out.Mode == ModeLeash {
		t.Fatalf("exactly at leash radius must not flee")
	}
}

func TestGuardianStep_AggroAndAttackRadius(t *testing.T) {
	cases := []struct {
		px       float64
		wantMode GuardianMode
		wantB    entity.Behavior
	}{
		{99.9, ModeChase, entity.Approaching},
		{20, ModeChase, entity.Approaching},
		{19.9, ModeChase, entity.Attacking},
		{100, ModeArrive, entity.Wandering},
	}
	for _, c := range cases {
		g := guardianAt(0, 0)
		out := GuardianStep(entity.Position{}, g, &Candidate{ID: 9, X: c.px}, 2, &seqRand{vals: []float64{0.5}})
		if out.Mode != c.wantMode || out.Behavior != c.wantB {
			t.Fatalf("player at %v: out=%+v want %s/%s", c.px, out, c.wantMode, c.wantB)
		}
		if c.wantMode == ModeChase && (out.Target != 9 || out.Speed != 2) {
			t.Fatalf("chase must target player at full speed: %+v", out)
		}
	}
}

func TestGuardianStep_PauseCountsDown(t *testing.T) {
	g := guardianAt(0, 0)
	g.PatrolPause = 2
	out := GuardianStep(entity.Position{}, g, nil, 1, &seqRand{vals: []float64{0.5}})
	if out.Mode != ModePause || out.Speed != 0 || g.PatrolPause != 1 {
		t.Fatalf("out=%+v pause=%d", out, g.PatrolPause)
	}
	GuardianStep(entity.Position{}, g, nil, 1, &seqRand{vals: []float64{0.5}})
	if g.PatrolPause != 0 {
		t.Fatalf("pause=%d want 0", g.PatrolPause)
	}
	out = GuardianStep(entity.Position{}, g, nil, 1, &seqRand{vals: []float64{0.5}})
	if out.Mode == ModePause {
		t.Fatalf("expired pause must not hold again")
	}
}

func TestGuardianStep_PatrolAndArrival(t *testing.T) {
	g := guardianAt(0, 0)
	g.WaypointX = 50
	out := GuardianStep(entity.Position{}, g, nil, 1.5, &seqRand{vals: []float64{0.5}})
	if out.Mode != ModePatrol || out.ToX != 50 || math.Abs(out.Speed-0.6) > 1e-12 {
		t.Fatalf("patrol out=%+v", out)
	}

	g.WaypointX = 2.9
	out = GuardianStep(entity.Position{}, g, nil, 1.5, &seqRand{vals: []float64{0.5}})
	if out.Mode != ModeArrive || out.Speed != 0 {
		t.Fatalf("arrival out=%+v", out)
	}
	d := math.Hypot(g.WaypointX-g.HomeX, g.WaypointY-g.HomeY)
	if d < PatrolMinDist || d > PatrolMaxDist {
		t.Fatalf("new waypoint distance %v outside annulus", d)
	}
	if math.Abs(d-50) > 1e-9 {
		t.Fatalf("waypoint distance=%v want 50 for rand 0.5", d)
	}
	if g.PatrolPause != 60 {
		t.Fatalf("pause=%d want 60", g.PatrolPause)
	}

	for _, v := range []float64{0, 0.9999} {
		g := guardianAt(10, 10)
		g.WaypointX, g.WaypointY = 10, 10
		GuardianStep(entity.Position{X: 10, Y: 10}, g, nil, 1, &seqRand{vals: []float64{v}})
		if g.PatrolPause < PatrolMinPause || g.PatrolPause >= PatrolMaxPause {
			t.Fatalf("pause=%d outside [%d,%d)", g.PatrolPause, PatrolMinPause, PatrolMaxPause)
		}
	}
}

func spawnRogue(s *entity.Store, kind entity.RogueKind, x, y float64) entity.ID {
	id := s.Spawn()
	s.RogueTag.Set(id, entity.Rogue{})
	s.Position.Set(id, entity.Position{X: x, Y: y})
	s.Velocity.Set(id, entity.Velocity{})
	s.RogueType.Set(id, entity.RogueType{Kind: kind})
	s.RogueAI.Set(id, entity.RogueAI{})
	return id
}

func spawnAgent(s *entity.Store, x, y float64, xp uint64, st entity.AgentState) entity.ID {
	id := s.Spawn()
	s.AgentTag.Set(id, entity.Agent{})
	s.Position.Set(id, entity.Position{X: x, Y: y})
	s.XP.Set(id, entity.AgentXP{XP: xp, Level: 1})
	s.Status.Set(id, entity.AgentStatus{State: st})
	return id
}

func TestStep_RoamerTargeting(t *testing.T) {
	s := entity.NewStore()
	player := &Candidate{ID: 100, X: 0, Y: 0}

	near := spawnAgent(s, 300, 0, 5, entity.AgentIdle)
	far := spawnAgent(s, -900, 0, 50, entity.AgentIdle)
	down := spawnAgent(s, 301, 1, 500, entity.AgentUnresponsive)

	swarm := spawnRogue(s, entity.Swarm, 310, 0)
	assassin := spawnRogue(s, entity.Assassin, 0, 50)
	mimic := spawnRogue(s, entity.Mimic, 5, 0)

	Step(s, player, &seqRand{vals: []float64{0.5}})

	if got := s.RogueAI.Get(swarm).Target; got != near {
		t.Fatalf("swarm target=%d want nearest agent %d", got, near)
	}
	if p := s.Position.Get(swarm); math.Abs(p.X-308.5) > 1e-9 {
		t.Fatalf("swarm x=%v want 308.5", p.X)
	}
	if got := s.RogueAI.Get(assassin).Target; got != far {
		t.Fatalf("assassin target=%d want highest-xp responsive agent %d (not %d)", got, far, down)
	}
	if p := s.Position.Get(mimic); p.X != 5 || p.Y != 0 {
		t.Fatalf("mimic moved to %+v", p)
	}
	if st := s.RogueAI.Get(mimic).State; st != entity.Attacking {
		t.Fatalf("mimic state=%s want Attacking", st)
	}
}

func TestStep_DormantAgentIsATarget(t *testing.T) {
	s := entity.NewStore()
	player := &Candidate{ID: 100, X: 510, Y: 0}
	dormant := spawnAgent(s, 10, 0, 0, entity.AgentDormant)
	swarm := spawnRogue(s, entity.Swarm, 0, 0)

	Step(s, player, &seqRand{vals: []float64{0.5}})

	if got := s.RogueAI.Get(swarm).Target; got != dormant {
		t.Fatalf("swarm target=%d want dormant agent %d", got, dormant)
	}
	if p := s.Position.Get(swarm); p.X <= 0 {
		t.Fatalf("swarm x=%v want moving toward the agent", p.X)
	}
}

func TestStep_AssassinFallsBackToPlayer(t *testing.T) {
	s := entity.NewStore()
	a := spawnRogue(s, entity.Assassin, 100, 0)
	Step(s, &Candidate{ID: 7}, &seqRand{vals: []float64{0.5}})
	if got := s.RogueAI.Get(a).Target; got != 7 {
		t.Fatalf("target=%d want player", got)
	}
	if p := s.Position.Get(a); p.X != 97 {
		t.Fatalf("assassin x=%v want 97", p.X)
	}
}

func TestStep_NoTargetHolds(t *testing.T) {
	s := entity.NewStore()
	r := spawnRogue(s, entity.Swarm, 10, 10)
	s.Velocity.Set(r, entity.Velocity{X: 3, Y: 3})
	Step(s, nil, &seqRand{vals: []float64{0.5}})
	if v := s.Velocity.Get(r); v.X != 0 || v.Y != 0 {
		t.Fatalf("velocity=%+v want zero", v)
	}
	brain := s.RogueAI.Get(r)
	if brain.State != entity.Wandering || brain.Target != 0 {
		t.Fatalf("ai=%+v", brain)
	}
}

func TestStep_GuardianIgnoresAgents(t *testing.T) {
	s := entity.NewStore()
	spawnAgent(s, 5, 0, 0, entity.AgentIdle)
	g := spawnRogue(s, entity.Corruptor, 0, 0)
	s.Guardian.Set(g, *guardianAt(0, 0))
	Step(s, nil, &seqRand{vals: []float64{0.5}})
	if brain := s.RogueAI.Get(g); brain.Target != 0 || brain.State != entity.Wandering {
		t.Fatalf("guardian ai=%+v, guardians only chase the player", brain)
	}
}
