package world

import (
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/catalogs"
	"tokenwheel.ai/internal/sim/collision"
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/state"
	"tokenwheel.ai/internal/sim/systems/spawn"
	"tokenwheel.ai/internal/sim/tuning"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"), nil)
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	w := New(Config{Tuning: tuning.Defaults(), Catalogs: cats, Walk: collision.Open})
	// Keep random hostiles out of scenarios that do not ask for them.
	w.state.SpawningEnabled = false
	return w
}

func act(kind string) protocol.PlayerInput {
	return protocol.PlayerInput{Action: &protocol.PlayerAction{Kind: kind}}
}

func hasLog(upd protocol.GameStateUpdate, substr string) bool {
	for _, e := range upd.LogEntries {
		if strings.Contains(e.Text, substr) {
			return true
		}
	}
	return false
}

func findAgent(t *testing.T, w *World, name string) entity.ID {
	t.Helper()
	for _, id := range w.store.Agents() {
		if agentName(w.store, id) == name {
			return id
		}
	}
	t.Fatalf("agent %q not found", name)
	return 0
}

func TestNew_HomeBaseLayout(t *testing.T) {
	w := newTestWorld(t)

	pid, ok := w.store.Player()
	if !ok {
		t.Fatalf("no player")
	}
	if pos := w.store.Position.Get(pid); pos.X != SpawnX || pos.Y != SpawnY {
		t.Fatalf("player at %+v", *pos)
	}
	sol := findAgent(t, w, "sol")
	if st := w.store.Status.Get(sol); st.State != entity.AgentDormant {
		t.Fatalf("sol state=%v want Dormant", st.State)
	}
	if r := w.store.Recruit.Get(sol); r == nil || r.Cost != 10 {
		t.Fatalf("sol recruit=%+v", r)
	}
	kinds := map[entity.BuildingKind]bool{}
	for _, id := range w.store.Buildings() {
		kinds[w.store.BType.Get(id).Kind] = true
		if !w.store.Progress.Get(id).Complete() {
			t.Fatalf("home building %d not complete", id)
		}
	}
	if len(kinds) != 2 || !kinds[entity.TokenWheel] || !kinds[entity.CraftingTable] {
		t.Fatalf("buildings=%v", kinds)
	}

	w.StepOnce(nil)
	if len(w.lastUpdate.EntitiesRemoved) != 0 {
		t.Fatalf("opening layout must not report removals: %v", w.lastUpdate.EntitiesRemoved)
	}
	if w.state.Phase != state.Hut {
		t.Fatalf("home fixtures must not advance the phase: %v", w.state.Phase)
	}
}

func TestStepOnce_Deterministic(t *testing.T) {
	a := newTestWorld(t)
	b := newTestWorld(t)
	a.state.SpawningEnabled = true
	b.state.SpawningEnabled = true

	for i := 0; i < 300; i++ {
		in := protocol.PlayerInput{Tick: uint64(i), Movement: protocol.Vec2{X: float64(i%7) - 3, Y: float64(i%5) - 2}}
		if i%9 == 0 {
			in.Action = &protocol.PlayerAction{Kind: protocol.ActAttack}
		}
		ta, da := a.StepOnce([]protocol.PlayerInput{in})
		tb, db := b.StepOnce([]protocol.PlayerInput{in})
		if ta != tb || da != db {
			t.Fatalf("diverged at tick %d: %s vs %s", ta, da, db)
		}
	}
}

func TestRecruit_RejectsThenSucceeds(t *testing.T) {
	w := newTestWorld(t)
	sol := findAgent(t, w, "sol")
	recruit := protocol.PlayerInput{Action: &protocol.PlayerAction{Kind: protocol.ActRecruitAgent, EntityID: uint64(sol)}}

	w.StepOnce([]protocol.PlayerInput{recruit})
	if !hasLog(w.lastUpdate, "Insufficient balance: need 10 tokens but only have 0") {
		t.Fatalf("missing rejection log: %+v", w.lastUpdate.LogEntries)
	}
	if !w.store.Recruit.Has(sol) || w.store.Status.Get(sol).State != entity.AgentDormant {
		t.Fatalf("rejected recruit must not mutate the agent")
	}
	if w.totals.rejections != 1 {
		t.Fatalf("rejections=%d want 1", w.totals.rejections)
	}

	set := protocol.PlayerInput{Action: &protocol.PlayerAction{Kind: protocol.ActDebugSetTokens, Amount: 25}}
	w.StepOnce([]protocol.PlayerInput{set, recruit})
	if w.store.Recruit.Has(sol) {
		t.Fatalf("sol still recruitable")
	}
	if st := w.store.Status.Get(sol).State; st != entity.AgentIdle {
		t.Fatalf("sol state=%v want Idle", st)
	}
	if w.state.Economy.Balance > 15 {
		t.Fatalf("recruit cost not charged: balance=%d", w.state.Economy.Balance)
	}
}

func TestPlaceBuilding_InsufficientTokens(t *testing.T) {
	w := newTestWorld(t)
	before := len(w.store.Buildings())
	in := protocol.PlayerInput{Action: &protocol.PlayerAction{Kind: protocol.ActPlaceBuilding, BuildingType: "Pylon", X: 450, Y: 350}}

	w.StepOnce([]protocol.PlayerInput{in})
	if !hasLog(w.lastUpdate, "Not enough tokens: need 15, have 0") {
		t.Fatalf("missing rejection log: %+v", w.lastUpdate.LogEntries)
	}
	if got := len(w.store.Buildings()); got != before {
		t.Fatalf("buildings=%d want %d", got, before)
	}

	w.state.Economy.Balance = 20
	w.StepOnce([]protocol.PlayerInput{in})
	if got := len(w.store.Buildings()); got != before+1 {
		t.Fatalf("buildings=%d want %d", got, before+1)
	}
	if w.state.Economy.Balance > 5 {
		t.Fatalf("balance=%d want <= 5", w.state.Economy.Balance)
	}
}

func TestNonFiniteInputsLeaveWorldEncodable(t *testing.T) {
	w := newTestWorld(t)
	pid, _ := w.store.Player()
	w.state.Economy.Balance = 20
	before := len(w.store.Buildings())

	w.StepOnce([]protocol.PlayerInput{
		{Movement: protocol.Vec2{X: math.Inf(1), Y: 0}},
		{Action: &protocol.PlayerAction{Kind: protocol.ActPlaceBuilding, BuildingType: "Pylon", X: math.NaN(), Y: 350}},
	})
	w.StepOnce(nil)

	pos := w.store.Position.Get(pid)
	if pos.X != SpawnX || pos.Y != SpawnY {
		t.Fatalf("player moved to %+v", *pos)
	}
	if got := len(w.store.Buildings()); got != before {
		t.Fatalf("buildings=%d want %d", got, before)
	}
	if w.state.Economy.Balance != 20 {
		t.Fatalf("balance=%d want 20", w.state.Economy.Balance)
	}
	if _, err := json.Marshal(protocol.ServerMessage{Type: protocol.TypeGameState, GameState: &w.lastUpdate}); err != nil {
		t.Fatalf("snapshot no longer encodes: %v", err)
	}
}

func TestDebugSpawnAgent_Wanders(t *testing.T) {
	w := newTestWorld(t)
	known := map[entity.ID]bool{}
	for _, id := range w.store.Agents() {
		known[id] = true
	}
	w.StepOnce([]protocol.PlayerInput{{Action: &protocol.PlayerAction{Kind: protocol.ActDebugSpawnAgent, Tier: "Apprentice"}}})

	var spawned entity.ID
	for _, id := range w.store.Agents() {
		if !known[id] {
			spawned = id
		}
	}
	if spawned == 0 {
		t.Fatalf("no agent spawned: %+v", w.lastUpdate.LogEntries)
	}
	ws := w.store.Wander.Get(spawned)
	pos := w.store.Position.Get(spawned)
	if ws == nil {
		t.Fatalf("debug agent has no wander state")
	}
	if ws.HomeX != pos.X || ws.HomeY != pos.Y || ws.Radius != AgentWanderRadius {
		t.Fatalf("wander=%+v pos=%+v", *ws, *pos)
	}
	// Standing on its first waypoint, it pauses and picks the next one.
	if ws.PauseRemaining == 0 || (ws.WaypointX == ws.HomeX && ws.WaypointY == ws.HomeY) {
		t.Fatalf("wander did not advance: %+v", *ws)
	}
}

func TestCrank_HeatClampsAtMax(t *testing.T) {
	w := newTestWorld(t)
	w.StepOnce([]protocol.PlayerInput{act(protocol.ActCrankStart)})
	overheated := false
	for i := 0; i < 150; i++ {
		w.StepOnce(nil)
		if w.state.Crank.Heat > w.state.Crank.MaxHeat {
			t.Fatalf("heat %v above max %v", w.state.Crank.Heat, w.state.Crank.MaxHeat)
		}
		if hasLog(w.lastUpdate, "overheated") {
			overheated = true
		}
	}
	if w.state.Crank.Heat != w.state.Crank.MaxHeat {
		t.Fatalf("heat=%v want %v", w.state.Crank.Heat, w.state.Crank.MaxHeat)
	}
	if !overheated || w.lastUpdate.Wheel.IsCranking {
		t.Fatalf("overheated=%v cranking=%v", overheated, w.lastUpdate.Wheel.IsCranking)
	}
	if w.state.Economy.Balance < 1 {
		t.Fatalf("cranking generated nothing")
	}

	w.StepOnce([]protocol.PlayerInput{act(protocol.ActCrankStop)})
	if w.state.Crank.Heat >= w.state.Crank.MaxHeat {
		t.Fatalf("wheel must cool once stopped: heat=%v", w.state.Crank.Heat)
	}
}

func TestPurchaseUpgrade_PrerequisiteAndCost(t *testing.T) {
	w := newTestWorld(t)
	w.state.Economy.Balance = 300

	buy := func(id string) protocol.PlayerInput {
		return protocol.PlayerInput{Action: &protocol.PlayerAction{Kind: protocol.ActPurchaseUpgrade, UpgradeID: id}}
	}
	w.StepOnce([]protocol.PlayerInput{buy("CrankAssignment")})
	if w.state.Upgrades["CrankAssignment"] {
		t.Fatalf("purchased without prerequisite")
	}
	w.StepOnce([]protocol.PlayerInput{buy("TokenCompression"), buy("CrankAssignment")})
	got := w.lastUpdate.PurchasedUpgrades
	if len(got) != 2 || got[0] != "CrankAssignment" || got[1] != "TokenCompression" {
		t.Fatalf("purchased_upgrades=%v", got)
	}
	if w.state.Economy.Balance > 300-120-150 {
		t.Fatalf("balance=%d", w.state.Economy.Balance)
	}

	sol := findAgent(t, w, "sol")
	w.store.Recruit.Remove(sol)
	w.store.Status.Get(sol).State = entity.AgentIdle
	w.StepOnce([]protocol.PlayerInput{{Action: &protocol.PlayerAction{Kind: protocol.ActAssignAgentToWheel, AgentID: uint64(sol)}}})
	if w.state.Crank.AssignedAgent != sol {
		t.Fatalf("assigned=%d want %d", w.state.Crank.AssignedAgent, sol)
	}
	if w.lastUpdate.Wheel.AssignedAgentID == nil || *w.lastUpdate.Wheel.AssignedAgentID != uint64(sol) {
		t.Fatalf("wheel snapshot=%+v", w.lastUpdate.Wheel)
	}
}

func TestAttack_KillReportsRemovalAndBounty(t *testing.T) {
	w := newTestWorld(t)
	w.state.GodMode = true
	id := spawn.SpawnRogue(w.store, entity.Swarm, SpawnX, SpawnY+15)
	w.store.Health.Get(id).Current = 1

	w.StepOnce([]protocol.PlayerInput{act(protocol.ActAttack)})
	if w.store.RogueTag.Has(id) {
		t.Fatalf("swarm survived the hit")
	}
	removed := false
	for _, r := range w.lastUpdate.EntitiesRemoved {
		if r == uint64(id) {
			removed = true
		}
	}
	if !removed {
		t.Fatalf("entities_removed=%v missing %d", w.lastUpdate.EntitiesRemoved, id)
	}
	if len(w.lastUpdate.CombatEvents) != 1 || !w.lastUpdate.CombatEvents[0].IsKill {
		t.Fatalf("combat_events=%+v", w.lastUpdate.CombatEvents)
	}
	if w.totals.kills != 1 || w.state.Economy.Balance < 1 {
		t.Fatalf("kills=%d balance=%d", w.totals.kills, w.state.Economy.Balance)
	}
}

func TestPlayerDeath_RespawnsAfterTimer(t *testing.T) {
	w := newTestWorld(t)
	pid, _ := w.store.Player()
	w.StepOnce([]protocol.PlayerInput{{Movement: protocol.Vec2{X: 1}}})
	w.store.Health.Get(pid).Current = 0

	w.StepOnce(nil)
	if !w.state.PlayerDead || !w.lastUpdate.Player.Dead {
		t.Fatalf("player should be dead")
	}
	if !hasLog(w.lastUpdate, "Rebooting in 5 seconds") {
		t.Fatalf("missing death log: %+v", w.lastUpdate.LogEntries)
	}
	if w.lastUpdate.Player.DeathTimer <= 0 {
		t.Fatalf("death_timer=%v", w.lastUpdate.Player.DeathTimer)
	}

	rejected := w.totals.rejections
	w.StepOnce([]protocol.PlayerInput{act(protocol.ActCrankStart)})
	if w.totals.rejections != rejected+1 {
		t.Fatalf("cranking while dead must be rejected")
	}

	for i := 0; i < w.tun.RespawnTicks-2; i++ {
		w.StepOnce(nil)
		if !w.state.PlayerDead {
			t.Fatalf("respawned early after %d ticks", i+2)
		}
	}
	w.StepOnce(nil)
	if w.state.PlayerDead {
		t.Fatalf("player should have respawned")
	}
	pos := w.store.Position.Get(pid)
	hp := w.store.Health.Get(pid)
	if pos.X != SpawnX || pos.Y != SpawnY || hp.Current != hp.Max {
		t.Fatalf("respawn pos=%+v hp=%+v", *pos, *hp)
	}
}

func TestPhase_AdvancesWithCompletedBuildings(t *testing.T) {
	w := newTestWorld(t)
	def := w.cat.Buildings.ByKind[entity.Pylon]
	for i := 0; i < w.tun.Phases.Outpost; i++ {
		w.spawnBuilding(def, 500+float64(i)*20, 400, true)
	}
	w.StepOnce(nil)
	if w.state.Phase != state.Outpost {
		t.Fatalf("phase=%v want Outpost", w.state.Phase)
	}
	if !hasLog(w.lastUpdate, "Settlement grew into a Outpost") {
		t.Fatalf("missing phase log: %+v", w.lastUpdate.LogEntries)
	}

	w.StepOnce([]protocol.PlayerInput{{Action: &protocol.PlayerAction{Kind: protocol.ActDebugSetPhase, Phase: "City"}}})
	if !w.state.CityReached {
		t.Fatalf("city flag not set")
	}
	w.StepOnce(nil)
	if w.state.Phase != state.City {
		t.Fatalf("phase must never regress: %v", w.state.Phase)
	}
}

func TestAttach_SendsLatestAndReplaces(t *testing.T) {
	w := newTestWorld(t)
	first := make(chan []byte, 1)
	resp := make(chan AttachResponse, 1)
	w.handleAttach(AttachRequest{Session: "a", Out: first, Codec: protocol.CodecJSON, Resp: resp})
	if r := <-resp; r.Welcome.SessionID != "a" || r.Replaced != "" || r.Welcome.TickRateHz != 20 {
		t.Fatalf("welcome=%+v", r)
	}

	w.StepOnce(nil)
	w.StepOnce(nil)
	var msg protocol.ServerMessage
	if err := protocol.CodecJSON.Unmarshal(<-first, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != protocol.TypeGameState || msg.GameState.Tick != 1 {
		t.Fatalf("want latest tick 1, got %+v", msg)
	}

	second := make(chan []byte, 1)
	w.handleAttach(AttachRequest{Session: "b", Out: second, Codec: protocol.CodecMsgpack, Resp: resp})
	if r := <-resp; r.Replaced != "a" {
		t.Fatalf("replaced=%q", r.Replaced)
	}
	if _, ok := <-first; ok {
		t.Fatalf("replaced client's channel must be closed")
	}

	// Movement from a session that is not the active client is ignored.
	w.stepInternal([]InputEnvelope{{Session: "a", Input: protocol.PlayerInput{Movement: protocol.Vec2{X: 1}}}})
	pid, _ := w.store.Player()
	if pos := w.store.Position.Get(pid); pos.X != SpawnX {
		t.Fatalf("stale session moved the player: %+v", *pos)
	}

	if m := w.Metrics(); !m.Client || m.Tick != 3 {
		t.Fatalf("metrics=%+v", m)
	}

	w.handleDetach("a")
	if w.client == nil {
		t.Fatalf("detach of a stale session must not drop the client")
	}
	w.handleDetach("b")
	if w.client != nil {
		t.Fatalf("client not detached")
	}
}

func TestSendLatest_DropsOldest(t *testing.T) {
	ch := make(chan []byte, 1)
	sendLatest(ch, []byte("a"))
	sendLatest(ch, []byte("b"))
	if got := string(<-ch); got != "b" {
		t.Fatalf("got %q want b", got)
	}
}
