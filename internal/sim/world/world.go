package world

import (
	"log"
	"math/rand/v2"
	"sync/atomic"

	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/catalogs"
	"tokenwheel.ai/internal/sim/collision"
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/fog"
	"tokenwheel.ai/internal/sim/state"
	"tokenwheel.ai/internal/sim/systems/agents"
	"tokenwheel.ai/internal/sim/systems/combat"
	"tokenwheel.ai/internal/sim/tuning"
)

// Home base layout.
const (
	SpawnX = 400.0
	SpawnY = 300.0

	PlayerMaxHealth = 100
	TorchRadius     = 120.0
	CarrySlots      = 5
)

type Config struct {
	Tuning   tuning.Tuning
	Catalogs *catalogs.Catalogs
	// Walk answers terrain walkability. Nil means collision.Terrain.
	Walk   collision.Oracle
	Logger *log.Logger
}

// InputEnvelope is one decoded client frame tagged with the session that
// sent it.
type InputEnvelope struct {
	Session string
	Input   protocol.PlayerInput
}

// AttachRequest registers the single active client. A newer attach replaces
// the current client; the replaced client's Out channel is closed.
type AttachRequest struct {
	Session string
	Out     chan []byte
	Codec   protocol.Codec
	Resp    chan AttachResponse
}

type AttachResponse struct {
	Welcome  protocol.Welcome
	Replaced string
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// TickLogEntry is what the loop hands to journal, index and telemetry after
// every tick.
type TickLogEntry struct {
	Tick       uint64          `json:"tick"`
	Inputs     []RecordedInput `json:"inputs,omitempty"`
	Rejections []Rejection     `json:"rejections,omitempty"`
	Kills      []KillRecord    `json:"kills,omitempty"`
	Completed  []string        `json:"completed,omitempty"`
	Economy    EconomyRecord   `json:"economy"`
	Phase      string          `json:"phase"`
	Entities   int             `json:"entities"`
	Agents     int             `json:"agents"`
	Rogues     int             `json:"rogues"`
	Spawned    int             `json:"spawned,omitempty"`
	Digest     string          `json:"digest"`
}

type RecordedInput struct {
	Session string               `json:"session"`
	Input   protocol.PlayerInput `json:"input"`
}

type Rejection struct {
	Action  string `json:"action"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type KillRecord struct {
	ID         uint64  `json:"id"`
	Rogue      string  `json:"rogue"`
	Bounty     int64   `json:"bounty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Projectile bool    `json:"projectile,omitempty"`
}

type EconomyRecord struct {
	Balance            int64   `json:"balance"`
	IncomePerTick      float64 `json:"income_per_tick"`
	ExpenditurePerTick float64 `json:"expenditure_per_tick"`
	Heat               float64 `json:"heat"`
	CrankTier          string  `json:"crank_tier"`
	IsCranking         bool    `json:"is_cranking"`
}

// TickLoggers fans one entry out to several loggers.
type TickLoggers []TickLogger

func (ls TickLoggers) WriteTick(e TickLogEntry) error {
	var first error
	for _, l := range ls {
		if err := l.WriteTick(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type client struct {
	session string
	out     chan []byte
	codec   protocol.Codec
}

// World is the single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	tun  tuning.Tuning
	cat  *catalogs.Catalogs
	walk collision.Oracle
	log  *log.Logger

	store *entity.Store
	state *state.GameState
	fog   *fog.Fog
	rng   *rand.Rand
	frame events.Frame

	// Player intent. Movement and cranking persist until the next input
	// changes them; attacking lasts one tick.
	move      protocol.Vec2
	cranking  bool
	attacking bool

	client *client

	inbox  chan InputEnvelope
	attach chan AttachRequest
	detach chan string
	stop   chan struct{}

	tickLogger TickLogger

	lastUpdate protocol.GameStateUpdate
	lastDigest string

	totals  totals
	metrics atomic.Value
}

type totals struct {
	spawned    uint64
	kills      uint64
	rejections uint64
	completed  uint64
}

// New builds the starting world: the player at the spawn point, a dormant
// recruit, and the completed token wheel and crafting table.
func New(cfg Config) *World {
	tun := cfg.Tuning
	if tun.TickRateHz == 0 {
		tun = tuning.Defaults()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[world] ", log.LstdFlags|log.Lmicroseconds)
	}
	cat := cfg.Catalogs
	if cat == nil {
		cat = &catalogs.Catalogs{}
	}
	walk := cfg.Walk
	if walk == nil {
		walk = collision.Terrain
	}

	w := &World{
		tun:    tun,
		cat:    cat,
		walk:   walk,
		log:    logger,
		store:  entity.NewStore(),
		state:  state.New(),
		fog:    fog.New(),
		rng:    rand.New(rand.NewPCG(tun.Seed, tun.Seed^0x9e3779b97f4a7c15)),
		inbox:  make(chan InputEnvelope, 1024),
		attach: make(chan AttachRequest, 4),
		detach: make(chan string, 4),
		stop:   make(chan struct{}),
	}
	g := w.state
	g.Economy.Balance = tun.StartingBalance
	g.Crank.MaxHeat = tun.Crank.MaxHeat
	g.Crank.HeatRate = tun.Crank.HeatRate
	g.Crank.CoolRate = tun.Crank.CoolRate
	g.Crank.TokensPerRotation = tun.Crank.TokensPerRotation

	w.spawnPlayer()
	w.spawnStarterAgent()
	for _, b := range []struct {
		kind entity.BuildingKind
		x, y float64
	}{
		{entity.TokenWheel, 310, 300},
		{entity.CraftingTable, 490, 300},
	} {
		if def, ok := w.cat.Buildings.ByKind[b.kind]; ok {
			w.spawnBuilding(def, b.x, b.y, true)
		} else {
			w.log.Printf("catalog has no %s; home base starts without it", b.kind)
		}
	}
	// The opening layout is not a delta anyone needs to hear about.
	w.store.DrainRemoved()
	w.metrics.Store(WorldMetrics{})
	return w
}

func (w *World) spawnPlayer() entity.ID {
	s := w.store
	id := s.Spawn()
	s.PlayerTag.Set(id, entity.Player{})
	s.Position.Set(id, entity.Position{X: SpawnX, Y: SpawnY})
	s.Velocity.Set(id, entity.Velocity{})
	s.Health.Set(id, entity.Health{Current: PlayerMaxHealth, Max: PlayerMaxHealth})
	s.Facing.Set(id, entity.Facing{X: 0, Y: 1})
	s.Torch.Set(id, entity.TorchRange{Radius: TorchRadius})
	s.Carry.Set(id, entity.CarryCapacity{Max: CarrySlots})
	s.Combat.Set(id, combat.WeaponStats(entity.ProcessTerminator))
	s.Armor.Set(id, combat.ArmorStats(entity.BasePrompt))
	return id
}

// spawnStarterAgent places "sol", a cheap dormant apprentice, just south of
// the spawn point.
func (w *World) spawnStarterAgent() entity.ID {
	s := w.store
	id := agents.Spawn(s, entity.Apprentice, SpawnX, SpawnY+90, w.rng)
	s.Name.Set(id, entity.AgentName{Name: "sol"})
	s.Stats.Set(id, entity.AgentStats{Reliability: 0.6, Speed: 1.0, Awareness: 80, Resilience: 50})
	s.Health.Set(id, entity.Health{Current: 50, Max: 50})
	s.Status.Set(id, entity.AgentStatus{State: entity.AgentDormant})
	s.Recruit.Set(id, entity.Recruitable{Cost: 10})
	setWanderHome(s, id, SpawnX, SpawnY+90)
	return id
}

// AgentWanderRadius is how far a recruited agent roams from its home.
const AgentWanderRadius = 120.0

func setWanderHome(s *entity.Store, id entity.ID, x, y float64) {
	s.Wander.Set(id, entity.WanderState{
		HomeX: x, HomeY: y,
		WaypointX: x, WaypointY: y,
		Radius: AgentWanderRadius,
	})
}

func (w *World) spawnBuilding(def catalogs.BuildingDef, x, y float64, complete bool) entity.ID {
	s := w.store
	id := s.Spawn()
	s.BuildingTag.Set(id, entity.Building{})
	s.Position.Set(id, entity.Position{X: x, Y: y})
	s.BType.Set(id, entity.BuildingType{Kind: def.Kind})
	p := entity.ConstructionProgress{Total: def.BuildTime}
	if complete {
		p.Current = def.BuildTime
	}
	s.Progress.Set(id, p)
	s.Health.Set(id, entity.Health{Current: 100, Max: 100})
	s.Effects.Set(id, entity.BuildingEffects{Effects: def.EffectList()})
	if def.Light != nil {
		s.Light.Set(id, entity.LightSource{Radius: def.Light.Radius, Color: def.Light.Color})
	}
	return id
}

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }

func (w *World) Inbox() chan<- InputEnvelope { return w.inbox }

func (w *World) Attach() chan<- AttachRequest { return w.attach }

func (w *World) Detach() chan<- string { return w.detach }

func (w *World) TickRateHz() int { return w.tun.TickRateHz }

// Welcome describes the running world to a newly attached session.
func (w *World) welcome(session string) protocol.Welcome {
	return protocol.Welcome{
		ProtocolVersion: w.tun.ProtocolVersion,
		SessionID:       session,
		TickRateHz:      w.tun.TickRateHz,
		Seed:            w.tun.Seed,
		Tick:            w.state.Tick,
		Catalogs: protocol.CatalogDigests{
			Buildings: w.cat.Buildings.Digest,
			Upgrades:  w.cat.Upgrades.Digest,
			Manifest:  w.cat.Manifest.Digest,
		},
	}
}

func (w *World) handleAttach(req AttachRequest) {
	var replaced string
	if w.client != nil {
		replaced = w.client.session
		close(w.client.out)
		w.log.Printf("session %s replaced by %s", replaced, req.Session)
	}
	w.client = &client{session: req.Session, out: req.Out, codec: req.Codec}
	if req.Resp != nil {
		req.Resp <- AttachResponse{Welcome: w.welcome(req.Session), Replaced: replaced}
	}
}

func (w *World) handleDetach(session string) {
	if w.client != nil && w.client.session == session {
		w.client = nil
	}
}
