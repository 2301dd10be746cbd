package protocol

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayerInput (client -> server): one per client frame. Movement is a
// direction; the server normalises and scales it.
type PlayerInput struct {
	Tick     uint64        `json:"tick"`
	Movement Vec2          `json:"movement"`
	Action   *PlayerAction `json:"action,omitempty"`
	Target   *uint64       `json:"target,omitempty"`
}

// Action kinds.
const (
	ActAttack                   = "Attack"
	ActInteract                 = "Interact"
	ActAssignTask               = "AssignTask"
	ActPlaceBuilding            = "PlaceBuilding"
	ActCrankStart               = "CrankStart"
	ActCrankStop                = "CrankStop"
	ActRecruitAgent             = "RecruitAgent"
	ActUpgradeWheel             = "UpgradeWheel"
	ActAssignAgentToWheel       = "AssignAgentToWheel"
	ActUnassignAgentFromWheel   = "UnassignAgentFromWheel"
	ActRollbackAgent            = "RollbackAgent"
	ActEquipWeapon              = "EquipWeapon"
	ActEquipArmor               = "EquipArmor"
	ActPurchaseUpgrade          = "PurchaseUpgrade"
	ActAddInventoryItem         = "AddInventoryItem"
	ActRemoveInventoryItem      = "RemoveInventoryItem"
	ActAssignAgentToProject     = "AssignAgentToProject"
	ActUnassignAgentFromProject = "UnassignAgentFromProject"

	ActDebugSetTokens      = "DebugSetTokens"
	ActDebugAddTokens      = "DebugAddTokens"
	ActDebugToggleSpawning = "DebugToggleSpawning"
	ActDebugClearRogues    = "DebugClearRogues"
	ActDebugSetPhase       = "DebugSetPhase"
	ActDebugSetCrankTier   = "DebugSetCrankTier"
	ActDebugToggleGodMode  = "DebugToggleGodMode"
	ActDebugSpawnRogue     = "DebugSpawnRogue"
	ActDebugHealPlayer     = "DebugHealPlayer"
	ActDebugSpawnAgent     = "DebugSpawnAgent"
	ActDebugClearAgents    = "DebugClearAgents"
)

// PlayerAction is a tagged union flattened into one struct: Kind selects
// which of the other fields are read.
type PlayerAction struct {
	Kind string `json:"kind" jsonschema:"required,enum=Attack,enum=Interact,enum=AssignTask,enum=PlaceBuilding,enum=CrankStart,enum=CrankStop,enum=RecruitAgent,enum=UpgradeWheel,enum=AssignAgentToWheel,enum=UnassignAgentFromWheel,enum=RollbackAgent,enum=EquipWeapon,enum=EquipArmor,enum=PurchaseUpgrade,enum=AddInventoryItem,enum=RemoveInventoryItem,enum=AssignAgentToProject,enum=UnassignAgentFromProject,enum=DebugSetTokens,enum=DebugAddTokens,enum=DebugToggleSpawning,enum=DebugClearRogues,enum=DebugSetPhase,enum=DebugSetCrankTier,enum=DebugToggleGodMode,enum=DebugSpawnRogue,enum=DebugHealPlayer,enum=DebugSpawnAgent,enum=DebugClearAgents"`

	Task         string  `json:"task,omitempty"`
	BuildingType string  `json:"building_type,omitempty"`
	X            float64 `json:"x,omitempty"`
	Y            float64 `json:"y,omitempty"`
	EntityID     uint64  `json:"entity_id,omitempty"`
	AgentID      uint64  `json:"agent_id,omitempty"`
	BuildingID   string  `json:"building_id,omitempty"`
	WeaponID     string  `json:"weapon_id,omitempty"`
	ArmorID      string  `json:"armor_id,omitempty"`
	UpgradeID    string  `json:"upgrade_id,omitempty"`
	ItemType     string  `json:"item_type,omitempty"`
	Count        int     `json:"count,omitempty" jsonschema:"minimum=0"`
	Amount       int64   `json:"amount,omitempty"`
	Phase        string  `json:"phase,omitempty"`
	Tier         string  `json:"tier,omitempty"`
	RogueType    string  `json:"rogue_type,omitempty"`
}

// ServerMessage (server -> client). Exactly one payload is set, matching
// Type.
type ServerMessage struct {
	Type      string           `json:"type" jsonschema:"required,enum=WELCOME,enum=GAME_STATE"`
	Welcome   *Welcome         `json:"welcome,omitempty"`
	GameState *GameStateUpdate `json:"game_state,omitempty"`
}

type Welcome struct {
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	TickRateHz      int            `json:"tick_rate_hz"`
	Seed            uint64         `json:"seed"`
	Tick            uint64         `json:"tick"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

// CatalogDigests are sha256 hex digests of the catalog files the server
// loaded.
type CatalogDigests struct {
	Buildings string `json:"buildings"`
	Upgrades  string `json:"upgrades"`
	Manifest  string `json:"manifest,omitempty"`
}

type GameStateUpdate struct {
	Tick              uint64          `json:"tick"`
	Player            PlayerSnapshot  `json:"player"`
	EntitiesChanged   []EntityDelta   `json:"entities_changed"`
	EntitiesRemoved   []uint64        `json:"entities_removed"`
	FogUpdates        []ChunkPos      `json:"fog_updates"`
	Economy           EconomySnapshot `json:"economy"`
	LogEntries        []LogEntry      `json:"log_entries"`
	AudioTriggers     []string        `json:"audio_triggers"`
	Debug             DebugSnapshot   `json:"debug"`
	Wheel             WheelSnapshot   `json:"wheel"`
	CombatEvents      []CombatEvent   `json:"combat_events"`
	PlayerHit         bool            `json:"player_hit"`
	PlayerHitDamage   int             `json:"player_hit_damage"`
	Inventory         []InventoryItem `json:"inventory"`
	PurchasedUpgrades []string        `json:"purchased_upgrades"`
}

type PlayerSnapshot struct {
	Position          Vec2    `json:"position"`
	Health            int     `json:"health"`
	MaxHealth         int     `json:"max_health"`
	Tokens            int64   `json:"tokens"`
	TorchRange        float64 `json:"torch_range"`
	Facing            Vec2    `json:"facing"`
	Dead              bool    `json:"dead"`
	DeathTimer        float64 `json:"death_timer"`
	AttackCooldownPct float64 `json:"attack_cooldown_pct"`
}

// Entity kinds.
const (
	KindPlayer     = "Player"
	KindAgent      = "Agent"
	KindBuilding   = "Building"
	KindRogue      = "Rogue"
	KindProjectile = "Projectile"
)

// EntityDelta is the full current view of one entity. The payload matching
// Kind is set; the others are nil.
type EntityDelta struct {
	ID         uint64          `json:"id"`
	Kind       string          `json:"kind"`
	Position   Vec2            `json:"position"`
	Agent      *AgentData      `json:"agent,omitempty"`
	Building   *BuildingData   `json:"building,omitempty"`
	Rogue      *RogueData      `json:"rogue,omitempty"`
	Projectile *ProjectileData `json:"projectile,omitempty"`
}

type AgentData struct {
	Name            string  `json:"name"`
	State           string  `json:"state"`
	Tier            string  `json:"tier"`
	HealthPct       float64 `json:"health_pct"`
	MoralePct       float64 `json:"morale_pct"`
	Stars           int     `json:"stars"`
	TurnsUsed       int     `json:"turns_used"`
	MaxTurns        int     `json:"max_turns"`
	ModelLoreName   string  `json:"model_lore_name"`
	XP              uint64  `json:"xp"`
	Level           uint32  `json:"level"`
	RecruitableCost *int64  `json:"recruitable_cost,omitempty"`
	Bound           bool    `json:"bound"`
	Task            string  `json:"task,omitempty"`
	Project         string  `json:"project,omitempty"`
}

type BuildingData struct {
	BuildingType    string   `json:"building_type"`
	ConstructionPct float64  `json:"construction_pct"`
	HealthPct       float64  `json:"health_pct"`
	AssignedAgents  []uint64 `json:"assigned_agents,omitempty"`
}

type RogueData struct {
	RogueType string  `json:"rogue_type"`
	HealthPct float64 `json:"health_pct"`
	Behavior  string  `json:"behavior"`
	Visible   bool    `json:"visible"`
	Guardian  bool    `json:"guardian,omitempty"`
}

type ProjectileData struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type ChunkPos struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Log categories.
const (
	LogSystem      = "System"
	LogAgent       = "Agent"
	LogCombat      = "Combat"
	LogEconomy     = "Economy"
	LogExploration = "Exploration"
	LogBuilding    = "Building"
)

type LogEntry struct {
	Tick     uint64 `json:"tick"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// EconomySnapshot rates are per second at the configured tick rate.
type EconomySnapshot struct {
	Balance           int64   `json:"balance"`
	IncomePerSec      float64 `json:"income_per_sec"`
	ExpenditurePerSec float64 `json:"expenditure_per_sec"`
}

type WheelSnapshot struct {
	Tier              string  `json:"tier"`
	TokensPerRotation float64 `json:"tokens_per_rotation"`
	AgentBonusPerTick float64 `json:"agent_bonus_per_tick"`
	Heat              float64 `json:"heat"`
	MaxHeat           float64 `json:"max_heat"`
	IsCranking        bool    `json:"is_cranking"`
	AssignedAgentID   *uint64 `json:"assigned_agent_id,omitempty"`
	UpgradeCost       *int64  `json:"upgrade_cost,omitempty"`
}

type DebugSnapshot struct {
	SpawningEnabled bool   `json:"spawning_enabled"`
	GodMode         bool   `json:"god_mode"`
	Phase           string `json:"phase"`
	CrankTier       string `json:"crank_tier"`
}

type CombatEvent struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Damage    int     `json:"damage"`
	IsKill    bool    `json:"is_kill"`
	RogueType string  `json:"rogue_type,omitempty"`
}

type InventoryItem struct {
	ItemType string `json:"item_type"`
	Count    int    `json:"count"`
}
