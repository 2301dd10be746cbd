package entity

// ID is a stable creation-order entity id. IDs start at 1, are never reused,
// and 0 means "no entity". Storage handles may be recycled; IDs may not.
type ID uint64

// Ident carries the stable id on every entity.
type Ident struct{ ID ID }

// Markers.
type (
	Player     struct{}
	Agent      struct{}
	Rogue      struct{}
	Building   struct{}
	BoundAgent struct{}
)

type Position struct{ X, Y float64 }

type Velocity struct{ X, Y float64 }

type Health struct{ Current, Max int }

// Facing is the player's last non-zero movement direction (unit length).
type Facing struct{ X, Y float64 }

type TorchRange struct{ Radius float64 }

type CarryCapacity struct{ Current, Max int }

type Collider struct{ Radius float64 }

// CombatPower is the player's equipped weapon and its cooldown state.
type CombatPower struct {
	Weapon            WeaponKind
	BaseDamage        int
	CooldownTicks     int
	CooldownRemaining int
	Range             float64
	ArcDegrees        float64
	IsProjectile      bool
}

type Armor struct {
	Kind            ArmorKind
	DamageReduction float64
	SpeedPenalty    float64
}

type AgentName struct{ Name string }

type AgentStats struct {
	Reliability float64
	Speed       float64
	Awareness   float64
	Resilience  float64
}

type AgentStatus struct{ State AgentState }

type AgentTier struct{ Tier Tier }

type AgentMorale struct{ Value float64 }

type AgentXP struct {
	XP    uint64
	Level uint32
}

type AgentVibe struct {
	ModelLoreName   string
	MaxTurns        int
	TurnsUsed       int
	TokenBurnRate   int64
	ErrorChanceBase float64
	Stars           int
}

type WanderState struct {
	HomeX, HomeY         float64
	WaypointX, WaypointY float64
	PauseRemaining       int
	Radius               float64
}

type Assignment struct {
	Task     Task
	Building ID
	Project  string
}

type Recruitable struct{ Cost int64 }

type RogueType struct{ Kind RogueKind }

type RogueAI struct {
	State  Behavior
	Target ID
}

type RogueVisibility struct{ Visible bool }

// GuardianRogue ties a hostile to a camp. It never strays farther than
// LeashRadius from Home.
type GuardianRogue struct {
	HomeX, HomeY         float64
	LeashRadius          float64
	WaypointX, WaypointY float64
	PatrolPause          int
	BoundAgent           ID
}

type BuildingType struct{ Kind BuildingKind }

type ConstructionProgress struct {
	Current  float64
	Total    float64
	Assigned []ID
}

// Complete reports whether construction has reached its total.
func (c *ConstructionProgress) Complete() bool { return c.Current >= c.Total }

type Effect struct {
	Kind   EffectKind
	Amount float64
}

type BuildingEffects struct{ Effects []Effect }

type LightSource struct {
	Radius float64
	Color  [3]float64
}

type Projectile struct {
	DirX, DirY     float64
	Speed          float64
	Damage         int
	RangeRemaining float64
	OwnerIsPlayer  bool
}
