package entity

// AgentState is the worker state machine.
type AgentState uint8

const (
	AgentIdle AgentState = iota
	AgentWalking
	AgentBuilding
	AgentErroring
	AgentExploring
	AgentDefending
	AgentCritical
	AgentUnresponsive
	AgentDormant
)

var agentStateNames = [...]string{"Idle", "Walking", "Building", "Erroring", "Exploring", "Defending", "Critical", "Unresponsive", "Dormant"}

func (s AgentState) String() string {
	if int(s) < len(agentStateNames) {
		return agentStateNames[s]
	}
	return "Unknown"
}

// Active reports whether the agent can still fight, be targeted and work.
func (s AgentState) Active() bool { return s != AgentUnresponsive && s != AgentDormant }

type Tier uint8

const (
	Apprentice Tier = iota
	Journeyman
	Artisan
	Architect
)

var tierNames = [...]string{"Apprentice", "Journeyman", "Artisan", "Architect"}

func (t Tier) String() string {
	if int(t) < len(tierNames) {
		return tierNames[t]
	}
	return "Unknown"
}

func ParseTier(s string) (Tier, bool) {
	for i, n := range tierNames {
		if n == s {
			return Tier(i), true
		}
	}
	return 0, false
}

// Task is what an agent has been told to do.
type Task uint8

const (
	TaskIdle Task = iota
	TaskBuild
	TaskExplore
	TaskGuard
	TaskCrank
)

var taskNames = [...]string{"Idle", "Build", "Explore", "Guard", "Crank"}

func (t Task) String() string {
	if int(t) < len(taskNames) {
		return taskNames[t]
	}
	return "Unknown"
}

func ParseTask(s string) (Task, bool) {
	for i, n := range taskNames {
		if n == s {
			return Task(i), true
		}
	}
	return 0, false
}

// StateFor maps an assigned task to the agent state it implies.
func (t Task) StateFor() AgentState {
	switch t {
	case TaskBuild, TaskCrank:
		return AgentBuilding
	case TaskExplore:
		return AgentExploring
	case TaskGuard:
		return AgentDefending
	default:
		return AgentIdle
	}
}

type RogueKind uint8

const (
	Corruptor RogueKind = iota
	Looper
	TokenDrain
	Assassin
	Swarm
	Mimic
	RogueArchitect
)

// RogueKinds lists every hostile type in declaration order.
var RogueKinds = []RogueKind{Corruptor, Looper, TokenDrain, Assassin, Swarm, Mimic, RogueArchitect}

var rogueNames = [...]string{"Corruptor", "Looper", "TokenDrain", "Assassin", "Swarm", "Mimic", "Architect"}

func (k RogueKind) String() string {
	if int(k) < len(rogueNames) {
		return rogueNames[k]
	}
	return "Unknown"
}

func ParseRogueKind(s string) (RogueKind, bool) {
	for i, n := range rogueNames {
		if n == s {
			return RogueKind(i), true
		}
	}
	return 0, false
}

// Behavior is the generic hostile behaviour state.
type Behavior uint8

const (
	Wandering Behavior = iota
	Approaching
	Attacking
	Attached
	Fleeing
)

var behaviorNames = [...]string{"Wandering", "Approaching", "Attacking", "Attached", "Fleeing"}

func (b Behavior) String() string {
	if int(b) < len(behaviorNames) {
		return behaviorNames[b]
	}
	return "Unknown"
}

type BuildingKind uint8

const (
	Pylon BuildingKind = iota
	ComputeFarm
	TodoApp
	Calculator
	LandingPage
	WeatherDashboard
	ChatApp
	KanbanBoard
	EcommerceStore
	AiImageGenerator
	ApiDashboard
	Blockchain
	TokenWheel
	CraftingTable
)

var buildingNames = [...]string{
	"Pylon", "ComputeFarm", "TodoApp", "Calculator", "LandingPage", "WeatherDashboard", "ChatApp",
	"KanbanBoard", "EcommerceStore", "AiImageGenerator", "ApiDashboard", "Blockchain", "TokenWheel", "CraftingTable",
}

func (k BuildingKind) String() string {
	if int(k) < len(buildingNames) {
		return buildingNames[k]
	}
	return "Unknown"
}

func ParseBuildingKind(s string) (BuildingKind, bool) {
	for i, n := range buildingNames {
		if n == s {
			return BuildingKind(i), true
		}
	}
	return 0, false
}

type WeaponKind uint8

const (
	ProcessTerminator WeaponKind = iota
	HardReset
	SignalJammer
	NullPointer
	Flare
)

var weaponNames = [...]string{"ProcessTerminator", "HardReset", "SignalJammer", "NullPointer", "Flare"}

func (k WeaponKind) String() string {
	if int(k) < len(weaponNames) {
		return weaponNames[k]
	}
	return "Unknown"
}

type ArmorKind uint8

const (
	BasePrompt ArmorKind = iota
	FewShotPadding
	ChainOfThoughtMail
	ConstitutionalPlate
)

var armorNames = [...]string{"BasePrompt", "FewShotPadding", "ChainOfThoughtMail", "ConstitutionalPlate"}

func (k ArmorKind) String() string {
	if int(k) < len(armorNames) {
		return armorNames[k]
	}
	return "Unknown"
}

type EffectKind uint8

const (
	PassiveIncome EffectKind = iota
	AgentMoraleBoost
	ErrorRateReduction
	PylonRangeBoost
	BuildSpeedBoost
	CrankHeatReduction
)

var effectNames = [...]string{"PassiveIncome", "AgentMoraleBoost", "ErrorRateReduction", "PylonRangeBoost", "BuildSpeedBoost", "CrankHeatReduction"}

func (k EffectKind) String() string {
	if int(k) < len(effectNames) {
		return effectNames[k]
	}
	return "Unknown"
}

func ParseEffectKind(s string) (EffectKind, bool) {
	for i, n := range effectNames {
		if n == s {
			return EffectKind(i), true
		}
	}
	return 0, false
}
