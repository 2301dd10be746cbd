package combat

import "tokenwheel.ai/internal/sim/entity"

const (
	PlayerThreatRadius = 20.0
	AgentThreatRadius  = 25.0
	ProjectileSpeed    = 6.0
	ProjectileHitRange = 8.0
)

// Bounty is the token reward for killing a hostile of the given type.
func Bounty(k entity.RogueKind) int64 {
	switch k {
	case entity.Swarm:
		return 5
	case entity.Corruptor:
		return 15
	case entity.Looper:
		return 10
	case entity.TokenDrain:
		return 12
	case entity.Assassin:
		return 30
	case entity.Mimic:
		return 15
	case entity.RogueArchitect:
		return 50
	}
	return 0
}

func DamageToPlayer(k entity.RogueKind) int {
	switch k {
	case entity.Swarm, entity.Looper:
		return 1
	case entity.Corruptor:
		return 2
	case entity.Assassin:
		return 5
	case entity.Mimic, entity.RogueArchitect:
		return 3
	}
	return 0
}

func DamageToAgent(k entity.RogueKind) int {
	switch k {
	case entity.Assassin:
		return 8
	case entity.Corruptor:
		return 3
	}
	return 2
}

// Mitigate applies flat armor reduction. Positive raw damage never drops
// below 1.
func Mitigate(raw int, reduction float64) int {
	if raw <= 0 {
		return 0
	}
	return max(raw-int(reduction), 1)
}

// WeaponStats returns a ready-to-use CombatPower for a weapon.
func WeaponStats(w entity.WeaponKind) entity.CombatPower {
	switch w {
	case entity.HardReset:
		return entity.CombatPower{Weapon: w, BaseDamage: 24, CooldownTicks: 20, Range: 35, ArcDegrees: 180}
	case entity.SignalJammer:
		return entity.CombatPower{Weapon: w, BaseDamage: 14, CooldownTicks: 12, Range: 40, ArcDegrees: 120}
	case entity.NullPointer:
		return entity.CombatPower{Weapon: w, BaseDamage: 16, CooldownTicks: 16, Range: 120, ArcDegrees: 0, IsProjectile: true}
	case entity.Flare:
		return entity.CombatPower{Weapon: w, BaseDamage: 10, CooldownTicks: 10, Range: 25, ArcDegrees: 360}
	default:
		return entity.CombatPower{Weapon: entity.ProcessTerminator, BaseDamage: 8, CooldownTicks: 6, Range: 30, ArcDegrees: 90}
	}
}

func ArmorStats(a entity.ArmorKind) entity.Armor {
	switch a {
	case entity.FewShotPadding:
		return entity.Armor{Kind: a, DamageReduction: 5}
	case entity.ChainOfThoughtMail:
		return entity.Armor{Kind: a, DamageReduction: 10, SpeedPenalty: 0.10}
	case entity.ConstitutionalPlate:
		return entity.Armor{Kind: a, DamageReduction: 18, SpeedPenalty: 0.25}
	default:
		return entity.Armor{Kind: entity.BasePrompt, DamageReduction: 2}
	}
}

var weaponIDs = map[string]entity.WeaponKind{
	"shortsword": entity.ProcessTerminator,
	"greatsword": entity.HardReset,
	"staff":      entity.SignalJammer,
	"crossbow":   entity.NullPointer,
	"torch":      entity.Flare,
}

var armorIDs = map[string]entity.ArmorKind{
	"cloth":   entity.BasePrompt,
	"leather": entity.FewShotPadding,
	"chain":   entity.ChainOfThoughtMail,
	"plate":   entity.ConstitutionalPlate,
}

// WeaponByID maps a client weapon id such as "crossbow" to its kind.
func WeaponByID(id string) (entity.WeaponKind, bool) {
	w, ok := weaponIDs[id]
	return w, ok
}

func ArmorByID(id string) (entity.ArmorKind, bool) {
	a, ok := armorIDs[id]
	return a, ok
}
