// Package events collects what the systems report during one tick: in-game
// log lines, audio cues, combat VFX records and kills. The tick driver owns
// one Frame per tick and hands it to every system.
package events

import (
	"fmt"

	"tokenwheel.ai/internal/sim/entity"
)

type Category uint8

const (
	LogSystem Category = iota
	LogAgent
	LogCombat
	LogEconomy
	LogExploration
	LogBuilding
)

var categoryNames = [...]string{"System", "Agent", "Combat", "Economy", "Exploration", "Building"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Unknown"
}

type Sound uint8

const (
	AgentSpeak Sound = iota
	CombatHit
	BuildComplete
	RogueSpawn
	CrankTurn
	AgentDeath
)

var soundNames = [...]string{"AgentSpeak", "CombatHit", "BuildComplete", "RogueSpawn", "CrankTurn", "AgentDeath"}

func (s Sound) String() string {
	if int(s) < len(soundNames) {
		return soundNames[s]
	}
	return "Unknown"
}

type Entry struct {
	Text     string
	Category Category
}

// Hit is one damage application against a hostile, used for client VFX.
type Hit struct {
	X, Y   float64
	Damage int
	Kill   bool
	Rogue  entity.RogueKind
}

// Kill records a hostile that died this tick.
type Kill struct {
	ID         entity.ID
	Rogue      entity.RogueKind
	Bounty     int64
	X, Y       float64
	Projectile bool
}

type Frame struct {
	Logs  []Entry
	Audio []Sound
	Hits  []Hit
	Kills []Kill

	// AgentsDown lists agents that became unresponsive this tick.
	AgentsDown []entity.ID

	PlayerHit       bool
	PlayerHitDamage int

	// Completed lists buildings that finished construction this tick.
	Completed []entity.ID

	Spawned int
}

func (f *Frame) Logf(cat Category, format string, args ...any) {
	f.Logs = append(f.Logs, Entry{Text: fmt.Sprintf(format, args...), Category: cat})
}

func (f *Frame) Play(s Sound) { f.Audio = append(f.Audio, s) }

// Reset empties the frame, keeping allocated capacity.
func (f *Frame) Reset() {
	f.Logs = f.Logs[:0]
	f.Audio = f.Audio[:0]
	f.Hits = f.Hits[:0]
	f.Kills = f.Kills[:0]
	f.AgentsDown = f.AgentsDown[:0]
	f.Completed = f.Completed[:0]
	f.PlayerHit = false
	f.PlayerHitDamage = 0
	f.Spawned = 0
}
