// Package entity is the world store: every entity and component of the
// simulation, held in an archetype ECS and addressed by stable creation ids.
//
// The store is single-threaded. It is owned by the tick loop and must not be
// touched from any other goroutine.
package entity

import (
	"slices"

	"github.com/mlange-42/ark/ecs"
)

// Column is typed access to one component kind, keyed by stable id. Lookups
// of despawned ids or entities lacking the component return nil.
type Column[T any] struct {
	s *Store
	m *ecs.Map[T]
}

func newColumn[T any](s *Store) Column[T] {
	return Column[T]{s: s, m: ecs.NewMap[T](s.world)}
}

func (c Column[T]) handle(id ID) (ecs.Entity, bool) {
	e, ok := c.s.byID[id]
	if !ok || !c.s.world.Alive(e) {
		return ecs.Entity{}, false
	}
	return e, true
}

func (c Column[T]) Get(id ID) *T {
	e, ok := c.handle(id)
	if !ok || !c.m.Has(e) {
		return nil
	}
	return c.m.Get(e)
}

func (c Column[T]) Has(id ID) bool {
	e, ok := c.handle(id)
	return ok && c.m.Has(e)
}

// Set overwrites the component, attaching it first if needed. It is a
// structural change when the component is new: never call it while a query
// is open.
func (c Column[T]) Set(id ID, v T) {
	e, ok := c.handle(id)
	if !ok {
		return
	}
	if c.m.Has(e) {
		*c.m.Get(e) = v
		return
	}
	c.m.Add(e, &v)
}

func (c Column[T]) Remove(id ID) {
	e, ok := c.handle(id)
	if !ok || !c.m.Has(e) {
		return
	}
	c.m.Remove(e)
}

type Store struct {
	world   *ecs.World
	next    ID
	byID    map[ID]ecs.Entity
	removed []ID

	identMap *ecs.Map1[Ident]

	Position   Column[Position]
	Velocity   Column[Velocity]
	Health     Column[Health]
	Facing     Column[Facing]
	Torch      Column[TorchRange]
	Carry      Column[CarryCapacity]
	Collider   Column[Collider]
	Combat     Column[CombatPower]
	Armor      Column[Armor]
	Name       Column[AgentName]
	Stats      Column[AgentStats]
	Status     Column[AgentStatus]
	Tier       Column[AgentTier]
	Morale     Column[AgentMorale]
	XP         Column[AgentXP]
	Vibe       Column[AgentVibe]
	Wander     Column[WanderState]
	Assignment Column[Assignment]
	Recruit    Column[Recruitable]
	RogueType  Column[RogueType]
	RogueAI    Column[RogueAI]
	Visibility Column[RogueVisibility]
	Guardian   Column[GuardianRogue]
	BType      Column[BuildingType]
	Progress   Column[ConstructionProgress]
	Effects    Column[BuildingEffects]
	Light      Column[LightSource]
	Projectile Column[Projectile]

	PlayerTag   Column[Player]
	AgentTag    Column[Agent]
	RogueTag    Column[Rogue]
	BuildingTag Column[Building]
	BoundTag    Column[BoundAgent]

	players     *ecs.Filter2[Ident, Player]
	agents      *ecs.Filter2[Ident, Agent]
	freeAgents  *ecs.Filter2[Ident, Agent]
	rogues      *ecs.Filter2[Ident, Rogue]
	roamers     *ecs.Filter2[Ident, Rogue]
	guardians   *ecs.Filter2[Ident, GuardianRogue]
	buildings   *ecs.Filter2[Ident, Building]
	projectiles *ecs.Filter2[Ident, Projectile]
}

func NewStore() *Store {
	s := &Store{
		world: ecs.NewWorld(),
		byID:  map[ID]ecs.Entity{},
	}
	s.identMap = ecs.NewMap1[Ident](s.world)

	s.Position = newColumn[Position](s)
	s.Velocity = newColumn[Velocity](s)
	s.Health = newColumn[Health](s)
	s.Facing = newColumn[Facing](s)
	s.Torch = newColumn[TorchRange](s)
	s.Carry = newColumn[CarryCapacity](s)
	s.Collider = newColumn[Collider](s)
	s.Combat = newColumn[CombatPower](s)
	s.Armor = newColumn[Armor](s)
	s.Name = newColumn[AgentName](s)
	s.Stats = newColumn[AgentStats](s)
	s.Status = newColumn[AgentStatus](s)
	s.Tier = newColumn[AgentTier](s)
	s.Morale = newColumn[AgentMorale](s)
	s.XP = newColumn[AgentXP](s)
	s.Vibe = newColumn[AgentVibe](s)
	s.Wander = newColumn[WanderState](s)
	s.Assignment = newColumn[Assignment](s)
	s.Recruit = newColumn[Recruitable](s)
	s.RogueType = newColumn[RogueType](s)
	s.RogueAI = newColumn[RogueAI](s)
	s.Visibility = newColumn[RogueVisibility](s)
	s.Guardian = newColumn[GuardianRogue](s)
	s.BType = newColumn[BuildingType](s)
	s.Progress = newColumn[ConstructionProgress](s)
	s.Effects = newColumn[BuildingEffects](s)
	s.Light = newColumn[LightSource](s)
	s.Projectile = newColumn[Projectile](s)

	s.PlayerTag = newColumn[Player](s)
	s.AgentTag = newColumn[Agent](s)
	s.RogueTag = newColumn[Rogue](s)
	s.BuildingTag = newColumn[Building](s)
	s.BoundTag = newColumn[BoundAgent](s)

	s.players = ecs.NewFilter2[Ident, Player](s.world)
	s.agents = ecs.NewFilter2[Ident, Agent](s.world)
	s.freeAgents = ecs.NewFilter2[Ident, Agent](s.world).Without(ecs.C[BoundAgent]())
	s.rogues = ecs.NewFilter2[Ident, Rogue](s.world)
	s.roamers = ecs.NewFilter2[Ident, Rogue](s.world).Without(ecs.C[GuardianRogue]())
	s.guardians = ecs.NewFilter2[Ident, GuardianRogue](s.world)
	s.buildings = ecs.NewFilter2[Ident, Building](s.world)
	s.projectiles = ecs.NewFilter2[Ident, Projectile](s.world)
	return s
}

// Spawn creates an empty entity and returns its id.
func (s *Store) Spawn() ID {
	s.next++
	id := s.next
	s.byID[id] = s.identMap.NewEntity(&Ident{ID: id})
	return id
}

// Despawn removes the entity. Unknown ids are ignored, so despawning twice in
// one tick is harmless.
func (s *Store) Despawn(id ID) {
	e, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	if s.world.Alive(e) {
		s.world.RemoveEntity(e)
	}
	s.removed = append(s.removed, id)
}

func (s *Store) Alive(id ID) bool {
	_, ok := s.byID[id]
	return ok
}

// Len is the number of live entities.
func (s *Store) Len() int { return len(s.byID) }

// DrainRemoved returns the ids despawned since the previous call.
func (s *Store) DrainRemoved() []ID {
	out := s.removed
	s.removed = nil
	return out
}

// Player returns the player id, if the player exists.
func (s *Store) Player() (ID, bool) {
	ids := collect(s.players)
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// Agents returns every agent in creation order.
func (s *Store) Agents() []ID { return collect(s.agents) }

// RecruitedAgents returns agents that are not bound to a camp.
func (s *Store) RecruitedAgents() []ID { return collect(s.freeAgents) }

func (s *Store) Rogues() []ID { return collect(s.rogues) }

// Roamers returns hostiles that are not camp guardians.
func (s *Store) Roamers() []ID { return collect(s.roamers) }

func (s *Store) Guardians() []ID { return collect(s.guardians) }

func (s *Store) Buildings() []ID { return collect(s.buildings) }

func (s *Store) Projectiles() []ID { return collect(s.projectiles) }

// collect drains a query into a slice sorted by creation id. Iteration order
// inside the ECS depends on archetype layout; sorting makes every
// first-match scan in the systems reproducible.
func collect[B any](f *ecs.Filter2[Ident, B]) []ID {
	var ids []ID
	q := f.Query()
	for q.Next() {
		ident, _ := q.Get()
		ids = append(ids, ident.ID)
	}
	slices.Sort(ids)
	return ids
}
