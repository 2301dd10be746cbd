package agents

import (
	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/entity"
	"tokenwheel.ai/internal/sim/events"
	"tokenwheel.ai/internal/sim/state"
)

func nameOf(s *entity.Store, id entity.ID) string {
	if n := s.Name.Get(id); n != nil {
		return n.Name
	}
	return "agent"
}

// Recruit hires an existing recruitable agent, including a camp-bound one.
func Recruit(s *entity.Store, econ *state.TokenEconomy, id entity.ID, f *events.Frame) error {
	rec := s.Recruit.Get(id)
	if !s.AgentTag.Has(id) || rec == nil {
		return protocol.Rejectf(protocol.ErrInvalidTarget, "Entity %d is not a recruitable agent", id)
	}
	cost := rec.Cost
	if econ.Balance < cost {
		return protocol.Rejectf(protocol.ErrNoResource, "Insufficient balance: need %d tokens but only have %d", cost, econ.Balance)
	}
	econ.Balance -= cost
	s.Recruit.Remove(id)
	s.BoundTag.Remove(id)
	if st := s.Status.Get(id); st != nil {
		st.State = entity.AgentIdle
	} else {
		s.Status.Set(id, entity.AgentStatus{State: entity.AgentIdle})
	}
	if !s.Assignment.Has(id) {
		s.Assignment.Set(id, entity.Assignment{Task: entity.TaskIdle})
	}
	f.Logf(events.LogAgent, "[%s] recruited for %d tokens", nameOf(s, id), cost)
	f.Play(events.AgentSpeak)
	return nil
}

// AssignTask moves a recruited agent onto a task.
func AssignTask(s *entity.Store, id entity.ID, task entity.Task) error {
	st := s.Status.Get(id)
	if !s.AgentTag.Has(id) || st == nil {
		return protocol.Rejectf(protocol.ErrInvalidTarget, "Entity %d is not an agent", id)
	}
	switch st.State {
	case entity.AgentUnresponsive:
		return protocol.Rejectf(protocol.ErrBlocked, "Agent is unresponsive and cannot accept tasks")
	case entity.AgentDormant:
		return protocol.Rejectf(protocol.ErrBlocked, "Agent has not been recruited")
	}
	st.State = task.StateFor()
	if as := s.Assignment.Get(id); as != nil {
		as.Task = task
	} else {
		s.Assignment.Set(id, entity.Assignment{Task: task})
	}
	return nil
}

// Rollback recovers an erroring agent: back to Idle with a fresh turn budget.
func Rollback(s *entity.Store, id entity.ID, f *events.Frame) error {
	st := s.Status.Get(id)
	if !s.AgentTag.Has(id) || st == nil {
		return protocol.Rejectf(protocol.ErrInvalidTarget, "Entity %d is not an agent", id)
	}
	if st.State != entity.AgentErroring {
		return protocol.Rejectf(protocol.ErrConflict, "Agent is not erroring")
	}
	st.State = entity.AgentIdle
	if v := s.Vibe.Get(id); v != nil {
		v.TurnsUsed = 0
	}
	if as := s.Assignment.Get(id); as != nil {
		as.Task = entity.TaskIdle
	}
	f.Logf(events.LogAgent, "[%s] rolled back to last checkpoint", nameOf(s, id))
	return nil
}

// AssignToWheel puts an agent on the crank. Any previous crank worker goes
// back to Idle.
func AssignToWheel(s *entity.Store, g *state.GameState, id entity.ID) error {
	if err := AssignTask(s, id, entity.TaskCrank); err != nil {
		return err
	}
	if prev := g.Crank.AssignedAgent; prev != 0 && prev != id {
		_ = AssignTask(s, prev, entity.TaskIdle)
	}
	g.Crank.AssignedAgent = id
	return nil
}

// UnassignFromWheel clears the crank worker.
func UnassignFromWheel(s *entity.Store, g *state.GameState) error {
	prev := g.Crank.AssignedAgent
	if prev == 0 {
		return protocol.Rejectf(protocol.ErrConflict, "No agent is assigned to the token wheel")
	}
	g.Crank.AssignedAgent = 0
	_ = AssignTask(s, prev, entity.TaskIdle)
	return nil
}

// WheelWorker reports whether the assigned crank worker can still work.
func WheelWorker(s *entity.Store, g *state.GameState) bool {
	id := g.Crank.AssignedAgent
	if id == 0 {
		return false
	}
	st := s.Status.Get(id)
	as := s.Assignment.Get(id)
	return st != nil && as != nil && st.State.Active() && as.Task == entity.TaskCrank
}

// AssignToProject records that an agent works on a manifest project. The
// project's building type must exist in completed form.
func AssignToProject(s *entity.Store, agent entity.ID, project string, kind entity.BuildingKind, f *events.Frame) error {
	st := s.Status.Get(agent)
	if !s.AgentTag.Has(agent) || st == nil {
		return protocol.Rejectf(protocol.ErrInvalidTarget, "Entity %d is not an agent", agent)
	}
	if s.Recruit.Has(agent) || st.State == entity.AgentDormant {
		return protocol.Rejectf(protocol.ErrBlocked, "Agent has not been recruited")
	}
	if st.State == entity.AgentUnresponsive {
		return protocol.Rejectf(protocol.ErrBlocked, "Agent is unresponsive and cannot accept tasks")
	}
	var site entity.ID
	for _, b := range s.Buildings() {
		bt := s.BType.Get(b)
		p := s.Progress.Get(b)
		if bt != nil && p != nil && bt.Kind == kind && p.Complete() {
			site = b
			break
		}
	}
	if site == 0 {
		return protocol.Rejectf(protocol.ErrBlocked, "No completed %s to work on", kind)
	}
	if as := s.Assignment.Get(agent); as != nil {
		as.Building, as.Project = site, project
	} else {
		s.Assignment.Set(agent, entity.Assignment{Task: entity.TaskIdle, Building: site, Project: project})
	}
	f.Logf(events.LogAgent, "[%s] assigned to project %s", nameOf(s, agent), project)
	return nil
}
