package world

import "time"

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Entities    int  `json:"entities"`
	Agents      int  `json:"agents"`
	Rogues      int  `json:"rogues"`
	Buildings   int  `json:"buildings"`
	Projectiles int  `json:"projectiles"`
	Client      bool `json:"client"`

	Balance    int64   `json:"balance"`
	Phase      string  `json:"phase"`
	CrankTier  string  `json:"crank_tier"`
	Heat       float64 `json:"heat"`
	PlayerDead bool    `json:"player_dead"`

	SpawnedTotal    uint64 `json:"spawned_total"`
	KillsTotal      uint64 `json:"kills_total"`
	RejectionsTotal uint64 `json:"rejections_total"`
	CompletedTotal  uint64 `json:"completed_total"`
	RevealedChunks  int    `json:"revealed_chunks"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	Inbox  int `json:"inbox"`
	Attach int `json:"attach"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) publishMetrics(step time.Duration) {
	s, g := w.store, w.state
	w.metrics.Store(WorldMetrics{
		Tick:            g.Tick,
		Entities:        s.Len(),
		Agents:          len(s.Agents()),
		Rogues:          len(s.Rogues()),
		Buildings:       len(s.Buildings()),
		Projectiles:     len(s.Projectiles()),
		Client:          w.client != nil,
		Balance:         g.Economy.Balance,
		Phase:           g.Phase.String(),
		CrankTier:       g.Crank.Tier.String(),
		Heat:            g.Crank.Heat,
		PlayerDead:      g.PlayerDead,
		SpawnedTotal:    w.totals.spawned,
		KillsTotal:      w.totals.kills,
		RejectionsTotal: w.totals.rejections,
		CompletedTotal:  w.totals.completed,
		RevealedChunks:  w.fog.RevealedCount(),
		QueueDepths: QueueDepths{
			Inbox:  len(w.inbox),
			Attach: len(w.attach),
		},
		StepMS: float64(step.Microseconds()) / 1000.0,
	})
}
