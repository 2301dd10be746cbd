package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"tokenwheel.ai/internal/sim/entity"
)

// stateDigest hashes the simulation-relevant state after a tick. Two worlds
// fed the same seed and inputs produce the same digest sequence.
func (w *World) stateDigest(tick uint64) string {
	h := sha256.New()
	g := w.state
	var tmp [8]byte
	u := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		h.Write(tmp[:])
	}
	fl := func(v float64) { u(math.Float64bits(v)) }

	u(tick)
	u(uint64(g.Economy.Balance))
	fl(g.Economy.Fractional)
	u(uint64(g.Phase))
	u(uint64(g.Crank.Tier))
	fl(g.Crank.Heat)
	u(uint64(g.Crank.AssignedAgent))
	u(boolBit(g.PlayerDead))

	s := w.store
	if pid, ok := s.Player(); ok {
		digestEntity(s, pid, u, fl)
	}
	for _, ids := range [][]entity.ID{s.Agents(), s.Buildings(), s.Rogues(), s.Projectiles()} {
		u(uint64(len(ids)))
		for _, id := range ids {
			digestEntity(s, id, u, fl)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestEntity(s *entity.Store, id entity.ID, u func(uint64), fl func(float64)) {
	u(uint64(id))
	if pos := s.Position.Get(id); pos != nil {
		fl(pos.X)
		fl(pos.Y)
	}
	if hp := s.Health.Get(id); hp != nil {
		u(uint64(int64(hp.Current)))
	}
	if st := s.Status.Get(id); st != nil {
		u(uint64(st.State))
	}
	if p := s.Progress.Get(id); p != nil {
		fl(p.Current)
	}
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
