// Package fog tracks which terrain chunks light has ever reached and which
// tiles are lit right now.
package fog

import (
	"math"
	"slices"

	"tokenwheel.ai/internal/sim/collision"
)

const ChunkTiles = 32

type Chunk struct{ X, Y int32 }

type Tile struct{ X, Y int32 }

// Light is a light source in world pixels.
type Light struct{ X, Y, Radius float64 }

// Fog is the reveal state. Revealed chunks stay revealed; lit tiles are
// recomputed on every Update.
type Fog struct {
	revealed map[Chunk]struct{}
	lit      map[Tile]struct{}
}

func New() *Fog {
	return &Fog{revealed: map[Chunk]struct{}{}, lit: map[Tile]struct{}{}}
}

// ChunkOf returns the chunk holding absolute tile t. Negative tiles round
// toward negative infinity.
func ChunkOf(t Tile) Chunk {
	return Chunk{X: floorDiv(t.X, ChunkTiles), Y: floorDiv(t.Y, ChunkTiles)}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Update relights every tile whose centre lies within a light's radius and
// returns the chunks revealed for the first time, in reveal order.
func (f *Fog) Update(lights []Light) []Chunk {
	clear(f.lit)
	var fresh []Chunk
	for _, l := range lights {
		if l.Radius <= 0 {
			continue
		}
		minX := int64(collision.Saturate(math.Floor((l.X - l.Radius) / collision.TilePx)))
		maxX := int64(collision.Saturate(math.Floor((l.X + l.Radius) / collision.TilePx)))
		minY := int64(collision.Saturate(math.Floor((l.Y - l.Radius) / collision.TilePx)))
		maxY := int64(collision.Saturate(math.Floor((l.Y + l.Radius) / collision.TilePx)))
		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				tx, ty := int32(x), int32(y)
				cx := (float64(tx) + 0.5) * collision.TilePx
				cy := (float64(ty) + 0.5) * collision.TilePx
				if math.Hypot(cx-l.X, cy-l.Y) > l.Radius {
					continue
				}
				t := Tile{tx, ty}
				f.lit[t] = struct{}{}
				c := ChunkOf(t)
				if _, seen := f.revealed[c]; !seen {
					f.revealed[c] = struct{}{}
					fresh = append(fresh, c)
				}
			}
		}
	}
	return fresh
}

func (f *Fog) Lit(t Tile) bool {
	_, ok := f.lit[t]
	return ok
}

func (f *Fog) LitCount() int { return len(f.lit) }

func (f *Fog) RevealedCount() int { return len(f.revealed) }

func (f *Fog) Revealed(c Chunk) bool {
	_, ok := f.revealed[c]
	return ok
}

// RevealedChunks returns every revealed chunk sorted by (Y, X).
func (f *Fog) RevealedChunks() []Chunk {
	out := make([]Chunk, 0, len(f.revealed))
	for c := range f.revealed {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Chunk) int {
		if a.Y != b.Y {
			return int(a.Y) - int(b.Y)
		}
		return int(a.X) - int(b.X)
	})
	return out
}
