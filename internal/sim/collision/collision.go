// Package collision is the terrain walkability oracle shared with the client.
//
// Every function here must produce bit-identical results to the client's
// implementation: same hash constants, same seeds, same thresholds, float64
// noise math. Changing any of them desynchronises movement validation.
package collision

import "math"

// TilePx is the edge length of one terrain tile in world pixels.
const TilePx = 16.0

const (
	waterScale = 20.0
	waterSeed  = 777
	elevScale  = 16.0
	elevSeed   = 333
	octaves    = 3

	WaterThreshold = 0.68
	ElevThreshold  = 0.72
)

// hash is a two-round multiply/xor/shift integer hash. All arithmetic wraps
// on int32 and the right shifts are arithmetic.
func hash(x, y, seed int32) uint32 {
	h := x*374761393 + y*668265263 + seed
	h = (h ^ (h >> 13)) * 1274126177
	return uint32(h ^ (h >> 16))
}

// Hash exposes the raw lattice hash (chest and camp placement reuse it).
func Hash(x, y, seed int32) uint32 { return hash(x, y, seed) }

func lattice(x, y, seed int32) float64 {
	return float64(hash(x, y, seed)&0xffff) / float64(0xffff)
}

func noise(x, y, scale float64, seed int32) float64 {
	sx := x / scale
	sy := y / scale
	ix := Saturate(math.Floor(sx))
	iy := Saturate(math.Floor(sy))
	fx := sx - float64(ix)
	fy := sy - float64(iy)
	ux := fx * fx * (3.0 - 2.0*fx)
	uy := fy * fy * (3.0 - 2.0*fy)
	n00 := lattice(ix, iy, seed)
	n10 := lattice(ix+1, iy, seed)
	n01 := lattice(ix, iy+1, seed)
	n11 := lattice(ix+1, iy+1, seed)
	return (n00*(1.0-ux)+n10*ux)*(1.0-uy) + (n01*(1.0-ux)+n11*ux)*uy
}

func fbm(x, y, scale float64, seed int32, oct int) float64 {
	val, amp, freq, total := 0.0, 1.0, 1.0, 0.0
	for i := 0; i < oct; i++ {
		val += noise(x*freq, y*freq, scale, seed+int32(i)*1000) * amp
		total += amp
		amp *= 0.5
		freq *= 2.0
	}
	return val / total
}

// IsWater reports whether the tile is water.
func IsWater(tx, ty int32) bool {
	return fbm(float64(tx), float64(ty), waterScale, waterSeed, octaves) > WaterThreshold
}

// Elevation returns the raw elevation field at the tile, in [0,1].
func Elevation(tx, ty int32) float64 {
	return fbm(float64(tx), float64(ty), elevScale, elevSeed, octaves)
}

func IsElevated(tx, ty int32) bool { return Elevation(tx, ty) >= ElevThreshold }

// IsWalkable is the tile walkability predicate. Water never is; elevated
// ground always is; the two tiles directly below an elevated edge are the
// cliff face and never are.
func IsWalkable(tx, ty int32) bool {
	if IsWater(tx, ty) {
		return false
	}
	if IsElevated(tx, ty) {
		return true
	}
	// cliff top
	if IsElevated(tx, ty-1) {
		return false
	}
	// cliff bottom
	if IsElevated(tx, ty-2) && !IsElevated(tx, ty-1) {
		return false
	}
	return true
}

// PixelToTile converts a world pixel coordinate to a tile index. The division
// is done in float32 to match the client.
func PixelToTile(px float64) int32 {
	return Saturate(math.Floor(float64(float32(px) / float32(TilePx))))
}

// Saturate converts to int32 the way the client's float casts do: values
// past either bound clamp to it and NaN becomes 0.
func Saturate(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}

// WalkableAt is IsWalkable for world pixel coordinates.
func WalkableAt(px, py float64) bool {
	return IsWalkable(PixelToTile(px), PixelToTile(py))
}

// Oracle answers walkability for world pixel coordinates. Tests substitute
// open or walled terrain.
type Oracle func(px, py float64) bool

// Terrain is the production oracle.
var Terrain Oracle = WalkableAt

// Open treats every position as walkable.
func Open(float64, float64) bool { return true }

// Slide moves (x,y) by (dx,dy) one axis at a time: X is tested against the
// current Y, then Y against the possibly updated X. A blocked axis keeps its
// old value, which produces wall sliding.
func Slide(walk Oracle, x, y, dx, dy float64) (float64, float64) {
	if walk == nil {
		walk = Open
	}
	if dx != 0 {
		if nx := x + dx; walk(nx, y) {
			x = nx
		}
	}
	if dy != 0 {
		if ny := y + dy; walk(x, ny) {
			y = ny
		}
	}
	return x, y
}
