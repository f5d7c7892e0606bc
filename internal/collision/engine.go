// Package collision answers world-space occupancy and ground queries
// against a decoded voxel grid. It is the single query path shared by
// every host; presentation layers supply input and consume poses but
// never re-implement these tests.
package collision

import (
	gomath "math"

	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/math"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/rlevox"
)

// DefaultRingSamples is the number of points sampled around the
// capsule radius per height step.
const DefaultRingSamples = 8

// Capsule is the cylindrical volume approximating the agent's body.
// Height and Radius are in meters; the reference point is the bottom
// center (the feet).
type Capsule struct {
	Height float32
	Radius float32
}

// Engine queries an immutable decoded grid by world coordinates.
// Queries never fail: space outside the grid extent reads as empty, so
// the per-frame hot path stays branch-light. The grid is never
// mutated, making an Engine safe for concurrent readers.
type Engine struct {
	grid    *rlevox.Grid
	capsule Capsule

	// RingSamples tunes the capsule approximation. More samples catch
	// thinner obstacles at higher query cost.
	RingSamples int
}

// New creates an engine over a decoded grid.
func New(grid *rlevox.Grid, capsule Capsule) *Engine {
	return &Engine{
		grid:        grid,
		capsule:     capsule,
		RingSamples: DefaultRingSamples,
	}
}

// Grid returns the underlying grid.
func (e *Engine) Grid() *rlevox.Grid {
	return e.grid
}

// Capsule returns the capsule dimensions the engine was built with.
func (e *Engine) Capsule() Capsule {
	return e.capsule
}

// WorldToVoxel converts a world position to voxel indices.
func (e *Engine) WorldToVoxel(x, y, z float32) (int, int, int) {
	return int(gomath.Floor(float64((x - e.grid.OriginX) / e.grid.VoxelSize))),
		int(gomath.Floor(float64((y - e.grid.OriginY) / e.grid.VoxelSize))),
		int(gomath.Floor(float64((z - e.grid.OriginZ) / e.grid.VoxelSize)))
}

// IsSolid reports whether the voxel at the given indices is solid.
// Out-of-range indices are non-solid.
func (e *Engine) IsSolid(vx, vy, vz int) bool {
	return e.grid.Solid(vx, vy, vz)
}

// SolidAtWorld reports whether the world-space point lies in a solid
// voxel.
func (e *Engine) SolidAtWorld(p math.Vec3) bool {
	return e.IsSolid(e.WorldToVoxel(p.X, p.Y, p.Z))
}

// CapsuleBlocked reports whether a capsule with its feet at pos
// overlaps solid geometry. The test samples a ring of points at the
// capsule radius, repeated at height steps of one voxel size across
// the vertical extent, plus the center column.
//
// This is a discrete approximation: it is reliable when the voxel size
// is small relative to the capsule radius, but it has no derived
// penetration bound and does not prevent tunneling through thin walls
// at high per-step velocity. Raise RingSamples to tighten it.
func (e *Engine) CapsuleBlocked(pos math.Vec3) bool {
	step := e.grid.VoxelSize
	for h := float32(0); ; h += step {
		if h > e.capsule.Height {
			h = e.capsule.Height
		}

		if e.SolidAtWorld(math.Vec3{X: pos.X, Y: pos.Y + h, Z: pos.Z}) {
			return true
		}
		for i := 0; i < e.RingSamples; i++ {
			angle := 2 * gomath.Pi * float64(i) / float64(e.RingSamples)
			p := math.Vec3{
				X: pos.X + e.capsule.Radius*float32(gomath.Cos(angle)),
				Y: pos.Y + h,
				Z: pos.Z + e.capsule.Radius*float32(gomath.Sin(angle)),
			}
			if e.SolidAtWorld(p) {
				return true
			}
		}

		if h >= e.capsule.Height {
			return false
		}
	}
}

// GroundHeight returns the world Y of the top surface of the highest
// solid voxel in the column containing (x, z), or the grid origin
// height when the column is empty.
func (e *Engine) GroundHeight(x, z float32) float32 {
	vx, _, vz := e.WorldToVoxel(x, e.grid.OriginY, z)

	for vy := int(e.grid.SizeY) - 1; vy >= 0; vy-- {
		if e.grid.Solid(vx, vy, vz) {
			return e.grid.OriginY + float32(vy+1)*e.grid.VoxelSize
		}
	}
	return e.grid.OriginY
}
