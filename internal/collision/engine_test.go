package collision

import (
	"testing"

	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/math"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/rlevox"
)

// testGrid builds a 4x4x4 grid with voxelSize 1 at the world origin.
func testGrid(t *testing.T, solid ...[3]int) *rlevox.Grid {
	t.Helper()
	g, err := rlevox.NewGrid(4, 4, 4, 1.0, 0, 0, 0)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	for _, c := range solid {
		g.Set(c[0], c[1], c[2], 1)
	}
	return g
}

func defaultCapsule() Capsule {
	return Capsule{Height: 1.7, Radius: 0.3}
}

func TestWorldToVoxel(t *testing.T) {
	e := New(testGrid(t), defaultCapsule())

	tests := []struct {
		x, y, z    float32
		vx, vy, vz int
	}{
		{0, 0, 0, 0, 0, 0},
		{0.99, 0.99, 0.99, 0, 0, 0},
		{1.5, 0.5, 1.5, 1, 0, 1},
		{-0.5, 0, 0, -1, 0, 0},
		{3.999, 3.999, 3.999, 3, 3, 3},
	}
	for _, tc := range tests {
		vx, vy, vz := e.WorldToVoxel(tc.x, tc.y, tc.z)
		if vx != tc.vx || vy != tc.vy || vz != tc.vz {
			t.Errorf("WorldToVoxel(%v, %v, %v) = (%d, %d, %d), want (%d, %d, %d)",
				tc.x, tc.y, tc.z, vx, vy, vz, tc.vx, tc.vy, tc.vz)
		}
	}
}

func TestWorldToVoxelOffsetOrigin(t *testing.T) {
	g, err := rlevox.NewGrid(4, 4, 4, 0.5, -1, 2, 3)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	e := New(g, defaultCapsule())

	vx, vy, vz := e.WorldToVoxel(-1, 2, 3)
	if vx != 0 || vy != 0 || vz != 0 {
		t.Errorf("origin corner maps to (%d, %d, %d), want (0, 0, 0)", vx, vy, vz)
	}

	vx, vy, vz = e.WorldToVoxel(-0.75, 2.75, 4.25)
	if vx != 0 || vy != 1 || vz != 2 {
		t.Errorf("got (%d, %d, %d), want (0, 1, 2)", vx, vy, vz)
	}
}

func TestIsSolidScenario(t *testing.T) {
	// Only voxel (1,0,1) solid.
	e := New(testGrid(t, [3]int{1, 0, 1}), defaultCapsule())

	if !e.SolidAtWorld(math.Vec3{X: 1.5, Y: 0.5, Z: 1.5}) {
		t.Error("point (1.5, 0.5, 1.5) should be solid")
	}
	if e.SolidAtWorld(math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}) {
		t.Error("point (0.5, 0.5, 0.5) should be empty")
	}
}

func TestIsSolidOutsideGrid(t *testing.T) {
	e := New(testGrid(t, [3]int{1, 0, 1}), defaultCapsule())

	outside := []math.Vec3{
		{X: -10, Y: 0, Z: 0},
		{X: 0, Y: -10, Z: 0},
		{X: 0, Y: 0, Z: 100},
		{X: 4.01, Y: 0.5, Z: 0.5},
	}
	for _, p := range outside {
		if e.SolidAtWorld(p) {
			t.Errorf("point %v outside the grid should be traversable", p)
		}
	}
}

func TestGroundHeight(t *testing.T) {
	e := New(testGrid(t, [3]int{1, 0, 1}), defaultCapsule())

	if got := e.GroundHeight(1.5, 1.5); got != 1.0 {
		t.Errorf("GroundHeight(1.5, 1.5) = %v, want 1.0", got)
	}
	// Empty column falls back to the origin height.
	if got := e.GroundHeight(0.5, 0.5); got != 0.0 {
		t.Errorf("GroundHeight(0.5, 0.5) = %v, want 0.0", got)
	}
	// Outside the grid there is no geometry at all.
	if got := e.GroundHeight(-50, -50); got != 0.0 {
		t.Errorf("GroundHeight(-50, -50) = %v, want 0.0", got)
	}
}

func TestGroundHeightPicksHighestSolid(t *testing.T) {
	e := New(testGrid(t, [3]int{2, 0, 2}, [3]int{2, 2, 2}), defaultCapsule())

	if got := e.GroundHeight(2.5, 2.5); got != 3.0 {
		t.Errorf("GroundHeight(2.5, 2.5) = %v, want 3.0 (top of highest solid)", got)
	}
}

func TestCapsuleBlocked(t *testing.T) {
	// Wall voxel at head height next to the capsule center.
	e := New(testGrid(t, [3]int{2, 1, 1}), defaultCapsule())

	// Feet at (2.5, 0, 1.5): the center column passes through (2,1,1).
	if !e.CapsuleBlocked(math.Vec3{X: 2.5, Y: 0, Z: 1.5}) {
		t.Error("capsule overlapping solid voxel should be blocked")
	}

	// Far corner: nothing solid nearby.
	if e.CapsuleBlocked(math.Vec3{X: 0.5, Y: 0, Z: 3.5}) {
		t.Error("capsule in empty space should not be blocked")
	}
}

func TestCapsuleBlockedByRingSample(t *testing.T) {
	// Solid voxel to the +X side, outside the center column but within
	// the capsule radius.
	e := New(testGrid(t, [3]int{2, 0, 1}), Capsule{Height: 1.7, Radius: 0.3})

	// Feet at x=1.8: center column is in voxel x=1, but the ring
	// sample at +radius reaches x=2.1, inside voxel x=2.
	if !e.CapsuleBlocked(math.Vec3{X: 1.8, Y: 0.5, Z: 1.5}) {
		t.Error("ring sample should detect the adjacent wall")
	}

	// Pulled back so that even the ring clears voxel x=2.
	if e.CapsuleBlocked(math.Vec3{X: 1.5, Y: 0.5, Z: 1.5}) {
		t.Error("capsule clear of the wall should not be blocked")
	}
}

func TestCapsuleSamplesFullHeight(t *testing.T) {
	// Obstacle only at the very top of the capsule extent.
	g, err := rlevox.NewGrid(4, 8, 4, 0.5, 0, 0, 0)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	g.Set(1, 3, 1, 1) // spans y in [1.5, 2.0)

	e := New(g, Capsule{Height: 1.6, Radius: 0.2})
	if !e.CapsuleBlocked(math.Vec3{X: 0.75, Y: 0, Z: 0.75}) {
		t.Error("top-of-capsule sample should detect overhead obstacle")
	}
}

func TestRingSamplesTunable(t *testing.T) {
	e := New(testGrid(t), defaultCapsule())
	if e.RingSamples != DefaultRingSamples {
		t.Errorf("RingSamples = %d, want default %d", e.RingSamples, DefaultRingSamples)
	}

	e.RingSamples = 16
	if e.CapsuleBlocked(math.Vec3{X: 0.5, Y: 0, Z: 3.5}) {
		t.Error("empty space should stay clear regardless of sample count")
	}
}
