// Package geometry builds occupancy grids at the boundary the scan
// pipeline hands over: raw boolean occupancy in, voxel grid out.
// Plane fitting and mesh reconstruction happen upstream and are not
// part of this repo.
package geometry

import (
	gomath "math"

	"github.com/ZRosserMcIntosh/mast3r-slam-stella/internal/collision"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/math"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/rlevox"
)

// ExtrudeWalls turns a 2D wall mask (sizeX by sizeZ, X fastest) into a
// 3D grid by repeating it vertically up to wallHeight meters.
func ExtrudeWalls(mask []bool, sizeX, sizeZ int, wallHeight, voxelSize float32) (*rlevox.Grid, error) {
	sizeY := int(gomath.Ceil(float64(wallHeight / voxelSize)))
	if sizeY < 1 {
		sizeY = 1
	}

	g, err := rlevox.NewGrid(uint32(sizeX), uint32(sizeY), uint32(sizeZ), voxelSize, 0, 0, 0)
	if err != nil {
		return nil, err
	}

	for z := 0; z < sizeZ; z++ {
		for x := 0; x < sizeX; x++ {
			if !mask[x+z*sizeX] {
				continue
			}
			for y := 0; y < sizeY; y++ {
				g.Set(x, y, z, 1)
			}
		}
	}
	return g, nil
}

// FloorCeilingGrid builds an empty volume bounded by a solid floor
// slab and a solid ceiling slab. Thicknesses are in voxels, the gap
// between the slabs in meters.
func FloorCeilingGrid(sizeX, sizeZ, floorVox, ceilingVox int, gapM, voxelSize float32) (*rlevox.Grid, error) {
	gapVox := int(gomath.Ceil(float64(gapM / voxelSize)))
	if gapVox < 1 {
		gapVox = 1
	}
	sizeY := floorVox + gapVox + ceilingVox

	g, err := rlevox.NewGrid(uint32(sizeX), uint32(sizeY), uint32(sizeZ), voxelSize, 0, 0, 0)
	if err != nil {
		return nil, err
	}

	for z := 0; z < sizeZ; z++ {
		for x := 0; x < sizeX; x++ {
			for y := 0; y < floorVox; y++ {
				g.Set(x, y, z, 1)
			}
			for y := sizeY - ceilingVox; y < sizeY; y++ {
				g.Set(x, y, z, 1)
			}
		}
	}
	return g, nil
}

// BoxRoom builds a closed test room: a one-voxel floor, perimeter
// walls up to heightM, and no ceiling. Dimensions are in meters.
func BoxRoom(widthM, depthM, heightM, voxelSize float32) (*rlevox.Grid, error) {
	sizeX := int(gomath.Ceil(float64(widthM / voxelSize)))
	sizeZ := int(gomath.Ceil(float64(depthM / voxelSize)))
	sizeY := int(gomath.Ceil(float64(heightM/voxelSize))) + 1

	g, err := rlevox.NewGrid(uint32(sizeX), uint32(sizeY), uint32(sizeZ), voxelSize, 0, 0, 0)
	if err != nil {
		return nil, err
	}

	for z := 0; z < sizeZ; z++ {
		for x := 0; x < sizeX; x++ {
			g.Set(x, 0, z, 1)
			if x == 0 || z == 0 || x == sizeX-1 || z == sizeZ-1 {
				for y := 1; y < sizeY; y++ {
					g.Set(x, y, z, 1)
				}
			}
		}
	}
	return g, nil
}

// VoxelizePoints marks every voxel containing a point of the cloud as
// solid. The grid origin is placed padding voxels below the cloud's
// minimum corner.
func VoxelizePoints(points []math.Vec3, voxelSize float32, padding int) (*rlevox.Grid, error) {
	if len(points) == 0 {
		return rlevox.NewGrid(1, 1, 1, voxelSize, 0, 0, 0)
	}

	min, max := points[0], points[0]
	for _, p := range points[1:] {
		min.X = minf(min.X, p.X)
		min.Y = minf(min.Y, p.Y)
		min.Z = minf(min.Z, p.Z)
		max.X = maxf(max.X, p.X)
		max.Y = maxf(max.Y, p.Y)
		max.Z = maxf(max.Z, p.Z)
	}

	pad := float32(padding) * voxelSize
	min = min.Sub(math.Vec3{X: pad, Y: pad, Z: pad})
	max = max.Add(math.Vec3{X: pad, Y: pad, Z: pad})

	dim := func(lo, hi float32) uint32 {
		n := int(gomath.Ceil(float64((hi - lo) / voxelSize)))
		if n < 1 {
			n = 1
		}
		return uint32(n)
	}

	g, err := rlevox.NewGrid(dim(min.X, max.X), dim(min.Y, max.Y), dim(min.Z, max.Z), voxelSize, min.X, min.Y, min.Z)
	if err != nil {
		return nil, err
	}

	for _, p := range points {
		x := clampIndex(int(gomath.Floor(float64((p.X-min.X)/voxelSize))), int(g.SizeX))
		y := clampIndex(int(gomath.Floor(float64((p.Y-min.Y)/voxelSize))), int(g.SizeY))
		z := clampIndex(int(gomath.Floor(float64((p.Z-min.Z)/voxelSize))), int(g.SizeZ))
		g.Set(x, y, z, 1)
	}
	return g, nil
}

// FindSpawn searches for a world position where the capsule fits in
// empty space while standing on ground. Returns false when the grid
// has no such column.
func FindSpawn(g *rlevox.Grid, capsule collision.Capsule) (math.Vec3, bool) {
	hVox := int(gomath.Ceil(float64(capsule.Height / g.VoxelSize)))
	rVox := int(gomath.Ceil(float64(capsule.Radius / g.VoxelSize)))

	for x := rVox; x < int(g.SizeX)-rVox; x++ {
		for z := rVox; z < int(g.SizeZ)-rVox; z++ {
			for y := 0; y+hVox <= int(g.SizeY); y++ {
				if !regionClear(g, x-rVox, x+rVox, y, y+hVox-1, z-rVox, z+rVox) {
					continue
				}
				if y == 0 || g.Solid(x, y-1, z) {
					return math.Vec3{
						X: g.OriginX + (float32(x)+0.5)*g.VoxelSize,
						Y: g.OriginY + float32(y)*g.VoxelSize,
						Z: g.OriginZ + (float32(z)+0.5)*g.VoxelSize,
					}, true
				}
			}
		}
	}
	return math.Vec3{}, false
}

func regionClear(g *rlevox.Grid, x0, x1, y0, y1, z0, z1 int) bool {
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				if g.Solid(x, y, z) {
					return false
				}
			}
		}
	}
	return true
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
