// Package rlevox implements the RLEVOX run-length-encoded voxel
// occupancy format used for collision data in .stella packages.
package rlevox

import (
	"errors"
	"fmt"
)

// Format errors.
var (
	ErrInvalidMagic       = errors.New("invalid RLEVOX magic: expected 'STVX'")
	ErrUnsupportedVersion = errors.New("unsupported RLEVOX version")
	ErrTruncatedData      = errors.New("truncated RLEVOX data")
	ErrSizeMismatch       = errors.New("RLEVOX payload does not fill declared dimensions")
	ErrInvalidGrid        = errors.New("invalid voxel grid")
)

// maxDim bounds each grid axis. A 100m room at 0.05m voxels is 2000
// cells per axis, so 4096 leaves generous headroom while rejecting
// corrupt headers before allocation.
const maxDim = 4096

// Grid is a voxel occupancy grid. Voxels holds one byte per cell,
// 0 = empty, nonzero = solid (the value is a material id). The flat
// layout is X fastest, then Y, then Z.
//
// A Grid is built once by the geometry pipeline and must be treated as
// read-only after it has been encoded or decoded. A decoded Grid is
// never mutated and is safe for concurrent readers.
type Grid struct {
	SizeX, SizeY, SizeZ uint32

	// VoxelSize is the uniform edge length of one voxel in meters.
	VoxelSize float32

	// Origin is the world position of voxel (0,0,0)'s minimum corner.
	OriginX, OriginY, OriginZ float32

	Voxels []byte
}

// NewGrid creates an empty grid with the given dimensions.
func NewGrid(sizeX, sizeY, sizeZ uint32, voxelSize float32, originX, originY, originZ float32) (*Grid, error) {
	if sizeX == 0 || sizeY == 0 || sizeZ == 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %dx%dx%d", ErrInvalidGrid, sizeX, sizeY, sizeZ)
	}
	if sizeX > maxDim || sizeY > maxDim || sizeZ > maxDim {
		return nil, fmt.Errorf("%w: dimensions %dx%dx%d exceed limit %d", ErrInvalidGrid, sizeX, sizeY, sizeZ, maxDim)
	}
	if voxelSize <= 0 {
		return nil, fmt.Errorf("%w: voxel size must be positive, got %f", ErrInvalidGrid, voxelSize)
	}

	return &Grid{
		SizeX:     sizeX,
		SizeY:     sizeY,
		SizeZ:     sizeZ,
		VoxelSize: voxelSize,
		OriginX:   originX,
		OriginY:   originY,
		OriginZ:   originZ,
		Voxels:    make([]byte, int(sizeX)*int(sizeY)*int(sizeZ)),
	}, nil
}

// VoxelCount returns the total number of cells.
func (g *Grid) VoxelCount() int {
	return int(g.SizeX) * int(g.SizeY) * int(g.SizeZ)
}

// Index returns the flat index of cell (x, y, z).
func (g *Grid) Index(x, y, z int) int {
	return x + y*int(g.SizeX) + z*int(g.SizeX)*int(g.SizeY)
}

// In reports whether (x, y, z) is inside the grid extent.
func (g *Grid) In(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 &&
		x < int(g.SizeX) && y < int(g.SizeY) && z < int(g.SizeZ)
}

// At returns the occupancy value at (x, y, z). Cells outside the grid
// extent read as empty.
func (g *Grid) At(x, y, z int) byte {
	if !g.In(x, y, z) {
		return 0
	}
	return g.Voxels[g.Index(x, y, z)]
}

// Solid reports whether the cell at (x, y, z) is solid. Space outside
// the grid extent is always traversable.
func (g *Grid) Solid(x, y, z int) bool {
	return g.At(x, y, z) != 0
}

// Set writes an occupancy value during grid construction. Writes
// outside the grid extent are ignored.
func (g *Grid) Set(x, y, z int, v byte) {
	if !g.In(x, y, z) {
		return
	}
	g.Voxels[g.Index(x, y, z)] = v
}

// Stats summarizes a grid's occupancy.
type Stats struct {
	TotalVoxels int
	SolidVoxels int
	FillRatio   float64

	// World extent in meters.
	WorldSizeX, WorldSizeY, WorldSizeZ float32
}

// Stats returns occupancy statistics for the grid.
func (g *Grid) Stats() Stats {
	solid := 0
	for _, v := range g.Voxels {
		if v != 0 {
			solid++
		}
	}

	total := g.VoxelCount()
	s := Stats{
		TotalVoxels: total,
		SolidVoxels: solid,
		WorldSizeX:  float32(g.SizeX) * g.VoxelSize,
		WorldSizeY:  float32(g.SizeY) * g.VoxelSize,
		WorldSizeZ:  float32(g.SizeZ) * g.VoxelSize,
	}
	if total > 0 {
		s.FillRatio = float64(solid) / float64(total)
	}
	return s
}

func (g *Grid) validate() error {
	if g.SizeX == 0 || g.SizeY == 0 || g.SizeZ == 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%dx%d", ErrInvalidGrid, g.SizeX, g.SizeY, g.SizeZ)
	}
	if g.VoxelSize <= 0 {
		return fmt.Errorf("%w: voxel size must be positive, got %f", ErrInvalidGrid, g.VoxelSize)
	}
	if len(g.Voxels) != g.VoxelCount() {
		return fmt.Errorf("%w: occupancy array length %d does not match %dx%dx%d",
			ErrInvalidGrid, len(g.Voxels), g.SizeX, g.SizeY, g.SizeZ)
	}
	return nil
}
