package rlevox

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// File format, little-endian throughout:
//
//	offset  size  field
//	0       4     magic "STVX"
//	4       4     version (uint32, currently 1)
//	8       12    sizeX, sizeY, sizeZ (uint32 each)
//	20      4     voxelSize (float32)
//	24      12    originX, originY, originZ (float32 each)
//	36      4     payloadSize (uint32, length of the run section)
//	40      24    reserved, zero
//	64      ...   payload: (value uint8, runLength uint8) pairs
//
// A runLength byte of 0 encodes a run of 256. Runs fill the occupancy
// array at ascending flat index (X fastest, then Y, then Z).
const (
	magic      = "STVX"
	version    = 1
	headerSize = 64
	maxRun     = 256
)

// Encode serializes a grid to RLEVOX bytes. The transform is pure: the
// grid is not modified and equal grids always produce equal bytes.
func Encode(g *Grid) ([]byte, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}

	payload := encodeRuns(g.Voxels)
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: payload length %d overflows header field", ErrInvalidGrid, len(payload))
	}

	out := make([]byte, headerSize+len(payload))
	copy(out[0:4], magic)
	binary.LittleEndian.PutUint32(out[4:], version)
	binary.LittleEndian.PutUint32(out[8:], g.SizeX)
	binary.LittleEndian.PutUint32(out[12:], g.SizeY)
	binary.LittleEndian.PutUint32(out[16:], g.SizeZ)
	binary.LittleEndian.PutUint32(out[20:], math.Float32bits(g.VoxelSize))
	binary.LittleEndian.PutUint32(out[24:], math.Float32bits(g.OriginX))
	binary.LittleEndian.PutUint32(out[28:], math.Float32bits(g.OriginY))
	binary.LittleEndian.PutUint32(out[32:], math.Float32bits(g.OriginZ))
	binary.LittleEndian.PutUint32(out[36:], uint32(len(payload)))
	copy(out[headerSize:], payload)

	return out, nil
}

// encodeRuns greedily merges consecutive equal values. Runs longer than
// 256 are split into full chunks, emitted with a runLength byte of 0,
// followed by the remainder.
func encodeRuns(voxels []byte) []byte {
	var runs []byte

	i := 0
	for i < len(voxels) {
		value := voxels[i]
		j := i + 1
		for j < len(voxels) && voxels[j] == value {
			j++
		}

		runLen := j - i
		for runLen >= maxRun {
			runs = append(runs, value, 0)
			runLen -= maxRun
		}
		if runLen > 0 {
			runs = append(runs, value, byte(runLen))
		}
		i = j
	}

	return runs
}

// Decode parses RLEVOX bytes into a grid. It never returns a partially
// populated grid: on any error the result is nil.
func Decode(data []byte) (*Grid, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d-byte header", ErrTruncatedData, len(data), headerSize)
	}
	if string(data[0:4]) != magic {
		return nil, ErrInvalidMagic
	}

	v := binary.LittleEndian.Uint32(data[4:])
	if v != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	sizeX := binary.LittleEndian.Uint32(data[8:])
	sizeY := binary.LittleEndian.Uint32(data[12:])
	sizeZ := binary.LittleEndian.Uint32(data[16:])
	voxelSize := math.Float32frombits(binary.LittleEndian.Uint32(data[20:]))
	originX := math.Float32frombits(binary.LittleEndian.Uint32(data[24:]))
	originY := math.Float32frombits(binary.LittleEndian.Uint32(data[28:]))
	originZ := math.Float32frombits(binary.LittleEndian.Uint32(data[32:]))
	payloadSize := binary.LittleEndian.Uint32(data[36:])

	if int64(payloadSize) > int64(len(data)-headerSize) {
		return nil, fmt.Errorf("%w: declared payload %d exceeds %d available bytes",
			ErrTruncatedData, payloadSize, len(data)-headerSize)
	}

	g, err := NewGrid(sizeX, sizeY, sizeZ, voxelSize, originX, originY, originZ)
	if err != nil {
		return nil, err
	}

	payload := data[headerSize : headerSize+int(payloadSize)]
	if err := decodeRuns(g.Voxels, payload); err != nil {
		return nil, err
	}

	return g, nil
}

// decodeRuns expands (value, runLength) pairs into dst. Decoding stops
// when dst is full or the payload ends, whichever comes first; a payload
// that ends before dst fills is an error, as is a run that would write
// past the end of dst.
func decodeRuns(dst, payload []byte) error {
	written := 0
	for i := 0; i+1 < len(payload); i += 2 {
		if written == len(dst) {
			return nil
		}

		value := payload[i]
		runLen := int(payload[i+1])
		if runLen == 0 {
			runLen = maxRun
		}

		if written+runLen > len(dst) {
			return fmt.Errorf("%w: run of %d at offset %d overflows %d-voxel grid",
				ErrSizeMismatch, runLen, written, len(dst))
		}

		if value != 0 {
			for j := 0; j < runLen; j++ {
				dst[written+j] = value
			}
		}
		written += runLen
	}

	if written < len(dst) {
		return fmt.Errorf("%w: payload fills %d of %d voxels", ErrSizeMismatch, written, len(dst))
	}
	return nil
}

// DecodeFile parses an RLEVOX file from disk.
func DecodeFile(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RLEVOX file: %w", err)
	}
	return Decode(data)
}
