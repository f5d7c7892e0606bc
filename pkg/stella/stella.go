// Package stella reads and writes .stella packages: single-file ZIP
// containers bundling a world manifest, level descriptors, render
// meshes, and RLEVOX collision grids.
package stella

import (
	"errors"
	"fmt"
)

// ManifestPath is the fixed top-level location of the world manifest.
const ManifestPath = "manifest.json"

// ChecksumPath is the fixed location of the integrity digest list.
const ChecksumPath = "checksums.sha256"

// ErrNotArchive is returned when the container itself cannot be opened.
var ErrNotArchive = errors.New("not a valid .stella archive")

// MissingEntryError is returned when a path referenced by the manifest
// or a level descriptor is absent from the archive.
type MissingEntryError struct {
	Path string
}

func (e *MissingEntryError) Error() string {
	return fmt.Sprintf("missing archive entry: %s", e.Path)
}

// ParseError is returned when an embedded descriptor is malformed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed descriptor %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Warning is a non-fatal finding from opening a package. A package
// with warnings is structurally sound and remains usable; the loader
// surfaces them instead of refusing to open.
type Warning struct {
	Path   string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}
