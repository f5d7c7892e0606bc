package stella

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/manifest"
)

// Archive is an opened .stella package. Packages are write-once at
// build time and read-only afterward: an Archive never mutates the
// underlying file and is safe for concurrent readers.
type Archive struct {
	closer   io.Closer
	entries  map[string]*zip.File
	manifest *manifest.Manifest
	levels   map[string]*manifest.Level
	warnings []Warning
}

// Open opens and structurally validates a .stella package on disk.
func Open(p string) (*Archive, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening package: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening package: %w", err)
	}

	a, err := OpenReader(f, st.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// OpenReader opens a package from an in-memory or seekable source.
//
// Structural validation runs before the archive is returned: the
// manifest must be present and parse, every level it references must
// resolve and parse, and each level's render and collision entries
// must exist. Checksum verification is non-fatal; mismatches are
// reported via Warnings.
func OpenReader(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}

	a := &Archive{
		entries: make(map[string]*zip.File, len(zr.File)),
		levels:  make(map[string]*manifest.Level),
	}
	for _, f := range zr.File {
		a.entries[f.Name] = f
	}

	if err := a.loadManifest(); err != nil {
		return nil, err
	}
	if err := a.loadLevels(); err != nil {
		return nil, err
	}
	a.verifyChecksums()

	return a, nil
}

// Close releases the underlying file, if any.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *Archive) loadManifest() error {
	data, err := a.Read(ManifestPath)
	if err != nil {
		return err
	}

	m, err := manifest.Parse(data)
	if err != nil {
		return &ParseError{Path: ManifestPath, Err: err}
	}
	if problems := m.Validate(); len(problems) > 0 {
		return &ParseError{Path: ManifestPath, Err: fmt.Errorf("schema: %s", strings.Join(problems, "; "))}
	}

	a.manifest = m
	return nil
}

func (a *Archive) loadLevels() error {
	for _, ref := range a.manifest.Levels {
		data, err := a.Read(ref.Path)
		if err != nil {
			return err
		}

		lvl, err := manifest.ParseLevel(data)
		if err != nil {
			return &ParseError{Path: ref.Path, Err: err}
		}
		if problems := lvl.Validate(); len(problems) > 0 {
			return &ParseError{Path: ref.Path, Err: fmt.Errorf("schema: %s", strings.Join(problems, "; "))}
		}

		// Asset URIs are relative to the descriptor's directory.
		dir := path.Dir(ref.Path)
		required := []string{
			path.Join(dir, lvl.Render.URI),
			path.Join(dir, lvl.Collision.URI),
		}
		if lvl.Navigation.Type != "none" && lvl.Navigation.URI != "" {
			required = append(required, path.Join(dir, lvl.Navigation.URI))
		}
		for _, p := range required {
			if !a.Contains(p) {
				return &MissingEntryError{Path: p}
			}
		}

		a.levels[ref.ID] = lvl
	}
	return nil
}

// verifyChecksums checks checksums.sha256 if present. Any mismatch or
// malformed line becomes a Warning rather than an error, so a
// bit-rotted but structurally sound package still opens.
func (a *Archive) verifyChecksums() {
	data, err := a.Read(ChecksumPath)
	if err != nil {
		return // no checksum manifest, nothing to verify
	}

	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		want, entry, ok := strings.Cut(line, "  ")
		if !ok {
			a.warnings = append(a.warnings, Warning{Path: ChecksumPath, Reason: fmt.Sprintf("malformed line %q", line)})
			continue
		}
		if entry == ChecksumPath {
			continue
		}
		if !a.Contains(entry) {
			a.warnings = append(a.warnings, Warning{Path: entry, Reason: "listed in checksum manifest but absent"})
			continue
		}

		content, err := a.Read(entry)
		if err != nil {
			a.warnings = append(a.warnings, Warning{Path: entry, Reason: fmt.Sprintf("unreadable: %v", err)})
			continue
		}
		sum := sha256.Sum256(content)
		if got := hex.EncodeToString(sum[:]); got != want {
			a.warnings = append(a.warnings, Warning{Path: entry, Reason: "checksum mismatch"})
		}
	}
}

// Manifest returns the validated world manifest.
func (a *Archive) Manifest() *manifest.Manifest {
	return a.manifest
}

// Level returns the parsed descriptor for a level id.
func (a *Archive) Level(id string) (*manifest.Level, error) {
	lvl, ok := a.levels[id]
	if !ok {
		return nil, fmt.Errorf("level not found: %s", id)
	}
	return lvl, nil
}

// LevelAsset reads a level asset addressed relative to the level's
// descriptor directory, e.g. its render or collision blob.
func (a *Archive) LevelAsset(id, uri string) ([]byte, error) {
	ref := a.manifest.LevelByID(id)
	if ref == nil {
		return nil, fmt.Errorf("level not found: %s", id)
	}
	return a.Read(path.Join(path.Dir(ref.Path), uri))
}

// Warnings returns non-fatal findings collected while opening.
func (a *Archive) Warnings() []Warning {
	return a.warnings
}

// List returns all entry paths in the archive.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for p := range a.entries {
		result = append(result, p)
	}
	return result
}

// Contains checks if an entry exists.
func (a *Archive) Contains(p string) bool {
	_, ok := a.entries[p]
	return ok
}

// Read reads one entry's bytes.
func (a *Archive) Read(p string) ([]byte, error) {
	entry, ok := a.entries[p]
	if !ok {
		return nil, &MissingEntryError{Path: p}
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return buf.Bytes(), nil
}

// EntryInfo describes one archive entry.
type EntryInfo struct {
	Path             string
	CompressedSize   uint64
	UncompressedSize uint64
}

// Info summarizes the archive contents for display.
type Info struct {
	Manifest          *manifest.Manifest
	Entries           []EntryInfo
	TotalUncompressed uint64
}

// Info returns a content summary.
func (a *Archive) Info() Info {
	info := Info{Manifest: a.manifest}
	for _, f := range a.entries {
		info.Entries = append(info.Entries, EntryInfo{
			Path:             f.Name,
			CompressedSize:   f.CompressedSize64,
			UncompressedSize: f.UncompressedSize64,
		})
		info.TotalUncompressed += f.UncompressedSize64
	}
	return info
}
