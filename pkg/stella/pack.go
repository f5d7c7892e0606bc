package stella

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/manifest"
)

// PackOptions control package writing.
type PackOptions struct {
	// Checksums controls whether a checksums.sha256 entry is written.
	Checksums bool
}

// Pack writes a .stella package. levels maps level id to descriptor;
// every manifest reference must have a matching level, and every
// level's render and collision URIs must have bytes in assets (keyed
// by full archive path). Entry order is deterministic: manifest.json
// first, checksums.sha256 last, the rest sorted by path.
func Pack(w io.Writer, m *manifest.Manifest, levels map[string]*manifest.Level, assets map[string][]byte, opts PackOptions) error {
	if problems := m.Validate(); len(problems) > 0 {
		return fmt.Errorf("invalid manifest: %s", strings.Join(problems, "; "))
	}

	manifestBytes, err := m.JSON()
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	// The manifest, checksum manifest, and level descriptors are
	// generated here; asset bytes may not take their places.
	reserved := map[string]bool{ManifestPath: true, ChecksumPath: true}
	for _, ref := range m.Levels {
		reserved[ref.Path] = true
	}

	files := map[string][]byte{ManifestPath: manifestBytes}
	for p, data := range assets {
		if reserved[p] {
			return fmt.Errorf("asset path %q is reserved", p)
		}
		files[p] = data
	}

	for _, ref := range m.Levels {
		lvl, ok := levels[ref.ID]
		if !ok {
			return fmt.Errorf("manifest references level %q but no descriptor was given", ref.ID)
		}
		if problems := lvl.Validate(); len(problems) > 0 {
			return fmt.Errorf("invalid level %q: %s", ref.ID, strings.Join(problems, "; "))
		}

		descriptor, err := lvl.JSON()
		if err != nil {
			return fmt.Errorf("encoding level %q: %w", ref.ID, err)
		}
		files[ref.Path] = descriptor

		dir := path.Dir(ref.Path)
		for _, uri := range []string{lvl.Render.URI, lvl.Collision.URI} {
			p := path.Join(dir, uri)
			if _, ok := files[p]; !ok {
				return &MissingEntryError{Path: p}
			}
		}
	}

	if opts.Checksums {
		files[ChecksumPath] = checksumManifest(files)
	}

	zw := zip.NewWriter(w)
	for _, p := range entryOrder(files) {
		ew, err := zw.Create(p)
		if err != nil {
			return fmt.Errorf("creating entry %s: %w", p, err)
		}
		if _, err := ew.Write(files[p]); err != nil {
			return fmt.Errorf("writing entry %s: %w", p, err)
		}
	}
	return zw.Close()
}

// PackFile writes a .stella package to disk.
func PackFile(p string, m *manifest.Manifest, levels map[string]*manifest.Level, assets map[string][]byte, opts PackOptions) error {
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("creating package: %w", err)
	}

	if err := Pack(f, m, levels, assets, opts); err != nil {
		f.Close()
		os.Remove(p)
		return err
	}
	return f.Close()
}

// checksumManifest renders "sha256  path" lines, sorted by path.
func checksumManifest(files map[string][]byte) []byte {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, p := range paths {
		sum := sha256.Sum256(files[p])
		fmt.Fprintf(&b, "%s  %s\n", hex.EncodeToString(sum[:]), p)
	}
	return []byte(b.String())
}

func entryOrder(files map[string][]byte) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		if p == ManifestPath || p == ChecksumPath {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	ordered := make([]string, 0, len(files))
	ordered = append(ordered, ManifestPath)
	ordered = append(ordered, paths...)
	if _, ok := files[ChecksumPath]; ok {
		ordered = append(ordered, ChecksumPath)
	}
	return ordered
}
