package stella

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/manifest"
)

func testWorld(t *testing.T) (*manifest.Manifest, map[string]*manifest.Level, map[string][]byte) {
	t.Helper()
	m := manifest.New(manifest.Options{Title: "Test World", WorldID: "test-world"})
	lvl := manifest.NewLevel(manifest.LevelOptions{Name: "Test Level"})
	assets := map[string][]byte{
		"levels/0/render.glb":       []byte("fake glb data"),
		"levels/0/collision.rlevox": []byte("fake collision data"),
	}
	return m, map[string]*manifest.Level{"0": lvl}, assets
}

func packWorld(t *testing.T, opts PackOptions) []byte {
	t.Helper()
	m, levels, assets := testWorld(t)
	var buf bytes.Buffer
	require.NoError(t, Pack(&buf, m, levels, assets, opts))
	return buf.Bytes()
}

func openBytes(t *testing.T, data []byte) (*Archive, error) {
	t.Helper()
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

// buildZip writes a raw archive for failure-path tests.
func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for p, data := range entries {
		w, err := zw.Create(p)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestPackOpenRoundTrip(t *testing.T) {
	data := packWorld(t, PackOptions{Checksums: true})

	a, err := openBytes(t, data)
	require.NoError(t, err)
	defer a.Close()

	m := a.Manifest()
	require.NotNil(t, m)
	assert.Equal(t, "stella.world", m.Format)
	assert.Equal(t, "Test World", m.World.Title)

	lvl, err := a.Level("0")
	require.NoError(t, err)
	assert.Equal(t, "Test Level", lvl.Name)

	blob, err := a.LevelAsset("0", lvl.Render.URI)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake glb data"), blob)

	assert.Empty(t, a.Warnings())
	assert.True(t, a.Contains(ChecksumPath))
}

func TestPackEntryOrder(t *testing.T) {
	data := packWorld(t, PackOptions{Checksums: true})

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.NotEmpty(t, zr.File)

	assert.Equal(t, ManifestPath, zr.File[0].Name)
	assert.Equal(t, ChecksumPath, zr.File[len(zr.File)-1].Name)
}

func TestPackDeterministic(t *testing.T) {
	m, levels, assets := testWorld(t)

	var first, second bytes.Buffer
	require.NoError(t, Pack(&first, m, levels, assets, PackOptions{Checksums: true}))
	require.NoError(t, Pack(&second, m, levels, assets, PackOptions{Checksums: true}))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestPackMissingAsset(t *testing.T) {
	m, levels, assets := testWorld(t)
	delete(assets, "levels/0/collision.rlevox")

	var buf bytes.Buffer
	err := Pack(&buf, m, levels, assets, PackOptions{})

	var missing *MissingEntryError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "levels/0/collision.rlevox", missing.Path)
}

func TestPackRejectsReservedAssetPaths(t *testing.T) {
	for _, p := range []string{ManifestPath, ChecksumPath, "levels/0/level.json"} {
		t.Run(p, func(t *testing.T) {
			m, levels, assets := testWorld(t)
			assets[p] = []byte("imposter")

			var buf bytes.Buffer
			err := Pack(&buf, m, levels, assets, PackOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "reserved")
		})
	}
}

func TestPackMissingLevelDescriptor(t *testing.T) {
	m, _, assets := testWorld(t)

	var buf bytes.Buffer
	err := Pack(&buf, m, nil, assets, PackOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no descriptor")
}

func TestOpenNotAnArchive(t *testing.T) {
	_, err := openBytes(t, []byte("definitely not a zip file"))
	assert.ErrorIs(t, err, ErrNotArchive)
}

func TestOpenMissingManifest(t *testing.T) {
	data := buildZip(t, map[string][]byte{"levels/0/level.json": []byte("{}")})

	_, err := openBytes(t, data)
	var missing *MissingEntryError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ManifestPath, missing.Path)
}

func TestOpenMalformedManifest(t *testing.T) {
	data := buildZip(t, map[string][]byte{ManifestPath: []byte("{broken")})

	_, err := openBytes(t, data)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, ManifestPath, parseErr.Path)
}

func TestOpenMissingLevelAsset(t *testing.T) {
	// Manifest and descriptor parse, but the level's collision blob is
	// absent; the open must fail even though the manifest is fine.
	m := manifest.New(manifest.Options{WorldID: "w"})
	manifestJSON, err := m.JSON()
	require.NoError(t, err)
	levelJSON, err := manifest.NewLevel(manifest.LevelOptions{}).JSON()
	require.NoError(t, err)

	data := buildZip(t, map[string][]byte{
		ManifestPath:          manifestJSON,
		"levels/0/level.json": levelJSON,
		"levels/0/render.glb": []byte("glb"),
	})

	_, err = openBytes(t, data)
	var missing *MissingEntryError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "levels/0/collision.rlevox", missing.Path)
}

func TestOpenMalformedLevel(t *testing.T) {
	m := manifest.New(manifest.Options{WorldID: "w"})
	manifestJSON, err := m.JSON()
	require.NoError(t, err)

	data := buildZip(t, map[string][]byte{
		ManifestPath:          manifestJSON,
		"levels/0/level.json": []byte("not json"),
	})

	_, err = openBytes(t, data)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "levels/0/level.json", parseErr.Path)
}

func TestChecksumMismatchIsWarning(t *testing.T) {
	m := manifest.New(manifest.Options{WorldID: "w"})
	manifestJSON, err := m.JSON()
	require.NoError(t, err)
	levelJSON, err := manifest.NewLevel(manifest.LevelOptions{}).JSON()
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("some other bytes"))
	checksums := fmt.Sprintf("%s  levels/0/render.glb\n", hex.EncodeToString(sum[:]))

	data := buildZip(t, map[string][]byte{
		ManifestPath:                manifestJSON,
		"levels/0/level.json":       levelJSON,
		"levels/0/render.glb":       []byte("glb"),
		"levels/0/collision.rlevox": []byte("vox"),
		ChecksumPath:                []byte(checksums),
	})

	a, err := openBytes(t, data)
	require.NoError(t, err, "checksum mismatch must not prevent opening")
	defer a.Close()

	require.Len(t, a.Warnings(), 1)
	assert.Equal(t, "levels/0/render.glb", a.Warnings()[0].Path)
	assert.Contains(t, a.Warnings()[0].Reason, "mismatch")
	assert.NotNil(t, a.Manifest())
}

func TestChecksumListsAbsentFile(t *testing.T) {
	m := manifest.New(manifest.Options{WorldID: "w"})
	manifestJSON, err := m.JSON()
	require.NoError(t, err)
	levelJSON, err := manifest.NewLevel(manifest.LevelOptions{}).JSON()
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("x"))
	checksums := fmt.Sprintf("%s  levels/0/ghost.bin\nbad line\n", hex.EncodeToString(sum[:]))

	data := buildZip(t, map[string][]byte{
		ManifestPath:                manifestJSON,
		"levels/0/level.json":       levelJSON,
		"levels/0/render.glb":       []byte("glb"),
		"levels/0/collision.rlevox": []byte("vox"),
		ChecksumPath:                []byte(checksums),
	})

	a, err := openBytes(t, data)
	require.NoError(t, err)
	defer a.Close()

	assert.Len(t, a.Warnings(), 2)
}

func TestOpenVerifiesPackedChecksums(t *testing.T) {
	// Intact package with checksums opens warning-free.
	a, err := openBytes(t, packWorld(t, PackOptions{Checksums: true}))
	require.NoError(t, err)
	defer a.Close()
	assert.Empty(t, a.Warnings())
}

func TestInfo(t *testing.T) {
	a, err := openBytes(t, packWorld(t, PackOptions{Checksums: true}))
	require.NoError(t, err)
	defer a.Close()

	info := a.Info()
	require.NotNil(t, info.Manifest)
	assert.Len(t, info.Entries, 5)
	assert.Greater(t, info.TotalUncompressed, uint64(0))
}

func TestReadMissingEntry(t *testing.T) {
	a, err := openBytes(t, packWorld(t, PackOptions{}))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Read("levels/0/ghost.bin")
	var missing *MissingEntryError
	assert.True(t, errors.As(err, &missing))
}
