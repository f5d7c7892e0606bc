// Package manifest defines the world manifest and level descriptors
// carried inside .stella packages, independent of the container itself.
package manifest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FormatID identifies the manifest schema.
const FormatID = "stella.world"

// FormatVersion is the supported manifest version.
const FormatVersion = 1

// Axis describes the coordinate convention of all assets in a package.
type Axis struct {
	Up         string `json:"up"`
	Forward    string `json:"forward"`
	Handedness string `json:"handedness"`
}

// DefaultAxis is the convention every builder in this repo emits:
// Y-up, -Z forward, right-handed.
func DefaultAxis() Axis {
	return Axis{Up: "Y", Forward: "-Z", Handedness: "right"}
}

// Generator records the tool that built the package.
type Generator struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
}

// World holds world-level metadata.
type World struct {
	ID    string   `json:"id,omitempty"`
	Title string   `json:"title"`
	Tags  []string `json:"tags,omitempty"`
}

// LevelRef points at a level descriptor inside the package.
type LevelRef struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

// Manifest is the top-level descriptor of a .stella package.
type Manifest struct {
	Format     string            `json:"format"`
	Version    int               `json:"version"`
	CreatedUTC string            `json:"created_utc"`
	Units      string            `json:"units"`
	Axis       Axis              `json:"axis"`
	Levels     []LevelRef        `json:"levels"`
	Generator  *Generator        `json:"generator,omitempty"`
	World      *World            `json:"world,omitempty"`
	Assets     map[string]string `json:"assets,omitempty"`
}

// Options enumerates every knob New accepts. Fields left zero get the
// documented default; there are no other implicit defaults, so a
// serialized manifest stays self-describing.
type Options struct {
	// Title of the world. Default "Untitled World".
	Title string

	// Tags for categorization. Optional.
	Tags []string

	// Levels referenced by the manifest. Default: a single level with
	// id "0" at "levels/0/level.json".
	Levels []LevelRef

	// Thumbnail is an optional archive path of a cover image,
	// recorded under assets["thumbnail"].
	Thumbnail string

	// WorldID overrides the generated world id. Default: random UUID.
	WorldID string
}

// New creates a manifest. Units are fixed to meters and the axis
// convention to Y-up / -Z-forward / right-handed.
func New(opts Options) *Manifest {
	title := opts.Title
	if title == "" {
		title = "Untitled World"
	}
	levels := opts.Levels
	if len(levels) == 0 {
		levels = []LevelRef{{ID: "0", Path: "levels/0/level.json", Name: "Level 0"}}
	}
	id := opts.WorldID
	if id == "" {
		id = uuid.NewString()
	}

	m := &Manifest{
		Format:     FormatID,
		Version:    FormatVersion,
		CreatedUTC: time.Now().UTC().Format(time.RFC3339),
		Units:      "meters",
		Axis:       DefaultAxis(),
		Levels:     levels,
		Generator:  &Generator{Name: "stella", Version: "0.1.0"},
		World:      &World{ID: id, Title: title, Tags: opts.Tags},
	}
	if opts.Thumbnail != "" {
		m.Assets = map[string]string{"thumbnail": opts.Thumbnail}
	}
	return m
}

// Parse decodes manifest JSON. Schema violations are not checked here;
// call Validate for that.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// JSON serializes the manifest with stable two-space indentation.
func (m *Manifest) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// Validate checks the manifest against the schema and returns every
// violation found, not just the first.
func (m *Manifest) Validate() []string {
	var problems []string

	if m.Format != FormatID {
		problems = append(problems, fmt.Sprintf("invalid format %q, expected %q", m.Format, FormatID))
	}
	if m.Version != FormatVersion {
		problems = append(problems, fmt.Sprintf("unsupported version %d, expected %d", m.Version, FormatVersion))
	}
	if m.CreatedUTC == "" {
		problems = append(problems, "missing created_utc timestamp")
	}
	if m.Units != "meters" {
		problems = append(problems, fmt.Sprintf("invalid units %q, expected \"meters\"", m.Units))
	}

	if m.Axis.Up != "Y" && m.Axis.Up != "Z" {
		problems = append(problems, fmt.Sprintf("invalid up axis %q", m.Axis.Up))
	}
	if m.Axis.Handedness != "left" && m.Axis.Handedness != "right" {
		problems = append(problems, fmt.Sprintf("invalid handedness %q", m.Axis.Handedness))
	}

	if len(m.Levels) == 0 {
		problems = append(problems, "manifest must reference at least one level")
	}
	for i, lvl := range m.Levels {
		if lvl.ID == "" {
			problems = append(problems, fmt.Sprintf("level %d missing id", i))
		}
		if lvl.Path == "" {
			problems = append(problems, fmt.Sprintf("level %d (%s) missing path", i, lvl.ID))
		}
	}

	return problems
}

// LevelByID returns the level reference with the given id, or nil.
func (m *Manifest) LevelByID(id string) *LevelRef {
	for i := range m.Levels {
		if m.Levels[i].ID == id {
			return &m.Levels[i]
		}
	}
	return nil
}
