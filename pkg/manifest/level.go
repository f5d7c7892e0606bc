package manifest

import (
	"encoding/json"
	"fmt"
)

// Capsule holds the player collision capsule dimensions in meters.
type Capsule struct {
	HeightM     float32 `json:"height_m"`
	RadiusM     float32 `json:"radius_m"`
	StepHeightM float32 `json:"step_height_m"`
}

// Spawn is the player start pose.
type Spawn struct {
	// Position of the feet in meters.
	Position [3]float32 `json:"position"`

	YawDegrees float32 `json:"yaw_degrees"`
}

// Scale relates level units to meters.
type Scale struct {
	MetersPerUnit float32 `json:"meters_per_unit"`
}

// RenderAsset references the level's render mesh.
type RenderAsset struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// CollisionAsset references the level's collision grid.
type CollisionAsset struct {
	Type   string  `json:"type"`
	URI    string  `json:"uri"`
	Player Capsule `json:"player"`
}

// NavigationAsset optionally references a navigation mesh.
type NavigationAsset struct {
	Type string `json:"type"`
	URI  string `json:"uri,omitempty"`
}

// Capture records where the source scan came from.
type Capture struct {
	Source    string `json:"source"`
	SourceFPS int    `json:"source_fps,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Level is one explorable scene's descriptor (levels/<id>/level.json).
type Level struct {
	LevelVersion int             `json:"level_version"`
	Name         string          `json:"name"`
	Scale        Scale           `json:"scale"`
	Spawn        Spawn           `json:"spawn"`
	Render       RenderAsset     `json:"render"`
	Collision    CollisionAsset  `json:"collision"`
	Navigation   NavigationAsset `json:"navigation"`
	Capture      *Capture        `json:"capture,omitempty"`
}

// LevelOptions enumerates every knob NewLevel accepts.
type LevelOptions struct {
	// Name of the level. Default "Level 0".
	Name string

	// SpawnPosition of the feet in meters. Default {0, 0, 0}.
	SpawnPosition [3]float32

	// SpawnYawDegrees is the initial facing. Default 0.
	SpawnYawDegrees float32

	// PlayerHeight and PlayerRadius size the collision capsule in
	// meters. Defaults 1.7 and 0.3.
	PlayerHeight float32
	PlayerRadius float32

	// RenderURI and CollisionURI are archive paths relative to the
	// level directory. Defaults "render.glb" and "collision.rlevox".
	RenderURI    string
	CollisionURI string

	// Capture metadata. Optional.
	Capture *Capture
}

// NewLevel creates a level descriptor.
func NewLevel(opts LevelOptions) *Level {
	name := opts.Name
	if name == "" {
		name = "Level 0"
	}
	height := opts.PlayerHeight
	if height == 0 {
		height = 1.7
	}
	radius := opts.PlayerRadius
	if radius == 0 {
		radius = 0.3
	}
	renderURI := opts.RenderURI
	if renderURI == "" {
		renderURI = "render.glb"
	}
	collisionURI := opts.CollisionURI
	if collisionURI == "" {
		collisionURI = "collision.rlevox"
	}

	return &Level{
		LevelVersion: FormatVersion,
		Name:         name,
		Scale:        Scale{MetersPerUnit: 1.0},
		Spawn: Spawn{
			Position:   opts.SpawnPosition,
			YawDegrees: opts.SpawnYawDegrees,
		},
		Render: RenderAsset{Type: "glb", URI: renderURI},
		Collision: CollisionAsset{
			Type: "rlevox",
			URI:  collisionURI,
			Player: Capsule{
				HeightM:     height,
				RadiusM:     radius,
				StepHeightM: 0.35,
			},
		},
		Navigation: NavigationAsset{Type: "none"},
		Capture:    opts.Capture,
	}
}

// ParseLevel decodes level descriptor JSON.
func ParseLevel(data []byte) (*Level, error) {
	var l Level
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parsing level descriptor: %w", err)
	}
	return &l, nil
}

// JSON serializes the level with stable two-space indentation.
func (l *Level) JSON() ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Validate checks the level against the schema and returns every
// violation found.
func (l *Level) Validate() []string {
	var problems []string

	if l.LevelVersion != FormatVersion {
		problems = append(problems, fmt.Sprintf("unsupported level_version %d, expected %d", l.LevelVersion, FormatVersion))
	}
	if l.Name == "" {
		problems = append(problems, "missing level name")
	}
	if l.Scale.MetersPerUnit <= 0 {
		problems = append(problems, fmt.Sprintf("scale must be positive, got %f", l.Scale.MetersPerUnit))
	}
	if l.Render.URI == "" {
		problems = append(problems, "missing render uri")
	}
	if l.Collision.URI == "" {
		problems = append(problems, "missing collision uri")
	}
	if l.Collision.Player.HeightM <= 0 {
		problems = append(problems, fmt.Sprintf("capsule height must be positive, got %f", l.Collision.Player.HeightM))
	}
	if l.Collision.Player.RadiusM <= 0 {
		problems = append(problems, fmt.Sprintf("capsule radius must be positive, got %f", l.Collision.Player.RadiusM))
	}
	if l.Navigation.Type != "none" && l.Navigation.URI == "" {
		problems = append(problems, fmt.Sprintf("navigation type %q requires a uri", l.Navigation.Type))
	}

	return problems
}
