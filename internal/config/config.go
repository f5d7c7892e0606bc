// Package config handles tool configuration loading and management.
package config

import "fmt"

// Config holds all tool settings.
type Config struct {
	Player    PlayerConfig    `yaml:"player"`
	Capsule   CapsuleConfig   `yaml:"capsule"`
	Build     BuildConfig     `yaml:"build"`
	Packaging PackagingConfig `yaml:"packaging"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PlayerConfig holds movement tuning for the walkthrough simulation.
type PlayerConfig struct {
	WalkSpeed       float32 `yaml:"walk_speed"`       // meters per second
	Gravity         float32 `yaml:"gravity"`          // meters per second squared
	JumpSpeed       float32 `yaml:"jump_speed"`       // vertical impulse in m/s
	LookSensitivity float32 `yaml:"look_sensitivity"` // radians per input unit
	MaxStep         float32 `yaml:"max_step"`         // longest simulated frame in seconds
}

// CapsuleConfig holds the default player capsule dimensions in meters.
type CapsuleConfig struct {
	Height     float32 `yaml:"height_m"`
	Radius     float32 `yaml:"radius_m"`
	StepHeight float32 `yaml:"step_height_m"`
}

// BuildConfig holds voxelization settings used when building grids.
type BuildConfig struct {
	VoxelSize   float32 `yaml:"voxel_size"`   // edge length in meters
	WallHeight  float32 `yaml:"wall_height"`  // extruded wall height in meters
	RingSamples int     `yaml:"ring_samples"` // capsule perimeter samples
}

// PackagingConfig holds world archive output settings.
type PackagingConfig struct {
	Checksums bool   `yaml:"checksums"`
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Validate checks for values the tools cannot run with.
func (c *Config) Validate() error {
	if c.Player.WalkSpeed <= 0 {
		return fmt.Errorf("player.walk_speed must be positive, got %v", c.Player.WalkSpeed)
	}
	if c.Player.Gravity <= 0 {
		return fmt.Errorf("player.gravity must be positive, got %v", c.Player.Gravity)
	}
	if c.Player.MaxStep <= 0 {
		return fmt.Errorf("player.max_step must be positive, got %v", c.Player.MaxStep)
	}
	if c.Capsule.Height <= 0 || c.Capsule.Radius <= 0 {
		return fmt.Errorf("capsule dimensions must be positive, got height %v radius %v",
			c.Capsule.Height, c.Capsule.Radius)
	}
	if c.Build.VoxelSize <= 0 {
		return fmt.Errorf("build.voxel_size must be positive, got %v", c.Build.VoxelSize)
	}
	if c.Build.RingSamples < 4 {
		return fmt.Errorf("build.ring_samples must be at least 4, got %d", c.Build.RingSamples)
	}
	return nil
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Player: PlayerConfig{
			WalkSpeed:       4.0,
			Gravity:         9.81,
			JumpSpeed:       4.5,
			LookSensitivity: 0.0025,
			MaxStep:         0.1,
		},
		Capsule: CapsuleConfig{
			Height:     1.7,
			Radius:     0.3,
			StepHeight: 0.35,
		},
		Build: BuildConfig{
			VoxelSize:   0.1,
			WallHeight:  2.6,
			RingSamples: 8,
		},
		Packaging: PackagingConfig{
			Checksums: true,
			OutputDir: ".",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
