package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagVoxelSize   = flag.Float64("voxel-size", 0, "Voxel edge length in meters")
	flagOutput      = flag.String("output", "", "Output directory for packed worlds")
	flagNoChecksums = flag.Bool("no-checksums", false, "Skip checksum entries when packing")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagVoxelSize > 0 {
		cfg.Build.VoxelSize = float32(*flagVoxelSize)
	}
	if *flagOutput != "" {
		cfg.Packaging.OutputDir = *flagOutput
	}
	if *flagNoChecksums {
		cfg.Packaging.Checksums = false
	}
}
