// stella is a CLI utility for working with .stella world archives.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ZRosserMcIntosh/mast3r-slam-stella/internal/collision"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/internal/config"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/internal/geometry"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/internal/logger"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/internal/player"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/manifest"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/math"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/rlevox"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/stella"
)

func main() {
	// Global flags come before the verb; per-verb flag sets handle the
	// rest.
	config.ParseFlags()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "info":
		cmdInfo(args)
	case "list", "ls":
		cmdList(args)
	case "extract", "x":
		cmdExtract(args)
	case "verify":
		cmdVerify(args)
	case "pack":
		cmdPack(args)
	case "build-flat":
		cmdBuildFlat(args)
	case "init-config":
		cmdInitConfig(args)
	case "walk":
		cmdWalk(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`stella - portable world archive utility

Usage:
  stella [global options] <command> [options]

Global options:
  -config <path>     Config file to load
  -debug             Enable debug logging
  -voxel-size <m>    Override the build voxel size
  -output <dir>      Output directory for packed worlds
  -no-checksums      Skip checksum entries when packing

Commands:
  info <world.stella>                 Show world information
  list <world.stella> [pattern]       List archive entries
  extract <world.stella> <path> [dir] Extract entry to directory
  verify <world.stella>               Validate archive structure
  pack <dir> <out.stella>             Pack an unpacked world directory
  build-flat <out.stella> [WxDxH]     Build a flat demo world
  walk <world.stella> [level] [secs]  Simulate a walk through a level
  init-config [path]                  Write a default config file

Examples:
  stella info museum.stella
  stella list museum.stella "*.rlevox"
  stella extract museum.stella levels/0/collision.rlevox ./out
  stella build-flat demo.stella 8x6x3
  stella -voxel-size 0.2 build-flat demo.stella
  stella walk demo.stella 0 2.5`)
}

func openArchive(path string) *stella.Archive {
	archive, err := stella.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return archive
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: stella info <world.stella>")
		os.Exit(1)
	}

	archive := openArchive(args[0])
	defer archive.Close()

	m := archive.Manifest()
	fmt.Printf("Archive:   %s\n", args[0])
	if m.World != nil {
		fmt.Printf("World:     %s (%s)\n", m.World.Title, m.World.ID)
		if len(m.World.Tags) > 0 {
			fmt.Printf("Tags:      %s\n", strings.Join(m.World.Tags, ", "))
		}
	}
	fmt.Printf("Format:    %s v%d\n", m.Format, m.Version)
	fmt.Printf("Created:   %s\n", m.CreatedUTC)
	fmt.Printf("Levels:    %d\n", len(m.Levels))

	for _, ref := range m.Levels {
		lvl, err := archive.Level(ref.ID)
		if err != nil {
			continue
		}
		fmt.Printf("\nLevel %s: %s\n", ref.ID, lvl.Name)
		fmt.Printf("  render:    %s\n", lvl.Render.URI)
		fmt.Printf("  collision: %s\n", lvl.Collision.URI)
		if lvl.Navigation.Type != "none" {
			fmt.Printf("  nav:       %s\n", lvl.Navigation.URI)
		}

		data, err := archive.LevelAsset(ref.ID, lvl.Collision.URI)
		if err != nil {
			continue
		}
		grid, err := rlevox.Decode(data)
		if err != nil {
			fmt.Printf("  collision grid: unreadable (%v)\n", err)
			continue
		}
		st := grid.Stats()
		fmt.Printf("  collision grid: %dx%dx%d @ %.2fm, %.1f%% solid\n",
			grid.SizeX, grid.SizeY, grid.SizeZ, grid.VoxelSize, st.FillRatio*100)
	}

	for _, w := range archive.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", w.Path, w.Reason)
	}
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N entries (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: stella list <world.stella> [pattern]")
		os.Exit(1)
	}

	archive := openArchive(fs.Arg(0))
	defer archive.Close()

	entries := archive.List()
	sort.Strings(entries)

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, e := range entries {
		if pattern != "" {
			matched, _ := filepath.Match(pattern, strings.ToLower(filepath.Base(e)))
			if !matched && !strings.Contains(strings.ToLower(e), pattern) {
				continue
			}
		}
		fmt.Println(e)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d entries matched)\n", count)
	}
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: stella extract <world.stella> <path> [output_dir]")
		os.Exit(1)
	}

	entryPath := fs.Arg(1)
	outputDir := "."
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	archive := openArchive(fs.Arg(0))
	defer archive.Close()

	if !archive.Contains(entryPath) {
		fmt.Fprintf(os.Stderr, "Entry not found: %s\n", entryPath)
		os.Exit(1)
	}

	data, err := archive.Read(entryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading entry: %v\n", err)
		os.Exit(1)
	}

	outputPath := filepath.Join(outputDir, filepath.Base(entryPath))
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
}

func cmdVerify(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: stella verify <world.stella>")
		os.Exit(1)
	}

	archive, err := stella.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	for _, w := range archive.Warnings() {
		fmt.Printf("warning: %s: %s\n", w.Path, w.Reason)
	}

	m := archive.Manifest()
	title := "(untitled)"
	if m.World != nil {
		title = m.World.Title
	}
	fmt.Printf("OK: %s (%d levels, %d warnings)\n", title, len(m.Levels), len(archive.Warnings()))
}

func cmdPack(args []string) {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	noChecksums := fs.Bool("no-checksums", false, "Skip the checksum manifest")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: stella pack <dir> <out.stella>")
		os.Exit(1)
	}
	dir := fs.Arg(0)

	manifestData, err := os.ReadFile(filepath.Join(dir, stella.ManifestPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m, err := manifest.Parse(manifestData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	levels := make(map[string]*manifest.Level)
	descriptorPaths := make(map[string]bool)
	for _, ref := range m.Levels {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(ref.Path)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		lvl, err := manifest.ParseLevel(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", ref.Path, err)
			os.Exit(1)
		}
		levels[ref.ID] = lvl
		descriptorPaths[ref.Path] = true
	}

	// Everything else in the tree travels as-is.
	assets := make(map[string][]byte)
	err = filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == stella.ManifestPath || rel == stella.ChecksumPath || descriptorPaths[rel] {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		assets[rel] = data
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = stella.PackFile(fs.Arg(1), m, levels, assets, stella.PackOptions{Checksums: !*noChecksums})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Packed: %s (%d levels, %d assets)\n", fs.Arg(1), len(levels), len(assets))
}

func cmdBuildFlat(args []string) {
	fs := flag.NewFlagSet("build-flat", flag.ExitOnError)
	title := fs.String("title", "Flat Demo", "World title")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: stella build-flat <out.stella> [WxDxH]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	width, depth, height := float32(8), float32(6), cfg.Build.WallHeight
	if fs.NArg() > 1 {
		if _, err := fmt.Sscanf(fs.Arg(1), "%fx%fx%f", &width, &depth, &height); err != nil {
			fmt.Fprintf(os.Stderr, "Bad dimensions %q, want WxDxH (meters)\n", fs.Arg(1))
			os.Exit(1)
		}
	}

	grid, err := geometry.BoxRoom(width, depth, height, cfg.Build.VoxelSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	capsule := collision.Capsule{Height: cfg.Capsule.Height, Radius: cfg.Capsule.Radius}
	spawn, ok := geometry.FindSpawn(grid, capsule)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: room too small for the player capsule")
		os.Exit(1)
	}

	m := manifest.New(manifest.Options{Title: *title})
	lvl := manifest.NewLevel(manifest.LevelOptions{
		Name:          *title,
		SpawnPosition: [3]float32{spawn.X, spawn.Y, spawn.Z},
		PlayerHeight:  cfg.Capsule.Height,
		PlayerRadius:  cfg.Capsule.Radius,
	})
	lvl.Collision.Player.StepHeightM = cfg.Capsule.StepHeight

	voxData, err := rlevox.Encode(grid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	outPath := fs.Arg(0)
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(cfg.Packaging.OutputDir, outPath)
	}

	assets := map[string][]byte{
		"levels/0/render.glb":       placeholderRender(),
		"levels/0/collision.rlevox": voxData,
	}
	err = stella.PackFile(outPath, m, map[string]*manifest.Level{"0": lvl}, assets,
		stella.PackOptions{Checksums: cfg.Packaging.Checksums})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("packed world",
		zap.String("path", outPath),
		zap.Float32("voxel_size", cfg.Build.VoxelSize),
		zap.Uint32("size_x", grid.SizeX),
		zap.Uint32("size_y", grid.SizeY),
		zap.Uint32("size_z", grid.SizeZ))
	fmt.Printf("Packed: %s (%.0fx%.0fx%.0f m room, spawn at %.2f, %.2f, %.2f)\n",
		outPath, width, depth, height, spawn.X, spawn.Y, spawn.Z)
}

// placeholderRender returns a minimal glTF binary so flat demo worlds
// carry a structurally present render asset. Viewers replace it with
// real reconstruction output.
func placeholderRender() []byte {
	// 12-byte GLB header with an empty payload: magic, version 2, length.
	return []byte{0x67, 0x6C, 0x54, 0x46, 0x02, 0x00, 0x00, 0x00, 0x0C, 0x00, 0x00, 0x00}
}

func cmdInitConfig(args []string) {
	cfg := config.Default()

	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote: %s\n", args[0])
		return
	}

	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote: %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
}

func cmdWalk(args []string) {
	fs := flag.NewFlagSet("walk", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: stella walk <world.stella> [level] [seconds]")
		os.Exit(1)
	}

	levelID := "0"
	if fs.NArg() > 1 {
		levelID = fs.Arg(1)
	}
	seconds := float32(2.0)
	if fs.NArg() > 2 {
		if _, err := fmt.Sscanf(fs.Arg(2), "%f", &seconds); err != nil || seconds <= 0 {
			fmt.Fprintf(os.Stderr, "Bad duration %q\n", fs.Arg(2))
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	archive := openArchive(fs.Arg(0))
	defer archive.Close()

	lvl, err := archive.Level(levelID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := archive.LevelAsset(levelID, lvl.Collision.URI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	grid, err := rlevox.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	capsule := collision.Capsule{Height: lvl.Collision.Player.HeightM, Radius: lvl.Collision.Player.RadiusM}
	engine := collision.New(grid, capsule)
	engine.RingSamples = cfg.Build.RingSamples

	tuning := player.Tuning{
		WalkSpeed:       cfg.Player.WalkSpeed,
		Gravity:         cfg.Player.Gravity,
		JumpSpeed:       cfg.Player.JumpSpeed,
		LookSensitivity: cfg.Player.LookSensitivity,
		MaxStep:         cfg.Player.MaxStep,
	}
	spawn := math.Vec3{X: lvl.Spawn.Position[0], Y: lvl.Spawn.Position[1], Z: lvl.Spawn.Position[2]}
	ctrl := player.New(engine, tuning, spawn, lvl.Spawn.YawDegrees)

	// Walk forward at a fixed simulated frame rate until the clock or a
	// wall stops us.
	const dt = 1.0 / 60.0
	steps := int(seconds / dt)
	for i := 0; i < steps; i++ {
		ctrl.Step(dt, player.Input{Move: math.Vec2{Y: 1}})
	}

	pose := ctrl.Pose()
	fmt.Printf("Walked %.1fs from spawn %.2f, %.2f, %.2f\n", seconds,
		spawn.X, spawn.Y, spawn.Z)
	fmt.Printf("Final position: %.2f, %.2f, %.2f (%.2fm traveled, grounded: %v)\n",
		pose.Position.X, pose.Position.Y, pose.Position.Z,
		pose.Position.Distance(spawn), ctrl.Grounded())
}
