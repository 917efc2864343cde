package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/afero"
	emubridge "github.com/user-none/em99/bridge/ebiten"
	"github.com/user-none/em99/cli"
	"github.com/user-none/em99/emu"
	"github.com/user-none/em99/logger"
	"github.com/user-none/em99/snapshot"
)

func main() {
	statePath := flag.String("state", "", "save state to open (starts a blank chip if empty)")
	chipFlag := flag.String("chip", "tms9918a", "chip for a blank start: tms9918a, f18a or v9938")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	unlimited := flag.Bool("unlimited-sprites", false, "draw every sprite on a line")
	snapDir := flag.String("snapshots", "", "snapshot directory (default: next to the state)")
	echo := flag.Bool("log", false, "echo diagnostics to stderr")
	flag.Parse()

	if *echo {
		logger.SetEcho(os.Stderr)
	}

	cfg := emu.DefaultConfig()
	cfg.UnlimitedSprites = *unlimited

	variant, ok := emu.ParseVariant(*chipFlag)
	if !ok {
		log.Fatalf("Invalid chip: %s (use tms9918a, f18a or v9938)", *chipFlag)
	}
	cfg.Variant = variant

	var state []byte
	if *statePath != "" {
		data, err := os.ReadFile(*statePath)
		if err != nil {
			log.Fatalf("Failed to load state: %v", err)
		}
		if state, err = snapshot.Decode(data); err != nil {
			log.Fatalf("Failed to load state: %v", err)
		}
	}

	switch strings.ToLower(*regionFlag) {
	case "auto":
		cfg.Region, _ = emu.DetectRegion(state)
	case "ntsc":
		cfg.Region = emu.RegionNTSC
	case "pal":
		cfg.Region = emu.RegionPAL
	default:
		log.Fatalf("Invalid region: %s (use auto, ntsc, or pal)", *regionFlag)
	}

	e, err := emubridge.NewEmulator(cfg, state)
	if err != nil {
		log.Fatalf("Failed to initialize emulator: %v", err)
	}
	defer e.Close()

	dir := *snapDir
	if dir == "" {
		dir = "em99-snapshots"
		if *statePath != "" {
			dir = filepath.Join(filepath.Dir(*statePath), dir)
		}
	}
	store, err := snapshot.NewStore(afero.NewOsFs(), dir, 4)
	if err != nil {
		log.Printf("Warning: snapshots disabled: %v", err)
		store = nil
	}

	ebiten.SetWindowSize(emu.ScreenWidth*5/4, emu.FrameHeight*5/2)
	ebiten.SetWindowTitle(emu.Name + " - " + e.Chip().Variant().String())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(320, 240, -1, -1)
	ebiten.SetTPS(e.GetTiming().FPS)

	runner := cli.NewRunner(e, store)
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}
