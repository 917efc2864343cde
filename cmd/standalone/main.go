//go:build !libretro

package main

import (
	"flag"
	"log"
	"strconv"

	"github.com/user-none/eblitui/standalone"
	"github.com/user-none/em99/adapter"
	"github.com/user-none/em99/emu"
)

func main() {
	statePath := flag.String("state", "", "path to a save state (opens UI if not provided)")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	chipFlag := flag.String("chip", "tms9918a", "chip used when the UI starts without a state")
	unlimited := flag.Bool("unlimited-sprites", false, "draw every sprite on a line")
	flag.Parse()

	variant, ok := emu.ParseVariant(*chipFlag)
	if !ok {
		log.Fatalf("Invalid chip: %s (use tms9918a, f18a or v9938)", *chipFlag)
	}
	factory := &adapter.Factory{Variant: variant}

	if *statePath != "" {
		options := map[string]string{
			"unlimited_sprites": strconv.FormatBool(*unlimited),
		}
		if err := standalone.RunDirect(factory, *statePath, *regionFlag, options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
