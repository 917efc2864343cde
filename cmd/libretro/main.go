package main

import (
	libretro "github.com/user-none/eblitui/libretro"
	"github.com/user-none/em99/adapter"
	"github.com/user-none/em99/emu"
)

func init() {
	libretro.RegisterFactory(&adapter.Factory{Variant: emu.VariantV9938}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadB, BitID: 4}, // Fire
		{RetroID: libretro.JoypadA, BitID: 4}, // Fire
	})
}

func main() {}
