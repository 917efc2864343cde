package adapter

import (
	"errors"
	"fmt"

	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/em99/emu"
	"github.com/user-none/em99/snapshot"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// ErrNotState is returned when content handed to CreateEmulator is not an
// em99 save state.
var ErrNotState = errors.New("content is not an em99 save state")

// Factory implements emucore.CoreFactory for the video subsystem. Content
// is a save state: the variant and VRAM come from it and the host CPU is
// whatever the embedding program attaches.
type Factory struct {
	// Variant is used for empty content. Zero means TMS9918A.
	Variant emu.Variant
}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            emu.Name,
		ConsoleName:     "TI-99/4A Video",
		Extensions:      []string{".e99", ".state"},
		ScreenWidth:     emu.ScreenWidth,
		MaxScreenHeight: emu.FrameHeight,
		AspectRatio:     4.0 / 3.0,
		SampleRate:      48000,
		Buttons: []emucore.Button{
			{Name: "Fire", ID: 4, DefaultKey: "J", DefaultPad: "A"},
		},
		Players: 2,
		CoreOptions: []emucore.CoreOption{
			{
				Key:         "unlimited_sprites",
				Label:       "Unlimited Sprites",
				Description: "Draw every sprite on a line instead of the hardware limit",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
			},
		},
		DataDirName:   emu.Name,
		CoreName:      emu.Name,
		CoreVersion:   emu.Version,
		SerializeSize: emu.MaxSerializeSize(),
	}
}

// CreateEmulator builds a console for the variant recorded in content and
// restores it. Content is a raw or compressed save state; empty content
// starts a powered-on chip of f.Variant.
func (f *Factory) CreateEmulator(content []byte, region emucore.Region) (emucore.Emulator, error) {
	cfg := emu.DefaultConfig()
	cfg.Region = region
	cfg.Variant = f.Variant

	if len(content) == 0 {
		return emu.NewConsole(cfg), nil
	}

	state, err := snapshot.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotState, err)
	}
	cfg.Variant, _ = emu.StateVariant(state)

	c := emu.NewConsole(cfg)
	if err := c.Deserialize(state); err != nil {
		return nil, err
	}
	return c, nil
}

// DetectRegion reads the region from the save state header. The bool
// return is false since no database lookup is involved.
func (f *Factory) DetectRegion(content []byte) (emucore.Region, bool) {
	state, err := snapshot.Decode(content)
	if err != nil {
		return emu.DefaultRegion(), false
	}
	region, _ := emu.DetectRegion(state)
	return region, false
}
