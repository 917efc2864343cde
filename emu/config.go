package emu

// Config selects the chip and the tunables of the frame driver.
type Config struct {
	Variant Variant
	Region  Region

	// UnlimitedSprites raises the per-line sprite cap to 32. The overflow
	// flag still reports the sprite a real chip would have dropped.
	UnlimitedSprites bool

	// CommandBudget is the command engine budget granted per scanline.
	CommandBudget int
}

// DefaultConfig returns a TMS9918A on NTSC timing.
func DefaultConfig() Config {
	return Config{
		Variant:       VariantTMS9918A,
		Region:        RegionNTSC,
		CommandBudget: DefaultCommandBudget,
	}
}
