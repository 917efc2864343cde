package emu

// Mode is the display mode derived from the mode bits.
type Mode uint8

const (
	ModeGraphics1 Mode = iota
	ModeGraphics2
	ModeMulticolor
	ModeText1
	ModeText2
	ModeGraphics3
	ModeGraphics4
	ModeGraphics5
	ModeGraphics6
	ModeGraphics7
	ModeIllegal
	modeCount
)

var modeNames = [modeCount]string{
	"Graphics 1",
	"Graphics 2",
	"Multicolor",
	"Text 1",
	"Text 2",
	"Graphics 3",
	"Graphics 4",
	"Graphics 5",
	"Graphics 6",
	"Graphics 7",
	"Illegal",
}

func (m Mode) String() string {
	if m < modeCount {
		return modeNames[m]
	}
	return "Unknown"
}

// wide modes emit 512 active pixels per line.
func (m Mode) wide() bool {
	return m == ModeText2 || m == ModeGraphics5 || m == ModeGraphics6
}

// bitmap modes address VRAM linearly and accept blitter commands.
func (m Mode) bitmap() bool {
	return m >= ModeGraphics4 && m <= ModeGraphics7
}

// spriteMode returns 0 when the mode shows no sprites, otherwise the
// sprite mode (1 or 2).
func (m Mode) spriteMode() int {
	switch m {
	case ModeGraphics1, ModeGraphics2, ModeMulticolor:
		return 1
	case ModeGraphics3, ModeGraphics4, ModeGraphics5, ModeGraphics6, ModeGraphics7:
		return 2
	}
	return 0
}

// Mode bit positions shared by all variants.
const (
	r0M3 = 0x02
	r0M4 = 0x04
	r0M5 = 0x08
	r1M1 = 0x10
	r1M2 = 0x08

	r1Display = 0x40
	r1IE0     = 0x20
	r1Size16  = 0x02
	r1Magnify = 0x01
)

// Status register 0 bits.
const (
	statusF         = 0x80
	status5S        = 0x40
	statusC         = 0x20
	statusSpriteNum = 0x1F
)

// tmsMode decodes M1-M3. Any combination with both M1 and M2 set is the
// undocumented illegal mode.
func tmsMode(r0, r1 uint8) Mode {
	m1 := r1&r1M1 != 0
	m2 := r1&r1M2 != 0
	m3 := r0&r0M3 != 0
	switch {
	case m1 && m2:
		return ModeIllegal
	case m1:
		return ModeText1
	case m2:
		return ModeMulticolor
	case m3:
		return ModeGraphics2
	}
	return ModeGraphics1
}

// v9938Modes maps M5 M4 M3 M2 M1 onto a mode. Unlisted combinations are
// illegal.
var v9938Modes = map[uint8]Mode{
	0x00: ModeGraphics1,
	0x01: ModeText1,
	0x02: ModeMulticolor,
	0x04: ModeGraphics2,
	0x08: ModeGraphics3,
	0x09: ModeText2,
	0x0C: ModeGraphics4,
	0x10: ModeGraphics5,
	0x14: ModeGraphics6,
	0x1C: ModeGraphics7,
}

// v9938Mode decodes M1-M5.
func v9938Mode(r0, r1 uint8) Mode {
	var bits uint8
	if r1&r1M1 != 0 {
		bits |= 0x01
	}
	if r1&r1M2 != 0 {
		bits |= 0x02
	}
	if r0&r0M3 != 0 {
		bits |= 0x04
	}
	if r0&r0M4 != 0 {
		bits |= 0x08
	}
	if r0&r0M5 != 0 {
		bits |= 0x10
	}
	if m, ok := v9938Modes[bits]; ok {
		return m
	}
	return ModeIllegal
}

// tmsTables derives the table bases and masks of the 16 KiB modes.
//
//	name      (R2 & 0x0F) << 10
//	color     R3 << 6                (Graphics 2: (R3 & 0x80) << 6)
//	colorMask                        (Graphics 2: ((R3 & 0x7F) << 6) | 0x3F)
//	pattern   (R4 & 0x07) << 11      (Graphics 2: (R4 & 0x04) << 11)
//	patMask                          (Graphics 2: ((R4 & 0x03) << 11) | (colorMask & 0x7FF))
//	SAT       (R5 & 0x7F) << 7
//	sprites   (R6 & 0x07) << 11
func (c *core) tmsTables() {
	r := c.regs
	c.nameTable = uint32(r[2]&0x0F) << 10
	c.spriteAttr = uint32(r[5]&0x7F) << 7
	c.spritePattern = uint32(r[6]&0x07) << 11
	if c.mode == ModeGraphics2 {
		c.colorTable = uint32(r[3]&0x80) << 6
		c.colorMask = uint32(r[3]&0x7F)<<6 | 0x3F
		c.patternTable = uint32(r[4]&0x04) << 11
		c.patternMask = uint32(r[4]&0x03)<<11 | c.colorMask&0x7FF
		return
	}
	c.colorTable = uint32(r[3]) << 6
	c.colorMask = 0x3FFF
	c.patternTable = uint32(r[4]&0x07) << 11
	c.patternMask = 0x3FFF
}

// commonFlags latches display and frame interrupt enables.
func (c *core) commonFlags() {
	c.displayOn = c.regs[1]&r1Display != 0
	c.frameIntEnabled = c.regs[1]&r1IE0 != 0
}

// updateIRQ recomputes the interrupt output from the pending flags and
// their enables. Enabling an interrupt while its flag is pending raises
// the output immediately.
func (c *core) updateIRQ() {
	c.irq = (c.status&statusF != 0 && c.frameIntEnabled) || (c.lineFlag && c.lineIntEnabled)
}
