package emu

import (
	"fmt"
	"image"
)

// Output geometry. Every scanline is emitted with a border on both sides;
// narrow modes are 256 pixels wide, wide modes (80 column text, Graphics 5
// and 6) are 512 pixels wide with a doubled border.
const (
	ActiveWidth     = 256
	WideActiveWidth = 512
	BorderWidth     = 16
	LineWidth       = ActiveWidth + 2*BorderWidth // 288
	WideLineWidth   = 2 * LineWidth               // 576
	ScreenWidth     = WideLineWidth
	FrameHeight     = 240
)

// Variant selects which chip a Chip value emulates.
type Variant uint8

const (
	VariantTMS9918A Variant = iota
	VariantF18A
	VariantV9938
)

func (v Variant) String() string {
	switch v {
	case VariantTMS9918A:
		return "TMS9918A"
	case VariantF18A:
		return "F18A"
	case VariantV9938:
		return "V9938"
	}
	return fmt.Sprintf("Variant(%d)", uint8(v))
}

// ParseVariant maps a user supplied name to a Variant.
func ParseVariant(name string) (Variant, bool) {
	switch name {
	case "tms9918a", "TMS9918A", "9918a", "tms":
		return VariantTMS9918A, true
	case "f18a", "F18A":
		return VariantF18A, true
	case "v9938", "V9938", "9938":
		return VariantV9938, true
	}
	return VariantTMS9918A, false
}

// RenderStatus reports what a RenderScanline call produced.
type RenderStatus struct {
	// Width is the number of color indices written for the line, 0 when the
	// line is outside the visible frame.
	Width int
	// FrameComplete is set on the last line of the active display.
	FrameComplete bool
	// Interrupt is the level of the interrupt output after the line.
	Interrupt bool
}

// Chip is the contract shared by every VDP variant. The CPU side talks to
// the port methods; the frame driver calls RenderScanline once per line.
type Chip interface {
	WriteAddress(val uint8)
	WriteData(val uint8)
	ReadStatus() uint8
	ReadData() uint8

	RenderScanline(line int) RenderStatus
	Interrupt() bool
	Reset()
	Variant() Variant

	// Debug access by absolute VRAM address.
	ReadVRAM(addr int) uint8
	WriteVRAM(addr int, val uint8)
	VRAMSize() int
	Register(reg int) uint8
	DumpRegisters() string
	Mode() Mode
	ActiveHeight() int

	// LinePixels returns the color indices of the last rendered line.
	LinePixels() []uint8
	Framebuffer() *image.RGBA
	GetFramebuffer() []byte
	GetStride() int
	SetUnlimitedSprites(enabled bool)

	SerializeSize() int
	Serialize(buf []byte) error
	Deserialize(buf []byte) error
}

// ExtendedPorts is implemented by chips with the palette and register
// indirect ports.
type ExtendedPorts interface {
	WritePalette(val uint8)
	WriteRegisterIndirect(val uint8)
}

// CommandEngine is implemented by chips carrying the blitter.
type CommandEngine interface {
	UpdateCommand(budget int)
	CommandBusy() bool
}

// NewChip builds the chip selected by variant.
func NewChip(variant Variant, cfg Config) Chip {
	switch variant {
	case VariantF18A:
		return NewF18A(cfg)
	case VariantV9938:
		return NewV9938(cfg)
	default:
		return NewTMS9918A(cfg)
	}
}

// rgb is one palette entry expanded to 8 bits per channel.
type rgb struct {
	r, g, b uint8
}

// core carries the state every variant shares. Variant types embed it and
// own the register side effects.
type core struct {
	variant Variant
	vram    []uint8
	regs    []uint8

	// Address latch
	latchSecond bool
	latchLow    uint8
	addr        uint32
	readAhead   uint8
	increment   int32
	addrMask    uint32
	wideCursor  bool // V9938: R14 supplies A16-A14 and takes the carry

	// CPU side VRAM layout
	interleaved  bool
	cpuExpansion bool

	// Status register 0 and interrupt output
	status           uint8
	irq              bool
	collisionLatched bool
	collisionX       int
	collisionY       int
	lineFlag         bool

	// Derived geometry, recomputed on every register write
	mode             Mode
	displayOn        bool
	frameIntEnabled  bool
	lineIntEnabled   bool
	lineIntLine      int
	nameTable        uint32
	nameMask         uint32
	colorTable       uint32
	colorMask        uint32
	patternTable     uint32
	patternMask      uint32
	spriteAttr       uint32
	spriteColors     uint32
	spritePattern    uint32
	tableMask        uint32
	activeHeight     int
	topBorder        int
	transparent0     bool
	tilePalette      uint8
	spritePalette    uint8
	spriteLimit      int
	unlimitedSprites bool
	spritesDisabled  bool
	vScroll          uint8
	blinkEnabled     bool

	// Frame progress
	currentLine int
	frame       uint32
	blinkOn     bool
	blinkCount  int

	palette []rgb

	lineBuf    [ScreenWidth]uint8
	lineWidth  int
	lineDirect bool
	sprUsed    [ActiveWidth]bool
	sprDrawn   [ActiveWidth]bool
	sprColor   [ActiveWidth]uint8
	sprNoCol   [ActiveWidth]bool

	framebuffer *image.RGBA
}

func newCore(variant Variant, vramSize, regCount int, cfg Config) core {
	c := core{
		variant:          variant,
		vram:             make([]uint8, vramSize),
		regs:             make([]uint8, regCount),
		increment:        1,
		unlimitedSprites: cfg.UnlimitedSprites,
		framebuffer:      image.NewRGBA(image.Rect(0, 0, ScreenWidth, FrameHeight)),
	}
	return c
}

// resetCore clears everything except VRAM, which real chips leave
// undefined and software always initializes.
func (c *core) resetCore() {
	for i := range c.regs {
		c.regs[i] = 0
	}
	c.latchSecond = false
	c.latchLow = 0
	c.addr = 0
	c.readAhead = 0
	c.increment = 1
	c.status = 0
	c.irq = false
	c.collisionLatched = false
	c.collisionX = 0
	c.collisionY = 0
	c.lineFlag = false
	c.currentLine = 0
	c.frame = 0
	c.blinkOn = false
	c.blinkCount = 0
}

// peek reads a display table byte through the current VRAM layout.
func (c *core) peek(addr uint32) uint8 {
	addr &= c.tableMask
	if c.interleaved {
		addr = interleave(addr)
	}
	return c.vram[addr]
}

// Interrupt reports the interrupt output line.
func (c *core) Interrupt() bool {
	return c.irq
}

// Mode returns the current display mode.
func (c *core) Mode() Mode {
	return c.mode
}

// ActiveHeight returns the number of active display lines.
func (c *core) ActiveHeight() int {
	return c.activeHeight
}

// ReadVRAM reads VRAM by absolute address, bypassing the port latch.
func (c *core) ReadVRAM(addr int) uint8 {
	return c.vram[uint(addr)%uint(len(c.vram))]
}

// WriteVRAM writes VRAM by absolute address, bypassing the port latch.
func (c *core) WriteVRAM(addr int, val uint8) {
	c.vram[uint(addr)%uint(len(c.vram))] = val
}

// VRAMSize returns the size of VRAM in bytes.
func (c *core) VRAMSize() int {
	return len(c.vram)
}

// Register returns the raw value of a control register.
func (c *core) Register(reg int) uint8 {
	if reg < 0 || reg >= len(c.regs) {
		return 0
	}
	return c.regs[reg]
}

// SetUnlimitedSprites lifts the per-line sprite cap. The nominal overflow
// flag is still reported.
func (c *core) SetUnlimitedSprites(enabled bool) {
	c.unlimitedSprites = enabled
}

// LinePixels returns the color indices of the last rendered line.
func (c *core) LinePixels() []uint8 {
	return c.lineBuf[:c.lineWidth]
}

// GetFramebuffer returns raw RGBA pixel data for the current frame.
func (c *core) GetFramebuffer() []byte {
	return c.framebuffer.Pix
}

// GetStride returns the stride (bytes per row) of the framebuffer.
func (c *core) GetStride() int {
	return c.framebuffer.Stride
}

// Framebuffer returns the framebuffer image.
func (c *core) Framebuffer() *image.RGBA {
	return c.framebuffer
}

// centerActive places the active display in the middle of the frame.
func (c *core) centerActive(height int) {
	c.activeHeight = height
	c.topBorder = (FrameHeight - height) / 2
}
