package emu

import (
	"fmt"
	"strings"
)

const (
	v9938RegCount = 48
	v9938VRAMSize = 0x30000 // 128 KiB main + 64 KiB expansion
)

// V9938 is the high-color chip: 128 KiB VRAM plus expansion RAM, bitmap
// modes, a programmable palette and the command engine.
type V9938 struct {
	core

	palRegs   [16]uint16
	palLatch  uint8
	palSecond bool
	hrToggle  bool

	cmd commandUnit
}

// NewV9938 creates a V9938 in its power-on state.
func NewV9938(cfg Config) *V9938 {
	v := &V9938{core: newCore(VariantV9938, v9938VRAMSize, v9938RegCount, cfg)}
	v.palette = make([]rgb, 16)
	v.Reset()
	return v
}

func (v *V9938) Variant() Variant {
	return VariantV9938
}

// Reset restores registers, palette and the command engine.
func (v *V9938) Reset() {
	v.resetCore()
	v.palRegs = v9938DefaultPalette
	for i, p := range v.palRegs {
		v.palette[i] = rgb333(p)
	}
	v.palLatch = 0
	v.palSecond = false
	v.hrToggle = false
	v.cmd = commandUnit{}
	v.updateGeometry()
}

// WriteAddress handles the address/register port. Register writes use six
// register bits.
func (v *V9938) WriteAddress(val uint8) {
	if reg, data, ok := v.latchAddress(val); ok {
		v.writeRegister(reg&0x3F, data)
	}
}

func (v *V9938) WriteData(val uint8) {
	v.writeVRAMPort(val)
}

func (v *V9938) ReadData() uint8 {
	return v.readVRAMPort()
}

// WritePalette takes two bytes per entry, 0RRR0BBB then 00000GGG, into the
// entry selected by R16, which then advances modulo 16.
func (v *V9938) WritePalette(val uint8) {
	if !v.palSecond {
		v.palLatch = val
		v.palSecond = true
		return
	}
	v.palSecond = false
	idx := v.regs[16] & 0x0F
	v.palRegs[idx] = uint16(v.palLatch&0x70)<<4 | uint16(val&0x07)<<4 | uint16(v.palLatch&0x07)
	v.palette[idx] = rgb333(v.palRegs[idx])
	v.regs[16] = (idx + 1) & 0x0F
}

// WriteRegisterIndirect writes the register selected by R17. R17 itself
// is never a target. R17 advances unless its AII bit is set.
func (v *V9938) WriteRegisterIndirect(val uint8) {
	reg := v.regs[17] & 0x3F
	if reg != 17 {
		v.writeRegister(reg, val)
	}
	if v.regs[17]&0x80 == 0 {
		v.regs[17] = (reg + 1) & 0x3F
	}
}

// writeRegister stores a register and rederives the geometry. R44 feeds
// host transfers, R46 starts commands, R16 restarts the palette pair, and
// a display mode change aborts a running command.
func (v *V9938) writeRegister(reg, data uint8) {
	if int(reg) >= v9938RegCount-1 {
		return
	}
	prev := v.mode
	v.regs[reg] = data

	switch reg {
	case 16:
		v.palSecond = false
	case 44:
		v.cmd.cl = data
		v.transferIn(data)
	case 46:
		v.startCommand(data)
	}

	v.updateGeometry()
	if v.mode != prev {
		v.abortCommand(fmt.Sprintf("mode changed to %s", v.mode))
	}
}

// ReadStatus returns the register selected by R15. Reading S0 clears the
// frame flags and the interrupt, S1 clears the line flag, S5 releases the
// collision coordinates and S7 drives LMCM.
func (v *V9938) ReadStatus() uint8 {
	v.latchSecond = false
	switch v.regs[15] & 0x0F {
	case 0:
		return v.readStatus0()
	case 1:
		var s uint8
		if v.lineFlag {
			s |= 0x01
		}
		v.lineFlag = false
		v.updateIRQ()
		return s
	case 2:
		return v.status2()
	case 3:
		return uint8(v.collisionX + 12)
	case 4:
		return uint8((v.collisionX+12)>>8)&0x01 | 0xFE
	case 5:
		s := uint8(v.collisionY + 8)
		v.collisionX, v.collisionY = 0, 0
		return s
	case 6:
		return uint8((v.collisionY+8)>>8)&0x03 | 0xFC
	case 7:
		return v.transferOut()
	case 8:
		return uint8(v.cmd.foundX)
	case 9:
		return uint8(v.cmd.foundX>>8)&0x01 | 0xFE
	}
	return 0xFF
}

// status2: TR, VR, HR, BD, two fixed ones, and CE.
func (v *V9938) status2() uint8 {
	s := uint8(0x0C)
	if v.cmd.state == cmdWaitHost {
		s |= 0x80
	}
	y := v.currentLine - v.topBorder
	if y < 0 || y >= v.activeHeight {
		s |= 0x40
	}
	v.hrToggle = !v.hrToggle
	if v.hrToggle {
		s |= 0x20
	}
	if v.cmd.border {
		s |= 0x10
	}
	if v.cmd.busy() {
		s |= 0x01
	}
	return s
}

func (v *V9938) RenderScanline(line int) RenderStatus {
	return v.renderLine(line)
}

// updateGeometry derives the mode, table bases and masks. Addresses are 17
// bits: R10 supplies color table A16-A14 and R11 the attribute table
// A16-A15.
func (v *V9938) updateGeometry() {
	r := v.regs
	v.mode = v9938Mode(r[0], r[1])
	v.addrMask = 0x1FFFF
	v.tableMask = 0x1FFFF
	v.wideCursor = true
	v.interleaved = v.mode == ModeGraphics6 || v.mode == ModeGraphics7
	v.cpuExpansion = r[45]&argMXC != 0

	v.nameMask = 0x1FFFF
	switch v.mode {
	case ModeGraphics4, ModeGraphics5:
		v.nameTable = uint32(r[2]&0x60) << 10
		v.nameMask = uint32(r[2]&0x1F)<<10 | 0x3FF
	case ModeGraphics6, ModeGraphics7:
		v.nameTable = uint32(r[2]&0x20) << 11
		v.nameMask = uint32(r[2]&0x1F)<<11 | 0x7FF
	case ModeText2:
		v.nameTable = uint32(r[2]&0x7C) << 10
	default:
		v.nameTable = uint32(r[2]&0x7F) << 10
	}

	colorHigh := uint32(r[10]&0x07) << 14
	switch v.mode {
	case ModeGraphics2, ModeGraphics3:
		v.colorTable = colorHigh | uint32(r[3]&0x80)<<6
		v.colorMask = uint32(r[3]&0x7F)<<6 | 0x3F
		v.patternTable = uint32(r[4]&0x3C) << 11
		v.patternMask = uint32(r[4]&0x03)<<11 | v.colorMask&0x7FF
	case ModeText2:
		v.colorTable = colorHigh | uint32(r[3]&0xF8)<<6
		v.colorMask = 0x1FFFF
		v.patternTable = uint32(r[4]&0x3F) << 11
		v.patternMask = 0x1FFFF
	default:
		v.colorTable = colorHigh | uint32(r[3])<<6
		v.colorMask = 0x1FFFF
		v.patternTable = uint32(r[4]&0x3F) << 11
		v.patternMask = 0x1FFFF
	}

	satHigh := uint32(r[11]&0x03) << 15
	if v.mode.spriteMode() == 2 {
		v.spriteAttr = satHigh | uint32(r[5]&0xFC)<<7
		v.spriteColors = v.spriteAttr - 512
		v.spriteLimit = 8
	} else {
		v.spriteAttr = satHigh | uint32(r[5])<<7
		v.spriteColors = 0
		v.spriteLimit = 4
	}
	v.spritePattern = uint32(r[6]&0x3F) << 11

	v.commonFlags()
	if r[9]&0x80 != 0 {
		v.centerActive(212)
	} else {
		v.centerActive(192)
	}
	v.transparent0 = r[8]&0x20 == 0
	v.spritesDisabled = r[8]&0x02 != 0
	v.vScroll = r[23]
	v.blinkEnabled = v.mode == ModeText2
	v.lineIntLine = int(r[19])
	v.lineIntEnabled = r[0]&0x10 != 0
	v.updateIRQ()
}

// DumpRegisters formats the registers, derived geometry and command state.
func (v *V9938) DumpRegisters() string {
	var b strings.Builder
	v.dumpCommon(&b)
	for i := 8; i < v9938RegCount-1; i++ {
		fmt.Fprintf(&b, "R%-2d=%02X", i, v.regs[i])
		if i%8 == 7 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "palette:")
	for i, p := range v.palRegs {
		if i%8 == 0 {
			b.WriteString("\n ")
		}
		fmt.Fprintf(&b, " %03X", p)
	}
	b.WriteString("\n")
	state, op := v.CommandState()
	u := &v.cmd
	fmt.Fprintf(&b, "command: %s %s LO=%X SX=%d SY=%d DX=%d DY=%d NX=%d NY=%d CL=%02X budget=%d\n",
		op, state, u.lo, u.sx, u.sy, u.dx, u.dy, u.nx, u.ny, u.cl, u.budget)
	return b.String()
}
