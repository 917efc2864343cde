package emu

import (
	"fmt"
	"strings"

	"github.com/user-none/em99/logger"
)

const (
	f18aRegCount = 64
	f18aVRAMSize = 0x4000
	f18aVersion  = 0x19

	f18aUnlockReg   = 57
	f18aUnlockValue = 0x1C
)

// F18A register bits.
const (
	vr0IE1       = 0x10
	vr0T80       = 0x04
	vr47DPM      = 0x80
	vr47AutoInc  = 0x40
	vr49Row30    = 0x40
	vr50Reset    = 0x80
	vr15SRSelect = 0x0F
)

// F18A is the enhanced TMS9918A replacement. Its extended registers are
// hidden until VR57 receives the unlock value twice in a row.
type F18A struct {
	core

	unlocked   bool
	unlockSeen bool

	palRegs [64]uint16

	// Data port palette mode (VR47).
	dpmHigh  bool
	dpmLatch uint8
	dpmIndex uint8
}

// NewF18A creates an F18A in its power-on state.
func NewF18A(cfg Config) *F18A {
	v := &F18A{core: newCore(VariantF18A, f18aVRAMSize, f18aRegCount, cfg)}
	v.palette = make([]rgb, 64)
	v.Reset()
	return v
}

func (v *F18A) Variant() Variant {
	return VariantF18A
}

// Reset restores registers and palette and locks the chip.
func (v *F18A) Reset() {
	v.resetCore()
	for bank := 0; bank < 4; bank++ {
		copy(v.palRegs[bank*16:], f18aDefaultPalette[:])
	}
	v.rebuildPalette()
	v.resetRegisters()
}

// resetRegisters is also triggered by VR50 bit 7. It re-locks the chip.
func (v *F18A) resetRegisters() {
	for i := range v.regs {
		v.regs[i] = 0
	}
	v.regs[30] = 4
	v.regs[48] = 1
	v.unlocked = false
	v.unlockSeen = false
	v.dpmHigh = false
	v.updateGeometry()
}

func (v *F18A) rebuildPalette() {
	for i, p := range v.palRegs {
		v.palette[i] = rgb444(p)
	}
}

// Unlocked reports whether the extended registers are reachable.
func (v *F18A) Unlocked() bool {
	return v.unlocked
}

func (v *F18A) WriteAddress(val uint8) {
	if reg, data, ok := v.latchAddress(val); ok {
		v.writeRegister(reg&0x3F, data)
	}
}

// writeRegister applies the lock: while locked only VR0-VR7 and VR57 are
// reachable and higher registers fold onto reg & 7.
func (v *F18A) writeRegister(reg, data uint8) {
	if reg == f18aUnlockReg {
		if data == f18aUnlockValue {
			if v.unlockSeen {
				v.unlocked = true
			}
			v.unlockSeen = true
		} else {
			v.unlocked = false
			v.unlockSeen = false
		}
		v.regs[reg] = data
		return
	}
	v.unlockSeen = false

	if !v.unlocked && reg > 7 {
		logger.Logf("f18a", "locked write to VR%d redirected to VR%d", reg, reg&0x07)
		reg &= 0x07
	}
	if reg == 50 && data&vr50Reset != 0 {
		v.resetRegisters()
		return
	}

	v.regs[reg] = data
	if reg == 47 {
		v.dpmIndex = data & 0x3F
		v.dpmHigh = false
	}
	v.updateGeometry()
}

// WriteData stores a VRAM byte, or a palette byte while VR47 selects data
// port palette mode. Palette entries take two bytes, 0000RRRR then
// GGGGBBBB. Without auto-increment the mode ends after one entry.
func (v *F18A) WriteData(val uint8) {
	if v.regs[47]&vr47DPM == 0 {
		v.writeVRAMPort(val)
		return
	}
	if !v.dpmHigh {
		v.dpmLatch = val
		v.dpmHigh = true
		return
	}
	v.dpmHigh = false
	idx := v.dpmIndex & 0x3F
	v.palRegs[idx] = uint16(v.dpmLatch&0x0F)<<8 | uint16(val)
	v.palette[idx] = rgb444(v.palRegs[idx])
	if v.regs[47]&vr47AutoInc != 0 {
		v.dpmIndex = (idx + 1) & 0x3F
	} else {
		v.regs[47] &^= vr47DPM
	}
}

func (v *F18A) ReadData() uint8 {
	return v.readVRAMPort()
}

// ReadStatus returns the status register selected by VR15.
func (v *F18A) ReadStatus() uint8 {
	v.latchSecond = false
	switch v.regs[15] & vr15SRSelect {
	case 0:
		return v.readStatus0()
	case 1:
		s := uint8(0xE0)
		if v.lineFlag {
			s |= 0x01
		}
		v.lineFlag = false
		v.updateIRQ()
		return s
	case 2:
		return 0
	case 3:
		return uint8(v.currentLine)
	case 14:
		return f18aVersion
	}
	return 0
}

func (v *F18A) RenderScanline(line int) RenderStatus {
	return v.renderLine(line)
}

func (v *F18A) updateGeometry() {
	r := v.regs
	v.mode = tmsMode(r[0], r[1])
	if v.mode == ModeText1 && r[0]&vr0T80 != 0 {
		v.mode = ModeText2
	}
	v.addrMask = f18aVRAMSize - 1
	v.tableMask = f18aVRAMSize - 1
	v.tmsTables()
	v.commonFlags()
	if r[49]&vr49Row30 != 0 {
		v.centerActive(240)
	} else {
		v.centerActive(192)
	}
	v.transparent0 = true

	limit := int(r[30] & 0x1F)
	if limit == 0 {
		limit = maxSprites
	}
	v.spriteLimit = limit

	v.tilePalette = (r[24] & 0x03) << 4
	v.spritePalette = (r[24] >> 4 & 0x03) << 4
	v.increment = int32(int8(r[48]))

	v.lineIntEnabled = r[0]&vr0IE1 != 0
	if r[19] != 0 {
		v.lineIntLine = int(r[19]) - 1
	} else {
		v.lineIntLine = -1
	}
	v.updateIRQ()
}

// DumpRegisters formats the registers, lock state and palette.
func (v *F18A) DumpRegisters() string {
	var b strings.Builder
	v.dumpCommon(&b)
	fmt.Fprintf(&b, "unlocked: %t increment: %d sprite limit: %d\n", v.unlocked, v.increment, v.spriteLimit)
	for i := 8; i < f18aRegCount; i++ {
		fmt.Fprintf(&b, "VR%-2d=%02X", i, v.regs[i])
		if i%8 == 7 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	b.WriteString("palette:")
	for i, p := range v.palRegs {
		if i%16 == 0 {
			b.WriteString("\n ")
		}
		fmt.Fprintf(&b, " %03X", p)
	}
	b.WriteString("\n")
	return b.String()
}
