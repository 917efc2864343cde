package emu

import (
	"fmt"
	"strings"
)

const (
	tmsRegCount = 8
	tmsVRAMSize = 0x4000
)

// TMS9918A is the baseline chip: 16 KiB VRAM, eight write-only registers
// and one status register.
type TMS9918A struct {
	core
}

// NewTMS9918A creates a TMS9918A in its power-on state.
func NewTMS9918A(cfg Config) *TMS9918A {
	v := &TMS9918A{core: newCore(VariantTMS9918A, tmsVRAMSize, tmsRegCount, cfg)}
	v.palette = newTMSPalette()
	v.Reset()
	return v
}

func (v *TMS9918A) Variant() Variant {
	return VariantTMS9918A
}

// Reset clears the registers and the port latch.
func (v *TMS9918A) Reset() {
	v.resetCore()
	v.updateGeometry()
}

// WriteAddress handles the address/register port. Only three register
// bits are decoded.
func (v *TMS9918A) WriteAddress(val uint8) {
	if reg, data, ok := v.latchAddress(val); ok {
		v.regs[reg&0x07] = data
		v.updateGeometry()
	}
}

func (v *TMS9918A) WriteData(val uint8) {
	v.writeVRAMPort(val)
}

func (v *TMS9918A) ReadData() uint8 {
	return v.readVRAMPort()
}

// ReadStatus returns S0 and resets the latch phase.
func (v *TMS9918A) ReadStatus() uint8 {
	v.latchSecond = false
	return v.readStatus0()
}

func (v *TMS9918A) RenderScanline(line int) RenderStatus {
	return v.renderLine(line)
}

func (v *TMS9918A) updateGeometry() {
	v.mode = tmsMode(v.regs[0], v.regs[1])
	v.addrMask = tmsVRAMSize - 1
	v.tableMask = tmsVRAMSize - 1
	v.tmsTables()
	v.commonFlags()
	v.centerActive(192)
	v.transparent0 = true
	v.spriteLimit = 4
	v.lineIntLine = -1
	v.updateIRQ()
}

// DumpRegisters formats the registers and derived geometry.
func (v *TMS9918A) DumpRegisters() string {
	var b strings.Builder
	v.dumpCommon(&b)
	fmt.Fprintf(&b, "sprite limit: %d unlimited: %t\n", v.spriteLimit, v.unlimitedSprites)
	return b.String()
}
