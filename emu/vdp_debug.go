package emu

import (
	"fmt"
	"strings"
)

// dumpCommon writes the state every variant shares: mode, the base
// registers, derived tables, status and the address latch.
func (c *core) dumpCommon(b *strings.Builder) {
	fmt.Fprintf(b, "%s mode: %s display: %t lines: %d\n", c.variant, c.mode, c.displayOn, c.activeHeight)
	for i := 0; i < 8; i++ {
		fmt.Fprintf(b, "R%d=%02X ", i, c.regs[i])
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "name=%05X/%05X color=%05X/%05X pattern=%05X/%05X\n",
		c.nameTable, c.nameMask, c.colorTable, c.colorMask, c.patternTable, c.patternMask)
	fmt.Fprintf(b, "sprites: attr=%05X pattern=%05X colors=%05X\n", c.spriteAttr, c.spritePattern, c.spriteColors)
	fmt.Fprintf(b, "status=%02X irq=%t line=%d frame=%d\n", c.status, c.irq, c.currentLine, c.frame)
	phase := "first"
	if c.latchSecond {
		phase = "second"
	}
	fmt.Fprintf(b, "addr=%05X readahead=%02X latch=%s pending=%02X\n", c.addr, c.readAhead, phase, c.latchLow)
}

// DumpVRAM formats length bytes of VRAM starting at addr as a hex listing.
func DumpVRAM(chip Chip, addr, length int) string {
	var b strings.Builder
	for off := 0; off < length; off += 16 {
		fmt.Fprintf(&b, "%05X:", addr+off)
		for i := 0; i < 16 && off+i < length; i++ {
			fmt.Fprintf(&b, " %02X", chip.ReadVRAM(addr+off+i))
		}
		b.WriteString("\n")
	}
	return b.String()
}
