package emu

// expansionBase is where the V9938 64 KiB expansion RAM starts in the
// chip's VRAM slice.
const expansionBase = 0x20000

// interleave maps a linear Graphics 6/7 address onto the physical layout
// of the 128 KiB main bank: even bytes in the low 64 KiB, odd bytes in
// the high 64 KiB.
func interleave(lin uint32) uint32 {
	return (lin&1)<<16 | lin>>1
}

// cpuPhys maps the cursor onto the VRAM slice.
func (c *core) cpuPhys(addr uint32) uint32 {
	if c.cpuExpansion {
		return expansionBase | addr&0xFFFF
	}
	if c.interleaved {
		return interleave(addr)
	}
	return addr
}

// latchAddress runs the two-phase address port protocol. The first write
// is held as the pending low byte. The second write decodes its top two
// bits: 00 sets a read cursor and prefetches, 01 sets a write cursor,
// 1x is a register write which is returned to the caller because each
// variant owns its register side effects.
func (c *core) latchAddress(val uint8) (reg, data uint8, isReg bool) {
	if !c.latchSecond {
		c.latchLow = val
		c.latchSecond = true
		return 0, 0, false
	}
	c.latchSecond = false

	switch val >> 6 {
	case 0:
		c.setCursor(val)
		c.prefetch()
	case 1:
		c.setCursor(val)
	default:
		return val, c.latchLow, true
	}
	return 0, 0, false
}

func (c *core) setCursor(high uint8) {
	addr := uint32(high&0x3F)<<8 | uint32(c.latchLow)
	if c.wideCursor {
		addr |= uint32(c.regs[14]&0x07) << 14
	}
	c.addr = addr & c.addrMask
}

// advance moves the cursor by the configured increment, wrapping inside the
// addressable range. On the V9938 a wrap past a 16 KiB boundary carries
// into R14.
func (c *core) advance() {
	c.addr = uint32(int32(c.addr)+c.increment) & c.addrMask
	if c.wideCursor {
		c.regs[14] = uint8(c.addr>>14) & 0x07
	}
}

// prefetch refills the read-ahead buffer from the cursor and advances.
func (c *core) prefetch() {
	c.readAhead = c.vram[c.cpuPhys(c.addr)]
	c.advance()
}

// writeVRAMPort stores a data port byte. The read-ahead takes the written
// value, matching the hardware's shared data latch.
func (c *core) writeVRAMPort(val uint8) {
	c.latchSecond = false
	c.vram[c.cpuPhys(c.addr)] = val
	c.readAhead = val
	c.advance()
}

// readVRAMPort returns the read-ahead byte and refills it from the cursor.
func (c *core) readVRAMPort() uint8 {
	c.latchSecond = false
	val := c.readAhead
	c.prefetch()
	return val
}

// readStatus0 returns S0 and clears F, 5S and C along with the interrupt
// output. The sprite number field is left intact.
func (c *core) readStatus0() uint8 {
	val := c.status
	c.status &^= statusF | status5S | statusC
	c.irq = false
	return val
}
