package emu

import (
	"encoding/binary"
	"errors"
)

const vdpSerializeVersion = 1

// stateWriter lays out fixed width little endian fields. With a nil buffer
// it only counts, which is how each variant's fixed size is derived.
type stateWriter struct {
	buf []byte
	off int
}

func (w *stateWriter) u8(v uint8) {
	if w.buf != nil {
		w.buf[w.off] = v
	}
	w.off++
}

func (w *stateWriter) flag(v bool) {
	w.u8(boolByte(v))
}

func (w *stateWriter) u16(v uint16) {
	if w.buf != nil {
		binary.LittleEndian.PutUint16(w.buf[w.off:], v)
	}
	w.off += 2
}

func (w *stateWriter) u32(v uint32) {
	if w.buf != nil {
		binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	}
	w.off += 4
}

func (w *stateWriter) num(v int) {
	w.u32(uint32(int32(v)))
}

func (w *stateWriter) bytes(b []byte) {
	if w.buf != nil {
		copy(w.buf[w.off:], b)
	}
	w.off += len(b)
}

type stateReader struct {
	buf []byte
	off int
}

func (r *stateReader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *stateReader) flag() bool {
	return r.u8() != 0
}

func (r *stateReader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *stateReader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *stateReader) num() int {
	return int(int32(r.u32()))
}

func (r *stateReader) bytes(dst []byte) {
	copy(dst, r.buf[r.off:r.off+len(dst)])
	r.off += len(dst)
}

// chipStateSize measures a variant's state including the version and
// variant bytes.
func chipStateSize(save func(w *stateWriter)) int {
	w := stateWriter{}
	w.u8(0)
	w.u8(0)
	save(&w)
	return w.off
}

func serializeChip(buf []byte, variant Variant, save func(w *stateWriter)) error {
	if len(buf) < chipStateSize(save) {
		return errors.New("VDP serialize buffer too small")
	}
	w := stateWriter{buf: buf}
	w.u8(vdpSerializeVersion)
	w.u8(uint8(variant))
	save(&w)
	return nil
}

func deserializeChip(buf []byte, size int, variant Variant, load func(r *stateReader)) error {
	if len(buf) < size {
		return errors.New("VDP deserialize buffer too small")
	}
	r := stateReader{buf: buf}
	if r.u8() != vdpSerializeVersion {
		return errors.New("unsupported VDP state version")
	}
	if Variant(r.u8()) != variant {
		return errors.New("VDP state is for a different chip variant")
	}
	load(&r)
	return nil
}

// saveCore writes VRAM, every register, the latch, the status flags and the
// derived geometry.
func (c *core) saveCore(w *stateWriter) {
	w.bytes(c.vram)
	w.bytes(c.regs)

	w.flag(c.latchSecond)
	w.u8(c.latchLow)
	w.u32(c.addr)
	w.u8(c.readAhead)
	w.num(int(c.increment))
	w.flag(c.interleaved)
	w.flag(c.cpuExpansion)

	w.u8(c.status)
	w.flag(c.irq)
	w.flag(c.collisionLatched)
	w.num(c.collisionX)
	w.num(c.collisionY)
	w.flag(c.lineFlag)

	w.u8(uint8(c.mode))
	w.flag(c.displayOn)
	w.flag(c.frameIntEnabled)
	w.flag(c.lineIntEnabled)
	w.num(c.lineIntLine)
	w.u32(c.nameTable)
	w.u32(c.nameMask)
	w.u32(c.colorTable)
	w.u32(c.colorMask)
	w.u32(c.patternTable)
	w.u32(c.patternMask)
	w.u32(c.spriteAttr)
	w.u32(c.spriteColors)
	w.u32(c.spritePattern)
	w.u16(uint16(c.activeHeight))
	w.u16(uint16(c.topBorder))
	w.flag(c.transparent0)
	w.u8(c.tilePalette)
	w.u8(c.spritePalette)
	w.u8(uint8(c.spriteLimit))
	w.flag(c.spritesDisabled)
	w.u8(c.vScroll)
	w.flag(c.blinkEnabled)

	w.num(c.currentLine)
	w.u32(c.frame)
	w.flag(c.blinkOn)
	w.num(c.blinkCount)
}

func (c *core) loadCore(r *stateReader) {
	r.bytes(c.vram)
	r.bytes(c.regs)

	c.latchSecond = r.flag()
	c.latchLow = r.u8()
	c.addr = r.u32() & c.addrMask
	c.readAhead = r.u8()
	c.increment = int32(r.num())
	c.interleaved = r.flag()
	c.cpuExpansion = r.flag()

	c.status = r.u8()
	c.irq = r.flag()
	c.collisionLatched = r.flag()
	c.collisionX = r.num()
	c.collisionY = r.num()
	c.lineFlag = r.flag()

	c.mode = Mode(r.u8())
	if c.mode >= modeCount {
		c.mode = ModeIllegal
	}
	c.displayOn = r.flag()
	c.frameIntEnabled = r.flag()
	c.lineIntEnabled = r.flag()
	c.lineIntLine = r.num()
	c.nameTable = r.u32()
	c.nameMask = r.u32()
	c.colorTable = r.u32()
	c.colorMask = r.u32()
	c.patternTable = r.u32()
	c.patternMask = r.u32()
	c.spriteAttr = r.u32()
	c.spriteColors = r.u32()
	c.spritePattern = r.u32()
	c.activeHeight = int(r.u16())
	c.topBorder = int(r.u16())
	c.transparent0 = r.flag()
	c.tilePalette = r.u8()
	c.spritePalette = r.u8()
	c.spriteLimit = int(r.u8())
	c.spritesDisabled = r.flag()
	c.vScroll = r.u8()
	c.blinkEnabled = r.flag()

	c.currentLine = r.num()
	c.frame = r.u32()
	c.blinkOn = r.flag()
	c.blinkCount = r.num()
}

// TMS9918A

func (v *TMS9918A) save(w *stateWriter) {
	v.saveCore(w)
}

func (v *TMS9918A) SerializeSize() int {
	return chipStateSize(v.save)
}

// Serialize writes the chip state to buf, which must hold SerializeSize
// bytes.
func (v *TMS9918A) Serialize(buf []byte) error {
	return serializeChip(buf, VariantTMS9918A, v.save)
}

// Deserialize restores the chip state from buf.
func (v *TMS9918A) Deserialize(buf []byte) error {
	return deserializeChip(buf, v.SerializeSize(), VariantTMS9918A, v.loadCore)
}

// F18A

func (v *F18A) save(w *stateWriter) {
	v.saveCore(w)
	w.flag(v.unlocked)
	w.flag(v.unlockSeen)
	for _, p := range v.palRegs {
		w.u16(p)
	}
	w.flag(v.dpmHigh)
	w.u8(v.dpmLatch)
	w.u8(v.dpmIndex)
}

func (v *F18A) load(r *stateReader) {
	v.loadCore(r)
	v.unlocked = r.flag()
	v.unlockSeen = r.flag()
	for i := range v.palRegs {
		v.palRegs[i] = r.u16() & 0x0FFF
	}
	v.dpmHigh = r.flag()
	v.dpmLatch = r.u8()
	v.dpmIndex = r.u8() & 0x3F
	v.rebuildPalette()
}

func (v *F18A) SerializeSize() int {
	return chipStateSize(v.save)
}

// Serialize writes the chip state to buf, which must hold SerializeSize
// bytes.
func (v *F18A) Serialize(buf []byte) error {
	return serializeChip(buf, VariantF18A, v.save)
}

// Deserialize restores the chip state from buf.
func (v *F18A) Deserialize(buf []byte) error {
	return deserializeChip(buf, v.SerializeSize(), VariantF18A, v.load)
}

// V9938

func (v *V9938) save(w *stateWriter) {
	v.saveCore(w)
	for _, p := range v.palRegs {
		w.u16(p)
	}
	w.u8(v.palLatch)
	w.flag(v.palSecond)
	w.flag(v.hrToggle)

	u := &v.cmd
	w.u8(uint8(u.state))
	w.u8(u.op)
	w.u8(u.lo)
	w.u8(u.arg)
	w.num(u.sx)
	w.num(u.sy)
	w.num(u.dx)
	w.num(u.dy)
	w.num(u.tx)
	w.num(u.ty)
	w.num(u.nx)
	w.num(u.ny)
	w.num(u.asx)
	w.num(u.adx)
	w.num(u.anx)
	w.u8(u.cl)
	w.flag(u.mxs)
	w.flag(u.mxd)
	w.u8(uint8(u.mode))
	w.num(u.budget)
	w.u8(u.colorOut)
	w.flag(u.border)
	w.num(u.foundX)
}

// load restores the command unit field by field. The step function is not
// stored; UpdateCommand looks it up from the opcode.
func (v *V9938) load(r *stateReader) {
	v.loadCore(r)
	for i := range v.palRegs {
		v.palRegs[i] = r.u16() & 0x0777
		v.palette[i] = rgb333(v.palRegs[i])
	}
	v.palLatch = r.u8()
	v.palSecond = r.flag()
	v.hrToggle = r.flag()

	u := &v.cmd
	u.state = cmdState(r.u8())
	if u.state > cmdAborted {
		u.state = cmdIdle
	}
	u.op = r.u8() & 0x0F
	u.lo = r.u8() & 0x0F
	u.arg = r.u8()
	u.sx = r.num()
	u.sy = r.num()
	u.dx = r.num()
	u.dy = r.num()
	u.tx = r.num()
	u.ty = r.num()
	u.nx = r.num()
	u.ny = r.num()
	u.asx = r.num()
	u.adx = r.num()
	u.anx = r.num()
	u.cl = r.u8()
	u.mxs = r.flag()
	u.mxd = r.flag()
	u.mode = Mode(r.u8())
	u.budget = r.num()
	u.colorOut = r.u8()
	u.border = r.flag()
	u.foundX = r.num()
}

func (v *V9938) SerializeSize() int {
	return chipStateSize(v.save)
}

// Serialize writes the chip state to buf, which must hold SerializeSize
// bytes.
func (v *V9938) Serialize(buf []byte) error {
	return serializeChip(buf, VariantV9938, v.save)
}

// Deserialize restores the chip state from buf.
func (v *V9938) Deserialize(buf []byte) error {
	return deserializeChip(buf, v.SerializeSize(), VariantV9938, v.load)
}
