package emu

// lineRenderer fills the active part of a line with color indices. y is the
// line number inside the active display.
type lineRenderer func(c *core, y int, dst []uint8)

// modeRenderers dispatches on the derived mode.
var modeRenderers = [modeCount]lineRenderer{
	ModeGraphics1:  renderGraphics1,
	ModeGraphics2:  renderGraphics2,
	ModeMulticolor: renderMulticolor,
	ModeText1:      renderText1,
	ModeText2:      renderText2,
	ModeGraphics3:  renderGraphics2,
	ModeGraphics4:  renderGraphics4,
	ModeGraphics5:  renderGraphics5,
	ModeGraphics6:  renderGraphics6,
	ModeGraphics7:  renderGraphics7,
	ModeIllegal:    renderIllegal,
}

// renderLine produces one scanline of the visible frame and advances the
// frame state machine: the collision latch resets on line 0, the F flag is
// set on the last active line, and line interrupts fire on their match.
func (c *core) renderLine(line int) RenderStatus {
	c.currentLine = line
	if line == 0 {
		c.startFrame()
	}

	var st RenderStatus
	y := line - c.topBorder
	active := y >= 0 && y < c.activeHeight

	if line >= 0 && line < FrameHeight {
		width, border := LineWidth, BorderWidth
		if c.mode.wide() {
			width, border = WideLineWidth, 2*BorderWidth
		}
		c.lineWidth = width
		c.lineDirect = c.mode == ModeGraphics7
		dst := c.lineBuf[:width]
		bc := c.borderColor()

		if !active || !c.displayOn {
			fill(dst, bc)
		} else {
			fill(dst[:border], bc)
			fill(dst[width-border:], bc)
			pixels := dst[border : width-border]
			modeRenderers[c.mode](c, y, pixels)
			if !c.spritesDisabled {
				switch c.mode.spriteMode() {
				case 1:
					c.spritesMode1(y, pixels)
				case 2:
					c.spritesMode2(y, pixels)
				}
			}
		}
		c.blitLine(line)
		st.Width = width
	}

	if active && c.lineIntLine >= 0 && (y+int(c.vScroll))&0xFF == c.lineIntLine {
		c.lineFlag = true
	}
	if active && y == c.activeHeight-1 {
		c.status |= statusF
		st.FrameComplete = true
	}
	c.updateIRQ()
	st.Interrupt = c.irq
	return st
}

func (c *core) startFrame() {
	c.collisionLatched = false
	c.frame++
	if c.blinkEnabled {
		c.stepBlink()
	}
}

// stepBlink runs the Text 2 blink timer. R13 holds the on and off periods
// in units of ten frames.
func (c *core) stepBlink() {
	on := int(c.regs[13]>>4) * 10
	off := int(c.regs[13]&0x0F) * 10
	if on == 0 && off == 0 {
		c.blinkOn = false
		c.blinkCount = 0
		return
	}
	c.blinkCount++
	limit := off
	if c.blinkOn {
		limit = on
	}
	if c.blinkCount >= limit {
		c.blinkOn = !c.blinkOn
		c.blinkCount = 0
	}
}

func fill(dst []uint8, v uint8) {
	for i := range dst {
		dst[i] = v
	}
}

func (c *core) borderColor() uint8 {
	switch c.mode {
	case ModeGraphics7:
		return c.regs[7]
	case ModeGraphics5:
		return c.regs[7] & 0x03
	}
	return c.regs[7] & 0x0F
}

// tileColor resolves a pattern color. Color 0 shows the backdrop unless the
// chip has been told to treat it as a solid palette entry.
func (c *core) tileColor(ci uint8) uint8 {
	if ci == 0 && c.transparent0 {
		return c.regs[7] & 0x0F
	}
	return ci | c.tilePalette
}

func (c *core) drawPattern(dst []uint8, pat uint8, n int, fg, bg uint8) {
	for i := 0; i < n; i++ {
		if pat&(0x80>>i) != 0 {
			dst[i] = fg
		} else {
			dst[i] = bg
		}
	}
}

func renderGraphics1(c *core, y int, dst []uint8) {
	row := uint32(y>>3) * 32
	line := uint32(y & 7)
	for col := uint32(0); col < 32; col++ {
		name := uint32(c.peek(c.nameTable + row + col))
		pat := c.peek(c.patternTable + name<<3 + line)
		color := c.peek(c.colorTable + name>>3)
		c.drawPattern(dst[col*8:], pat, 8, c.tileColor(color>>4), c.tileColor(color&0x0F))
	}
}

// renderGraphics2 also serves Graphics 3, which only differs in sprites.
// The screen is split in three 64-line thirds, each with its own 256
// pattern and color entries, narrowed by the table masks.
func renderGraphics2(c *core, y int, dst []uint8) {
	row := uint32(y>>3) * 32
	third := uint32(y&0xC0) << 5
	line := uint32(y & 7)
	for col := uint32(0); col < 32; col++ {
		name := uint32(c.peek(c.nameTable + row + col))
		off := third | name<<3 | line
		pat := c.peek(c.patternTable | off&c.patternMask)
		color := c.peek(c.colorTable | off&c.colorMask)
		c.drawPattern(dst[col*8:], pat, 8, c.tileColor(color>>4), c.tileColor(color&0x0F))
	}
}

// renderMulticolor draws 4x4 blocks. Each name selects two bytes of a
// pattern, picked by the row within the 8-line group.
func renderMulticolor(c *core, y int, dst []uint8) {
	row := uint32(y>>3) * 32
	sub := uint32((y>>3)&3)<<1 | uint32((y>>2)&1)
	for col := uint32(0); col < 32; col++ {
		name := uint32(c.peek(c.nameTable + row + col))
		b := c.peek(c.patternTable + name<<3 + sub)
		fill(dst[col*8:col*8+4], c.tileColor(b>>4))
		fill(dst[col*8+4:col*8+8], c.tileColor(b&0x0F))
	}
}

// renderText1 draws 40 columns of 6 pixel glyphs with 8 pixel pads.
func renderText1(c *core, y int, dst []uint8) {
	fg := c.tileColor(c.regs[7] >> 4)
	bg := c.tileColor(c.regs[7] & 0x0F)
	bc := c.borderColor()
	fill(dst[:8], bc)
	fill(dst[248:], bc)
	row := uint32(y>>3) * 40
	line := uint32(y & 7)
	for col := uint32(0); col < 40; col++ {
		name := uint32(c.peek(c.nameTable + row + col))
		pat := c.peek(c.patternTable + name<<3 + line)
		c.drawPattern(dst[8+col*6:], pat, 6, fg, bg)
	}
}

// renderText2 draws 80 columns on a 512 pixel line. On the V9938 the blink
// table marks characters that take the R12 colors during the blink phase.
func renderText2(c *core, y int, dst []uint8) {
	fg := c.tileColor(c.regs[7] >> 4)
	bg := c.tileColor(c.regs[7] & 0x0F)
	bfg := c.tileColor(c.regs[12] >> 4)
	bbg := c.tileColor(c.regs[12] & 0x0F)
	bc := c.borderColor()
	fill(dst[:16], bc)
	fill(dst[496:], bc)
	row := uint32(y>>3) * 80
	line := uint32(y & 7)
	for col := uint32(0); col < 80; col++ {
		name := uint32(c.peek(c.nameTable + row + col))
		pat := c.peek(c.patternTable + name<<3 + line)
		f, b := fg, bg
		if c.blinkEnabled && c.blinkOn {
			mark := c.peek(c.colorTable + uint32(y>>3)*10 + col>>3)
			if mark&(0x80>>(col&7)) != 0 {
				f, b = bfg, bbg
			}
		}
		c.drawPattern(dst[16+col*6:], pat, 6, f, b)
	}
}

// renderIllegal draws the M1+M2 mode: 40 columns of 4 foreground and 2
// background pixels, independent of VRAM.
func renderIllegal(c *core, y int, dst []uint8) {
	fg := c.tileColor(c.regs[7] >> 4)
	bg := c.tileColor(c.regs[7] & 0x0F)
	bc := c.borderColor()
	fill(dst[:8], bc)
	fill(dst[248:], bc)
	for col := 0; col < 40; col++ {
		o := 8 + col*6
		fill(dst[o:o+4], fg)
		fill(dst[o+4:o+6], bg)
	}
}

// color resolves a line buffer entry to RGB.
func (c *core) color(idx uint8) rgb {
	if c.lineDirect {
		return grb332(idx)
	}
	return c.palette[int(idx)%len(c.palette)]
}

// blitLine converts the line buffer into the framebuffer row. Narrow lines
// are doubled horizontally so every row spans the full width.
func (c *core) blitLine(line int) {
	fb := c.framebuffer
	row := fb.Pix[line*fb.Stride : line*fb.Stride+ScreenWidth*4]
	src := c.lineBuf[:c.lineWidth]
	if c.lineWidth == WideLineWidth {
		for x, idx := range src {
			col := c.color(idx)
			o := x * 4
			row[o] = col.r
			row[o+1] = col.g
			row[o+2] = col.b
			row[o+3] = 0xFF
		}
		return
	}
	for x, idx := range src {
		col := c.color(idx)
		o := x * 8
		row[o] = col.r
		row[o+1] = col.g
		row[o+2] = col.b
		row[o+3] = 0xFF
		row[o+4] = col.r
		row[o+5] = col.g
		row[o+6] = col.b
		row[o+7] = 0xFF
	}
}
