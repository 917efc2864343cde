package emu

const (
	maxSprites        = 32
	sprite1Terminator = 0xD0
	sprite2Terminator = 0xD8
)

// spriteSize returns the pattern size and the on-screen height.
func (c *core) spriteSize() (size, mag int) {
	size, mag = 8, 1
	if c.regs[1]&r1Size16 != 0 {
		size = 16
	}
	if c.regs[1]&r1Magnify != 0 {
		mag = 2
	}
	return size, mag
}

func (c *core) clearSpriteLine() {
	for i := range c.sprUsed {
		c.sprUsed[i] = false
		c.sprDrawn[i] = false
		c.sprColor[i] = 0
		c.sprNoCol[i] = false
	}
}

// overflow records the first sprite beyond the per-line limit. The number
// is only reported when 5S is newly set.
func (c *core) overflow(sprite int) {
	if c.status&status5S != 0 {
		return
	}
	c.status = c.status&^statusSpriteNum | status5S | uint8(sprite)&statusSpriteNum
}

// collide sets C at most once per frame. Reading S0 clears the flag but not
// the per-frame latch.
func (c *core) collide(x, y int) {
	if c.collisionLatched {
		return
	}
	c.collisionLatched = true
	c.status |= statusC
	c.collisionX = x
	c.collisionY = y
}

// scanSprites walks the attribute table and collects the sprites that cover
// line vy, honoring the per-line limit.
func (c *core) scanSprites(vy int, terminator uint8, height int, visible *[maxSprites]uint8) int {
	limit := c.spriteLimit
	count, onLine := 0, 0
	for i := 0; i < maxSprites; i++ {
		sy := c.peek(c.spriteAttr + uint32(i)*4)
		if sy == terminator {
			break
		}
		if (vy-int(sy)-1)&0xFF >= height {
			continue
		}
		onLine++
		if onLine > limit {
			c.overflow(i)
			if !c.unlimitedSprites {
				break
			}
		}
		visible[count] = uint8(i)
		count++
	}
	return count
}

// spriteRow fetches one sprite row as a left aligned 16 bit mask.
func (c *core) spriteRow(name uint32, row, size int) uint16 {
	if size == 16 {
		name &= 0xFC
	}
	addr := c.spritePattern + name<<3 + uint32(row)
	bits := uint16(c.peek(addr)) << 8
	if size == 16 {
		bits |= uint16(c.peek(addr + 16))
	}
	return bits
}

func (c *core) plotSprite(dst []uint8, sx int, color uint8) {
	if c.lineDirect {
		color = g7SpriteColor(color)
	} else {
		color |= c.spritePalette
	}
	if len(dst) == WideActiveWidth {
		dst[2*sx] = color
		dst[2*sx+1] = color
		return
	}
	dst[sx] = color
}

// spritesMode1 composites the TMS9918A sprites. The lowest numbered sprite
// wins each pixel; overlapping pattern bits collide even when a sprite is
// transparent.
func (c *core) spritesMode1(y int, dst []uint8) {
	size, mag := c.spriteSize()
	height := size * mag
	c.clearSpriteLine()

	var visible [maxSprites]uint8
	count := c.scanSprites(y, sprite1Terminator, height, &visible)
	for k := 0; k < count; k++ {
		entry := c.spriteAttr + uint32(visible[k])*4
		sy := c.peek(entry)
		x := int(c.peek(entry + 1))
		name := uint32(c.peek(entry + 2))
		attr := c.peek(entry + 3)
		if attr&0x80 != 0 {
			x -= 32
		}
		row := ((y - int(sy) - 1) & 0xFF) / mag
		bits := c.spriteRow(name, row, size)
		c.drawSpriteRow(dst, x, y, bits, size, mag, attr&0x0F, false)
	}
}

// drawSpriteRow places one sprite row. noCollide marks pixels that never
// take part in collision detection.
func (c *core) drawSpriteRow(dst []uint8, x, y int, bits uint16, size, mag int, color uint8, noCollide bool) {
	for px := 0; px < size*mag; px++ {
		if bits&(0x8000>>(px/mag)) == 0 {
			continue
		}
		sx := x + px
		if sx < 0 || sx >= ActiveWidth {
			continue
		}
		if c.sprUsed[sx] {
			if !noCollide && !c.sprNoCol[sx] {
				c.collide(sx, y)
			}
		} else {
			c.sprUsed[sx] = true
			c.sprNoCol[sx] = noCollide
		}
		if c.sprDrawn[sx] || (color == 0 && c.transparent0) {
			continue
		}
		c.sprDrawn[sx] = true
		c.sprColor[sx] = color
		c.plotSprite(dst, sx, color)
	}
}

// spritesMode2 composites the V9938 sprites of Graphics 3-7. Each sprite
// line has its own color byte from the table below the attribute table:
// bit 7 EC, bit 6 CC (OR with the preceding sprite), bit 5 IC (ignore
// collisions).
func (c *core) spritesMode2(y int, dst []uint8) {
	size, mag := c.spriteSize()
	height := size * mag
	vy := (y + int(c.vScroll)) & 0xFF
	c.clearSpriteLine()

	var visible [maxSprites]uint8
	count := c.scanSprites(vy, sprite2Terminator, height, &visible)
	leader := false
	for k := 0; k < count; k++ {
		i := uint32(visible[k])
		entry := c.spriteAttr + i*4
		sy := c.peek(entry)
		x := int(c.peek(entry + 1))
		name := uint32(c.peek(entry + 2))
		line := ((vy - int(sy) - 1) & 0xFF) / mag
		attr := c.peek(c.spriteColors + i*16 + uint32(line))
		if attr&0x80 != 0 {
			x -= 32
		}
		color := attr & 0x0F
		bits := c.spriteRow(name, line, size)

		if attr&0x40 == 0 {
			leader = true
			c.drawSpriteRow(dst, x, y, bits, size, mag, color, attr&0x20 != 0)
			continue
		}
		if !leader {
			continue
		}
		c.mergeSpriteRow(dst, x, bits, size, mag, color)
	}
}

// mergeSpriteRow draws a CC sprite: overlapping pixels OR their colors with
// the pixel already there, the rest draw normally. CC sprites never collide.
func (c *core) mergeSpriteRow(dst []uint8, x int, bits uint16, size, mag int, color uint8) {
	for px := 0; px < size*mag; px++ {
		if bits&(0x8000>>(px/mag)) == 0 {
			continue
		}
		sx := x + px
		if sx < 0 || sx >= ActiveWidth {
			continue
		}
		if c.sprDrawn[sx] {
			merged := c.sprColor[sx] | color
			c.sprColor[sx] = merged
			c.plotSprite(dst, sx, merged)
			continue
		}
		if color == 0 && c.transparent0 {
			continue
		}
		c.sprUsed[sx] = true
		c.sprNoCol[sx] = true
		c.sprDrawn[sx] = true
		c.sprColor[sx] = color
		c.plotSprite(dst, sx, color)
	}
}
