package emu

// Bitmap modes read one row of bytes from the page selected by R2. The row
// address is masked with the name mask so unset R2 bits mirror lines the
// way the chip does. R23 scrolls the bitmap vertically.

func (c *core) bitmapRow(y int, shift uint) uint32 {
	vy := uint32((y + int(c.vScroll)) & 0xFF)
	return vy << shift
}

// bitmapColor applies the color 0 transparency rule to a bitmap pixel.
func (c *core) bitmapColor(ci uint8) uint8 {
	if ci == 0 && c.transparent0 {
		return c.borderColor()
	}
	return ci
}

// renderGraphics4: 256 pixels, 4 bits each, 128 bytes per row.
func renderGraphics4(c *core, y int, dst []uint8) {
	row := c.bitmapRow(y, 7)
	for bx := uint32(0); bx < 128; bx++ {
		b := c.peek(c.nameTable | (row|bx)&c.nameMask)
		dst[2*bx] = c.bitmapColor(b >> 4)
		dst[2*bx+1] = c.bitmapColor(b & 0x0F)
	}
}

// renderGraphics5: 512 pixels, 2 bits each, 128 bytes per row.
func renderGraphics5(c *core, y int, dst []uint8) {
	row := c.bitmapRow(y, 7)
	for bx := uint32(0); bx < 128; bx++ {
		b := c.peek(c.nameTable | (row|bx)&c.nameMask)
		o := bx * 4
		dst[o] = c.bitmapColor(b >> 6)
		dst[o+1] = c.bitmapColor(b >> 4 & 0x03)
		dst[o+2] = c.bitmapColor(b >> 2 & 0x03)
		dst[o+3] = c.bitmapColor(b & 0x03)
	}
}

// renderGraphics6: 512 pixels, 4 bits each, 256 bytes per row, read
// through the interleaved layout.
func renderGraphics6(c *core, y int, dst []uint8) {
	row := c.bitmapRow(y, 8)
	for bx := uint32(0); bx < 256; bx++ {
		b := c.peek(c.nameTable | (row|bx)&c.nameMask)
		dst[2*bx] = c.bitmapColor(b >> 4)
		dst[2*bx+1] = c.bitmapColor(b & 0x0F)
	}
}

// renderGraphics7: 256 pixels of direct GRB332 color.
func renderGraphics7(c *core, y int, dst []uint8) {
	row := c.bitmapRow(y, 8)
	for bx := uint32(0); bx < 256; bx++ {
		dst[bx] = c.peek(c.nameTable | (row|bx)&c.nameMask)
	}
}

func scale3(v uint8) uint8 {
	return uint8(uint16(v&0x07) * 255 / 7)
}

func scale2(v uint8) uint8 {
	return uint8(uint16(v&0x03) * 255 / 3)
}

// grb332 expands a Graphics 7 pixel: green in bits 7-5, red in 4-2, blue
// in 1-0.
func grb332(v uint8) rgb {
	return rgb{r: scale3(v >> 2), g: scale3(v >> 5), b: scale2(v)}
}

// g7SpriteColors are the fixed sprite colors of Graphics 7 as 0xGRB with
// three bits per channel.
var g7SpriteColors = [16]uint16{
	0x000, 0x002, 0x030, 0x032, 0x300, 0x302, 0x330, 0x332,
	0x472, 0x007, 0x070, 0x077, 0x700, 0x707, 0x770, 0x777,
}

// g7SpriteColor returns the GRB332 pixel for a sprite color in Graphics 7.
func g7SpriteColor(ci uint8) uint8 {
	v := g7SpriteColors[ci&0x0F]
	g := uint8(v>>8) & 0x07
	r := uint8(v>>4) & 0x07
	b := uint8(v) & 0x07
	return g<<5 | r<<2 | b>>1
}
