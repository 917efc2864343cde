package emu

// tmsPalette is the fixed TMS9918A palette. Entry 0 is transparent and
// shows as black when it reaches the output.
var tmsPalette = [16]rgb{
	{0x00, 0x00, 0x00}, // transparent
	{0x00, 0x00, 0x00}, // black
	{0x21, 0xC8, 0x42}, // medium green
	{0x5E, 0xDC, 0x78}, // light green
	{0x54, 0x55, 0xED}, // dark blue
	{0x7D, 0x76, 0xFC}, // light blue
	{0xD4, 0x52, 0x4D}, // dark red
	{0x42, 0xEB, 0xF5}, // cyan
	{0xFC, 0x55, 0x54}, // medium red
	{0xFF, 0x79, 0x78}, // light red
	{0xD4, 0xC1, 0x54}, // dark yellow
	{0xE6, 0xCE, 0x80}, // light yellow
	{0x21, 0xB0, 0x3B}, // dark green
	{0xC9, 0x5B, 0xBA}, // magenta
	{0xCC, 0xCC, 0xCC}, // gray
	{0xFF, 0xFF, 0xFF}, // white
}

// v9938DefaultPalette is the power-on palette as 0RRR0BBB / 00000GGG pairs
// packed into 0x0RGB.
var v9938DefaultPalette = [16]uint16{
	0x000, 0x000, 0x161, 0x373, 0x117, 0x237, 0x511, 0x267,
	0x711, 0x733, 0x661, 0x664, 0x141, 0x625, 0x555, 0x777,
}

// f18aDefaultPalette is bank 0 of the F18A power-on palette as 12-bit
// 0x0RGB. The other banks start as copies.
var f18aDefaultPalette = [16]uint16{
	0x000, 0x000, 0x2C3, 0x5D6, 0x54F, 0x76F, 0xD54, 0x4EF,
	0xF54, 0xF76, 0xDC3, 0xED6, 0x2B2, 0xC5C, 0xCCC, 0xFFF,
}

// newTMSPalette returns a per-instance copy of the fixed palette.
func newTMSPalette() []rgb {
	p := make([]rgb, len(tmsPalette))
	copy(p, tmsPalette[:])
	return p
}

// rgb333 expands a V9938 palette entry held as 0x0RGB, 3 bits per channel.
func rgb333(v uint16) rgb {
	return rgb{
		r: scale3(uint8(v >> 8)),
		g: scale3(uint8(v >> 4)),
		b: scale3(uint8(v)),
	}
}

// rgb444 expands an F18A palette entry held as 0x0RGB, 4 bits per channel.
func rgb444(v uint16) rgb {
	return rgb{
		r: uint8(v>>8&0x0F) * 0x11,
		g: uint8(v>>4&0x0F) * 0x11,
		b: uint8(v&0x0F) * 0x11,
	}
}
