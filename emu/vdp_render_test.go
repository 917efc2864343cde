package emu

import "testing"

// activeLine returns the frame line of active display line y on a 192-line
// chip.
func activeLine(y int) int {
	return 24 + y
}

// makeGraphics1TMS sets up Graphics 1 with the name table at 0x0000,
// colors at 0x0380, patterns at 0x0800 and an empty sprite table.
func makeGraphics1TMS() *TMS9918A {
	v := makeTestTMS()
	writeReg(v, 1, r1Display)
	writeReg(v, 2, 0x00)
	writeReg(v, 3, 0x0E)
	writeReg(v, 4, 0x01)
	writeReg(v, 5, 0x20)
	writeReg(v, 7, 0x04)
	v.vram[0x1000] = sprite1Terminator
	return v
}

func TestRender_Graphics1(t *testing.T) {
	v := makeGraphics1TMS()
	v.vram[0x0000] = 1    // first name
	v.vram[0x0808] = 0xF0 // pattern 1, row 0
	v.vram[0x0380] = 0xF1 // names 0-7: white on black

	v.RenderScanline(activeLine(0))
	px := v.LinePixels()
	if len(px) != LineWidth {
		t.Fatalf("expected %d pixels, got %d", LineWidth, len(px))
	}
	for x := 0; x < BorderWidth; x++ {
		if px[x] != 4 || px[LineWidth-1-x] != 4 {
			t.Fatalf("border pixel %d: expected 4", x)
		}
	}
	for x := 0; x < 4; x++ {
		if got := px[BorderWidth+x]; got != 15 {
			t.Errorf("pixel %d: expected 15, got %d", x, got)
		}
	}
	for x := 4; x < 16; x++ {
		if got := px[BorderWidth+x]; got != 1 {
			t.Errorf("pixel %d: expected 1, got %d", x, got)
		}
	}

	// The first active pixel lands doubled at framebuffer column 32.
	fb := v.Framebuffer()
	o := activeLine(0)*fb.Stride + 2*BorderWidth*4
	if fb.Pix[o] != 0xFF || fb.Pix[o+1] != 0xFF || fb.Pix[o+2] != 0xFF || fb.Pix[o+3] != 0xFF {
		t.Errorf("expected white at framebuffer column 32, got %v", fb.Pix[o:o+4])
	}
	if fb.Pix[o+4] != 0xFF {
		t.Error("expected the pixel doubled horizontally")
	}
}

func TestRender_TransparentShowsBackdrop(t *testing.T) {
	v := makeGraphics1TMS()
	v.vram[0x0380] = 0xF0 // background color 0
	v.RenderScanline(activeLine(3))
	if got := v.LinePixels()[BorderWidth]; got != 4 {
		t.Errorf("expected backdrop 4, got %d", got)
	}
}

func TestRender_BorderLines(t *testing.T) {
	v := makeGraphics1TMS()
	v.vram[0x0380] = 0xF1
	for _, line := range []int{0, 23, activeLine(192), FrameHeight - 1} {
		v.RenderScanline(line)
		for x, p := range v.LinePixels() {
			if p != 4 {
				t.Fatalf("line %d pixel %d: expected border 4, got %d", line, x, p)
			}
		}
	}
}

func TestRender_DisplayOffBlanks(t *testing.T) {
	v := makeGraphics1TMS()
	v.vram[0x0380] = 0xF1
	writeReg(v, 1, 0)
	v.RenderScanline(activeLine(10))
	for x, p := range v.LinePixels() {
		if p != 4 {
			t.Fatalf("pixel %d: expected backdrop with the display off, got %d", x, p)
		}
	}
}

func TestRender_Graphics2Thirds(t *testing.T) {
	v := makeTestTMS()
	writeReg(v, 0, r0M3)
	writeReg(v, 1, r1Display)
	writeReg(v, 2, 0x0E) // names at 0x3800
	writeReg(v, 3, 0xFF) // colors at 0x2000, full mask
	writeReg(v, 4, 0x03) // patterns at 0x0000, full mask
	writeReg(v, 5, 0x36) // sprites at 0x1B00
	v.vram[0x1B00] = sprite1Terminator

	// Name 0 in the middle third reads pattern and color 0x800 further on.
	v.vram[0x0800] = 0xFF
	v.vram[0x2800] = 0xA0

	v.RenderScanline(activeLine(64))
	for x := 0; x < 8; x++ {
		if got := v.LinePixels()[BorderWidth+x]; got != 10 {
			t.Errorf("pixel %d: expected 10, got %d", x, got)
		}
	}
	v.RenderScanline(activeLine(0))
	if got := v.LinePixels()[BorderWidth]; got != 0 {
		t.Errorf("top third should use its own pattern, got %d", got)
	}
}

func TestRender_Multicolor(t *testing.T) {
	v := makeGraphics1TMS()
	writeReg(v, 1, r1Display|r1M2)
	v.vram[0x0000] = 2
	v.vram[0x0810] = 0x3A // name 2, first byte
	v.RenderScanline(activeLine(0))
	px := v.LinePixels()[BorderWidth:]
	for x := 0; x < 4; x++ {
		if px[x] != 3 {
			t.Errorf("pixel %d: expected 3, got %d", x, px[x])
		}
		if px[4+x] != 10 {
			t.Errorf("pixel %d: expected 10, got %d", 4+x, px[4+x])
		}
	}
}

func TestRender_Text1(t *testing.T) {
	v := makeGraphics1TMS()
	writeReg(v, 1, r1Display|r1M1)
	writeReg(v, 7, 0xF4)
	v.vram[0x0000] = 1
	v.vram[0x0808] = 0xFC

	v.RenderScanline(activeLine(0))
	px := v.LinePixels()[BorderWidth:]
	for x := 0; x < 8; x++ {
		if px[x] != 4 {
			t.Errorf("pad pixel %d: expected 4, got %d", x, px[x])
		}
	}
	for x := 8; x < 14; x++ {
		if px[x] != 15 {
			t.Errorf("glyph pixel %d: expected 15, got %d", x, px[x])
		}
	}
	if px[14] != 4 {
		t.Errorf("second glyph should be background, got %d", px[14])
	}
}

func TestRender_TextIgnoresSprites(t *testing.T) {
	v := makeGraphics1TMS()
	writeReg(v, 1, r1Display|r1M1)
	writeReg(v, 6, 0x00)
	v.vram[0x1000] = 9  // y
	v.vram[0x1001] = 20 // x
	v.vram[0x1002] = 1
	v.vram[0x1003] = 15
	v.vram[0x1004] = sprite1Terminator
	for i := 0; i < 8; i++ {
		v.vram[0x0008+i] = 0xFF
	}
	v.RenderScanline(activeLine(10))
	if got := v.LinePixels()[BorderWidth+20]; got == 15 {
		t.Error("text modes must not show sprites")
	}
}

func TestRender_IllegalMode(t *testing.T) {
	v := makeGraphics1TMS()
	writeReg(v, 1, r1Display|r1M1|r1M2)
	writeReg(v, 7, 0xF4)
	if v.Mode() != ModeIllegal {
		t.Fatalf("expected illegal mode, got %s", v.Mode())
	}
	v.RenderScanline(activeLine(0))
	px := v.LinePixels()[BorderWidth:]
	for col := 0; col < 40; col++ {
		o := 8 + col*6
		for x := 0; x < 4; x++ {
			if px[o+x] != 15 {
				t.Fatalf("column %d pixel %d: expected 15, got %d", col, x, px[o+x])
			}
		}
		if px[o+4] != 4 || px[o+5] != 4 {
			t.Fatalf("column %d: expected two background pixels", col)
		}
	}
}

func TestTMSMode(t *testing.T) {
	tests := []struct {
		r0, r1 uint8
		want   Mode
	}{
		{0x00, 0x00, ModeGraphics1},
		{r0M3, 0x00, ModeGraphics2},
		{0x00, r1M2, ModeMulticolor},
		{0x00, r1M1, ModeText1},
		{r0M3, r1M1, ModeText1},
		{0x00, r1M1 | r1M2, ModeIllegal},
		{r0M3, r1M1 | r1M2, ModeIllegal},
	}
	for _, tt := range tests {
		if got := tmsMode(tt.r0, tt.r1); got != tt.want {
			t.Errorf("tmsMode(%02X, %02X) = %s, want %s", tt.r0, tt.r1, got, tt.want)
		}
	}
}

func TestTMSTables(t *testing.T) {
	tests := []struct {
		name                   string
		regs                   [8]uint8
		nameTable              uint32
		color, colorMask       uint32
		pattern, patternMask   uint32
		spriteAttr, spritePatt uint32
	}{
		{
			name:        "graphics1",
			regs:        [8]uint8{0x00, 0x40, 0x0E, 0x80, 0x01, 0x76, 0x03, 0x00},
			nameTable:   0x3800,
			color:       0x2000,
			colorMask:   0x3FFF,
			pattern:     0x0800,
			patternMask: 0x3FFF,
			spriteAttr:  0x3B00,
			spritePatt:  0x1800,
		},
		{
			name:        "graphics2 full tables",
			regs:        [8]uint8{0x02, 0x40, 0x0E, 0xFF, 0x03, 0x36, 0x07, 0x00},
			nameTable:   0x3800,
			color:       0x2000,
			colorMask:   0x1FFF,
			pattern:     0x0000,
			patternMask: 0x1FFF,
			spriteAttr:  0x1B00,
			spritePatt:  0x3800,
		},
		{
			name:        "graphics2 mirrored thirds",
			regs:        [8]uint8{0x02, 0x40, 0x0E, 0x9F, 0x00, 0x36, 0x07, 0x00},
			nameTable:   0x3800,
			color:       0x2000,
			colorMask:   0x07FF,
			pattern:     0x0000,
			patternMask: 0x07FF,
			spriteAttr:  0x1B00,
			spritePatt:  0x3800,
		},
		{
			name:        "graphics2 upper pattern half",
			regs:        [8]uint8{0x02, 0x40, 0x06, 0x7F, 0x07, 0x36, 0x07, 0x00},
			nameTable:   0x1800,
			color:       0x0000,
			colorMask:   0x1FFF,
			pattern:     0x2000,
			patternMask: 0x1FFF,
			spriteAttr:  0x1B00,
			spritePatt:  0x3800,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := makeTestTMS()
			for i, r := range tt.regs {
				writeReg(v, uint8(i), r)
			}
			if v.nameTable != tt.nameTable {
				t.Errorf("name table: expected 0x%04X, got 0x%04X", tt.nameTable, v.nameTable)
			}
			if v.colorTable != tt.color || v.colorMask != tt.colorMask {
				t.Errorf("color: expected 0x%04X/0x%04X, got 0x%04X/0x%04X", tt.color, tt.colorMask, v.colorTable, v.colorMask)
			}
			if v.patternTable != tt.pattern || v.patternMask != tt.patternMask {
				t.Errorf("pattern: expected 0x%04X/0x%04X, got 0x%04X/0x%04X", tt.pattern, tt.patternMask, v.patternTable, v.patternMask)
			}
			if v.spriteAttr != tt.spriteAttr {
				t.Errorf("sprite attributes: expected 0x%04X, got 0x%04X", tt.spriteAttr, v.spriteAttr)
			}
			if v.spritePattern != tt.spritePatt {
				t.Errorf("sprite patterns: expected 0x%04X, got 0x%04X", tt.spritePatt, v.spritePattern)
			}
		})
	}
}

func TestV9938Mode(t *testing.T) {
	tests := []struct {
		r0, r1 uint8
		want   Mode
	}{
		{0x00, 0x00, ModeGraphics1},
		{0x00, r1M1, ModeText1},
		{r0M3, 0x00, ModeGraphics2},
		{r0M4, 0x00, ModeGraphics3},
		{r0M4, r1M1, ModeText2},
		{r0M3 | r0M4, 0x00, ModeGraphics4},
		{r0M5, 0x00, ModeGraphics5},
		{r0M5 | r0M3, 0x00, ModeGraphics6},
		{r0M5 | r0M4 | r0M3, 0x00, ModeGraphics7},
		{r0M5, r1M1, ModeIllegal},
	}
	for _, tt := range tests {
		if got := v9938Mode(tt.r0, tt.r1); got != tt.want {
			t.Errorf("v9938Mode(%02X, %02X) = %s, want %s", tt.r0, tt.r1, got, tt.want)
		}
	}
}

func TestModeWidths(t *testing.T) {
	v := makeTestV9938()
	writeReg(v, 1, r1Display)
	writeReg(v, 0, r0M5) // Graphics 5
	if st := v.RenderScanline(activeLine(0)); st.Width != WideLineWidth {
		t.Errorf("Graphics 5: expected width %d, got %d", WideLineWidth, st.Width)
	}
	writeReg(v, 0, r0M5|r0M4|r0M3) // Graphics 7
	if st := v.RenderScanline(activeLine(0)); st.Width != LineWidth {
		t.Errorf("Graphics 7: expected width %d, got %d", LineWidth, st.Width)
	}
}

func TestRender_Graphics7DirectColor(t *testing.T) {
	v := makeTestV9938()
	writeReg(v, 0, r0M5|r0M4|r0M3)
	writeReg(v, 1, r1Display)
	writeReg(v, 2, 0x1F)
	writeReg(v, 8, 0x02) // sprites off
	// Pixel 1 of row 0 lives in the odd bank.
	v.vram[0x10000] = 0xE0 // full green

	v.RenderScanline(activeLine(0))
	if got := v.LinePixels()[BorderWidth+1]; got != 0xE0 {
		t.Fatalf("expected raw 0xE0, got 0x%02X", got)
	}
	fb := v.Framebuffer()
	o := activeLine(0)*fb.Stride + (BorderWidth+1)*8
	if fb.Pix[o] != 0 || fb.Pix[o+1] != 0xFF || fb.Pix[o+2] != 0 {
		t.Errorf("expected pure green, got %v", fb.Pix[o:o+3])
	}
}

func TestRender_Graphics4Pixels(t *testing.T) {
	v := makeTestV9938()
	writeReg(v, 0, r0M4|r0M3)
	writeReg(v, 1, r1Display)
	writeReg(v, 2, 0x1F)
	writeReg(v, 7, 0x01)
	writeReg(v, 8, 0x02)
	v.vram[0x0080] = 0x5A // row 1, pixels 0 and 1

	v.RenderScanline(activeLine(1))
	px := v.LinePixels()[BorderWidth:]
	if px[0] != 5 || px[1] != 10 {
		t.Errorf("expected 5 10, got %d %d", px[0], px[1])
	}
	if px[2] != 1 {
		t.Errorf("color 0 should show the backdrop, got %d", px[2])
	}
}

func TestRender_VerticalScroll(t *testing.T) {
	v := makeTestV9938()
	writeReg(v, 0, r0M4|r0M3)
	writeReg(v, 1, r1Display)
	writeReg(v, 2, 0x1F)
	writeReg(v, 8, 0x02)
	v.vram[5<<7] = 0x90 // row 5

	writeReg(v, 23, 5)
	v.RenderScanline(activeLine(0))
	if got := v.LinePixels()[BorderWidth]; got != 9 {
		t.Errorf("expected row 5 shown on line 0, got %d", got)
	}
}

func TestRender_LineInterrupt(t *testing.T) {
	v := makeTestV9938()
	writeReg(v, 1, r1Display)
	writeReg(v, 19, 10)
	writeReg(v, 0, 0x10) // IE1

	for line := 0; line < activeLine(10); line++ {
		v.RenderScanline(line)
	}
	if v.Interrupt() {
		t.Fatal("line interrupt fired early")
	}
	if st := v.RenderScanline(activeLine(10)); !st.Interrupt {
		t.Fatal("expected line interrupt on active line 10")
	}

	writeReg(v, 15, 1)
	if got := v.ReadStatus(); got&0x01 == 0 {
		t.Errorf("expected S1 line flag, got 0x%02X", got)
	}
	if v.Interrupt() {
		t.Error("reading S1 must clear the line interrupt")
	}
}

func TestRender_BlinkPhase(t *testing.T) {
	v := makeTestV9938()
	writeReg(v, 0, r0M4)
	writeReg(v, 1, r1Display|r1M1) // Text 2
	writeReg(v, 13, 0x11)          // ten frames on, ten off
	for frame := 0; frame < 10; frame++ {
		renderFrame(v)
	}
	if !v.blinkOn {
		t.Fatal("expected blink phase on after ten frames")
	}
	for frame := 0; frame < 10; frame++ {
		renderFrame(v)
	}
	if v.blinkOn {
		t.Error("expected blink phase off after ten more frames")
	}
}
