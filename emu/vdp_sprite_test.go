package emu

import "testing"

const testSAT = 0x1000

// makeSpriteTMS sets up Graphics 1 with the attribute table at 0x1000 and
// sprite patterns at 0x0000. Pattern 1 is a solid 8x8 block, pattern 0 is
// empty.
func makeSpriteTMS(cfg Config) *TMS9918A {
	v := NewTMS9918A(cfg)
	writeReg(v, 1, r1Display)
	writeReg(v, 2, 0x0E)
	writeReg(v, 3, 0x0E)
	writeReg(v, 4, 0x01)
	writeReg(v, 5, 0x20)
	writeReg(v, 6, 0x00)
	for i := 0; i < 8; i++ {
		v.vram[0x0008+i] = 0xFF
	}
	v.vram[testSAT] = sprite1Terminator
	return v
}

func setSprite(c *core, i int, y, x, name, attr uint8) {
	base := testSAT + i*4
	c.vram[base] = y
	c.vram[base+1] = x
	c.vram[base+2] = name
	c.vram[base+3] = attr
	c.vram[base+4] = sprite1Terminator
}

func TestSprite_Draw(t *testing.T) {
	v := makeSpriteTMS(DefaultConfig())
	setSprite(&v.core, 0, 9, 40, 1, 15) // covers lines 10-17

	v.RenderScanline(activeLine(9))
	if got := v.LinePixels()[BorderWidth+40]; got == 15 {
		t.Error("sprite must start on the line after its Y")
	}
	v.RenderScanline(activeLine(10))
	px := v.LinePixels()[BorderWidth:]
	for x := 40; x < 48; x++ {
		if px[x] != 15 {
			t.Errorf("pixel %d: expected 15, got %d", x, px[x])
		}
	}
	if px[48] == 15 {
		t.Error("sprite is only eight pixels wide")
	}
}

func TestSprite_Priority(t *testing.T) {
	v := makeSpriteTMS(DefaultConfig())
	setSprite(&v.core, 0, 9, 50, 1, 15)
	setSprite(&v.core, 1, 9, 50, 1, 2)
	v.RenderScanline(activeLine(12))
	if got := v.LinePixels()[BorderWidth+50]; got != 15 {
		t.Errorf("lower numbered sprite should win, got %d", got)
	}
}

func TestSprite_EarlyClock(t *testing.T) {
	v := makeSpriteTMS(DefaultConfig())
	setSprite(&v.core, 0, 9, 40, 1, 0x80|6)
	v.RenderScanline(activeLine(10))
	if got := v.LinePixels()[BorderWidth+8]; got != 6 {
		t.Errorf("early clock sprite should start at x=8, got %d", got)
	}
}

func TestSprite_Magnify(t *testing.T) {
	v := makeSpriteTMS(DefaultConfig())
	writeReg(v, 1, r1Display|r1Magnify)
	setSprite(&v.core, 0, 9, 0, 1, 9)
	v.RenderScanline(activeLine(25))
	px := v.LinePixels()[BorderWidth:]
	if px[15] != 9 {
		t.Errorf("magnified sprite should be 16 pixels wide, got %d at x=15", px[15])
	}
	v.RenderScanline(activeLine(26))
	if v.LinePixels()[BorderWidth] == 9 {
		t.Error("magnified sprite should be 16 lines tall")
	}
}

func TestSprite_Terminator(t *testing.T) {
	v := makeSpriteTMS(DefaultConfig())
	setSprite(&v.core, 1, 9, 40, 1, 15)
	v.vram[testSAT] = sprite1Terminator
	v.RenderScanline(activeLine(10))
	if got := v.LinePixels()[BorderWidth+40]; got == 15 {
		t.Error("sprites after the terminator must not be drawn")
	}
}

func TestSprite_FifthSpriteFlag(t *testing.T) {
	v := makeSpriteTMS(DefaultConfig())
	for i := 0; i < 5; i++ {
		setSprite(&v.core, i, 9, uint8(i*20), 0, 15)
	}
	v.RenderScanline(activeLine(10))
	if v.status&status5S == 0 {
		t.Fatal("expected 5S set")
	}
	if got := v.status & statusSpriteNum; got != 4 {
		t.Errorf("expected fifth sprite number 4, got %d", got)
	}
}

func TestSprite_FifthSpriteNumberHeld(t *testing.T) {
	v := makeSpriteTMS(DefaultConfig())
	for i := 0; i < 5; i++ {
		setSprite(&v.core, i, 9, uint8(i*20), 0, 15)
	}
	v.status = status5S | 2
	v.RenderScanline(activeLine(10))
	if got := v.status & statusSpriteNum; got != 2 {
		t.Errorf("sprite number must not change while 5S is set, got %d", got)
	}
}

func TestSprite_LimitDropsFifth(t *testing.T) {
	v := makeSpriteTMS(DefaultConfig())
	for i := 0; i < 4; i++ {
		setSprite(&v.core, i, 9, uint8(i*20), 0, 15)
	}
	setSprite(&v.core, 4, 9, 100, 1, 15)
	v.RenderScanline(activeLine(10))
	if got := v.LinePixels()[BorderWidth+100]; got == 15 {
		t.Error("fifth sprite must be dropped")
	}
}

func TestSprite_Unlimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UnlimitedSprites = true
	v := makeSpriteTMS(cfg)
	for i := 0; i < 4; i++ {
		setSprite(&v.core, i, 9, uint8(i*20), 0, 15)
	}
	setSprite(&v.core, 4, 9, 100, 1, 15)
	v.RenderScanline(activeLine(10))
	if got := v.LinePixels()[BorderWidth+100]; got != 15 {
		t.Errorf("fifth sprite should be drawn, got %d", got)
	}
	if v.status&status5S == 0 || v.status&statusSpriteNum != 4 {
		t.Errorf("overflow should still be reported, status 0x%02X", v.status)
	}
}

func TestSprite_CollisionOncePerFrame(t *testing.T) {
	v := makeSpriteTMS(DefaultConfig())
	setSprite(&v.core, 0, 9, 50, 1, 15)
	setSprite(&v.core, 1, 9, 54, 1, 2)

	v.RenderScanline(activeLine(10))
	if v.status&statusC == 0 {
		t.Fatal("expected collision")
	}
	v.ReadStatus()
	v.RenderScanline(activeLine(11))
	if v.status&statusC != 0 {
		t.Error("collision must only be reported once per frame")
	}

	v.RenderScanline(0)
	v.RenderScanline(activeLine(10))
	if v.status&statusC == 0 {
		t.Error("collision should be reported again in the next frame")
	}
}

func TestSprite_TransparentStillCollides(t *testing.T) {
	v := makeSpriteTMS(DefaultConfig())
	setSprite(&v.core, 0, 9, 50, 1, 0)
	setSprite(&v.core, 1, 9, 50, 1, 2)
	v.RenderScanline(activeLine(10))
	if v.status&statusC == 0 {
		t.Error("transparent sprites still collide")
	}
	if got := v.LinePixels()[BorderWidth+50]; got != 2 {
		t.Errorf("transparent sprite should reveal the one behind, got %d", got)
	}
}

// makeSpriteV9938 sets up Graphics 4 with the attribute table at 0x7600,
// the color table at 0x7400 and patterns at 0x7800.
func makeSpriteV9938() *V9938 {
	v := makeTestV9938()
	writeReg(v, 0, r0M4|r0M3)
	writeReg(v, 1, r1Display)
	writeReg(v, 2, 0x1F)
	writeReg(v, 5, 0xEF)
	writeReg(v, 6, 0x0F)
	for i := 0; i < 8; i++ {
		v.vram[0x7808+i] = 0xFF
	}
	v.vram[0x7600] = sprite2Terminator
	return v
}

func setSprite2(v *V9938, i int, y, x, name, color uint8) {
	base := 0x7600 + i*4
	v.vram[base] = y
	v.vram[base+1] = x
	v.vram[base+2] = name
	v.vram[base+4] = sprite2Terminator
	for line := 0; line < 16; line++ {
		v.vram[0x7400+i*16+line] = color
	}
}

func TestSprite2_Tables(t *testing.T) {
	v := makeSpriteV9938()
	if v.spriteAttr != 0x7600 || v.spriteColors != 0x7400 {
		t.Errorf("expected tables 0x7600/0x7400, got 0x%05X/0x%05X", v.spriteAttr, v.spriteColors)
	}
}

func TestSprite2_NinthSpriteFlag(t *testing.T) {
	v := makeSpriteV9938()
	for i := 0; i < 9; i++ {
		setSprite2(v, i, 9, uint8(i*20), 0, 15)
	}
	v.RenderScanline(activeLine(10))
	if v.status&status5S == 0 {
		t.Fatal("expected overflow flag")
	}
	if got := v.status & statusSpriteNum; got != 8 {
		t.Errorf("expected ninth sprite number 8, got %d", got)
	}
}

func TestSprite2_ColorPerLine(t *testing.T) {
	v := makeSpriteV9938()
	setSprite2(v, 0, 9, 30, 1, 7)
	v.vram[0x7400+3] = 12 // fourth sprite line
	v.RenderScanline(activeLine(10))
	if got := v.LinePixels()[BorderWidth+30]; got != 7 {
		t.Errorf("line 0: expected 7, got %d", got)
	}
	v.RenderScanline(activeLine(13))
	if got := v.LinePixels()[BorderWidth+30]; got != 12 {
		t.Errorf("line 3: expected 12, got %d", got)
	}
}

func TestSprite2_ColorMerge(t *testing.T) {
	v := makeSpriteV9938()
	setSprite2(v, 0, 9, 10, 1, 0x01)
	setSprite2(v, 1, 9, 10, 1, 0x40|0x02)
	v.RenderScanline(activeLine(10))
	if got := v.LinePixels()[BorderWidth+10]; got != 3 {
		t.Errorf("expected merged color 3, got %d", got)
	}
	if v.status&statusC != 0 {
		t.Error("merged sprites must not collide")
	}
}

func TestSprite2_MergeNeedsLeader(t *testing.T) {
	v := makeSpriteV9938()
	setSprite2(v, 0, 9, 10, 1, 0x40|0x02)
	v.RenderScanline(activeLine(10))
	if got := v.LinePixels()[BorderWidth+10]; got == 2 {
		t.Error("a merge sprite without a leader must not be drawn")
	}
}

func TestSprite2_IgnoreCollision(t *testing.T) {
	v := makeSpriteV9938()
	setSprite2(v, 0, 9, 10, 1, 0x20|0x05)
	setSprite2(v, 1, 9, 12, 1, 0x06)
	v.RenderScanline(activeLine(10))
	if v.status&statusC != 0 {
		t.Error("IC sprites must not collide")
	}
}

func TestSprite2_Disabled(t *testing.T) {
	v := makeSpriteV9938()
	setSprite2(v, 0, 9, 10, 1, 0x05)
	writeReg(v, 8, 0x02)
	v.RenderScanline(activeLine(10))
	if got := v.LinePixels()[BorderWidth+10]; got == 5 {
		t.Error("sprites should be hidden while SPD is set")
	}
}

func TestSprite_DisabledInMode1(t *testing.T) {
	v := makeTestV9938()
	for reg, val := range []uint8{0x00, r1Display, 0x0E, 0x0E, 0x01, 0x20, 0x00} {
		writeReg(v, uint8(reg), val)
	}
	for i := 0; i < 8; i++ {
		v.vram[0x0008+i] = 0xFF
	}
	setSprite(&v.core, 0, 9, 10, 1, 5)

	v.RenderScanline(activeLine(10))
	if got := v.LinePixels()[BorderWidth+10]; got != 5 {
		t.Fatalf("expected the Graphics 1 sprite drawn, got %d", got)
	}

	writeReg(v, 8, 0x02)
	v.RenderScanline(activeLine(10))
	if got := v.LinePixels()[BorderWidth+10]; got == 5 {
		t.Error("sprites should be hidden in mode 1 while SPD is set")
	}
}
