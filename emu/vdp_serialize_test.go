package emu

import (
	"bytes"
	"testing"
)

func serializeChipState(t *testing.T, c Chip) []byte {
	t.Helper()
	buf := make([]byte, c.SerializeSize())
	if err := c.Serialize(buf); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	return buf
}

func TestChipSerializeSize(t *testing.T) {
	for _, variant := range []Variant{VariantTMS9918A, VariantF18A, VariantV9938} {
		c := NewChip(variant, DefaultConfig())
		size := c.SerializeSize()
		if size < c.VRAMSize() {
			t.Errorf("%s: size %d smaller than VRAM", variant, size)
		}
		if err := c.Serialize(make([]byte, size-1)); err == nil {
			t.Errorf("%s: expected error for a short buffer", variant)
		}
	}
}

func TestChipRoundTrip_TMS9918A(t *testing.T) {
	v := makeSpriteTMS(DefaultConfig())
	setSprite(&v.core, 0, 9, 50, 1, 15)
	setSprite(&v.core, 1, 9, 52, 1, 2)
	for line := 0; line < activeLine(12); line++ {
		v.RenderScanline(line)
	}
	setReadAddr(v, 0x0123)
	v.WriteAddress(0x77) // leave the latch half way

	state := serializeChipState(t, v)

	restored := makeTestTMS()
	if err := restored.Deserialize(state); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if !bytes.Equal(serializeChipState(t, restored), state) {
		t.Fatal("restored state serializes differently")
	}
	if !restored.latchSecond || restored.latchLow != 0x77 {
		t.Error("latch phase not restored")
	}
	if restored.status&statusC == 0 || !restored.collisionLatched {
		t.Error("collision state not restored")
	}
	if restored.Mode() != ModeGraphics1 || restored.spriteAttr != testSAT {
		t.Error("derived geometry not restored")
	}
}

func TestChipRoundTrip_F18A(t *testing.T) {
	v := makeTestF18A()
	unlockF18A(v)
	writeReg(v, 48, 0xFE)
	writeReg(v, 47, vr47DPM|vr47AutoInc|9)
	v.WriteData(0x0A) // half a palette entry

	state := serializeChipState(t, v)
	restored := makeTestF18A()
	if err := restored.Deserialize(state); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if !restored.Unlocked() {
		t.Error("unlock state not restored")
	}
	if restored.increment != -2 {
		t.Errorf("expected increment -2, got %d", restored.increment)
	}
	restored.WriteData(0xBC)
	if restored.palRegs[9] != 0xABC {
		t.Errorf("expected the pending palette byte restored, got 0x%03X", restored.palRegs[9])
	}
}

func TestChipRoundTrip_V9938MidCommand(t *testing.T) {
	v := makeCommandV9938()
	v.WritePalette(0x77)
	v.WritePalette(0x07)
	setCommand(v, cmdArgs{dx: 3, dy: 5, nx: 100, ny: 20, cl: 0x0B})
	startOp(v, opLMMV, 0x02)
	v.UpdateCommand(40000)
	if !v.CommandBusy() {
		t.Fatal("expected the command in flight")
	}

	state := serializeChipState(t, v)
	restored := makeTestV9938()
	if err := restored.Deserialize(state); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if !restored.CommandBusy() {
		t.Fatal("restored command should still be running")
	}
	if restored.palRegs[0] != 0x777 {
		t.Errorf("expected palette entry 0 restored, got 0x%03X", restored.palRegs[0])
	}

	for v.CommandBusy() {
		v.UpdateCommand(3000)
		restored.UpdateCommand(3000)
	}
	if restored.CommandBusy() {
		t.Error("restored command should finish in step with the original")
	}
	if !bytes.Equal(v.vram, restored.vram) {
		t.Error("VRAM diverged after restore")
	}
	if !bytes.Equal(v.regs, restored.regs) {
		t.Error("registers diverged after restore")
	}
}

func TestChipDeserialize_WrongVariant(t *testing.T) {
	tms := makeTestTMS()
	state := serializeChipState(t, tms)
	f18a := makeTestF18A()
	// Pad so only the variant check can fail.
	padded := make([]byte, f18a.SerializeSize())
	copy(padded, state)
	if err := f18a.Deserialize(padded); err == nil {
		t.Error("expected an error for a TMS9918A state on an F18A")
	}
}

func TestChipDeserialize_BadVersion(t *testing.T) {
	v := makeTestTMS()
	state := serializeChipState(t, v)
	state[0] = vdpSerializeVersion + 1
	if err := v.Deserialize(state); err == nil {
		t.Error("expected an error for an unknown version")
	}
}

func TestChipDeserialize_TooShort(t *testing.T) {
	v := makeTestV9938()
	if err := v.Deserialize(make([]byte, 10)); err == nil {
		t.Error("expected an error for a short buffer")
	}
}
