package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/user-none/go-chip-sn76489"
)

// Save state format constants
const (
	stateVersion      = 1
	stateMagic        = "eM99State\x00\x00\x00"
	stateVariantOff   = 14
	stateRegionOffset = 15
	stateHeaderSize   = 20 // magic(12) + version(2) + variant(1) + region(1) + dataCRC(4)
)

// consoleSerializeSize is the inline console state: irq(1) + input(8).
const consoleSerializeSize = 9

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SerializeSize returns the total size in bytes needed for a save state.
func (c *Console) SerializeSize() int {
	return stateHeaderSize +
		c.chip.SerializeSize() +
		sn76489.SerializeSize +
		consoleSerializeSize
}

// MaxSerializeSize returns the largest save state any variant produces.
func MaxSerializeSize() int {
	largest := 0
	for _, v := range []Variant{VariantTMS9918A, VariantF18A, VariantV9938} {
		cfg := DefaultConfig()
		cfg.Variant = v
		if n := NewConsole(cfg).SerializeSize(); n > largest {
			largest = n
		}
	}
	return largest
}

// Serialize creates a save state and returns it as a byte slice.
func (c *Console) Serialize() ([]byte, error) {
	data := make([]byte, c.SerializeSize())

	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	data[stateVariantOff] = uint8(c.chip.Variant())
	data[stateRegionOffset] = uint8(c.region)

	offset := stateHeaderSize

	if err := c.chip.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += c.chip.SerializeSize()

	if err := c.psg.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += sn76489.SerializeSize

	data[offset] = boolByte(c.irq)
	offset++
	for _, in := range c.input {
		binary.LittleEndian.PutUint32(data[offset:], in)
		offset += 4
	}

	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[16:20], dataCRC)

	return data, nil
}

// Deserialize restores console state from a save state byte slice.
// Region is NOT restored - the current region setting is preserved.
func (c *Console) Deserialize(data []byte) error {
	if err := c.VerifyState(data); err != nil {
		return err
	}

	offset := stateHeaderSize

	if err := c.chip.Deserialize(data[offset:]); err != nil {
		return fmt.Errorf("video chip: %w", err)
	}
	offset += c.chip.SerializeSize()

	if err := c.psg.Deserialize(data[offset:]); err != nil {
		return fmt.Errorf("sound chip: %w", err)
	}
	offset += sn76489.SerializeSize

	c.irq = data[offset] != 0
	offset++
	for i := range c.input {
		c.input[i] = binary.LittleEndian.Uint32(data[offset:])
		offset += 4
	}

	c.chip.SetUnlimitedSprites(c.cfg.UnlimitedSprites)
	if c.cru != nil {
		c.cru.SetVDPInterrupt(c.irq)
	}
	return nil
}

// VerifyState checks whether a save state is valid without loading it.
func (c *Console) VerifyState(data []byte) error {
	if len(data) < stateHeaderSize {
		return errors.New("save state too short")
	}
	if string(data[0:12]) != stateMagic {
		return errors.New("invalid save state magic")
	}
	version := binary.LittleEndian.Uint16(data[12:14])
	if version != stateVersion {
		return fmt.Errorf("unsupported save state version %d", version)
	}
	if Variant(data[stateVariantOff]) != c.chip.Variant() {
		return fmt.Errorf("save state is for %s, console runs %s", Variant(data[stateVariantOff]), c.chip.Variant())
	}
	if len(data) < c.SerializeSize() {
		return errors.New("save state truncated")
	}
	expectedCRC := binary.LittleEndian.Uint32(data[16:20])
	if crc32.ChecksumIEEE(data[stateHeaderSize:]) != expectedCRC {
		return errors.New("save state CRC mismatch")
	}
	return nil
}

// StateVariant reads the chip variant recorded in a save state header.
func StateVariant(data []byte) (Variant, error) {
	if len(data) < stateHeaderSize || string(data[0:12]) != stateMagic {
		return VariantTMS9918A, errors.New("not a save state")
	}
	v := Variant(data[stateVariantOff])
	if v > VariantV9938 {
		return VariantTMS9918A, fmt.Errorf("unknown chip variant %d", v)
	}
	return v, nil
}
