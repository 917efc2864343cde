package emu

import (
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/go-chip-sn76489"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*Console)(nil)
var _ emucore.SaveStater = (*Console)(nil)
var _ emucore.MemoryInspector = (*Console)(nil)
var _ emucore.MemoryMapper = (*Console)(nil)

// HostCPU is the external CPU interpreter. StepCycles runs at most budget
// cycles and returns the number consumed; zero means the CPU is halted.
// The CPU reaches the video and sound chips through Console.ReadIO and
// Console.WriteIO.
type HostCPU interface {
	StepCycles(budget int) int
}

// InterruptController receives the VDP interrupt line.
type InterruptController interface {
	SetVDPInterrupt(asserted bool)
}

// Memory mapped I/O addresses. The read and write windows mirror every
// 1 KiB; bits 1-2 select the port.
const (
	ioSound       = 0x8400
	ioReadData    = 0x8800
	ioReadStatus  = 0x8802
	ioWriteData   = 0x8C00
	ioWriteAddr   = 0x8C02
	ioPalette     = 0x8C04
	ioRegIndirect = 0x8C06

	ioWindowMask = 0xFC00
)

// Joystick bits stored by SetInput, in the order the eblitui button IDs
// use them.
const (
	JoyUp    = 1 << 0
	JoyDown  = 1 << 1
	JoyLeft  = 1 << 2
	JoyRight = 1 << 3
	JoyFire  = 1 << 4
)

// Console drives a VDP variant and the sound chip one scanline at a time
// on behalf of an external CPU.
type Console struct {
	cfg  Config
	chip Chip
	cmd  CommandEngine
	ext  ExtendedPorts
	psg  *sn76489.SN76489

	cpu HostCPU
	cru InterruptController
	irq bool

	cpuCyclesPerScanline int
	psgCyclesPerScanline int

	region Region
	timing RegionTiming

	input [2]uint32

	// Pre-allocated audio buffer for external consumption
	audioBuffer []int16
}

// NewConsole creates a console around the variant selected by cfg.
func NewConsole(cfg Config) *Console {
	if cfg.CommandBudget <= 0 {
		cfg.CommandBudget = DefaultCommandBudget
	}
	chip := NewChip(cfg.Variant, cfg)
	timing := GetTimingForRegion(cfg.Region)
	psg := sn76489.New(timing.PSGClockHz, sampleRate, psgBufferSize, sn76489.Sega)
	psg.SetGain(psgGain)

	c := &Console{
		cfg:         cfg,
		chip:        chip,
		psg:         psg,
		audioBuffer: make([]int16, 0, 2048),
	}
	c.cmd, _ = chip.(CommandEngine)
	c.ext, _ = chip.(ExtendedPorts)
	c.SetRegion(cfg.Region)
	return c
}

// Chip returns the video chip.
func (c *Console) Chip() Chip {
	return c.chip
}

// SetCPU attaches the CPU interpreter. Without one, frames only render.
func (c *Console) SetCPU(cpu HostCPU) {
	c.cpu = cpu
}

// SetInterruptController attaches the receiver of the VDP interrupt line.
func (c *Console) SetInterruptController(cru InterruptController) {
	c.cru = cru
	if cru != nil {
		cru.SetVDPInterrupt(c.irq)
	}
}

// ReadIO services a CPU read in the memory mapped I/O window.
func (c *Console) ReadIO(addr uint16) uint8 {
	if addr&ioWindowMask != ioReadData {
		return 0
	}
	var val uint8
	if addr&0x0002 != 0 {
		val = c.chip.ReadStatus()
	} else {
		val = c.chip.ReadData()
	}
	c.syncInterrupt()
	return val
}

// WriteIO services a CPU write in the memory mapped I/O window. Chips
// without the extended ports only decode bit 1.
func (c *Console) WriteIO(addr uint16, val uint8) {
	switch addr & ioWindowMask {
	case ioSound:
		c.psg.Write(val)
	case ioWriteData:
		port := ioWriteData | addr&0x0006
		if c.ext == nil {
			port = ioWriteData | addr&0x0002
		}
		switch port {
		case ioWriteData:
			c.chip.WriteData(val)
		case ioWriteAddr:
			c.chip.WriteAddress(val)
		case ioPalette:
			c.ext.WritePalette(val)
		case ioRegIndirect:
			c.ext.WriteRegisterIndirect(val)
		}
		c.syncInterrupt()
	}
}

// syncInterrupt forwards a change of the chip's interrupt output.
func (c *Console) syncInterrupt() {
	irq := c.chip.Interrupt()
	if irq == c.irq {
		return
	}
	c.irq = irq
	if c.cru != nil {
		c.cru.SetVDPInterrupt(irq)
	}
}

// RunFrame executes one frame: per scanline a CPU slice, a command engine
// budget, the scanline itself and the sound chip.
func (c *Console) RunFrame() {
	c.audioBuffer = c.audioBuffer[:0]
	c.psg.ResetBuffer()

	for line := 0; line < c.timing.Scanlines; line++ {
		if c.cpu != nil {
			budget := c.cpuCyclesPerScanline
			for budget > 0 {
				consumed := c.cpu.StepCycles(budget)
				if consumed <= 0 {
					break // CPU halted
				}
				budget -= consumed
			}
		}

		if c.cmd != nil {
			c.cmd.UpdateCommand(c.cfg.CommandBudget)
		}

		c.chip.RenderScanline(line)
		c.syncInterrupt()

		c.psg.Run(c.psgCyclesPerScanline)
	}

	c.mixAudio()
}

// SetInput stores the button mask for a player. The CPU side reads it
// through Joystick.
func (c *Console) SetInput(player int, buttons uint32) {
	if player < 0 || player >= len(c.input) {
		return
	}
	c.input[player] = buttons
}

// Joystick returns the last button mask set for player.
func (c *Console) Joystick(player int) uint32 {
	if player < 0 || player >= len(c.input) {
		return 0
	}
	return c.input[player]
}

// GetFramebuffer returns raw RGBA pixel data for current frame.
func (c *Console) GetFramebuffer() []byte {
	return c.chip.GetFramebuffer()
}

// GetFramebufferStride returns the stride (bytes per row) of the framebuffer.
func (c *Console) GetFramebufferStride() int {
	return c.chip.GetStride()
}

// GetActiveHeight returns the framebuffer height. Borders are part of the
// picture so it does not change with the display mode.
func (c *Console) GetActiveHeight() int {
	return FrameHeight
}

// GetRegion returns the emulator's region setting.
func (c *Console) GetRegion() Region {
	return c.region
}

// GetTiming returns FPS and scanline count for the current region.
func (c *Console) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       c.timing.FPS,
		Scanlines: c.timing.Scanlines,
	}
}

// SetRegion updates the emulator's region configuration.
func (c *Console) SetRegion(region Region) {
	c.region = region
	c.timing = GetTimingForRegion(region)
	c.cpuCyclesPerScanline = c.timing.CPUClockHz / c.timing.FPS / c.timing.Scanlines
	c.psgCyclesPerScanline = c.timing.PSGClockHz / c.timing.FPS / c.timing.Scanlines
}

// SetOption applies a core option change identified by key.
func (c *Console) SetOption(key string, value string) {
	switch key {
	case "unlimited_sprites":
		c.cfg.UnlimitedSprites = value == "true"
		c.chip.SetUnlimitedSprites(c.cfg.UnlimitedSprites)
	}
}

// Close releases any resources held by the emulator.
func (c *Console) Close() {}

// ReadMemory reads VRAM from a flat address into buf and returns the
// number of bytes read.
func (c *Console) ReadMemory(addr uint32, buf []byte) uint32 {
	size := uint32(c.chip.VRAMSize())
	var count uint32
	for i := range buf {
		cur := addr + uint32(i)
		if cur >= size {
			break
		}
		buf[i] = c.chip.ReadVRAM(int(cur))
		count++
	}
	return count
}

// MemoryMap lists VRAM as the system memory region.
func (c *Console) MemoryMap() []emucore.MemoryRegion {
	return []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: c.chip.VRAMSize()},
	}
}

// ReadRegion returns a copy of the specified memory region.
func (c *Console) ReadRegion(regionType int) []byte {
	if regionType != emucore.MemorySystemRAM {
		return nil
	}
	out := make([]byte, c.chip.VRAMSize())
	c.ReadMemory(0, out)
	return out
}

// WriteRegion writes data to the specified memory region.
func (c *Console) WriteRegion(regionType int, data []byte) {
	if regionType != emucore.MemorySystemRAM {
		return
	}
	for i := 0; i < len(data) && i < c.chip.VRAMSize(); i++ {
		c.chip.WriteVRAM(i, data[i])
	}
}
