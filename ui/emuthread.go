package ui

import (
	"sync"

	"github.com/user-none/em99/emu"
)

// SharedInput holds joystick masks written by the Ebiten thread and read
// by the emulation goroutine.
type SharedInput struct {
	mu      sync.Mutex
	buttons [2]uint32
}

// Set stores the button mask for player. Other players are unchanged.
func (si *SharedInput) Set(player int, buttons uint32) {
	if player < 0 || player >= len(si.buttons) {
		return
	}
	si.mu.Lock()
	si.buttons[player] = buttons
	si.mu.Unlock()
}

// Read returns the mask last stored for player.
func (si *SharedInput) Read(player int) uint32 {
	if player < 0 || player >= len(si.buttons) {
		return 0
	}
	si.mu.Lock()
	b := si.buttons[player]
	si.mu.Unlock()
	return b
}

// Players returns the number of joysticks held.
func (si *SharedInput) Players() int {
	return len(si.buttons)
}

// SharedFramebuffer holds pixel data written by the emulation goroutine
// and read by Ebiten's Draw() method. Uses separate write and read buffers
// so the emu goroutine can write new data while Draw uses the read copy.
type SharedFramebuffer struct {
	mu           sync.Mutex
	writePixels  []byte // Written by emu goroutine under lock
	readPixels   []byte // Snapshot copied on Read for safe external use
	stride       int
	activeHeight int
}

// NewSharedFramebuffer creates a framebuffer large enough for a full frame
// including borders.
func NewSharedFramebuffer() *SharedFramebuffer {
	return &SharedFramebuffer{
		writePixels: make([]byte, emu.ScreenWidth*emu.FrameHeight*4),
		readPixels:  make([]byte, emu.ScreenWidth*emu.FrameHeight*4),
	}
}

// Update copies framebuffer data from the emulation goroutine.
func (sf *SharedFramebuffer) Update(pixels []byte, stride, activeHeight int) {
	sf.mu.Lock()
	n := stride * activeHeight
	if n > len(sf.writePixels) {
		n = len(sf.writePixels)
	}
	if n > len(pixels) {
		n = len(pixels)
	}
	copy(sf.writePixels[:n], pixels[:n])
	sf.stride = stride
	sf.activeHeight = activeHeight
	sf.mu.Unlock()
}

// Read returns a snapshot of the current framebuffer state.
// Copies the write buffer into the read buffer under the lock,
// then returns the read buffer which is safe to use without holding the lock.
func (sf *SharedFramebuffer) Read() (pixels []byte, stride, activeHeight int) {
	sf.mu.Lock()
	stride = sf.stride
	activeHeight = sf.activeHeight
	n := stride * activeHeight
	if n > len(sf.writePixels) {
		n = len(sf.writePixels)
	}
	if n > 0 {
		copy(sf.readPixels[:n], sf.writePixels[:n])
	}
	pixels = sf.readPixels
	sf.mu.Unlock()
	return
}

// EmuControl parks and stops the emulation goroutine on behalf of the
// Ebiten thread. The goroutine polls it between frames.
type EmuControl struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pauseReq bool
	paused   bool
	stopped  bool
}

// NewEmuControl creates a control for a running goroutine.
func NewEmuControl() *EmuControl {
	ec := &EmuControl{}
	ec.cond = sync.NewCond(&ec.mu)
	return ec
}

// RequestPause asks the emulation goroutine to pause and blocks until it
// is parked between frames.
func (ec *EmuControl) RequestPause() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.stopped {
		return
	}
	ec.pauseReq = true
	for !ec.paused && !ec.stopped {
		ec.cond.Wait()
	}
}

// RequestResume releases a paused goroutine.
func (ec *EmuControl) RequestResume() {
	ec.mu.Lock()
	ec.pauseReq = false
	ec.cond.Broadcast()
	ec.mu.Unlock()
}

// CheckPause is called by the emulation goroutine between frames. It
// parks while a pause is requested and returns false once the goroutine
// should exit.
func (ec *EmuControl) CheckPause() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	for ec.pauseReq && !ec.stopped {
		if !ec.paused {
			ec.paused = true
			ec.cond.Broadcast()
		}
		ec.cond.Wait()
	}
	ec.paused = false
	return !ec.stopped
}

// Stop makes the next CheckPause return false, waking a parked goroutine.
func (ec *EmuControl) Stop() {
	ec.mu.Lock()
	ec.stopped = true
	ec.pauseReq = false
	ec.cond.Broadcast()
	ec.mu.Unlock()
}

// IsPaused reports whether the emulation goroutine is parked.
func (ec *EmuControl) IsPaused() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.paused
}
