// Package cli provides a command-line viewer for the video subsystem.
// It polls input, paces frames against audio and draws from a shared
// framebuffer without the full UI.
package cli

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	emubridge "github.com/user-none/em99/bridge/ebiten"
	"github.com/user-none/em99/emu"
	"github.com/user-none/em99/logger"
	"github.com/user-none/em99/snapshot"
	"github.com/user-none/em99/ui"
)

// ADT buffer thresholds in bytes.
const (
	adtMinBuffer = 9600
	adtMaxBuffer = 19200
)

// quickSlot is the snapshot slot used by the save and load keys.
const quickSlot = 0

// Runner drives an emulator for command-line mode. The console runs on a
// dedicated goroutine with audio-driven timing; the Ebiten thread polls
// input and draws from the shared framebuffer.
type Runner struct {
	emulator    *emubridge.Emulator
	audioPlayer *ui.AudioPlayer
	store       *snapshot.Store

	emuControl        *ui.EmuControl
	sharedInput       *ui.SharedInput
	sharedFramebuffer *ui.SharedFramebuffer
	emuDone           chan struct{}
}

// NewRunner starts emulating e. store may be nil, which disables the
// snapshot keys. Audio failure is non-fatal.
func NewRunner(e *emubridge.Emulator, store *snapshot.Store) *Runner {
	player, err := ui.NewAudioPlayer(1.0)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	}

	r := &Runner{
		emulator:          e,
		audioPlayer:       player,
		store:             store,
		emuControl:        ui.NewEmuControl(),
		sharedInput:       &ui.SharedInput{},
		sharedFramebuffer: ui.NewSharedFramebuffer(),
		emuDone:           make(chan struct{}),
	}

	go r.emulationLoop()

	return r
}

// Close stops the emulation goroutine and audio.
func (r *Runner) Close() {
	if r.emuControl != nil {
		r.emuControl.Stop()
		<-r.emuDone
	}

	if r.audioPlayer != nil {
		r.audioPlayer.Close()
		r.audioPlayer = nil
	}
}

// emulationLoop runs on a dedicated goroutine with ADT.
func (r *Runner) emulationLoop() {
	defer close(r.emuDone)

	timing := r.emulator.GetTiming()
	frameTime := time.Duration(float64(time.Second) / float64(timing.FPS))
	lastFrameTime := time.Now()

	for {
		if !r.emuControl.CheckPause() {
			return
		}

		for p := 0; p < r.sharedInput.Players(); p++ {
			r.emulator.SetInput(p, r.sharedInput.Read(p))
		}

		r.emulator.RunFrame()

		if r.audioPlayer != nil {
			r.audioPlayer.QueueSamples(r.emulator.GetAudioSamples())
		}

		r.sharedFramebuffer.Update(
			r.emulator.GetFramebuffer(),
			r.emulator.GetFramebufferStride(),
			r.emulator.GetActiveHeight(),
		)

		elapsed := time.Since(lastFrameTime)
		sleepTime := frameTime - elapsed

		if r.audioPlayer != nil {
			bufferLevel := r.audioPlayer.GetBufferLevel()
			if bufferLevel < adtMinBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 0.9)
			} else if bufferLevel > adtMaxBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 1.1)
			}
		}

		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}

		lastFrameTime = time.Now()
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	r.pollInputToShared()
	r.pollHotkeys()
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	pixels, stride, height := r.sharedFramebuffer.Read()
	if height == 0 {
		return
	}
	r.emulator.DrawCachedFramebuffer(screen, pixels, stride, height)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.emulator.Layout(outsideWidth, outsideHeight)
}

// paused runs fn with the emulation goroutine parked between frames.
func (r *Runner) paused(fn func()) {
	wasPaused := r.emuControl.IsPaused()
	r.emuControl.RequestPause()
	fn()
	if !wasPaused {
		r.emuControl.RequestResume()
	}
}

// pollHotkeys handles the viewer keys:
//
//	Space  pause / resume
//	M      mute
//	F1     register dump to stdout
//	F2     diagnostics log to stdout
//	F5/F9  save / load the quick slot
func (r *Runner) pollHotkeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if r.emuControl.IsPaused() {
			r.emuControl.RequestResume()
		} else {
			r.emuControl.RequestPause()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		if r.audioPlayer != nil {
			r.audioPlayer.SetMuted(!r.audioPlayer.Muted())
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF1):
		r.paused(func() {
			os.Stdout.WriteString(r.emulator.Chip().DumpRegisters())
		})
	case inpututil.IsKeyJustPressed(ebiten.KeyF2):
		logger.Write(os.Stdout)
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		if r.store != nil {
			r.paused(r.saveQuick)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		if r.store != nil {
			r.paused(r.loadQuick)
		}
	}
}

func (r *Runner) saveQuick() {
	state, err := r.emulator.Serialize()
	if err == nil {
		err = r.store.Save(quickSlot, state)
	}
	if err != nil {
		logger.Logf("viewer", "save failed: %v", err)
		return
	}
	logger.Logf("viewer", "saved slot %d", quickSlot)
}

func (r *Runner) loadQuick() {
	state, err := r.store.Load(quickSlot)
	if err == nil {
		err = r.emulator.Deserialize(state)
	}
	switch {
	case errors.Is(err, snapshot.ErrEmptySlot):
		logger.Logf("viewer", "slot %d is empty", quickSlot)
	case err != nil:
		logger.Logf("viewer", "load failed: %v", err)
	default:
		logger.Logf("viewer", "loaded slot %d", quickSlot)
	}
}

// pollInputToShared reads the keyboard and gamepads into joystick masks.
// The keyboard drives joystick 1; gamepad n drives joystick n+1.
func (r *Runner) pollInputToShared() {
	var keys uint32
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		keys |= emu.JoyUp
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		keys |= emu.JoyDown
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		keys |= emu.JoyLeft
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		keys |= emu.JoyRight
	}
	if ebiten.IsKeyPressed(ebiten.KeyJ) || ebiten.IsKeyPressed(ebiten.KeyTab) {
		keys |= emu.JoyFire
	}

	masks := make([]uint32, r.sharedInput.Players())
	masks[0] = keys

	for i, id := range ebiten.AppendGamepadIDs(nil) {
		if i >= len(masks) {
			break
		}
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		masks[i] |= gamepadMask(id)
	}

	for p, m := range masks {
		r.sharedInput.Set(p, m)
	}
}

// gamepadMask maps the d-pad, left stick and face buttons of a standard
// layout gamepad.
func gamepadMask(id ebiten.GamepadID) uint32 {
	var m uint32
	pressed := func(b ebiten.StandardGamepadButton) bool {
		return ebiten.IsStandardGamepadButtonPressed(id, b)
	}

	if pressed(ebiten.StandardGamepadButtonLeftTop) {
		m |= emu.JoyUp
	}
	if pressed(ebiten.StandardGamepadButtonLeftBottom) {
		m |= emu.JoyDown
	}
	if pressed(ebiten.StandardGamepadButtonLeftLeft) {
		m |= emu.JoyLeft
	}
	if pressed(ebiten.StandardGamepadButtonLeftRight) {
		m |= emu.JoyRight
	}
	if pressed(ebiten.StandardGamepadButtonRightBottom) || pressed(ebiten.StandardGamepadButtonRightRight) {
		m |= emu.JoyFire
	}

	const deadzone = 0.5
	axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	if axisX < -deadzone {
		m |= emu.JoyLeft
	}
	if axisX > deadzone {
		m |= emu.JoyRight
	}
	if axisY < -deadzone {
		m |= emu.JoyUp
	}
	if axisY > deadzone {
		m |= emu.JoyDown
	}
	return m
}
