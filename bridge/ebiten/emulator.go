// Package ebiten draws the console framebuffer with Ebiten.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/em99/emu"
)

// Emulator wraps a console with Ebiten-specific drawing.
type Emulator struct {
	*emu.Console

	offscreen *ebiten.Image
	drawOpts  ebiten.DrawImageOptions

	// aspect is the horizontal stretch applied to the native frame so
	// 576 doubled pixels fill a 4:3 picture.
	aspect float64
}

// NewEmulator creates a console for cfg. A non-empty state is restored
// into it; the variant recorded in the state wins over cfg.Variant.
func NewEmulator(cfg emu.Config, state []byte) (*Emulator, error) {
	if len(state) > 0 {
		variant, err := emu.StateVariant(state)
		if err != nil {
			return nil, err
		}
		cfg.Variant = variant
	}

	c := emu.NewConsole(cfg)
	if len(state) > 0 {
		if err := c.Deserialize(state); err != nil {
			return nil, err
		}
	}
	return &Emulator{
		Console: c,
		aspect:  (4.0 / 3.0) / (float64(emu.ScreenWidth) / float64(emu.FrameHeight)),
	}, nil
}

// Layout implements ebiten.Game.
func (e *Emulator) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// DrawCachedFramebuffer scales a frame copied out by the emulation
// goroutine onto screen, letterboxed and with nearest filtering.
func (e *Emulator) DrawCachedFramebuffer(screen *ebiten.Image, pixels []byte, stride, height int) {
	if height == 0 || stride == 0 || len(pixels) < stride*height {
		return
	}
	width := stride / 4

	if e.offscreen == nil || e.offscreen.Bounds().Dx() != width || e.offscreen.Bounds().Dy() != height {
		e.offscreen = ebiten.NewImage(width, height)
	}
	e.offscreen.WritePixels(pixels[:stride*height])

	nativeW := float64(width) * e.aspect
	nativeH := float64(height)
	screenW := float64(screen.Bounds().Dx())
	screenH := float64(screen.Bounds().Dy())
	scale := min(screenW/nativeW, screenH/nativeH)

	e.drawOpts = ebiten.DrawImageOptions{}
	e.drawOpts.GeoM.Scale(e.aspect*scale, scale)
	e.drawOpts.GeoM.Translate((screenW-nativeW*scale)/2, (screenH-nativeH*scale)/2)
	e.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(e.offscreen, &e.drawOpts)
}
