package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// The console mixes 48 kHz stereo; oto plays exactly that format.
const (
	audioSampleRate = 48000
	audioChannels   = 2
)

// ringBufferCapacity holds about 170 ms of audio.
const ringBufferCapacity = 32768

// playerBufferSize is oto's own read-ahead, 100 ms.
const playerBufferSize = 19200

// AudioPlayer feeds console samples to oto through a ring buffer that
// oto's player pulls from.
type AudioPlayer struct {
	player  *oto.Player
	ring    *AudioRingBuffer
	scratch []byte
	muted   bool
}

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// otoContext creates the process wide oto context on first use. oto allows
// only one per process.
func otoContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   audioSampleRate,
			ChannelCount: audioChannels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		})
		if otoErr == nil {
			<-ready
		}
	})
	return otoCtx, otoErr
}

// NewAudioPlayer starts playback at the given volume (0.0 to 1.0).
func NewAudioPlayer(volume float64) (*AudioPlayer, error) {
	ctx, err := otoContext()
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	ring := NewAudioRingBuffer(ringBufferCapacity)
	player := ctx.NewPlayer(ring)
	player.SetBufferSize(playerBufferSize)
	player.SetVolume(volume)
	player.Play()

	return &AudioPlayer{
		player:  player,
		ring:    ring,
		scratch: make([]byte, 0, 4096),
	}, nil
}

// QueueSamples queues interleaved stereo samples for playback. Muted
// players discard them so the buffer level, and with it frame pacing,
// stays as if playing.
func (a *AudioPlayer) QueueSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}
	a.scratch = appendPCM(a.scratch[:0], samples, a.muted)
	a.ring.Write(a.scratch)
}

// appendPCM appends samples as little endian bytes, or silence.
func appendPCM(dst []byte, samples []int16, silent bool) []byte {
	for _, s := range samples {
		if silent {
			s = 0
		}
		dst = append(dst, byte(s), byte(s>>8))
	}
	return dst
}

// GetBufferLevel returns the bytes queued in the ring buffer and inside
// oto. Frame pacing steers on it.
func (a *AudioPlayer) GetBufferLevel() int {
	return a.ring.Buffered() + a.player.BufferedSize()
}

// SetVolume sets the playback volume (0.0 = silent, 1.0 = full).
func (a *AudioPlayer) SetVolume(vol float64) {
	a.player.SetVolume(vol)
}

// SetMuted replaces queued samples with silence while set.
func (a *AudioPlayer) SetMuted(muted bool) {
	a.muted = muted
}

// Muted reports whether the player is muted.
func (a *AudioPlayer) Muted() bool {
	return a.muted
}

// Close stops playback.
func (a *AudioPlayer) Close() {
	if a.ring != nil {
		a.ring.Close()
	}
	if a.player != nil {
		a.player.Close()
	}
}
