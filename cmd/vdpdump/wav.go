package main

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Console audio is 16-bit stereo at 48 kHz.
const (
	wavSampleRate = 48000
	wavBitDepth   = 16
	wavChannels   = 2
	wavPCM        = 1
)

// wavRecorder collects the samples of every frame run.
type wavRecorder struct {
	samples []int
}

func (r *wavRecorder) add(frame []int16) {
	for _, s := range frame {
		r.samples = append(r.samples, int(s))
	}
}

// writeTo encodes the collected samples as a PCM WAV file.
func (r *wavRecorder) writeTo(w io.WriteSeeker) error {
	enc := wav.NewEncoder(w, wavSampleRate, wavBitDepth, wavChannels, wavPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: wavChannels, SampleRate: wavSampleRate},
		Data:           r.samples,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
