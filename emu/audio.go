package emu

const (
	sampleRate    = 48000
	psgBufferSize = 1024
	psgGain       = 1898.0
)

// mixAudio copies the mono PSG output into the stereo buffer.
func (c *Console) mixAudio() {
	psgBuf, psgCount := c.psg.GetBuffer()
	for i := 0; i < psgCount; i++ {
		s := int16(psgBuf[i])
		c.audioBuffer = append(c.audioBuffer, s, s)
	}
}

// GetAudioSamples returns accumulated audio samples as 16-bit stereo PCM.
func (c *Console) GetAudioSamples() []int16 {
	return c.audioBuffer
}
