package ui

import (
	"io"
	"sync"
)

// frameBytes is one stereo frame of 16-bit samples. Overflow drops whole
// frames so the channels never swap.
const frameBytes = 4

// AudioRingBuffer is a byte FIFO between the emulation goroutine (Write)
// and oto's pull reader (Read). Read blocks while empty; Write never
// blocks and drops the oldest frames when full.
type AudioRingBuffer struct {
	mu   sync.Mutex
	cond *sync.Cond

	buf   []byte
	head  int // next byte to read
	count int

	dropped int
	closed  bool
}

// NewAudioRingBuffer creates a ring buffer holding capacity bytes, rounded
// down to whole stereo frames.
func NewAudioRingBuffer(capacity int) *AudioRingBuffer {
	capacity -= capacity % frameBytes
	if capacity < frameBytes {
		capacity = frameBytes
	}
	rb := &AudioRingBuffer{buf: make([]byte, capacity)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write queues p, discarding the oldest data that no longer fits.
func (rb *AudioRingBuffer) Write(p []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed || len(p) == 0 {
		return
	}

	size := len(rb.buf)
	if len(p) > size {
		rb.dropped += len(p) - size
		p = p[len(p)-size:]
	}
	if over := rb.count + len(p) - size; over > 0 {
		over += (frameBytes - over%frameBytes) % frameBytes
		if over > rb.count {
			over = rb.count
		}
		rb.head = (rb.head + over) % size
		rb.count -= over
		rb.dropped += over
	}

	tail := (rb.head + rb.count) % size
	n := copy(rb.buf[tail:], p)
	copy(rb.buf, p[n:])
	rb.count += len(p)

	rb.cond.Signal()
}

// Read implements io.Reader. It returns io.EOF once closed and drained.
func (rb *AudioRingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == 0 {
		if rb.closed {
			return 0, io.EOF
		}
		rb.cond.Wait()
	}

	want := min(len(p), rb.count)
	n := copy(p[:want], rb.buf[rb.head:])
	if n < want {
		n += copy(p[n:want], rb.buf)
	}
	rb.head = (rb.head + n) % len(rb.buf)
	rb.count -= n
	return n, nil
}

// Buffered returns the number of bytes waiting to be read.
func (rb *AudioRingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Dropped returns the number of bytes discarded on overflow so far.
func (rb *AudioRingBuffer) Dropped() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}

// Clear discards everything queued.
func (rb *AudioRingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.head = 0
	rb.count = 0
}

// Close wakes any blocked reader. Queued data can still be drained.
func (rb *AudioRingBuffer) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.cond.Broadcast()
}
