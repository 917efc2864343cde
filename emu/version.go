package emu

// Core identification reported to front ends.
const (
	Name    = "em99"
	Version = "0.1.0"
)
