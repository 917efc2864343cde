package emu

import emucore "github.com/user-none/eblitui/api"

// Region is an alias for emucore.Region.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// RegionTiming holds timing constants for a specific region. The CPU clock
// is fixed; the video clock, and the sound clock derived from it, differ.
type RegionTiming struct {
	CPUClockHz int // host CPU clock frequency
	PSGClockHz int // SN76489 clock frequency
	Scanlines  int // total scanlines per frame
	FPS        int // frames per second
}

// NTSC timing: CPU 3 MHz, PSG 3.579545 MHz, 262 scanlines, 60 Hz
var NTSCTiming = RegionTiming{
	CPUClockHz: 3000000,
	PSGClockHz: 3579545,
	Scanlines:  262,
	FPS:        60,
}

// PAL timing: CPU 3 MHz, PSG 3.546893 MHz, 313 scanlines, 50 Hz
var PALTiming = RegionTiming{
	CPUClockHz: 3000000,
	PSGClockHz: 3546893,
	Scanlines:  313,
	FPS:        50,
}

// GetTimingForRegion returns the appropriate timing constants
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// DetectRegion reads the region recorded in a save state header. The
// second result is false when data is not a save state.
func DetectRegion(data []byte) (Region, bool) {
	if len(data) < stateHeaderSize || string(data[:len(stateMagic)]) != stateMagic {
		return RegionNTSC, false
	}
	if Region(data[stateRegionOffset]) == RegionPAL {
		return RegionPAL, true
	}
	return RegionNTSC, true
}

// DefaultRegion returns the default region (NTSC).
func DefaultRegion() Region {
	return RegionNTSC
}
