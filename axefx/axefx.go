// Package axefx describes the MIDI command surface of a Fractal Audio Axe-FX II
// as used by the foot controller: fixed channel, CC assignments, and the
// message constructors the diff engine emits.
package axefx

import (
	"gitlab.com/gomidi/midi/v2"
)

// Channel is the 0-based MIDI channel the Axe-FX II listens on (channel 3).
const Channel uint8 = 2

// Fixed CC assignments. Per-amp controls come in pairs: amp 1 uses the listed
// number, amp 2 the number plus one.
const (
	CCTapTempo = 14
	CCTuner    = 15

	// External controllers 1/2 drive the output mixer gain per amp.
	CCExternal1 = 16
	CCExternal2 = 17
	// External controllers 3/4 drive the amp block input gain.
	CCExternal3 = 18
	CCExternal4 = 19

	CCScene = 34

	CCBypassAmp1        = 37
	CCBypassAmp2        = 38
	CCBypassChorus1     = 41
	CCBypassChorus2     = 42
	CCBypassCompressor1 = 43
	CCBypassCompressor2 = 44
	CCBypassDelay1      = 47
	CCBypassDelay2      = 48
	CCBypassGate1       = 60
	CCBypassGate2       = 61
	CCBypassPhaser1     = 75
	CCBypassPhaser2     = 76
	CCBypassPitch1      = 77
	CCBypassPitch2      = 78
	CCBypassRotary1     = 86
	CCBypassRotary2     = 87

	CCXYAmp1    = 100
	CCXYAmp2    = 101
	CCXYCab1    = 102
	CCXYCab2    = 103
	CCXYChorus1 = 104
	CCXYChorus2 = 105
	CCXYDelay1  = 106
	CCXYDelay2  = 107
	CCXYPitch1  = 114
	CCXYPitch2  = 115
)

// Two-state CC values.
const (
	Off uint8 = 0x00
	On  uint8 = 0x7F

	// X/Y switches: X is the "on" value, Y the "off" value.
	X = On
	Y = Off
)

// Toggle maps a boolean to the 0x00/0x7F CC value pair.
func Toggle(on bool) uint8 {
	if on {
		return On
	}
	return Off
}

// Per-amp CC numbers. amp is 0 or 1.
func VolumeCC(amp int) uint8     { return CCExternal1 + uint8(amp) }
func GainCC(amp int) uint8       { return CCExternal3 + uint8(amp) }
func AmpBypassCC(amp int) uint8  { return CCBypassAmp1 + uint8(amp) }
func AmpXYCC(amp int) uint8      { return CCXYAmp1 + uint8(amp) }
func CabXYCC(amp int) uint8      { return CCXYCab1 + uint8(amp) }
func CompressorCC(amp int) uint8 { return CCBypassCompressor1 + uint8(amp) }
func GateCC(amp int) uint8       { return CCBypassGate1 + uint8(amp) }

// ControlChange builds a CC message on the Axe-FX channel.
func ControlChange(cc, value uint8) midi.Message {
	return midi.ControlChange(Channel, cc&0x7F, value&0x7F)
}

// ProgramChange builds a PC message on the Axe-FX channel.
func ProgramChange(program uint8) midi.Message {
	return midi.ProgramChange(Channel, program&0x7F)
}

// TapTempo builds the tap-tempo CC carrying the given toggle state.
func TapTempo(on bool) midi.Message {
	return ControlChange(CCTapTempo, Toggle(on))
}
