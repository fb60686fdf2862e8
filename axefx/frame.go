package axefx

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

const (
	SOX = 0xF0
	EOX = 0xF7

	// Fractal Audio manufacturer ID and the Axe-FX II model byte.
	ManufacturerID0 = 0x00
	ManufacturerID1 = 0x01
	ManufacturerID2 = 0x74
	ModelAxeFX2     = 0x03

	FuncSetBlockParam = 0x02

	// Tempo lives in the controllers block.
	BlockControllers = 141
	ParamTempo       = 32

	// MinTempo is the lowest BPM the device accepts; lower values are not a tempo.
	MinTempo = 30

	headerLen = 6 // F0 00 01 74 03 fn
)

var (
	ErrNotSysEx   = errors.New("axefx: not a sysex frame")
	ErrShortFrame = errors.New("axefx: frame too short")
	ErrNotAxeFx   = errors.New("axefx: not an Axe-FX II frame")
	ErrChecksum   = errors.New("axefx: bad checksum")
)

// Frame is one Axe-FX II SysEx command. Every field is serialised into the
// on-wire frame by Encode.
type Frame struct {
	Function byte
	Payload  []byte
}

// Encode builds the on-wire representation:
//
//	[F0][00 01 74][03][Function][Payload...][CKS][F7]
//
// CKS is the XOR of every byte from F0 up to the last payload byte, masked
// to 7 bits.
func (f Frame) Encode() []byte {
	out := make([]byte, 0, headerLen+len(f.Payload)+2)
	out = append(out, SOX, ManufacturerID0, ManufacturerID1, ManufacturerID2, ModelAxeFX2, f.Function)
	out = append(out, f.Payload...)
	out = append(out, Checksum(out), EOX)
	return out
}

// Message returns the encoded frame as a MIDI message.
func (f Frame) Message() midi.Message {
	return midi.Message(f.Encode())
}

// Checksum XORs data and masks the result to 7 bits.
func Checksum(data []byte) byte {
	var cks byte
	for _, b := range data {
		cks ^= b
	}
	return cks & 0x7F
}

// ParseFrame validates an Axe-FX II SysEx frame and returns its function and
// payload.
func ParseFrame(data []byte) (Frame, error) {
	if len(data) < 2 || data[0] != SOX || data[len(data)-1] != EOX {
		return Frame{}, ErrNotSysEx
	}
	if len(data) < headerLen+2 {
		return Frame{}, ErrShortFrame
	}
	if data[1] != ManufacturerID0 || data[2] != ManufacturerID1 || data[3] != ManufacturerID2 || data[4] != ModelAxeFX2 {
		return Frame{}, ErrNotAxeFx
	}
	body := data[:len(data)-2]
	if got, want := data[len(data)-2], Checksum(body); got != want {
		return Frame{}, fmt.Errorf("%w: got 0x%02X want 0x%02X", ErrChecksum, got, want)
	}
	payload := make([]byte, len(body)-headerLen)
	copy(payload, body[headerLen:])
	return Frame{Function: data[5], Payload: payload}, nil
}

// SetBlockParam builds a SET_BLOCK_PARAMETER_VALUE frame. Block and parameter
// IDs are sent as two 7-bit septets, the value as three, followed by the
// "set" flag.
func SetBlockParam(block, param uint16, value uint32) Frame {
	return Frame{
		Function: FuncSetBlockParam,
		Payload: []byte{
			byte(block & 0x7F), byte(block >> 7 & 0x7F),
			byte(param & 0x7F), byte(param >> 7 & 0x7F),
			byte(value & 0x7F), byte(value >> 7 & 0x7F), byte(value >> 14 & 0x03),
			0x01,
		},
	}
}

// TempoFrame builds the tempo-change frame for bpm.
//
//	120 BPM => F0 00 01 74 03 02 0D 01 20 00 78 00 00 01 51 F7
func TempoFrame(bpm uint16) Frame {
	return SetBlockParam(BlockControllers, ParamTempo, uint32(bpm))
}
