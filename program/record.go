// Package program holds the stored song data: Programs with their Scenes,
// the SetList, and the flat flash image they are read from.
package program

import (
	"bytes"
	"fmt"
)

const (
	NameLen      = 20
	AmpCount     = 2
	FXCount      = 5
	MaxScenes    = 14
	ProgramCount = 128
	MaxSetList   = 128

	// DefaultGain is the dirty gain given to uninitialized programs.
	DefaultGain uint8 = 0x5E

	ProgramSize = 128
	SetListSize = 4 + MaxSetList
	ImageSize   = SetListSize + ProgramCount*ProgramSize
)

// Program record layout.
const (
	offName        = 0
	offMIDIProgram = offName + NameLen
	offTempo       = offMIDIProgram + 1
	offDefaultGain = offTempo + 1
	offFXMidiCC    = offDefaultGain + AmpCount
	offSceneCount  = offFXMidiCC + AmpCount*FXCount
	offScenes      = offSceneCount + 2
	sceneSize      = AmpCount * 3
)

// fx byte encoding at the storage boundary.
const (
	fxDirty    uint8 = 0x01
	fxAcoustic uint8 = 0x80
)

func fxBit(i int) uint8 { return 1 << (uint(i) + 1) }

// Tone is the derived amp mode.
type Tone uint8

const (
	Clean Tone = iota
	Dirty
	Acoustic
)

func (t Tone) String() string {
	switch t {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Acoustic:
		return "acoustic"
	}
	return fmt.Sprintf("tone(%d)", uint8(t))
}

// ParseTone accepts the names returned by Tone.String.
func ParseTone(s string) (Tone, error) {
	switch s {
	case "clean", "c":
		return Clean, nil
	case "dirty", "d":
		return Dirty, nil
	case "acoustic", "a":
		return Acoustic, nil
	}
	return Clean, fmt.Errorf("program: unknown tone %q", s)
}

// Amp is one amp channel of a scene.
type Amp struct {
	Gain   uint8
	Tone   Tone
	FX     [FXCount]bool
	Volume uint8
}

// FXByte packs tone and effect flags into the stored fx byte.
func (a Amp) FXByte() uint8 {
	var b uint8
	switch a.Tone {
	case Dirty:
		b |= fxDirty
	case Acoustic:
		b |= fxAcoustic
	}
	for i, on := range a.FX {
		if on {
			b |= fxBit(i)
		}
	}
	return b
}

// DecodeAmp unpacks a stored amp. The acoustic bit wins over the dirty bit.
func DecodeAmp(gain, fx, volume uint8) Amp {
	a := Amp{Gain: gain, Volume: volume}
	switch {
	case fx&fxAcoustic != 0:
		a.Tone = Acoustic
	case fx&fxDirty != 0:
		a.Tone = Dirty
	default:
		a.Tone = Clean
	}
	for i := range a.FX {
		a.FX[i] = fx&fxBit(i) != 0
	}
	return a
}

// Scene is a per-amp snapshot within a Program.
type Scene struct {
	Amp [AmpCount]Amp
}

// IsZero reports whether the scene was never initialized: gain and volume
// zero on both amps.
func (s Scene) IsZero() bool {
	for _, a := range s.Amp {
		if a.Gain != 0 || a.Volume != 0 {
			return false
		}
	}
	return true
}

// Program is the top-level preset.
type Program struct {
	Name        string
	MIDIProgram uint8
	Tempo       uint8
	DefaultGain [AmpCount]uint8
	FXMidiCC    [AmpCount][FXCount]uint8
	SceneCount  int
	Scenes      [MaxScenes]Scene
}

// MarshalBinary encodes the program into its fixed-size record.
func (p *Program) MarshalBinary() ([]byte, error) {
	if len(p.Name) > NameLen {
		return nil, fmt.Errorf("program: name %q longer than %d bytes", p.Name, NameLen)
	}
	if p.SceneCount < 0 || p.SceneCount > MaxScenes {
		return nil, fmt.Errorf("program: scene count %d out of range", p.SceneCount)
	}
	b := make([]byte, ProgramSize)
	copy(b[offName:offName+NameLen], p.Name)
	b[offMIDIProgram] = p.MIDIProgram
	b[offTempo] = p.Tempo
	for a := 0; a < AmpCount; a++ {
		b[offDefaultGain+a] = p.DefaultGain[a]
		copy(b[offFXMidiCC+a*FXCount:], p.FXMidiCC[a][:])
	}
	b[offSceneCount] = byte(p.SceneCount)
	for i, sc := range p.Scenes {
		o := offScenes + i*sceneSize
		for a, amp := range sc.Amp {
			b[o+a*3] = amp.Gain
			b[o+a*3+1] = amp.FXByte()
			b[o+a*3+2] = amp.Volume
		}
	}
	return b, nil
}

// UnmarshalBinary decodes a program record. Scene counts beyond capacity are
// clamped.
func (p *Program) UnmarshalBinary(b []byte) error {
	if len(b) < ProgramSize {
		return fmt.Errorf("program: record is %d bytes, want %d", len(b), ProgramSize)
	}
	name := b[offName : offName+NameLen]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	p.Name = string(name)
	p.MIDIProgram = b[offMIDIProgram]
	p.Tempo = b[offTempo]
	for a := 0; a < AmpCount; a++ {
		p.DefaultGain[a] = b[offDefaultGain+a]
		copy(p.FXMidiCC[a][:], b[offFXMidiCC+a*FXCount:])
	}
	p.SceneCount = min(int(b[offSceneCount]), MaxScenes)
	for i := range p.Scenes {
		o := offScenes + i*sceneSize
		for a := range p.Scenes[i].Amp {
			p.Scenes[i].Amp[a] = DecodeAmp(b[o+a*3], b[o+a*3+1], b[o+a*3+2])
		}
	}
	return nil
}

// SetList is the performance order of programs.
type SetList struct {
	Entries []uint8
}

// Len returns the number of entries.
func (s SetList) Len() int { return len(s.Entries) }

// Find returns the position of the first entry naming program, or -1.
func (s SetList) Find(program int) int {
	for i, e := range s.Entries {
		if int(e) == program {
			return i
		}
	}
	return -1
}

func (s SetList) MarshalBinary() ([]byte, error) {
	if len(s.Entries) > MaxSetList {
		return nil, fmt.Errorf("program: setlist has %d entries, max %d", len(s.Entries), MaxSetList)
	}
	b := make([]byte, SetListSize)
	b[0] = byte(len(s.Entries))
	copy(b[4:], s.Entries)
	return b, nil
}

func (s *SetList) UnmarshalBinary(b []byte) error {
	if len(b) < SetListSize {
		return fmt.Errorf("program: setlist record is %d bytes, want %d", len(b), SetListSize)
	}
	n := min(int(b[0]), MaxSetList)
	s.Entries = make([]uint8, n)
	for i := range s.Entries {
		s.Entries[i] = min(b[4+i], ProgramCount-1)
	}
	return nil
}
