package program

import (
	"testing"

	"github.com/chase3718/footctl/axefx"
)

func TestAmpFXByte(t *testing.T) {
	tests := []struct {
		name string
		fx   uint8
		tone Tone
		on   [FXCount]bool
	}{
		{"clean", 0x00, Clean, [FXCount]bool{}},
		{"dirty", 0x01, Dirty, [FXCount]bool{}},
		{"acoustic", 0x80, Acoustic, [FXCount]bool{}},
		{"acoustic wins over dirty", 0x81, Acoustic, [FXCount]bool{}},
		{"dirty with fx1 and fx5", 0x01 | 0x02 | 0x20, Dirty, [FXCount]bool{true, false, false, false, true}},
		{"clean with fx3", 0x08, Clean, [FXCount]bool{false, false, true, false, false}},
	}
	for _, tt := range tests {
		a := DecodeAmp(1, tt.fx, 2)
		if a.Tone != tt.tone {
			t.Errorf("%s: tone = %v, want %v", tt.name, a.Tone, tt.tone)
		}
		if a.FX != tt.on {
			t.Errorf("%s: fx = %v, want %v", tt.name, a.FX, tt.on)
		}
		if tt.fx != 0x81 && a.FXByte() != tt.fx {
			t.Errorf("%s: FXByte = 0x%02X, want 0x%02X", tt.name, a.FXByte(), tt.fx)
		}
	}
}

func TestProgramRecord(t *testing.T) {
	p := Program{
		Name:        "Beautiful Disaster",
		MIDIProgram: 12,
		Tempo:       140,
		DefaultGain: [AmpCount]uint8{0x5E, 0x40},
		FXMidiCC: [AmpCount][FXCount]uint8{
			{axefx.CCBypassPitch1, axefx.CCBypassRotary1, 69, axefx.CCBypassChorus1, axefx.CCBypassDelay1},
			{axefx.CCBypassPitch2, axefx.CCBypassRotary2, 70, axefx.CCBypassChorus2, axefx.CCBypassDelay2},
		},
		SceneCount: 2,
	}
	p.Scenes[0].Amp[0] = Amp{Gain: 0x30, Tone: Dirty, Volume: 98, FX: [FXCount]bool{true}}
	p.Scenes[1].Amp[1] = Amp{Tone: Acoustic, Volume: 110}

	b, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(b) != ProgramSize {
		t.Fatalf("record size = %d", len(b))
	}
	var got Program
	if err := got.UnmarshalBinary(b); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got != p {
		t.Errorf("decoded program differs:\n got %+v\nwant %+v", got, p)
	}

	p.Name = "a name that is far too long for the LCD"
	if _, err := p.MarshalBinary(); err == nil {
		t.Error("expected error for long name")
	}
}

func TestStoreAddressing(t *testing.T) {
	im := NewImage()
	if err := im.PutSetList(SetList{Entries: []uint8{4, 2}}); err != nil {
		t.Fatal(err)
	}
	if err := im.PutProgram(2, Program{Name: "Two"}); err != nil {
		t.Fatal(err)
	}
	if err := im.PutProgram(127, Program{Name: "Last"}); err != nil {
		t.Fatal(err)
	}
	if err := im.PutProgram(128, Program{}); err == nil {
		t.Error("PutProgram(128) should fail")
	}

	s := NewStore(im)
	if got := s.AddressOf(2); got != SetListSize+2*ProgramSize {
		t.Errorf("AddressOf(2) = %d", got)
	}
	if got := s.AddressOf(500); got != s.AddressOf(127) {
		t.Errorf("AddressOf clamps: got %d", got)
	}
	if got := s.NameOf(2); got != "Two" {
		t.Errorf("NameOf(2) = %q", got)
	}
	if got := s.NameOf(3); got != "" {
		t.Errorf("NameOf(3) = %q, want unnamed", got)
	}
	if got := s.Load(200).Name; got != "Last" {
		t.Errorf("Load(200) should clamp to the last slot, got %q", got)
	}
	sl := s.SetList()
	if sl.Len() != 2 || sl.Find(2) != 1 || sl.Find(9) != -1 {
		t.Errorf("setlist = %+v", sl)
	}
}

func TestImageLoadPastEnd(t *testing.T) {
	im := Image{1, 2, 3}
	got := im.Load(2, 4)
	if len(got) != 4 || got[0] != 3 || got[1] != 0 || got[3] != 0 {
		t.Errorf("Load past end = %v", got)
	}
	if got := im.Load(10, 2); got[0] != 0 || got[1] != 0 {
		t.Errorf("Load beyond image = %v", got)
	}
}

const librarySource = `
setlist: [3, 1]
programs:
  - number: 1
    name: Intro
    midi_program: 4
    tempo: 120
    gain: [0x5E, 0x5E]
    fx:
      - [pitch1, rotary1, cc69, chorus1, delay1]
      - [pitch2, rotary2, cc70, chorus2, delay2]
    scenes:
      - amps:
          - {tone: dirty, gain: 0x40, volume: 98, fx: [4, 5]}
          - {tone: clean, volume: 98}
      - amps:
          - {tone: acoustic, volume: 100}
          - {tone: dirty, volume: 90, fx: [1]}
  - number: 3
    name: Outro
    midi_program: 7
    scenes:
      - amps:
          - {volume: 98}
          - {volume: 98}
`

func TestLibraryCompile(t *testing.T) {
	lib, err := ParseLibrary([]byte(librarySource))
	if err != nil {
		t.Fatalf("ParseLibrary: %v", err)
	}
	im, err := lib.Image()
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	s := NewStore(im)

	if got := s.SetList().Entries; len(got) != 2 || got[0] != 2 || got[1] != 0 {
		t.Errorf("setlist entries = %v", got)
	}
	p := s.Load(0)
	if p.Name != "Intro" || p.MIDIProgram != 4 || p.Tempo != 120 || p.SceneCount != 2 {
		t.Errorf("program 1 = %+v", p)
	}
	if p.FXMidiCC[0][0] != axefx.CCBypassPitch1 || p.FXMidiCC[1][2] != 70 {
		t.Errorf("fx mapping = %v", p.FXMidiCC)
	}
	want := Amp{Gain: 0x40, Tone: Dirty, Volume: 98, FX: [FXCount]bool{false, false, false, true, true}}
	if p.Scenes[0].Amp[0] != want {
		t.Errorf("scene 1 amp 1 = %+v, want %+v", p.Scenes[0].Amp[0], want)
	}
	if p.Scenes[1].Amp[0].Tone != Acoustic {
		t.Errorf("scene 2 amp 1 tone = %v", p.Scenes[1].Amp[0].Tone)
	}
	if got := s.Load(2).Scenes[0].Amp[1].Tone; got != Dirty {
		t.Errorf("default tone = %v, want dirty", got)
	}

	back := s.Library()
	if len(back.Programs) != 2 || back.Programs[1].Number != 3 {
		t.Fatalf("decompiled programs = %+v", back.Programs)
	}
	if back.Programs[0].FX[0][0] != "pitch1" || back.Programs[0].FX[0][2] != "cc69" {
		t.Errorf("decompiled fx = %v", back.Programs[0].FX[0])
	}
}

func TestLibraryErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"setlist range", "setlist: [129]"},
		{"duplicate", "programs: [{number: 1}, {number: 1}]"},
		{"number range", "programs: [{number: 0}]"},
		{"bad tone", "programs: [{number: 1, scenes: [{amps: [{tone: fuzz, volume: 1}, {volume: 1}]}]}]"},
		{"bad effect", "programs: [{number: 1, fx: [[wah], []]}]"},
		{"volume range", "programs: [{number: 1, scenes: [{amps: [{volume: 200}, {volume: 1}]}]}]"},
		{"effect index", "programs: [{number: 1, scenes: [{amps: [{volume: 1, fx: [6]}, {volume: 1}]}]}]"},
	}
	for _, tt := range tests {
		lib, err := ParseLibrary([]byte(tt.src))
		if err != nil {
			t.Errorf("%s: parse: %v", tt.name, err)
			continue
		}
		if _, err := lib.Image(); err == nil {
			t.Errorf("%s: expected compile error", tt.name)
		}
	}
}
