package program

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/chase3718/footctl/axefx"
)

// Library is the human-edited song source compiled into a flash image.
// Program numbers are 1-based, as shown on the LCD.
type Library struct {
	SetList  []int        `yaml:"setlist,flow"`
	Programs []ProgramDef `yaml:"programs"`
}

type ProgramDef struct {
	Number      int                `yaml:"number"`
	Name        string             `yaml:"name,omitempty"`
	MIDIProgram int                `yaml:"midi_program"`
	Tempo       int                `yaml:"tempo,omitempty"`
	Gain        [AmpCount]int      `yaml:"gain,flow"`
	FX          [AmpCount][]string `yaml:"fx,flow"`
	Scenes      []SceneDef         `yaml:"scenes"`
}

type SceneDef struct {
	Amps [AmpCount]AmpDef `yaml:"amps"`
}

type AmpDef struct {
	Tone   string `yaml:"tone"`
	Gain   int    `yaml:"gain,omitempty"`
	Volume int    `yaml:"volume"`
	FX     []int  `yaml:"fx,flow,omitempty"`
}

// ParseLibrary decodes a YAML song library.
func ParseLibrary(data []byte) (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse library: %w", err)
	}
	return &lib, nil
}

// Marshal encodes the library as YAML.
func (l *Library) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}

// Image compiles the library into a flash image.
func (l *Library) Image() (Image, error) {
	im := NewImage()

	var sl SetList
	for i, n := range l.SetList {
		if n < 1 || n > ProgramCount {
			return nil, fmt.Errorf("setlist entry %d: program %d out of range 1-%d", i+1, n, ProgramCount)
		}
		sl.Entries = append(sl.Entries, uint8(n-1))
	}
	if err := im.PutSetList(sl); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(l.Programs))
	for _, def := range l.Programs {
		if seen[def.Number] {
			return nil, fmt.Errorf("program %d defined twice", def.Number)
		}
		seen[def.Number] = true
		p, err := def.Program()
		if err != nil {
			return nil, err
		}
		if err := im.PutProgram(def.Number-1, p); err != nil {
			return nil, err
		}
	}
	return im, nil
}

// Program converts the definition to a stored record.
func (d ProgramDef) Program() (Program, error) {
	var p Program
	if d.Number < 1 || d.Number > ProgramCount {
		return p, fmt.Errorf("program number %d out of range 1-%d", d.Number, ProgramCount)
	}
	errf := func(format string, args ...any) error {
		return fmt.Errorf("program %d: "+format, append([]any{d.Number}, args...)...)
	}
	if err := check7(d.MIDIProgram); err != nil {
		return p, errf("midi_program: %w", err)
	}
	if d.Tempo < 0 || d.Tempo > 255 {
		return p, errf("tempo %d out of range", d.Tempo)
	}
	if len(d.Scenes) > MaxScenes {
		return p, errf("%d scenes, max %d", len(d.Scenes), MaxScenes)
	}
	p.Name = d.Name
	p.MIDIProgram = uint8(d.MIDIProgram)
	p.Tempo = uint8(d.Tempo)
	p.SceneCount = len(d.Scenes)

	for a := 0; a < AmpCount; a++ {
		if err := check7(d.Gain[a]); err != nil {
			return p, errf("gain: %w", err)
		}
		p.DefaultGain[a] = uint8(d.Gain[a])
		if len(d.FX[a]) > FXCount {
			return p, errf("amp %d has %d effects, max %d", a+1, len(d.FX[a]), FXCount)
		}
		for i, name := range d.FX[a] {
			cc, err := axefx.ParseEffect(name)
			if err != nil {
				return p, errf("%w", err)
			}
			p.FXMidiCC[a][i] = cc
		}
	}

	for s, sd := range d.Scenes {
		for a, ad := range sd.Amps {
			amp, err := ad.amp()
			if err != nil {
				return p, errf("scene %d amp %d: %w", s+1, a+1, err)
			}
			p.Scenes[s].Amp[a] = amp
		}
	}
	return p, nil
}

func (d AmpDef) amp() (Amp, error) {
	var a Amp
	tone := d.Tone
	if tone == "" {
		tone = Dirty.String()
	}
	t, err := ParseTone(tone)
	if err != nil {
		return a, err
	}
	if err := check7(d.Gain); err != nil {
		return a, fmt.Errorf("gain: %w", err)
	}
	if err := check7(d.Volume); err != nil {
		return a, fmt.Errorf("volume: %w", err)
	}
	a.Tone, a.Gain, a.Volume = t, uint8(d.Gain), uint8(d.Volume)
	for _, n := range d.FX {
		if n < 1 || n > FXCount {
			return a, fmt.Errorf("effect %d out of range 1-%d", n, FXCount)
		}
		a.FX[n-1] = true
	}
	return a, nil
}

func check7(v int) error {
	if v < 0 || v > 127 {
		return fmt.Errorf("value %d out of range 0-127", v)
	}
	return nil
}

// Library decompiles every non-empty program slot and the setlist.
func (s *Store) Library() *Library {
	lib := &Library{}
	for _, e := range s.SetList().Entries {
		lib.SetList = append(lib.SetList, int(e)+1)
	}
	for i := 0; i < ProgramCount; i++ {
		p := s.Load(i)
		if p.Name == "" && p.SceneCount == 0 && p.Scenes[0].IsZero() {
			continue
		}
		lib.Programs = append(lib.Programs, definition(i, p))
	}
	return lib
}

func definition(index int, p Program) ProgramDef {
	d := ProgramDef{
		Number:      index + 1,
		Name:        p.Name,
		MIDIProgram: int(p.MIDIProgram),
		Tempo:       int(p.Tempo),
	}
	for a := 0; a < AmpCount; a++ {
		d.Gain[a] = int(p.DefaultGain[a])
		for _, cc := range p.FXMidiCC[a] {
			d.FX[a] = append(d.FX[a], axefx.EffectLabel(cc))
		}
	}
	for s := 0; s < p.SceneCount; s++ {
		var sd SceneDef
		for a, amp := range p.Scenes[s].Amp {
			ad := AmpDef{Tone: amp.Tone.String(), Gain: int(amp.Gain), Volume: int(amp.Volume)}
			for i, on := range amp.FX {
				if on {
					ad.FX = append(ad.FX, i+1)
				}
			}
			sd.Amps[a] = ad
		}
		d.Scenes = append(d.Scenes, sd)
	}
	return d
}
