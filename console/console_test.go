package console

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"gitlab.com/gomidi/midi/v2"

	"github.com/chase3718/footctl/controller"
	"github.com/chase3718/footctl/footswitch"
	"github.com/chase3718/footctl/program"
	"github.com/chase3718/footctl/rig"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr bool
	}{
		{line: "next", want: Command{Name: "next"}},
		{line: "  NEXT-SONG ", want: Command{Name: "next-song"}},
		{line: "gain 1 0x5E", want: Command{Name: "gain", Value: 0x5E}},
		{line: "gain 2 +3", want: Command{Name: "gain", Amp: 1, Value: 3, Relative: true}},
		{line: "vol 1 -10", want: Command{Name: "vol", Value: -10, Relative: true}},
		{line: "vol 2 98", want: Command{Name: "vol", Amp: 1, Value: 98}},
		{line: "tone 2 Acoustic", want: Command{Name: "tone", Amp: 1, Tone: program.Acoustic}},
		{line: "tone '1' dirty", want: Command{Name: "tone", Tone: program.Dirty}},
		{line: "fx 1 5", want: Command{Name: "fx", FX: 4}},
		{line: "program 128", want: Command{Name: "program", Index: 127}},
		{line: "song 1", want: Command{Name: "song"}},
		{line: "gain 3 10", wantErr: true},
		{line: "gain 1 200", wantErr: true},
		{line: "gain 1", wantErr: true},
		{line: "vol 1 loud", wantErr: true},
		{line: "tone 1 crunch", wantErr: true},
		{line: "fx 1 6", wantErr: true},
		{line: "program 0", wantErr: true},
		{line: "next 2", wantErr: true},
		{line: "explode", wantErr: true},
		{line: "tone 'unterminated", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.line)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) = %+v, want error", tt.line, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.line, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}

	if _, err := Parse("   "); err != ErrEmpty {
		t.Errorf("blank line: err = %v, want ErrEmpty", err)
	}
}

type recorder struct {
	calls []string
}

func (r *recorder) add(format string, args ...any) { r.calls = append(r.calls, fmt.Sprintf(format, args...)) }

func (r *recorder) PrevSong()                          { r.add("prev-song") }
func (r *recorder) NextSong()                          { r.add("next-song") }
func (r *recorder) PrevScene()                         { r.add("prev-scene") }
func (r *recorder) NextScene()                         { r.add("next-scene") }
func (r *recorder) ResetScene()                        { r.add("reset-scene") }
func (r *recorder) ToggleSetlistMode()                 { r.add("mode") }
func (r *recorder) ActivateProgram(i int)              { r.add("program %d", i) }
func (r *recorder) ActivateSong(i int)                 { r.add("song %d", i) }
func (r *recorder) SetGain(amp int, v uint8)           { r.add("set-gain %d %d", amp, v) }
func (r *recorder) StepGain(amp, delta int)            { r.add("step-gain %d %+d", amp, delta) }
func (r *recorder) SetVolume(amp int, v uint8)         { r.add("set-vol %d %d", amp, v) }
func (r *recorder) StepVolume(amp, delta int)          { r.add("step-vol %d %+d", amp, delta) }
func (r *recorder) SetTone(amp int, tone program.Tone) { r.add("tone %d %v", amp, tone) }
func (r *recorder) ToggleFX(amp, fx int)               { r.add("fx %d %d", amp, fx) }
func (r *recorder) Invalidate()                        { r.add("invalidate") }
func (r *recorder) TapTempo() midi.Message {
	r.add("tap")
	return midi.ControlChange(2, 14, 0x7F)
}

func TestApply(t *testing.T) {
	lines := []string{
		"next", "prev", "next-song", "prev-song", "reset-scene", "mode",
		"gain 1 0x40", "gain 2 -2", "vol 1 100", "vol 2 +1",
		"tone 1 clean", "fx 2 3", "program 4", "song 2", "resend", "show",
	}
	want := []string{
		"next-scene", "prev-scene", "next-song", "prev-song", "reset-scene", "mode",
		"set-gain 0 64", "step-gain 1 -2", "set-vol 0 100", "step-vol 1 +1",
		"tone 0 clean", "fx 1 2", "program 3", "song 1", "invalidate",
	}
	r := &recorder{}
	for _, l := range lines {
		cmd, err := Parse(l)
		if err != nil {
			t.Fatalf("Parse(%q): %v", l, err)
		}
		if msgs := cmd.Apply(r); msgs != nil {
			t.Errorf("%q returned messages %v", l, msgs)
		}
	}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("calls:\n got %v\nwant %v", r.calls, want)
	}

	cmd, _ := Parse("tap")
	if msgs := cmd.Apply(r); len(msgs) != 1 {
		t.Errorf("tap returned %d messages", len(msgs))
	}
}

func fx(labels string, enabled ...bool) [program.FXCount]controller.FXReport {
	var out [program.FXCount]controller.FXReport
	for i := range out {
		out[i] = controller.FXReport{Label: labels[4*i : 4*i+4], Enabled: enabled[i]}
	}
	return out
}

func TestRender(t *testing.T) {
	r := controller.Report{
		Name:         "Intro",
		Modified:     true,
		Program:      1,
		ProgramCount: program.ProgramCount,
		Scene:        1,
		SceneCount:   2,
	}
	r.Amps[0] = controller.AmpReport{
		Tone: "dirty", Gain: 0x40, VolumeDB: 0,
		FX: fx("PIT1ROT1C069CHO1DLY1", false, true, false, false, true),
	}
	r.Amps[1] = controller.AmpReport{
		Tone: "acoustic", Gain: 0x5, VolumeDB: -12.5,
		FX: fx("PIT2ROT2C070CHO2DLY2", true, false, false, false, false),
	}

	got := Render(r, [program.AmpCount]footswitch.RowMode{footswitch.AmpRow, footswitch.AmpRow})
	want := [4]string{
		"Intro              *",
		"Prg  1/128 Scn  1/ 2",
		"1D g40  v  0.0 pRccD",
		"2A g 5  v-12.5 Prccd",
	}
	if got != want {
		t.Errorf("amp rows:\n got %q\nwant %q", got, want)
	}

	got = Render(r, [program.AmpCount]footswitch.RowMode{footswitch.AmpRow, footswitch.FXRow})
	if got[3] != "PIT2rot2c070cho2dly2" {
		t.Errorf("fx row = %q", got[3])
	}

	r.SetlistMode = true
	r.Song, r.SongCount = 2, 3
	r.Scene, r.SceneCount = 3, 3
	r.Modified = false
	r.Name = "A very long song name indeed"
	got = Render(r, [program.AmpCount]footswitch.RowMode{})
	if got[0] != "A very long song nam" {
		t.Errorf("name row = %q", got[0])
	}
	if got[1] != "Sng  2/ 3  Scn  3/ 3" {
		t.Errorf("status row = %q", got[1])
	}
	for i, row := range got {
		if len(row) != lcdCols {
			t.Errorf("row %d is %d columns wide", i, len(row))
		}
	}
}

func TestRenderWideName(t *testing.T) {
	r := controller.Report{Name: "Café del Mar à la plage!", ProgramCount: program.ProgramCount}
	tests := []struct {
		modified bool
		want     string
	}{
		{false, "Café del Mar à la pl"},
		{true, "Café del Mar à la p*"},
	}
	for _, tt := range tests {
		r.Modified = tt.modified
		got := Render(r, [program.AmpCount]footswitch.RowMode{})[0]
		if got != tt.want {
			t.Errorf("modified=%v: name row = %q, want %q", tt.modified, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("modified=%v: name row %q is not valid UTF-8", tt.modified, got)
		}
		if w := runewidth.StringWidth(got); w != lcdCols {
			t.Errorf("modified=%v: name row is %d cells wide", tt.modified, w)
		}
	}

	r.Name, r.Modified = "日本語の曲名がとても長い", false
	got := Render(r, [program.AmpCount]footswitch.RowMode{})[0]
	if !utf8.ValidString(got) || runewidth.StringWidth(got) != lcdCols {
		t.Errorf("wide name row = %q (%d cells)", got, runewidth.StringWidth(got))
	}
}

const library = `
programs:
  - number: 1
    name: Intro
    midi_program: 4
    tempo: 120
    scenes:
      - amps:
          - {tone: dirty, volume: 98}
          - {tone: clean, volume: 98}
      - amps:
          - {tone: acoustic, volume: 100}
          - {tone: dirty, volume: 90}
`

// localRig applies actions synchronously.
type localRig struct {
	core *controller.Core
	dos  int
}

func (l *localRig) Do(_ context.Context, fn func(*controller.Core) []midi.Message) error {
	l.dos++
	fn(l.core)
	l.core.Tick()
	return nil
}

func (l *localRig) Snapshot() rig.Snapshot {
	return rig.Snapshot{Report: l.core.Report()}
}

func TestConsoleRun(t *testing.T) {
	lib, err := program.ParseLibrary([]byte(library))
	if err != nil {
		t.Fatal(err)
	}
	im, err := lib.Image()
	if err != nil {
		t.Fatal(err)
	}
	lr := &localRig{core: controller.New(program.NewStore(im), slog.New(slog.DiscardHandler))}

	in := strings.NewReader("next\n\nshow\nbogus\nquit\nnext\n")
	var out bytes.Buffer
	c := New(lr, in, &out, slog.New(slog.DiscardHandler))
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if lr.dos != 1 {
		t.Errorf("Do called %d times, want 1 (input after quit must be ignored)", lr.dos)
	}
	text := out.String()
	for _, want := range []string{"Scn  2/ 2", "2D g", `unknown command "bogus"`} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestConsoleSongRange(t *testing.T) {
	tests := []struct {
		name    string
		setlist string
		input   string
		want    string
		wantDos int
	}{
		{"empty setlist", "", "song 1\n", "the setlist is empty", 0},
		{"past the end", "setlist: [1]\n", "song 5\n", "song 5 out of range 1-1", 0},
		{"in range", "setlist: [1]\n", "song 1\n", "Sng  1/ 1", 1},
	}
	for _, tt := range tests {
		lib, err := program.ParseLibrary([]byte(tt.setlist + library))
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		im, err := lib.Image()
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		lr := &localRig{core: controller.New(program.NewStore(im), slog.New(slog.DiscardHandler))}

		var out bytes.Buffer
		c := New(lr, strings.NewReader(tt.input+"show\nquit\n"), &out, slog.New(slog.DiscardHandler))
		if err := c.Run(context.Background()); err != nil {
			t.Fatalf("%s: Run: %v", tt.name, err)
		}
		if lr.dos != tt.wantDos {
			t.Errorf("%s: Do called %d times, want %d", tt.name, lr.dos, tt.wantDos)
		}
		if !strings.Contains(out.String(), tt.want) {
			t.Errorf("%s: output missing %q:\n%s", tt.name, tt.want, out.String())
		}
	}
}
