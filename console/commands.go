// Package console is the terminal front panel: a 4x20 LCD rendering of the
// controller state and a line-oriented command prompt.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"gitlab.com/gomidi/midi/v2"

	"github.com/chase3718/footctl/program"
)

// Controls is the part of the controller the console drives.
type Controls interface {
	PrevSong()
	NextSong()
	PrevScene()
	NextScene()
	ResetScene()
	ToggleSetlistMode()
	ActivateProgram(index int)
	ActivateSong(index int)
	SetGain(amp int, value uint8)
	StepGain(amp, delta int)
	SetVolume(amp int, value uint8)
	StepVolume(amp, delta int)
	SetTone(amp int, tone program.Tone)
	ToggleFX(amp, fx int)
	Invalidate()
	TapTempo() midi.Message
}

var ErrEmpty = errors.New("empty command")

// Command is one parsed console line. Amp, FX and Index are 0-based.
type Command struct {
	Name     string
	Amp      int
	FX       int
	Index    int
	Value    int
	Relative bool
	Tone     program.Tone
}

const Help = `commands:
  next | prev              next/previous scene
  next-song | prev-song    next/previous song
  reset-scene              back to scene 1
  mode                     toggle program/setlist mode
  tap                      tap tempo
  gain AMP VALUE|+N|-N     set or step the gain (hex values as 0x..)
  vol AMP VALUE|+N|-N      set or step the volume
  tone AMP clean|dirty|acoustic
  fx AMP N                 toggle effect N (1-5)
  program N                activate program N
  song N                   activate setlist song N
  resend                   resend the complete state
  show                     print the display
  help                     this text
  quit                     leave the console`

// Parse tokenizes line with shell quoting rules and validates the arguments.
func Parse(line string) (Command, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return Command{}, fmt.Errorf("console: %w", err)
	}
	if len(args) == 0 {
		return Command{}, ErrEmpty
	}
	cmd := Command{Name: strings.ToLower(args[0])}
	args = args[1:]

	want := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("console: %s takes %d argument(s), got %d", cmd.Name, n, len(args))
		}
		return nil
	}

	switch cmd.Name {
	case "next", "prev", "next-song", "prev-song", "reset-scene", "mode", "tap",
		"resend", "show", "help", "quit":
		err = want(0)
	case "gain", "vol":
		if err = want(2); err != nil {
			break
		}
		if cmd.Amp, err = parseAmp(args[0]); err != nil {
			break
		}
		cmd.Relative = strings.HasPrefix(args[1], "+") || strings.HasPrefix(args[1], "-")
		cmd.Value, err = parseNumber(args[1])
		if err == nil && !cmd.Relative && cmd.Value > 127 {
			err = fmt.Errorf("console: value %d out of range 0-127", cmd.Value)
		}
	case "tone":
		if err = want(2); err != nil {
			break
		}
		if cmd.Amp, err = parseAmp(args[0]); err != nil {
			break
		}
		cmd.Tone, err = program.ParseTone(strings.ToLower(args[1]))
	case "fx":
		if err = want(2); err != nil {
			break
		}
		if cmd.Amp, err = parseAmp(args[0]); err != nil {
			break
		}
		cmd.FX, err = parseIndex(args[1], program.FXCount)
	case "program":
		if err = want(1); err == nil {
			cmd.Index, err = parseIndex(args[0], program.ProgramCount)
		}
	case "song":
		if err = want(1); err == nil {
			cmd.Index, err = parseIndex(args[0], program.ProgramCount)
		}
	default:
		err = fmt.Errorf("console: unknown command %q (try help)", cmd.Name)
	}
	if err != nil {
		return Command{}, err
	}
	return cmd, nil
}

func parseNumber(s string) (int, error) {
	n, err := strconv.ParseInt(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("console: bad number %q", s)
	}
	return int(n), nil
}

// parseIndex converts a 1-based argument to a 0-based index below limit.
func parseIndex(s string, limit int) (int, error) {
	n, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > limit {
		return 0, fmt.Errorf("console: %d out of range 1-%d", n, limit)
	}
	return n - 1, nil
}

func parseAmp(s string) (int, error) {
	return parseIndex(s, program.AmpCount)
}

// Apply runs the command against c. Commands that only affect the console
// (show, help, quit) do nothing.
func (cmd Command) Apply(c Controls) []midi.Message {
	switch cmd.Name {
	case "next":
		c.NextScene()
	case "prev":
		c.PrevScene()
	case "next-song":
		c.NextSong()
	case "prev-song":
		c.PrevSong()
	case "reset-scene":
		c.ResetScene()
	case "mode":
		c.ToggleSetlistMode()
	case "tap":
		return []midi.Message{c.TapTempo()}
	case "gain":
		if cmd.Relative {
			c.StepGain(cmd.Amp, cmd.Value)
		} else {
			c.SetGain(cmd.Amp, uint8(cmd.Value))
		}
	case "vol":
		if cmd.Relative {
			c.StepVolume(cmd.Amp, cmd.Value)
		} else {
			c.SetVolume(cmd.Amp, uint8(cmd.Value))
		}
	case "tone":
		c.SetTone(cmd.Amp, cmd.Tone)
	case "fx":
		c.ToggleFX(cmd.Amp, cmd.FX)
	case "program":
		c.ActivateProgram(cmd.Index)
	case "song":
		c.ActivateSong(cmd.Index)
	case "resend":
		c.Invalidate()
	}
	return nil
}
