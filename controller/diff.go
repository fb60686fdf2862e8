package controller

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/chase3718/footctl/axefx"
	"github.com/chase3718/footctl/program"
)

// Result is the outcome of one Tick.
type Result struct {
	// Messages to send to the Axe-FX, in order.
	Messages []midi.Message
	// Changed reports that the displayed state changed.
	Changed bool
}

// ampTarget is the device state wanted for one tone.
type ampTarget struct {
	ampBypass uint8
	ampXY     uint8
	setXY     bool
	cabXY     uint8
	gain      uint8
	gate      uint8
}

func (c *Core) target(amp int) ampTarget {
	a := c.curr.Amp[amp]
	switch a.Tone {
	case program.Acoustic:
		return ampTarget{
			ampBypass: axefx.Off,
			cabXY:     axefx.Y,
			gain:      c.shadow[amp].cleanGain,
			gate:      axefx.Off,
		}
	case program.Dirty:
		gain := a.Gain
		if gain == 0 {
			gain = c.pr.DefaultGain[amp]
		}
		return ampTarget{
			ampBypass: axefx.On,
			ampXY:     axefx.X,
			setXY:     true,
			cabXY:     axefx.X,
			gain:      gain,
			gate:      axefx.On,
		}
	default:
		return ampTarget{
			ampBypass: axefx.On,
			ampXY:     axefx.Y,
			setXY:     true,
			cabXY:     axefx.X,
			gain:      c.shadow[amp].cleanGain,
			gate:      axefx.Off,
		}
	}
}

// Tick reloads the program or scene if the selection moved, then emits the
// messages that bring the device in line with the current state and commits
// it as the previous state. A second Tick without intervening mutations
// returns no messages.
func (c *Core) Tick() Result {
	c.reload()

	var out []midi.Message
	send := func(cc, value uint8) {
		out = append(out, axefx.ControlChange(cc, value))
	}
	changed := false

	if c.curr.MIDIProgram != c.prev.MIDIProgram {
		c.log.Debug("controller: program change", "midi_program", c.curr.MIDIProgram)
		out = append(out, axefx.ProgramChange(c.curr.MIDIProgram))
		c.Invalidate()
	}

	for a := range c.curr.Amp {
		t := c.target(a)
		s := &c.shadow[a]
		update := func(last *uint8, want, cc uint8, what string) {
			if *last == want {
				return
			}
			*last = want
			c.log.Debug("controller: "+what, "amp", a+1, "value", want)
			send(cc, want)
			changed = true
		}
		update(&s.ampBypass, t.ampBypass, axefx.AmpBypassCC(a), "amp bypass")
		if t.setXY {
			update(&s.ampXY, t.ampXY, axefx.AmpXYCC(a), "amp x/y")
		}
		update(&s.cabXY, t.cabXY, axefx.CabXYCC(a), "cab x/y")
		update(&s.gain, t.gain, axefx.GainCC(a), "gain")
		update(&s.gate, t.gate, axefx.GateCC(a), "gate")

		cur, last := c.curr.Amp[a], c.prev.Amp[a]
		if cur.Tone != last.Tone {
			c.log.Debug("controller: compressor on", "amp", a+1, "tone", cur.Tone)
			send(axefx.CompressorCC(a), axefx.On)
		}
		if cur.Volume != last.Volume {
			c.log.Debug("controller: volume", "amp", a+1, "value", cur.Volume, "db", axefx.VolumeDB(cur.Volume))
			send(axefx.VolumeCC(a), cur.Volume)
			changed = true
		}
	}

	for i := 0; i < program.FXCount; i++ {
		for a := range c.curr.Amp {
			on := c.curr.Amp[a].FX[i]
			if on == c.prev.Amp[a].FX[i] {
				continue
			}
			cc := c.pr.FXMidiCC[a][i]
			c.log.Debug("controller: effect", "amp", a+1, "fx", axefx.ShortName(cc), "on", on)
			send(cc, axefx.Toggle(on))
		}
	}

	if c.curr.Tempo != c.prev.Tempo && c.curr.Tempo >= axefx.MinTempo {
		c.log.Debug("controller: tempo", "bpm", c.curr.Tempo)
		out = append(out, axefx.TempoFrame(uint16(c.curr.Tempo)).Message())
	}

	if c.displayChanged() {
		changed = true
	}
	c.prev = c.curr
	return Result{Messages: out, Changed: changed}
}

func (c *Core) displayChanged() bool {
	cur, last := c.curr, c.prev
	if cur.SetlistMode != last.SetlistMode ||
		cur.SetlistIndex != last.SetlistIndex ||
		cur.ProgramIndex != last.ProgramIndex ||
		cur.SceneIndex != last.SceneIndex ||
		cur.Modified != last.Modified {
		return true
	}
	for a := range cur.Amp {
		if cur.Amp[a].Tone != last.Amp[a].Tone || cur.Amp[a].FX != last.Amp[a].FX {
			return true
		}
	}
	return false
}
