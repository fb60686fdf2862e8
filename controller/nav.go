package controller

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/chase3718/footctl/axefx"
	"github.com/chase3718/footctl/program"
)

// songMax is the highest song index in the current mode.
func (c *Core) songMax() int {
	if c.curr.SetlistMode {
		return c.setlist.Len() - 1
	}
	return program.ProgramCount - 1
}

func validAmp(amp int) bool { return amp >= 0 && amp < program.AmpCount }

func clamp7(v int) uint8 { return uint8(max(0, min(v, 127))) }

// -------------------- Song and scene navigation --------------------

// PrevSong selects the previous program, or the previous setlist entry in
// setlist mode. It stops at the first one.
func (c *Core) PrevSong() {
	if c.curr.SetlistMode {
		if c.curr.SetlistIndex > 0 {
			c.curr.SetlistIndex--
			c.log.Debug("controller: prev song", "song", c.curr.SetlistIndex+1)
		}
		return
	}
	if c.curr.ProgramIndex > 0 {
		c.curr.ProgramIndex--
		c.log.Debug("controller: prev program", "program", c.curr.ProgramIndex+1)
	}
}

// NextSong selects the next program or setlist entry. It stops at the last one.
func (c *Core) NextSong() {
	if c.curr.SetlistMode {
		if c.curr.SetlistIndex < c.songMax() {
			c.curr.SetlistIndex++
			c.log.Debug("controller: next song", "song", c.curr.SetlistIndex+1)
		}
		return
	}
	if c.curr.ProgramIndex < c.songMax() {
		c.curr.ProgramIndex++
		c.log.Debug("controller: next program", "program", c.curr.ProgramIndex+1)
	}
}

// PrevScene steps back one scene. From the first scene it moves to the
// previous song, which starts at its first scene.
func (c *Core) PrevScene() {
	if c.curr.SceneIndex > 0 {
		c.curr.SceneIndex--
		c.log.Debug("controller: prev scene", "scene", c.curr.SceneIndex+1)
		return
	}
	c.PrevSong()
}

// NextScene steps forward one scene, or to the next song after the last.
func (c *Core) NextScene() {
	if c.curr.SceneIndex < c.pr.SceneCount-1 {
		c.curr.SceneIndex++
		c.log.Debug("controller: next scene", "scene", c.curr.SceneIndex+1)
		return
	}
	c.NextSong()
}

func (c *Core) ResetScene() {
	c.log.Debug("controller: reset scene")
	c.curr.SceneIndex = 0
}

// ToggleSetlistMode switches between setlist order and program number order.
// Entering setlist mode selects the entry naming the current program, or the
// first entry. Leaving it selects the program of the current entry.
func (c *Core) ToggleSetlistMode() {
	if c.setlist.Len() == 0 {
		c.log.Warn("controller: setlist is empty, staying in program mode")
		return
	}
	c.curr.SetlistMode = !c.curr.SetlistMode
	if c.curr.SetlistMode {
		c.curr.SetlistIndex = max(0, c.setlist.Find(c.curr.ProgramIndex))
	} else {
		c.curr.ProgramIndex = int(c.setlist.Entries[c.curr.SetlistIndex])
	}
	c.log.Debug("controller: setlist mode",
		"enabled", c.curr.SetlistMode,
		"song", c.curr.SetlistIndex+1,
		"program", c.curr.ProgramIndex+1,
	)
}

// ActivateProgram selects program index in program mode and loads it
// immediately.
func (c *Core) ActivateProgram(index int) {
	c.curr.SetlistMode = false
	c.curr.ProgramIndex = max(0, min(index, program.ProgramCount-1))
	c.loadProgram()
	c.loadScene()
}

// ActivateSong selects setlist entry index and loads it immediately. It is
// ignored when the setlist is empty.
func (c *Core) ActivateSong(index int) {
	if c.setlist.Len() == 0 {
		c.log.Warn("controller: setlist is empty, cannot activate song", "song", index+1)
		return
	}
	c.curr.SetlistMode = true
	c.curr.SetlistIndex = max(0, min(index, c.setlist.Len()-1))
	c.loadProgram()
	c.loadScene()
}

// -------------------- Amp mutations --------------------

// gainRef returns the register SetGain writes for the amp's tone.
func (c *Core) gainRef(amp int) *uint8 {
	a := &c.curr.Amp[amp]
	switch {
	case a.Tone == program.Dirty && a.Gain != 0:
		return &a.Gain
	case a.Tone == program.Dirty:
		return &c.pr.DefaultGain[amp]
	default:
		return &c.shadow[amp].cleanGain
	}
}

// Gain returns the effective gain of amp: the dirty gain (scene value or
// program default) or the clean gain register.
func (c *Core) Gain(amp int) uint8 {
	if !validAmp(amp) {
		return 0
	}
	return *c.gainRef(amp)
}

// SetGain sets the gain for the amp's current tone. Dirty tone writes the
// scene gain, or the program default gain when the scene has none; clean and
// acoustic write the shared clean gain register.
func (c *Core) SetGain(amp int, value uint8) {
	if !validAmp(amp) {
		return
	}
	value = clamp7(int(value))
	g := c.gainRef(amp)
	if *g == value {
		return
	}
	*g = value
	c.calcModified()
}

// StepGain adjusts the effective gain by delta, clamped to 0-127.
func (c *Core) StepGain(amp, delta int) {
	if !validAmp(amp) {
		return
	}
	c.SetGain(amp, clamp7(int(c.Gain(amp))+delta))
}

// SetVolume sets the scene volume of amp.
func (c *Core) SetVolume(amp int, value uint8) {
	if !validAmp(amp) {
		return
	}
	value = clamp7(int(value))
	if c.curr.Amp[amp].Volume == value {
		return
	}
	c.curr.Amp[amp].Volume = value
	c.calcModified()
}

// StepVolume adjusts the scene volume by delta, clamped to 0-127.
func (c *Core) StepVolume(amp, delta int) {
	if !validAmp(amp) {
		return
	}
	c.SetVolume(amp, clamp7(int(c.curr.Amp[amp].Volume)+delta))
}

func (c *Core) SetTone(amp int, tone program.Tone) {
	if !validAmp(amp) || tone > program.Acoustic {
		return
	}
	if c.curr.Amp[amp].Tone == tone {
		return
	}
	c.curr.Amp[amp].Tone = tone
	c.calcModified()
}

// ToggleDirty switches amp between clean and dirty. Acoustic goes to clean.
func (c *Core) ToggleDirty(amp int) {
	if !validAmp(amp) {
		return
	}
	if c.curr.Amp[amp].Tone == program.Clean {
		c.SetTone(amp, program.Dirty)
		return
	}
	c.SetTone(amp, program.Clean)
}

// ToggleFX flips effect fx (0-4) of amp.
func (c *Core) ToggleFX(amp, fx int) {
	if !validAmp(amp) || fx < 0 || fx >= program.FXCount {
		return
	}
	c.curr.Amp[amp].FX[fx] = !c.curr.Amp[amp].FX[fx]
	c.calcModified()
}

// TapTempo flips the tap tempo value and returns the CC to send right away.
// Tap tempo is not part of the diffed state.
func (c *Core) TapTempo() midi.Message {
	c.tap = !c.tap
	return axefx.TapTempo(c.tap)
}
