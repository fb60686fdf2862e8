// Package controller is the state/diff engine of the foot controller. It owns
// the current and previous rig state, the device shadow of values last written
// to the Axe-FX, and turns state changes into the minimal set of MIDI messages.
//
// A Core is not safe for concurrent use. Callers funnel every operation through
// a single goroutine (see package rig).
package controller

import (
	"log/slog"

	"github.com/chase3718/footctl/axefx"
	"github.com/chase3718/footctl/program"
)

// Modified holds the per-amp dirty bits. Amp a owns bits 4a..4a+2.
type Modified uint8

const (
	ModGain Modified = 1 << iota
	ModFX
	ModVolume
)

// For returns the bit for field f of amp.
func (m Modified) For(amp int) Modified { return m << (4 * uint(amp)) }

// Has reports whether field f of amp is modified.
func (m Modified) Has(amp int, f Modified) bool { return m&f.For(amp) != 0 }

// State is one snapshot of the logical rig state.
type State struct {
	SetlistMode  bool
	SetlistIndex int
	ProgramIndex int
	SceneIndex   int
	MIDIProgram  uint8
	Tempo        uint8
	Amp          [program.AmpCount]program.Amp
	Modified     Modified
}

// -------------------- Device shadow --------------------

// unknown is never a valid 7-bit CC value, so any desired value differs.
const unknown uint8 = 0x80

// initialCleanGain is the clean/acoustic gain register at power-up.
const initialCleanGain uint8 = 0x10

// toneUnknown never equals a real tone.
const toneUnknown program.Tone = 0xFF

type shadow struct {
	ampBypass uint8
	ampXY     uint8
	cabXY     uint8
	gain      uint8
	cleanGain uint8
	gate      uint8
}

type loadKey struct {
	setlistMode  bool
	setlistIndex int
	programIndex int
}

// -------------------- Core --------------------

// Core is the controller state machine.
type Core struct {
	store   *program.Store
	setlist program.SetList
	log     *slog.Logger

	curr, prev State
	shadow     [program.AmpCount]shadow

	pr          program.Program // working copy, scene edits are written back here
	origin      program.Program // as read from the store
	pristine    program.Scene
	program     int
	loaded      loadKey
	loadedScene int

	tap bool
}

// New builds a Core with the first program and scene loaded and the device
// shadow invalidated, so the first Tick sends the complete rig state. The
// core starts in setlist mode unless the stored setlist is empty.
func New(store *program.Store, log *slog.Logger) *Core {
	if log == nil {
		log = slog.Default()
	}
	c := &Core{
		store:   store,
		setlist: store.SetList(),
		log:     log,
	}
	c.curr.SetlistMode = c.setlist.Len() > 0
	for a := range c.shadow {
		c.shadow[a].cleanGain = initialCleanGain
	}
	c.loadProgram()
	c.loadScene()
	c.prev = c.curr
	c.Invalidate()
	c.log.Info("controller: initialized",
		"setlist_mode", c.curr.SetlistMode,
		"setlist_len", c.setlist.Len(),
		"program", c.program+1,
	)
	return c
}

// State returns a copy of the current state.
func (c *Core) State() State { return c.curr }

// Program returns a copy of the working program, including unsaved scene edits.
func (c *Core) Program() program.Program { return c.pr }

// Invalidate forgets everything believed about the device so the next Tick
// re-sends the program change and every CC.
func (c *Core) Invalidate() {
	c.log.Debug("controller: invalidate device state")
	c.prev.MIDIProgram = ^c.curr.MIDIProgram
	c.prev.Tempo = ^c.curr.Tempo
	for a := range c.curr.Amp {
		cur := c.curr.Amp[a]
		p := &c.prev.Amp[a]
		p.Gain = ^cur.Gain
		p.Volume = ^cur.Volume
		p.Tone = toneUnknown
		for i := range cur.FX {
			p.FX[i] = !cur.FX[i]
		}
		s := &c.shadow[a]
		s.ampBypass = unknown
		s.ampXY = unknown
		s.cabXY = unknown
		s.gain = unknown
		s.gate = unknown
	}
}

// -------------------- Loading --------------------

func (c *Core) key() loadKey {
	return loadKey{
		setlistMode:  c.curr.SetlistMode,
		setlistIndex: c.curr.SetlistIndex,
		programIndex: c.curr.ProgramIndex,
	}
}

// programNumber resolves the program slot selected by the current mode.
func (c *Core) programNumber() int {
	if c.curr.SetlistMode && c.curr.SetlistIndex < c.setlist.Len() {
		return int(c.setlist.Entries[c.curr.SetlistIndex])
	}
	return c.curr.ProgramIndex
}

func (c *Core) loadProgram() {
	n := c.programNumber()
	c.pr = c.store.Load(n)
	c.origin = c.pr
	c.program = n
	c.loaded = c.key()

	c.curr.Modified = 0
	c.curr.MIDIProgram = c.pr.MIDIProgram
	c.curr.Tempo = c.pr.Tempo
	c.curr.SceneIndex = 0
	c.log.Debug("controller: load program",
		"program", n+1,
		"name", c.pr.Name,
		"midi_program", c.pr.MIDIProgram,
		"scenes", c.pr.SceneCount,
	)
}

func (c *Core) loadScene() {
	sc := c.curr.SceneIndex
	if c.pr.Scenes[sc].IsZero() {
		if sc == 0 {
			c.defaultScene()
		} else {
			c.log.Debug("controller: copy scene forward", "scene", sc+1)
			c.pr.Scenes[sc] = c.pr.Scenes[sc-1]
		}
	}
	c.curr.Amp = c.pr.Scenes[sc].Amp
	c.pristine = c.origin.Scenes[sc]
	c.loadedScene = sc
	c.calcModified()
	c.log.Debug("controller: load scene", "scene", sc+1, "modified", c.curr.Modified)
}

// defaultScene synthesizes scene 0 of an uninitialized program.
func (c *Core) defaultScene() {
	c.log.Debug("controller: default scene", "program", c.program+1)
	def := c.store.Load(0)
	for a := 0; a < program.AmpCount; a++ {
		c.pr.DefaultGain[a] = program.DefaultGain
		c.pr.FXMidiCC[a] = def.FXMidiCC[a]
		c.pr.Scenes[0].Amp[a] = program.Amp{
			Tone:   program.Dirty,
			Volume: axefx.Volume0dB,
		}
	}
	if c.pr.SceneCount == 0 {
		c.pr.SceneCount = 1
	}
}

// reload loads the program or scene selected since the last tick. Edits to
// the outgoing scene are kept in the working program.
func (c *Core) reload() {
	if c.key() != c.loaded {
		c.loadProgram()
		c.loadScene()
		return
	}
	if c.curr.SceneIndex != c.loadedScene {
		c.pr.Scenes[c.loadedScene].Amp = c.curr.Amp
		c.loadScene()
	}
}

// calcModified recomputes every modified bit against the pristine scene.
func (c *Core) calcModified() {
	var m Modified
	for a, cur := range c.curr.Amp {
		orig := c.pristine.Amp[a]
		if cur.Gain != orig.Gain {
			m |= ModGain.For(a)
		}
		if cur.Tone != orig.Tone || cur.FX != orig.FX {
			m |= ModFX.For(a)
		}
		if cur.Volume != orig.Volume {
			m |= ModVolume.For(a)
		}
	}
	c.curr.Modified = m
}
