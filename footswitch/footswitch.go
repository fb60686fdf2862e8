// Package footswitch turns footswitch hardware into controller operations.
// Sources report a 16-bit button mask, the Tracker turns successive masks
// into press/hold/repeat/release events and the Layout maps events onto the
// controller.
package footswitch

import (
	"sync/atomic"
	"time"
)

// Buttons is the number of footswitches: two rows of eight.
const Buttons = 16

// Mask has one bit per button. Bits 0-7 are the top row, 8-15 the bottom row.
type Mask uint16

func (m Mask) Pressed(button int) bool { return m&(1<<uint(button)) != 0 }

// Source is a footswitch input polled once per tick.
type Source interface {
	Mask() Mask
	Close() error
}

// liveMask is a mask updated by a reader goroutine and polled by the tick loop.
type liveMask struct {
	v atomic.Uint32
}

func (l *liveMask) load() Mask { return Mask(l.v.Load()) }

func (l *liveMask) set(button int, down bool) {
	bit := uint32(1) << uint(button)
	for {
		old := l.v.Load()
		next := old &^ bit
		if down {
			next |= bit
		}
		if l.v.CompareAndSwap(old, next) {
			return
		}
	}
}

// -------------------- Tracker --------------------

type Kind uint8

const (
	Press Kind = iota
	Hold
	Repeat
	Release
)

func (k Kind) String() string {
	switch k {
	case Press:
		return "press"
	case Hold:
		return "hold"
	case Repeat:
		return "repeat"
	case Release:
		return "release"
	}
	return "unknown"
}

// Event is one button transition.
type Event struct {
	Button int
	Kind   Kind
	// Held is set on Release when the button had been promoted to Hold.
	Held bool
}

// Default timings.
const (
	DefaultHold   = 500 * time.Millisecond
	DefaultRepeat = 100 * time.Millisecond
)

// Tracker detects edges between successive masks. A button down for the hold
// threshold is promoted to held and then repeats every repeat interval until
// released.
type Tracker struct {
	hold   time.Duration
	repeat time.Duration

	prev       Mask
	downAt     [Buttons]time.Time
	held       [Buttons]bool
	lastRepeat [Buttons]time.Time
}

// NewTracker returns a tracker. A zero repeat disables auto-repeat.
func NewTracker(hold, repeat time.Duration) *Tracker {
	return &Tracker{hold: hold, repeat: repeat}
}

// Update consumes the mask sampled at now and returns the resulting events in
// button order.
func (t *Tracker) Update(m Mask, now time.Time) []Event {
	var out []Event
	for b := 0; b < Buttons; b++ {
		was, is := t.prev.Pressed(b), m.Pressed(b)
		switch {
		case is && !was:
			t.downAt[b] = now
			t.held[b] = false
			out = append(out, Event{Button: b, Kind: Press})
		case is && !t.held[b]:
			if now.Sub(t.downAt[b]) >= t.hold {
				t.held[b] = true
				t.lastRepeat[b] = now
				out = append(out, Event{Button: b, Kind: Hold})
			}
		case is:
			if t.repeat > 0 && now.Sub(t.lastRepeat[b]) >= t.repeat {
				t.lastRepeat[b] = now
				out = append(out, Event{Button: b, Kind: Repeat})
			}
		case was:
			out = append(out, Event{Button: b, Kind: Release, Held: t.held[b]})
			t.held[b] = false
		}
	}
	t.prev = m
	return out
}
