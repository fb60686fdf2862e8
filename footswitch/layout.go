package footswitch

import (
	"log/slog"

	"gitlab.com/gomidi/midi/v2"

	"github.com/chase3718/footctl/program"
)

// Controls is the part of the controller the footswitches drive.
// *controller.Core implements it.
type Controls interface {
	PrevSong()
	NextSong()
	NextScene()
	ResetScene()
	ToggleSetlistMode()
	ToggleDirty(amp int)
	SetTone(amp int, tone program.Tone)
	StepGain(amp, delta int)
	StepVolume(amp, delta int)
	ToggleFX(amp, fx int)
	Invalidate()
	TapTempo() midi.Message
}

// RowMode selects what the first six buttons of a row do.
type RowMode uint8

const (
	AmpRow RowMode = iota
	FXRow
)

func (r RowMode) String() string {
	if r == FXRow {
		return "fx"
	}
	return "amp"
}

// Button columns within a row.
const (
	colTone = iota
	colGainDown
	colGainUp
	colVolumeDown
	colVolumeUp
	colRowMode
	colLeft
	colRight

	rowWidth = 8
)

// Layout maps footswitch events to controller operations. Each row drives the
// amp with the same index:
//
//	AMP row:  CLN|DRV  GAIN--  GAIN++  VOL--  VOL++  FX|RESET
//	FX row:   FX1      FX2     FX3     FX4    FX5    AMP|RESET
//	top:      SONG--  SONG++
//	bottom:   TAP|MODE  SCENE++|SCENE1
//
// A bar marks tap|hold.
type Layout struct {
	rows       [program.AmpCount]RowMode
	gainStep   int
	volumeStep int
	log        *slog.Logger
}

func NewLayout(log *slog.Logger) *Layout {
	if log == nil {
		log = slog.Default()
	}
	return &Layout{gainStep: 1, volumeStep: 1, log: log}
}

// Rows returns the mode of each row.
func (l *Layout) Rows() [program.AmpCount]RowMode { return l.rows }

// Handle applies one event. It returns messages to send immediately and
// whether the row modes changed.
func (l *Layout) Handle(ev Event, c Controls) (msgs []midi.Message, redraw bool) {
	row, col := ev.Button/rowWidth, ev.Button%rowWidth
	if row < 0 || row >= program.AmpCount {
		return nil, false
	}
	tap := ev.Kind == Release && !ev.Held
	stepping := ev.Kind == Press || ev.Kind == Repeat

	switch col {
	case colLeft, colRight:
		return l.handleNav(ev, row, col, c), false
	case colRowMode:
		switch {
		case tap:
			l.rows[row] ^= 1
			l.log.Debug("footswitch: row mode", "row", row+1, "mode", l.rows[row])
			return nil, true
		case ev.Kind == Hold:
			l.log.Info("footswitch: resend device state")
			c.Invalidate()
		}
		return nil, false
	}

	if l.rows[row] == FXRow {
		if ev.Kind == Press {
			c.ToggleFX(row, col)
		}
		return nil, false
	}

	switch col {
	case colTone:
		switch {
		case tap:
			c.ToggleDirty(row)
		case ev.Kind == Hold:
			c.SetTone(row, program.Acoustic)
		}
	case colGainDown:
		if stepping {
			c.StepGain(row, -l.gainStep)
		}
	case colGainUp:
		if stepping {
			c.StepGain(row, l.gainStep)
		}
	case colVolumeDown:
		if stepping {
			c.StepVolume(row, -l.volumeStep)
		}
	case colVolumeUp:
		if stepping {
			c.StepVolume(row, l.volumeStep)
		}
	}
	return nil, false
}

func (l *Layout) handleNav(ev Event, row, col int, c Controls) []midi.Message {
	if row == 0 {
		if ev.Kind != Press {
			return nil
		}
		if col == colLeft {
			c.PrevSong()
		} else {
			c.NextSong()
		}
		return nil
	}

	if col == colLeft {
		switch ev.Kind {
		case Press:
			return []midi.Message{c.TapTempo()}
		case Hold:
			c.ToggleSetlistMode()
		}
		return nil
	}

	switch {
	case ev.Kind == Release && !ev.Held:
		c.NextScene()
	case ev.Kind == Hold:
		c.ResetScene()
	}
	return nil
}
