package footswitch

import (
	"fmt"
	"log/slog"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// MIDISource reads footswitches sent as control changes by a MIDI
// footcontroller. Button n is CC base+n on any channel; values of 64 and
// above mean pressed.
type MIDISource struct {
	in   drivers.In
	base uint8
	stop func()
	mask liveMask
	log  *slog.Logger
}

// ListenMIDI opens in and starts listening for footswitch CCs.
func ListenMIDI(in drivers.In, base uint8, log *slog.Logger) (*MIDISource, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("footswitch: open %q: %w", in.String(), err)
	}
	s := &MIDISource{in: in, base: base, log: log}
	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		s.handle(msg)
	}, midi.HandleError(func(err error) {
		s.log.Warn("footswitch: midi listener error", "device", in.String(), "err", err)
	}))
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("footswitch: listen %q: %w", in.String(), err)
	}
	s.stop = stop
	log.Info("footswitch: midi input connected", "device", in.String(), "base_cc", base)
	return s, nil
}

func (s *MIDISource) handle(msg midi.Message) {
	var ch, cc, val uint8
	if !msg.GetControlChange(&ch, &cc, &val) {
		s.log.Debug("footswitch: unhandled midi message", "msg", msg.String())
		return
	}
	if cc < s.base || int(cc) >= int(s.base)+Buttons {
		return
	}
	s.mask.set(int(cc-s.base), val >= 64)
}

func (s *MIDISource) Mask() Mask { return s.mask.load() }

func (s *MIDISource) Close() error {
	if s.stop != nil {
		s.stop()
	}
	return s.in.Close()
}
