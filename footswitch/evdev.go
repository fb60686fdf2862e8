package footswitch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/holoplot/go-evdev"
)

// evdev key event values.
const (
	keyRelease = 0
	keyPress   = 1
)

// DefaultKeys maps a three-pedal USB footswitch (keys a, b, c) to previous
// song, next song and next scene.
var DefaultKeys = map[evdev.EvCode]int{
	evdev.KEY_A: 6,
	evdev.KEY_B: 7,
	evdev.KEY_C: 15,
}

// closeWait bounds how long Close waits for the reader. evdev.Open leaves the
// fd in blocking mode, so closing it does not wake a pending read.
const closeWait = 200 * time.Millisecond

// inputDevice is the subset of *evdev.InputDevice the source uses.
type inputDevice interface {
	ReadOne() (*evdev.InputEvent, error)
	Close() error
}

// EvdevSource reads key events from a Linux input device.
type EvdevSource struct {
	dev  inputDevice
	keys map[evdev.EvCode]int
	mask liveMask
	log  *slog.Logger
	done chan struct{}
}

// OpenEvdev opens the input device at path and starts reading it. keys maps
// key codes to button numbers; nil uses DefaultKeys.
func OpenEvdev(path string, keys map[evdev.EvCode]int, log *slog.Logger) (*EvdevSource, error) {
	if log == nil {
		log = slog.Default()
	}
	if keys == nil {
		keys = DefaultKeys
	}
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("footswitch: open %s: %w", path, err)
	}
	name, _ := dev.Name()
	log.Info("footswitch: evdev device opened", "path", path, "name", name, "keys", len(keys))

	return newEvdevSource(dev, keys, log), nil
}

func newEvdevSource(dev inputDevice, keys map[evdev.EvCode]int, log *slog.Logger) *EvdevSource {
	s := &EvdevSource{
		dev:  dev,
		keys: keys,
		log:  log,
		done: make(chan struct{}),
	}
	go s.read()
	return s
}

func (s *EvdevSource) read() {
	defer close(s.done)
	for {
		ev, err := s.dev.ReadOne()
		if err != nil {
			if !errors.Is(err, os.ErrClosed) {
				s.log.Warn("footswitch: evdev read failed", "err", err)
			}
			return
		}
		s.handle(ev)
	}
}

func (s *EvdevSource) handle(ev *evdev.InputEvent) {
	if ev.Type != evdev.EV_KEY {
		return
	}
	b, ok := s.keys[ev.Code]
	if !ok {
		s.log.Debug("footswitch: unmapped key", "code", ev.Code)
		return
	}
	switch ev.Value {
	case keyPress:
		s.mask.set(b, true)
	case keyRelease:
		s.mask.set(b, false)
	}
}

// Mask returns the buttons currently down.
func (s *EvdevSource) Mask() Mask { return s.mask.load() }

// Close releases the device. A reader blocked in a read is given closeWait
// to finish and is otherwise left to exit on the next event.
func (s *EvdevSource) Close() error {
	err := s.dev.Close()
	select {
	case <-s.done:
	case <-time.After(closeWait):
		s.log.Debug("footswitch: evdev reader still blocked after close")
	}
	return err
}
