// Package transport carries MIDI messages from the controller to the Axe-FX:
// a DIN MIDI UART, a hot-plugged MIDI output port, or the log.
package transport

import (
	"fmt"
	"log/slog"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"go.bug.st/serial"
)

// DINBaud is the MIDI 1.0 wire rate.
const DINBaud = 31250

// Sender delivers one MIDI message.
type Sender interface {
	Send(msg midi.Message) error
}

// SerialOut writes raw MIDI bytes to a UART wired to a DIN MIDI jack.
type SerialOut struct {
	mu   sync.Mutex
	port serial.Port
	log  *slog.Logger
}

// OpenSerial opens the named serial device at the given baud rate.
func OpenSerial(name string, baud int, log *slog.Logger) (*SerialOut, error) {
	if log == nil {
		log = slog.Default()
	}
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s at %d baud: %w", name, baud, err)
	}
	log.Info("serial: port opened", "device", name, "baud", baud)
	return &SerialOut{port: p, log: log}, nil
}

// Send writes the message bytes to the port.
func (s *SerialOut) Send(msg midi.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.port.Write(msg.Bytes())
	if err != nil {
		return fmt.Errorf("serial: write: %w", err)
	}
	s.log.Debug("serial: message sent", "bytes", n, "msg", msg.String())
	return nil
}

// Close closes the underlying serial port.
func (s *SerialOut) Close() error {
	s.log.Info("serial: closing port")
	return s.port.Close()
}

// SerialPorts lists the serial devices present on the system.
func SerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("serial: list ports: %w", err)
	}
	return ports, nil
}

// LogOut only logs what would be sent. It is used when no output is
// configured.
type LogOut struct {
	log *slog.Logger
}

func NewLogOut(log *slog.Logger) *LogOut {
	if log == nil {
		log = slog.Default()
	}
	return &LogOut{log: log}
}

func (l *LogOut) Send(msg midi.Message) error {
	l.log.Info("midi: send", "msg", msg.String(), "bytes", fmt.Sprintf("% X", msg.Bytes()))
	return nil
}
