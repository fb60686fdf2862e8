package transport

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"
)

type fakePort struct {
	name    string
	open    bool
	sent    [][]byte
	sendErr error
}

func (p *fakePort) String() string { return p.name }
func (p *fakePort) Open() error    { p.open = true; return nil }
func (p *fakePort) Close() error   { p.open = false; return nil }
func (p *fakePort) Send(data []byte) error {
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, append([]byte(nil), data...))
	return nil
}

type fakeDriver struct {
	ports []*fakePort
}

func (d *fakeDriver) list() ([]outPort, error) {
	out := make([]outPort, len(d.ports))
	for i, p := range d.ports {
		out[i] = p
	}
	return out, nil
}

func TestWatcherHotPlug(t *testing.T) {
	through := &fakePort{name: "Midi Through Port-0"}
	axe := &fakePort{name: "AXE-FX II MIDI Out"}
	other := &fakePort{name: "USB Uno MIDI Interface"}
	drv := &fakeDriver{ports: []*fakePort{through, other}}

	var mu sync.Mutex
	var connects []string
	connected := make(chan struct{}, 4)
	w := newWatcher(drv.list, nil, func(name string) {
		mu.Lock()
		connects = append(connects, name)
		mu.Unlock()
		connected <- struct{}{}
	}, slog.New(slog.DiscardHandler))

	t0 := time.Unix(100, 0)
	w.tick(t0)
	if name, ok := w.Connected(); !ok || name != other.name {
		t.Fatalf("single candidate: connected = %q %v", name, ok)
	}
	<-connected

	msg := midi.ControlChange(2, 16, 98)
	if err := w.Send(msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(other.sent) != 1 || !bytes.Equal(other.sent[0], msg.Bytes()) {
		t.Errorf("sent = % X", other.sent)
	}

	// Unplugged: the next scan drops the connection and sends fail.
	drv.ports = []*fakePort{through}
	w.tick(t0.Add(rescanInterval))
	if _, ok := w.Connected(); ok {
		t.Fatal("still connected after the device disappeared")
	}
	if err := w.Send(msg); !errors.Is(err, ErrDisconnected) {
		t.Errorf("Send while disconnected: err = %v", err)
	}
	if other.open {
		t.Error("port not closed")
	}

	// Plugged back with the Axe-FX: the preferred port wins and the rescan
	// is immediate.
	drv.ports = []*fakePort{through, other, axe}
	w.tick(t0.Add(rescanInterval + time.Millisecond))
	if name, _ := w.Connected(); name != axe.name {
		t.Fatalf("preferred output not chosen, connected to %q", name)
	}
	<-connected

	mu.Lock()
	defer mu.Unlock()
	if len(connects) != 2 || connects[1] != axe.name {
		t.Errorf("onConnect calls = %v", connects)
	}
}

func TestWatcherSendFailureDrops(t *testing.T) {
	axe := &fakePort{name: "Axe-Fx II"}
	drv := &fakeDriver{ports: []*fakePort{axe}}
	w := newWatcher(drv.list, []string{"axe-fx"}, nil, slog.New(slog.DiscardHandler))
	w.tick(time.Unix(0, 0))

	axe.sendErr = errors.New("device gone")
	if err := w.Send(midi.ProgramChange(2, 1)); err == nil {
		t.Fatal("expected send error")
	}
	if _, ok := w.Connected(); ok {
		t.Error("failed send should drop the connection")
	}
}

func TestWatcherRescanInterval(t *testing.T) {
	drv := &fakeDriver{}
	w := newWatcher(drv.list, nil, nil, slog.New(slog.DiscardHandler))
	t0 := time.Unix(0, 0)
	w.tick(t0)

	drv.ports = []*fakePort{{name: "Axe-Fx II"}}
	w.tick(t0.Add(rescanInterval / 2))
	if _, ok := w.Connected(); ok {
		t.Error("scan ran before the rescan interval")
	}
	w.tick(t0.Add(rescanInterval))
	if _, ok := w.Connected(); !ok {
		t.Error("scan did not run after the rescan interval")
	}
}

func TestLogOut(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogOut(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := l.Send(midi.ControlChange(2, 37, 0x7F)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("B2 25 7F")) {
		t.Errorf("log output = %q", buf.String())
	}
}
