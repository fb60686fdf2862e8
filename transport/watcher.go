package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// -------------------- Hot-swap config --------------------

// PreferredOutputs: outputs matching any of these are picked first.
var PreferredOutputs = []string{"Axe-Fx", "Fractal"}

// ExcludedOutputs: virtual/system ports that are never auto-connected.
var ExcludedOutputs = []string{"Midi Through", "Through Port", "Dummy"}

const rescanInterval = 1000 * time.Millisecond

// ErrDisconnected is returned by Watcher.Send while no output is connected.
var ErrDisconnected = errors.New("midi: output not connected")

// outPort is the subset of drivers.Out the watcher uses.
type outPort interface {
	String() string
	Open() error
	Close() error
	Send(data []byte) error
}

// -------------------- Watcher --------------------

// Watcher keeps a connection to the preferred MIDI output and survives the
// device being unplugged and plugged back in. onConnect runs (on its own
// goroutine) every time an output is connected; the device state is unknown
// at that point, so callers invalidate the controller there.
type Watcher struct {
	mu           sync.Mutex
	list         func() ([]outPort, error)
	closeDriver  func()
	port         outPort
	connected    bool
	selectedName string
	lastRescanAt time.Time

	preferred []string
	onConnect func(name string)
	log       *slog.Logger
}

// NewWatcher initialises the rtmidi driver. preferred overrides
// PreferredOutputs when non-empty. Call Close when done.
func NewWatcher(preferred []string, onConnect func(name string), log *slog.Logger) (*Watcher, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	list := func() ([]outPort, error) {
		outs, err := drv.Outs()
		if err != nil {
			return nil, err
		}
		ports := make([]outPort, len(outs))
		for i, o := range outs {
			ports[i] = o
		}
		return ports, nil
	}
	w := newWatcher(list, preferred, onConnect, log)
	w.closeDriver = func() { drv.Close() }
	return w, nil
}

func newWatcher(list func() ([]outPort, error), preferred []string, onConnect func(string), log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	if len(preferred) == 0 {
		preferred = PreferredOutputs
	}
	return &Watcher{
		list:      list,
		preferred: preferred,
		onConnect: onConnect,
		log:       log,
	}
}

// Close shuts down the active connection and the driver.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeConn()
	if w.closeDriver != nil {
		w.closeDriver()
	}
}

// Connected returns the name of the connected output.
func (w *Watcher) Connected() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectedName, w.connected
}

// Run rescans the outputs until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(rescanInterval)
	defer ticker.Stop()
	w.Tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick()
		}
	}
}

// Tick scans for outputs, connects to a preferred one, and detects
// disappearances. Scans closer together than the rescan interval are skipped.
func (w *Watcher) Tick() {
	w.tick(time.Now())
}

func (w *Watcher) tick(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lastRescanAt.IsZero() && now.Sub(w.lastRescanAt) < rescanInterval {
		return
	}
	w.lastRescanAt = now

	outputs := w.listOutputs()

	if w.connected {
		for _, n := range outputs {
			if n == w.selectedName {
				return
			}
		}
		w.log.Warn("midi: output disappeared", "device", w.selectedName)
		w.closeConn()
		w.lastRescanAt = time.Time{}
		return
	}

	if len(outputs) == 0 {
		return
	}
	cand, ok := w.pickPreferred(outputs)
	if !ok {
		w.log.Debug("midi: no preferred output found", "available", strings.Join(outputs, ", "))
		return
	}
	if err := w.openByName(cand); err != nil {
		w.log.Error("midi: connect failed", "device", cand, "err", err)
		return
	}
	if w.onConnect != nil {
		go w.onConnect(cand)
	}
}

// Send writes msg to the connected output. A failed write drops the
// connection so the next scan reconnects.
func (w *Watcher) Send(msg midi.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected {
		return ErrDisconnected
	}
	if err := w.port.Send(msg.Bytes()); err != nil {
		w.log.Warn("midi: send failed, dropping output", "device", w.selectedName, "err", err)
		w.closeConn()
		w.lastRescanAt = time.Time{}
		return fmt.Errorf("midi: send: %w", err)
	}
	return nil
}

// -------------------- internal --------------------

func (w *Watcher) listOutputs() []string {
	outs, err := w.list()
	if err != nil {
		w.log.Error("midi: list outputs failed", "err", err)
		return nil
	}
	var names []string
	for _, o := range outs {
		name := o.String()
		if excluded(name) {
			w.log.Debug("midi: output excluded", "device", name)
			continue
		}
		names = append(names, name)
	}
	w.log.Debug("midi: outputs found", "count", len(names), "devices", strings.Join(names, ", "))
	return names
}

func excluded(name string) bool {
	for _, pat := range ExcludedOutputs {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func (w *Watcher) pickPreferred(outputs []string) (string, bool) {
	for _, pat := range w.preferred {
		for _, name := range outputs {
			if containsCI(name, pat) {
				return name, true
			}
		}
	}
	if len(outputs) == 1 {
		return outputs[0], true
	}
	return "", false
}

func (w *Watcher) closeConn() {
	if w.port != nil {
		_ = w.port.Close()
		w.port = nil
	}
	w.connected = false
	w.selectedName = ""
}

func (w *Watcher) openByName(name string) error {
	outs, err := w.list()
	if err != nil {
		return err
	}
	var found outPort
	for _, o := range outs {
		if o.String() == name {
			found = o
			break
		}
	}
	if found == nil {
		return fmt.Errorf("output %q not found", name)
	}
	if err := found.Open(); err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}
	w.port = found
	w.connected = true
	w.selectedName = name
	w.log.Info("midi: output connected", "device", name)
	return nil
}

// -------------------- utility --------------------

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
