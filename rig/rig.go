// Package rig runs the controller: it owns the Core on a single goroutine,
// polls the footswitch, ticks the diff engine and sends what it emits.
// Everything else reaches the Core through Do.
package rig

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/chase3718/footctl/controller"
	"github.com/chase3718/footctl/footswitch"
	"github.com/chase3718/footctl/program"
)

// DefaultPeriod is the tick period.
const DefaultPeriod = 10 * time.Millisecond

// Sender delivers one MIDI message to the device.
type Sender interface {
	Send(msg midi.Message) error
}

// Snapshot is what displays render: the report plus the footswitch row modes.
type Snapshot struct {
	Report controller.Report                    `json:"report"`
	Rows   [program.AmpCount]footswitch.RowMode `json:"-"`
}

type action struct {
	fn   func(*controller.Core) []midi.Message
	done chan struct{}
}

type Option func(*Rig)

// WithPeriod sets the tick period.
func WithPeriod(d time.Duration) Option {
	return func(r *Rig) {
		if d > 0 {
			r.period = d
		}
	}
}

// WithFootswitch polls src every tick. hold and repeat configure the press
// tracker.
func WithFootswitch(src footswitch.Source, hold, repeat time.Duration) Option {
	return func(r *Rig) {
		r.src = src
		r.tracker = footswitch.NewTracker(hold, repeat)
	}
}

// WithReportFunc registers fn to be called with a fresh snapshot whenever
// the display changes. fn runs on the rig goroutine.
func WithReportFunc(fn func(Snapshot)) Option {
	return func(r *Rig) { r.report = fn }
}

func WithLogger(log *slog.Logger) Option {
	return func(r *Rig) { r.log = log }
}

type Rig struct {
	core    *controller.Core
	out     Sender
	period  time.Duration
	src     footswitch.Source
	tracker *footswitch.Tracker
	layout  *footswitch.Layout
	report  func(Snapshot)
	log     *slog.Logger
	actions chan action

	mu   sync.Mutex
	snap Snapshot
}

func New(core *controller.Core, out Sender, opts ...Option) *Rig {
	r := &Rig{
		core:    core,
		out:     out,
		period:  DefaultPeriod,
		actions: make(chan action),
	}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	r.layout = footswitch.NewLayout(r.log)
	r.snap = Snapshot{Report: core.Report(), Rows: r.layout.Rows()}
	return r
}

// Run ticks until ctx is done. The first tick runs immediately and sends the
// complete state.
func (r *Rig) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	r.log.Info("rig: running", "period", r.period, "footswitch", r.src != nil)
	r.tick(time.Now(), true)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("rig: stopped")
			return ctx.Err()
		case now := <-ticker.C:
			r.tick(now, false)
		case a := <-r.actions:
			r.send(a.fn(r.core))
			r.tick(time.Now(), true)
			close(a.done)
		}
	}
}

// Do runs fn on the rig goroutine between ticks and returns once it and the
// tick that follows it have completed. Messages returned by fn are sent
// before the tick output.
func (r *Rig) Do(ctx context.Context, fn func(*controller.Core) []midi.Message) error {
	a := action{fn: fn, done: make(chan struct{})}
	select {
	case r.actions <- a:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the last published snapshot.
func (r *Rig) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// -------------------- Tick --------------------

func (r *Rig) tick(now time.Time, publish bool) {
	var msgs []midi.Message
	if r.src != nil {
		for _, ev := range r.tracker.Update(r.src.Mask(), now) {
			r.log.Debug("rig: footswitch event", "button", ev.Button, "kind", ev.Kind)
			m, redraw := r.layout.Handle(ev, r.core)
			msgs = append(msgs, m...)
			publish = publish || redraw
		}
	}
	res := r.core.Tick()
	r.send(append(msgs, res.Messages...))
	if res.Changed || publish {
		r.publish()
	}
}

func (r *Rig) send(msgs []midi.Message) {
	for _, m := range msgs {
		if err := r.out.Send(m); err != nil {
			r.log.Warn("rig: send failed", "msg", m.String(), "err", err)
		}
	}
}

func (r *Rig) publish() {
	s := Snapshot{Report: r.core.Report(), Rows: r.layout.Rows()}
	r.mu.Lock()
	r.snap = s
	r.mu.Unlock()
	if r.report != nil {
		r.report(s)
	}
}
