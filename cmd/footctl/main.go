// Command footctl drives an Axe-FX II from a footswitch: it loads songs from
// a flash image, tracks scene edits and sends only the MIDI needed to keep
// the device in line.
//
// Usage:
//
//	footctl [flags] [run|mcp|compile|dump|ports] [args]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/chase3718/footctl/console"
	"github.com/chase3718/footctl/controller"
	"github.com/chase3718/footctl/footswitch"
	"github.com/chase3718/footctl/mcptools"
	"github.com/chase3718/footctl/program"
	"github.com/chase3718/footctl/rig"
	"github.com/chase3718/footctl/transport"
)

const version = "0.3.0"

// -------------------- Logger --------------------

var logger = slog.Default()

// initLogger configures the shared slog logger and calls slog.SetDefault so
// the stdlib log package also routes through the same handler.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

// -------------------- Flags --------------------

type options struct {
	debug   bool
	image   string
	out     string
	serial  string
	baud    int
	fsw     string
	fswMIDI string
	fswCC   int
	tick    time.Duration
	hold    time.Duration
	repeat  time.Duration
	console bool
}

func parseFlags() options {
	var o options
	flag.BoolVar(&o.debug, "debug", false, "enable debug logging (adds source location)")
	flag.StringVar(&o.image, "image", "footctl.bin", "flash image, or a .yaml song library")
	flag.StringVar(&o.out, "out", "Axe-Fx", "MIDI output name pattern; \"log\" only logs messages")
	flag.StringVar(&o.serial, "serial", "", "send over a DIN MIDI UART instead of a MIDI port")
	flag.IntVar(&o.baud, "baud", transport.DINBaud, "serial baud rate")
	flag.StringVar(&o.fsw, "fsw", "", "evdev device of a USB footswitch (e.g. /dev/input/event5)")
	flag.StringVar(&o.fswMIDI, "fsw-midi", "", "MIDI input name pattern of a MIDI footswitch")
	flag.IntVar(&o.fswCC, "fsw-cc", 80, "first CC number of the MIDI footswitch buttons")
	flag.DurationVar(&o.tick, "tick", rig.DefaultPeriod, "controller tick period")
	flag.DurationVar(&o.hold, "hold", footswitch.DefaultHold, "footswitch hold threshold")
	flag.DurationVar(&o.repeat, "repeat", footswitch.DefaultRepeat, "footswitch auto-repeat interval (0 disables)")
	flag.BoolVar(&o.console, "console", true, "show the LCD panel and read commands from stdin")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [run|mcp|compile IN.yaml OUT.bin|dump IN.bin [OUT.yaml]|ports]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	return o
}

// -------------------- Main --------------------

func main() {
	o := parseFlags()
	initLogger(o.debug)

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "run"
	}

	var err error
	switch cmd {
	case "run":
		err = run(o, false)
	case "mcp":
		err = run(o, true)
	case "compile":
		err = compile(flag.Arg(1), flag.Arg(2))
	case "dump":
		err = dump(flag.Arg(1), flag.Arg(2))
	case "ports":
		err = ports()
	default:
		flag.Usage()
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		logger.Error("footctl failed", "cmd", cmd, "err", err)
		os.Exit(1)
	}
}

func run(o options, serveMCP bool) error {
	logger.Info("footctl starting",
		"version", version,
		"image", o.image,
		"out", o.out,
		"serial", o.serial,
		"tick", o.tick,
		"hold", o.hold,
		"repeat", o.repeat,
		"mcp", serveMCP,
	)

	im, err := loadImage(o.image)
	if err != nil {
		return err
	}
	store := program.NewStore(im)
	core := controller.New(store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The watcher reaches the rig through this variable once a device is
	// plugged in; it is started only after r is set.
	var r *rig.Rig
	resend := func(name string) {
		logger.Info("midi: device connected, resending state", "device", name)
		if err := r.Do(ctx, func(c *controller.Core) []midi.Message {
			c.Invalidate()
			return nil
		}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("midi: resend failed", "err", err)
		}
	}

	out, start, closeOut, err := openOutput(o, resend)
	if err != nil {
		return err
	}
	defer closeOut()

	opts := []rig.Option{rig.WithPeriod(o.tick), rig.WithLogger(logger)}

	src, closeSrc, err := openFootswitch(o)
	if err != nil {
		return err
	}
	if src != nil {
		defer closeSrc()
		opts = append(opts, rig.WithFootswitch(src, o.hold, o.repeat))
	}

	var con *console.Console
	withConsole := o.console && !serveMCP
	if withConsole {
		opts = append(opts, rig.WithReportFunc(func(s rig.Snapshot) { con.Show(s) }))
	}

	r = rig.New(core, out, opts...)
	if withConsole {
		con = console.New(r, os.Stdin, os.Stdout, logger)
	}
	start(ctx)

	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	switch {
	case serveMCP:
		go func() {
			if err := mcptools.NewServer(r, store, version, logger).ServeStdio(); err != nil {
				logger.Error("mcp: server stopped", "err", err)
			}
			stop()
		}()
	case withConsole:
		go func() {
			if err := con.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("console: stopped", "err", err)
			}
			stop()
		}()
	}

	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("footctl stopped")
	return nil
}

// -------------------- Setup helpers --------------------

func loadImage(path string) (program.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read library: %w", err)
		}
		lib, err := program.ParseLibrary(data)
		if err != nil {
			return nil, err
		}
		return lib.Image()
	}
	im, err := program.ReadImage(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("image not found, starting with an empty one", "image", path)
		return program.NewImage(), nil
	}
	return im, err
}

// openOutput returns the sender, a function that starts it and a closer.
func openOutput(o options, onConnect func(string)) (rig.Sender, func(context.Context), func(), error) {
	switch {
	case o.serial != "":
		sp, err := transport.OpenSerial(o.serial, o.baud, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return sp, func(context.Context) {}, func() { _ = sp.Close() }, nil
	case o.out == "log":
		return transport.NewLogOut(logger), func(context.Context) {}, func() {}, nil
	}

	w, err := transport.NewWatcher([]string{o.out}, onConnect, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return w, func(ctx context.Context) { go w.Run(ctx) }, w.Close, nil
}

func openFootswitch(o options) (footswitch.Source, func(), error) {
	switch {
	case o.fsw != "":
		src, err := footswitch.OpenEvdev(o.fsw, footswitch.DefaultKeys, logger)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	case o.fswMIDI != "":
		if o.fswCC < 0 || o.fswCC > 128-footswitch.Buttons {
			return nil, nil, fmt.Errorf("-fsw-cc %d out of range 0-%d", o.fswCC, 128-footswitch.Buttons)
		}
		p, err := transport.OpenPorts()
		if err != nil {
			return nil, nil, err
		}
		in, err := p.FindInput(o.fswMIDI)
		if err != nil {
			p.Close()
			return nil, nil, err
		}
		src, err := footswitch.ListenMIDI(in, uint8(o.fswCC), logger)
		if err != nil {
			p.Close()
			return nil, nil, err
		}
		return src, func() {
			_ = src.Close()
			p.Close()
		}, nil
	}
	logger.Info("no footswitch configured")
	return nil, nil, nil
}

// -------------------- Offline commands --------------------

func compile(in, out string) error {
	if in == "" || out == "" {
		return errors.New("usage: compile IN.yaml OUT.bin")
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read library: %w", err)
	}
	lib, err := program.ParseLibrary(data)
	if err != nil {
		return err
	}
	im, err := lib.Image()
	if err != nil {
		return err
	}
	if err := im.WriteFile(out); err != nil {
		return err
	}
	logger.Info("image written", "programs", len(lib.Programs), "setlist", len(lib.SetList), "out", out)
	return nil
}

func dump(in, out string) error {
	if in == "" {
		return errors.New("usage: dump IN.bin [OUT.yaml]")
	}
	im, err := program.ReadImage(in)
	if err != nil {
		return err
	}
	data, err := program.NewStore(im).Library().Marshal()
	if err != nil {
		return err
	}
	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write library: %w", err)
	}
	return nil
}

func ports() error {
	p, err := transport.OpenPorts()
	if err != nil {
		return err
	}
	defer p.Close()
	ins, outs, err := p.Names()
	if err != nil {
		return err
	}
	serials, err := transport.SerialPorts()
	if err != nil {
		logger.Warn("serial: list failed", "err", err)
	}
	printList("MIDI inputs", ins)
	printList("MIDI outputs", outs)
	printList("Serial ports", serials)
	return nil
}

func printList(title string, names []string) {
	fmt.Printf("%s:\n", title)
	if len(names) == 0 {
		fmt.Println("  (none)")
	}
	for _, n := range names {
		fmt.Printf("  %s\n", n)
	}
}
