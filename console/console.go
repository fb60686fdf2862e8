package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"gitlab.com/gomidi/midi/v2"

	"github.com/chase3718/footctl/controller"
	"github.com/chase3718/footctl/rig"
)

// Rig is the part of rig.Rig the console uses.
type Rig interface {
	Do(ctx context.Context, fn func(*controller.Core) []midi.Message) error
	Snapshot() rig.Snapshot
}

type Console struct {
	rig Rig
	in  io.Reader
	out io.Writer
	log *slog.Logger

	mu sync.Mutex // serializes writes to out
}

func New(r Rig, in io.Reader, out io.Writer, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{rig: r, in: in, out: out, log: log}
}

// Show prints the panel for s. It is meant to be registered with
// rig.WithReportFunc.
func (c *Console) Show(s rig.Snapshot) {
	c.print(Panel(s.Report, s.Rows))
}

// Run reads commands until the input ends, quit is entered or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	sc := bufio.NewScanner(c.in)
	c.prompt()
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		quit, err := c.exec(ctx, sc.Text())
		if err != nil && !errors.Is(err, ErrEmpty) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.print(err.Error())
		}
		if quit {
			return nil
		}
		c.prompt()
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("console: read: %w", err)
	}
	return nil
}

func (c *Console) exec(ctx context.Context, line string) (quit bool, err error) {
	cmd, err := Parse(line)
	if err != nil {
		return false, err
	}
	c.log.Debug("console: command", "cmd", cmd.Name)
	switch cmd.Name {
	case "quit":
		return true, nil
	case "help":
		c.print(Help)
		return false, nil
	case "show":
		c.Show(c.rig.Snapshot())
		return false, nil
	case "song":
		songs := c.rig.Snapshot().Report.SongCount
		if songs == 0 {
			return false, errors.New("console: the setlist is empty")
		}
		if cmd.Index >= songs {
			return false, fmt.Errorf("console: song %d out of range 1-%d", cmd.Index+1, songs)
		}
	}
	return false, c.rig.Do(ctx, func(core *controller.Core) []midi.Message {
		return cmd.Apply(core)
	})
}

func (c *Console) print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

func (c *Console) prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, "> ")
}
