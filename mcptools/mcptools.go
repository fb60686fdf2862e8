// Package mcptools exposes the controller as MCP tools over stdio, so an
// assistant can read the display and drive the rig.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gitlab.com/gomidi/midi/v2"

	"github.com/chase3718/footctl/controller"
	"github.com/chase3718/footctl/program"
	"github.com/chase3718/footctl/rig"
)

// Rig is the part of rig.Rig the tools use.
type Rig interface {
	Do(ctx context.Context, fn func(*controller.Core) []midi.Message) error
	Snapshot() rig.Snapshot
}

type Server struct {
	rig   Rig
	store *program.Store
	log   *slog.Logger
	mcp   *server.MCPServer
}

func NewServer(r Rig, store *program.Store, version string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		rig:   r,
		store: store,
		log:   log,
		mcp: server.NewMCPServer(
			"footctl",
			version,
			server.WithToolCapabilities(false),
		),
	}
	s.register()
	return s
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.log.Info("mcp: serving on stdio")
	if err := server.ServeStdio(s.mcp); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

// -------------------- Tools --------------------

func (s *Server) register() {
	s.mcp.AddTool(mcp.NewTool("footctl_report",
		mcp.WithDescription("Returns the current controller state: song, scene, tempo and per-amp tone, gain, volume and effects."),
	), s.handleReport)

	s.mcp.AddTool(mcp.NewTool("footctl_list-programs",
		mcp.WithDescription("Lists the stored programs and the setlist."),
	), s.handleListPrograms)

	nav := []struct {
		name, desc string
		fn         func(*controller.Core)
	}{
		{"footctl_next-scene", "Advances to the next scene, or the next song after the last scene.", (*controller.Core).NextScene},
		{"footctl_prev-scene", "Goes back one scene, or to the previous song from the first scene.", (*controller.Core).PrevScene},
		{"footctl_next-song", "Advances to the next program or setlist song.", (*controller.Core).NextSong},
		{"footctl_prev-song", "Goes back to the previous program or setlist song.", (*controller.Core).PrevSong},
		{"footctl_reset-scene", "Returns to the first scene of the current song.", (*controller.Core).ResetScene},
		{"footctl_toggle-setlist-mode", "Switches between program mode and setlist mode.", (*controller.Core).ToggleSetlistMode},
		{"footctl_resend", "Resends the complete state to the Axe-FX.", (*controller.Core).Invalidate},
	}
	for _, n := range nav {
		s.mcp.AddTool(mcp.NewTool(n.name, mcp.WithDescription(n.desc)), s.action(n.name, n.fn))
	}

	s.mcp.AddTool(mcp.NewTool("footctl_tap-tempo",
		mcp.WithDescription("Sends one tap tempo pulse."),
	), s.handleTapTempo)

	s.mcp.AddTool(mcp.NewTool("footctl_set-gain",
		mcp.WithDescription("Sets the gain of an amp. Dirty amps store it in the scene; clean and acoustic amps use the clean gain."),
		mcp.WithNumber("amp", mcp.Required(), mcp.Description("Amp number (1-2).")),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("Gain value (0-127).")),
	), s.handleSetGain)

	s.mcp.AddTool(mcp.NewTool("footctl_set-volume",
		mcp.WithDescription("Sets the volume of an amp. 98 is 0 dB and 127 is +6 dB."),
		mcp.WithNumber("amp", mcp.Required(), mcp.Description("Amp number (1-2).")),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("Volume value (0-127).")),
	), s.handleSetVolume)

	s.mcp.AddTool(mcp.NewTool("footctl_set-tone",
		mcp.WithDescription("Sets the tone of an amp."),
		mcp.WithNumber("amp", mcp.Required(), mcp.Description("Amp number (1-2).")),
		mcp.WithString("tone", mcp.Required(), mcp.Description("One of clean, dirty or acoustic.")),
	), s.handleSetTone)

	s.mcp.AddTool(mcp.NewTool("footctl_toggle-fx",
		mcp.WithDescription("Toggles one of the five effects of an amp."),
		mcp.WithNumber("amp", mcp.Required(), mcp.Description("Amp number (1-2).")),
		mcp.WithNumber("fx", mcp.Required(), mcp.Description("Effect slot (1-5).")),
	), s.handleToggleFX)

	s.mcp.AddTool(mcp.NewTool("footctl_activate-program",
		mcp.WithDescription("Switches to program mode and loads a program."),
		mcp.WithNumber("program", mcp.Required(), mcp.Description("Program number (1-128).")),
	), s.handleActivateProgram)

	s.mcp.AddTool(mcp.NewTool("footctl_activate-song",
		mcp.WithDescription("Switches to setlist mode and loads a setlist song."),
		mcp.WithNumber("song", mcp.Required(), mcp.Description("Setlist position, starting at 1.")),
	), s.handleActivateSong)
}

// -------------------- Handlers --------------------

func (s *Server) handleReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.report()
}

type programEntry struct {
	Program     int    `json:"program"`
	Name        string `json:"name"`
	MIDIProgram int    `json:"midi_program"`
	Tempo       int    `json:"tempo"`
	Scenes      int    `json:"scenes"`
}

type songEntry struct {
	Song    int    `json:"song"`
	Program int    `json:"program"`
	Name    string `json:"name"`
}

func (s *Server) handleListPrograms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out struct {
		Programs []programEntry `json:"programs"`
		SetList  []songEntry    `json:"setlist"`
	}
	for i := 0; i < program.ProgramCount; i++ {
		p := s.store.Load(i)
		if p.Name == "" && p.SceneCount == 0 {
			continue
		}
		out.Programs = append(out.Programs, programEntry{
			Program:     i + 1,
			Name:        p.Name,
			MIDIProgram: int(p.MIDIProgram),
			Tempo:       int(p.Tempo),
			Scenes:      p.SceneCount,
		})
	}
	for i, n := range s.store.SetList().Entries {
		out.SetList = append(out.SetList, songEntry{Song: i + 1, Program: int(n) + 1, Name: s.store.NameOf(int(n))})
	}
	return jsonResult(out)
}

func (s *Server) action(name string, fn func(*controller.Core)) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.log.Debug("mcp: tool call", "tool", name)
		return s.do(ctx, func(c *controller.Core) []midi.Message {
			fn(c)
			return nil
		})
	}
}

func (s *Server) handleTapTempo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.do(ctx, func(c *controller.Core) []midi.Message {
		return []midi.Message{c.TapTempo()}
	})
}

func (s *Server) handleSetGain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	amp, value, err := ampValue(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.do(ctx, func(c *controller.Core) []midi.Message {
		c.SetGain(amp, value)
		return nil
	})
}

func (s *Server) handleSetVolume(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	amp, value, err := ampValue(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.do(ctx, func(c *controller.Core) []midi.Message {
		c.SetVolume(amp, value)
		return nil
	})
}

func (s *Server) handleSetTone(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	amp, err := requireIndex(request, "amp", program.AmpCount)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("tone")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tone, err := program.ParseTone(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.do(ctx, func(c *controller.Core) []midi.Message {
		c.SetTone(amp, tone)
		return nil
	})
}

func (s *Server) handleToggleFX(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	amp, err := requireIndex(request, "amp", program.AmpCount)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fx, err := requireIndex(request, "fx", program.FXCount)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.do(ctx, func(c *controller.Core) []midi.Message {
		c.ToggleFX(amp, fx)
		return nil
	})
}

func (s *Server) handleActivateProgram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := requireIndex(request, "program", program.ProgramCount)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.do(ctx, func(c *controller.Core) []midi.Message {
		c.ActivateProgram(n)
		return nil
	})
}

func (s *Server) handleActivateSong(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	songs := s.store.SetList().Len()
	if songs == 0 {
		return mcp.NewToolResultError("the setlist is empty"), nil
	}
	n, err := requireIndex(request, "song", songs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.do(ctx, func(c *controller.Core) []midi.Message {
		c.ActivateSong(n)
		return nil
	})
}

// -------------------- helpers --------------------

// do runs fn on the rig and answers with the resulting report.
func (s *Server) do(ctx context.Context, fn func(*controller.Core) []midi.Message) (*mcp.CallToolResult, error) {
	if err := s.rig.Do(ctx, fn); err != nil {
		return nil, fmt.Errorf("rig: %w", err)
	}
	return s.report()
}

func (s *Server) report() (*mcp.CallToolResult, error) {
	return jsonResult(s.rig.Snapshot().Report)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result to JSON: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// requireIndex reads a 1-based argument and returns it 0-based.
func requireIndex(request mcp.CallToolRequest, key string, limit int) (int, error) {
	n, err := request.RequireInt(key)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > limit {
		return 0, fmt.Errorf("%s %d out of range 1-%d", key, n, limit)
	}
	return n - 1, nil
}

func ampValue(request mcp.CallToolRequest) (int, uint8, error) {
	amp, err := requireIndex(request, "amp", program.AmpCount)
	if err != nil {
		return 0, 0, err
	}
	v, err := request.RequireInt("value")
	if err != nil {
		return 0, 0, err
	}
	if v < 0 || v > 127 {
		return 0, 0, fmt.Errorf("value %d out of range 0-127", v)
	}
	return amp, uint8(v), nil
}
