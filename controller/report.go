package controller

import (
	"fmt"

	"github.com/chase3718/footctl/axefx"
	"github.com/chase3718/footctl/program"
)

// Report is the display projection of the core. Indexes are 1-based.
type Report struct {
	Name         string                      `json:"name"`
	Modified     bool                        `json:"modified"`
	SetlistMode  bool                        `json:"setlist_mode"`
	Program      int                         `json:"program"`
	ProgramCount int                         `json:"program_count"`
	Song         int                         `json:"song"`
	SongCount    int                         `json:"song_count"`
	Scene        int                         `json:"scene"`
	SceneCount   int                         `json:"scene_count"`
	Tempo        int                         `json:"tempo"`
	Amps         [program.AmpCount]AmpReport `json:"amps"`
}

type AmpReport struct {
	Tone      string                    `json:"tone"`
	Gain      int                       `json:"gain"`
	GainDirty int                       `json:"gain_dirty"`
	GainClean int                       `json:"gain_clean"`
	Volume    int                       `json:"volume"`
	VolumeDB  float64                   `json:"volume_db"`
	FX        [program.FXCount]FXReport `json:"fx"`
}

type FXReport struct {
	CC      int    `json:"cc"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// Report builds the display projection of the current state.
func (c *Core) Report() Report {
	r := Report{
		Name:         c.pr.Name,
		Modified:     c.curr.Modified != 0,
		SetlistMode:  c.curr.SetlistMode,
		Program:      c.program + 1,
		ProgramCount: program.ProgramCount,
		Song:         c.curr.SetlistIndex + 1,
		SongCount:    c.setlist.Len(),
		Scene:        c.curr.SceneIndex + 1,
		SceneCount:   c.pr.SceneCount,
		Tempo:        int(c.curr.Tempo),
	}
	if r.Name == "" {
		r.Name = fmt.Sprintf("__unnamed song #%d", c.program+1)
	}
	for a, amp := range c.curr.Amp {
		dirty := amp.Gain
		if dirty == 0 {
			dirty = c.pr.DefaultGain[a]
		}
		ar := AmpReport{
			Tone:      amp.Tone.String(),
			Gain:      int(c.Gain(a)),
			GainDirty: int(dirty),
			GainClean: int(c.shadow[a].cleanGain),
			Volume:    int(amp.Volume),
			VolumeDB:  axefx.VolumeDB(amp.Volume),
		}
		for i, on := range amp.FX {
			cc := c.pr.FXMidiCC[a][i]
			ar.FX[i] = FXReport{CC: int(cc), Label: axefx.ShortName(cc), Enabled: on}
		}
		r.Amps[a] = ar
	}
	return r
}
