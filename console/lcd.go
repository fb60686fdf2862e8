package console

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/chase3718/footctl/controller"
	"github.com/chase3718/footctl/footswitch"
	"github.com/chase3718/footctl/program"
)

const (
	lcdRows = 4
	lcdCols = 20
)

// Render lays the report out on the 4x20 LCD: song name, status, then one
// row per amp in AMP or FX mode. Enabled effects are upper case.
func Render(r controller.Report, rows [program.AmpCount]footswitch.RowMode) [lcdRows]string {
	var lcd [lcdRows]string

	if r.Modified {
		lcd[0] = pad(r.Name, lcdCols-1) + "*"
	} else {
		lcd[0] = fit(r.Name)
	}

	if r.SetlistMode {
		lcd[1] = fmt.Sprintf("Sng%3d/%2d  Scn%3d/%2d", r.Song, r.SongCount, r.Scene, r.SceneCount)
	} else {
		lcd[1] = fmt.Sprintf("Prg%3d/%-3d Scn%3d/%2d", r.Program, r.ProgramCount, r.Scene, r.SceneCount)
	}

	for a, amp := range r.Amps {
		if rows[a] == footswitch.FXRow {
			var b strings.Builder
			for _, fx := range amp.FX {
				b.WriteString(letterCase(fx.Label, fx.Enabled))
			}
			lcd[2+a] = fit(b.String())
			continue
		}
		var letters strings.Builder
		for _, fx := range amp.FX {
			letters.WriteString(letterCase(initial(fx.Label), fx.Enabled))
		}
		lcd[2+a] = fit(fmt.Sprintf("%d%c g%2X  v%5.1f %s",
			a+1, toneLetter(amp.Tone), amp.Gain, amp.VolumeDB, letters.String()))
	}
	return lcd
}

func toneLetter(tone string) byte {
	if tone == "" {
		return '?'
	}
	return tone[0] - 'a' + 'A'
}

func initial(label string) string {
	if label == "" {
		return "-"
	}
	return label[:1]
}

func letterCase(s string, upper bool) string {
	if upper {
		return strings.ToUpper(s)
	}
	return strings.ToLower(s)
}

// fit pads or truncates s to the LCD width.
func fit(s string) string { return pad(s, lcdCols) }

// pad truncates s to width display cells, never splitting a rune, and fills
// the rest with spaces.
func pad(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, ""), width)
}
