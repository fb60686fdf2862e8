package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chase3718/footctl/controller"
	"github.com/chase3718/footctl/footswitch"
	"github.com/chase3718/footctl/program"
)

var (
	lcdStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Foreground(lipgloss.Color("86")).
			Padding(0, 1)

	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	captionStyle  = lipgloss.NewStyle().Faint(true)
)

// Panel renders the LCD inside a bordered box with a caption line below.
func Panel(r controller.Report, rows [program.AmpCount]footswitch.RowMode) string {
	lcd := Render(r, rows)
	box := lcdStyle.Render(strings.Join(lcd[:], "\n"))

	caption := fmt.Sprintf("tempo %d bpm", r.Tempo)
	if r.Modified {
		caption += "  " + modifiedStyle.Render("modified")
	}
	return lipgloss.JoinVertical(lipgloss.Left, box, captionStyle.Render(caption))
}
