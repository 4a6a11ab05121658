package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

// Status is what the bottom bar reports.
type Status struct {
	Records    int
	LoadTime   string
	Refreshing bool
	Fetching   bool
	Message    string // transient, e.g. a reload error
}

// RenderStatusBar renders the bottom bar width columns wide.
func RenderStatusBar(width int, st Status) string {
	t := theme.Active

	hint := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	key := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	bg := lipgloss.NewStyle().Background(t.Surface)

	var left strings.Builder
	left.WriteString(bg.Render(" "))
	for i, b := range [][2]string{{"?", "help"}, {"f", "ilter"}, {"r", "eload"}, {"L", "ink"}, {"q", "uit"}} {
		if i > 0 {
			left.WriteString(bg.Render("  "))
		}
		left.WriteString(key.Render("[" + b[0] + "]"))
		left.WriteString(hint.Render(b[1]))
	}

	var right string
	switch {
	case st.Message != "":
		right = warn.Render(st.Message + " ")
	case st.Refreshing:
		right = hint.Render("Reloading... ")
	case st.Fetching:
		right = hint.Render("Fetching report link... ")
	case st.LoadTime != "":
		right = hint.Render(cli.FormatNumber(int64(st.Records)) + " records · loaded in " + st.LoadTime + " ")
	}

	l := left.String()
	pad := width - lipgloss.Width(l) - lipgloss.Width(right)
	if pad < 0 {
		pad = 0
	}
	return lipgloss.NewStyle().Width(width).Background(t.Surface).
		Render(l + bg.Render(strings.Repeat(" ", pad)) + right)
}
