package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/copilotpulse/internal/state"
	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

// filterState is the user checklist overlay.
type filterState struct {
	open   bool
	cursor int
}

func (f *filterState) clamp(n int) {
	f.cursor = min(max(f.cursor, 0), max(n-1, 0))
}

func (a App) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	users := a.st.Users

	switch msg.String() {
	case "esc", "enter", "f", "q":
		a.filter.open = false
	case "j", "down":
		if a.filter.cursor < len(users)-1 {
			a.filter.cursor++
		}
	case "k", "up":
		if a.filter.cursor > 0 {
			a.filter.cursor--
		}
	case "g":
		a.filter.cursor = 0
	case "G":
		a.filter.cursor = max(len(users)-1, 0)
	case " ", "space", "x":
		if a.filter.cursor < len(users) {
			a.dispatch(state.ToggleUser{User: users[a.filter.cursor]})
		}
	case "a":
		a.dispatch(state.SelectAllUsers{})
	case "n":
		a.dispatch(state.DeselectAllUsers{})
	}
	return a, nil
}

func (a App) filterRows() int {
	return max(a.height-14, 5)
}

func (a App) viewFilter() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	title := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	cursorRow := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	check := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	users := a.st.Users
	rows := a.filterRows()

	// Scroll just enough to keep the cursor on screen.
	offset := max(a.filter.cursor-rows+1, 0)

	width := 24
	for _, u := range users {
		width = max(width, len([]rune(u))+6)
	}

	var b strings.Builder
	b.WriteString(title.Render("◈ Filter users"))
	b.WriteString(dim.Render(fmt.Sprintf("  %s", a.selectionLabel())))
	b.WriteString("\n\n")

	if len(users) == 0 {
		b.WriteString(dim.Render("No users loaded."))
	}
	end := min(offset+rows, len(users))
	for i := offset; i < end; i++ {
		u := users[i]
		mark := dim.Render("[ ] ")
		if a.st.Selection.Has(u) {
			mark = check.Render("[✓] ")
		}
		style := row
		if i == a.filter.cursor {
			style = cursorRow
		}
		b.WriteString(mark + style.Render(fmt.Sprintf("%-*s", width-4, u)))
		b.WriteString("\n")
	}
	if end < len(users) {
		b.WriteString(dim.Render(fmt.Sprintf("  +%d more", len(users)-end)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("[space] toggle  [a] all  [n] none  [esc] close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}
