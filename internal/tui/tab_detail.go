package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
	"github.com/theirongolddev/copilotpulse/internal/tui/components"
	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

// detailState tracks the per-user-per-day table.
type detailState struct {
	sort     model.DetailSort
	from, to string
	cursor   int

	editing bool
	input   textinput.Model
	err     string
}

func newDetailState() detailState {
	return detailState{sort: model.SortDate}
}

func (d *detailState) clamp(n int) {
	d.cursor = min(max(d.cursor, 0), max(n-1, 0))
}

func (d *detailState) move(delta, n int) {
	d.cursor += delta
	d.clamp(n)
}

func newRangeInput(from, to string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "2025-01-01..2025-01-31"
	ti.CharLimit = 32
	ti.Width = 30
	if from != "" || to != "" {
		ti.SetValue(from + ".." + to)
	}
	return ti
}

// parseDateRange reads "FROM..TO", where either side may be empty, or a
// single day. Blank input clears the range.
func parseDateRange(s string) (from, to string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", nil
	}
	if before, after, ok := strings.Cut(s, ".."); ok {
		from, to = strings.TrimSpace(before), strings.TrimSpace(after)
	} else {
		from, to = s, s
	}
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return "", "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", d)
		}
	}
	if from != "" && to != "" && from > to {
		return "", "", errors.New("start is after end")
	}
	return from, to, nil
}

func rangeLabel(from, to string) string {
	switch {
	case from == to:
		return from
	case from == "":
		return "… " + to
	case to == "":
		return from + " …"
	default:
		return from + " … " + to
	}
}

func (a App) updateDetailKeys(key string) (tea.Model, tea.Cmd, bool) {
	n := len(a.v.detail)
	switch key {
	case "/":
		a.detail.editing = true
		a.detail.err = ""
		a.detail.input = newRangeInput(a.detail.from, a.detail.to)
		a.detail.input.Focus()
		return a, textinput.Blink, true
	case "s":
		a.detail.sort = a.detail.sort.Next()
		a.detail.cursor = 0
		a.refreshDetail()
	case "esc":
		if a.detail.from == "" && a.detail.to == "" {
			return a, nil, false
		}
		a.detail.from, a.detail.to = "", ""
		a.detail.cursor = 0
		a.refreshDetail()
	case "j", "down":
		a.detail.move(1, n)
	case "k", "up":
		a.detail.move(-1, n)
	case "ctrl+d", "pgdown":
		a.detail.move(a.detailPage(), n)
	case "ctrl+u", "pgup":
		a.detail.move(-a.detailPage(), n)
	case "g":
		a.detail.cursor = 0
	case "G":
		a.detail.cursor = max(n-1, 0)
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) detailPage() int {
	return max((a.height-10)/2, 1)
}

func (a App) updateDetailInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		from, to, err := parseDateRange(a.detail.input.Value())
		if err != nil {
			a.detail.err = err.Error()
			return a, nil
		}
		a.detail.editing = false
		a.detail.err = ""
		a.detail.from, a.detail.to = from, to
		a.detail.cursor = 0
		a.refreshDetail()
		return a, nil
	case "esc":
		a.detail.editing = false
		a.detail.err = ""
		return a, nil
	}

	var cmd tea.Cmd
	a.detail.input, cmd = a.detail.input.Update(msg)
	return a, cmd
}

func (a App) renderDetailTab(cw, h int) string {
	t := theme.Active
	head := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	cursorCell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	innerW := components.CardInnerWidth(cw)
	rows := a.v.detail

	var b strings.Builder

	// Controls line.
	b.WriteString(muted.Render("Sort "))
	b.WriteString(accent.Render(string(a.detail.sort)))
	b.WriteString(muted.Render("   Range "))
	switch {
	case a.detail.editing:
		b.WriteString(a.detail.input.View())
	case a.detail.from != "" || a.detail.to != "":
		b.WriteString(accent.Render(rangeLabel(a.detail.from, a.detail.to)))
	default:
		b.WriteString(muted.Render("all days"))
	}
	if a.detail.err != "" {
		b.WriteString(warn.Render("  " + a.detail.err))
	}
	b.WriteString("\n\n")

	const dayW, userW, numW, flagW = 12, 18, 10, 7
	featureW := max(innerW-dayW-userW-3*numW-2*flagW, 10)
	b.WriteString(head.Render(fmt.Sprintf("%-*s%-*s%*s%*s%*s%*s%*s  %s",
		dayW, "Day", userW, "User", numW, "Gen", numW, "Acc", numW, "Chats", flagW, "Chat", flagW, "Agent", "Top features")))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(muted.Render("No rows in range."))
	}

	visible := max(h-8, 3)
	start := max(a.detail.cursor-visible+1, 0)
	end := min(start+visible, len(rows))
	for i := start; i < end; i++ {
		r := rows[i]
		style := cell
		if i == a.detail.cursor {
			style = cursorCell
		}
		top := "-"
		if len(r.TopFeatures) > 0 {
			top = strings.Join(r.TopFeatures, ", ")
		} else if len(r.Features) > 0 {
			top = cli.FormatList(featureList(r.Features), 2)
		}
		line := fmt.Sprintf("%-*s%-*s%*s%*s%*s%*s%*s  %s",
			dayW, r.Day,
			userW, components.Trunc(r.User, userW-1),
			numW, cli.FormatCount(r.Generations),
			numW, cli.FormatCount(r.Acceptances),
			numW, cli.FormatCount(r.Interactions),
			flagW, cli.FormatFlag(r.UsedChat),
			flagW, cli.FormatFlag(r.UsedAgent),
			components.Trunc(top, featureW))
		b.WriteString(style.Render(fmt.Sprintf("%-*s", innerW, line)))
		b.WriteString("\n")
	}

	footer := fmt.Sprintf("%d rows", len(rows))
	if a.detail.from == "" && a.detail.to == "" && len(rows) == pipeline.DefaultDetailLimit {
		footer = fmt.Sprintf("latest %d rows, set a range with / to see all", pipeline.DefaultDetailLimit)
	}
	b.WriteString(muted.Render(footer + "   [/] range  [s] sort  [j/k] move  [esc] clear range"))

	return components.ContentCard("Daily feature usage by user", b.String(), cw)
}

func featureList(feats []model.DetailFeature) []string {
	names := make([]string, len(feats))
	for i, f := range feats {
		names[i] = f.Name
	}
	return names
}
