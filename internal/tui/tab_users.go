package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/tui/components"
	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

func (a App) renderUsersTab(cw int) string {
	var b strings.Builder
	b.WriteString(a.renderLeaderboard(cw))
	b.WriteString("\n")
	b.WriteString(a.renderHeatmap(cw))
	return b.String()
}

func (a App) renderLeaderboard(cw int) string {
	t := theme.Active
	head := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	innerW := components.CardInnerWidth(cw)
	const fixed = 4 + 12 + 12 + 6 + 2
	userW := min(max(innerW-fixed-20, 10), 28)
	barW := max(innerW-fixed-userW-8, 6)

	var b strings.Builder
	b.WriteString(head.Render(fmt.Sprintf("%-4s%-*s%12s%12s%6s  %s", "#", userW, "User", "Generations", "Acceptances", "Days", "Acceptance")))
	b.WriteString("\n")

	if len(a.v.leaders) == 0 {
		b.WriteString(dim.Render("No user activity."))
	}
	for i, u := range a.v.leaders {
		b.WriteString(dim.Render(fmt.Sprintf("%-4d", i+1)))
		b.WriteString(cell.Render(fmt.Sprintf("%-*s%12s%12s%6d  ",
			userW, components.Trunc(u.User, userW-1),
			cli.FormatNumber(u.Generations), cli.FormatNumber(u.Acceptances), u.ActiveDays)))
		b.WriteString(components.RateBar(u.AcceptanceRate, barW))
		b.WriteString("\n")
	}

	return components.ContentCard(fmt.Sprintf("Top %d users by generations", a.topUsers()), strings.TrimSuffix(b.String(), "\n"), cw)
}

func (a App) renderHeatmap(cw int) string {
	t := theme.Active
	hm := a.v.heatmap
	name := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	if len(hm.Users) == 0 || len(hm.Days) == 0 {
		return components.ContentCard("Activity heatmap", dim.Render("No activity."), cw)
	}

	innerW := components.CardInnerWidth(cw)
	nameW := 16
	cols := max(innerW-nameW, 1)
	cellW := 1
	if len(hm.Days)*2 <= cols {
		cellW = 2
	}

	// Show the most recent days that fit.
	first := max(len(hm.Days)-cols/cellW, 0)

	var b strings.Builder
	for i, user := range hm.Users {
		b.WriteString(name.Render(fmt.Sprintf("%-*s", nameW, components.Trunc(user, nameW-1))))
		for _, v := range hm.Cells[i][first:] {
			b.WriteString(components.HeatCell(v, hm.Max, cellW))
		}
		b.WriteString("\n")
	}
	b.WriteString(dim.Render(fmt.Sprintf("%-*s%s … %s  (gen + acc, peak %s)", nameW, "",
		hm.Days[first], hm.Days[len(hm.Days)-1], cli.FormatNumber(hm.Max))))

	return components.ContentCard(fmt.Sprintf("Activity heatmap (first %d users)", len(hm.Users)), b.String(), cw)
}
