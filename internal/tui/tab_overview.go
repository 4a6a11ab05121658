package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/tui/components"
	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	s := a.v.summary
	days := a.v.days

	var b strings.Builder

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Active users", Value: cli.FormatNumber(int64(s.Users)), Note: fmt.Sprintf("%d days", len(days))},
		{Label: "Generations", Value: cli.FormatCount(s.Generations)},
		{Label: "Acceptances", Value: cli.FormatCount(s.Acceptances)},
	}, cw))
	b.WriteString("\n")
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Acceptance rate", Value: cli.FormatRate(s.AcceptanceRate), Color: components.ColorForRate(s.AcceptanceRate)},
		{Label: "Interactions", Value: cli.FormatCount(s.Interactions)},
		{Label: "Lines added", Value: cli.FormatCount(s.LOCAdded)},
	}, cw))
	b.WriteString("\n")

	if len(days) > 0 {
		gens := make([]float64, len(days))
		for i, d := range days {
			gens[i] = float64(d.Generations)
		}
		chartH := 10
		if a.isCompactLayout() {
			chartH = 7
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Daily generations (%d days)", len(days)),
			components.BarChart(gens, chartDateLabels(days), t.Blue, components.CardInnerWidth(cw), chartH),
			cw,
		))
		b.WriteString("\n")
	}

	halves := components.LayoutRow(cw, 2)
	users := a.renderActiveUsersCard(halves[0])
	adoption := a.renderAdoptionCard(halves[1])
	if a.isCompactLayout() {
		users = a.renderActiveUsersCard(cw)
		adoption = a.renderAdoptionCard(cw)
		b.WriteString(users + "\n" + adoption + "\n")
	} else {
		b.WriteString(components.CardRow([]string{users, adoption}))
		b.WriteString("\n")
	}

	b.WriteString(a.renderTrendsCard(cw))
	return b.String()
}

func (a App) renderActiveUsersCard(w int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)

	trend := a.v.trend
	dirColor := t.TextMuted
	switch {
	case trend.Direction > 0:
		dirColor = t.Green
	case trend.Direction < 0:
		dirColor = t.Red
	}
	dir := lipgloss.NewStyle().Foreground(dirColor).Background(t.Surface).Bold(true)

	active := make([]float64, len(a.v.days))
	for i, d := range a.v.days {
		active[i] = float64(d.ActiveUsers)
	}
	spark := components.Sparkline(active, t.Accent)
	if len(active) > components.CardInnerWidth(w) {
		spark = components.Sparkline(active[len(active)-components.CardInnerWidth(w):], t.Accent)
	}

	var b strings.Builder
	b.WriteString(label.Render("Average  ") + value.Render(fmt.Sprintf("%.1f", trend.Average)) + "\n")
	b.WriteString(label.Render("Latest   ") + value.Render(fmt.Sprintf("%d ", trend.Latest)) +
		dir.Render(cli.FormatDirection(trend.Direction)) + "\n\n")
	b.WriteString(spark)
	return components.ContentCard("Daily active users", b.String(), w)
}

func (a App) renderAdoptionCard(w int) string {
	t := theme.Active
	ad := a.v.adoption
	innerW := components.CardInnerWidth(w)
	barW := max(innerW-28, 6)

	rows := []struct {
		label string
		count int
		pct   float64
		color lipgloss.Color
	}{
		{"Agent", ad.Agent, ad.AgentPercent, t.Magenta},
		{"Chat", ad.Chat, ad.ChatPercent, t.Blue},
		{"Agent + chat", ad.Both, ad.BothPercent, t.Accent},
		{"Neither", ad.NotAdopted, ad.NotAdoptedPercent, t.TextDim},
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(components.HBar(r.label, r.pct, 100, 12, barW,
			fmt.Sprintf("%3d  %s", r.count, cli.FormatRate(r.pct)), r.color))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
		Render(fmt.Sprintf("%s of %d users use an advanced feature", cli.FormatRate(ad.AdoptedPercent), ad.TotalUsers)))
	return components.ContentCard("Agent & chat adoption", b.String(), w)
}

func (a App) renderTrendsCard(w int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	innerW := components.CardInnerWidth(w)
	sparkW := max(innerW-16, 8)

	series := func(get func(i int) int64) []float64 {
		n := len(a.v.days)
		start := max(n-sparkW, 0)
		out := make([]float64, 0, n-start)
		for i := start; i < n; i++ {
			out = append(out, float64(get(i)))
		}
		return out
	}

	var b strings.Builder
	b.WriteString(label.Render(fmt.Sprintf("%-16s", "Interactions")))
	b.WriteString(components.Sparkline(series(func(i int) int64 { return a.v.days[i].Interactions }), t.Cyan))
	b.WriteString("\n")
	b.WriteString(label.Render(fmt.Sprintf("%-16s", "Lines suggested")))
	b.WriteString(components.Sparkline(series(func(i int) int64 { return a.v.days[i].LOCSuggested }), t.Yellow))
	b.WriteString("\n")
	b.WriteString(label.Render(fmt.Sprintf("%-16s", "Lines added")))
	b.WriteString(components.Sparkline(series(func(i int) int64 { return a.v.days[i].LOCAdded }), t.Green))
	return components.ContentCard("Trends", b.String(), w)
}
