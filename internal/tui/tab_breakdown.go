package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
	"github.com/theirongolddev/copilotpulse/internal/tui/components"
	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

func (a App) renderBreakdownTab(cw int) string {
	t := theme.Active

	pair := func(left, right func(w int) string) string {
		if a.isCompactLayout() {
			return left(cw) + "\n" + right(cw) + "\n"
		}
		halves := components.LayoutRow(cw, 2)
		return components.CardRow([]string{left(halves[0]), right(halves[1])}) + "\n"
	}

	var b strings.Builder
	b.WriteString(pair(a.renderLanguagesCard, a.renderLanguageRatesCard))
	b.WriteString(a.renderFeaturesCard(cw))
	b.WriteString("\n")
	b.WriteString(pair(
		func(w int) string { return renderSharesCard("IDEs", a.v.ides, t.Blue, w) },
		func(w int) string { return renderSharesCard("Models", a.v.models, t.Magenta, w) },
	))
	b.WriteString(a.renderFeatureMatrix(cw))
	return b.String()
}

func emptyLine() string {
	t := theme.Active
	return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No data.")
}

func (a App) renderLanguagesCard(w int) string {
	innerW := components.CardInnerWidth(w)
	langs := a.v.languages
	if len(langs) == 0 {
		return components.ContentCard("Languages by generations", emptyLine(), w)
	}

	peak := float64(langs[0].Generations)
	barW := max(innerW-14-10, 5)
	lines := make([]string, len(langs))
	for i, l := range langs {
		lines[i] = components.HBar(l.Language, float64(l.Generations), peak, 13, barW,
			cli.FormatCount(l.Generations), theme.Active.Blue)
	}
	return components.ContentCard("Languages by generations", strings.Join(lines, "\n"), w)
}

func (a App) renderLanguageRatesCard(w int) string {
	t := theme.Active
	title := fmt.Sprintf("Acceptance by language (≥%d generations)", pipeline.MinLanguageGenerations)
	langs := a.v.langRates
	if len(langs) == 0 {
		return components.ContentCard(title, emptyLine(), w)
	}

	innerW := components.CardInnerWidth(w)
	name := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	barW := max(innerW-14-8, 5)
	lines := make([]string, len(langs))
	for i, l := range langs {
		lines[i] = name.Render(fmt.Sprintf("%-13s ", components.Trunc(l.Language, 13))) +
			components.RateBar(l.AcceptanceRate, barW)
	}
	return components.ContentCard(title, strings.Join(lines, "\n"), w)
}

func (a App) renderFeaturesCard(cw int) string {
	t := theme.Active
	feats := a.v.features
	if len(feats) == 0 {
		return components.ContentCard("Feature adoption", emptyLine(), cw)
	}

	innerW := components.CardInnerWidth(cw)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	const nameW = 22
	barW := max((innerW-nameW-1-22)/2, 5)

	peak := float64(feats[0].Generations)
	lines := make([]string, len(feats))
	for i, f := range feats {
		lines[i] = components.HBar(f.Name, float64(f.Generations), peak, nameW, barW,
			fmt.Sprintf("%-8s", cli.FormatCount(f.Generations)), t.Accent) +
			muted.Render(fmt.Sprintf(" %8s acc  ", cli.FormatCount(f.Acceptances))) +
			components.RateBar(f.AcceptanceRate, max(barW/2, 4))
	}
	return components.ContentCard("Feature adoption", strings.Join(lines, "\n"), cw)
}

func renderSharesCard(title string, shares []model.ShareStats, color lipgloss.Color, w int) string {
	if len(shares) == 0 {
		return components.ContentCard(title, emptyLine(), w)
	}
	innerW := components.CardInnerWidth(w)
	barW := max(innerW-18-8, 5)
	lines := make([]string, len(shares))
	for i, s := range shares {
		lines[i] = components.HBar(s.Name, s.SharePercent, 100, 17, barW, cli.FormatRate(s.SharePercent), color)
	}
	return components.ContentCard(title, strings.Join(lines, "\n"), w)
}

func (a App) renderFeatureMatrix(cw int) string {
	t := theme.Active
	m := a.v.featureUsers
	title := fmt.Sprintf("Generations by feature, top %d users", pipeline.DefaultFeatureUsers)
	if len(m.Rows) == 0 {
		return components.ContentCard(title, emptyLine(), cw)
	}

	head := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	innerW := components.CardInnerWidth(cw)
	const userW, colW = 16, 12
	cols := min(len(m.Features), max((innerW-userW-colW)/colW, 1))

	var b strings.Builder
	b.WriteString(head.Render(fmt.Sprintf("%-*s", userW, "User")))
	for _, f := range m.Features[:cols] {
		b.WriteString(head.Render(fmt.Sprintf("%*s", colW, components.Trunc(pipeline.FeatureDisplayName(f), colW-1))))
	}
	b.WriteString(head.Render(fmt.Sprintf("%*s", colW, "Total")))

	for _, row := range m.Rows {
		b.WriteString("\n")
		b.WriteString(cell.Render(fmt.Sprintf("%-*s", userW, components.Trunc(row.User, userW-1))))
		for _, g := range row.Generations[:cols] {
			style := cell
			if g == 0 {
				style = dim
			}
			b.WriteString(style.Render(fmt.Sprintf("%*s", colW, cli.FormatCount(g))))
		}
		b.WriteString(cell.Bold(true).Render(fmt.Sprintf("%*s", colW, cli.FormatCount(row.Total))))
	}
	if cols < len(m.Features) {
		b.WriteString("\n")
		b.WriteString(dim.Render(fmt.Sprintf("+%d more features", len(m.Features)-cols)))
	}
	return components.ContentCard(title, b.String(), cw)
}
