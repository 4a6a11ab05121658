package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

// ColorForRate colours an acceptance rate by its band.
func ColorForRate(rate float64) lipgloss.Color {
	t := theme.Active
	switch model.BandFor(rate) {
	case model.RateGood:
		return t.Green
	case model.RateFair:
		return t.Yellow
	default:
		return t.Red
	}
}

func clamp01(pct float64) float64 {
	return min(max(pct, 0), 1)
}

// ProgressBar renders a fraction in [0, 1] as a bar plus percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = clamp01(pct)

	bar := progress.New(
		progress.WithSolidFill(string(t.Accent)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	return bar.ViewAs(pct) + pctStyle.Render(fmt.Sprintf(" %3.0f%%", pct*100))
}

// RateBar renders an acceptance rate (0-100) as a band-coloured bar.
func RateBar(rate float64, width int) string {
	t := theme.Active
	color := ColorForRate(rate)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	return bar.ViewAs(clamp01(rate/100)) + pctStyle.Render(fmt.Sprintf(" %5.1f%%", rate))
}
