package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders one block character per value, scaled to the peak.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := slicesMax(values)
	if peak <= 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(sparkBlocks)-1))
		idx = min(max(idx, 0), len(sparkBlocks)-1)
		b.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(b.String())
}

// BarChart renders values as vertical bars height rows tall with a
// labelled y axis. labels, when aligned with values, are printed under
// the axis as room allows. Narrow areas fall back to a sparkline.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	peak := slicesMax(values)
	if peak <= 0 {
		peak = 1
	}
	yLabelW := max(len(formatChartLabel(peak)), 3) + 1
	chartW := width - yLabelW - 1

	// Downsample so every bar is at least one column plus a gap.
	if len(values) > (chartW+1)/2 {
		values, labels = sample(values, labels, (chartW+1)/2)
	}
	n := len(values)
	barW := min(max((chartW-(n-1))/n, 1), 6)

	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)
	partials := []rune(" ▁▂▃▄▅▆▇█")

	var b strings.Builder
	for row := height; row >= 1; row-- {
		top := peak * float64(row) / float64(height)
		bottom := peak * float64(row-1) / float64(height)

		label := ""
		if row == height {
			label = formatChartLabel(peak)
		} else if row == (height+1)/2 {
			label = formatChartLabel(peak / 2)
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", yLabelW, label)))

		for i, v := range values {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			switch {
			case v >= top:
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := int((v - bottom) / (top - bottom) * 8)
				idx = min(max(idx, 1), 8)
				b.WriteString(bar.Render(strings.Repeat(string(partials[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	axisLen := n*barW + n - 1
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", yLabelW, "0", strings.Repeat("─", axisLen))))

	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axis.Render(axisLabels(labels, barW+1, axisLen)))
	}
	return b.String()
}

// axisLabels places labels at step-column intervals without overlap.
func axisLabels(labels []string, step, width int) string {
	buf := []rune(strings.Repeat(" ", width))
	next := 0
	for i, lbl := range labels {
		pos := i * step
		if pos < next {
			continue
		}
		r := []rune(lbl)
		if pos+len(r) > width {
			break
		}
		copy(buf[pos:], r)
		next = pos + len(r) + 1
	}
	return strings.TrimRight(string(buf), " ")
}

func sample(values []float64, labels []string, n int) ([]float64, []string) {
	if n < 2 {
		n = 2
	}
	outV := make([]float64, n)
	var outL []string
	if len(labels) == len(values) {
		outL = make([]string, n)
	}
	for i := range outV {
		src := i * (len(values) - 1) / (n - 1)
		outV[i] = values[src]
		if outL != nil {
			outL[i] = labels[src]
		}
	}
	return outV, outL
}

// HBar renders a labelled horizontal bar scaled against maxValue.
func HBar(label string, value, maxValue float64, labelW, barW int, valueText string, color lipgloss.Color) string {
	t := theme.Active
	filled := 0
	if maxValue > 0 {
		filled = int(math.Round(value / maxValue * float64(barW)))
	}
	filled = min(max(filled, 0), barW)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s ", labelW, Trunc(label, labelW))) +
		barStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", barW-filled)) +
		valueStyle.Render(" "+valueText)
}

var heatShades = []rune("·░▒▓█")

// HeatCell renders one heatmap cell shaded by value relative to peak.
func HeatCell(value, peak int64, width int) string {
	t := theme.Active
	idx := 0
	if value > 0 && peak > 0 {
		idx = 1 + int(float64(value)/float64(peak)*float64(len(heatShades)-2)+0.5)
		idx = min(idx, len(heatShades)-1)
	}
	color := t.TextDim
	if idx > 0 {
		color = t.Accent
	}
	if idx == len(heatShades)-1 {
		color = t.AccentBright
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).
		Render(strings.Repeat(string(heatShades[idx]), width))
}

// Trunc shortens s to limit runes, marking the cut with an ellipsis.
func Trunc(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

func slicesMax(values []float64) float64 {
	peak := values[0]
	for _, v := range values[1:] {
		peak = max(peak, v)
	}
	return peak
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e6:
		return trimZero(fmt.Sprintf("%.1f", v/1e6)) + "M"
	case v >= 1e3:
		return trimZero(fmt.Sprintf("%.1f", v/1e3)) + "k"
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}
