package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

func init() {
	// Force colour output so background styling shows up as ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{100, 4, []int{25, 25, 25, 25}},
		{10, 3, []int{4, 3, 3}},
		{7, 1, []int{7}},
		{5, 0, nil},
	}
	for _, tt := range tests {
		got := LayoutRow(tt.total, tt.n)
		assert.Equal(t, tt.want, got, "LayoutRow(%d, %d)", tt.total, tt.n)
	}
}

func TestCardRowPadsShortCards(t *testing.T) {
	theme.SetActive("flexoki-dark")

	short := ContentCard("Short", "one", 22)
	tall := ContentCard("Tall", "1\n2\n3\n4\n5", 22)
	shortLines := len(strings.Split(short, "\n"))
	tallLines := len(strings.Split(tall, "\n"))
	require.Less(t, shortLines, tallLines)

	lines := strings.Split(CardRow([]string{tall, short}), "\n")
	require.Len(t, lines, tallLines)

	for i, line := range lines {
		if w := lipgloss.Width(line); w != 44 {
			t.Errorf("line %d width = %d, want 44", i, w)
		}
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Errorf("padding line %d has no styling", i)
		}
	}
}

func TestCardRowSkipsEmpty(t *testing.T) {
	card := ContentCard("", "x", 20)
	assert.Equal(t, card, CardRow([]string{"", card, ""}))
	assert.Empty(t, CardRow(nil))
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Users", Value: "12"},
		{Label: "Acceptance", Value: "31.0%", Note: "fair"},
		{Label: "Generations", Value: "1,024"},
	}, 90)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 90 {
			t.Errorf("line %d width = %d, want 90", i, w)
		}
	}
}
