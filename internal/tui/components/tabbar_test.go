package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestTabAtXMatchesRenderedWidths(t *testing.T) {
	for active := range Tabs {
		pos := 0
		for i, tab := range Tabs {
			w := TabVisualWidth(tab, i == active)
			if got := TabAtX(pos+w/2, active); got != i {
				t.Fatalf("active=%d x=%d -> tab %d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1
		}
		assert.Equal(t, -1, TabAtX(pos+5, active))
	}
}

func TestRenderTabBarWidth(t *testing.T) {
	for active := range Tabs {
		bar := RenderTabBar(active, 100)
		lines := strings.Split(bar, "\n")
		assert.Len(t, lines, 2)
		for _, l := range lines {
			assert.Equal(t, 100, lipgloss.Width(l))
		}

		want := len(Tabs) - 1
		for i, tab := range Tabs {
			want += TabVisualWidth(tab, i == active)
		}
		unpadded := strings.Split(RenderTabBar(active, 0), "\n")[0]
		assert.Equal(t, want, lipgloss.Width(unpadded))
	}
}

func TestTabIdxByKey(t *testing.T) {
	assert.Equal(t, 0, TabIdxByKey('o'))
	assert.Equal(t, 4, TabIdxByKey('x'))
	assert.Equal(t, -1, TabIdxByKey('z'))
}
