package tracklist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/tapdeck/internal/ui/render"
	"github.com/llehouerou/tapdeck/internal/ui/styles"
)

// View renders the list panel.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	inner := max(m.width-2, 1)
	sty := styles.T().S()

	current := 0
	for i, t := range m.tracks {
		if t.ID == m.currentID {
			current = i + 1
			break
		}
	}
	header := fmt.Sprintf("Tracks (%d/%d)", current, len(m.tracks))
	lines := []string{
		sty.Title.Render(render.Fit(header, inner)),
		sty.Subtle.Render(render.Separator(inner)),
	}

	height := m.listHeight()
	end := min(m.offset+height, len(m.tracks))
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(i, inner))
	}
	for len(lines) < height+2 {
		lines = append(lines, strings.Repeat(" ", inner))
	}

	return styles.PanelStyle(m.focused).Width(inner).Render(strings.Join(lines, "\n"))
}

func (m Model) renderRow(i, width int) string {
	t := m.tracks[i]
	sty := styles.T().S()

	marker := "  "
	if t.ID == m.currentID {
		marker = "▶ "
	}

	var dur string
	if t.DurationSeconds > 0 {
		dur = render.Clock(t.DurationSeconds)
	}
	label := t.Title
	if t.ArtistName != "" {
		label += " · " + t.ArtistName
	}
	left := marker + render.Truncate(label, max(width-lipgloss.Width(dur)-4, 1))
	row := render.Row(left, dur, width)

	switch {
	case i == m.cursor && m.focused:
		return sty.Cursor.Render(row)
	case t.ID == m.currentID:
		return lipgloss.NewStyle().Foreground(styles.T().Accent(m.kind)).Bold(true).Render(row)
	default:
		return sty.Base.Render(row)
	}
}
