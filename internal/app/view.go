package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/tapdeck/internal/keymap"
	"github.com/llehouerou/tapdeck/internal/ui/playerbar"
	"github.com/llehouerou/tapdeck/internal/ui/render"
	"github.com/llehouerou/tapdeck/internal/ui/styles"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.Width == 0 || m.Height == 0 {
		return ""
	}
	active := m.Active()
	if active == nil {
		return "no player configured"
	}

	parts := []string{
		m.renderHeader(),
		playerbar.Render(playerbar.FromSnapshot(active.Ctrl.Snapshot()), m.Width, !m.miniFocus),
	}
	if m.showHelp {
		parts = append(parts, m.renderHelp())
	} else {
		parts = append(parts, active.list.View())
	}
	if mini := m.Mini(); mini != nil {
		parts = append(parts, playerbar.RenderMini(playerbar.FromSnapshot(mini.Ctrl.Snapshot()), m.Width, m.miniFocus))
	}
	parts = append(parts, m.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	theme := styles.T()
	sty := theme.S()
	active := m.Active()

	title := styles.Gradient("tapdeck", theme.Audio, theme.Video, true)
	tabs := make([]string, 0, len(m.players))
	for _, p := range m.players {
		label := " " + string(p.Kind) + " "
		if p == active {
			label = lipgloss.NewStyle().Foreground(theme.Accent(p.Kind)).Bold(true).Render("[" + string(p.Kind) + "]")
		} else {
			label = sty.Muted.Render(label)
		}
		tabs = append(tabs, label)
	}

	right := ""
	if m.orders != nil {
		if m.orders.UsingLocal() {
			right = sty.Warning.Render("order: local")
		} else {
			right = sty.Subtle.Render("order: synced")
		}
	}
	return render.Row(title+"  "+strings.Join(tabs, " "), right, m.Width)
}

func (m Model) renderHelp() string {
	sty := styles.T().S()
	lines := make([]string, 0, len(keymap.All)+1)
	lines = append(lines, sty.Title.Render("Keys"))
	for _, b := range keymap.All {
		lines = append(lines, render.Row("  "+keyLabel(b.Keys), sty.Muted.Render(b.Description), min(m.Width, 48)))
	}
	return lipgloss.NewStyle().Height(m.listHeight()).Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	sty := styles.T().S()
	if m.notice != "" {
		if m.noticeErr {
			return sty.Error.Render(render.Truncate(m.notice, m.Width))
		}
		return sty.Success.Render(render.Truncate(m.notice, m.Width))
	}
	hint := "? help  tab switch  m mini-player  q quit"
	return sty.Subtle.Render(render.Truncate(hint, m.Width))
}

func keyLabel(keys []string) string {
	labels := make([]string, len(keys))
	for i, k := range keys {
		if k == " " {
			k = "space"
		}
		labels[i] = k
	}
	return strings.Join(labels, ", ")
}
