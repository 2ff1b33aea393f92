// Package tracklist is the scrollable, reorderable track list of a player.
package tracklist

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tapdeck/internal/playlist"
)

// scrollMargin is the number of rows kept visible around the cursor.
const scrollMargin = 3

// panelOverhead is border plus header plus separator.
const panelOverhead = 4

// SelectMsg is sent when the user picks a track to play.
type SelectMsg struct {
	Kind  playlist.Kind
	Index int
	Track playlist.Track
}

// MoveMsg is sent when the user drags the track under the cursor.
type MoveMsg struct {
	Kind     playlist.Kind
	From, To int
}

// Model represents the track list state.
type Model struct {
	kind      playlist.Kind
	tracks    []playlist.Track
	currentID string
	cursor    int
	offset    int
	width     int
	height    int
	focused   bool
}

// New creates an empty list for kind.
func New(kind playlist.Kind) Model {
	return Model{kind: kind}
}

// SetTracks replaces the rows, keeping the cursor on the same track when it
// is still present.
func (m *Model) SetTracks(tracks []playlist.Track) {
	var cursorID string
	if m.cursor < len(m.tracks) {
		cursorID = m.tracks[m.cursor].ID
	}
	m.tracks = tracks
	m.cursor = 0
	for i, t := range tracks {
		if t.ID == cursorID {
			m.cursor = i
			break
		}
	}
	m.ensureVisible()
}

// Tracks returns the rows in display order.
func (m Model) Tracks() []playlist.Track {
	return m.tracks
}

// SetCurrent marks the track that is loaded in the player.
func (m *Model) SetCurrent(id string) {
	m.currentID = id
}

// Cursor returns the cursor row.
func (m Model) Cursor() int {
	return m.cursor
}

// SetFocused sets whether the list receives keys.
func (m *Model) SetFocused(focused bool) {
	m.focused = focused
}

// IsFocused returns whether the list receives keys.
func (m Model) IsFocused() bool {
	return m.focused
}

// SetSize sets the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.ensureVisible()
}

// Update handles list keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused || len(m.tracks) == 0 {
		return m, nil
	}

	switch keyMsg.String() {
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g", "home":
		m.moveCursor(-len(m.tracks))
	case "G", "end":
		m.moveCursor(len(m.tracks))
	case "ctrl+d":
		m.moveCursor(m.listHeight() / 2)
	case "ctrl+u":
		m.moveCursor(-m.listHeight() / 2)
	case "enter":
		sel := SelectMsg{Kind: m.kind, Index: m.cursor, Track: m.tracks[m.cursor]}
		return m, func() tea.Msg { return sel }
	case "J", "shift+down":
		return m.drag(1)
	case "K", "shift+up":
		return m.drag(-1)
	}

	return m, nil
}

// drag asks the parent to move the row under the cursor. The cursor follows
// the row once the parent hands back the reordered list.
func (m Model) drag(delta int) (Model, tea.Cmd) {
	from, to := m.cursor, m.cursor+delta
	if to < 0 || to >= len(m.tracks) {
		return m, nil
	}
	mv := MoveMsg{Kind: m.kind, From: from, To: to}
	return m, func() tea.Msg { return mv }
}

func (m *Model) moveCursor(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), max(len(m.tracks)-1, 0))
	m.ensureVisible()
}

func (m Model) listHeight() int {
	return max(m.height-panelOverhead, 0)
}

func (m *Model) ensureVisible() {
	height := m.listHeight()
	if height <= 0 || len(m.tracks) == 0 {
		m.offset = 0
		return
	}
	margin := min(scrollMargin, (height-1)/2)

	if m.cursor < m.offset+margin {
		m.offset = m.cursor - margin
	}
	if m.cursor >= m.offset+height-margin {
		m.offset = m.cursor - height + margin + 1
	}
	m.offset = min(max(m.offset, 0), max(len(m.tracks)-height, 0))
}
