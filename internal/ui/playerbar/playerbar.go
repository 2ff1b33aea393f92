// Package playerbar renders the full player panel and the one-line
// mini-player from a controller snapshot.
package playerbar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/tapdeck/internal/playback"
	"github.com/llehouerou/tapdeck/internal/playlist"
	"github.com/llehouerou/tapdeck/internal/ui/render"
	"github.com/llehouerou/tapdeck/internal/ui/styles"
)

const (
	playSymbol  = "▶"
	pauseSymbol = "⏸"
	idleSymbol  = "■"
)

// FullHeight is the height of the full player panel, borders included.
const FullHeight = 6

// MiniHeight is the height of the mini-player, borders included.
const MiniHeight = 3

// State holds everything needed to render a player.
type State struct {
	Kind           playlist.Kind
	Status         playback.State
	Title          string
	Artist         string
	Index          int
	Total          int
	Position       float64
	Duration       float64
	Volume         float64
	Rate           float64
	Repeat         playback.RepeatMode
	Shuffle        bool
	SleepRemaining int
	TrackDelay     time.Duration
	PendingAdvance bool
}

// FromSnapshot builds the render state of a controller snapshot.
func FromSnapshot(s playback.Snapshot) State {
	st := State{
		Kind:           s.Kind,
		Status:         s.State,
		Total:          len(s.Tracks),
		Index:          s.Playback.CurrentIndex,
		Position:       s.Playback.PositionSeconds,
		Duration:       s.Playback.DurationSeconds,
		Volume:         s.Playback.Volume,
		Rate:           s.Playback.PlaybackRate,
		Repeat:         s.Playback.RepeatMode,
		Shuffle:        s.Playback.IsShuffling,
		SleepRemaining: s.SleepRemaining,
		TrackDelay:     s.TrackDelay,
		PendingAdvance: s.PendingAdvance,
	}
	if s.Track != nil {
		st.Title = s.Track.Title
		st.Artist = s.Track.ArtistName
		if st.Duration <= 0 {
			st.Duration = s.Track.DurationSeconds
		}
	}
	return st
}

func (s State) symbol() string {
	switch s.Status {
	case playback.StatePlaying:
		return playSymbol
	case playback.StateReady:
		return pauseSymbol
	case playback.StateIdle:
		return idleSymbol
	}
	return idleSymbol
}

func (s State) title() string {
	if s.Title == "" {
		return "Untitled"
	}
	return s.Title
}

func (s State) clock() string {
	return render.Clock(s.Position) + " / " + render.Clock(s.Duration)
}

// Render returns the full player panel for the given width.
func Render(s State, width int, focused bool) string {
	inner := max(width-4, 10)
	theme := styles.T()
	sty := theme.S()

	header := strings.ToUpper(string(s.Kind))
	if s.Total > 0 && s.Status.IsLoaded() {
		header += fmt.Sprintf("  %d/%d", s.Index+1, s.Total)
	}
	lines := []string{
		render.Row(lipgloss.NewStyle().Foreground(theme.Accent(s.Kind)).Bold(true).Render(header), sty.Muted.Render(modes(s)), inner),
	}

	if !s.Status.IsLoaded() {
		lines = append(lines, sty.Subtle.Render("Nothing loaded"), "", "")
	} else {
		artist := s.Artist
		if artist == "" {
			artist = "Unknown Artist"
		}
		lines = append(lines,
			sty.Title.Render(render.Truncate(s.title(), inner)),
			sty.Muted.Render(render.Truncate(artist, inner)),
			progress(s, inner),
		)
	}

	return styles.PanelStyle(focused).Padding(0, 1).Width(width - 2).Render(strings.Join(lines, "\n"))
}

// RenderMini returns the one-line mini-player for the given width.
func RenderMini(s State, width int, focused bool) string {
	inner := max(width-4, 10)
	sty := styles.T().S()

	kind := lipgloss.NewStyle().Foreground(styles.T().Accent(s.Kind)).Render(string(s.Kind))
	var line string
	if !s.Status.IsLoaded() {
		line = render.Row(kind+"  "+sty.Subtle.Render("Nothing loaded"), "", inner)
	} else {
		right := s.symbol() + "  " + s.clock()
		avail := max(inner-lipgloss.Width(right)-lipgloss.Width(kind)-4, 1)
		left := kind + "  " + sty.Base.Render(render.Truncate(s.title(), avail))
		line = render.Row(left, sty.Muted.Render(right), inner)
	}

	return styles.PanelStyle(focused).Padding(0, 1).Width(width - 2).Render(line)
}

func progress(s State, width int) string {
	clock := s.clock()
	barWidth := width - lipgloss.Width(clock) - 6
	if barWidth < 5 {
		return s.symbol() + "  " + clock
	}

	var ratio float64
	if s.Duration > 0 {
		ratio = min(s.Position/s.Duration, 1)
	}
	filled := int(float64(barWidth) * ratio)
	accent := styles.T().Accent(s.Kind)
	bar := styles.Gradient(strings.Repeat("━", filled), styles.T().FgSubtle, accent, false) +
		styles.T().S().Subtle.Render(strings.Repeat("─", barWidth-filled))

	return s.symbol() + "  " + bar + "  " + clock
}

// modes summarizes repeat, shuffle, volume, rate and timers.
func modes(s State) string {
	parts := []string{"repeat " + s.Repeat.String()}
	if s.Shuffle {
		parts = append(parts, "shuffle")
	}
	parts = append(parts, fmt.Sprintf("vol %d%%", int(s.Volume*100+0.5)))
	if s.Rate != 0 && s.Rate != 1 {
		parts = append(parts, strconv.FormatFloat(s.Rate, 'f', -1, 64)+"x")
	}
	if s.TrackDelay > 0 {
		delay := "delay " + s.TrackDelay.String()
		if s.PendingAdvance {
			delay += "…"
		}
		parts = append(parts, delay)
	}
	if s.SleepRemaining > 0 {
		parts = append(parts, "sleep "+render.Clock(float64(s.SleepRemaining)))
	}
	return strings.Join(parts, " · ")
}
