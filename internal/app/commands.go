package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/llehouerou/tapdeck/internal/notify"
	"github.com/llehouerou/tapdeck/internal/playlist"
	"github.com/llehouerou/tapdeck/internal/playlists"
)

const noticeDuration = 4 * time.Second

// NoticeTimeoutCmd returns a command that sends NoticeTimeoutMsg after the
// notice display time.
func NoticeTimeoutCmd(version int) tea.Cmd {
	return tea.Tick(noticeDuration, func(_ time.Time) tea.Msg {
		return NoticeTimeoutMsg{Version: version}
	})
}

func loadTracksCmd(ctx context.Context, src TrackSource, kind playlist.Kind) tea.Cmd {
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		tracks, err := src.ListTracks(ctx, kind)
		return TracksLoadedMsg{Kind: kind, Tracks: tracks, Err: err}
	}
}

func reorderCmd(ctx context.Context, orders *playlists.Manager, kind playlist.Kind, tracks []playlist.Track, from, to int) tea.Cmd {
	return func() tea.Msg {
		moved, ok := orders.Reorder(ctx, kind, tracks, from, to)
		return OrderSavedMsg{Kind: kind, Tracks: moved, OK: ok}
	}
}

func clearOrderCmd(ctx context.Context, orders *playlists.Manager, kind playlist.Kind) tea.Cmd {
	return func() tea.Msg {
		return OrderClearedMsg{Kind: kind, OK: orders.Clear(ctx, kind)}
	}
}

// watchPlayer waits for the next event of p's subscription.
func watchPlayer(p *Player) tea.Cmd {
	sub, kind := p.sub, p.Kind
	return func() tea.Msg {
		var ev any
		select {
		case e := <-sub.StateChanged:
			ev = e
		case e := <-sub.TrackChanged:
			ev = e
		case e := <-sub.PositionChanged:
			ev = e
		case e := <-sub.ListChanged:
			ev = e
		case e := <-sub.ModeChanged:
			ev = e
		case e := <-sub.SleepChanged:
			ev = e
		case e := <-sub.Error:
			ev = e
		case <-sub.Done:
			return PlayerClosedMsg{Kind: kind}
		}
		return PlayerEventMsg{Kind: kind, Event: ev}
	}
}

// notifyCmd shows n and reports its ID for kind.
func notifyCmd(notifier notify.Notifier, kind playlist.Kind, n notify.Notification) tea.Cmd {
	if notifier == nil {
		return nil
	}
	return func() tea.Msg {
		id, err := notifier.Notify(n)
		if err != nil {
			log.WithError(err).Debug("desktop notification failed")
			return nil
		}
		return NotifiedMsg{Kind: kind, ID: id}
	}
}
