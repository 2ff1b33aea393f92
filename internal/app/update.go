package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/llehouerou/tapdeck/internal/errmsg"
	"github.com/llehouerou/tapdeck/internal/notify"
	"github.com/llehouerou/tapdeck/internal/playback"
	"github.com/llehouerou/tapdeck/internal/ui/playerbar"
	"github.com/llehouerou/tapdeck/internal/ui/render"
	"github.com/llehouerou/tapdeck/internal/ui/tracklist"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TracksLoadedMsg:
		return m.handleTracksLoaded(msg)
	case OrderSavedMsg:
		return m.handleOrderSaved(msg)
	case OrderClearedMsg:
		return m.handleOrderCleared(msg)
	case PlayerEventMsg:
		return m.handlePlayerEvent(msg)
	case PlayerClosedMsg:
		return m, nil
	case NotifiedMsg:
		if p := m.player(msg.Kind); p != nil {
			p.notifyID = msg.ID
		}
		return m, nil
	case NoticeTimeoutMsg:
		if msg.Version == m.noticeVersion {
			m.notice = ""
		}
		return m, nil
	case tracklist.SelectMsg:
		return m.handleSelect(msg)
	case tracklist.MoveMsg:
		if m.orders == nil {
			return m, nil
		}
		p := m.player(msg.Kind)
		if p == nil {
			return m, nil
		}
		return m, reorderCmd(m.ctx, m.orders, msg.Kind, p.list.Tracks(), msg.From, msg.To)
	}
	return m, nil
}

// listHeight is what remains after the header, the full player, the
// mini-player and the status line.
func (m Model) listHeight() int {
	h := m.Height - 2 - playerbar.FullHeight
	if m.Mini() != nil {
		h -= playerbar.MiniHeight
	}
	return max(h, 0)
}

func (m *Model) resize() {
	for _, p := range m.players {
		p.list.SetSize(m.Width, m.listHeight())
	}
}

func (m Model) setNotice(text string, isErr bool) (Model, tea.Cmd) {
	m.notice = text
	m.noticeErr = isErr
	m.noticeVersion++
	return m, NoticeTimeoutCmd(m.noticeVersion)
}

func (m Model) handleTracksLoaded(msg TracksLoadedMsg) (tea.Model, tea.Cmd) {
	p := m.player(msg.Kind)
	if p == nil {
		return m, nil
	}
	if msg.Err != nil {
		log.WithError(msg.Err).WithField("kind", msg.Kind).Warn("track list fetch failed")
		return m.setNotice(errmsg.FormatWith(errmsg.OpTracksLoad, string(msg.Kind), msg.Err), true)
	}

	tracks := msg.Tracks
	if m.orders != nil {
		tracks = m.orders.Apply(tracks, msg.Kind)
	}
	if err := p.Ctrl.SetTracks(tracks); err != nil {
		return m, nil
	}
	p.list.SetTracks(tracks)

	if !p.restored && len(tracks) > 0 {
		p.restored = true
		if err := p.Ctrl.Restore(); err != nil {
			return m.setNotice(errmsg.Format(errmsg.OpStateLoad, err), true)
		}
	}
	return m, nil
}

func (m Model) handleOrderSaved(msg OrderSavedMsg) (tea.Model, tea.Cmd) {
	p := m.player(msg.Kind)
	if p == nil {
		return m, nil
	}
	if err := p.Ctrl.SetTracks(msg.Tracks); err == nil {
		p.list.SetTracks(msg.Tracks)
	}
	if !msg.OK {
		return m.setNotice(errmsg.Format(errmsg.OpOrderSave, fmt.Errorf("%s order kept for this session only", msg.Kind)), true)
	}
	return m, nil
}

func (m Model) handleOrderCleared(msg OrderClearedMsg) (tea.Model, tea.Cmd) {
	if !msg.OK {
		return m.setNotice(errmsg.Format(errmsg.OpOrderClear, fmt.Errorf("no user configured")), true)
	}
	m, cmd := m.setNotice(fmt.Sprintf("%s order reset", msg.Kind), false)
	return m, tea.Batch(cmd, loadTracksCmd(m.ctx, m.source, msg.Kind))
}

// handleSelect routes list selection through the bus, like any detached
// surface. Without a listening player the controller is called directly.
func (m Model) handleSelect(msg tracklist.SelectMsg) (tea.Model, tea.Cmd) {
	if m.bus != nil && m.bus.SelectTrack(msg.Kind, msg.Track, msg.Index) {
		return m, nil
	}
	p := m.player(msg.Kind)
	if p == nil {
		return m, nil
	}
	if err := p.Ctrl.Select(msg.Track.ID); err != nil {
		return m.setNotice(errmsg.FormatWith(errmsg.OpPlaybackSelect, msg.Track.Title, err), true)
	}
	return m, nil
}

func (m Model) handlePlayerEvent(msg PlayerEventMsg) (tea.Model, tea.Cmd) {
	p := m.player(msg.Kind)
	if p == nil {
		return m, nil
	}
	watch := watchPlayer(p)

	switch ev := msg.Event.(type) {
	case playback.TrackChange:
		if ev.Current == nil {
			break
		}
		p.list.SetCurrent(ev.Current.ID)
		cmds := []tea.Cmd{watch}
		if p.Ctrl.Snapshot().State == playback.StatePlaying {
			cmds = append(cmds, notifyCmd(m.notifier, p.Kind, notify.NowPlaying(p.Kind, *ev.Current, p.notifyID)))
		}
		if ev.ResumeFrom > 0 {
			var cmd tea.Cmd
			m, cmd = m.setNotice("Resuming from "+render.Clock(ev.ResumeFrom), false)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	case playback.ListChange:
		p.list.SetTracks(ev.Tracks)
	case playback.SleepChange:
		if ev.Fired {
			m, cmd := m.setNotice(fmt.Sprintf("Sleep timer ended, %s paused", msg.Kind), false)
			return m, tea.Batch(watch, cmd, notifyCmd(m.notifier, p.Kind, notify.SleepFired(p.Kind)))
		}
	case playback.ErrorEvent:
		title := ev.TrackID
		if snap := p.Ctrl.Snapshot(); snap.Track != nil {
			title = snap.Track.Title
		}
		op := errmsg.OpPlaybackLoad
		if ev.Operation == "play" {
			op = errmsg.OpPlaybackStart
		}
		m, cmd := m.setNotice(errmsg.FormatWith(op, title, ev.Err), true)
		return m, tea.Batch(watch, cmd)
	}
	return m, watch
}
