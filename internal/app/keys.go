package app

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/llehouerou/tapdeck/internal/errmsg"
	"github.com/llehouerou/tapdeck/internal/keymap"
	"github.com/llehouerou/tapdeck/internal/playback"
)

const (
	seekStep     = 5.0
	longSeekStep = 30.0
	volumeStep   = 0.05
	rateStep     = 0.25
)

// Countdown presets cycled by the sleep key, in seconds. 0 cancels.
var sleepPresets = []int{0, 5 * 60, 15 * 60, 30 * 60, 60 * 60}

// Inter-track delays cycled by the delay key.
var delayPresets = []time.Duration{0, 2 * time.Second, 5 * time.Second, 10 * time.Second}

var keys = keymap.NewResolver(keymap.All)

// keyResult is the outcome of a key handler.
type keyResult struct {
	handled bool
	cmd     tea.Cmd
}

var notHandled = keyResult{}

func handled(cmd tea.Cmd) keyResult {
	return keyResult{handled: true, cmd: cmd}
}

// chain runs handlers in order until one handles the action.
func chain(handlers ...func() keyResult) (bool, tea.Cmd) {
	for _, h := range handlers {
		if r := h(); r.handled {
			return true, r.cmd
		}
	}
	return false, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := keys.Resolve(msg.String())
	if action == keymap.ActionQuit {
		return m, tea.Quit
	}
	if m.Active() == nil {
		return m, nil
	}

	if ok, cmd := chain(
		func() keyResult { return m.handleGlobalKey(action) },
		func() keyResult { return m.handleTransportKey(action) },
		func() keyResult { return m.handleSettingsKey(action) },
	); ok {
		return m, cmd
	}

	if m.miniFocus {
		return m, nil
	}
	list, cmd := m.Active().list.Update(msg)
	m.Active().list = list
	return m, cmd
}

func (m *Model) handleGlobalKey(action keymap.Action) keyResult {
	switch action {
	case keymap.ActionSwitchKind:
		m.Active().list.SetFocused(false)
		m.active = (m.active + 1) % len(m.players)
		m.Active().list.SetFocused(!m.miniFocus)
	case keymap.ActionFocusMini:
		if m.Mini() == nil {
			return handled(nil)
		}
		m.miniFocus = !m.miniFocus
		m.Active().list.SetFocused(!m.miniFocus)
	case keymap.ActionHelp:
		m.showHelp = !m.showHelp
	case keymap.ActionReload:
		return handled(loadTracksCmd(m.ctx, m.source, m.Active().Kind))
	case keymap.ActionResetOrder:
		if m.orders == nil {
			return handled(nil)
		}
		return handled(clearOrderCmd(m.ctx, m.orders, m.Active().Kind))
	default:
		return notHandled
	}
	return handled(nil)
}

// handleTransportKey drives the focused surface. The full player calls its
// controller; the mini-player publishes intents on the bus.
func (m *Model) handleTransportKey(action keymap.Action) keyResult {
	if m.miniFocus {
		return m.handleMiniKey(action)
	}

	ctrl := m.Active().Ctrl
	op := errmsg.OpPlaybackStart
	var err error
	switch action {
	case keymap.ActionPlayPause:
		err = ctrl.Toggle()
	case keymap.ActionNext:
		err = ctrl.Next()
	case keymap.ActionPrevious:
		err = ctrl.Previous()
	case keymap.ActionSeekBack, keymap.ActionSeekForward, keymap.ActionSeekBackLong, keymap.ActionSeekForwardLong:
		op = errmsg.OpPlaybackSeek
		err = ctrl.Seek(ctrl.Snapshot().Playback.PositionSeconds + seekDelta(action))
	default:
		return notHandled
	}
	return m.result(op, err)
}

func (m *Model) handleMiniKey(action keymap.Action) keyResult {
	mini := m.Mini()
	switch action {
	case keymap.ActionPlayPause:
		m.bus.PlayPause(mini.Kind)
	case keymap.ActionNext:
		m.bus.Next(mini.Kind)
	case keymap.ActionPrevious:
		m.bus.Previous(mini.Kind)
	case keymap.ActionSeekBack, keymap.ActionSeekForward, keymap.ActionSeekBackLong, keymap.ActionSeekForwardLong:
		m.bus.Seek(mini.Kind, max(mini.Ctrl.Snapshot().Playback.PositionSeconds+seekDelta(action), 0))
	default:
		return notHandled
	}
	return handled(nil)
}

func seekDelta(action keymap.Action) float64 {
	switch action {
	case keymap.ActionSeekBack:
		return -seekStep
	case keymap.ActionSeekForward:
		return seekStep
	case keymap.ActionSeekBackLong:
		return -longSeekStep
	}
	return longSeekStep
}

// handleSettingsKey changes modes of the active player.
func (m *Model) handleSettingsKey(action keymap.Action) keyResult {
	p := m.Active()
	snap := p.Ctrl.Snapshot()
	var err error

	switch action {
	case keymap.ActionCycleRepeat:
		_, err = p.Ctrl.CycleRepeatMode()
	case keymap.ActionToggleShuffle:
		_, err = p.Ctrl.ToggleShuffle()
	case keymap.ActionVolumeUp:
		err = p.Ctrl.SetVolume(snap.Playback.Volume + volumeStep)
	case keymap.ActionVolumeDown:
		err = p.Ctrl.SetVolume(snap.Playback.Volume - volumeStep)
	case keymap.ActionRateUp:
		err = p.Ctrl.SetPlaybackRate(snap.Playback.PlaybackRate + rateStep)
	case keymap.ActionRateDown:
		err = p.Ctrl.SetPlaybackRate(snap.Playback.PlaybackRate - rateStep)
	case keymap.ActionSleepTimer:
		p.sleepIdx = (p.sleepIdx + 1) % len(sleepPresets)
		err = p.Ctrl.SetSleepTimer(sleepPresets[p.sleepIdx])
	case keymap.ActionTrackDelay:
		err = p.Ctrl.SetTrackDelay(nextDelay(snap.TrackDelay))
	default:
		return notHandled
	}
	return m.result(errmsg.OpPlayerSetting, err)
}

// nextDelay returns the preset after current, wrapping to no delay.
func nextDelay(current time.Duration) time.Duration {
	next, ok := lo.Find(delayPresets, func(d time.Duration) bool { return d > current })
	if !ok {
		return 0
	}
	return next
}

func (m *Model) result(op errmsg.Op, err error) keyResult {
	if err == nil || errors.Is(err, playback.ErrClosed) {
		return handled(nil)
	}
	updated, cmd := m.setNotice(errmsg.Format(op, err), true)
	*m = updated
	return handled(cmd)
}
