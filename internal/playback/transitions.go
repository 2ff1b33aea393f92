// internal/playback/transitions.go
package playback

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/llehouerou/tapdeck/internal/analytics"
	"github.com/llehouerou/tapdeck/internal/playlist"
)

// Load makes track current at index without starting playback.
// The persisted position is restored when the resume rule allows it.
// No-op while the list is empty.
func (c *Controller) Load(track playlist.Track, index int) error {
	return c.do(func() error {
		c.opts.Metrics.Intent(string(c.kind), "load")
		c.load(track, index, false)
		return nil
	})
}

// Play starts playback of the current track. No-op when nothing is loaded.
func (c *Controller) Play() error {
	return c.do(func() error {
		c.opts.Metrics.Intent(string(c.kind), "play")
		return c.play()
	})
}

// Pause pauses playback.
func (c *Controller) Pause() error {
	return c.do(func() error {
		c.opts.Metrics.Intent(string(c.kind), "pause")
		c.pause()
		return nil
	})
}

// Toggle plays when paused and pauses when playing.
func (c *Controller) Toggle() error {
	return c.do(func() error {
		c.opts.Metrics.Intent(string(c.kind), "playPause")
		return c.toggle()
	})
}

// Next advances to the next track: a uniformly random one when shuffling,
// otherwise the following one with wraparound. With a track delay set the
// change happens after the delay unless another intent cancels it.
func (c *Controller) Next() error {
	return c.do(func() error {
		c.opts.Metrics.Intent(string(c.kind), "next")
		c.next(true)
		return nil
	})
}

// Previous goes back one track with wraparound. It is never delayed.
func (c *Controller) Previous() error {
	return c.do(func() error {
		c.opts.Metrics.Intent(string(c.kind), "previous")
		c.previous()
		return nil
	})
}

// Seek moves the playhead, clamped to the known duration.
func (c *Controller) Seek(seconds float64) error {
	return c.do(func() error {
		c.opts.Metrics.Intent(string(c.kind), "seek")
		c.seek(seconds)
		return nil
	})
}

// Select loads and plays the track with the given id.
func (c *Controller) Select(trackID string) error {
	return c.do(func() error {
		c.opts.Metrics.Intent(string(c.kind), "trackSelected")
		idx := c.tracks.IndexOf(trackID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownTrack, trackID)
		}
		c.load(*c.tracks.Track(idx), idx, true)
		return nil
	})
}

// SetVolume sets and persists the volume, clamped to [0, 1].
func (c *Controller) SetVolume(v float64) error {
	return c.do(func() error {
		st := c.store.Update(Patch{Volume: lo.ToPtr(v)})
		c.adapter.SetVolume(st.Volume)
		return nil
	})
}

// SetPlaybackRate sets and persists the rate, clamped to [0.25, 2].
func (c *Controller) SetPlaybackRate(r float64) error {
	return c.do(func() error {
		st := c.store.Update(Patch{PlaybackRate: lo.ToPtr(r)})
		c.adapter.SetPlaybackRate(st.PlaybackRate)
		return nil
	})
}

// SetRepeatMode sets and persists the repeat mode.
func (c *Controller) SetRepeatMode(mode RepeatMode) error {
	return c.do(func() error {
		c.notifyMode(c.store.Update(Patch{RepeatMode: lo.ToPtr(mode)}))
		return nil
	})
}

// CycleRepeatMode advances none → all → one → none and returns the new mode.
func (c *Controller) CycleRepeatMode() (RepeatMode, error) {
	var mode RepeatMode
	err := c.do(func() error {
		st := c.store.Update(Patch{RepeatMode: lo.ToPtr(c.store.State().RepeatMode.Next())})
		mode = st.RepeatMode
		c.notifyMode(st)
		return nil
	})
	return mode, err
}

// SetShuffle enables or disables shuffle.
func (c *Controller) SetShuffle(enabled bool) error {
	return c.do(func() error {
		c.notifyMode(c.store.Update(Patch{IsShuffling: lo.ToPtr(enabled)}))
		return nil
	})
}

// ToggleShuffle flips shuffle and returns the new value.
func (c *Controller) ToggleShuffle() (bool, error) {
	var enabled bool
	err := c.do(func() error {
		st := c.store.Update(Patch{IsShuffling: lo.ToPtr(!c.store.State().IsShuffling)})
		enabled = st.IsShuffling
		c.notifyMode(st)
		return nil
	})
	return enabled, err
}

// SetTrackDelay sets the pause inserted before Next changes track.
// Zero disables it.
func (c *Controller) SetTrackDelay(d time.Duration) error {
	return c.do(func() error {
		c.delay = max(d, 0)
		return nil
	})
}

// SetTracks replaces the ordered list, for example after a reorder or a
// refresh. The current index follows the current track; when the track is
// gone the index falls back to 0.
func (c *Controller) SetTracks(tracks []playlist.Track) error {
	return c.do(func() error {
		c.tracks.Replace(tracks)
		st := c.store.State()
		idx := st.CurrentIndex
		if st.CurrentTrackID != "" {
			idx = max(c.tracks.IndexOf(st.CurrentTrackID), 0)
		}
		if idx != st.CurrentIndex {
			c.store.Update(Patch{CurrentIndex: lo.ToPtr(idx)})
		}
		e := ListChange{Tracks: c.tracks.Tracks(), Index: idx}
		c.eachSub(func(sub *Subscription) { sub.sendList(e) })
		return nil
	})
}

// Restore loads the persisted track when it is still in the list, otherwise
// the first track. Playback is not started.
func (c *Controller) Restore() error {
	return c.do(func() error {
		if c.tracks.Len() == 0 {
			return nil
		}
		idx := max(c.tracks.IndexOf(c.store.State().CurrentTrackID), 0)
		c.load(*c.tracks.Track(idx), idx, false)
		return nil
	})
}

func (c *Controller) load(track playlist.Track, index int, autoplay bool) {
	if c.tracks.Len() == 0 {
		return
	}
	c.cancelPendingAdvance()

	if t := c.tracks.Track(index); t == nil || t.ID != track.ID {
		if idx := c.tracks.IndexOf(track.ID); idx >= 0 {
			index = idx
		}
	}
	index = max(index, 0)

	prev := c.current
	prevIndex := c.store.State().CurrentIndex

	// Resume is decided on the persisted state, before it is overwritten.
	startAt, resume := c.store.ResumePosition(track.ID, c.opts.ResumeMinPosition, c.opts.ResumeWindow)
	if !resume {
		startAt = 0
	}

	c.store.SetCurrentTrack(&track, index)
	patch := Patch{IsPlaying: lo.ToPtr(false)}
	if resume {
		patch.PositionSeconds = lo.ToPtr(startAt)
	}
	st := c.store.Update(patch)

	current := track
	c.current = &current
	c.resumedFrom = startAt
	c.lastErr = nil
	c.gen = c.adapter.Load(track.MediaURL, startAt)
	// Volume and rate carry over to the new source.
	c.adapter.SetVolume(st.Volume)
	c.adapter.SetPlaybackRate(st.PlaybackRate)

	log.WithFields(log.Fields{
		"kind":   c.kind,
		"track":  track.ID,
		"index":  index,
		"resume": startAt,
	}).Debug("track loaded")

	c.opts.Metrics.TrackChanged(string(c.kind))
	c.setState(StateReady)
	e := TrackChange{Previous: prev, Current: &current, PreviousIndex: prevIndex, Index: index, ResumeFrom: startAt}
	c.eachSub(func(sub *Subscription) { sub.sendTrack(e) })
	c.notifyPosition(st)

	if autoplay {
		_ = c.play()
	}
}

func (c *Controller) play() error {
	c.cancelPendingAdvance()
	if c.current == nil {
		return nil
	}
	if err := c.adapter.Play(); err != nil {
		c.lastErr = err
		c.notifyError(ErrorEvent{Operation: "play", TrackID: c.current.ID, Err: err})
		return err
	}
	if c.state != StatePlaying {
		c.setState(StatePlaying)
		c.store.Update(Patch{IsPlaying: lo.ToPtr(true)})
		c.record(analytics.TrackPlay)
	}
	return nil
}

func (c *Controller) pause() {
	c.cancelPendingAdvance()
	if c.current == nil {
		return
	}
	c.adapter.Pause()
	if c.state == StatePlaying {
		c.setState(StateReady)
		c.store.Update(Patch{IsPlaying: lo.ToPtr(false)})
		c.record(analytics.TrackPause)
	}
}

func (c *Controller) toggle() error {
	if c.state == StatePlaying {
		c.pause()
		return nil
	}
	return c.play()
}

func (c *Controller) next(userInitiated bool) {
	if c.tracks.Len() == 0 {
		return
	}
	c.cancelPendingAdvance()
	if userInitiated && c.current != nil {
		c.record(analytics.TrackSkip)
	}
	if c.delay > 0 {
		c.scheduleAdvance(c.delay)
		return
	}
	c.advance()
}

// advance loads and plays the next track immediately.
func (c *Controller) advance() {
	n := c.tracks.Len()
	if n == 0 {
		return
	}
	target := 0
	switch {
	case c.current == nil:
	case c.store.State().IsShuffling:
		target = c.opts.Intn(n)
	default:
		target = (c.resolveIndex() + 1) % n
	}
	c.load(*c.tracks.Track(target), target, true)
}

func (c *Controller) previous() {
	n := c.tracks.Len()
	if n == 0 {
		return
	}
	c.cancelPendingAdvance()
	target := 0
	switch {
	case c.current == nil:
	case c.store.State().IsShuffling:
		target = c.opts.Intn(n)
	default:
		target = (c.resolveIndex() - 1 + n) % n
	}
	c.load(*c.tracks.Track(target), target, true)
}

// resolveIndex returns the list index of the current track, re-resolving a
// stale index by id and falling back to 0.
func (c *Controller) resolveIndex() int {
	st := c.store.State()
	if t := c.tracks.Track(st.CurrentIndex); t != nil && t.ID == st.CurrentTrackID {
		return st.CurrentIndex
	}
	idx := max(c.tracks.IndexOf(st.CurrentTrackID), 0)
	log.WithFields(log.Fields{
		"kind":  c.kind,
		"stale": st.CurrentIndex,
		"index": idx,
	}).Debug("re-resolved stale index")
	c.store.Update(Patch{CurrentIndex: lo.ToPtr(idx)})
	return idx
}

func (c *Controller) seek(seconds float64) {
	if c.current == nil {
		return
	}
	seconds = max(seconds, 0)
	if d := c.store.State().DurationSeconds; d > 0 {
		seconds = min(seconds, d)
	}
	c.adapter.Seek(seconds)
	c.notifyPosition(c.store.Update(Patch{PositionSeconds: lo.ToPtr(seconds)}))
}

func (c *Controller) selectTrack(track playlist.Track, index int) {
	idx := c.tracks.IndexOf(track.ID)
	if idx < 0 {
		log.WithFields(log.Fields{
			"kind":  c.kind,
			"track": track.ID,
			"index": index,
		}).Debug("selected track not in list, ignored")
		return
	}
	c.load(*c.tracks.Track(idx), idx, true)
}

func (c *Controller) handleEnded() {
	c.record(analytics.TrackComplete)

	st := c.store.Update(Patch{
		IsPlaying:       lo.ToPtr(false),
		PositionSeconds: lo.ToPtr(c.store.State().DurationSeconds),
	})
	c.setState(StateReady)

	switch {
	case st.RepeatMode == RepeatOne:
		c.adapter.Seek(0)
		c.store.Update(Patch{PositionSeconds: lo.ToPtr(0.0)})
		_ = c.play()
	case st.RepeatMode == RepeatAll || c.tracks.Len() > 1:
		c.next(false)
	}
}

func (c *Controller) record(typ analytics.EventType) {
	if c.opts.Recorder == nil || c.current == nil {
		return
	}
	st := c.store.State()
	c.opts.Recorder.Record(analytics.Event{
		Type:     typ,
		Kind:     c.kind,
		TrackID:  c.current.ID,
		Position: st.PositionSeconds,
		Duration: st.DurationSeconds,
	})
}
