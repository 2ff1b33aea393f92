// internal/playback/controller.go
package playback

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/llehouerou/tapdeck/internal/analytics"
	"github.com/llehouerou/tapdeck/internal/bus"
	"github.com/llehouerou/tapdeck/internal/media"
	"github.com/llehouerou/tapdeck/internal/metrics"
	"github.com/llehouerou/tapdeck/internal/playlist"
)

const (
	DefaultResumeMinPosition = 30.0
	DefaultResumeWindow      = 30 * time.Minute
)

var (
	// ErrClosed is returned by controller methods after Close.
	ErrClosed = errors.New("playback controller closed")

	// ErrUnknownTrack is returned when selecting a track id that is not in
	// the list.
	ErrUnknownTrack = errors.New("track not in list")
)

// Recorder receives listening events.
type Recorder interface {
	Record(ev analytics.Event)
}

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	TrackDelay        time.Duration
	ResumeMinPosition float64
	ResumeWindow      time.Duration
	Recorder          Recorder
	Metrics           *metrics.Metrics
	Intn              func(n int) int
}

// Snapshot is a read-only copy of the controller state for rendering.
type Snapshot struct {
	Kind           playlist.Kind
	State          State
	Playback       PlaybackState
	Track          *playlist.Track
	Tracks         []playlist.Track
	TrackDelay     time.Duration
	PendingAdvance bool
	SleepRemaining int
	ResumedFrom    float64
	Err            error
}

// Controller is the playback state machine of one media kind.
//
// Every intent, timer callback, bus intent and media notification is applied
// by a single goroutine, so transitions never interleave. Public methods
// block until their command has been applied.
type Controller struct {
	kind    playlist.Kind
	store   *Store
	adapter *media.Adapter
	opts    Options

	cmds      chan func()
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once

	subsMu sync.RWMutex
	subs   []*Subscription

	snapMu sync.RWMutex
	snap   Snapshot

	// Owned by the run goroutine.
	tracks         *playlist.Playlist
	state          State
	gen            uint64
	current        *playlist.Track
	lastErr        error
	delay          time.Duration
	pendingNext    *time.Timer
	pendingToken   uint64
	sleepTimer     *time.Timer
	sleepToken     uint64
	sleepRemaining int
	resumedFrom    float64
	intents        <-chan bus.Intent
}

// New creates a controller and starts its goroutine. The controller owns
// adapter and closes it on Close.
func New(kind playlist.Kind, store *Store, adapter *media.Adapter, opts Options) *Controller {
	if opts.ResumeMinPosition <= 0 {
		opts.ResumeMinPosition = DefaultResumeMinPosition
	}
	if opts.ResumeWindow <= 0 {
		opts.ResumeWindow = DefaultResumeWindow
	}
	if opts.Intn == nil {
		opts.Intn = rand.IntN
	}

	c := &Controller{
		kind:    kind,
		store:   store,
		adapter: adapter,
		opts:    opts,
		cmds:    make(chan func()),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
		tracks:  playlist.NewPlaylist(),
		state:   StateIdle,
		delay:   max(opts.TrackDelay, 0),
	}

	st := store.State()
	adapter.SetVolume(st.Volume)
	adapter.SetPlaybackRate(st.PlaybackRate)
	if st.IsPlaying {
		// Nothing is playing at startup whatever was persisted.
		store.Update(Patch{IsPlaying: lo.ToPtr(false)})
	}
	c.publishSnapshot()

	go c.run()
	return c
}

// Kind returns the media kind the controller plays.
func (c *Controller) Kind() playlist.Kind {
	return c.kind
}

func (c *Controller) run() {
	defer close(c.exited)

	for {
		select {
		case fn := <-c.cmds:
			fn()
		case ev := <-c.adapter.Events():
			c.handleMediaEvent(ev)
		case in, ok := <-c.intents:
			if !ok {
				c.intents = nil
				continue
			}
			c.handleIntent(in)
		case <-c.done:
			c.cancelPendingAdvance()
			c.stopSleep()
			return
		}
		c.publishSnapshot()
	}
}

// do runs fn on the controller goroutine and waits for it.
func (c *Controller) do(fn func() error) error {
	var err error
	applied := make(chan struct{})
	cmd := func() {
		err = fn()
		// Callers read snapshots right after returning.
		c.publishSnapshot()
		close(applied)
	}

	select {
	case c.cmds <- cmd:
	case <-c.done:
		return ErrClosed
	}
	select {
	case <-applied:
		return err
	case <-c.exited:
		return ErrClosed
	}
}

// post queues fn without waiting. Used by timer callbacks.
func (c *Controller) post(fn func()) {
	select {
	case c.cmds <- fn:
	case <-c.done:
	}
}

// Listen binds a bus subscription: its intents are applied like direct
// calls. Closing the subscription unbinds it.
func (c *Controller) Listen(sub *bus.Subscription) error {
	return c.do(func() error {
		c.intents = sub.Intents()
		return nil
	})
}

func (c *Controller) handleIntent(in bus.Intent) {
	c.opts.Metrics.Intent(string(c.kind), in.Type.String())

	switch in.Type {
	case bus.IntentPlayPause:
		_ = c.toggle()
	case bus.IntentNext:
		c.next(true)
	case bus.IntentPrevious:
		c.previous()
	case bus.IntentSeek:
		c.seek(in.Seconds)
	case bus.IntentTrackSelected:
		if in.Track != nil {
			c.selectTrack(*in.Track, in.Index)
		}
	}
}

func (c *Controller) handleMediaEvent(ev media.Event) {
	if ev.Gen != c.gen {
		log.WithFields(log.Fields{
			"kind":  c.kind,
			"event": ev.Type,
			"gen":   ev.Gen,
		}).Debug("ignoring event from superseded load")
		return
	}

	switch ev.Type {
	case media.EventLoadedMetadata:
		st := c.store.Update(Patch{DurationSeconds: lo.ToPtr(ev.Value)})
		c.notifyPosition(st)
	case media.EventTimeUpdate:
		st := c.store.Update(Patch{PositionSeconds: lo.ToPtr(ev.Value)})
		c.notifyPosition(st)
	case media.EventPlayed:
		if c.current != nil && c.state != StatePlaying {
			c.setState(StatePlaying)
			c.store.Update(Patch{IsPlaying: lo.ToPtr(true)})
		}
	case media.EventPaused:
		if c.state == StatePlaying {
			c.setState(StateReady)
			c.store.Update(Patch{IsPlaying: lo.ToPtr(false)})
		}
	case media.EventEnded:
		c.handleEnded()
	case media.EventError:
		c.handleMediaError(ev.Err)
	}
}

func (c *Controller) handleMediaError(err error) {
	trackID := ""
	if c.current != nil {
		trackID = c.current.ID
	}
	log.WithError(err).WithFields(log.Fields{"kind": c.kind, "track": trackID}).Warn("playback error")

	if errors.Is(err, media.ErrUnplayableSource) {
		c.opts.Metrics.Unplayable(string(c.kind))
	}
	c.lastErr = err
	c.cancelPendingAdvance()
	if c.state == StatePlaying {
		c.setState(StateReady)
	}
	c.store.Update(Patch{IsPlaying: lo.ToPtr(false)})
	c.notifyError(ErrorEvent{Operation: "load", TrackID: trackID, Err: err})
}

// Subscribe creates a new event subscription.
func (c *Controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	c.subs = append(c.subs, sub)
	return sub
}

func (c *Controller) eachSub(fn func(*Subscription)) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		fn(sub)
	}
}

func (c *Controller) setState(s State) {
	if s == c.state {
		return
	}
	prev := c.state
	c.state = s
	c.opts.Metrics.SetPlaying(string(c.kind), s == StatePlaying)
	c.eachSub(func(sub *Subscription) {
		sub.sendState(StateChange{Previous: prev, Current: s})
	})
}

func (c *Controller) notifyPosition(st PlaybackState) {
	e := PositionChange{Position: st.PositionSeconds, Duration: st.DurationSeconds}
	c.eachSub(func(sub *Subscription) { sub.sendPosition(e) })
}

func (c *Controller) notifyMode(st PlaybackState) {
	e := ModeChange{RepeatMode: st.RepeatMode, Shuffle: st.IsShuffling}
	c.eachSub(func(sub *Subscription) { sub.sendMode(e) })
}

func (c *Controller) notifyError(e ErrorEvent) {
	c.eachSub(func(sub *Subscription) { sub.sendError(e) })
}

func (c *Controller) notifySleep(e SleepChange) {
	c.eachSub(func(sub *Subscription) { sub.sendSleep(e) })
}

func (c *Controller) publishSnapshot() {
	s := Snapshot{
		Kind:           c.kind,
		State:          c.state,
		Playback:       c.store.State(),
		Tracks:         c.tracks.Tracks(),
		TrackDelay:     c.delay,
		PendingAdvance: c.pendingNext != nil,
		SleepRemaining: c.sleepRemaining,
		ResumedFrom:    c.resumedFrom,
		Err:            c.lastErr,
	}
	if c.current != nil {
		t := *c.current
		s.Track = &t
	}

	c.snapMu.Lock()
	c.snap = s
	c.snapMu.Unlock()
}

// Snapshot returns the state as of the last applied command. It never
// blocks on the controller goroutine.
func (c *Controller) Snapshot() Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	s := c.snap
	s.Tracks = append([]playlist.Track(nil), s.Tracks...)
	return s
}

// Close stops the controller, its timers and the adapter.
// Safe to call multiple times.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		<-c.exited
		c.adapter.Close()

		c.subsMu.Lock()
		for _, sub := range c.subs {
			sub.close()
		}
		c.subs = nil
		c.subsMu.Unlock()
	})
	return nil
}
