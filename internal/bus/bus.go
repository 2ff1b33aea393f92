// Package bus carries playback intents from detached surfaces (mini-player,
// media keys, search results) to the player that owns a media kind.
package bus

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/llehouerou/tapdeck/internal/playlist"
)

const intentBufferSize = 16

// ErrAlreadySubscribed is returned when a second player registers for a
// media kind that already has one.
var ErrAlreadySubscribed = errors.New("media kind already has a subscriber")

// IntentType identifies a playback request.
type IntentType int

const (
	IntentPlayPause IntentType = iota
	IntentNext
	IntentPrevious
	IntentSeek
	IntentTrackSelected
)

func (t IntentType) String() string {
	switch t {
	case IntentPlayPause:
		return "playPause"
	case IntentNext:
		return "next"
	case IntentPrevious:
		return "previous"
	case IntentSeek:
		return "seek"
	case IntentTrackSelected:
		return "trackSelected"
	}
	return "unknown"
}

// Intent is a playback request. Seconds is set for IntentSeek; Track and
// Index for IntentTrackSelected.
type Intent struct {
	Type    IntentType
	Seconds float64
	Track   *playlist.Track
	Index   int
}

// DropObserver is told about intents published with nobody to receive them.
type DropObserver interface {
	BusDropped(kind string)
}

// Bus routes intents to at most one subscriber per media kind.
type Bus struct {
	mu       sync.Mutex
	subs     map[playlist.Kind]*Subscription
	observer DropObserver
}

// New creates an empty bus. observer may be nil.
func New(observer DropObserver) *Bus {
	return &Bus{
		subs:     make(map[playlist.Kind]*Subscription),
		observer: observer,
	}
}

// Subscribe registers the player for kind.
func (b *Bus) Subscribe(kind playlist.Kind) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[kind]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySubscribed, kind)
	}
	sub := &Subscription{
		bus:  b,
		kind: kind,
		ch:   make(chan Intent, intentBufferSize),
	}
	b.subs[kind] = sub
	return sub, nil
}

// HasSubscriber reports whether a player is registered for kind.
func (b *Bus) HasSubscriber(kind playlist.Kind) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.subs[kind]
	return ok
}

// Publish delivers in to the player of kind without blocking. It returns
// false when the intent was dropped: nobody is subscribed or the player is
// not keeping up. Intents are never queued for a future subscriber.
func (b *Bus) Publish(kind playlist.Kind, in Intent) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	logger := log.WithFields(log.Fields{"kind": kind, "intent": in.Type})

	sub, ok := b.subs[kind]
	if !ok {
		logger.Debug("no subscriber, intent dropped")
		b.dropped(kind)
		return false
	}
	select {
	case sub.ch <- in:
		return true
	default:
		logger.Warn("subscriber busy, intent dropped")
		b.dropped(kind)
		return false
	}
}

func (b *Bus) dropped(kind playlist.Kind) {
	if b.observer != nil {
		b.observer.BusDropped(string(kind))
	}
}

// PlayPause toggles playback of kind.
func (b *Bus) PlayPause(kind playlist.Kind) bool {
	return b.Publish(kind, Intent{Type: IntentPlayPause})
}

// Next skips to the next track of kind.
func (b *Bus) Next(kind playlist.Kind) bool {
	return b.Publish(kind, Intent{Type: IntentNext})
}

// Previous goes back to the previous track of kind.
func (b *Bus) Previous(kind playlist.Kind) bool {
	return b.Publish(kind, Intent{Type: IntentPrevious})
}

// Seek moves the playhead of kind to seconds.
func (b *Bus) Seek(kind playlist.Kind, seconds float64) bool {
	return b.Publish(kind, Intent{Type: IntentSeek, Seconds: seconds})
}

// SelectTrack asks the player of kind to play track.
func (b *Bus) SelectTrack(kind playlist.Kind, track playlist.Track, index int) bool {
	return b.Publish(kind, Intent{Type: IntentTrackSelected, Track: &track, Index: index})
}

// Subscription is a player's registration for one media kind.
type Subscription struct {
	bus  *Bus
	kind playlist.Kind
	ch   chan Intent
	once sync.Once
}

// Kind returns the media kind of the subscription.
func (s *Subscription) Kind() playlist.Kind {
	return s.kind
}

// Intents returns the receive channel. It is closed by Close.
func (s *Subscription) Intents() <-chan Intent {
	return s.ch
}

// Close releases the media kind so another player may subscribe.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		if s.bus.subs[s.kind] == s {
			delete(s.bus.subs, s.kind)
		}
		close(s.ch)
	})
}
