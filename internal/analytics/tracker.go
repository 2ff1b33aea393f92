// Package analytics records listening events for the engagement backend.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/llehouerou/tapdeck/internal/playlist"
)

const (
	queueSize   = 64
	sendTimeout = 10 * time.Second
)

// EventType names an analytics event.
type EventType string

const (
	TrackPlay     EventType = "track_play"
	TrackPause    EventType = "track_pause"
	TrackComplete EventType = "track_complete"
	TrackSkip     EventType = "track_skip"
)

// Event is a single listening event.
type Event struct {
	Type     EventType
	Kind     playlist.Kind
	TrackID  string
	Position float64
	Duration float64
	At       time.Time
}

// Sink delivers an event to the backend.
type Sink interface {
	RecordAnalyticsEvent(ctx context.Context, eventType string, metadata map[string]any) error
}

// FailureObserver is told about events that could not be delivered.
type FailureObserver interface {
	AnalyticsFailed()
}

// Tracker queues events and delivers them from a background goroutine so
// playback never waits on the network. Events are dropped when the queue is
// full; delivery is best effort.
type Tracker struct {
	sink      Sink
	observer  FailureObserver
	sessionID string
	queue     chan Event

	once   sync.Once
	done   chan struct{}
	exited chan struct{}
}

// NewTracker starts a tracker with a fresh session id. observer may be nil.
func NewTracker(sink Sink, observer FailureObserver) *Tracker {
	t := &Tracker{
		sink:      sink,
		observer:  observer,
		sessionID: uuid.NewString(),
		queue:     make(chan Event, queueSize),
		done:      make(chan struct{}),
		exited:    make(chan struct{}),
	}
	go t.run()
	return t
}

// SessionID identifies this listening session in every event.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// Record enqueues ev without blocking.
func (t *Tracker) Record(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case <-t.done:
		return
	default:
	}
	select {
	case t.queue <- ev:
	default:
		log.WithField("event", ev.Type).Debug("analytics queue full, event dropped")
		t.failed()
	}
}

func (t *Tracker) run() {
	defer close(t.exited)

	for {
		select {
		case ev := <-t.queue:
			t.send(ev)
		case <-t.done:
			// Flush what is already queued.
			for {
				select {
				case ev := <-t.queue:
					t.send(ev)
				default:
					return
				}
			}
		}
	}
}

func (t *Tracker) send(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := t.sink.RecordAnalyticsEvent(ctx, string(ev.Type), t.metadata(ev)); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event": ev.Type,
			"track": ev.TrackID,
		}).Warn("analytics event not delivered")
		t.failed()
	}
}

func (t *Tracker) metadata(ev Event) map[string]any {
	return map[string]any{
		"track_id":     ev.TrackID,
		"media_kind":   string(ev.Kind),
		"current_time": ev.Position,
		"duration":     ev.Duration,
		"timestamp":    ev.At.UTC().Format(time.RFC3339Nano),
		"session_id":   t.sessionID,
	}
}

func (t *Tracker) failed() {
	if t.observer != nil {
		t.observer.AnalyticsFailed()
	}
}

// Close stops accepting events and waits for the queued ones to be
// delivered, at most sendTimeout.
func (t *Tracker) Close() {
	t.once.Do(func() {
		close(t.done)
	})
	select {
	case <-t.exited:
	case <-time.After(sendTimeout):
		log.Warn("analytics flush timed out")
	}
}
