// internal/media/adapter.go
package media

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/llehouerou/tapdeck/internal/playlist"
)

const eventBufferSize = 64

// Event is an element notification stamped with the load generation that
// produced it. Consumers drop events whose generation is not current.
type Event struct {
	Gen   uint64
	Type  EventType
	Value float64
	Err   error
}

// StreamEngine turns an HLS manifest into a stream an Element can attach.
type StreamEngine interface {
	Start(ctx context.Context, manifestURL string) (*Stream, error)
}

// Adapter wraps an Element and hides whether a source plays natively or
// through the fallback streaming engine.
type Adapter struct {
	el     Element
	engine StreamEngine
	events chan Event

	closed    chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	gen         uint64
	src         string
	cancel      context.CancelFunc
	starting    chan struct{} // closed when the engine start goroutine exits
	stream      *Stream
	attaching   bool
	pendingPlay bool
}

// NewAdapter creates an adapter. engine may be nil, in which case manifests
// are handed to the element as-is.
func NewAdapter(el Element, engine StreamEngine) *Adapter {
	return &Adapter{
		el:     el,
		engine: engine,
		events: make(chan Event, eventBufferSize),
		closed: make(chan struct{}),
	}
}

// Events returns the notification channel.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// Generation returns the generation of the most recent load.
func (a *Adapter) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen
}

// Source returns the most recently loaded source.
func (a *Adapter) Source() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.src
}

// Load replaces the current source and returns the new generation.
// A previously started streaming engine is torn down first. When startAt is
// positive and shorter than the media duration, the element seeks there as
// soon as metadata is known. Failures surface as an EventError wrapping
// ErrUnplayableSource.
func (a *Adapter) Load(src string, startAt float64) uint64 {
	a.teardown()

	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.src = src
	a.pendingPlay = false
	a.mu.Unlock()

	notify := a.notifier(gen, startAt)
	logger := log.WithFields(log.Fields{"src": src, "gen": gen})

	if a.engine != nil && playlist.IsManifestURL(src) && !a.el.CanPlayNative(src) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		a.mu.Lock()
		a.cancel = cancel
		a.starting = done
		a.attaching = true
		a.mu.Unlock()

		logger.Debug("starting fallback stream engine")
		go a.startStream(ctx, done, gen, src, notify)
		return gen
	}

	if err := a.el.Load(src, notify); err != nil {
		logger.WithError(err).Warn("element rejected source")
		a.emit(context.Background(), Event{Gen: gen, Type: EventError, Err: fmt.Errorf("%w: %w", ErrUnplayableSource, err)})
	}
	return gen
}

func (a *Adapter) startStream(ctx context.Context, done chan struct{}, gen uint64, src string, notify Notify) {
	defer close(done)

	stream, err := a.engine.Start(ctx, src)
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).WithField("src", src).Warn("stream engine failed")
			a.emit(ctx, Event{Gen: gen, Type: EventError, Err: fmt.Errorf("%w: %w", ErrUnplayableSource, err)})
		}
		return
	}

	a.mu.Lock()
	if gen != a.gen || ctx.Err() != nil {
		a.mu.Unlock()
		stream.Close()
		return
	}
	a.stream = stream
	a.attaching = false
	play := a.pendingPlay
	a.pendingPlay = false
	a.mu.Unlock()

	if err := a.el.Attach(stream, notify); err != nil {
		a.emit(ctx, Event{Gen: gen, Type: EventError, Err: fmt.Errorf("%w: %w", ErrUnplayableSource, err)})
		return
	}
	if play {
		if err := a.el.Play(); err != nil {
			a.emit(ctx, Event{Gen: gen, Type: EventError, Err: err})
		}
	}
}

// teardown cancels and waits for the current streaming engine, if any.
func (a *Adapter) teardown() {
	a.mu.Lock()
	cancel, starting, stream := a.cancel, a.starting, a.stream
	a.cancel, a.starting, a.stream = nil, nil, nil
	a.attaching = false
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if starting != nil {
		<-starting
	}
	if stream != nil {
		stream.Close()
	}
}

func (a *Adapter) notifier(gen uint64, startAt float64) Notify {
	return func(ev ElementEvent) {
		if ev.Type == EventLoadedMetadata && startAt > 0 && startAt < ev.Value {
			a.el.Seek(startAt)
		}
		a.emit(context.Background(), Event{Gen: gen, Type: ev.Type, Value: ev.Value, Err: ev.Err})
	}
}

func (a *Adapter) emit(ctx context.Context, ev Event) {
	select {
	case a.events <- ev:
	case <-ctx.Done():
	case <-a.closed:
	}
}

// Play starts playback. While the fallback engine is still preparing the
// stream, the request is remembered and applied once it is attached.
func (a *Adapter) Play() error {
	a.mu.Lock()
	if a.attaching {
		a.pendingPlay = true
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()
	return a.el.Play()
}

func (a *Adapter) Pause() {
	a.mu.Lock()
	a.pendingPlay = false
	a.mu.Unlock()
	a.el.Pause()
}

func (a *Adapter) Seek(seconds float64) {
	a.el.Seek(seconds)
}

func (a *Adapter) SetVolume(v float64) {
	a.el.SetVolume(v)
}

func (a *Adapter) SetPlaybackRate(r float64) {
	a.el.SetPlaybackRate(r)
}

func (a *Adapter) CurrentTime() float64 {
	return a.el.CurrentTime()
}

func (a *Adapter) Duration() float64 {
	return a.el.Duration()
}

// IsPaused reports whether the element is paused.
func (a *Adapter) IsPaused() bool {
	return a.el.Paused()
}

// Close tears down any streaming engine and stops event delivery.
// Safe to call multiple times.
func (a *Adapter) Close() {
	a.closeOnce.Do(func() {
		close(a.closed)
		a.teardown()
	})
}
