// internal/media/simulated.go
package media

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/llehouerou/tapdeck/internal/playlist"
)

// Simulated is a headless Element. It advances a virtual playhead on a
// ticker instead of decoding media, which lets the playback core run in a
// terminal. Like most browsers it has no native HLS support.
//
// State diagram:
//
//	           Load/Attach
//	(empty) ─────────────────► paused ──Play──► playing
//	                             ▲  ◄──Pause──     │
//	                             └────ended────────┘
type Simulated struct {
	interval time.Duration
	fallback float64
	probe    func(src string) float64

	mu       sync.Mutex
	seq      uint64
	notify   Notify
	stop     chan struct{}
	duration float64
	position float64
	buffered float64
	streamed bool
	paused   bool
	ended    bool
	volume   float64
	rate     float64
}

// SimulatedOption configures a Simulated element.
type SimulatedOption func(*Simulated)

// WithTickInterval sets how often the playhead advances.
func WithTickInterval(d time.Duration) SimulatedOption {
	return func(s *Simulated) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithFallbackDuration sets the duration used when probing yields nothing.
func WithFallbackDuration(seconds float64) SimulatedOption {
	return func(s *Simulated) {
		if seconds > 0 {
			s.fallback = seconds
		}
	}
}

// WithDurationProbe sets the function resolving a source's duration.
// A non-positive result falls back to the default duration.
func WithDurationProbe(probe func(src string) float64) SimulatedOption {
	return func(s *Simulated) {
		s.probe = probe
	}
}

// NewSimulated creates a paused element with no source.
func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		interval: 250 * time.Millisecond,
		fallback: 180,
		paused:   true,
		volume:   1,
		rate:     1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulated) CanPlayNative(src string) bool {
	return !playlist.IsManifestURL(src)
}

func (s *Simulated) Load(src string, notify Notify) error {
	if err := validateSource(src); err != nil {
		return err
	}
	duration := 0.0
	if s.probe != nil {
		duration = s.probe(src)
	}
	if duration <= 0 {
		duration = s.fallback
	}
	s.reset(notify, duration, false)
	go notify(ElementEvent{Type: EventLoadedMetadata, Value: duration})
	return nil
}

func (s *Simulated) Attach(stream *Stream, notify Notify) error {
	if stream == nil || stream.Duration <= 0 {
		return errors.New("empty stream")
	}
	seq := s.reset(notify, stream.Duration, true)
	go s.drain(seq, stream)
	go notify(ElementEvent{Type: EventLoadedMetadata, Value: stream.Duration})
	return nil
}

// reset swaps in a new source and restarts the playhead loop.
func (s *Simulated) reset(notify Notify, duration float64, streamed bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		close(s.stop)
	}
	s.seq++
	s.notify = notify
	s.stop = make(chan struct{})
	s.duration = duration
	s.position = 0
	s.buffered = 0
	s.streamed = streamed
	s.paused = true
	s.ended = false

	go s.run(s.seq, s.stop)
	return s.seq
}

func (s *Simulated) drain(seq uint64, stream *Stream) {
	for seg := range stream.Segments {
		s.mu.Lock()
		if seq != s.seq {
			s.mu.Unlock()
			return
		}
		s.buffered += seg.Duration
		s.mu.Unlock()
	}
	// Feeder finished: everything that will ever arrive is buffered.
	s.mu.Lock()
	if seq == s.seq && stream.Err() == nil {
		s.buffered = s.duration
	}
	s.mu.Unlock()
}

func (s *Simulated) run(seq uint64, stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick(seq)
		}
	}
}

func (s *Simulated) tick(seq uint64) {
	s.mu.Lock()
	if seq != s.seq || s.paused || s.ended {
		s.mu.Unlock()
		return
	}
	limit := s.duration
	if s.streamed && s.buffered < limit {
		limit = s.buffered
	}
	s.position = min(s.position+s.interval.Seconds()*s.rate, limit)
	pos := s.position
	ended := s.position >= s.duration
	if ended {
		s.ended = true
		s.paused = true
	}
	notify := s.notify
	s.mu.Unlock()

	notify(ElementEvent{Type: EventTimeUpdate, Value: pos})
	if ended {
		notify(ElementEvent{Type: EventEnded})
	}
}

func (s *Simulated) Play() error {
	s.mu.Lock()
	if s.notify == nil {
		s.mu.Unlock()
		return ErrNoSource
	}
	if s.ended {
		s.ended = false
		s.position = 0
	}
	wasPaused := s.paused
	s.paused = false
	notify := s.notify
	s.mu.Unlock()

	if wasPaused {
		notify(ElementEvent{Type: EventPlayed})
	}
	return nil
}

func (s *Simulated) Pause() {
	s.mu.Lock()
	if s.notify == nil || s.paused {
		s.mu.Unlock()
		return
	}
	s.paused = true
	notify := s.notify
	s.mu.Unlock()

	notify(ElementEvent{Type: EventPaused})
}

func (s *Simulated) Seek(seconds float64) {
	s.mu.Lock()
	if s.notify == nil {
		s.mu.Unlock()
		return
	}
	s.position = max(0, min(seconds, s.duration))
	if s.position < s.duration {
		s.ended = false
	}
	pos := s.position
	notify := s.notify
	s.mu.Unlock()

	notify(ElementEvent{Type: EventTimeUpdate, Value: pos})
}

func (s *Simulated) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

func (s *Simulated) SetPlaybackRate(r float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r > 0 {
		s.rate = r
	}
}

func (s *Simulated) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *Simulated) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *Simulated) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Volume returns the last applied volume.
func (s *Simulated) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Close stops the playhead loop.
func (s *Simulated) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.seq++
}

func validateSource(src string) error {
	if src == "" {
		return errors.New("empty source")
	}
	u, err := url.Parse(src)
	if err != nil {
		return fmt.Errorf("parse source: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "file":
		return nil
	}
	return fmt.Errorf("unsupported scheme %q", u.Scheme)
}

// Verify Simulated implements Element at compile time.
var _ Element = (*Simulated)(nil)
