// internal/media/element.go
package media

import "errors"

var (
	// ErrUnplayableSource reports a source that can be neither played
	// natively nor by the streaming fallback engine. It is terminal for the
	// current load.
	ErrUnplayableSource = errors.New("source cannot be played")

	// ErrNoSource is returned by element operations issued before any load.
	ErrNoSource = errors.New("no source loaded")
)

// EventType identifies a notification raised by a media element.
type EventType int

const (
	EventLoadedMetadata EventType = iota // Value holds the duration in seconds
	EventTimeUpdate                      // Value holds the position in seconds
	EventPlayed
	EventPaused
	EventEnded
	EventError // Err holds the cause
)

func (t EventType) String() string {
	switch t {
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventTimeUpdate:
		return "timeupdate"
	case EventPlayed:
		return "play"
	case EventPaused:
		return "pause"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	}
	return "unknown"
}

// ElementEvent is a raw notification from an Element.
type ElementEvent struct {
	Type  EventType
	Value float64
	Err   error
}

// Notify receives element notifications. Elements must not hold internal
// locks while calling it.
type Notify func(ElementEvent)

// Element is the native playable handle the adapter drives.
// Implementations must be safe for concurrent use.
type Element interface {
	// CanPlayNative reports whether src can be loaded directly, including
	// HLS manifests on platforms with built-in support.
	CanPlayNative(src string) bool
	// Load replaces the current source with src.
	Load(src string, notify Notify) error
	// Attach replaces the current source with a stream produced by the
	// fallback engine.
	Attach(stream *Stream, notify Notify) error
	Play() error
	Pause()
	Seek(seconds float64)
	SetVolume(v float64)
	SetPlaybackRate(r float64)
	CurrentTime() float64
	Duration() float64
	Paused() bool
}
