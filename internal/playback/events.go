package playback

import "github.com/llehouerou/tapdeck/internal/playlist"

// StateChange is emitted when the controller state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when a different track is loaded.
//
// Emitted by Load, Next, Previous, Select, Restore and automatic advancement
// at end of track. ResumeFrom is the position restored by the resume rule,
// or 0 when the track starts from the beginning.
type TrackChange struct {
	Previous      *playlist.Track
	Current       *playlist.Track
	PreviousIndex int
	Index         int
	ResumeFrom    float64
}

// ListChange is emitted when the ordered track list is replaced.
type ListChange struct {
	Tracks []playlist.Track
	Index  int
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	RepeatMode RepeatMode
	Shuffle    bool
}

// PositionChange is emitted on seeks and time updates.
type PositionChange struct {
	Position float64
	Duration float64
}

// SleepChange is emitted on every sleep countdown step. Fired is set once,
// when the countdown reaches zero and playback is paused.
type SleepChange struct {
	Remaining int
	Fired     bool
}

// ErrorEvent is emitted when an error occurs during playback.
type ErrorEvent struct {
	Operation string // e.g., "load", "play"
	TrackID   string
	Err       error
}
