// internal/playback/state.go
package playback

import "fmt"

// State represents the controller's playback state.
//
// State diagram:
//
//	        Load
//	Idle ─────────► Ready ◄──Pause/Ended──┐
//	                  │                   │
//	                  └───────Play──────► Playing
//
// Ended is transient: on end-of-media the controller passes through Ready
// and immediately applies the repeat policy.
type State int

const (
	StateIdle State = iota
	StateReady
	StatePlaying
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateReady:
		return "Ready"
	case StatePlaying:
		return "Playing"
	default:
		return "Unknown"
	}
}

// IsLoaded returns true if a track is loaded (ready or playing).
func (s State) IsLoaded() bool {
	return s == StateReady || s == StatePlaying
}

// RepeatMode defines the end-of-track behavior.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows m in the none → all → one cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// ParseRepeatMode converts "none", "all" or "one" to a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "none", "off":
		return RepeatNone, nil
	case "all":
		return RepeatAll, nil
	case "one":
		return RepeatOne, nil
	}
	return RepeatNone, fmt.Errorf("unknown repeat mode %q", s)
}

// MarshalText encodes the mode by name.
func (m RepeatMode) MarshalText() ([]byte, error) {
	if m < RepeatNone || m > RepeatOne {
		return nil, fmt.Errorf("invalid repeat mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *RepeatMode) UnmarshalText(text []byte) error {
	mode, err := ParseRepeatMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
