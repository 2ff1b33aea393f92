package app

import (
	"github.com/llehouerou/tapdeck/internal/playlist"
)

// TracksLoadedMsg carries a fetched track list.
type TracksLoadedMsg struct {
	Kind   playlist.Kind
	Tracks []playlist.Track
	Err    error
}

// OrderSavedMsg is sent after a drag-reorder was persisted.
type OrderSavedMsg struct {
	Kind   playlist.Kind
	Tracks []playlist.Track
	OK     bool
}

// OrderClearedMsg is sent after the saved order of a kind was reset.
type OrderClearedMsg struct {
	Kind playlist.Kind
	OK   bool
}

// PlayerEventMsg wraps one controller event.
type PlayerEventMsg struct {
	Kind  playlist.Kind
	Event any
}

// PlayerClosedMsg is sent when a controller subscription ends.
type PlayerClosedMsg struct {
	Kind playlist.Kind
}

// NoticeTimeoutMsg clears the status notice. Version ignores stale timeouts
// when a newer notice replaced the one that scheduled it.
type NoticeTimeoutMsg struct {
	Version int
}

// NotifiedMsg carries the ID of the desktop notification shown for Kind.
type NotifiedMsg struct {
	Kind playlist.Kind
	ID   uint32
}
