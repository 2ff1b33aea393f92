//go:build !linux

package mpris

import (
	"github.com/llehouerou/tapdeck/internal/bus"
	"github.com/llehouerou/tapdeck/internal/playback"
	"github.com/llehouerou/tapdeck/internal/playlist"
)

// Player is the controller surface the adapter reads and drives.
type Player interface {
	Kind() playlist.Kind
	Snapshot() playback.Snapshot
	Play() error
	Pause() error
	SetRepeatMode(mode playback.RepeatMode) error
	SetShuffle(enabled bool) error
	SetVolume(v float64) error
	SetPlaybackRate(r float64) error
}

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ Player, _ *bus.Bus) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
