//go:build linux

// Package mpris exposes a playback controller on the session bus so desktop
// media keys and applets act as a detached control surface.
package mpris

import (
	"fmt"
	"hash/fnv"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	log "github.com/sirupsen/logrus"

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

// Adapter connects a controller to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
}

// New creates and starts a new MPRIS adapter. Transport commands are
// published on b as intents for the player's kind.
func New(player Player, b *bus.Bus) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer("tapdeck", &rootAdapter{}, &playerAdapter{player: player, bus: b}),
	}

	// Start the server in background
	go func() {
		if err := a.server.Listen(); err != nil {
			log.WithError(err).Warn("mpris server stopped")
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Tapdeck", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/mp4", "video/mp4", "application/vnd.apple.mpegurl"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and optional interfaces.
type playerAdapter struct {
	player Player
	bus    *bus.Bus
}

func (p *playerAdapter) publish(ok bool, intent string) error {
	if !ok {
		log.WithFields(log.Fields{"kind": p.player.Kind(), "intent": intent}).Debug("mpris intent dropped")
	}
	return nil
}

func (p *playerAdapter) Next() error {
	return p.publish(p.bus.Next(p.player.Kind()), "next")
}

func (p *playerAdapter) Previous() error {
	return p.publish(p.bus.Previous(p.player.Kind()), "previous")
}

func (p *playerAdapter) Pause() error {
	return p.player.Pause()
}

func (p *playerAdapter) PlayPause() error {
	return p.publish(p.bus.PlayPause(p.player.Kind()), "playPause")
}

func (p *playerAdapter) Stop() error {
	return p.player.Pause()
}

func (p *playerAdapter) Play() error {
	return p.player.Play()
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	pos := p.player.Snapshot().Playback.PositionSeconds + microsToSeconds(offset)
	return p.publish(p.bus.Seek(p.player.Kind(), max(pos, 0)), "seek")
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	return p.publish(p.bus.Seek(p.player.Kind(), microsToSeconds(position)), "seek")
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.player.Snapshot().State {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying, nil
	case playback.StateReady:
		return types.PlaybackStatusPaused, nil
	case playback.StateIdle:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return p.player.Snapshot().Playback.PlaybackRate, nil
}

func (p *playerAdapter) SetRate(rate float64) error {
	return p.player.SetPlaybackRate(rate)
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap := p.player.Snapshot()
	track := snap.Track
	if track == nil {
		return types.Metadata{}, nil
	}

	duration := snap.Playback.DurationSeconds
	if duration <= 0 {
		duration = track.DurationSeconds
	}
	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track.ID)),
		Length:  secondsToMicros(duration),
		Title:   track.Title,
	}
	if track.ArtistName != "" {
		meta.Artist = []string{track.ArtistName}
	}
	if track.ArtworkURL != "" {
		meta.ArtUrl = track.ArtworkURL
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.player.Snapshot().Playback.Volume, nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	return p.player.SetVolume(v)
}

func (p *playerAdapter) Position() (int64, error) {
	return int64(secondsToMicros(p.player.Snapshot().Playback.PositionSeconds)), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return playback.MinPlaybackRate, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return playback.MaxPlaybackRate, nil
}

// Next and Previous wrap around, so any non-empty list can move.
func (p *playerAdapter) CanGoNext() (bool, error) {
	return len(p.player.Snapshot().Tracks) > 0, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return len(p.player.Snapshot().Tracks) > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.player.Snapshot().State.IsLoaded(), nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.player.Snapshot().State.IsLoaded(), nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.player.Snapshot().Playback.RepeatMode {
	case playback.RepeatOne:
		return types.LoopStatusTrack, nil
	case playback.RepeatAll:
		return types.LoopStatusPlaylist, nil
	case playback.RepeatNone:
		return types.LoopStatusNone, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	switch status {
	case types.LoopStatusNone:
		return p.player.SetRepeatMode(playback.RepeatNone)
	case types.LoopStatusTrack:
		return p.player.SetRepeatMode(playback.RepeatOne)
	case types.LoopStatusPlaylist:
		return p.player.SetRepeatMode(playback.RepeatAll)
	}
	return nil
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.player.Snapshot().Playback.IsShuffling, nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	return p.player.SetShuffle(shuffle)
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}

func secondsToMicros(s float64) types.Microseconds {
	return types.Microseconds(s * 1e6)
}

func microsToSeconds(us types.Microseconds) float64 {
	return float64(us) / 1e6
}
