// internal/playback/store.go
package playback

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/llehouerou/tapdeck/internal/playlist"
	"github.com/llehouerou/tapdeck/internal/state"
)

const (
	MinVolume       = 0.0
	MaxVolume       = 1.0
	MinPlaybackRate = 0.25
	MaxPlaybackRate = 2.0
)

// PlaybackState is the persisted player state of one media kind.
type PlaybackState struct {
	CurrentTrackID  string     `json:"current_track_id,omitempty"` // empty when no track is loaded
	CurrentIndex    int        `json:"current_index"`
	PositionSeconds float64    `json:"position_seconds"`
	DurationSeconds float64    `json:"duration_seconds"`
	IsPlaying       bool       `json:"is_playing"`
	Volume          float64    `json:"volume"`
	PlaybackRate    float64    `json:"playback_rate"`
	RepeatMode      RepeatMode `json:"repeat_mode"`
	IsShuffling     bool       `json:"is_shuffling"`
	LastUpdatedAt   time.Time  `json:"last_updated_at"`
}

// DefaultPlaybackState returns the state used when nothing valid is stored.
func DefaultPlaybackState() PlaybackState {
	return PlaybackState{
		Volume:       1,
		PlaybackRate: 1,
		RepeatMode:   RepeatNone,
	}
}

// sanitized enforces the field ranges.
func (ps PlaybackState) sanitized() PlaybackState {
	ps.CurrentIndex = max(ps.CurrentIndex, 0)
	ps.DurationSeconds = finiteNonNegative(ps.DurationSeconds)
	ps.PositionSeconds = finiteNonNegative(ps.PositionSeconds)
	if ps.DurationSeconds > 0 {
		ps.PositionSeconds = min(ps.PositionSeconds, ps.DurationSeconds)
	}
	ps.Volume = clampVolume(ps.Volume)
	ps.PlaybackRate = clampRate(ps.PlaybackRate)
	if ps.RepeatMode < RepeatNone || ps.RepeatMode > RepeatOne {
		ps.RepeatMode = RepeatNone
	}
	return ps
}

func finiteNonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func clampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return MaxVolume
	}
	return lo.Clamp(v, MinVolume, MaxVolume)
}

func clampRate(r float64) float64 {
	if math.IsNaN(r) {
		return 1
	}
	return lo.Clamp(r, MinPlaybackRate, MaxPlaybackRate)
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	CurrentTrackID  *string
	CurrentIndex    *int
	PositionSeconds *float64
	DurationSeconds *float64
	IsPlaying       *bool
	Volume          *float64
	PlaybackRate    *float64
	RepeatMode      *RepeatMode
	IsShuffling     *bool
}

func (p Patch) apply(ps PlaybackState) PlaybackState {
	if p.CurrentTrackID != nil {
		ps.CurrentTrackID = *p.CurrentTrackID
	}
	if p.CurrentIndex != nil {
		ps.CurrentIndex = *p.CurrentIndex
	}
	if p.PositionSeconds != nil {
		ps.PositionSeconds = *p.PositionSeconds
	}
	if p.DurationSeconds != nil {
		ps.DurationSeconds = *p.DurationSeconds
	}
	if p.IsPlaying != nil {
		ps.IsPlaying = *p.IsPlaying
	}
	if p.Volume != nil {
		ps.Volume = *p.Volume
	}
	if p.PlaybackRate != nil {
		ps.PlaybackRate = *p.PlaybackRate
	}
	if p.RepeatMode != nil {
		ps.RepeatMode = *p.RepeatMode
	}
	if p.IsShuffling != nil {
		ps.IsShuffling = *p.IsShuffling
	}
	return ps
}

// StorageKey returns the durable storage slot of a media kind.
func StorageKey(kind playlist.Kind) string {
	return "tapdeck_" + string(kind) + "_player_state"
}

// Store holds the PlaybackState of one media kind and writes every mutation
// through to durable storage.
type Store struct {
	kv   state.Interface
	key  string
	kind playlist.Kind
	now  func() time.Time

	mu sync.Mutex
	st PlaybackState

	// LastUpdatedAt as read from storage. Resume freshness is judged on it
	// until the first track change, so startup writes do not refresh an old
	// session.
	persistedAt time.Time
	restored    bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for LastUpdatedAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates the store for kind and loads its persisted state once.
// Missing or malformed data yields the defaults.
func NewStore(kv state.Interface, kind playlist.Kind, opts ...StoreOption) *Store {
	s := &Store{
		kv:   kv,
		key:  StorageKey(kind),
		kind: kind,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.st, s.restored = s.load()
	s.persistedAt = s.st.LastUpdatedAt
	return s
}

func (s *Store) load() (PlaybackState, bool) {
	logger := log.WithFields(log.Fields{"kind": s.kind, "key": s.key})

	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		logger.WithError(err).Warn("read persisted player state")
		return DefaultPlaybackState(), false
	}
	if !ok {
		return DefaultPlaybackState(), false
	}

	// Decoding into the defaults fills fields missing from older payloads.
	ps := DefaultPlaybackState()
	if err := json.Unmarshal([]byte(raw), &ps); err != nil {
		logger.WithError(err).Warn("discarding malformed player state")
		return DefaultPlaybackState(), false
	}
	return ps.sanitized(), true
}

// State returns a copy of the current state.
func (s *Store) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// Update merges p into the state, stamps LastUpdatedAt and persists.
func (s *Store) Update(p Patch) PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = p.apply(s.st).sanitized()
	s.st.LastUpdatedAt = s.now()
	s.persistLocked()
	return s.st
}

// SetCurrentTrack points the state at track and rewinds the position.
// A nil track clears the current track.
func (s *Store) SetCurrentTrack(track *playlist.Track, index int) PlaybackState {
	p := Patch{
		CurrentIndex:    lo.ToPtr(index),
		PositionSeconds: lo.ToPtr(0.0),
		DurationSeconds: lo.ToPtr(0.0),
		CurrentTrackID:  lo.ToPtr(""),
	}
	if track != nil {
		p.CurrentTrackID = lo.ToPtr(track.ID)
		p.DurationSeconds = lo.ToPtr(track.DurationSeconds)
	}
	s.mu.Lock()
	s.restored = false
	s.mu.Unlock()
	return s.Update(p)
}

// Clear resets to defaults and removes the persisted copy.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = DefaultPlaybackState()
	s.restored = false
	if err := s.kv.Remove(s.key); err != nil {
		log.WithError(err).WithField("key", s.key).Warn("remove persisted player state")
	}
}

// ResumePosition returns the position to resume trackID from. Resume applies
// only to the same unfinished track past minPosition seconds, and only when the
// state was last updated less than window ago. Before the first track change
// that is the time read from storage.
func (s *Store) ResumePosition(trackID string, minPosition float64, window time.Duration) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trackID == "" || s.st.CurrentTrackID != trackID {
		return 0, false
	}
	if s.st.PositionSeconds <= minPosition {
		return 0, false
	}
	// A finished track starts over.
	if s.st.DurationSeconds > 0 && s.st.PositionSeconds >= s.st.DurationSeconds {
		return 0, false
	}
	updated := s.st.LastUpdatedAt
	if s.restored {
		updated = s.persistedAt
	}
	if updated.IsZero() || s.now().Sub(updated) >= window {
		return 0, false
	}
	return s.st.PositionSeconds, true
}

func (s *Store) persistLocked() {
	data, err := json.Marshal(s.st)
	if err != nil {
		log.WithError(err).WithField("key", s.key).Error("encode player state")
		return
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		log.WithError(err).WithField("key", s.key).Warn("persist player state")
	}
}
