package playback

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/tapdeck/internal/playlist"
	"github.com/llehouerou/tapdeck/internal/state"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)}
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "tapdeck_audio_player_state", StorageKey(playlist.KindAudio))
	assert.Equal(t, "tapdeck_video_player_state", StorageKey(playlist.KindVideo))
}

func TestNewStore_DefaultsWhenMissing(t *testing.T) {
	s := NewStore(state.NewMock(), playlist.KindAudio)

	assert.Equal(t, DefaultPlaybackState(), s.State())
}

func TestNewStore_DefaultsWhenMalformed(t *testing.T) {
	kv := state.NewMock()
	kv.Put(StorageKey(playlist.KindAudio), "{not json")

	s := NewStore(kv, playlist.KindAudio)

	assert.Equal(t, DefaultPlaybackState(), s.State())
}

func TestNewStore_DefaultsWhenReadFails(t *testing.T) {
	kv := state.NewMock()
	kv.SetGetError(errors.New("disk gone"))

	s := NewStore(kv, playlist.KindVideo)

	assert.Equal(t, DefaultPlaybackState(), s.State())
}

func TestNewStore_SanitizesPersistedValues(t *testing.T) {
	kv := state.NewMock()
	kv.Put(StorageKey(playlist.KindAudio), `{"current_track_id":"t1","current_index":-4,`+
		`"position_seconds":500,"duration_seconds":200,"volume":7,"playback_rate":0.1,"repeat_mode":"all"}`)

	st := NewStore(kv, playlist.KindAudio).State()

	assert.Equal(t, "t1", st.CurrentTrackID)
	assert.Equal(t, 0, st.CurrentIndex)
	assert.InDelta(t, 200, st.PositionSeconds, 0.001)
	assert.InDelta(t, MaxVolume, st.Volume, 0.001)
	assert.InDelta(t, MinPlaybackRate, st.PlaybackRate, 0.001)
	assert.Equal(t, RepeatAll, st.RepeatMode)
}

func TestNewStore_OlderPayloadKeepsDefaults(t *testing.T) {
	kv := state.NewMock()
	kv.Put(StorageKey(playlist.KindAudio), `{"current_track_id":"t1"}`)

	st := NewStore(kv, playlist.KindAudio).State()

	assert.Equal(t, "t1", st.CurrentTrackID)
	assert.InDelta(t, 1, st.Volume, 0.001)
	assert.InDelta(t, 1, st.PlaybackRate, 0.001)
}

func TestStore_UpdatePersistsAndStamps(t *testing.T) {
	kv := state.NewMock()
	clock := newFakeClock()
	s := NewStore(kv, playlist.KindAudio, WithClock(clock.Now))

	st := s.Update(Patch{Volume: lo.ToPtr(0.3), IsShuffling: lo.ToPtr(true)})

	assert.InDelta(t, 0.3, st.Volume, 0.001)
	assert.True(t, st.IsShuffling)
	assert.Equal(t, clock.now, st.LastUpdatedAt)

	raw, ok := kv.Value(StorageKey(playlist.KindAudio))
	require.True(t, ok)
	var persisted PlaybackState
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.InDelta(t, 0.3, persisted.Volume, 0.001)
	assert.True(t, persisted.IsShuffling)
	assert.True(t, persisted.LastUpdatedAt.Equal(clock.now))
}

func TestStore_UpdateLeavesOtherFields(t *testing.T) {
	s := NewStore(state.NewMock(), playlist.KindAudio)
	s.Update(Patch{RepeatMode: lo.ToPtr(RepeatOne), Volume: lo.ToPtr(0.5)})

	st := s.Update(Patch{PlaybackRate: lo.ToPtr(1.5)})

	assert.Equal(t, RepeatOne, st.RepeatMode)
	assert.InDelta(t, 0.5, st.Volume, 0.001)
	assert.InDelta(t, 1.5, st.PlaybackRate, 0.001)
}

func TestStore_UpdateClamps(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		check func(t *testing.T, st PlaybackState)
	}{
		{
			name:  "volume above range",
			patch: Patch{Volume: lo.ToPtr(1.7)},
			check: func(t *testing.T, st PlaybackState) { assert.InDelta(t, 1, st.Volume, 0.001) },
		},
		{
			name:  "volume below range",
			patch: Patch{Volume: lo.ToPtr(-0.2)},
			check: func(t *testing.T, st PlaybackState) { assert.InDelta(t, 0, st.Volume, 0.001) },
		},
		{
			name:  "rate above range",
			patch: Patch{PlaybackRate: lo.ToPtr(4.0)},
			check: func(t *testing.T, st PlaybackState) { assert.InDelta(t, 2, st.PlaybackRate, 0.001) },
		},
		{
			name:  "negative position",
			patch: Patch{PositionSeconds: lo.ToPtr(-3.0)},
			check: func(t *testing.T, st PlaybackState) { assert.InDelta(t, 0, st.PositionSeconds, 0.001) },
		},
		{
			name:  "position past duration",
			patch: Patch{DurationSeconds: lo.ToPtr(100.0), PositionSeconds: lo.ToPtr(130.0)},
			check: func(t *testing.T, st PlaybackState) { assert.InDelta(t, 100, st.PositionSeconds, 0.001) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(state.NewMock(), playlist.KindAudio)
			tt.check(t, s.Update(tt.patch))
		})
	}
}

func TestStore_WriteFailureKeepsMemoryState(t *testing.T) {
	kv := state.NewMock()
	kv.SetSetError(errors.New("read-only"))
	s := NewStore(kv, playlist.KindAudio)

	st := s.Update(Patch{Volume: lo.ToPtr(0.2)})

	assert.InDelta(t, 0.2, st.Volume, 0.001)
	_, ok := kv.Value(StorageKey(playlist.KindAudio))
	assert.False(t, ok)
}

func TestStore_SetCurrentTrack(t *testing.T) {
	s := NewStore(state.NewMock(), playlist.KindAudio)
	s.Update(Patch{PositionSeconds: lo.ToPtr(50.0), DurationSeconds: lo.ToPtr(100.0)})

	st := s.SetCurrentTrack(&playlist.Track{ID: "t2", DurationSeconds: 240}, 3)

	assert.Equal(t, "t2", st.CurrentTrackID)
	assert.Equal(t, 3, st.CurrentIndex)
	assert.Zero(t, st.PositionSeconds)
	assert.InDelta(t, 240, st.DurationSeconds, 0.001)

	st = s.SetCurrentTrack(nil, 0)
	assert.Empty(t, st.CurrentTrackID)
}

func TestStore_Clear(t *testing.T) {
	kv := state.NewMock()
	s := NewStore(kv, playlist.KindVideo)
	s.Update(Patch{Volume: lo.ToPtr(0.1), CurrentTrackID: lo.ToPtr("v1")})

	s.Clear()

	assert.Equal(t, DefaultPlaybackState(), s.State())
	_, ok := kv.Value(StorageKey(playlist.KindVideo))
	assert.False(t, ok)
}

func TestStore_KindsAreIndependent(t *testing.T) {
	kv := state.NewMock()
	audio := NewStore(kv, playlist.KindAudio)
	video := NewStore(kv, playlist.KindVideo)

	audio.Update(Patch{Volume: lo.ToPtr(0.25)})

	assert.InDelta(t, 1, video.State().Volume, 0.001)
	assert.InDelta(t, 0.25, NewStore(kv, playlist.KindAudio).State().Volume, 0.001)
}

func TestStore_ResumePosition(t *testing.T) {
	const (
		minPos = DefaultResumeMinPosition
		window = DefaultResumeWindow
	)
	tests := []struct {
		name     string
		trackID  string
		position float64
		duration float64
		elapsed  time.Duration
		wantOK   bool
	}{
		{name: "same track recent", trackID: "t1", position: 95, elapsed: 5 * time.Minute, wantOK: true},
		{name: "different track", trackID: "t2", position: 95, elapsed: time.Minute},
		{name: "at threshold", trackID: "t1", position: 30, elapsed: time.Minute},
		{name: "just past threshold", trackID: "t1", position: 30.5, elapsed: time.Minute, wantOK: true},
		{name: "window elapsed", trackID: "t1", position: 95, elapsed: 30 * time.Minute},
		{name: "finished track", trackID: "t1", position: 200, duration: 200, elapsed: time.Minute},
		{name: "empty id", trackID: "", position: 95, elapsed: time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			s := NewStore(state.NewMock(), playlist.KindAudio, WithClock(clock.Now))
			s.Update(Patch{
				CurrentTrackID:  lo.ToPtr("t1"),
				DurationSeconds: lo.ToPtr(tt.duration),
				PositionSeconds: lo.ToPtr(tt.position),
			})
			clock.Advance(tt.elapsed)

			pos, ok := s.ResumePosition(tt.trackID, minPos, window)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.position, pos, 0.001)
			}
		})
	}
}

func TestStore_ResumeJudgedOnPersistedTimestamp(t *testing.T) {
	clock := newFakeClock()
	kv := state.NewMock()
	ps := DefaultPlaybackState()
	ps.CurrentTrackID = "t1"
	ps.PositionSeconds = 95
	ps.IsPlaying = true
	ps.LastUpdatedAt = clock.Now().Add(-2 * time.Hour)
	persist(t, kv, ps)

	s := NewStore(kv, playlist.KindAudio, WithClock(clock.Now))
	s.Update(Patch{IsPlaying: lo.ToPtr(false), CurrentIndex: lo.ToPtr(1)})

	assert.Equal(t, clock.Now(), s.State().LastUpdatedAt)
	_, ok := s.ResumePosition("t1", DefaultResumeMinPosition, DefaultResumeWindow)
	assert.False(t, ok, "startup writes must not make an old session fresh")

	// After a track change the live timestamp applies again.
	s.SetCurrentTrack(&playlist.Track{ID: "t1"}, 1)
	s.Update(Patch{PositionSeconds: lo.ToPtr(95.0)})
	clock.Advance(time.Minute)
	pos, ok := s.ResumePosition("t1", DefaultResumeMinPosition, DefaultResumeWindow)
	assert.True(t, ok)
	assert.InDelta(t, 95, pos, 0.001)
}

func TestStore_ResumeFromFreshPersistedState(t *testing.T) {
	clock := newFakeClock()
	kv := state.NewMock()
	ps := DefaultPlaybackState()
	ps.CurrentTrackID = "t1"
	ps.PositionSeconds = 95
	ps.LastUpdatedAt = clock.Now().Add(-5 * time.Minute)
	persist(t, kv, ps)

	s := NewStore(kv, playlist.KindAudio, WithClock(clock.Now))

	pos, ok := s.ResumePosition("t1", DefaultResumeMinPosition, DefaultResumeWindow)
	assert.True(t, ok)
	assert.InDelta(t, 95, pos, 0.001)
}

func ptrTo[T any](v T) *T {
	return &v
}
