package playlists

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/tapdeck/internal/playlist"
	"github.com/llehouerou/tapdeck/internal/state"
)

type fakeRemote struct {
	mu        sync.Mutex
	record    *Record
	getErr    error
	upsertErr error
	gets      int
	upserts   int
}

func (f *fakeRemote) GetPlaylistOrder(_ context.Context, userID string) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.record, nil
}

func (f *fakeRemote) UpsertPlaylistOrder(_ context.Context, userID string, kind playlist.Kind, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.record == nil {
		f.record = &Record{UserID: userID}
	}
	if kind == playlist.KindVideo {
		f.record.VideoOrder = ids
	} else {
		f.record.AudioOrder = ids
	}
	return nil
}

func (f *fakeRemote) setUpsertErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertErr = err
}

func (f *fakeRemote) calls() (gets, upserts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets, f.upserts
}

type countingObserver struct {
	downgrades int
	saves      map[string]int
}

func (c *countingObserver) OrderDowngraded() { c.downgrades++ }

func (c *countingObserver) OrderSaved(tier string, ok bool) {
	if c.saves == nil {
		c.saves = make(map[string]int)
	}
	if ok {
		c.saves[tier]++
	}
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "tapdeck_audio_playlist_order", StorageKey(playlist.KindAudio))
	assert.Equal(t, "tapdeck_video_playlist_order", StorageKey(playlist.KindVideo))
}

func TestManager_LoadFromRemote(t *testing.T) {
	remote := &fakeRemote{record: &Record{UserID: "u1", AudioOrder: []string{"C", "A"}, VideoOrder: []string{"V2"}}}
	m := NewManager(remote, state.NewMock(), "u1")

	m.Load(context.Background())

	assert.Equal(t, []string{"C", "A"}, m.Order(playlist.KindAudio))
	assert.Equal(t, []string{"V2"}, m.Order(playlist.KindVideo))
	assert.Equal(t, []string{"C", "A", "B"}, ids(m.Apply(tracks("A", "B", "C"), playlist.KindAudio)))
	assert.False(t, m.UsingLocal())
}

func TestManager_LoadMissingRecordUsesLocalCopy(t *testing.T) {
	kv := state.NewMock()
	kv.Put(StorageKey(playlist.KindAudio), `["B","A"]`)
	remote := &fakeRemote{}
	m := NewManager(remote, kv, "u1")

	m.Load(context.Background())

	assert.Equal(t, []string{"B", "A"}, m.Order(playlist.KindAudio))
	assert.Empty(t, m.Order(playlist.KindVideo))
	assert.False(t, m.UsingLocal())
}

func TestManager_LoadFailureDowngrades(t *testing.T) {
	kv := state.NewMock()
	kv.Put(StorageKey(playlist.KindVideo), `["V3","V1"]`)
	remote := &fakeRemote{getErr: errors.New("502 bad gateway")}
	obs := &countingObserver{}
	m := NewManager(remote, kv, "u1", WithObserver(obs))

	m.Load(context.Background())

	assert.True(t, m.UsingLocal())
	assert.Equal(t, 1, obs.downgrades)
	assert.Equal(t, []string{"V3", "V1"}, m.Order(playlist.KindVideo))
}

func TestManager_LoadWithoutUser(t *testing.T) {
	remote := &fakeRemote{record: &Record{AudioOrder: []string{"A"}}}
	m := NewManager(remote, state.NewMock(), "")

	m.Load(context.Background())

	gets, _ := remote.calls()
	assert.Zero(t, gets)
	assert.Empty(t, m.Order(playlist.KindAudio))
}

func TestManager_SaveRemote(t *testing.T) {
	kv := state.NewMock()
	remote := &fakeRemote{}
	m := NewManager(remote, kv, "u1")

	ok := m.Save(context.Background(), playlist.KindAudio, []string{"B", "A"})

	require.True(t, ok)
	assert.Equal(t, []string{"B", "A"}, remote.record.AudioOrder)
	assert.Equal(t, []string{"B", "A"}, m.Order(playlist.KindAudio))
	_, local := kv.Value(StorageKey(playlist.KindAudio))
	assert.False(t, local)
}

func TestManager_WriteFailureDowngradesPermanently(t *testing.T) {
	kv := state.NewMock()
	remote := &fakeRemote{upsertErr: errors.New("timeout")}
	obs := &countingObserver{}
	m := NewManager(remote, kv, "u1", WithObserver(obs))

	require.True(t, m.Save(context.Background(), playlist.KindAudio, []string{"C", "A", "B"}))
	_, upserts := remote.calls()
	assert.Equal(t, 1, upserts)
	assert.True(t, m.UsingLocal())

	remote.setUpsertErr(nil)
	require.True(t, m.Save(context.Background(), playlist.KindAudio, []string{"A", "C", "B"}))

	_, upserts = remote.calls()
	assert.Equal(t, 1, upserts, "remote tier must not be retried")
	raw, ok := kv.Value(StorageKey(playlist.KindAudio))
	require.True(t, ok)
	assert.JSONEq(t, `["A","C","B"]`, raw)
	assert.Equal(t, 1, obs.downgrades)
	assert.Equal(t, 2, obs.saves[TierLocal])
}

func TestManager_PrimaryRetry(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	remote := &fakeRemote{upsertErr: errors.New("timeout")}
	m := NewManager(remote, state.NewMock(), "u1", WithPrimaryRetry(5*time.Minute), WithClock(clock))

	m.Save(context.Background(), playlist.KindAudio, []string{"A"})
	require.True(t, m.UsingLocal())
	remote.setUpsertErr(nil)

	now = now.Add(4 * time.Minute)
	m.Save(context.Background(), playlist.KindAudio, []string{"B"})
	_, upserts := remote.calls()
	assert.Equal(t, 1, upserts)

	now = now.Add(2 * time.Minute)
	require.True(t, m.Save(context.Background(), playlist.KindAudio, []string{"C"}))
	_, upserts = remote.calls()
	assert.Equal(t, 2, upserts)
	assert.False(t, m.UsingLocal())
	assert.Equal(t, []string{"C"}, remote.record.AudioOrder)
}

func TestManager_BothTiersFail(t *testing.T) {
	kv := state.NewMock()
	kv.SetSetError(errors.New("quota exceeded"))
	remote := &fakeRemote{upsertErr: errors.New("offline")}
	m := NewManager(remote, kv, "u1")

	ok := m.Save(context.Background(), playlist.KindVideo, []string{"V1"})

	assert.False(t, ok)
	assert.Equal(t, []string{"V1"}, m.Order(playlist.KindVideo))
}

func TestManager_NoUserCannotSave(t *testing.T) {
	remote := &fakeRemote{}
	m := NewManager(remote, state.NewMock(), "")

	assert.False(t, m.Save(context.Background(), playlist.KindAudio, []string{"A"}))
	assert.False(t, m.Clear(context.Background(), playlist.KindAudio))
	_, upserts := remote.calls()
	assert.Zero(t, upserts)
}

func TestManager_Clear(t *testing.T) {
	remote := &fakeRemote{}
	m := NewManager(remote, state.NewMock(), "u1")
	m.Save(context.Background(), playlist.KindAudio, []string{"B", "A"})

	require.True(t, m.Clear(context.Background(), playlist.KindAudio))

	assert.Empty(t, m.Order(playlist.KindAudio))
	assert.Empty(t, remote.record.AudioOrder)
	assert.Equal(t, []string{"A", "B"}, ids(m.Apply(tracks("A", "B"), playlist.KindAudio)))
}

func TestManager_LocalOnly(t *testing.T) {
	kv := state.NewMock()
	m := NewManager(nil, kv, "u1")

	require.True(t, m.Save(context.Background(), playlist.KindAudio, []string{"B"}))

	assert.True(t, m.UsingLocal())
	raw, ok := kv.Value(StorageKey(playlist.KindAudio))
	require.True(t, ok)
	assert.JSONEq(t, `["B"]`, raw)
}

func TestManager_Reorder(t *testing.T) {
	remote := &fakeRemote{}
	m := NewManager(remote, state.NewMock(), "u1")

	got, ok := m.Reorder(context.Background(), playlist.KindAudio, tracks("A", "B", "C"), 2, 0)

	require.True(t, ok)
	assert.Equal(t, []string{"C", "A", "B"}, ids(got))
	assert.Equal(t, []string{"C", "A", "B"}, remote.record.AudioOrder)

	_, ok = m.Reorder(context.Background(), playlist.KindAudio, got, 5, 0)
	assert.False(t, ok)
}
