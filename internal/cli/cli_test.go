package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/llehouerou/tapdeck/internal/config"
	"github.com/llehouerou/tapdeck/internal/playback"
	"github.com/llehouerou/tapdeck/internal/playlist"
	"github.com/llehouerou/tapdeck/internal/playlists"
	"github.com/llehouerou/tapdeck/internal/state"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvBackendURL, config.EnvBackendKey, config.EnvUserID} {
		t.Setenv(key, "")
	}
	keyring.MockInit()
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func statePath(t *testing.T, seed func(kv *state.Manager)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	kv, err := state.OpenPath(path)
	require.NoError(t, err)
	if seed != nil {
		seed(kv)
	}
	require.NoError(t, kv.Close())
	return path
}

func TestStateShow(t *testing.T) {
	clearEnv(t)
	path := statePath(t, func(kv *state.Manager) {
		ps := playback.DefaultPlaybackState()
		ps.CurrentTrackID = "a2"
		ps.CurrentIndex = 1
		ps.PositionSeconds = 65
		ps.DurationSeconds = 200
		ps.Volume = 0.5
		ps.RepeatMode = playback.RepeatOne
		ps.LastUpdatedAt = time.Now().Add(-2 * time.Minute)
		data, err := json.Marshal(ps)
		require.NoError(t, err)
		require.NoError(t, kv.Set(playback.StorageKey(playlist.KindAudio), string(data)))
	})

	out, err := execute(t, "", "state", "show", "--state", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Music")
	assert.Contains(t, out, "a2 (#2)")
	assert.Contains(t, out, "1:05 / 3:20")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "repeat    one")
	assert.Contains(t, out, "minutes ago")
	assert.Contains(t, out, "Videos")
	assert.Contains(t, out, "no track")
}

func TestStateShow_UnknownKind(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "", "state", "show", "podcast", "--state", statePath(t, nil))

	assert.ErrorIs(t, err, playlist.ErrUnknownKind)
}

func TestStateClear(t *testing.T) {
	clearEnv(t)
	path := statePath(t, func(kv *state.Manager) {
		for _, kind := range playlist.Kinds {
			require.NoError(t, kv.Set(playback.StorageKey(kind), `{"current_track_id":"x"}`))
		}
	})

	out, err := execute(t, "", "state", "clear", "video", "--state", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Videos player state cleared")

	kv, err := state.OpenPath(path)
	require.NoError(t, err)
	defer kv.Close()
	_, ok, err := kv.Get(playback.StorageKey(playlist.KindVideo))
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = kv.Get(playback.StorageKey(playlist.KindAudio))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderShowAndClear_LocalTier(t *testing.T) {
	clearEnv(t)
	path := statePath(t, func(kv *state.Manager) {
		orders := playlists.NewManager(nil, kv, "fan-1")
		require.True(t, orders.Save(context.Background(), playlist.KindAudio, []string{"a3", "a1"}))
	})

	out, err := execute(t, "", "order", "show", "--state", path, "--user", "fan-1")
	require.NoError(t, err)
	assert.Contains(t, out, "tier: local")
	assert.Contains(t, out, "Music: a3, a1")
	assert.Contains(t, out, "Videos: default order")

	out, err = execute(t, "", "order", "clear", "audio", "--state", path, "--user", "fan-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Music order reset")

	out, err = execute(t, "", "order", "show", "audio", "--state", path, "--user", "fan-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Music: default order")
}

func TestOrderClear_NoUser(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "", "order", "clear", "audio", "--state", statePath(t, nil), "--user", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user")
}

func TestTracks(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/video_tracks", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"id":"v1","title":"Live Set","video_url":"https://cdn/v1/master.m3u8","duration":3725},
			{"id":"v2","title":"Backstage","video_url":"https://cdn/v2.mp4","artists":{"name":"Nova"}}
		]`)
	}))
	defer srv.Close()
	t.Setenv(config.EnvBackendURL, srv.URL)
	t.Setenv(config.EnvBackendKey, "anon-key")

	out, err := execute(t, "", "tracks", "video", "--ordered=false", "--state", statePath(t, nil))

	require.NoError(t, err)
	assert.Contains(t, out, "Videos (2)")
	assert.Contains(t, out, "Live Set")
	assert.Contains(t, out, "1:02:05")
	assert.Contains(t, out, "hls")
	assert.Contains(t, out, "Nova")
}

func TestTracks_NoBackend(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "", "tracks", "--state", statePath(t, nil))

	assert.ErrorIs(t, err, errNoBackend)
}

func TestKeySetAndDelete(t *testing.T) {
	clearEnv(t)

	out, err := execute(t, "", "key", "set", "secret-1")
	require.NoError(t, err)
	assert.Contains(t, out, "API key stored")
	key, err := config.GetAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "secret-1", key)

	_, err = execute(t, "secret-2\n", "key", "set")
	require.NoError(t, err)
	key, err = config.GetAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "secret-2", key)

	out, err = execute(t, "", "key", "delete")
	require.NoError(t, err)
	assert.Contains(t, out, "API key removed")
	_, err = config.GetAPIKey()
	assert.Error(t, err)
}

func TestKeySet_Empty(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "\n", "key", "set")

	assert.Error(t, err)
}
