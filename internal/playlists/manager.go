package playlists

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/llehouerou/tapdeck/internal/playlist"
	"github.com/llehouerou/tapdeck/internal/state"
)

// Tier names used in logs and metrics.
const (
	TierRemote = "remote"
	TierLocal  = "local"
)

// Remote is the primary tier: one order record per user.
type Remote interface {
	// GetPlaylistOrder returns nil without error when the user has no record.
	GetPlaylistOrder(ctx context.Context, userID string) (*Record, error)
	UpsertPlaylistOrder(ctx context.Context, userID string, kind playlist.Kind, ids []string) error
}

// Observer is told about tier downgrades and save outcomes.
type Observer interface {
	OrderDowngraded()
	OrderSaved(tier string, ok bool)
}

// StorageKey returns the local tier key of a media kind.
func StorageKey(kind playlist.Kind) string {
	return "tapdeck_" + string(kind) + "_playlist_order"
}

// Manager persists custom track orders in two tiers. Any remote failure
// switches the session to the local tier. By default the switch is
// permanent; WithPrimaryRetry lets the remote tier be tried again later.
type Manager struct {
	remote   Remote
	kv       state.Interface
	userID   string
	retry    time.Duration
	observer Observer
	now      func() time.Time

	mu           sync.Mutex
	useLocal     bool
	downgradedAt time.Time
	orders       map[playlist.Kind][]string
}

// Option configures a Manager.
type Option func(*Manager)

// WithPrimaryRetry re-attempts the remote tier once interval has elapsed
// since the last downgrade.
func WithPrimaryRetry(interval time.Duration) Option {
	return func(m *Manager) {
		m.retry = interval
	}
}

// WithObserver reports downgrades and saves to o.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

// WithClock overrides the time source used for the retry interval.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a manager for userID. A nil remote runs on the local
// tier only. An empty userID disables saving.
func NewManager(remote Remote, kv state.Interface, userID string, opts ...Option) *Manager {
	m := &Manager{
		remote:   remote,
		kv:       kv,
		userID:   userID,
		now:      time.Now,
		useLocal: remote == nil,
		orders:   make(map[playlist.Kind][]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// UsingLocal reports whether the manager is on the local tier.
func (m *Manager) UsingLocal() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.localLocked()
}

// localLocked reports whether to use the local tier, lifting an expired
// downgrade when a retry interval is configured.
func (m *Manager) localLocked() bool {
	if !m.useLocal || m.remote == nil {
		return m.useLocal
	}
	if m.retry > 0 && !m.downgradedAt.IsZero() && m.now().Sub(m.downgradedAt) >= m.retry {
		log.WithField("after", m.retry).Info("retrying remote playlist order tier")
		m.useLocal = false
		m.downgradedAt = time.Time{}
	}
	return m.useLocal
}

func (m *Manager) downgradeLocked(op string, err error) {
	log.WithError(err).WithFields(log.Fields{
		"op":   op,
		"tier": TierRemote,
	}).Warn("playlist order remote tier failed, using local storage")
	m.useLocal = true
	m.downgradedAt = m.now()
	if m.observer != nil {
		m.observer.OrderDowngraded()
	}
}

// Load reads both orders at session start. Without a user the orders are
// empty. A remote read that finds no record falls back to the local copies.
func (m *Manager) Load(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders = make(map[playlist.Kind][]string)
	if m.userID == "" {
		return
	}

	if !m.localLocked() {
		rec, err := m.remote.GetPlaylistOrder(ctx, m.userID)
		switch {
		case err != nil:
			m.downgradeLocked("load", err)
		case rec != nil:
			for _, kind := range playlist.Kinds {
				m.orders[kind] = rec.Order(kind)
			}
			return
		}
	}

	for _, kind := range playlist.Kinds {
		m.orders[kind] = m.readLocal(kind)
	}
}

// Order returns the saved order of kind, empty for the natural order.
func (m *Manager) Order(kind playlist.Kind) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.orders[kind]...)
}

// Apply arranges tracks by the saved order of kind.
func (m *Manager) Apply(tracks []playlist.Track, kind playlist.Kind) []playlist.Track {
	return ApplyTrackOrder(tracks, m.Order(kind))
}

// Save replaces the order of kind. It reports whether a tier accepted it.
// The in-memory order is updated even when both tiers fail.
func (m *Manager) Save(ctx context.Context, kind playlist.Kind, ids []string) bool {
	if m.userID == "" {
		log.WithField("kind", kind).Debug("no user, playlist order not saved")
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids = append([]string{}, ids...)
	m.orders[kind] = ids

	if !m.localLocked() {
		err := m.remote.UpsertPlaylistOrder(ctx, m.userID, kind, ids)
		if err == nil {
			m.saved(TierRemote, true)
			return true
		}
		m.saved(TierRemote, false)
		m.downgradeLocked("save", err)
	}
	return m.writeLocal(kind, ids)
}

// Clear resets kind to the natural order.
func (m *Manager) Clear(ctx context.Context, kind playlist.Kind) bool {
	return m.Save(ctx, kind, nil)
}

// Reorder moves the track at from to position to and saves the new order.
// It returns the reordered tracks and whether the order was persisted.
func (m *Manager) Reorder(ctx context.Context, kind playlist.Kind, tracks []playlist.Track, from, to int) ([]playlist.Track, bool) {
	list := playlist.NewPlaylist(tracks...)
	if !list.Move(from, to) {
		return tracks, false
	}
	return list.Tracks(), m.Save(ctx, kind, list.IDs())
}

func (m *Manager) readLocal(kind playlist.Kind) []string {
	key := StorageKey(kind)
	raw, ok, err := m.kv.Get(key)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("read local playlist order")
		return nil
	}
	if !ok {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.WithError(err).WithField("key", key).Warn("discarding malformed playlist order")
		return nil
	}
	return ids
}

func (m *Manager) writeLocal(kind playlist.Kind, ids []string) bool {
	key := StorageKey(kind)
	data, err := json.Marshal(ids)
	if err == nil {
		err = m.kv.Set(key, string(data))
	}
	if err != nil {
		log.WithError(err).WithField("key", key).Error("save local playlist order")
		m.saved(TierLocal, false)
		return false
	}
	m.saved(TierLocal, true)
	return true
}

func (m *Manager) saved(tier string, ok bool) {
	if m.observer != nil {
		m.observer.OrderSaved(tier, ok)
	}
}
