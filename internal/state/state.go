package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	dbutil "github.com/llehouerou/tapdeck/internal/db"
)

const (
	appName    = "tapdeck"
	dbFileName = "tapdeck.db"
)

// Manager is the durable local key-value store backed by SQLite.
type Manager struct {
	db  *sql.DB
	now func() time.Time
}

// Entry is a stored slot with its last write time.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Open opens the store at the default XDG data location.
func Open() (*Manager, error) {
	dbPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath)
}

// OpenPath opens the store at dbPath, creating parent directories.
// ":memory:" opens a private in-memory store.
func OpenPath(dbPath string) (*Manager, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := dbutil.Open(dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db, now: time.Now}, nil
}

// DefaultPath returns the XDG data file path of the store.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// Get returns the value stored under key. The boolean is false when the
// slot is empty.
func (m *Manager) Get(key string) (string, bool, error) {
	var value sql.NullString
	err := m.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	if !value.Valid {
		return "", false, nil
	}
	return dbutil.NullStringValue(value), true, nil
}

// Set writes value under key, replacing any previous value.
func (m *Manager) Set(key, value string) error {
	_, err := m.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, m.now().Unix())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Remove deletes the slot. Removing a missing key is not an error.
func (m *Manager) Remove(key string) error {
	if _, err := m.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Entries lists the stored slots whose key starts with prefix, sorted by key.
func (m *Manager) Entries(ctx context.Context, prefix string) ([]Entry, error) {
	var entries []Entry
	err := dbutil.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT key, value, updated_at FROM kv
			WHERE substr(key, 1, length(?)) = ?
			ORDER BY key
		`, prefix, prefix)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				key       string
				value     sql.NullString
				updatedAt sql.NullInt64
			)
			if err := rows.Scan(&key, &value, &updatedAt); err != nil {
				return err
			}
			entries = append(entries, Entry{
				Key:       key,
				Value:     dbutil.NullStringValue(value),
				UpdatedAt: time.Unix(dbutil.NullInt64Value(updatedAt), 0),
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list %s*: %w", prefix, err)
	}
	return entries, nil
}
