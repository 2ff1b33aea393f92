package state

import (
	"context"
	"database/sql"

	dbutil "github.com/llehouerou/tapdeck/internal/db"
)

const currentSchemaVersion = 2

func initSchema(db *sql.DB) error {
	err := dbutil.WithTx(context.Background(), db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);

			CREATE TABLE IF NOT EXISTS kv (
				key TEXT PRIMARY KEY,
				value TEXT
			);
		`); err != nil {
			return err
		}

		// Set initial version if not exists
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO schema_version (version) VALUES (?)
		`, currentSchemaVersion)
		return err
	})
	if err != nil {
		return err
	}

	// Migration: add updated_at column if missing (version 1 stores lacked it)
	_, _ = db.Exec(`ALTER TABLE kv ADD COLUMN updated_at INTEGER`)

	return nil
}
