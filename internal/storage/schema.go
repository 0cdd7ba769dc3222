package storage

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"cloud-architect-sim/internal/errors"
	"cloud-architect-sim/internal/logging"
)

// Schema version tracking
const currentSchemaVersion = 1

var schemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS progress (
		player       TEXT PRIMARY KEY,
		total_score  INTEGER NOT NULL DEFAULT 0,
		highest_rank TEXT NOT NULL DEFAULT 'Bronze',
		updated_at   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS unlocked_levels (
		player   TEXT NOT NULL REFERENCES progress(player) ON DELETE CASCADE,
		level_id INTEGER NOT NULL,
		PRIMARY KEY (player, level_id)
	)`,
	`CREATE TABLE IF NOT EXISTS completed_levels (
		player     TEXT NOT NULL REFERENCES progress(player) ON DELETE CASCADE,
		level_id   INTEGER NOT NULL,
		best_score INTEGER NOT NULL,
		PRIMARY KEY (player, level_id)
	)`,
}

// migrate creates the schema on a new database and records its version
func (db *DB) migrate(ctx context.Context) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
			return errors.Storage("creating schema_version table", err)
		}

		var version int
		err := tx.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version)
		switch {
		case err == sql.ErrNoRows:
			version = 0
		case err != nil:
			return errors.Storage("reading schema version", err)
		}

		if version > currentSchemaVersion {
			return errors.Newf(errors.TypeStorage,
				"database schema version %d is newer than supported version %d", version, currentSchemaVersion)
		}
		if version == currentSchemaVersion {
			return nil
		}

		for _, stmt := range schemaV1 {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return errors.Storage("creating schema", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version`); err != nil {
			return errors.Storage("updating schema version", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion); err != nil {
			return errors.Storage("updating schema version", err)
		}

		logging.Info("progress database schema initialized", zap.Int("version", currentSchemaVersion))
		return nil
	})
}

// SchemaVersion returns the recorded schema version
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := db.conn.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version); err != nil {
		return 0, errors.Storage("reading schema version", err)
	}
	return version, nil
}
