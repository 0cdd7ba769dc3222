// Package storage persists player progress in SQLite.
package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"cloud-architect-sim/internal/errors"
	"cloud-architect-sim/internal/logging"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// DB is a progress database
type DB struct {
	conn   *sql.DB
	dbPath string
}

// Open opens or creates the database at path and brings its schema up to date
func Open(path string) (*DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Storage("creating database directory", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Storage("opening database", err)
	}
	// one connection: writes are serialised and :memory: stays a single database
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.Storage("setting pragma", err)
		}
	}

	db := &DB{conn: conn, dbPath: path}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	logging.Debug("progress database opened", zap.String("path", path))
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database location
func (db *DB) Path() string {
	return db.dbPath
}

// WithTx executes fn within a transaction.
// If fn returns an error the transaction is rolled back.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("beginning transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Error("failed to rollback transaction",
				zap.Error(err),
				zap.NamedError("rollback_error", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("committing transaction", err)
	}
	return nil
}
