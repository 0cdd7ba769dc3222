package storage

import (
	"context"
	"database/sql"
	"time"

	"cloud-architect-sim/core/session"
	"cloud-architect-sim/internal/errors"
)

// ProgressStore implements session.Store on top of the database
type ProgressStore struct {
	db *DB
}

var _ session.Store = (*ProgressStore)(nil)

// NewProgressStore creates a progress store
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Load returns the stored progress of player, or a fresh profile
func (s *ProgressStore) Load(ctx context.Context, player string) (*session.Progress, error) {
	p := session.NewProgress(player)

	var rank string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT total_score, highest_rank FROM progress WHERE player = ?`, player).
		Scan(&p.TotalScore, &rank)
	if err == sql.ErrNoRows {
		return p, nil
	}
	if err != nil {
		return nil, errors.Storage("loading progress", err).WithContext("player", player)
	}
	p.HighestRank = session.ParseRank(rank)

	// rows are drained one query at a time: the pool holds a single connection
	err = s.scanLevels(ctx, `SELECT level_id, 0 FROM unlocked_levels WHERE player = ?`, player,
		func(id, _ int) { p.Unlocked[id] = true })
	if err != nil {
		return nil, err
	}
	err = s.scanLevels(ctx, `SELECT level_id, best_score FROM completed_levels WHERE player = ?`, player,
		func(id, score int) { p.Completed[id] = score })
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (s *ProgressStore) scanLevels(ctx context.Context, query, player string, fn func(id, value int)) error {
	rows, err := s.db.conn.QueryContext(ctx, query, player)
	if err != nil {
		return errors.Storage("loading levels", err).WithContext("player", player)
	}
	defer rows.Close()

	for rows.Next() {
		var id, value int
		if err := rows.Scan(&id, &value); err != nil {
			return errors.Storage("scanning level", err)
		}
		fn(id, value)
	}
	if err := rows.Err(); err != nil {
		return errors.Storage("loading levels", err)
	}
	return nil
}

// Save replaces the stored progress of player
func (s *ProgressStore) Save(ctx context.Context, player string, p *session.Progress) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO progress (player, total_score, highest_rank, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(player) DO UPDATE SET
				total_score = excluded.total_score,
				highest_rank = excluded.highest_rank,
				updated_at = excluded.updated_at`,
			player, p.TotalScore, string(p.HighestRank), time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return errors.Storage("saving progress", err).WithContext("player", player)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM unlocked_levels WHERE player = ?`, player); err != nil {
			return errors.Storage("clearing unlocked levels", err)
		}
		for _, id := range p.UnlockedLevels() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO unlocked_levels (player, level_id) VALUES (?, ?)`, player, id); err != nil {
				return errors.Storage("saving unlocked level", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM completed_levels WHERE player = ?`, player); err != nil {
			return errors.Storage("clearing completed levels", err)
		}
		for _, id := range p.CompletedLevels() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO completed_levels (player, level_id, best_score) VALUES (?, ?, ?)`,
				player, id, p.Completed[id]); err != nil {
				return errors.Storage("saving completed level", err)
			}
		}
		return nil
	})
}

// Players lists the stored player names, sorted
func (s *ProgressStore) Players(ctx context.Context) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT player FROM progress ORDER BY player`)
	if err != nil {
		return nil, errors.Storage("listing players", err)
	}
	defer rows.Close()

	var players []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Storage("scanning player", err)
		}
		players = append(players, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("listing players", err)
	}
	return players, nil
}
