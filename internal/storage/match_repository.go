package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/kingdomhq/kingdom-server-go/internal/gamelog"
)

// MatchRecord is a finished match as persisted.
type MatchRecord struct {
	MatchID    string
	Players    []string
	Turns      int
	FinishedAt time.Time
}

// MatchRepository persists finished matches and their game logs.
type MatchRepository struct {
	db *DB
}

// NewMatchRepository creates a repository over the given database.
func NewMatchRepository(db *DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// SaveMatch records a finished match together with its transcript in one
// transaction.
func (r *MatchRepository) SaveMatch(ctx context.Context, record MatchRecord, transcript []gamelog.Entry) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO matches (match_id, players, turns, finished_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (match_id) DO NOTHING`,
		record.MatchID, record.Players, record.Turns, record.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: insert match: %w", err)
	}

	for i, entry := range transcript {
		_, err = tx.Exec(ctx,
			`INSERT INTO match_log (match_id, seq, player_id, kind, message, root, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			record.MatchID, i, entry.Player, entry.Kind, entry.Message, entry.Root, entry.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("storage: insert log entry %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// LoadMatch fetches a persisted match record by id.
func (r *MatchRepository) LoadMatch(ctx context.Context, matchID string) (MatchRecord, error) {
	var record MatchRecord
	err := r.db.pool.QueryRow(ctx,
		`SELECT match_id, players, turns, finished_at FROM matches WHERE match_id = $1`,
		matchID,
	).Scan(&record.MatchID, &record.Players, &record.Turns, &record.FinishedAt)
	if err != nil {
		return MatchRecord{}, fmt.Errorf("storage: load match %s: %w", matchID, err)
	}
	return record, nil
}
