package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jayclim/CR-Data/internal/domain"
)

var ErrNotFound = errors.New("snapshot not found")

type SnapshotRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSnapshotRepository(sqlDB *sql.DB, logger zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{db: sqlDB, logger: logger}
}

func (r *SnapshotRepository) Save(ctx context.Context, s *domain.Snapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, run_id, created_at, total_players, total_decks, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.RunID, s.CreatedAt.UTC(), s.TotalPlayers, s.TotalDecks, s.Payload,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("snapshot_id", s.ID).Msg("failed to save snapshot")
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) Latest(ctx context.Context) (*domain.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, run_id, created_at, total_players, total_decks, payload
		FROM snapshots
		ORDER BY created_at DESC, id DESC
		LIMIT 1`)

	var s domain.Snapshot
	err := row.Scan(&s.ID, &s.RunID, &s.CreatedAt, &s.TotalPlayers, &s.TotalDecks, &s.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return &s, nil
}

// List returns summaries newest first, without payloads.
func (r *SnapshotRepository) List(ctx context.Context, limit int) ([]domain.SnapshotSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, created_at, total_players, total_decks
		FROM snapshots
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	out := []domain.SnapshotSummary{}
	for rows.Next() {
		var s domain.SnapshotSummary
		if err := rows.Scan(&s.ID, &s.RunID, &s.CreatedAt, &s.TotalPlayers, &s.TotalDecks); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return out, nil
}

// Prune keeps the newest keep snapshots and returns how many were deleted.
func (r *SnapshotRepository) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	if n > 0 {
		r.logger.Debug().Int64("deleted", n).Int("kept", keep).Msg("pruned old snapshots")
	}
	return n, nil
}
