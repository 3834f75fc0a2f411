package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tns-project/tns-server/models"
)

// MatchStatusRepository caches the last seen status of each match so the
// scheduler can detect changes between spreadsheet polls.
type MatchStatusRepository interface {
	GetStatuses(ctx context.Context) (map[int]string, error)
	UpsertMatches(ctx context.Context, matches []models.MatchInfo, seenAt time.Time) error
	Clear(ctx context.Context) error
}

type postgresMatchStatusRepository struct {
	db *sql.DB
}

func NewPostgresMatchStatusRepository(db *sql.DB) MatchStatusRepository {
	return &postgresMatchStatusRepository{db: db}
}

func (r *postgresMatchStatusRepository) GetStatuses(ctx context.Context) (map[int]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT match_number, status FROM match_statuses`)
	if err != nil {
		return nil, fmt.Errorf("failed to get match statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[int]string)
	for rows.Next() {
		var number int
		var status string
		if err := rows.Scan(&number, &status); err != nil {
			return nil, fmt.Errorf("failed to scan match status: %w", err)
		}
		statuses[number] = status
	}
	return statuses, rows.Err()
}

func (r *postgresMatchStatusRepository) UpsertMatches(ctx context.Context, matches []models.MatchInfo, seenAt time.Time) error {
	if len(matches) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert match statuses: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO match_statuses (match_number, division, round, status, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (match_number) DO UPDATE SET
			division = EXCLUDED.division,
			round = EXCLUDED.round,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("upsert match statuses: failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, match := range matches {
		_, err := stmt.ExecContext(ctx, match.Number, match.Division, match.Round, match.Status, seenAt)
		if err != nil {
			return fmt.Errorf("upsert match statuses: failed for match %d: %w", match.Number, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert match statuses: failed to commit: %w", err)
	}
	return nil
}

func (r *postgresMatchStatusRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM match_statuses`); err != nil {
		return fmt.Errorf("failed to clear match statuses: %w", err)
	}
	return nil
}
