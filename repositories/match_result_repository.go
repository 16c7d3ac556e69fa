package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/spormatch/models"
)

var ErrMatchResultNotFound = errors.New("match result not found")

type MatchResultRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, result *models.MatchResult) error
	GetByEventID(ctx context.Context, eventID int) (*models.MatchResult, error)
}

type postgresMatchResultRepository struct {
	db *sql.DB
}

func NewPostgresMatchResultRepository(db *sql.DB) MatchResultRepository {
	return &postgresMatchResultRepository{db: db}
}

func (r *postgresMatchResultRepository) Upsert(ctx context.Context, exec SQLExecutor, result *models.MatchResult) error {
	query := `
		INSERT INTO match_results (event_id, score, result, details)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id)
		DO UPDATE SET score = EXCLUDED.score, result = EXCLUDED.result, details = EXCLUDED.details, recorded_at = NOW()
		RETURNING recorded_at`

	err := executor(r.db, exec).QueryRowContext(ctx, query,
		result.EventID,
		result.Score,
		result.Result,
		result.Details,
	).Scan(&result.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to save result for event %d: %w", result.EventID, err)
	}
	return nil
}

func (r *postgresMatchResultRepository) GetByEventID(ctx context.Context, eventID int) (*models.MatchResult, error) {
	query := `SELECT event_id, score, result, details, recorded_at FROM match_results WHERE event_id = $1`

	var res models.MatchResult
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(
		&res.EventID, &res.Score, &res.Result, &res.Details, &res.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchResultNotFound
		}
		return nil, err
	}
	return &res, nil
}
