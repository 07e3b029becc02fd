package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/kiyi/internal/models"
)

// PreloadRepository stores preload outcomes.
type PreloadRepository struct {
	db *sql.DB
}

// NewPreloadRepository creates a new PreloadRepository with the given database connection
func NewPreloadRepository(db *sql.DB) *PreloadRepository {
	return &PreloadRepository{db: db}
}

// RecordPreload inserts one outcome.
func (r *PreloadRepository) RecordPreload(ctx context.Context, rec models.PreloadRecord) error {
	if rec.SessionID == "" {
		return fmt.Errorf("validation failed: session id is required")
	}

	query := `
		INSERT INTO preload_results (session_id, track_index, outcome, elapsed_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.SessionID,
		rec.TrackIndex,
		string(rec.Outcome),
		rec.Elapsed.Milliseconds(),
		rec.Error,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert preload result: %w", err)
	}
	return nil
}

// List returns a session's outcomes in track order.
func (r *PreloadRepository) List(ctx context.Context, sessionID string) ([]models.PreloadRecord, error) {
	query := `
		SELECT session_id, track_index, outcome, elapsed_ms, error
		FROM preload_results
		WHERE session_id = ?
		ORDER BY track_index ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query preload results: %w", err)
	}
	defer rows.Close()

	var records []models.PreloadRecord
	for rows.Next() {
		var (
			rec     models.PreloadRecord
			outcome string
			elapsed int64
			errText sql.NullString
		)
		if err := rows.Scan(&rec.SessionID, &rec.TrackIndex, &outcome, &elapsed, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan preload result: %w", err)
		}
		rec.Outcome = models.PreloadOutcome(outcome)
		rec.Elapsed = time.Duration(elapsed) * time.Millisecond
		rec.Error = errText.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}
