package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/kiyi/internal/models"
)

// EventRepository appends and lists session events.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new EventRepository with the given database connection
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append inserts ev with the session's next sequence number and stores that number on ev.
func (r *EventRepository) Append(ctx context.Context, ev *models.SessionEvent) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if ev.Created.IsZero() {
		ev.Created = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, ev.SessionID)
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO session_events (session_id, sequence, kind, track_index, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := tx.ExecContext(ctx, query, ev.SessionID, sequence, string(ev.Kind), ev.TrackIndex, ev.Detail, ev.Created); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event transaction: %w", err)
	}

	ev.Sequence = sequence
	return nil
}

// List returns a session's events in sequence order.
func (r *EventRepository) List(ctx context.Context, sessionID string) ([]*models.SessionEvent, error) {
	query := `
		SELECT session_id, sequence, kind, track_index, detail, created_at
		FROM session_events
		WHERE session_id = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.SessionEvent
	for rows.Next() {
		var (
			ev     models.SessionEvent
			kind   string
			track  sql.NullInt64
			detail sql.NullString
		)
		if err := rows.Scan(&ev.SessionID, &ev.Sequence, &kind, &track, &detail, &ev.Created); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Kind = models.EventKind(kind)
		ev.TrackIndex = int(track.Int64)
		ev.Detail = detail.String
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

// CountByKind tallies a session's events.
func (r *EventRepository) CountByKind(ctx context.Context, sessionID string) (map[models.EventKind]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT kind, COUNT(*) FROM session_events WHERE session_id = ? GROUP BY kind",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EventKind]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.EventKind(kind)] = n
	}
	return counts, rows.Err()
}
