package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/shared"
)

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("session not found")

var _ models.Repository[*models.Session] = (*SessionRepository)(nil)

// SessionRepository implements models.Repository[*models.Session].
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session, generating its id when empty.
func (r *SessionRepository) Create(session *models.Session) error {
	if session.SessionID == "" {
		session.SessionID = shared.GenerateID()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}

	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sessions (id, catalog_size, manifest, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		session.SessionID,
		session.CatalogSize,
		session.Manifest,
		session.StartedAt,
		nullTime(session.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by id.
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := `
		SELECT id, catalog_size, manifest, started_at, ended_at
		FROM sessions
		WHERE id = ?
	`

	session, err := scanSession(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, err
}

// Update writes the manifest and end time.
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE sessions
		SET catalog_size = ?, manifest = ?, ended_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, session.CatalogSize, session.Manifest, nullTime(session.EndedAt), session.SessionID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return expectRow(result, session.SessionID)
}

// End stamps the session's end time.
func (r *SessionRepository) End(id string, at time.Time) error {
	result, err := r.db.Exec("UPDATE sessions SET ended_at = ? WHERE id = ?", at, id)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return expectRow(result, id)
}

// Delete removes a session and, through the foreign keys, its events and preload results.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return expectRow(result, id)
}

// List returns sessions newest first. Supported criteria: "limit" (int) and "open" (bool,
// only sessions without an end time).
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := `
		SELECT id, catalog_size, manifest, started_at, ended_at
		FROM sessions
	`

	args := []any{}

	if open, ok := criteria["open"].(bool); ok && open {
		query += " WHERE ended_at IS NULL"
	}

	query += " ORDER BY started_at DESC, id ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		session  models.Session
		manifest sql.NullString
		endedAt  sql.NullTime
	)

	if err := row.Scan(&session.SessionID, &session.CatalogSize, &manifest, &session.StartedAt, &endedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	session.Manifest = manifest.String
	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}
	return &session, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}
