package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/desertthunder/kiyi/internal/models"
)

// Journal writes events and preload outcomes for the player and preloader.
type Journal struct {
	Sessions *SessionRepository
	Events   *EventRepository
	Preloads *PreloadRepository
}

// NewJournal creates the repositories over db.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{
		Sessions: NewSessionRepository(db),
		Events:   NewEventRepository(db),
		Preloads: NewPreloadRepository(db),
	}
}

// Open creates a session row and returns it.
func (j *Journal) Open(catalogSize int, manifest string) (*models.Session, error) {
	s := &models.Session{CatalogSize: catalogSize, Manifest: manifest}
	if err := j.Sessions.Create(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Close stamps the session's end time.
func (j *Journal) Close(sessionID string) error {
	return j.Sessions.End(sessionID, time.Now())
}

// RecordEvent appends a player event.
func (j *Journal) RecordEvent(ctx context.Context, ev models.SessionEvent) error {
	return j.Events.Append(ctx, &ev)
}

// RecordPreload stores a preload outcome.
func (j *Journal) RecordPreload(ctx context.Context, rec models.PreloadRecord) error {
	return j.Preloads.RecordPreload(ctx, rec)
}
