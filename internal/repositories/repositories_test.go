package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := &models.Session{CatalogSize: 11, Manifest: "manifest.json"}

		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if session.ID() == "" {
			t.Error("session ID should be set after creation")
		}
		if session.StartedAt.IsZero() {
			t.Error("start time should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := &models.Session{CatalogSize: 11, Manifest: "manifest.json"}
		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		retrieved, err := repo.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if retrieved.CatalogSize != 11 || retrieved.Manifest != "manifest.json" {
			t.Errorf("unexpected session %+v", retrieved)
		}
		if retrieved.EndedAt != nil {
			t.Error("new session should be open")
		}
	})

	t.Run("End", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := &models.Session{CatalogSize: 3}
		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		if err := repo.End(session.ID(), time.Now()); err != nil {
			t.Fatalf("failed to end session: %v", err)
		}

		retrieved, err := repo.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if retrieved.EndedAt == nil {
			t.Error("session should have an end time")
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := &models.Session{CatalogSize: 3}
		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		session.Manifest = "http://127.0.0.1:3000/manifest.json"
		if err := repo.Update(session); err != nil {
			t.Fatalf("failed to update session: %v", err)
		}

		retrieved, _ := repo.Get(session.ID())
		if retrieved.Manifest != session.Manifest {
			t.Errorf("expected manifest %q, got %q", session.Manifest, retrieved.Manifest)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		for i := range 3 {
			s := &models.Session{CatalogSize: 11, StartedAt: base.Add(time.Duration(i) * time.Hour)}
			if err := repo.Create(s); err != nil {
				t.Fatalf("failed to create session: %v", err)
			}
			if i == 0 {
				repo.End(s.ID(), base.Add(time.Minute))
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 sessions, got %d", len(all))
		}
		if !all[0].StartedAt.After(all[2].StartedAt) {
			t.Error("sessions should be newest first")
		}

		open, _ := repo.List(map[string]any{"open": true})
		if len(open) != 2 {
			t.Errorf("expected 2 open sessions, got %d", len(open))
		}

		limited, _ := repo.List(map[string]any{"limit": 1})
		if len(limited) != 1 {
			t.Errorf("expected 1 session, got %d", len(limited))
		}
	})

	t.Run("Delete cascades", func(t *testing.T) {
		db := setupTestDB(t)
		j := NewJournal(db)
		s, err := j.Open(11, "")
		if err != nil {
			t.Fatalf("failed to open session: %v", err)
		}
		j.RecordEvent(context.Background(), models.SessionEvent{SessionID: s.ID(), Kind: models.EventBegin})

		if err := j.Sessions.Delete(s.ID()); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}

		events, err := j.Events.List(context.Background(), s.ID())
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}
		if len(events) != 0 {
			t.Errorf("expected events to be removed, got %d", len(events))
		}
	})
}

func TestSessionRepositoryErrors(t *testing.T) {
	t.Run("ValidationError", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Create(&models.Session{}); err == nil {
			t.Fatal("expected validation error for empty catalog")
		}
	})

	t.Run("DuplicateID", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Create(&models.Session{SessionID: "s1", CatalogSize: 1}); err != nil {
			t.Fatalf("failed to create first session: %v", err)
		}
		if err := repo.Create(&models.Session{SessionID: "s1", CatalogSize: 1}); err == nil {
			t.Fatal("expected error when creating session with duplicate id")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		if _, err := repo.Get("nonexistent-id"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound from Get, got %v", err)
		}
		if err := repo.End("nonexistent-id", time.Now()); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound from End, got %v", err)
		}
		if err := repo.Delete("nonexistent-id"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound from Delete, got %v", err)
		}
		if err := repo.Update(&models.Session{SessionID: "nonexistent-id", CatalogSize: 1}); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound from Update, got %v", err)
		}
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSessionRepository(db)
		db.Close()

		if err := repo.Create(&models.Session{CatalogSize: 1}); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.List(map[string]any{}); err == nil {
			t.Error("expected error on closed database")
		}
	})
}

func TestEventRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Append assigns per-session sequence", func(t *testing.T) {
		j := NewJournal(setupTestDB(t))
		a, _ := j.Open(11, "")
		b, _ := j.Open(11, "")

		kinds := []models.EventKind{models.EventAutoplayDeclined, models.EventBegin, models.EventTransition}
		for _, kind := range kinds {
			ev := &models.SessionEvent{SessionID: a.ID(), Kind: kind, TrackIndex: 1}
			if err := j.Events.Append(ctx, ev); err != nil {
				t.Fatalf("failed to append event: %v", err)
			}
		}
		other := &models.SessionEvent{SessionID: b.ID(), Kind: models.EventBegin}
		if err := j.Events.Append(ctx, other); err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
		if other.Sequence != 1 {
			t.Errorf("sequence should restart per session, got %d", other.Sequence)
		}

		events, err := j.Events.List(ctx, a.ID())
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		for i, ev := range events {
			if ev.Sequence != i+1 || ev.Kind != kinds[i] {
				t.Errorf("event %d: unexpected %+v", i, ev)
			}
		}
	})

	t.Run("CountByKind", func(t *testing.T) {
		j := NewJournal(setupTestDB(t))
		s, _ := j.Open(11, "")
		for _, kind := range []models.EventKind{models.EventTransition, models.EventTransition, models.EventPlay} {
			j.RecordEvent(ctx, models.SessionEvent{SessionID: s.ID(), Kind: kind})
		}

		counts, err := j.Events.CountByKind(ctx, s.ID())
		if err != nil {
			t.Fatalf("failed to count events: %v", err)
		}
		if counts[models.EventTransition] != 2 || counts[models.EventPlay] != 1 {
			t.Errorf("unexpected counts %v", counts)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		j := NewJournal(setupTestDB(t))

		if err := j.Events.Append(ctx, &models.SessionEvent{Kind: models.EventPlay}); err == nil {
			t.Error("expected validation error for missing session")
		}
		if err := j.RecordEvent(ctx, models.SessionEvent{SessionID: "missing", Kind: models.EventPlay}); err == nil {
			t.Error("expected foreign key error for unknown session")
		}
	})
}

func TestPreloadRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("RecordPreload", func(t *testing.T) {
		j := NewJournal(setupTestDB(t))
		s, _ := j.Open(11, "")

		recs := []models.PreloadRecord{
			{SessionID: s.ID(), TrackIndex: 4, Outcome: models.OutcomeFailed, Error: "404"},
			{SessionID: s.ID(), TrackIndex: 1, Outcome: models.OutcomeLoaded, Elapsed: 1500 * time.Millisecond},
			{SessionID: s.ID(), TrackIndex: 2, Outcome: models.OutcomeTimedOut, Elapsed: 20 * time.Second},
		}
		for _, rec := range recs {
			if err := j.RecordPreload(ctx, rec); err != nil {
				t.Fatalf("failed to record preload: %v", err)
			}
		}

		got, err := j.Preloads.List(ctx, s.ID())
		if err != nil {
			t.Fatalf("failed to list preloads: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 records, got %d", len(got))
		}
		if got[0].TrackIndex != 1 || got[0].Elapsed != 1500*time.Millisecond {
			t.Errorf("unexpected first record %+v", got[0])
		}
		if got[2].Outcome != models.OutcomeFailed || got[2].Error != "404" {
			t.Errorf("unexpected last record %+v", got[2])
		}
	})

	t.Run("InvalidOutcome", func(t *testing.T) {
		j := NewJournal(setupTestDB(t))
		s, _ := j.Open(11, "")

		if err := j.RecordPreload(ctx, models.PreloadRecord{SessionID: s.ID(), TrackIndex: 1, Outcome: "skipped"}); err == nil {
			t.Error("expected check constraint error")
		}
		if err := j.RecordPreload(ctx, models.PreloadRecord{TrackIndex: 1, Outcome: models.OutcomeLoaded}); err == nil {
			t.Error("expected validation error")
		}
	})
}

func TestJournalClose(t *testing.T) {
	j := NewJournal(setupTestDB(t))
	s, err := j.Open(11, "manifest.json")
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}

	if err := j.Close(s.ID()); err != nil {
		t.Fatalf("failed to close session: %v", err)
	}
	got, _ := j.Sessions.Get(s.ID())
	if got.EndedAt == nil {
		t.Error("closed session should have an end time")
	}
}
