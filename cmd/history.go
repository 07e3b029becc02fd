package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/repositories"
	"github.com/desertthunder/kiyi/internal/shared"
	"github.com/urfave/cli/v3"
)

type sessionJSON struct {
	ID          string     `json:"id"`
	CatalogSize int        `json:"catalog_size"`
	Manifest    string     `json:"manifest"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

type eventJSON struct {
	Sequence int       `json:"sequence"`
	Kind     string    `json:"kind"`
	Track    int       `json:"track,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Created  time.Time `json:"created_at"`
}

type sessionDetailJSON struct {
	sessionJSON
	Events  []eventJSON         `json:"events"`
	Preload []preloadRecordJSON `json:"preload"`
}

type preloadRecordJSON struct {
	Track     int    `json:"track"`
	Outcome   string `json:"outcome"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

// History lists journaled sessions, or the events of one session with --session.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	db, err := shared.OpenJournalDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	journal := repositories.NewJournal(db)
	if id := cmd.String("session"); id != "" {
		return r.showSession(ctx, journal, id, cmd.Bool("json"), cmd.Bool("pretty"))
	}

	sessions, err := journal.Sessions.List(map[string]any{
		"limit": int(cmd.Int("limit")),
		"open":  cmd.Bool("open"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]sessionJSON, 0, len(sessions))
		for _, s := range sessions {
			out = append(out, toSessionJSON(s))
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	if len(sessions) == 0 {
		return r.writePlain("No sessions recorded. Enable [database] in config.toml to keep a history.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Sessions (%d)", len(sessions)))
	for _, s := range sessions {
		if err := r.writePlain("%s  %s  %s\n", s.SessionID, s.StartedAt.Local().Format(time.DateTime), sessionLength(s)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) showSession(ctx context.Context, journal *repositories.Journal, id string, asJSON, pretty bool) error {
	session, err := journal.Sessions.Get(id)
	if err != nil {
		return err
	}

	events, err := journal.Events.List(ctx, id)
	if err != nil {
		return err
	}

	preload, err := journal.Preloads.List(ctx, id)
	if err != nil {
		return err
	}

	if asJSON {
		detail := sessionDetailJSON{
			sessionJSON: toSessionJSON(session),
			Events:      make([]eventJSON, 0, len(events)),
			Preload:     make([]preloadRecordJSON, 0, len(preload)),
		}
		for _, ev := range events {
			detail.Events = append(detail.Events, eventJSON{
				Sequence: ev.Sequence,
				Kind:     string(ev.Kind),
				Track:    ev.TrackIndex,
				Detail:   ev.Detail,
				Created:  ev.Created,
			})
		}
		for _, rec := range preload {
			detail.Preload = append(detail.Preload, preloadRecordJSON{
				Track:     rec.TrackIndex,
				Outcome:   string(rec.Outcome),
				ElapsedMs: rec.Elapsed.Milliseconds(),
				Error:     rec.Error,
			})
		}
		return r.writeJSON(detail, pretty)
	}

	counts, err := journal.Events.CountByKind(ctx, id)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Session %s", session.SessionID))
	r.writePlain("Started:  %s\n", session.StartedAt.Local().Format(time.DateTime))
	r.writePlain("Length:   %s\n", sessionLength(session))
	r.writePlain("Tracks:   %d\n", session.CatalogSize)
	if session.Manifest != "" {
		r.writePlain("Manifest: %s\n", session.Manifest)
	}

	if len(preload) > 0 {
		r.writePlainln("Preload")
		for _, rec := range preload {
			r.writePlain("  %s  %-9s  %s\n", shared.PadIndex(rec.TrackIndex), rec.Outcome, rec.Elapsed)
		}
	}

	r.writePlainln("Events")
	for _, ev := range events {
		line := fmt.Sprintf("  %3d  %-17s", ev.Sequence, ev.Kind)
		if ev.TrackIndex > 0 {
			line += "  " + shared.PadIndex(ev.TrackIndex)
		}
		if ev.Detail != "" {
			line += "  " + ev.Detail
		}
		if err := r.writePlain("%s\n", line); err != nil {
			return err
		}
	}

	r.writePlainln("Totals")
	for _, kind := range slices.Sorted(maps.Keys(counts)) {
		r.writePlain("  %-17s %d\n", kind, counts[kind])
	}
	return nil
}

func toSessionJSON(s *models.Session) sessionJSON {
	return sessionJSON{
		ID:          s.SessionID,
		CatalogSize: s.CatalogSize,
		Manifest:    s.Manifest,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
	}
}

func sessionLength(s *models.Session) string {
	if s.EndedAt == nil {
		return "open"
	}
	return shared.FormatTime(s.EndedAt.Sub(s.StartedAt))
}
