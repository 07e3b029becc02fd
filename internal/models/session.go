package models

import (
	"errors"
	"fmt"
	"time"
)

// EventKind names a journaled player event.
type EventKind string

const (
	EventTransition       EventKind = "transition"
	EventBegin            EventKind = "begin"
	EventPlay             EventKind = "play"
	EventPause            EventKind = "pause"
	EventAutoplayDeclined EventKind = "autoplay_declined"
	EventTrackEnded       EventKind = "track_ended"
	EventLoadFailed       EventKind = "load_failed"
)

// PreloadOutcome is the persisted name of a preload result.
type PreloadOutcome string

const (
	OutcomeLoaded   PreloadOutcome = "loaded"
	OutcomeFailed   PreloadOutcome = "failed"
	OutcomeTimedOut PreloadOutcome = "timed_out"
)

// Session is one playback run.
type Session struct {
	SessionID   string
	CatalogSize int
	Manifest    string
	StartedAt   time.Time
	EndedAt     *time.Time
}

func (s *Session) ID() string           { return s.SessionID }
func (s *Session) CreatedAt() time.Time { return s.StartedAt }

func (s *Session) UpdatedAt() time.Time {
	if s.EndedAt != nil {
		return *s.EndedAt
	}
	return s.StartedAt
}

func (s *Session) Validate() error {
	if s.SessionID == "" {
		return errors.New("session id is required")
	}
	if s.CatalogSize <= 0 {
		return fmt.Errorf("catalog size must be positive, got %d", s.CatalogSize)
	}
	return nil
}

// SessionEvent is a single journal line. Sequence is assigned by the repository.
type SessionEvent struct {
	SessionID  string
	Sequence   int
	Kind       EventKind
	TrackIndex int
	Detail     string
	Created    time.Time
}

func (e *SessionEvent) ID() string           { return fmt.Sprintf("%s#%d", e.SessionID, e.Sequence) }
func (e *SessionEvent) CreatedAt() time.Time { return e.Created }
func (e *SessionEvent) UpdatedAt() time.Time { return e.Created }

func (e *SessionEvent) Validate() error {
	if e.SessionID == "" {
		return errors.New("session id is required")
	}
	if e.Kind == "" {
		return errors.New("event kind is required")
	}
	return nil
}

// PreloadRecord is the persisted outcome of one preload item.
type PreloadRecord struct {
	SessionID  string
	TrackIndex int
	Outcome    PreloadOutcome
	Elapsed    time.Duration
	Error      string
}
