// package repositories provides persistence layer implementations for the session journal.
//
// Each repository handles one table; [SessionRepository] implements models.Repository[T].
package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence returns the next event sequence number for a session.
//
// It must run inside the transaction that inserts the event so concurrent writers cannot
// allocate the same number.
func NextSequence(tx *sql.Tx, sessionID string) (int, error) {
	var sequence int
	err := tx.QueryRow(
		"SELECT COALESCE(MAX(sequence), 0) + 1 FROM session_events WHERE session_id = ?",
		sessionID,
	).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}
	return sequence, nil
}
