// Package repositories implements the SQLite session journal.
//
// The journal is best effort: the player and preloader ignore write errors, and nothing reads it
// back during playback. It exists for `kiyi history`.
//
// Key Implementations:
//   - [SessionRepository] : one row per playback run, implements models.Repository[*models.Session]
//   - [EventRepository] : ordered player events within a session
//   - [PreloadRepository] : per-track outcome of each preload pass
//   - [Journal] : binds the three to a single session for the player and preloader
//
// Event sequence numbers are per session and allocated by [NextSequence] inside the insert transaction.
package repositories
