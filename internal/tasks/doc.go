// Package tasks runs the long-running background work of the player with progress reporting.
//
// # Preloading
//
// [Preloader.PreloadAll] walks the catalog in order and loads the audio for every track that
// has a manifest entry, strictly one item at a time through a single-consumer job queue.
// Each load races a per-item timeout. Every item ends in one of three outcomes:
//
//   - [OutcomeLoaded] : the media is stored in the [audio.Library]
//   - [OutcomeFailed] : the error is logged and the item counts as completed
//   - [OutcomeTimedOut] : the still-loading handle is stored so it can finish later
//
// # Progress Reporting
//
// After each item the [Preloader.OnProgress] callback receives (loaded, total, percent) and a
// [ProgressUpdate] is pushed on the optional channel. Channel sends use select with default
// so reporting never blocks the pass.
//
// # Result Recording
//
// The optional [ResultRecorder] (repositories.JournalRepository) persists each outcome.
// Recording errors are ignored so a broken journal never disrupts playback.
package tasks
