// Package models defines the domain entities of the kiyi presentation player.
//
// The package contains two categories of types:
//
// 1. Catalog and playback values: immutable data shared by every component
//   - [Track] : one entry of the album (image, title, text, audio reference)
//   - [TrackContent] : paragraphs and verse lines revealed by the typewriter
//   - [Catalog] : the ordered, 1-indexed collection of tracks with wrapping navigation
//   - [PlaybackState] : a read-only snapshot of controller and transport state
//
// 2. Persistent Entities: journal records written to SQLite
//   - [Session] : one playback run
//   - [SessionEvent] : an ordered event inside a session (transition, preload, autoplay)
//
// Persistent entities implement the Model interface and are stored through a Repository[T].
package models
