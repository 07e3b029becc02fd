// Package ui implements the terminal presentation surface using bubbletea's Elm architecture.
//
// The TUI walks through three views:
//  1. [PreloadView] : spinner and per-track progress while recordings load
//  2. [TitleView] : the first track behind a title page until the user begins
//  3. [PlayerView] : image reference, typewriter text, nav dots and the transport line
//
// [Surface] implements player.Surface by turning every display instruction into a message sent to the
// running program, so the player loop never touches the (view) [Model] directly. Key presses go the
// other way as player intents through a [Sender].
//
// A track picker built on bubbles/list opens with g. Contextual help is displayed via charmbracelet/bubbles/help.
package ui
