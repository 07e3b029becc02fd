// Package audio owns the playback side of the player: media handles, loading, the preloaded
// library and the [Transport] that drives the active handle.
//
// # Media
//
// A [Media] is one decoded recording. Backends report asynchronous changes (ended, seek
// finished, duration known, load failed) through [Media.Subscribe]; the transport re-posts
// every notification onto its [schedule.Scheduler] so all state changes run on the loop.
//
// # Loading
//
// [Begin] starts a load in the background and returns a [Loading]. [Loading.Handle] is usable
// immediately: it behaves like a paused, not-yet-ready media and forwards to the real one once
// the load completes. The preloader keeps these handles for items that time out, so a slow
// download can still finish later.
//
// # Speaker
//
// [Speaker] decodes mp3, wav, flac and ogg vorbis with gopxl/beep and plays through the default
// output device. The speaker is initialized lazily on the first Play.
package audio
