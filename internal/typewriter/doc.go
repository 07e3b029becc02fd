// Package typewriter reveals text one character at a time with punctuation-aware pacing.
//
// [Delay] is the per-character pause and [ComputeDuration] the deterministic total a reveal
// takes, so successors can be scheduled before the animation runs. [Animator.Reveal] runs one
// reveal on a [schedule.Scheduler]; [Animator.Compose] lays out a whole track:
//
//	lead ─ paragraph 1 ─ gap ─ paragraph 2 ─ gap ─ verse pause ─ verse 1 ─ verse gap ─ verse 2 ...
//
// Every pending step carries the generation it was scheduled under. [Animator.Reset] stops the
// timers and advances the generation, so nothing from an earlier track can write into a target.
package typewriter
