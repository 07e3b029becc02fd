// Package schedule provides the single-threaded event loop the player core runs on.
//
// Every state change in the controller, transport and typewriter happens inside a callback
// executed by a [Scheduler]. Timers fire by posting their callback onto the loop, and
// background work (media loads, device events) reports back the same way, so core state is
// never touched from two goroutines.
//
// [Loop] is the wall-clock implementation used by the CLI. [Manual] is a virtual clock that
// only moves when [Manual.Advance] is called, which makes timing behavior testable without sleeps.
//
// [Generation] implements the stale-callback guard: work scheduled under an older generation
// drops itself when it finally runs.
package schedule
