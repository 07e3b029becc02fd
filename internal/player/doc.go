// Package player implements the track transition controller.
//
// A [Controller] owns the current track index and a two-state machine: Idle accepts
// navigation, Transitioning drops it. [Controller.GoTo] swaps the image, title and nav dot on
// the [Surface], mounts fresh text targets, switches the [audio.Transport] and composes the
// typewriter reveal, then returns to Idle after the settle delay.
//
// Input arrives as [Intent] values through [Controller.Dispatch]. Everything runs on one
// [schedule.Scheduler]; the controller is not safe for use from other goroutines.
package player
