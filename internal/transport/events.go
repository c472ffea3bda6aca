package transport

import "time"

// Event is an asynchronous notification from the engine. Exactly two
// kinds exist: progress updates and playback-state changes. They arrive
// on a single channel so one consumer can fan them into independent
// reducers.
type Event interface {
	event()
}

// ProgressEvent carries the engine's current position and the duration
// of the active item.
type ProgressEvent struct {
	Position time.Duration
	Duration time.Duration
}

func (ProgressEvent) event() {}

// StateEvent signals that the engine's playback state changed.
type StateEvent struct {
	State State
}

func (StateEvent) event() {}
