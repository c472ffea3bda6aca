package playback

import "time"

// StateChange is emitted when the engine reports a playback-state
// change.
type StateChange struct {
	Playing bool
}

// TrackChange is emitted when navigation moves the current pointer with
// playback control (Next, Prev, PlayAt). Loading a queue emits
// QueueChange instead.
type TrackChange struct {
	Previous      *Track
	Current       *Track
	PreviousIndex int
	Index         int
}

// QueueChange is emitted when the queue contents change.
type QueueChange struct {
	Tracks []Track
	Index  int
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	Repeat  RepeatMode
	Shuffle bool
}

// ProgressChange carries the last reported position and duration.
type ProgressChange struct {
	Position time.Duration
	Duration time.Duration
}
