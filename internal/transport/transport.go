// Package transport defines the contract for the external audio engine.
// The engine owns decoding, buffering and output; this package only
// describes how the orchestrator loads items, navigates, and observes
// playback.
package transport

import (
	"context"
	"time"
)

// Item is one playable entry in the engine's playlist: a resolved source
// URI plus display metadata.
type Item struct {
	URI     string
	Title   string
	Artist  string
	Artwork string
}

// State is the engine's last reported playback state.
type State int

const (
	StateUnknown State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// RepeatMode is the loop behavior applied by the engine at track
// boundaries. Navigation never consults it; it is forwarded verbatim.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatQueue
	RepeatTrack
)

// Options configures engine setup.
type Options struct {
	// ProgressInterval is how often the engine should emit progress
	// events. Zero means the engine default.
	ProgressInterval time.Duration
}

// Transport is the contract for an external audio engine holding a
// playlist of items. Setup must be idempotent. All methods may block on
// the engine, hence the contexts.
type Transport interface {
	Setup(ctx context.Context, opts Options) error
	Reset(ctx context.Context) error
	Add(ctx context.Context, items []Item) error
	Skip(ctx context.Context, index int) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	SeekTo(ctx context.Context, pos time.Duration) error
	PlaybackState(ctx context.Context) (State, error)
	SetRepeatMode(ctx context.Context, mode RepeatMode) error

	// Events returns the engine's event stream. The channel is owned by
	// the transport and stays valid across Reset/Add cycles for the
	// lifetime of the transport.
	Events() <-chan Event

	Close() error
}
