package transport

import (
	"context"
	"time"
)

// Mock is a test double for Transport.
type Mock struct {
	state State

	setupCalls  int
	setupOpts   Options
	setupErr    error
	resetCalls  int
	addCalls    [][]Item
	skipCalls   []int
	playCalls   int
	playErr     error
	pauseCalls  int
	seekCalls   []time.Duration
	repeatCalls []RepeatMode

	events chan Event
	closed bool
}

// NewMock creates a new mock transport for testing.
func NewMock() *Mock {
	return &Mock{
		state:  StateUnknown,
		events: make(chan Event, 16),
	}
}

func (m *Mock) Setup(_ context.Context, opts Options) error {
	m.setupCalls++
	m.setupOpts = opts
	return m.setupErr
}

func (m *Mock) Reset(_ context.Context) error {
	m.resetCalls++
	return nil
}

func (m *Mock) Add(_ context.Context, items []Item) error {
	m.addCalls = append(m.addCalls, items)
	return nil
}

func (m *Mock) Skip(_ context.Context, index int) error {
	m.skipCalls = append(m.skipCalls, index)
	return nil
}

func (m *Mock) Play(_ context.Context) error {
	m.playCalls++
	if m.playErr != nil {
		return m.playErr
	}
	m.state = StatePlaying
	return nil
}

func (m *Mock) Pause(_ context.Context) error {
	m.pauseCalls++
	m.state = StatePaused
	return nil
}

func (m *Mock) SeekTo(_ context.Context, pos time.Duration) error {
	m.seekCalls = append(m.seekCalls, pos)
	return nil
}

func (m *Mock) PlaybackState(_ context.Context) (State, error) {
	return m.state, nil
}

func (m *Mock) SetRepeatMode(_ context.Context, mode RepeatMode) error {
	m.repeatCalls = append(m.repeatCalls, mode)
	return nil
}

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) Close() error {
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}

// Test helpers

func (m *Mock) SetState(s State) { m.state = s }

func (m *Mock) SetSetupError(err error) { m.setupErr = err }

func (m *Mock) SetPlayError(err error) { m.playErr = err }

func (m *Mock) SetupCalls() int { return m.setupCalls }

func (m *Mock) SetupOptions() Options { return m.setupOpts }

func (m *Mock) ResetCalls() int { return m.resetCalls }

func (m *Mock) AddCalls() [][]Item { return m.addCalls }

func (m *Mock) SkipCalls() []int { return m.skipCalls }

func (m *Mock) PlayCalls() int { return m.playCalls }

func (m *Mock) PauseCalls() int { return m.pauseCalls }

func (m *Mock) SeekCalls() []time.Duration { return m.seekCalls }

func (m *Mock) RepeatCalls() []RepeatMode { return m.repeatCalls }

// TransportCalls returns the total number of playlist-affecting calls
// (reset, add, skip). Useful for asserting that an operation never
// touched the engine.
func (m *Mock) TransportCalls() int {
	return m.resetCalls + len(m.addCalls) + len(m.skipCalls)
}

// EmitProgress pushes a progress event into the event stream.
func (m *Mock) EmitProgress(position, duration time.Duration) {
	m.events <- ProgressEvent{Position: position, Duration: duration}
}

// EmitState pushes a playback-state event into the event stream.
func (m *Mock) EmitState(s State) {
	m.state = s
	m.events <- StateEvent{State: s}
}

// Verify Mock implements Transport at compile time.
var _ Transport = (*Mock)(nil)
