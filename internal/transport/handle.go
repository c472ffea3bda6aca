package transport

import (
	"context"
	"sync"
	"time"
)

// Handle wraps a Transport and guarantees Setup runs its side effects at
// most once per process, no matter how many callers race to it. It is
// created during startup and injected wherever the engine is needed, so
// initialization state is owned rather than hidden in a package-level
// flag.
type Handle struct {
	t Transport

	mu          sync.Mutex
	initialized bool
}

// Verify Handle implements Transport at compile time.
var _ Transport = (*Handle)(nil)

// NewHandle wraps t.
func NewHandle(t Transport) *Handle {
	return &Handle{t: t}
}

// Setup initializes the underlying engine once. Subsequent calls return
// nil without touching the engine. A failed setup is not latched, so a
// retry reaches the engine again.
func (h *Handle) Setup(ctx context.Context, opts Options) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.initialized {
		return nil
	}
	if err := h.t.Setup(ctx, opts); err != nil {
		return err
	}
	h.initialized = true
	return nil
}

// IsInitialized reports whether Setup has completed successfully.
func (h *Handle) IsInitialized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialized
}

func (h *Handle) Reset(ctx context.Context) error { return h.t.Reset(ctx) }

func (h *Handle) Add(ctx context.Context, items []Item) error { return h.t.Add(ctx, items) }

func (h *Handle) Skip(ctx context.Context, index int) error { return h.t.Skip(ctx, index) }

func (h *Handle) Play(ctx context.Context) error { return h.t.Play(ctx) }

func (h *Handle) Pause(ctx context.Context) error { return h.t.Pause(ctx) }

func (h *Handle) SeekTo(ctx context.Context, pos time.Duration) error { return h.t.SeekTo(ctx, pos) }

func (h *Handle) PlaybackState(ctx context.Context) (State, error) { return h.t.PlaybackState(ctx) }

func (h *Handle) SetRepeatMode(ctx context.Context, mode RepeatMode) error {
	return h.t.SetRepeatMode(ctx, mode)
}

func (h *Handle) Events() <-chan Event { return h.t.Events() }

func (h *Handle) Close() error { return h.t.Close() }
