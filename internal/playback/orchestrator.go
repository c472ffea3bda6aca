// Package playback implements the playback orchestration engine: the
// play queue, the current-position pointer, shuffle and repeat
// semantics, synchronization against the external audio transport, and
// persistence of the queue across process restarts.
//
// The orchestrator is the single authoritative mutator of player state.
// Queue-structural fields change only inside its operations; the live
// fields (playing, position, duration) change only in the two event
// reducers fed by the transport's event stream. Transport errors
// propagate to the caller; persistence is best-effort and its failures
// are discarded.
package playback

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/mvailland/cadence/internal/store"
	"github.com/mvailland/cadence/internal/transport"
)

const (
	saveDebounce = 500 * time.Millisecond
	saveTimeout  = 5 * time.Second

	defaultProgressInterval = time.Second
)

// Orchestrator owns the player state and drives the transport.
type Orchestrator struct {
	transport transport.Transport
	store     store.Store

	mu        sync.RWMutex
	queue     []Track
	baseQueue []Track
	index     int
	current   *Track
	playing   bool
	position  time.Duration
	duration  time.Duration
	shuffle   bool
	repeat    RepeatMode

	consumeOnce sync.Once

	// Single-slot persistence: the latest snapshot wins, written after a
	// short debounce. Callers never wait on a write.
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *snapshot

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool

	progressInterval time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProgressInterval sets how often the transport reports playback
// progress. Zero or negative values keep the default of one second.
func WithProgressInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.progressInterval = d
		}
	}
}

// New creates an orchestrator over the given transport and store. The
// transport is normally wrapped in a transport.Handle so that repeated
// Init calls cannot re-run engine setup.
func New(t transport.Transport, s store.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transport:        t,
		store:            s,
		done:             make(chan struct{}),
		progressInterval: defaultProgressInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Init performs one-time setup: it initializes the transport, starts
// the event consumer, and restores the persisted queue if a usable
// snapshot exists. Restore failures of any kind are silently ignored;
// startup never fails because of corrupted persisted state. Init is
// safe to call more than once.
func (o *Orchestrator) Init(ctx context.Context) error {
	if err := o.transport.Setup(ctx, transport.Options{ProgressInterval: o.progressInterval}); err != nil {
		return err
	}

	o.consumeOnce.Do(func() {
		go o.consumeEvents()
	})

	raw, err := o.store.Get(ctx, stateKey)
	if err != nil {
		return nil
	}
	snap, ok := decodeSnapshot(raw)
	if !ok || len(snap.Queue) == 0 {
		return nil
	}
	idx := min(snap.Index, len(snap.Queue)-1)
	idx = max(idx, 0)
	_ = o.LoadQueue(ctx, snap.Queue, idx)
	return nil
}

// LoadQueue replaces the queue with tracks (copied, not aliased) and
// points at startIndex. Playback state and progress are reset. With a
// non-empty list the transport playlist is rebuilt: reset, add all, skip
// to startIndex. An empty list or out-of-range startIndex leaves the
// transport untouched.
func (o *Orchestrator) LoadQueue(ctx context.Context, tracks []Track, startIndex int) error {
	o.mu.Lock()
	o.queue = slices.Clone(tracks)
	o.baseQueue = slices.Clone(tracks)
	o.index = startIndex
	o.playing = false
	o.position = 0
	o.duration = 0
	if startIndex >= 0 && startIndex < len(o.queue) {
		o.current = &o.queue[startIndex]
	} else {
		o.current = nil
	}
	loaded := o.current != nil
	queueCopy := slices.Clone(o.queue)
	o.mu.Unlock()

	o.publishQueue(QueueChange{Tracks: queueCopy, Index: startIndex})

	if !loaded {
		return nil
	}

	if err := o.transport.Reset(ctx); err != nil {
		return err
	}
	items := lo.Map(tracks, func(t Track, _ int) transport.Item {
		return transport.Item{URI: t.URI, Title: t.Title, Artist: t.Artist, Artwork: t.Artwork}
	})
	if err := o.transport.Add(ctx, items); err != nil {
		return err
	}
	if err := o.transport.Skip(ctx, startIndex); err != nil {
		return err
	}

	o.saveLater()
	return nil
}

// Play starts playback of the current track. No-op without one. The
// snapshot is persisted speculatively so "last played" survives even if
// playback is paused again right away.
func (o *Orchestrator) Play(ctx context.Context) error {
	if o.CurrentTrack() == nil {
		return nil
	}
	if err := o.transport.Play(ctx); err != nil {
		return err
	}
	o.saveLater()
	return nil
}

// Pause pauses playback. No-op without a current track.
func (o *Orchestrator) Pause(ctx context.Context) error {
	if o.CurrentTrack() == nil {
		return nil
	}
	return o.transport.Pause(ctx)
}

// TogglePlay inverts the engine's live playback state. The engine is
// queried rather than trusting the cached flag, which may lag behind
// in-flight events.
func (o *Orchestrator) TogglePlay(ctx context.Context) error {
	if o.CurrentTrack() == nil {
		return nil
	}
	st, err := o.transport.PlaybackState(ctx)
	if err != nil {
		return err
	}
	if st == transport.StatePlaying {
		return o.transport.Pause(ctx)
	}
	return o.transport.Play(ctx)
}

// Seek asks the engine to move to pos. The cached position is not
// touched; it catches up on the next progress event.
func (o *Orchestrator) Seek(ctx context.Context, pos time.Duration) error {
	return o.transport.SeekTo(ctx, pos)
}

// Next advances to the following track and plays it. No-op at the last
// index or without a current track (a queue loaded at an out-of-range
// start index has none): navigation never wraps, regardless of repeat
// mode.
func (o *Orchestrator) Next(ctx context.Context) error {
	o.mu.Lock()
	if o.current == nil || o.index+1 >= len(o.queue) {
		o.mu.Unlock()
		return nil
	}
	change := o.moveToLocked(o.index + 1)
	o.mu.Unlock()

	return o.jump(ctx, change)
}

// Prev moves to the preceding track and plays it. No-op at index 0 or
// without a current track.
func (o *Orchestrator) Prev(ctx context.Context) error {
	o.mu.Lock()
	if o.current == nil || o.index <= 0 {
		o.mu.Unlock()
		return nil
	}
	change := o.moveToLocked(o.index - 1)
	o.mu.Unlock()

	return o.jump(ctx, change)
}

// PlayAt jumps to an arbitrary queue position and plays it. Out-of-range
// indices are a silent no-op.
func (o *Orchestrator) PlayAt(ctx context.Context, idx int) error {
	o.mu.Lock()
	if idx < 0 || idx >= len(o.queue) {
		o.mu.Unlock()
		return nil
	}
	change := o.moveToLocked(idx)
	o.mu.Unlock()

	return o.jump(ctx, change)
}

// moveToLocked repoints index/current at idx and resets progress.
// Caller holds o.mu and has validated idx. The returned change carries
// copies so later queue mutations cannot alter published events.
func (o *Orchestrator) moveToLocked(idx int) TrackChange {
	change := TrackChange{
		PreviousIndex: o.index,
		Index:         idx,
	}
	if o.current != nil {
		prev := *o.current
		change.Previous = &prev
	}
	o.index = idx
	o.current = &o.queue[idx]
	o.position = 0
	o.duration = 0
	cur := o.queue[idx]
	change.Current = &cur
	return change
}

// jump drives the transport for a completed pointer move: skip, play,
// persist.
func (o *Orchestrator) jump(ctx context.Context, change TrackChange) error {
	o.publishTrack(change)

	if err := o.transport.Skip(ctx, change.Index); err != nil {
		return err
	}
	if err := o.transport.Play(ctx); err != nil {
		return err
	}
	o.saveLater()
	return nil
}

// RemoveAt removes the track at idx from the logical queue only; the
// transport's loaded playlist is not updated. Out-of-range indices are
// a silent no-op. If the removed position precedes the current index
// the pointer shifts down by one; it is clamped into the shrunk queue
// otherwise.
func (o *Orchestrator) RemoveAt(idx int) {
	o.mu.Lock()
	if idx < 0 || idx >= len(o.queue) {
		o.mu.Unlock()
		return
	}
	o.queue = slices.Delete(o.queue, idx, idx+1)
	if idx < o.index {
		o.index = max(0, o.index-1)
	}
	if o.index >= len(o.queue) {
		o.index = max(0, len(o.queue)-1)
	}
	if len(o.queue) > 0 {
		o.current = &o.queue[o.index]
	} else {
		o.current = nil
	}
	change := QueueChange{Tracks: slices.Clone(o.queue), Index: o.index}
	o.mu.Unlock()

	o.publishQueue(change)
}

// EnqueueNext inserts track immediately after the current position in
// the logical queue only; the transport playlist is not updated.
func (o *Orchestrator) EnqueueNext(track Track) {
	o.mu.Lock()
	at := min(o.index+1, len(o.queue))
	o.queue = slices.Insert(o.queue, at, track)
	if o.current != nil {
		// Reinsertion may have reallocated the backing array.
		o.current = &o.queue[o.index]
	}
	change := QueueChange{Tracks: slices.Clone(o.queue), Index: o.index}
	o.mu.Unlock()

	o.publishQueue(change)
}

// ToggleShuffle flips shuffle mode. Enabling reloads the transport with
// the current track first followed by a uniform permutation of the
// rest; disabling reloads the base order and relocates the current
// track inside it by id (falling back to 0 if it was removed while
// shuffled). Both directions reset progress to zero: resuming mid-track
// across the reload is not guaranteed.
func (o *Orchestrator) ToggleShuffle(ctx context.Context) error {
	o.mu.Lock()
	if o.current == nil {
		o.shuffle = !o.shuffle
		change := ModeChange{Repeat: o.repeat, Shuffle: o.shuffle}
		o.mu.Unlock()
		o.publishMode(change)
		return nil
	}

	enable := !o.shuffle
	currentID := o.current.ID
	var next []Track
	var target int
	if enable {
		next = shuffled(o.queue, o.index)
		target = 0
	} else {
		next = slices.Clone(o.baseQueue)
		target = max(0, indexByID(next, currentID))
	}
	o.mu.Unlock()

	if err := o.LoadQueue(ctx, next, target); err != nil {
		return err
	}

	o.mu.Lock()
	o.shuffle = enable
	change := ModeChange{Repeat: o.repeat, Shuffle: o.shuffle}
	o.mu.Unlock()

	o.publishMode(change)
	return nil
}

// CycleRepeatMode advances off -> queue -> track -> off and forwards
// the new mode to the transport, which applies the actual looping at
// track boundaries.
func (o *Orchestrator) CycleRepeatMode(ctx context.Context) error {
	o.mu.Lock()
	o.repeat = o.repeat.Cycle()
	mode := o.repeat
	change := ModeChange{Repeat: o.repeat, Shuffle: o.shuffle}
	o.mu.Unlock()

	o.publishMode(change)
	return o.transport.SetRepeatMode(ctx, transportRepeat(mode))
}

func transportRepeat(m RepeatMode) transport.RepeatMode {
	switch m {
	case RepeatQueue:
		return transport.RepeatQueue
	case RepeatTrack:
		return transport.RepeatTrack
	default:
		return transport.RepeatOff
	}
}

// State queries

// Queue returns a copy of the queue.
func (o *Orchestrator) Queue() []Track {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.queue)
}

// BaseQueue returns a copy of the canonical (pre-shuffle) order.
func (o *Orchestrator) BaseQueue() []Track {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.baseQueue)
}

// Index returns the current queue position. Meaningless when the queue
// is empty.
func (o *Orchestrator) Index() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.index
}

// CurrentTrack returns a copy of the current track, or nil.
func (o *Orchestrator) CurrentTrack() *Track {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.current == nil {
		return nil
	}
	t := *o.current
	return &t
}

// IsPlaying reports the last playback state received from the engine.
func (o *Orchestrator) IsPlaying() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.playing
}

// Position returns the last reported playback position.
func (o *Orchestrator) Position() time.Duration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.position
}

// Duration returns the last reported track duration.
func (o *Orchestrator) Duration() time.Duration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.duration
}

// Shuffle reports whether shuffle is enabled.
func (o *Orchestrator) Shuffle() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.shuffle
}

// RepeatMode returns the current repeat mode.
func (o *Orchestrator) RepeatMode() RepeatMode {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.repeat
}

// Event consumption

// consumeEvents is the single consumer of the transport's event stream.
// It runs for the life of the orchestrator; queue loads never
// re-subscribe, so duplicate handlers cannot occur. Each event kind has
// its own reducer and the two reducers write disjoint fields.
func (o *Orchestrator) consumeEvents() {
	events := o.transport.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case transport.ProgressEvent:
				o.applyProgress(e)
			case transport.StateEvent:
				o.applyState(e)
			}
		case <-o.done:
			return
		}
	}
}

// applyProgress owns position and duration.
func (o *Orchestrator) applyProgress(e transport.ProgressEvent) {
	o.mu.Lock()
	o.position = e.Position
	o.duration = e.Duration
	o.mu.Unlock()

	o.publishProgress(ProgressChange{Position: e.Position, Duration: e.Duration})
}

// applyState owns the playing flag.
func (o *Orchestrator) applyState(e transport.StateEvent) {
	playing := e.State == transport.StatePlaying
	o.mu.Lock()
	o.playing = playing
	o.mu.Unlock()

	o.publishState(StateChange{Playing: playing})
}

// Persistence

// saveLater schedules a snapshot write. Only the latest snapshot is
// kept; a crash inside the debounce window loses at most that window's
// changes, recoverable to the previous successful write.
func (o *Orchestrator) saveLater() {
	o.mu.RLock()
	snap := snapshot{Queue: slices.Clone(o.queue), Index: o.index}
	o.mu.RUnlock()

	o.saveMu.Lock()
	defer o.saveMu.Unlock()

	o.pending = &snap

	if o.saveTimer != nil {
		o.saveTimer.Stop()
	}
	o.saveTimer = time.AfterFunc(saveDebounce, o.flushPending)
}

// flushPending writes the pending snapshot, if any. Write failures are
// discarded: the store is a cache, not a source of truth.
func (o *Orchestrator) flushPending() {
	o.saveMu.Lock()
	pending := o.pending
	o.pending = nil
	o.saveMu.Unlock()

	if pending == nil {
		return
	}
	payload, err := encodeSnapshot(*pending)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	_ = o.store.Set(ctx, stateKey, payload)
}

// Subscriptions

// Subscribe creates a new event subscription.
func (o *Orchestrator) Subscribe() *Subscription {
	o.subsMu.Lock()
	defer o.subsMu.Unlock()
	sub := newSubscription()
	o.subs = append(o.subs, sub)
	return sub
}

func (o *Orchestrator) publishState(e StateChange) {
	o.subsMu.RLock()
	defer o.subsMu.RUnlock()
	for _, sub := range o.subs {
		sub.sendState(e)
	}
}

func (o *Orchestrator) publishTrack(e TrackChange) {
	o.subsMu.RLock()
	defer o.subsMu.RUnlock()
	for _, sub := range o.subs {
		sub.sendTrack(e)
	}
}

func (o *Orchestrator) publishProgress(e ProgressChange) {
	o.subsMu.RLock()
	defer o.subsMu.RUnlock()
	for _, sub := range o.subs {
		sub.sendProgress(e)
	}
}

func (o *Orchestrator) publishQueue(e QueueChange) {
	o.subsMu.RLock()
	defer o.subsMu.RUnlock()
	for _, sub := range o.subs {
		sub.sendQueue(e)
	}
}

func (o *Orchestrator) publishMode(e ModeChange) {
	o.subsMu.RLock()
	defer o.subsMu.RUnlock()
	for _, sub := range o.subs {
		sub.sendMode(e)
	}
}

// Close stops event consumption, flushes any pending snapshot and
// closes all subscriptions. The transport and store are owned by the
// caller and are not closed here.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	close(o.done)
	o.mu.Unlock()

	o.saveMu.Lock()
	if o.saveTimer != nil {
		o.saveTimer.Stop()
	}
	o.saveMu.Unlock()
	o.flushPending()

	o.subsMu.Lock()
	for _, sub := range o.subs {
		sub.close()
	}
	o.subs = nil
	o.subsMu.Unlock()

	return nil
}
