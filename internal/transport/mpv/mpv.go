// Package mpv drives an external mpv process over its JSON IPC socket.
// mpv owns decoding, buffering and audio output; this package maps the
// transport contract onto playlist commands and property observation.
// See https://mpv.io/manual/master/#json-ipc
package mpv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/dexterlb/mpvipc"
	"github.com/google/uuid"

	"github.com/mvailland/cadence/internal/transport"
)

const (
	propTimePos  = 1
	propDuration = 2
	propPause    = 3

	socketTimeout = 3 * time.Second
	socketPoll    = 100 * time.Millisecond

	defaultProgressInterval = time.Second
)

// Engine is an mpv-backed transport. Create it with New, then Setup
// (normally through a transport.Handle) before any other call.
type Engine struct {
	binPath   string
	extraArgs []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	conn   *mpvipc.Connection
	socket string

	events   chan transport.Event
	stop     chan struct{}
	interval time.Duration
}

// Verify Engine implements Transport at compile time.
var _ transport.Transport = (*Engine)(nil)

// New creates an mpv transport. binPath may be empty, in which case mpv
// is looked up on PATH during Setup. extraArgs are appended to the mpv
// command line.
func New(binPath string, extraArgs ...string) *Engine {
	return &Engine{
		binPath:   binPath,
		extraArgs: extraArgs,
		events:    make(chan transport.Event, 64),
		stop:      make(chan struct{}),
	}
}

// Setup starts the mpv process in idle mode, connects to its IPC socket
// and begins observing playback properties.
func (e *Engine) Setup(_ context.Context, opts transport.Options) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn != nil {
		return nil
	}

	bin := e.binPath
	if bin == "" {
		bin = "mpv"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("locating mpv: %w", err)
	}

	e.interval = opts.ProgressInterval
	if e.interval <= 0 {
		e.interval = defaultProgressInterval
	}

	e.socket = filepath.Join(os.TempDir(), "cadence-mpv-"+uuid.NewString()+".socket")
	args := []string{
		"--idle",
		"--no-video",
		"--no-terminal",
		"--input-ipc-server=" + e.socket,
	}
	args = append(args, e.extraArgs...)

	cmd := exec.Command(path, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting mpv: %w", err)
	}
	e.cmd = cmd
	go func() { _ = cmd.Wait() }()

	if err := waitForSocket(e.socket, socketTimeout, socketPoll); err != nil {
		_ = cmd.Process.Kill()
		e.cmd = nil
		return fmt.Errorf("waiting for mpv socket: %w", err)
	}

	conn := mpvipc.NewConnection(e.socket)
	if err := conn.Open(); err != nil {
		_ = cmd.Process.Kill()
		e.cmd = nil
		return fmt.Errorf("connecting to mpv: %w", err)
	}
	e.conn = conn

	for id, prop := range map[int]string{
		propTimePos:  "time-pos",
		propDuration: "duration",
		propPause:    "pause",
	} {
		if _, err := conn.Call("observe_property", id, prop); err != nil {
			_ = conn.Close()
			_ = cmd.Process.Kill()
			e.conn = nil
			e.cmd = nil
			return fmt.Errorf("observing %s: %w", prop, err)
		}
	}

	mpvEvents := make(chan *mpvipc.Event, 64)
	go conn.ListenForEvents(mpvEvents, e.stop)
	go e.translate(mpvEvents)

	return nil
}

// translate turns mpv property-change events into transport events.
// Progress is throttled to the configured interval; pause flips are
// forwarded immediately.
func (e *Engine) translate(mpvEvents <-chan *mpvipc.Event) {
	var (
		position time.Duration
		duration time.Duration
		lastSent time.Time
	)
	for ev := range mpvEvents {
		if ev == nil || ev.Name != "property-change" {
			continue
		}
		switch ev.ID {
		case propTimePos:
			secs, ok := ev.Data.(float64)
			if !ok {
				continue
			}
			position = time.Duration(secs * float64(time.Second))
			if time.Since(lastSent) < e.interval {
				continue
			}
			lastSent = time.Now()
			e.send(transport.ProgressEvent{Position: position, Duration: duration})
		case propDuration:
			secs, ok := ev.Data.(float64)
			if !ok {
				continue
			}
			duration = time.Duration(secs * float64(time.Second))
			e.send(transport.ProgressEvent{Position: position, Duration: duration})
		case propPause:
			paused, ok := ev.Data.(bool)
			if !ok {
				continue
			}
			st := transport.StatePlaying
			if paused {
				st = transport.StatePaused
			}
			e.send(transport.StateEvent{State: st})
		}
	}
}

func (e *Engine) send(ev transport.Event) {
	select {
	case e.events <- ev:
	case <-e.stop:
	}
}

func (e *Engine) connection() (*mpvipc.Connection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn == nil {
		return nil, fmt.Errorf("mpv transport not initialized")
	}
	return e.conn, nil
}

func (e *Engine) Reset(_ context.Context) error {
	conn, err := e.connection()
	if err != nil {
		return err
	}
	if _, err := conn.Call("stop"); err != nil {
		return fmt.Errorf("stopping playback: %w", err)
	}
	if _, err := conn.Call("playlist-clear"); err != nil {
		return fmt.Errorf("clearing playlist: %w", err)
	}
	return nil
}

func (e *Engine) Add(_ context.Context, items []transport.Item) error {
	conn, err := e.connection()
	if err != nil {
		return err
	}
	for _, it := range items {
		if _, err := conn.Call("loadfile", it.URI, "append"); err != nil {
			return fmt.Errorf("adding %s: %w", it.URI, err)
		}
	}
	return nil
}

func (e *Engine) Skip(_ context.Context, index int) error {
	conn, err := e.connection()
	if err != nil {
		return err
	}
	if _, err := conn.Call("playlist-play-index", index); err != nil {
		return fmt.Errorf("skipping to %d: %w", index, err)
	}
	return nil
}

func (e *Engine) Play(_ context.Context) error {
	conn, err := e.connection()
	if err != nil {
		return err
	}
	if err := conn.Set("pause", false); err != nil {
		return fmt.Errorf("resuming: %w", err)
	}
	return nil
}

func (e *Engine) Pause(_ context.Context) error {
	conn, err := e.connection()
	if err != nil {
		return err
	}
	if err := conn.Set("pause", true); err != nil {
		return fmt.Errorf("pausing: %w", err)
	}
	return nil
}

func (e *Engine) SeekTo(_ context.Context, pos time.Duration) error {
	conn, err := e.connection()
	if err != nil {
		return err
	}
	if _, err := conn.Call("seek", pos.Seconds(), "absolute"); err != nil {
		return fmt.Errorf("seeking: %w", err)
	}
	return nil
}

func (e *Engine) PlaybackState(_ context.Context) (transport.State, error) {
	conn, err := e.connection()
	if err != nil {
		return transport.StateUnknown, err
	}
	raw, err := conn.Get("pause")
	if err != nil {
		return transport.StateUnknown, fmt.Errorf("reading pause property: %w", err)
	}
	paused, ok := raw.(bool)
	if !ok {
		return transport.StateUnknown, nil
	}
	if paused {
		return transport.StatePaused, nil
	}
	return transport.StatePlaying, nil
}

func (e *Engine) SetRepeatMode(_ context.Context, mode transport.RepeatMode) error {
	conn, err := e.connection()
	if err != nil {
		return err
	}
	loopFile, loopPlaylist := "no", "no"
	switch mode {
	case transport.RepeatTrack:
		loopFile = "inf"
	case transport.RepeatQueue:
		loopPlaylist = "inf"
	case transport.RepeatOff:
	}
	if err := conn.Set("loop-file", loopFile); err != nil {
		return fmt.Errorf("setting loop-file: %w", err)
	}
	if err := conn.Set("loop-playlist", loopPlaylist); err != nil {
		return fmt.Errorf("setting loop-playlist: %w", err)
	}
	return nil
}

func (e *Engine) Events() <-chan transport.Event { return e.events }

// Close tears down the IPC connection and the mpv process.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.stop:
		return nil
	default:
	}
	close(e.stop)
	if e.conn != nil {
		_ = e.conn.Close()
		e.conn = nil
	}
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
		e.cmd = nil
	}
	if e.socket != "" {
		_ = os.Remove(e.socket)
	}
	return nil
}

func waitForSocket(path string, timeout, pause time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout after %s", timeout)
		}
		time.Sleep(pause)
	}
}
