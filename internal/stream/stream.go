// Package stream serves local audio files over HTTP with byte-range
// support, so the playback engine can seek within a track.
package stream

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// ServeFile writes path to w honoring a single `Range: bytes=start-end`
// request header. Without a range the whole file is sent with 200 and
// Accept-Ranges advertised; an unsatisfiable range gets 416 with the
// total size in Content-Range.
func ServeFile(w http.ResponseWriter, r *http.Request, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "stat failed", http.StatusInternalServerError)
		return err
	}
	size := info.Size()

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusOK)
		_, err = io.Copy(w, f)
		return err
	}

	start, end, ok := parseRange(rangeHeader, size)
	if !ok {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		http.Error(w, "seek failed", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusPartialContent)
	_, err = io.CopyN(w, f, end-start+1)
	return err
}

// parseRange handles the single-range form `bytes=start-end`, where end
// may be omitted. Anything else, or a start beyond the file, reports
// ok=false.
func parseRange(header string, size int64) (start, end int64, ok bool) {
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return 0, 0, false
	}

	startStr, endStr, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, false
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, false
	}

	end = size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return 0, 0, false
		}
	}

	if start >= size || end >= size || start > end {
		return 0, 0, false
	}
	return start, end, true
}

// Handler serves GET /tracks/{id}/stream from a local media directory.
// Tracks registered with a remote URL are redirected instead of read
// from disk; remote registrations take priority over local files.
// Unregistered ids resolve to `<id>.<ext>` directly under the media dir.
type Handler struct {
	mediaDir string

	mu     sync.RWMutex
	local  map[string]string // track id -> relative file path
	remote map[string]string // track id -> upstream URL
}

// NewHandler creates a stream handler rooted at mediaDir.
func NewHandler(mediaDir string) *Handler {
	return &Handler{
		mediaDir: mediaDir,
		local:    make(map[string]string),
		remote:   make(map[string]string),
	}
}

// RegisterLocal maps a track id to a file path relative to the media dir.
func (h *Handler) RegisterLocal(trackID, relPath string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.local[trackID] = relPath
}

// RegisterRemote maps a track id to an upstream URL.
func (h *Handler) RegisterRemote(trackID, rawURL string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remote[trackID] = rawURL
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	trackID := r.PathValue("id")
	if trackID == "" {
		http.Error(w, "missing track id", http.StatusBadRequest)
		return
	}

	h.mu.RLock()
	remoteURL, hasRemote := h.remote[trackID]
	relPath, hasLocal := h.local[trackID]
	h.mu.RUnlock()

	if hasRemote {
		http.Redirect(w, r, remoteURL, http.StatusFound)
		return
	}

	if !hasLocal {
		relPath, hasLocal = h.lookupByID(trackID)
	}
	if !hasLocal {
		http.Error(w, "unknown track", http.StatusNotFound)
		return
	}

	path := filepath.Join(h.mediaDir, filepath.Clean("/"+relPath))
	_ = ServeFile(w, r, path, contentTypeFor(path))
}

// lookupByID resolves an unregistered track id to `<id>.<ext>` directly
// under the media dir, trying the known audio extensions in order. This
// keeps a plain directory of files servable without any registration
// step.
func (h *Handler) lookupByID(trackID string) (string, bool) {
	base := filepath.Base(trackID)
	for _, ext := range []string{".mp3", ".flac", ".ogg", ".oga", ".m4a", ".mp4", ".wav"} {
		name := base + ext
		if info, err := os.Stat(filepath.Join(h.mediaDir, name)); err == nil && !info.IsDir() {
			return name, true
		}
	}
	return "", false
}

// Mux returns a ServeMux with the stream route mounted.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /tracks/{id}/stream", h)
	return mux
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
