package stream

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeMedia(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestServeFile_FullContent(t *testing.T) {
	dir := t.TempDir()
	data := []byte("0123456789")
	writeMedia(t, dir, "a.mp3", data)

	req := httptest.NewRequest(http.MethodGet, "/a.mp3", http.NoBody)
	rec := httptest.NewRecorder()

	if err := ServeFile(rec, req, filepath.Join(dir, "a.mp3"), "audio/mpeg"); err != nil {
		t.Fatalf("ServeFile error = %v", err)
	}

	resp := rec.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q, want bytes", got)
	}
	if got := resp.Header.Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("Content-Type = %q, want audio/mpeg", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "0123456789" {
		t.Errorf("body = %q", body)
	}
}

func TestServeFile_PartialContent(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "a.mp3", []byte("0123456789"))

	tests := []struct {
		name      string
		header    string
		wantBody  string
		wantRange string
	}{
		{
			name:      "explicit range",
			header:    "bytes=2-5",
			wantBody:  "2345",
			wantRange: "bytes 2-5/10",
		},
		{
			name:      "open ended range",
			header:    "bytes=7-",
			wantBody:  "789",
			wantRange: "bytes 7-9/10",
		},
		{
			name:      "single byte",
			header:    "bytes=0-0",
			wantBody:  "0",
			wantRange: "bytes 0-0/10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/a.mp3", http.NoBody)
			req.Header.Set("Range", tt.header)
			rec := httptest.NewRecorder()

			if err := ServeFile(rec, req, filepath.Join(dir, "a.mp3"), "audio/mpeg"); err != nil {
				t.Fatalf("ServeFile error = %v", err)
			}

			resp := rec.Result()
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusPartialContent {
				t.Errorf("status = %d, want 206", resp.StatusCode)
			}
			if got := resp.Header.Get("Content-Range"); got != tt.wantRange {
				t.Errorf("Content-Range = %q, want %q", got, tt.wantRange)
			}
			if got := resp.Header.Get("Content-Length"); got != fmt.Sprint(len(tt.wantBody)) {
				t.Errorf("Content-Length = %q, want %d", got, len(tt.wantBody))
			}
			body, _ := io.ReadAll(resp.Body)
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestServeFile_UnsatisfiableRange(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "a.mp3", []byte("0123456789"))

	tests := []struct {
		name   string
		header string
	}{
		{name: "start past end of file", header: "bytes=10-"},
		{name: "end past end of file", header: "bytes=0-100"},
		{name: "inverted range", header: "bytes=5-2"},
		{name: "malformed", header: "bytes=abc-def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/a.mp3", http.NoBody)
			req.Header.Set("Range", tt.header)
			rec := httptest.NewRecorder()

			if err := ServeFile(rec, req, filepath.Join(dir, "a.mp3"), "audio/mpeg"); err != nil {
				t.Fatalf("ServeFile error = %v", err)
			}

			resp := rec.Result()
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusRequestedRangeNotSatisfiable {
				t.Errorf("status = %d, want 416", resp.StatusCode)
			}
			if got := resp.Header.Get("Content-Range"); got != "bytes */10" {
				t.Errorf("Content-Range = %q, want bytes */10", got)
			}
		})
	}
}

func TestServeFile_MissingFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/missing.mp3", http.NoBody)
	rec := httptest.NewRecorder()

	err := ServeFile(rec, req, filepath.Join(t.TempDir(), "missing.mp3"), "audio/mpeg")
	if err == nil {
		t.Error("expected error for missing file")
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandler_LocalTrack(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "a.flac", []byte("flacdata"))

	h := NewHandler(dir)
	h.RegisterLocal("t1", "a.flac")

	srv := httptest.NewServer(h.Mux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/tracks/t1/stream")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "audio/flac" {
		t.Errorf("Content-Type = %q, want audio/flac", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "flacdata" {
		t.Errorf("body = %q", body)
	}
}

func TestHandler_RemoteTakesPriority(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "a.mp3", []byte("localdata"))

	h := NewHandler(dir)
	h.RegisterLocal("t1", "a.mp3")
	h.RegisterRemote("t1", "http://upstream.example/t1.mp3")

	req := httptest.NewRequest(http.MethodGet, "/tracks/t1/stream", http.NoBody)
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "http://upstream.example/t1.mp3" {
		t.Errorf("Location = %q", got)
	}
}

func TestHandler_UnregisteredTrackFoundInMediaDir(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "t1.mp3", []byte("mp3data"))

	h := NewHandler(dir)

	req := httptest.NewRequest(http.MethodGet, "/tracks/t1/stream", http.NoBody)
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("Content-Type = %q, want audio/mpeg", got)
	}
	if got := rec.Body.String(); got != "mp3data" {
		t.Errorf("body = %q", got)
	}
}

func TestHandler_MediaDirLookupHonorsRanges(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "t1.flac", []byte("0123456789"))

	h := NewHandler(dir)

	req := httptest.NewRequest(http.MethodGet, "/tracks/t1/stream", http.NoBody)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Body.String(); got != "2345" {
		t.Errorf("body = %q, want 2345", got)
	}
}

func TestHandler_RegistrationBeatsMediaDirLookup(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "t1.mp3", []byte("bare"))
	writeMedia(t, dir, "registered.mp3", []byte("registered"))

	h := NewHandler(dir)
	h.RegisterLocal("t1", "registered.mp3")

	req := httptest.NewRequest(http.MethodGet, "/tracks/t1/stream", http.NoBody)
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "registered" {
		t.Errorf("body = %q, want registered", got)
	}
}

func TestHandler_UnknownTrack(t *testing.T) {
	h := NewHandler(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/tracks/nope/stream", http.NoBody)
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandler_PathTraversalContained(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeMedia(t, sub, "a.mp3", []byte("x"))

	h := NewHandler(sub)
	h.RegisterLocal("t1", "../outside.mp3")

	req := httptest.NewRequest(http.MethodGet, "/tracks/t1/stream", http.NoBody)
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)

	// The cleaned path stays inside the media dir, so the escape attempt
	// resolves to a missing file rather than the parent directory.
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.mp3", "audio/mpeg"},
		{"a.FLAC", "audio/flac"},
		{"a.ogg", "audio/ogg"},
		{"a.m4a", "audio/mp4"},
		{"a.wav", "audio/wav"},
		{"a.bin", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := contentTypeFor(tt.path); got != tt.want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
