// Package catalog provides a client for the track catalog server.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/lo"

	"github.com/mvailland/cadence/internal/playback"
)

// ErrNotFound is returned when the catalog has no matching entry.
var ErrNotFound = errors.New("catalog entry not found")

const userAgent = "cadence/1.0 (https://github.com/mvailland/cadence)"

// Client is a catalog server API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new catalog client for the given server base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Artist is a catalog artist entry.
type Artist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Images string `json:"images,omitempty"` // JSON-encoded image list as stored upstream
}

// Album is a catalog album entry.
type Album struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Images   string  `json:"images,omitempty"`
	ArtistID string  `json:"artistId"`
	Artist   *Artist `json:"artist,omitempty"`
}

// Track is a catalog track entry.
type Track struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	DurationMs int64   `json:"durationMs,omitempty"`
	AlbumID    string  `json:"albumId,omitempty"`
	ArtistID   string  `json:"artistId,omitempty"`
	Album      *Album  `json:"album,omitempty"`
	Artist     *Artist `json:"artist,omitempty"`
}

// Duration returns the track length.
func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationMs) * time.Millisecond
}

// ArtistName returns the embedded artist name, if any.
func (t Track) ArtistName() string {
	if t.Artist == nil {
		return ""
	}
	return t.Artist.Name
}

// Tracks fetches up to limit tracks ordered by title.
func (c *Client) Tracks(ctx context.Context, limit int) ([]Track, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("order", "title")

	var tracks []Track
	if err := c.getJSON(ctx, "/tracks?"+params.Encode(), &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// RecentTracks fetches up to limit tracks ordered by recency.
func (c *Client) RecentTracks(ctx context.Context, limit int) ([]Track, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("order", "recent")

	var tracks []Track
	if err := c.getJSON(ctx, "/tracks?"+params.Encode(), &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Artists fetches all catalog artists.
func (c *Client) Artists(ctx context.Context) ([]Artist, error) {
	var artists []Artist
	if err := c.getJSON(ctx, "/artists", &artists); err != nil {
		return nil, err
	}
	return artists, nil
}

// ArtistTracks fetches the tracks of a single artist.
func (c *Client) ArtistTracks(ctx context.Context, artistID string) ([]Track, error) {
	var tracks []Track
	if err := c.getJSON(ctx, "/artists/"+url.PathEscape(artistID)+"/tracks", &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Albums fetches all catalog albums.
func (c *Client) Albums(ctx context.Context) ([]Album, error) {
	var albums []Album
	if err := c.getJSON(ctx, "/albums", &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

// AlbumTracks fetches the tracks of a single album.
func (c *Client) AlbumTracks(ctx context.Context, albumID string) ([]Track, error) {
	var tracks []Track
	if err := c.getJSON(ctx, "/albums/"+url.PathEscape(albumID)+"/tracks", &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// StreamURL returns the stream endpoint for a track. The URL is handed
// to the playback transport as-is.
func (c *Client) StreamURL(trackID string) string {
	return c.baseURL + "/tracks/" + url.PathEscape(trackID) + "/stream"
}

// ArtworkURL returns the artwork endpoint for a track.
func (c *Client) ArtworkURL(trackID string) string {
	return c.baseURL + "/tracks/" + url.PathEscape(trackID) + "/artwork"
}

// Health verifies the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/health", &struct{}{})
}

// PlaybackTracks converts catalog tracks into queue entries with their
// stream and artwork URLs resolved against this client's server.
func (c *Client) PlaybackTracks(tracks []Track) []playback.Track {
	return lo.Map(tracks, func(t Track, _ int) playback.Track {
		return playback.Track{
			ID:      t.ID,
			Title:   t.Title,
			Artist:  t.ArtistName(),
			URI:     c.StreamURL(t.ID),
			Artwork: c.ArtworkURL(t.ID),
		}
	})
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
