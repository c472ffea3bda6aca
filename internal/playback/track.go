package playback

// Track is one playable entry in the queue. The URI is an already
// resolved playable location; the engine never negotiates ranges or
// redirects itself. Immutable once constructed.
type Track struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	URI     string `json:"uri"`
	Artwork string `json:"artwork,omitempty"`
}
