package playback

import "encoding/json"

// stateKey is the persistence key for the queue snapshot.
const stateKey = "player_state"

// snapshot is the durable record of the queue: contents and position.
// Live playback fields (position, playing) are deliberately excluded;
// a restore always starts paused at the head of the saved track.
type snapshot struct {
	Queue []Track `json:"queue"`
	Index int     `json:"index"`
}

func encodeSnapshot(s snapshot) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeSnapshot parses a stored payload. Malformed payloads report
// ok=false and are treated as absent; a format change must never make
// startup fail.
func decodeSnapshot(raw string) (snapshot, bool) {
	var s snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return snapshot{}, false
	}
	return s, true
}
