package playback

import (
	"math/rand/v2"

	"github.com/samber/lo"
)

// shuffled returns a new ordering of queue with the track at current
// kept first and the remainder uniformly permuted (Fisher-Yates).
// current must be a valid index.
func shuffled(queue []Track, current int) []Track {
	rest := make([]Track, 0, len(queue)-1)
	rest = append(rest, queue[:current]...)
	rest = append(rest, queue[current+1:]...)

	rand.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	result := make([]Track, 0, len(queue))
	result = append(result, queue[current])
	return append(result, rest...)
}

// indexByID locates a track id in tracks, or -1.
func indexByID(tracks []Track, id string) int {
	_, idx, _ := lo.FindIndexOf(tracks, func(t Track) bool {
		return t.ID == id
	})
	return idx
}
