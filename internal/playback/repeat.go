package playback

// RepeatMode defines the repeat behavior. It is pure policy state:
// navigation never consults it, and the transport applies the actual
// looping at track boundaries.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatQueue
	RepeatTrack
)

// Cycle advances to the next mode in the fixed order
// off -> queue -> track -> off.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatQueue
	case RepeatQueue:
		return RepeatTrack
	default:
		return RepeatOff
	}
}

// String returns the mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatQueue:
		return "Queue"
	case RepeatTrack:
		return "Track"
	default:
		return "Unknown"
	}
}
