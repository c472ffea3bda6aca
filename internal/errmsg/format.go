// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Queue operations
	OpQueueLoad    Op = "load queue"
	OpQueueRestore Op = "restore queue"
	OpQueueSave    Op = "save queue"
	OpQueueRemove  Op = "remove track from queue"
	OpQueueInsert  Op = "insert track into queue"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackPause Op = "pause playback"
	OpPlaybackSeek  Op = "seek"
	OpPlaybackNext  Op = "skip to next track"
	OpPlaybackPrev  Op = "skip to previous track"
	OpPlaybackJump  Op = "jump to track"
	OpShuffleToggle Op = "toggle shuffle"
	OpRepeatCycle   Op = "change repeat mode"

	// Transport operations
	OpTransportStart Op = "start playback engine"
	OpTransportStop  Op = "stop playback engine"

	// State store operations
	OpStateOpen  Op = "open state database"
	OpStateRead  Op = "read saved state"
	OpStateWrite Op = "write saved state"

	// Catalog operations
	OpCatalogList  Op = "list catalog tracks"
	OpCatalogFetch Op = "fetch track details"

	// Stream operations
	OpStreamServe Op = "serve track stream"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
