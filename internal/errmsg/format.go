// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Track list operations
	OpTracksLoad Op = "load tracks"

	// Playlist order operations
	OpOrderLoad  Op = "load playlist order"
	OpOrderSave  Op = "save playlist order"
	OpOrderClear Op = "reset playlist order"

	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackLoad   Op = "load media"
	OpPlaybackSeek   Op = "seek"
	OpPlaybackSelect Op = "select track"
	OpPlayerSetting  Op = "change player setting"

	// Player state
	OpStateLoad  Op = "load player state"
	OpStateClear Op = "clear player state"

	// Settings
	OpKeySave   Op = "save API key"
	OpKeyDelete Op = "delete API key"

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
