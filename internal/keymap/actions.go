// Package keymap defines key bindings and action dispatch for the application.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	// Global actions
	ActionQuit       Action = "quit"
	ActionSwitchKind Action = "switch_kind"
	ActionFocusMini  Action = "focus_mini"
	ActionHelp       Action = "help"
	ActionReload     Action = "reload_tracks"
	ActionResetOrder Action = "reset_order"

	// Playback actions
	ActionPlayPause       Action = "play_pause"
	ActionNext            Action = "next"
	ActionPrevious        Action = "previous"
	ActionSeekBack        Action = "seek_back"
	ActionSeekForward     Action = "seek_forward"
	ActionSeekBackLong    Action = "seek_back_long"
	ActionSeekForwardLong Action = "seek_forward_long"

	// Player settings
	ActionCycleRepeat   Action = "cycle_repeat"
	ActionToggleShuffle Action = "toggle_shuffle"
	ActionVolumeUp      Action = "volume_up"
	ActionVolumeDown    Action = "volume_down"
	ActionRateUp        Action = "rate_up"
	ActionRateDown      Action = "rate_down"
	ActionSleepTimer    Action = "sleep_timer"
	ActionTrackDelay    Action = "track_delay"

	// Track list actions
	ActionMoveUp    Action = "move_up"
	ActionMoveDown  Action = "move_down"
	ActionFirst     Action = "first"
	ActionLast      Action = "last"
	ActionHalfDown  Action = "half_page_down"
	ActionHalfUp    Action = "half_page_up"
	ActionSelect    Action = "select"
	ActionTrackUp   Action = "track_up"
	ActionTrackDown Action = "track_down"
)
