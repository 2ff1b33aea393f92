package keymap

// Binding maps keys to an action.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string // "global", "playback", "settings", "tracklist"
}

// All contains every key binding, in help order.
var All = []Binding{
	// Global
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit", "global"},
	{ActionSwitchKind, []string{"tab"}, "Switch media kind", "global"},
	{ActionFocusMini, []string{"m"}, "Focus mini-player", "global"},
	{ActionHelp, []string{"?"}, "Show help", "global"},
	{ActionReload, []string{"r"}, "Reload tracks", "global"},
	{ActionResetOrder, []string{"X"}, "Reset track order", "global"},

	// Playback
	{ActionPlayPause, []string{" "}, "Play/pause", "playback"},
	{ActionNext, []string{"n", "pgdown"}, "Next track", "playback"},
	{ActionPrevious, []string{"p", "pgup"}, "Previous track", "playback"},
	{ActionSeekBack, []string{"left"}, "Seek -5s", "playback"},
	{ActionSeekForward, []string{"right"}, "Seek +5s", "playback"},
	{ActionSeekBackLong, []string{"shift+left"}, "Seek -30s", "playback"},
	{ActionSeekForwardLong, []string{"shift+right"}, "Seek +30s", "playback"},

	// Settings
	{ActionCycleRepeat, []string{"R"}, "Cycle repeat mode", "settings"},
	{ActionToggleShuffle, []string{"S"}, "Toggle shuffle", "settings"},
	{ActionVolumeUp, []string{"+", "="}, "Volume up", "settings"},
	{ActionVolumeDown, []string{"-"}, "Volume down", "settings"},
	{ActionRateUp, []string{"]"}, "Faster", "settings"},
	{ActionRateDown, []string{"["}, "Slower", "settings"},
	{ActionSleepTimer, []string{"z"}, "Cycle sleep timer", "settings"},
	{ActionTrackDelay, []string{"d"}, "Cycle delay between tracks", "settings"},

	// Track list
	{ActionMoveDown, []string{"j", "down"}, "Move down", "tracklist"},
	{ActionMoveUp, []string{"k", "up"}, "Move up", "tracklist"},
	{ActionFirst, []string{"g", "home"}, "First track", "tracklist"},
	{ActionLast, []string{"G", "end"}, "Last track", "tracklist"},
	{ActionHalfDown, []string{"ctrl+d"}, "Half page down", "tracklist"},
	{ActionHalfUp, []string{"ctrl+u"}, "Half page up", "tracklist"},
	{ActionSelect, []string{"enter"}, "Play track", "tracklist"},
	{ActionTrackDown, []string{"J", "shift+down"}, "Move track down", "tracklist"},
	{ActionTrackUp, []string{"K", "shift+up"}, "Move track up", "tracklist"},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range All {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}
