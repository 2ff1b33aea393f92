// Package notify provides desktop notifications via D-Bus.
package notify

import (
	"strings"

	"github.com/llehouerou/tapdeck/internal/playlist"
)

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// trackTimeout is how long a now-playing notification stays up, in ms.
const trackTimeout = 5000

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, supports basic markup)
	Icon       string  // Path to image file or icon name (optional)
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency // Low, Normal, Critical
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// NowPlaying builds the notification shown when a track starts. replaces is
// the ID of the previous notification of the same kind, or 0.
func NowPlaying(kind playlist.Kind, track playlist.Track, replaces uint32) Notification {
	icon := "audio-x-generic"
	if kind == playlist.KindVideo {
		icon = "video-x-generic"
	}
	body := kind.Label()
	if track.ArtistName != "" {
		body = track.ArtistName + " · " + body
	}
	return Notification{
		Title:      strings.TrimSpace(track.Title),
		Body:       body,
		Icon:       icon,
		Timeout:    trackTimeout,
		ReplacesID: replaces,
		Urgency:    UrgencyLow,
	}
}

// SleepFired builds the notification shown when the sleep timer pauses kind.
func SleepFired(kind playlist.Kind) Notification {
	return Notification{
		Title:   "Sleep timer",
		Body:    kind.Label() + " paused",
		Icon:    "media-playback-pause",
		Timeout: -1,
		Urgency: UrgencyNormal,
	}
}
