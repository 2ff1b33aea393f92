package notify

import (
	"testing"

	"github.com/llehouerou/tapdeck/internal/playlist"
)

func TestUrgencyValues(t *testing.T) {
	// Verify urgency constants match the freedesktop values
	if UrgencyLow != 0 || UrgencyNormal != 1 || UrgencyCritical != 2 {
		t.Errorf("urgencies = %d/%d/%d, want 0/1/2", UrgencyLow, UrgencyNormal, UrgencyCritical)
	}
}

func TestNowPlaying(t *testing.T) {
	tests := []struct {
		name      string
		kind      playlist.Kind
		track     playlist.Track
		wantTitle string
		wantBody  string
		wantIcon  string
	}{
		{
			name:      "audio with artist",
			kind:      playlist.KindAudio,
			track:     playlist.Track{Title: " Golden Hour ", ArtistName: "Nova"},
			wantTitle: "Golden Hour",
			wantBody:  "Nova · Music",
			wantIcon:  "audio-x-generic",
		},
		{
			name:      "video without artist",
			kind:      playlist.KindVideo,
			track:     playlist.Track{Title: "Live Set"},
			wantTitle: "Live Set",
			wantBody:  "Videos",
			wantIcon:  "video-x-generic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NowPlaying(tt.kind, tt.track, 7)
			if n.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", n.Title, tt.wantTitle)
			}
			if n.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", n.Body, tt.wantBody)
			}
			if n.Icon != tt.wantIcon {
				t.Errorf("Icon = %q, want %q", n.Icon, tt.wantIcon)
			}
			if n.ReplacesID != 7 {
				t.Errorf("ReplacesID = %d, want 7", n.ReplacesID)
			}
			if n.Urgency != UrgencyLow {
				t.Errorf("Urgency = %d, want low", n.Urgency)
			}
		})
	}
}

func TestSleepFired(t *testing.T) {
	n := SleepFired(playlist.KindAudio)
	if n.Body != "Music paused" {
		t.Errorf("Body = %q, want %q", n.Body, "Music paused")
	}
	if n.ReplacesID != 0 {
		t.Errorf("ReplacesID = %d, want a new notification", n.ReplacesID)
	}
}

func TestNop(t *testing.T) {
	n := Nop()
	id, err := n.Notify(Notification{Title: "x"})
	if id != 0 || err != nil {
		t.Errorf("Notify() = %d, %v, want 0, nil", id, err)
	}
	if err := n.Close(1); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
