package backend

import "github.com/llehouerou/tapdeck/internal/playlist"

// artistRef is the embedded artists(name) resource.
type artistRef struct {
	Name string `json:"name"`
}

// audioRow is a row of the audio_tracks table.
type audioRow struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	AudioURL      string     `json:"audio_url"`
	CoverImageURL string     `json:"cover_image_url"`
	Duration      *float64   `json:"duration"`
	Artist        *artistRef `json:"artists"`
}

func (r audioRow) track() playlist.Track {
	return playlist.Track{
		ID:              r.ID,
		Title:           r.Title,
		ArtistName:      artistName(r.Artist),
		MediaURL:        r.AudioURL,
		ArtworkURL:      r.CoverImageURL,
		DurationSeconds: durationOf(r.Duration),
	}
}

// videoRow is a row of the video_tracks table.
type videoRow struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	VideoURL     string     `json:"video_url"`
	ThumbnailURL string     `json:"thumbnail_url"`
	Duration     *float64   `json:"duration"`
	Artist       *artistRef `json:"artists"`
}

func (r videoRow) track() playlist.Track {
	return playlist.Track{
		ID:              r.ID,
		Title:           r.Title,
		ArtistName:      artistName(r.Artist),
		MediaURL:        r.VideoURL,
		ArtworkURL:      r.ThumbnailURL,
		DurationSeconds: durationOf(r.Duration),
	}
}

func artistName(a *artistRef) string {
	if a == nil {
		return ""
	}
	return a.Name
}

func durationOf(d *float64) float64 {
	if d == nil || *d < 0 {
		return 0
	}
	return *d
}

// analyticsRow is an insert into analytics_events.
type analyticsRow struct {
	EventType string         `json:"event_type"`
	Metadata  map[string]any `json:"metadata"`
}
