package playlist

import (
	"net/url"
	"path"
	"strings"
)

// Track represents a single playable item of a media collection.
// Tracks are immutable for the duration of a session.
type Track struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	ArtistName      string  `json:"artist_name"`
	MediaURL        string  `json:"media_url"`
	ArtworkURL      string  `json:"artwork_url,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"` // 0 when unknown
}

// IsManifest reports whether the track's media URL points at an HLS manifest.
func (t Track) IsManifest() bool {
	return IsManifestURL(t.MediaURL)
}

// IsManifestURL reports whether src is an HLS manifest (.m3u8), ignoring any
// query string.
func IsManifestURL(src string) bool {
	p := src
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.EqualFold(path.Ext(p), ".m3u8")
}

// Playlist holds an ordered collection of tracks.
type Playlist struct {
	tracks []Track
}

// NewPlaylist creates a playlist holding a copy of tracks.
func NewPlaylist(tracks ...Track) *Playlist {
	p := &Playlist{
		tracks: make([]Track, 0, len(tracks)),
	}
	p.tracks = append(p.tracks, tracks...)
	return p
}

// Add appends tracks to the playlist.
func (p *Playlist) Add(tracks ...Track) {
	p.tracks = append(p.tracks, tracks...)
}

// Replace swaps the whole content of the playlist.
func (p *Playlist) Replace(tracks []Track) {
	p.tracks = append(make([]Track, 0, len(tracks)), tracks...)
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []Track {
	result := make([]Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Track returns the track at the given index, or nil if out of bounds.
func (p *Playlist) Track(index int) *Track {
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	return &p.tracks[index]
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// IndexOf returns the index of the track with the given id, or -1.
func (p *Playlist) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range p.tracks {
		if p.tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// IDs returns the track ids in playlist order.
func (p *Playlist) IDs() []string {
	ids := make([]string, len(p.tracks))
	for i := range p.tracks {
		ids[i] = p.tracks[i].ID
	}
	return ids
}

// Move moves the track at fromIndex to toIndex.
// Returns false if either index is out of bounds.
func (p *Playlist) Move(fromIndex, toIndex int) bool {
	if fromIndex < 0 || fromIndex >= len(p.tracks) {
		return false
	}
	if toIndex < 0 || toIndex >= len(p.tracks) {
		return false
	}
	if fromIndex == toIndex {
		return true
	}

	track := p.tracks[fromIndex]
	// Remove from old position
	p.tracks = append(p.tracks[:fromIndex], p.tracks[fromIndex+1:]...)
	// Insert at new position
	p.tracks = append(p.tracks[:toIndex], append([]Track{track}, p.tracks[toIndex:]...)...)
	return true
}
