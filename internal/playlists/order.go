// Package playlists keeps the user's custom track order for each media kind.
package playlists

import (
	"github.com/samber/lo"

	"github.com/llehouerou/tapdeck/internal/playlist"
)

// Record is the per-user order record held by the remote tier.
type Record struct {
	UserID     string   `json:"user_id"`
	AudioOrder []string `json:"audio_order"`
	VideoOrder []string `json:"video_order"`
}

// Order returns the saved order of kind.
func (r *Record) Order(kind playlist.Kind) []string {
	if r == nil {
		return nil
	}
	if kind == playlist.KindVideo {
		return r.VideoOrder
	}
	return r.AudioOrder
}

// ApplyOrder arranges items by order. Items whose id is in order come first,
// in saved order. Ids in order that match no item are skipped. Remaining items
// follow in their original relative order. An empty order returns items as is.
func ApplyOrder[T any](items []T, order []string, id func(T) string) []T {
	if len(order) == 0 {
		return items
	}

	byID := lo.KeyBy(items, id)
	out := make([]T, 0, len(items))
	used := make(map[string]struct{}, len(order))
	for _, key := range order {
		item, ok := byID[key]
		if !ok {
			continue
		}
		if _, dup := used[key]; dup {
			continue
		}
		used[key] = struct{}{}
		out = append(out, item)
	}
	for _, item := range items {
		if _, ok := used[id(item)]; !ok {
			out = append(out, item)
		}
	}
	return out
}

// ApplyTrackOrder is ApplyOrder over tracks.
func ApplyTrackOrder(tracks []playlist.Track, order []string) []playlist.Track {
	return ApplyOrder(tracks, order, func(t playlist.Track) string { return t.ID })
}
