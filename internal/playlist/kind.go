package playlist

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when parsing an unsupported media kind.
var ErrUnknownKind = errors.New("unknown media kind")

// Kind identifies one of the independent media collections.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Kinds lists every media kind in display order.
var Kinds = []Kind{KindAudio, KindVideo}

// ParseKind converts a user supplied string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindAudio:
		return KindAudio, nil
	case KindVideo:
		return KindVideo, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string {
	return string(k)
}

// Label returns the name shown to users.
func (k Kind) Label() string {
	switch k {
	case KindAudio:
		return "Music"
	case KindVideo:
		return "Videos"
	}
	return string(k)
}
