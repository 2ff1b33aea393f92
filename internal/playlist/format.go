package playlist

import (
	"math"
	"strconv"
)

// FormatSeconds formats a position in seconds as M:SS (H:MM:SS past an hour).
func FormatSeconds(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return strconv.Itoa(h) + ":" + padInt(m) + ":" + padInt(s)
	}
	return strconv.Itoa(m) + ":" + padInt(s)
}

func padInt(n int) string {
	if n < 10 {
		return "0" + string(rune('0'+n))
	}
	return strconv.Itoa(n)
}
