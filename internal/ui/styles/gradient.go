package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// fallbackGray stands in for colors that are not #rrggbb hex.
var fallbackGray = colorful.Color{R: 0.5, G: 0.5, B: 0.5}

// Gradient renders text with its color blended from one end to the other.
// Grapheme clusters keep their color as a unit.
func Gradient(text string, from, to lipgloss.Color, bold bool) string {
	var clusters []string
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}

	colors := Blend(len(clusters), from, to)
	var b strings.Builder
	for i, cluster := range clusters {
		b.WriteString(lipgloss.NewStyle().Foreground(colors[i]).Bold(bold).Render(cluster))
	}
	return b.String()
}

// Blend returns n colors going from from to to in HCL space. A single color
// is from itself.
func Blend(n int, from, to lipgloss.Color) []lipgloss.Color {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []lipgloss.Color{from}
	}

	c1, c2 := parseHex(from), parseHex(to)
	out := make([]lipgloss.Color, n)
	if c1 == c2 {
		// HCL round trips are not exact.
		for i := range out {
			out[i] = lipgloss.Color(c1.Hex())
		}
		return out
	}
	for i := range n {
		out[i] = lipgloss.Color(c1.BlendHcl(c2, float64(i)/float64(n-1)).Clamped().Hex())
	}
	return out
}

func parseHex(c lipgloss.Color) colorful.Color {
	col, err := colorful.Hex(string(c))
	if err != nil {
		return fallbackGray
	}
	return col
}
