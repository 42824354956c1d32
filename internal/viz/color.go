package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// BodyColor is the display color of body i out of n. Bodies loaded without
// a color get evenly spaced hues.
func BodyColor(c [3]float64, i, n int) colorful.Color {
	if c == ([3]float64{}) {
		if n < 1 {
			n = 1
		}
		return colorful.Hcl(360*float64(i)/float64(n), 0.6, 0.7).Clamped()
	}
	return colorful.Color{R: c[0], G: c[1], B: c[2]}.Clamped()
}

// Palette returns one foreground style per body.
func Palette(colors [][3]float64) []lipgloss.Style {
	styles := make([]lipgloss.Style, len(colors))
	for i, c := range colors {
		hex := BodyColor(c, i, len(colors)).Hex()
		styles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	}
	return styles
}
