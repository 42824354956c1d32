package export

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/viz"
)

const background = "#0a0a0a"

// Track is the recorded path of one body.
type Track struct {
	Points []r3.Vec
	Color  [3]float64
}

// Tracks splits recorded snapshots into one track per body.
func Tracks(states [][]r3.Vec, colors [][3]float64) []Track {
	if len(states) == 0 {
		return nil
	}
	tracks := make([]Track, len(states[0]))
	for i := range tracks {
		tracks[i].Points = make([]r3.Vec, 0, len(states))
		if i < len(colors) {
			tracks[i].Color = colors[i]
		}
	}
	for _, positions := range states {
		for i, p := range positions {
			if i < len(tracks) {
				tracks[i].Points = append(tracks[i].Points, p)
			}
		}
	}
	return tracks
}

// OrbitsToSVG draws the x-y projection of every track as its own path, with
// a marker at the last position. Both axes share one scale so circular
// orbits stay circular.
func OrbitsToSVG(tracks []Track, width, height int) string {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, tr := range tracks {
		for _, p := range tr.Points {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		minX, maxX, minY, maxY = -1, 1, -1, 1
	}

	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	span *= 1.2
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	scale := math.Min(float64(width), float64(height)) / span

	toScreen := func(p r3.Vec) (float64, float64) {
		return float64(width)/2 + (p.X-cx)*scale, float64(height)/2 - (p.Y-cy)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	for i, tr := range tracks {
		if len(tr.Points) == 0 {
			continue
		}
		color := viz.BodyColor(tr.Color, i, len(tracks)).Hex()

		sb.WriteString(`<path fill="none" stroke="` + color + `" stroke-width="1.2" stroke-opacity="0.8" d="`)
		for j, p := range tr.Points {
			x, y := toScreen(p)
			if j == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")

		x, y := toScreen(tr.Points[len(tr.Points)-1])
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n", x, y, color)
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// CanvasToSVG converts a Braille canvas to SVG, one dot per set sub-pixel,
// colored by the cell's ink.
func CanvasToSVG(canvas *viz.Canvas, colors [][3]float64, scale float64) string {
	if canvas == nil {
		return ""
	}

	pw, ph := canvas.PixelSize()
	width := float64(pw) * scale
	height := float64(ph) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	// bit for sub-pixel (dx, dy) of a braille cell
	bits := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			pattern := int(canvas.Grid[row][col] - 0x2800)
			if pattern <= 0 {
				continue
			}

			fill := "#888888"
			if ink := canvas.Ink[row][col]; ink >= 0 && ink < len(colors) {
				fill = viz.BodyColor(colors[ink], ink, len(colors)).Hex()
			}

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&bits[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", cx, cy, dotRadius, fill)
				}
			}
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// RenderCanvas draws every track into a fresh canvas through cam, the same
// way the live view draws trails.
func RenderCanvas(tracks []Track, cam *viz.Camera, w, h int) *viz.Canvas {
	c := viz.NewCanvas(w, h)
	pw, ph := c.PixelSize()
	for i, tr := range tracks {
		for _, p := range tr.Points {
			if x, y, _, ok := cam.Project(p, pw, ph); ok {
				c.SetInk(x, y, i)
			}
		}
	}
	return c
}
