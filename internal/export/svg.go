// Package export renders simulation frames as standalone SVG documents.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/scene"
	"github.com/san-kum/ballpit/internal/sim"
	"github.com/san-kum/ballpit/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// FrameToSVG draws the container and every ball of frame in a size x size
// image, y up. colors is indexed like frame.Pos; balls past its end are
// drawn white.
func FrameToSVG(frame dynamo.Frame, params sim.Params, colors []scene.Color, size int) string {
	var sb strings.Builder
	s := float64(size)
	header(&sb, s, s)

	c := s / 2
	scale := (s - 2) / (2 * params.ContainerRadius)
	fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="#888888"/>
`, c, c, params.ContainerRadius*scale)

	r := params.ParticleRadius * scale
	for i, p := range frame.Pos {
		fill := "#ffffff"
		if i < len(colors) {
			fill = hex(colors[i])
		}
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, c+p.X*scale, c-p.Y*scale, r, fill)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func hex(c scene.Color) string {
	byteOf := func(v float64) int {
		return max(0, min(int(v*255+0.5), 255))
	}
	return fmt.Sprintf("#%02x%02x%02x", byteOf(c.R), byteOf(c.G), byteOf(c.B))
}

// CanvasToSVG converts a braille canvas to SVG, one dot per set pixel.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	w, h := canvas.Dots()
	var sb strings.Builder
	header(&sb, float64(w)*scale, float64(h)*scale)
	sb.WriteString(`<g fill="#00ff00">` + "\n")

	dotRadius := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// Trajectory collects the position of one ball over frames. Frames in
// which the ball does not exist yet are skipped.
func Trajectory(frames []dynamo.Frame, index int) []dynamo.Vec {
	pts := make([]dynamo.Vec, 0, len(frames))
	for _, f := range frames {
		if index < len(f.Pos) {
			pts = append(pts, f.Pos[index])
		}
	}
	return pts
}

// TrajectoryToSVG draws points as a single path fitted to the image with
// 10% padding.
func TrajectoryToSVG(points []dynamo.Vec, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
