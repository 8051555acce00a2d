package export

import (
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"strings"
)

var ErrNoData = errors.New("export: not enough points")

// Curve is one polyline sharing the plot's x values.
type Curve struct {
	Label  string
	Stroke string
	Y      []float64
}

// CurvesToSVG draws curves over a common x axis. Bounds cover every curve,
// padded by 10%.
func CurvesToSVG(w io.Writer, x []float64, curves []Curve, width, height int) error {
	if len(x) < 2 || len(curves) == 0 {
		return ErrNoData
	}
	for _, c := range curves {
		if len(c.Y) != len(x) {
			return fmt.Errorf("curve %q: %d points for %d x values", c.Label, len(c.Y), len(x))
		}
	}

	minX, maxX := bounds(x)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, c := range curves {
		lo, hi := bounds(c.Y)
		minY, maxY = math.Min(minY, lo), math.Max(maxY, hi)
	}
	minX, maxX = pad(minX, maxX)
	minY, maxY = pad(minY, maxY)
	rangeX, rangeY := maxX-minX, maxY-minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	if minY < 0 && maxY > 0 {
		zy := float64(height) - (0-minY)/rangeY*float64(height)
		fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#333344" stroke-width="1"/>
`, zy, width, zy)
	}

	for i, c := range curves {
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, html.EscapeString(c.Stroke))
		for k := range x {
			px := (x[k] - minX) / rangeX * float64(width)
			py := float64(height) - (c.Y[k]-minY)/rangeY*float64(height)
			if k == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", px, py)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", px, py)
			}
		}
		sb.WriteString("\"/>\n")
		if c.Label != "" {
			fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16+14*i, html.EscapeString(c.Stroke), html.EscapeString(c.Label))
		}
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func bounds(v []float64) (float64, float64) {
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	return lo, hi
}

func pad(lo, hi float64) (float64, float64) {
	r := hi - lo
	if r == 0 {
		r = 1
	}
	return lo - r*0.1, hi + r*0.1
}
