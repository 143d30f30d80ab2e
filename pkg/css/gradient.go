package css

import (
	"math"
	"strconv"
	"strings"
)

type StopUnit uint8

const (
	StopAuto StopUnit = iota
	StopPercent
	StopPx
)

// ColorStop is one color of a gradient. Pos is a fraction for StopPercent and
// pixels for StopPx.
type ColorStop struct {
	Color Color
	Pos   float64
	Unit  StopUnit
}

// LinearGradient is a linear-gradient() background image. Angle is in
// degrees clockwise from "to top".
type LinearGradient struct {
	Angle float64
	Stops []ColorStop
}

var sideAngles = map[string]float64{
	"to top": 0, "to right": 90, "to bottom": 180, "to left": 270,
	"to top right": 45, "to right top": 45,
	"to bottom right": 135, "to right bottom": 135,
	"to bottom left": 225, "to left bottom": 225,
	"to top left": 315, "to left top": 315,
}

// ParseLinearGradient parses linear-gradient(direction?, stop, stop, ...).
// Corner directions use a fixed 45 degree diagonal.
func ParseLinearGradient(v string) (*LinearGradient, error) {
	inner, ok := strings.CutPrefix(strings.ToLower(strings.TrimSpace(v)), "linear-gradient(")
	if !ok || !strings.HasSuffix(inner, ")") {
		return nil, invalid(v)
	}
	parts := splitTopLevel(strings.TrimSuffix(inner, ")"), ',')

	g := &LinearGradient{Angle: 180}
	if len(parts) > 0 {
		first := strings.Join(strings.Fields(parts[0]), " ")
		if a, ok := sideAngles[first]; ok {
			g.Angle = a
			parts = parts[1:]
		} else if a, ok := parseAngle(first); ok {
			g.Angle = a
			parts = parts[1:]
		}
	}
	for _, p := range parts {
		stop, ok := parseColorStop(p)
		if !ok {
			return nil, invalid(v)
		}
		g.Stops = append(g.Stops, stop)
	}
	if len(g.Stops) < 2 {
		return nil, invalid(v)
	}
	return g, nil
}

func parseAngle(s string) (float64, bool) {
	units := []struct {
		suffix string
		scale  float64
	}{{"deg", 1}, {"grad", 0.9}, {"rad", 180 / math.Pi}, {"turn", 360}}
	for _, u := range units {
		if num, ok := strings.CutSuffix(s, u.suffix); ok {
			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, false
			}
			return f * u.scale, true
		}
	}
	return 0, false
}

func parseColorStop(s string) (ColorStop, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return ColorStop{}, false
	}
	col, ok := ParseColor(fields[0])
	if !ok {
		return ColorStop{}, false
	}
	stop := ColorStop{Color: col}
	if len(fields) == 1 {
		return stop, true
	}
	pos := fields[1]
	var err error
	switch {
	case strings.HasSuffix(pos, "%"):
		stop.Unit = StopPercent
		stop.Pos, err = strconv.ParseFloat(strings.TrimSuffix(pos, "%"), 64)
		stop.Pos /= 100
	case strings.HasSuffix(pos, "px"):
		stop.Unit = StopPx
		stop.Pos, err = strconv.ParseFloat(strings.TrimSuffix(pos, "px"), 64)
	case pos == "0":
		stop.Unit = StopPx
	default:
		return ColorStop{}, false
	}
	return stop, err == nil
}

// splitTopLevel splits s at sep outside parentheses.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	depth, start := 0, 0
	for i, ch := range s {
		switch {
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

// Offsets resolves the stops against a gradient line of the given length.
// The first and last stops default to 0 and 1, other missing positions are
// spread evenly between their neighbours, and no offset is smaller than the
// one before it.
func (g *LinearGradient) Offsets(length float64) []float64 {
	n := len(g.Stops)
	out := make([]float64, n)
	set := make([]bool, n)
	for i, s := range g.Stops {
		switch s.Unit {
		case StopPercent:
			out[i], set[i] = s.Pos, true
		case StopPx:
			if length > 0 {
				out[i] = s.Pos / length
			}
			set[i] = true
		}
	}
	if !set[0] {
		out[0], set[0] = 0, true
	}
	if !set[n-1] {
		out[n-1], set[n-1] = max(1, out[0]), true
	}
	for i := 1; i < n; i++ {
		out[i] = max(out[i], out[i-1])
		if set[i] {
			continue
		}
		next := i + 1
		for !set[next] {
			next++
		}
		step := (max(out[next], out[i-1]) - out[i-1]) / float64(next-i+1)
		for j := i; j < next; j++ {
			out[j] = out[i-1] + step*float64(j-i+1)
			set[j] = true
		}
	}
	return out
}

// Line returns the gradient line for a w×h box, relative to its top left
// corner, and the line length.
func (g *LinearGradient) Line(w, h float64) (x0, y0, x1, y1, length float64) {
	rad := g.Angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	length = math.Abs(w*sin) + math.Abs(h*cos)
	dx, dy := sin*length/2, -cos*length/2
	cx, cy := w/2, h/2
	return cx - dx, cy - dy, cx + dx, cy + dy, length
}
