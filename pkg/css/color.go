package css

import (
	"strconv"
	"strings"
)

type Color struct {
	R, G, B uint8
	A       float64
}

var (
	Transparent = Color{}
	Black       = Color{0, 0, 0, 1}
)

var namedColors = map[string]Color{
	"red":         {255, 0, 0, 1},
	"green":       {0, 128, 0, 1},
	"blue":        {0, 0, 255, 1},
	"yellow":      {255, 255, 0, 1},
	"cyan":        {0, 255, 255, 1},
	"magenta":     {255, 0, 255, 1},
	"white":       {255, 255, 255, 1},
	"black":       {0, 0, 0, 1},
	"gray":        {128, 128, 128, 1},
	"grey":        {128, 128, 128, 1},
	"orange":      {255, 165, 0, 1},
	"purple":      {128, 0, 128, 1},
	"pink":        {255, 192, 203, 1},
	"brown":       {165, 42, 42, 1},
	"lime":        {0, 255, 0, 1},
	"navy":        {0, 0, 128, 1},
	"teal":        {0, 128, 128, 1},
	"silver":      {192, 192, 192, 1},
	"transparent": {0, 0, 0, 0},
}

// ParseColor understands named colors, #rgb, #rrggbb and #rrggbbaa.
func ParseColor(colorStr string) (Color, bool) {
	colorStr = strings.ToLower(strings.TrimSpace(colorStr))
	if c, ok := namedColors[colorStr]; ok {
		return c, true
	}
	if !strings.HasPrefix(colorStr, "#") {
		return Color{}, false
	}
	hex := colorStr[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, false
	}
	if len(hex) == 6 {
		return Color{uint8(v >> 16), uint8(v >> 8), uint8(v), 1}, true
	}
	return Color{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), float64(uint8(v)) / 255}, true
}
