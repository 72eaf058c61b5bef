package export

import (
	"image/color"
	"math"
	"strconv"
	"strings"
)

var namedColors = map[string]color.NRGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"transparent": {0, 0, 0, 0},
}

// parseColor understands #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba()
// and a handful of names. The result's alpha is scaled by opacity.
func parseColor(s string, opacity float64) (color.NRGBA, bool) {
	c, ok := parseCSSColor(strings.ToLower(strings.TrimSpace(s)))
	if !ok {
		return color.NRGBA{}, false
	}
	c.A = uint8(math.Round(float64(c.A) * clamp01(opacity)))
	return c, true
}

func parseCSSColor(s string) (color.NRGBA, bool) {
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	for _, prefix := range []string{"rgba(", "rgb("} {
		if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, ")") {
			return parseRGBFunc(s[len(prefix) : len(s)-1])
		}
	}
	return color.NRGBA{}, false
}

func parseHex(h string) (color.NRGBA, bool) {
	switch len(h) {
	case 3, 4:
		expanded := make([]byte, 0, len(h)*2)
		for i := 0; i < len(h); i++ {
			expanded = append(expanded, h[i], h[i])
		}
		h = string(expanded)
	case 6, 8:
	default:
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	if len(h) == 6 {
		return color.NRGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, true
	}
	return color.NRGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, true
}

func parseRGBFunc(args string) (color.NRGBA, bool) {
	parts := strings.Split(args, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, false
	}
	var ch [3]uint8
	for i := range 3 {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return color.NRGBA{}, false
		}
		ch[i] = uint8(math.Round(math.Max(0, math.Min(255, v))))
	}
	a := 1.0
	if len(parts) == 4 {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return color.NRGBA{}, false
		}
		a = clamp01(v)
	}
	return color.NRGBA{ch[0], ch[1], ch[2], uint8(math.Round(a * 255))}, true
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
