// Package batchcolor derives deterministic display colors for batches.
//
// Batch numbers of the form YY-CODE-NNN (e.g. 25-HTS-30) get a base color
// from CODE and a lightness shade from NNN, so sequential batches in the
// same campaign stay visually distinct. Red hues are excluded; red is
// reserved for the today marker.
package batchcolor

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mbakke/floorline/internal/models"
)

var numberPattern = regexp.MustCompile(`^(\d{1,4})-([A-Za-z0-9]+)-(\d{1,6})$`)

// Base colors for known campaign codes.
var campaignColors = map[string]string{
	"HTS": "#0078D4",
	"CIQ": "#16C60C",
	"MIA": "#00B7C3",
}

// Accent palette for unknown campaign codes, reds removed.
var accentPalette = []string{
	"#0078D4",
	"#16C60C",
	"#00B7C3",
	"#FFB900",
	"#8E8CD8",
	"#F7630C",
	"#B4009E",
	"#2D7D9A",
	"#5C2D91",
	"#FF8C00",
}

const shadeCount = 7

// Key returns the color lookup key for a batch: the batch number when set,
// the id otherwise.
func Key(b models.Batch) string {
	return models.BatchKey(b)
}

// Color returns a CSS-style color string for a batch key. The same key
// always yields the same color.
func Color(key string) string {
	m := numberPattern.FindStringSubmatch(key)
	if m == nil {
		// Fallback: hash the whole key onto the hue wheel.
		hue := hashString(key) % 360
		return fmt.Sprintf("hsl(%d, 68%%, 44%%)", hue)
	}

	code := strings.ToUpper(m[2])
	seq, _ := strconv.Atoi(m[3])
	shade := seq % shadeCount

	if base, ok := campaignColors[code]; ok {
		h, s, _ := hexToHSL(base)
		// Lightness ladder from 30% to 70% across the shade steps.
		light := 30 + shade*(70-30)/(shadeCount-1)
		return fmt.Sprintf("hsl(%d, %d%%, %d%%)", h, s, light)
	}

	base := accentPalette[hashString(code)%len(accentPalette)]
	mix := 0.15 + 0.12*float64(shade)
	return mixWithWhite(base, mix)
}

// Hex converts any color Color can produce into #rrggbb for terminal
// styling. Unparseable values pass through unchanged.
func Hex(color string) string {
	color = strings.TrimSpace(color)
	switch {
	case strings.HasPrefix(color, "#"):
		return color
	case strings.HasPrefix(color, "rgb("):
		var r, g, b int
		if _, err := fmt.Sscanf(color, "rgb(%d,%d,%d)", &r, &g, &b); err != nil {
			return color
		}
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	case strings.HasPrefix(color, "hsl("):
		var h, s, l int
		if _, err := fmt.Sscanf(color, "hsl(%d, %d%%, %d%%)", &h, &s, &l); err != nil {
			return color
		}
		r, g, b := hslToRGB(float64(h), float64(s)/100, float64(l)/100)
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
	return color
}

func hslToRGB(h, s, l float64) (int, int, int) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return int(math.Round((r + m) * 255)), int(math.Round((g + m) * 255)), int(math.Round((b + m) * 255))
}

// hashString is the same shift-and-add hash the legacy UI used, kept so
// colors stay stable for records scheduled under the old board.
func hashString(s string) int {
	h := int32(0)
	for _, c := range s {
		h = (h << 5) - h + int32(c)
	}
	if h < 0 {
		return int(-h)
	}
	return int(h)
}

func hexToHSL(hex string) (h, s, l int) {
	num, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 64)
	if err != nil {
		return 0, 0, 50
	}
	r := float64((num>>16)&0xff) / 255
	g := float64((num>>8)&0xff) / 255
	b := float64(num&0xff) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	lf := (max + min) / 2

	var hf, sf float64
	if max != min {
		d := max - min
		if lf > 0.5 {
			sf = d / (2 - max - min)
		} else {
			sf = d / (max + min)
		}
		switch max {
		case r:
			hf = (g - b) / d
			if g < b {
				hf += 6
			}
		case g:
			hf = (b-r)/d + 2
		case b:
			hf = (r-g)/d + 4
		}
		hf /= 6
	}
	return int(math.Round(hf * 360)), int(math.Round(sf * 100)), int(math.Round(lf * 100))
}

func mixWithWhite(hex string, percent float64) string {
	num, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 64)
	if err != nil {
		return hex
	}
	r := float64((num >> 16) & 0xff)
	g := float64((num >> 8) & 0xff)
	b := float64(num & 0xff)
	mix := func(c float64) int {
		return int(math.Round(c + (255-c)*percent))
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", mix(r), mix(g), mix(b))
}
