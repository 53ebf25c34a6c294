package annotate

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// labelColor maps a category label to a stable, saturated color. The hue is
// derived from a hash of the label so the mapping survives restarts and is
// identical across images.
func labelColor(label string) color.NRGBA {
	h := fnv.New32a()
	h.Write([]byte(label))
	hue := float64(h.Sum32() % 360)

	r, g, b := colorful.Hsv(hue, 0.85, 0.95).RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
