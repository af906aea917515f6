package markers

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// NamedColor is one of the fixed debug colors.
type NamedColor int

// The debug palette.
const (
	Red NamedColor = iota
	Green
	Blue
	White
	Grey
	DarkGrey
	Black
	Yellow
	Orange
	Brown
	Pink
	LimeGreen
	Purple
	Cyan
	Magenta
	Clear
)

var palette = map[NamedColor]Color{
	Red:       mustHex("#ff0000"),
	Green:     mustHex("#00ff00"),
	Blue:      mustHex("#0000ff"),
	White:     mustHex("#ffffff"),
	Grey:      mustHex("#e6e6e6"),
	DarkGrey:  mustHex("#666666"),
	Black:     mustHex("#000000"),
	Yellow:    mustHex("#ffff00"),
	Orange:    mustHex("#ff8000"),
	Brown:     mustHex("#8c4d00"),
	Pink:      mustHex("#ff66ff"),
	LimeGreen: mustHex("#32cd32"),
	Purple:    mustHex("#800080"),
	Cyan:      mustHex("#00ffff"),
	Magenta:   mustHex("#ff00ff"),
	Clear:     mustHex("#000000"),
}

func mustHex(hex string) Color {
	c, err := ColorFromHex(hex, 1)
	if err != nil {
		panic(err)
	}
	return c
}

// GetColor returns a palette color with the given alpha. Clear is always fully transparent.
func GetColor(name NamedColor, alpha float64) Color {
	c, ok := palette[name]
	if !ok {
		c = palette[White]
	}
	if name == Clear {
		alpha = 0
	}
	c.A = alpha
	return c
}

// SetColor sets a marker's color to a palette color with the given alpha.
func SetColor(m *Marker, name NamedColor, alpha float64) {
	m.Color = GetColor(name, alpha)
}

// ColorFromHex parses a "#rrggbb" string.
func ColorFromHex(hex string, alpha float64) (Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, errors.Wrapf(err, "bad color %q", hex)
	}
	return Color{R: c.R, G: c.G, B: c.B, A: alpha}, nil
}

// RGBA converts the color for use with image and plotting libraries.
func (c Color) RGBA() color.NRGBA {
	r, g, b := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().RGB255()
	a := c.A
	switch {
	case a < 0:
		a = 0
	case a > 1:
		a = 1
	}
	return color.NRGBA{R: r, G: g, B: b, A: uint8(a*255 + 0.5)}
}
