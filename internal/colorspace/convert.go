// Package colorspace converts between CIE Lab (D65) and 8-bit sRGB.
//
// The constants follow the D3 v3 / Heer & Stone reference implementation
// used to build the color catalog, including its gamma breakpoint of
// 0.00304, so converted values line up with catalog entries.
package colorspace

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// D65 reference white.
const (
	whiteX = 0.950470
	whiteY = 1.0
	whiteZ = 1.088830
)

const (
	labBreak   = 0.206893034
	labSlope   = 7.787037
	labOffset  = 4.0 / 29
	xyzBreak   = 0.008856
	gammaBreak = 0.00304
)

// Lab is a CIE L*a*b* color under illuminant D65.
type Lab struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// RGB is an 8-bit sRGB color. Channels are in [0,255] when produced by
// LabToRGB; LabToRGBUnclamped may return values outside that range.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// String formats the color the way CSS does.
func (c Lab) String() string {
	return fmt.Sprintf("lab(%g,%g,%g)", c.L, c.A, c.B)
}

// LCh returns the cylindrical lightness, chroma and hue angle in [0,360).
// Achromatic colors have hue 0.
func (c Lab) LCh() (l, chroma, hue float64) {
	hue = math.Atan2(c.B, c.A) * 180 / math.Pi
	if hue < 0 {
		hue += 360
	}
	return c.L, math.Hypot(c.A, c.B), hue
}

// Snap rounds each axis to the nearest multiple of 5, the catalog grid.
func Snap(c Lab) Lab {
	return Lab{L: snap5(c.L), A: snap5(c.A), B: snap5(c.B)}
}

func snap5(v float64) float64 {
	r := 5 * math.Round(v/5)
	if r == 0 {
		return 0 // no negative zero
	}
	return r
}

// InGamut reports whether all channels are displayable.
func (c RGB) InGamut() bool {
	return c.R >= 0 && c.R <= 255 && c.G >= 0 && c.G <= 255 && c.B >= 0 && c.B <= 255
}

// String formats the color as a CSS rgb() value.
func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// Hex returns the #rrggbb form of a clamped color.
func (c RGB) Hex() string {
	return c.colorful().Hex()
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{R: float64(clamp8(c.R)) / 255, G: float64(clamp8(c.G)) / 255, B: float64(clamp8(c.B)) / 255}
}

// ParseHex parses #rgb or #rrggbb.
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("parse hex color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: int(r), G: int(g), B: int(b)}, nil
}

// LabToRGB converts a Lab color to sRGB, clamping every channel to [0,255].
func LabToRGB(c Lab) RGB {
	u := LabToRGBUnclamped(c)
	return RGB{R: clamp8(u.R), G: clamp8(u.G), B: clamp8(u.B)}
}

// LabToRGBUnclamped converts a Lab color to rounded sRGB channels without
// clamping. Out-of-gamut colors have channels below 0 or above 255.
func LabToRGBUnclamped(c Lab) RGB {
	y := (c.L + 16) / 116
	x := y + c.A/500
	z := y - c.B/200

	x = whiteX * labToXYZ(x)
	y = whiteY * labToXYZ(y)
	z = whiteZ * labToXYZ(z)

	r := 3.2404542*x - 1.5371385*y - 0.4985314*z
	g := -0.9692660*x + 1.8760108*y + 0.0415560*z
	b := 0.0556434*x - 0.2040259*y + 1.0572252*z

	return RGB{
		R: int(math.Round(255 * compand(r))),
		G: int(math.Round(255 * compand(g))),
		B: int(math.Round(255 * compand(b))),
	}
}

// RGBToLab converts an sRGB color back to Lab. It is the approximate inverse
// of LabToRGB; rounding in the forward direction makes round trips inexact.
func RGBToLab(c RGB) Lab {
	r := linearize(float64(c.R) / 255)
	g := linearize(float64(c.G) / 255)
	b := linearize(float64(c.B) / 255)

	x := (0.4124564*r + 0.3575761*g + 0.1804375*b) / whiteX
	y := (0.2126729*r + 0.7151522*g + 0.0721750*b) / whiteY
	z := (0.0193339*r + 0.1191920*g + 0.9503041*b) / whiteZ

	x = xyzToLab(x)
	y = xyzToLab(y)
	z = xyzToLab(z)

	return Lab{L: 116*y - 16, A: 500 * (x - y), B: 200 * (y - z)}
}

func labToXYZ(t float64) float64 {
	if t > labBreak {
		return t * t * t
	}
	return (t - labOffset) / labSlope
}

func xyzToLab(t float64) float64 {
	if t > xyzBreak {
		return math.Cbrt(t)
	}
	return labSlope*t + labOffset
}

func compand(v float64) float64 {
	if v <= gammaBreak {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

func linearize(v float64) float64 {
	if v <= gammaBreak {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func clamp8(v int) int {
	return max(0, min(v, 255))
}
