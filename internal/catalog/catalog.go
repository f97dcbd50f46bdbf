// Package catalog holds the discretized CIE Lab color space palettes are
// sampled from.
//
// A Catalog is immutable once built and safe for concurrent reads.
package catalog

import (
	"errors"
	"math"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
)

// Grid bounds of the generated catalog. Every axis is sampled every Step
// units starting at the origin.
const (
	Step = 5.0

	MinL, MaxL = 0.0, 100.0
	MinA, MaxA = -85.0, 100.0
	MinB, MaxB = -110.0, 95.0

	// maxChannel admits grid points whose rounded sRGB channels overshoot
	// 255 by a little; no channel may be negative. The overshooting colors
	// exist in the table but are removed by the RGB-only filter. This
	// envelope reproduces the ExpectedSize rows of the reference table.
	maxChannel = 283
)

// ExpectedSize is the row count of the reference Heer & Stone table.
const ExpectedSize = 8325

// ErrInvalidTable is returned when a catalog table does not have the fixed
// layout the sampler depends on.
var ErrInvalidTable = errors.New("invalid color catalog")

// Color is one catalog entry. Hue and Chroma are derived from Lab; RGB is
// unclamped and may lie outside [0,255].
type Color struct {
	Lab    colorspace.Lab `json:"lab"`
	Hue    float64        `json:"hue"`
	Chroma float64        `json:"chroma"`
	RGB    colorspace.RGB `json:"rgb"`
}

// InGamut reports whether the color is displayable in sRGB without clipping.
func (c Color) InGamut() bool { return c.RGB.InGamut() }

// NewColor derives the cylindrical and sRGB coordinates of lab.
func NewColor(lab colorspace.Lab) Color {
	_, chroma, hue := lab.LCh()
	return Color{Lab: lab, Hue: hue, Chroma: chroma, RGB: colorspace.LabToRGBUnclamped(lab)}
}

// Catalog is an ordered, read-only table of colors.
type Catalog struct {
	colors []Color
}

// New builds a catalog from colors. The slice is copied.
func New(colors []Color) *Catalog {
	return &Catalog{colors: append([]Color(nil), colors...)}
}

// Generate builds the catalog procedurally: every grid point whose sRGB
// coordinates lie within the near-gamut envelope. The result always has
// ExpectedSize colors.
func Generate() *Catalog {
	var colors []Color
	for l := MinL; l <= MaxL; l += Step {
		for a := MinA; a <= MaxA; a += Step {
			for b := MinB; b <= MaxB; b += Step {
				c := NewColor(colorspace.Lab{L: l, A: a, B: b})
				if nearGamut(c.RGB) {
					colors = append(colors, c)
				}
			}
		}
	}
	return &Catalog{colors: colors}
}

func nearGamut(c colorspace.RGB) bool {
	in := func(v int) bool { return v >= 0 && v <= maxChannel }
	return in(c.R) && in(c.G) && in(c.B)
}

// Len returns the number of colors.
func (c *Catalog) Len() int { return len(c.colors) }

// At returns the i-th color.
func (c *Catalog) At(i int) Color { return c.colors[i] }

// Colors returns a copy of the table.
func (c *Catalog) Colors() []Color {
	return append([]Color(nil), c.colors...)
}

// Index returns the position of lab in the catalog, or -1.
func (c *Catalog) Index(lab colorspace.Lab) int {
	for i, col := range c.colors {
		if col.Lab == lab {
			return i
		}
	}
	return -1
}

// Start axis lines of the coarse sub-catalog used to draw a palette's first
// color: every third grid line starting at the origin.
var (
	startL  = axisLines(10, 100)
	startAB = axisLines(-105, 90)
)

func axisLines(lo, hi float64) map[float64]bool {
	m := make(map[float64]bool)
	for v := lo; v <= hi; v += 3 * Step {
		m[v] = true
	}
	return m
}

// StartColors returns the colors lying on the coarse starting grid.
func (c *Catalog) StartColors() []Color {
	var out []Color
	for _, col := range c.colors {
		if startL[col.Lab.L] && startAB[col.Lab.A] && startAB[col.Lab.B] {
			out = append(out, col)
		}
	}
	return out
}

func onGrid(v float64) bool {
	r := math.Mod(math.Abs(v), Step)
	return r < 1e-6 || Step-r < 1e-6
}
