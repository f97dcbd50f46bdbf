package scoring

import (
	"math"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
)

// Schloss & Palmer (2011) pair preference regression weights. The constant
// term is dropped since only relative preference matters.
const (
	weightHue       = -46.4222
	weightLightness = 47.6133
	weightCoolness  = 75.1481
)

// Normalization bounds of the regression inputs. The lightness bound is
// measured under illuminant C.
const (
	coolMax, coolMin = 36.0, 4.0
	hueMax, hueMin   = 179.266981384, 0.033547949
	lightMax         = 63.3673
	lightMin         = 0.0
)

// Illuminant C and D65 reference whites, Y normalized to 100.
var (
	whiteC   = [3]float64{98.074, 100.0, 118.232}
	whiteD65 = [3]float64{95.0470, 100.0, 108.8830}
)

// PairPreference estimates how much observers like x and y shown together.
// Larger is more preferred; values may be negative.
func PairPreference(x, y colorspace.Lab) float64 {
	cx, cy := toIlluminantC(x), toIlluminantC(y)
	lx, _, hx := cx.LCh()
	ly, _, hy := cy.LCh()

	diffL := math.Abs(lx - ly)
	diffH := math.Abs(hx - hy)
	if diffH > 180 {
		diffH = 360 - diffH
	}
	if achromatic(x) || achromatic(y) {
		diffH = 0
	}
	sumC := coolness(x) + coolness(y)

	return weightLightness*norm(diffL, lightMax, lightMin) +
		weightHue*norm(diffH, hueMax, hueMin) +
		weightCoolness*norm(sumC, coolMax, coolMin)
}

func norm(v, high, low float64) float64 {
	return (v - low) / (high - low)
}

func achromatic(c colorspace.Lab) bool {
	return c.A == 0 && c.B == 0
}

// coolness rates a color on the warm (2) to cool (18) scale. Blues are
// coolest, oranges warmest and grays sit in the middle; chroma scales the
// departure from neutral.
func coolness(c colorspace.Lab) float64 {
	_, chroma, h := c.LCh()
	w := math.Min(1, chroma/50)
	return 10 + 8*w*math.Cos((h-225)*math.Pi/180)
}

// toIlluminantC re-expresses a D65 Lab color relative to illuminant C.
func toIlluminantC(c colorspace.Lab) colorspace.Lab {
	fy := (c.L + 16) / 116
	fx := fy + c.A/500
	fz := fy - c.B/200

	x := whiteD65[0] * labInverse(fx)
	y := whiteD65[1] * labInverse(fy)
	z := whiteD65[2] * labInverse(fz)

	gx := labForward(x / whiteC[0])
	gy := labForward(y / whiteC[1])
	gz := labForward(z / whiteC[2])
	return colorspace.Lab{L: 116*gy - 16, A: 500 * (gx - gy), B: 200 * (gy - gz)}
}

const labDelta = 6.0 / 29

func labForward(t float64) float64 {
	if t > labDelta*labDelta*labDelta {
		return math.Cbrt(t)
	}
	return t/(3*labDelta*labDelta) + 4.0/29
}

func labInverse(t float64) float64 {
	if t > labDelta {
		return t * t * t
	}
	return 3 * labDelta * labDelta * (t - 4.0/29)
}
