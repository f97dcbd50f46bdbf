package scoring

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
)

// Analytic scores colors with closed-form models: CIEDE2000 distance, the
// Schloss & Palmer pair preference regression, and name metrics derived from
// a soft assignment to basic color terms. It is safe for concurrent use.
type Analytic struct {
	terms *termModel
}

// NewAnalytic returns a ready Analytic scorer.
func NewAnalytic() *Analytic {
	return &Analytic{terms: newTermModel(basicTerms, termSigma)}
}

// Score implements Scorer.
func (s *Analytic) Score(pairs []Pair) ([]PairScore, error) {
	out := make([]PairScore, len(pairs))
	for i, p := range pairs {
		da := s.terms.distribution(p.A)
		db := s.terms.distribution(p.B)
		out[i] = PairScore{
			DE:  CIEDE2000(p.A, p.B),
			ND:  nameDifference(da, db),
			PP:  PairPreference(p.A, p.B),
			NU1: nameUniqueness(da),
			NU2: nameUniqueness(db),
		}
	}
	return out, nil
}

// Penalty implements Scorer. Yellow-green "puke" hues and dark olive greens
// are down-weighted.
func (s *Analytic) Penalty(colors []colorspace.Lab) ([]float64, error) {
	out := make([]float64, len(colors))
	for i, c := range colors {
		out[i] = penalty(c)
	}
	return out, nil
}

func penalty(c colorspace.Lab) float64 {
	_, _, h := c.LCh()
	switch {
	case h >= 70 && h <= 115:
		if c.L <= 75 {
			return 0.8
		}
		return 0.85
	case h >= 115 && h < 138 && c.L <= 45:
		return 0.75
	}
	return 1
}

// CIEDE2000 returns the CIEDE2000 color difference with unit weighting
// factors.
func CIEDE2000(x, y colorspace.Lab) float64 {
	return toColorful(x).DistanceCIEDE2000(toColorful(y)) * 100
}

// go-colorful works on L in [0,1].
func toColorful(c colorspace.Lab) colorful.Color {
	return colorful.Lab(c.L/100, c.A/100, c.B/100)
}

func fromColorful(c colorful.Color) colorspace.Lab {
	l, a, b := c.Lab()
	return colorspace.Lab{L: l * 100, A: a * 100, B: b * 100}
}
