// Package scoring defines the pairwise color scoring capability the palette
// engine consumes, a validating adapter around it, and a closed-form
// implementation.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
)

var (
	// ErrUnavailable is returned when the scoring capability cannot answer.
	ErrUnavailable = errors.New("scoring capability unavailable")
	// ErrMalformedOutput is returned when the capability answers with the
	// wrong shape or out-of-range values.
	ErrMalformedOutput = errors.New("malformed scoring output")
)

// Pair is an ordered pair of colors to score.
type Pair struct {
	A colorspace.Lab `json:"a"`
	B colorspace.Lab `json:"b"`
}

// PairScore holds the metrics for one pair. DE is the CIEDE2000 distance, ND
// the name difference, PP the pair preference, NU1 and NU2 the name
// uniqueness of the first and second color.
type PairScore struct {
	DE  float64 `json:"de"`
	ND  float64 `json:"nd"`
	PP  float64 `json:"pp"`
	NU1 float64 `json:"nu1"`
	NU2 float64 `json:"nu2"`
}

// Scorer computes pairwise scores and per-color penalties.
//
// Score returns one row per input pair, in order. Penalty returns one factor
// in [0,1] per color; 1 leaves a color's score untouched.
type Scorer interface {
	Score(pairs []Pair) ([]PairScore, error)
	Penalty(colors []colorspace.Lab) ([]float64, error)
}

// Checked wraps s so every answer is validated before it reaches the caller.
func Checked(s Scorer) Scorer {
	if c, ok := s.(checked); ok {
		return c
	}
	return checked{inner: s}
}

type checked struct {
	inner Scorer
}

func (c checked) Score(pairs []Pair) ([]PairScore, error) {
	out, err := c.inner.Score(pairs)
	if err != nil {
		return nil, unavailable("score", err)
	}
	if len(out) != len(pairs) {
		return nil, fmt.Errorf("%w: %d score rows for %d pairs", ErrMalformedOutput, len(out), len(pairs))
	}
	for i, s := range out {
		for _, v := range []float64{s.DE, s.ND, s.PP, s.NU1, s.NU2} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d is not finite: %+v", ErrMalformedOutput, i, s)
			}
		}
		if s.DE < 0 {
			return nil, fmt.Errorf("%w: row %d has a negative distance: %+v", ErrMalformedOutput, i, s)
		}
		for _, v := range []float64{s.ND, s.NU1, s.NU2} {
			if v < 0 || v > 1 {
				return nil, fmt.Errorf("%w: row %d has a name score outside [0,1]: %+v", ErrMalformedOutput, i, s)
			}
		}
	}
	return out, nil
}

func (c checked) Penalty(colors []colorspace.Lab) ([]float64, error) {
	out, err := c.inner.Penalty(colors)
	if err != nil {
		return nil, unavailable("penalty", err)
	}
	if len(out) != len(colors) {
		return nil, fmt.Errorf("%w: %d penalties for %d colors", ErrMalformedOutput, len(out), len(colors))
	}
	for i, p := range out {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("%w: penalty %d is %v, want [0,1]", ErrMalformedOutput, i, p)
		}
	}
	return out, nil
}

func unavailable(op string, err error) error {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrMalformedOutput) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// Uniqueness returns the name uniqueness of each color, scored as a pair
// with itself.
func Uniqueness(s Scorer, colors []colorspace.Lab) ([]float64, error) {
	pairs := make([]Pair, len(colors))
	for i, c := range colors {
		pairs[i] = Pair{A: c, B: c}
	}
	scores, err := s.Score(pairs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(scores))
	for i, sc := range scores {
		out[i] = sc.NU1
	}
	return out, nil
}
