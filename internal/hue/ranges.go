// Package hue canonicalizes hue-angle filters.
//
// Callers describe the hues they want as (low, high) pairs in degrees. Pairs
// may lie outside [0,360), wrap through 0 (low > high) and overlap one
// another. Normalize reduces them to a minimal, sorted set of disjoint ranges
// inside [0,360]. An empty result means the filter does not restrict hue.
package hue

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

const fullCircle = 360.0

// ErrMalformedRange is returned when a hue filter is not a pair of finite
// numbers.
var ErrMalformedRange = errors.New("malformed hue range")

// Range is an inclusive interval of hue angles in degrees.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Span returns the angular width of the range.
func (r Range) Span() float64 { return r.High - r.Low }

// Contains reports whether h lies within the range, bounds included.
func (r Range) Contains(h float64) bool { return h >= r.Low && h <= r.High }

func (r Range) overlaps(o Range) bool {
	return r.Low <= o.High && o.Low <= r.High
}

func (r Range) covers(o Range) bool {
	return r.Low <= o.Low && o.High <= r.High
}

// FromPairs converts raw [low, high] rows, as decoded from JSON, into ranges.
func FromPairs(pairs [][]float64) ([]Range, error) {
	out := make([]Range, 0, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: filter %d has %d values, want 2", ErrMalformedRange, i, len(p))
		}
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: filter %d is not finite", ErrMalformedRange, i)
			}
		}
		out = append(out, Range{Low: p[0], High: p[1]})
	}
	return out, nil
}

// Pairs is the inverse of FromPairs.
func Pairs(ranges []Range) [][]float64 {
	out := make([][]float64, len(ranges))
	for i, r := range ranges {
		out[i] = []float64{r.Low, r.High}
	}
	return out
}

// Normalize reduces ranges to a minimal sorted set of disjoint ranges within
// [0,360]. It returns nil, meaning "no restriction", when the input is empty
// or when any range spans the whole circle.
func Normalize(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	for _, r := range ranges {
		if r.Span() >= fullCircle {
			return nil
		}
	}

	split := make([]Range, 0, len(ranges)+1)
	for _, r := range ranges {
		low, high := wrap(r.Low), wrap(r.High)
		if low > high {
			// Wraps through 0.
			split = append(split, Range{Low: low, High: fullCircle}, Range{Low: 0, High: high})
			continue
		}
		split = append(split, Range{Low: low, High: high})
	}
	split = slices.DeleteFunc(split, func(r Range) bool { return r.Low == r.High })
	slices.SortFunc(split, compare)

	merged := merge(split)
	for _, r := range merged {
		if r.Span() >= fullCircle {
			return nil
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// merge folds ranges together until no two of them overlap. Every union
// removes one range from the combined worklist and output, so the loop runs
// at most len(work) times past the initial pass.
func merge(work []Range) []Range {
	work = slices.Clone(work)
	var out []Range
	for len(work) > 0 {
		r := work[0]
		work = work[1:]

		i := slices.IndexFunc(out, r.overlaps)
		if i < 0 {
			out = append(out, r)
			continue
		}
		if out[i].covers(r) {
			continue
		}
		union := Range{Low: math.Min(out[i].Low, r.Low), High: math.Max(out[i].High, r.High)}
		out = slices.Delete(out, i, i+1)
		work = append(work, union)
	}
	slices.SortFunc(out, compare)
	return out
}

// Contains reports whether h passes the filter. A nil or empty filter
// accepts every hue.
func Contains(ranges []Range, h float64) bool {
	if len(ranges) == 0 {
		return true
	}
	for _, r := range ranges {
		if r.Contains(h) {
			return true
		}
	}
	return false
}

func wrap(deg float64) float64 {
	m := math.Mod(deg, fullCircle)
	if m < 0 {
		m += fullCircle
	}
	if m >= fullCircle {
		m = 0
	}
	return m
}

func compare(a, b Range) int {
	if a.Low != b.Low {
		if a.Low < b.Low {
			return -1
		}
		return 1
	}
	switch {
	case a.High < b.High:
		return -1
	case a.High > b.High:
		return 1
	}
	return 0
}
