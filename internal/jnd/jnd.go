// Package jnd models the noticeable difference between two CIE Lab colors
// as a function of the visual size of the marks they are drawn on, after
// Stone, Szafir and Setlur, "An Engineering Model for Color Difference as a
// Function of Size" (2014).
package jnd

import (
	"errors"
	"fmt"
	"math"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
)

// DefaultMarkSize is the visual angle, in degrees, assumed for marks when a
// caller does not provide one.
const DefaultMarkSize = 1.0 / 3.0

// ErrInvalidMarkSize is returned for non-positive or non-finite mark sizes.
var ErrInvalidMarkSize = errors.New("mark size must be a positive number")

// Thresholds holds the per-axis Lab intervals below which two colors
// cannot be told apart.
type Thresholds struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// ForMarkSize returns the noticeable-difference thresholds for marks of the
// given visual angle.
func ForMarkSize(markSize float64) (Thresholds, error) {
	if !(markSize > 0) || math.IsInf(markSize, 1) {
		return Thresholds{}, fmt.Errorf("%w: %v", ErrInvalidMarkSize, markSize)
	}
	return Thresholds{
		L: 5.079 + 0.751/markSize,
		A: 5.339 + 1.541/markSize,
		B: 5.349 + 2.871/markSize,
	}, nil
}

// Scale multiplies every threshold by k.
func (t Thresholds) Scale(k float64) Thresholds {
	return Thresholds{L: t.L * k, A: t.A * k, B: t.B * k}
}

// Noticeable reports whether x and y differ enough along at least one axis.
func (t Thresholds) Noticeable(x, y colorspace.Lab) bool {
	return math.Abs(x.L-y.L) >= t.L ||
		math.Abs(x.A-y.A) >= t.A ||
		math.Abs(x.B-y.B) >= t.B
}
