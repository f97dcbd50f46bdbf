package palette

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
	"github.com/wethinkt/go-colorgorical/internal/hue"
	"github.com/wethinkt/go-colorgorical/internal/jnd"
)

// ErrInvalidInput is returned, before any sampling, for requests that cannot
// be satisfied as stated.
var ErrInvalidInput = errors.New("invalid input")

// Weight keys as they appear on the wire.
const (
	KeyCIEDE2000      = "ciede2000"
	KeyNameDifference = "nameDifference"
	KeyNameUniqueness = "nameUniqueness"
	KeyPairPreference = "pairPreference"
)

// Weights scale the four palette scores. Each is an independent value in
// [0,1]; they need not sum to 1.
type Weights struct {
	CIEDE2000      float64 `json:"ciede2000" toml:"ciede2000"`
	NameDifference float64 `json:"nameDifference" toml:"name_difference"`
	NameUniqueness float64 `json:"nameUniqueness" toml:"name_uniqueness"`
	PairPreference float64 `json:"pairPreference" toml:"pair_preference"`
}

// DefaultWeights favors distance, naming and preference equally.
func DefaultWeights() Weights {
	return Weights{CIEDE2000: 1, NameDifference: 1, PairPreference: 1}
}

// WeightsFromMap reads weights keyed by wire name. All four keys are
// required.
func WeightsFromMap(m map[string]float64) (Weights, error) {
	var missing []string
	get := func(k string) float64 {
		v, ok := m[k]
		if !ok {
			missing = append(missing, k)
		}
		return v
	}
	w := Weights{
		CIEDE2000:      get(KeyCIEDE2000),
		NameDifference: get(KeyNameDifference),
		NameUniqueness: get(KeyNameUniqueness),
		PairPreference: get(KeyPairPreference),
	}
	if len(missing) > 0 {
		return Weights{}, fmt.Errorf("%w: missing weights %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	var unknown []string
	for k := range m {
		switch k {
		case KeyCIEDE2000, KeyNameDifference, KeyNameUniqueness, KeyPairPreference:
		default:
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Weights{}, fmt.Errorf("%w: unknown weights %s", ErrInvalidInput, strings.Join(unknown, ", "))
	}
	return w, w.Validate()
}

// Map returns the weights keyed by wire name.
func (w Weights) Map() map[string]float64 {
	return map[string]float64{
		KeyCIEDE2000:      w.CIEDE2000,
		KeyNameDifference: w.NameDifference,
		KeyNameUniqueness: w.NameUniqueness,
		KeyPairPreference: w.PairPreference,
	}
}

// Validate checks every weight lies in [0,1].
func (w Weights) Validate() error {
	for k, v := range w.Map() {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: weight %s=%v outside [0,1]", ErrInvalidInput, k, v)
		}
	}
	return nil
}

// LightnessRange bounds the L* axis of sampled colors.
type LightnessRange struct {
	Min float64 `json:"min" toml:"min"`
	Max float64 `json:"max" toml:"max"`
}

// DefaultLightness excludes the darkest and lightest colors.
func DefaultLightness() LightnessRange {
	return LightnessRange{Min: 25, Max: 85}
}

// Validate checks 0 <= Min < Max <= 100.
func (r LightnessRange) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min < 0 || r.Max > 100 || r.Min >= r.Max {
		return fmt.Errorf("%w: lightness range [%v,%v] must satisfy 0 <= min < max <= 100", ErrInvalidInput, r.Min, r.Max)
	}
	return nil
}

// contains reports membership in the sampling range. The lower bound is
// exclusive by a hundredth so grid lines equal to Min are left out.
func (r LightnessRange) contains(l float64) bool {
	return l >= r.Min+0.01 && l <= r.Max
}

// Request describes one palette to build.
type Request struct {
	// Size is the number of colors wanted.
	Size int
	// Hues restricts sampled hues. Ranges may wrap and overlap; they are
	// normalized before use. Empty means unrestricted.
	Hues []hue.Range
	// Lightness restricts sampled L*.
	Lightness LightnessRange
	// OnlyRGB drops colors outside the sRGB gamut.
	OnlyRGB bool
	// MarkSize is the visual angle, in degrees, used to derive noticeable
	// difference thresholds.
	MarkSize float64
	// Seed colors start the palette. They are snapped to the catalog grid
	// and are not checked against each other.
	Seed []colorspace.Lab
	// Weights scale the palette scores.
	Weights Weights
}

// NewRequest returns a request for size colors with default settings.
func NewRequest(size int) Request {
	return Request{
		Size:      size,
		Lightness: DefaultLightness(),
		OnlyRGB:   true,
		MarkSize:  jnd.DefaultMarkSize,
		Weights:   DefaultWeights(),
	}
}

// Validate reports the first problem with r, wrapped in ErrInvalidInput.
func (r Request) Validate() error {
	if r.Size <= 0 {
		return fmt.Errorf("%w: palette size %d must be positive", ErrInvalidInput, r.Size)
	}
	if err := r.Weights.Validate(); err != nil {
		return err
	}
	if err := r.Lightness.Validate(); err != nil {
		return err
	}
	if _, err := jnd.ForMarkSize(r.MarkSize); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	for i, h := range r.Hues {
		if math.IsNaN(h.Low) || math.IsNaN(h.High) || math.IsInf(h.Low, 0) || math.IsInf(h.High, 0) {
			return fmt.Errorf("%w: %w: hue filter %d is not finite", ErrInvalidInput, hue.ErrMalformedRange, i)
		}
	}
	for i, c := range r.Seed {
		if !finiteLab(c) {
			return fmt.Errorf("%w: seed color %d is not finite", ErrInvalidInput, i)
		}
	}
	return nil
}

func finiteLab(c colorspace.Lab) bool {
	for _, v := range []float64{c.L, c.A, c.B} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
