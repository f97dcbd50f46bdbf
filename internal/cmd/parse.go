package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
	"github.com/wethinkt/go-colorgorical/internal/palette"
)

// weightAliases maps short flag names to wire names.
var weightAliases = map[string]string{
	"de":                      palette.KeyCIEDE2000,
	"nd":                      palette.KeyNameDifference,
	"nu":                      palette.KeyNameUniqueness,
	"pp":                      palette.KeyPairPreference,
	palette.KeyCIEDE2000:      palette.KeyCIEDE2000,
	palette.KeyNameDifference: palette.KeyNameDifference,
	palette.KeyNameUniqueness: palette.KeyNameUniqueness,
	palette.KeyPairPreference: palette.KeyPairPreference,
}

// parseWeights reads "de=1,nd=0.5,pp=1". Unnamed weights are zero.
func parseWeights(s string) (map[string]float64, error) {
	out := palette.Weights{}.Map()
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("weight %q: want name=value", part)
		}
		key, known := weightAliases[strings.TrimSpace(k)]
		if !known {
			return nil, fmt.Errorf("unknown weight %q (use de, nd, nu or pp)", k)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("weight %s: %w", k, err)
		}
		out[key] = f
	}
	return out, nil
}

// parseRange reads "low:high".
func parseRange(s string) ([]float64, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("range %q: want low:high", s)
	}
	l, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", s, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", s, err)
	}
	return []float64{l, h}, nil
}

func parseRanges(ss []string) ([][]float64, error) {
	out := make([][]float64, 0, len(ss))
	for _, s := range ss {
		r, err := parseRange(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// parseTriple reads three comma-separated numbers.
func parseTriple(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%q: want three comma-separated numbers", s)
	}
	out := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseLab reads a color as "#rrggbb" or "L,a,b".
func parseLab(s string) ([]float64, error) {
	if strings.HasPrefix(s, "#") {
		rgb, err := colorspace.ParseHex(s)
		if err != nil {
			return nil, err
		}
		lab := colorspace.RGBToLab(rgb)
		return []float64{lab.L, lab.A, lab.B}, nil
	}
	return parseTriple(s)
}

func parseLabs(ss []string) ([][]float64, error) {
	out := make([][]float64, 0, len(ss))
	for _, s := range ss {
		lab, err := parseLab(s)
		if err != nil {
			return nil, err
		}
		out = append(out, lab)
	}
	return out, nil
}
