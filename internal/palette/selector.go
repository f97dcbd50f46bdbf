package palette

import (
	"fmt"
	"math"
	"slices"
)

// BuildPreferable builds numPalettes palettes with identical settings and
// returns the one whose least preferred color pair is most preferred.
//
// Runs shorter than req.Size are discarded unless no run reaches it, in
// which case only the longest runs compete.
func (e *Engine) BuildPreferable(req Request, numPalettes int) (Palette, error) {
	if numPalettes <= 0 {
		return nil, fmt.Errorf("%w: number of palettes %d must be positive", ErrInvalidInput, numPalettes)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runs := make([]Palette, numPalettes)
	for i := range runs {
		p, err := e.Build(req)
		if err != nil {
			return nil, err
		}
		runs[i] = p
	}

	// Preference is undefined for a single color.
	if req.Size == 1 {
		return runs[e.rand.IntN(len(runs))], nil
	}

	survivors := fullLength(runs, req.Size)
	if len(survivors[0]) < 2 {
		return survivors[e.rand.IntN(len(survivors))], nil
	}

	return e.selectBest(survivors)
}

// selectBest returns the first palette with the greatest minimum pair
// preference.
func (e *Engine) selectBest(survivors []Palette) (Palette, error) {
	best, bestPref := 0, math.Inf(-1)
	for i, p := range survivors {
		pref, err := e.minPreference(p)
		if err != nil {
			return nil, err
		}
		if pref > bestPref {
			best, bestPref = i, pref
		}
	}
	return survivors[best], nil
}

// fullLength keeps the runs of the requested size, or failing that the
// runs tied at the greatest size.
func fullLength(runs []Palette, size int) []Palette {
	keep := slices.DeleteFunc(slices.Clone(runs), func(p Palette) bool { return len(p) != size })
	if len(keep) > 0 {
		return keep
	}
	longest := 0
	for _, p := range runs {
		longest = max(longest, len(p))
	}
	return slices.DeleteFunc(slices.Clone(runs), func(p Palette) bool { return len(p) != longest })
}

func (e *Engine) minPreference(p Palette) (float64, error) {
	_, pairs := pairsOf(p)
	scores, err := e.scorer.Score(pairs)
	if err != nil {
		return 0, fmt.Errorf("score palette pairs: %w", err)
	}
	low := math.Inf(1)
	for _, s := range scores {
		low = math.Min(low, s.PP)
	}
	return low, nil
}
