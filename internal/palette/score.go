package palette

import (
	"fmt"
	"math"

	"github.com/wethinkt/go-colorgorical/internal/scoring"
)

// ScoreOutcome is the result of ScorePalette: either NotScorable or *Report.
type ScoreOutcome interface {
	scoreOutcome()
}

// NotScorable is returned for palettes with fewer than two colors, which have
// no pairs to score.
type NotScorable struct {
	Size int `json:"size"`
}

func (NotScorable) scoreOutcome() {}

// PairIndex holds the palette positions of a scored pair.
type PairIndex [2]int

// MinScores are the worst pair's metrics, each multiplied by its weight.
type MinScores struct {
	DE float64 `json:"de"`
	ND float64 `json:"nd"`
	NU float64 `json:"nu"`
	PP float64 `json:"pp"`
}

// Report scores every unordered pair of a palette. PairIndexes, LabPairs and
// Scores are parallel and ordered lexicographically by index.
type Report struct {
	PairIndexes []PairIndex         `json:"pairIndexes"`
	LabPairs    []scoring.Pair      `json:"labPairs"`
	Scores      []scoring.PairScore `json:"scores"`
	MinScores   MinScores           `json:"minScores"`
	// Uniqueness is the name uniqueness of each palette color.
	Uniqueness []float64 `json:"nuScores"`
}

func (*Report) scoreOutcome() {}

// ScorePalette evaluates an existing palette. Palettes with fewer than two
// colors yield NotScorable.
func (e *Engine) ScorePalette(p Palette, w Weights) (ScoreOutcome, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	for i, c := range p {
		if !finiteLab(c) {
			return nil, fmt.Errorf("%w: palette color %d is not finite", ErrInvalidInput, i)
		}
	}
	if len(p) < 2 {
		return NotScorable{Size: len(p)}, nil
	}

	idx, pairs := pairsOf(p)
	scores, err := e.scorer.Score(pairs)
	if err != nil {
		return nil, fmt.Errorf("score palette pairs: %w", err)
	}
	nu, err := scoring.Uniqueness(e.scorer, p)
	if err != nil {
		return nil, fmt.Errorf("score palette uniqueness: %w", err)
	}

	low := MinScores{DE: math.Inf(1), ND: math.Inf(1), NU: math.Inf(1), PP: math.Inf(1)}
	for _, s := range scores {
		low.DE = math.Min(low.DE, s.DE)
		low.ND = math.Min(low.ND, s.ND)
		low.PP = math.Min(low.PP, s.PP)
		low.NU = math.Min(low.NU, math.Min(s.NU1, s.NU2))
	}
	low.DE *= w.CIEDE2000
	low.ND *= w.NameDifference
	low.NU *= w.NameUniqueness
	low.PP *= w.PairPreference

	return &Report{
		PairIndexes: idx,
		LabPairs:    pairs,
		Scores:      scores,
		MinScores:   low,
		Uniqueness:  nu,
	}, nil
}

func pairsOf(p Palette) ([]PairIndex, []scoring.Pair) {
	n := len(p)
	idx := make([]PairIndex, 0, n*(n-1)/2)
	pairs := make([]scoring.Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			idx = append(idx, PairIndex{i, j})
			pairs = append(pairs, scoring.Pair{A: p[i], B: p[j]})
		}
	}
	return idx, pairs
}
