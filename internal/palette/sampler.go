package palette

import (
	"fmt"
	"math"
	"slices"

	"github.com/wethinkt/go-colorgorical/internal/applog"
	"github.com/wethinkt/go-colorgorical/internal/catalog"
	"github.com/wethinkt/go-colorgorical/internal/colorspace"
	"github.com/wethinkt/go-colorgorical/internal/hue"
	"github.com/wethinkt/go-colorgorical/internal/jnd"
	"github.com/wethinkt/go-colorgorical/internal/scoring"
)

// jndScale widens the noticeable-difference thresholds so neighbouring
// palette colors are clearly, not just barely, distinguishable.
const jndScale = 3

// Candidates scoring above max - selectionSpread·σ qualify for selection.
const selectionSpread = 0.75

// Fixed normalization bounds for CIEDE2000 distance and pair preference,
// measured over the full catalog.
const (
	minDistance, maxDistance     = 1.02043527056, 122.48163103
	minPreference, maxPreference = -101.423, 107.909
)

// muddy reports whether c lies in the dull yellow-green band that is never
// sampled.
func muddy(c catalog.Color) bool {
	return c.Hue >= 85 && c.Hue <= 114 && c.Lab.L >= 35 && c.Lab.L <= 75
}

type candidate struct {
	lab     colorspace.Lab
	nu      float64 // weighted name uniqueness
	penalty float64

	// Worst case against every placed color.
	de, nd, pp float64
}

func (c *candidate) score(w Weights) float64 {
	de := (c.de - minDistance) / (maxDistance - minDistance)
	pp := (c.pp - minPreference) / (maxPreference - minPreference)
	return (w.CIEDE2000*de + w.NameDifference*c.nd + w.PairPreference*pp + c.nu) * c.penalty
}

// Build samples one palette. The result is shorter than req.Size when the
// filters leave too few noticeably different colors; that is not an error.
func (e *Engine) Build(req Request) (Palette, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	th, _ := jnd.ForMarkSize(req.MarkSize)
	th = th.Scale(jndScale)
	hues := hue.Normalize(req.Hues)

	pal := make(Palette, 0, max(req.Size, len(req.Seed)))
	for _, c := range req.Seed {
		pal = append(pal, colorspace.Snap(c))
	}
	if len(pal) == 0 {
		first, ok := e.firstColor(hues, req, th)
		if !ok {
			applog.Log.Debug("No colors pass the filters", "hues", len(hues), "lightness", req.Lightness)
			return pal, nil
		}
		pal = append(pal, first)
	}
	if len(pal) >= req.Size {
		return pal, nil
	}

	pool := e.pool(hues, req, th, pal)
	if len(pool) == 0 {
		applog.Log.Debug("Ran out of candidates", "placed", len(pal))
		return pal, nil
	}

	labs := make([]colorspace.Lab, len(pool))
	for i := range pool {
		labs[i] = pool[i].lab
	}
	penalties, err := e.scorer.Penalty(labs)
	if err != nil {
		return nil, fmt.Errorf("score penalties: %w", err)
	}
	for i := range pool {
		pool[i].penalty = penalties[i]
		pool[i].nu *= req.Weights.NameUniqueness
	}
	for _, p := range pal {
		if err := e.tighten(pool, p); err != nil {
			return nil, err
		}
	}

	scores := make([]float64, 0, len(pool))
	qualified := make([]int, 0, len(pool))
	for len(pal) < req.Size {
		scores = scores[:0]
		for i := range pool {
			scores = append(scores, pool[i].score(req.Weights))
		}
		cut := threshold(scores, selectionSpread)

		qualified = qualified[:0]
		for i, s := range scores {
			if s > cut {
				qualified = append(qualified, i)
			}
		}
		var pick colorspace.Lab
		if len(qualified) == 0 {
			pick = pool[e.rand.IntN(len(pool))].lab
		} else {
			pick = pool[qualified[e.rand.IntN(len(qualified))]].lab
		}
		pal = append(pal, pick)

		pool = slices.DeleteFunc(pool, func(c candidate) bool {
			return !th.Noticeable(c.lab, pick)
		})
		if len(pool) == 0 {
			if len(pal) < req.Size {
				applog.Log.Debug("Ran out of candidates", "placed", len(pal), "wanted", req.Size)
			}
			break
		}
		if len(pal) < req.Size {
			if err := e.tighten(pool, pick); err != nil {
				return nil, err
			}
		}
	}
	return pal, nil
}

// pool returns the catalog colors that pass every filter and are noticeably
// different from each placed color.
func (e *Engine) pool(hues []hue.Range, req Request, th jnd.Thresholds, placed Palette) []candidate {
	var out []candidate
	for i, c := range e.colors {
		if !e.admits(c, hues, req) || muddy(c) {
			continue
		}
		distinct := true
		for _, p := range placed {
			if !th.Noticeable(c.Lab, p) {
				distinct = false
				break
			}
		}
		if !distinct {
			continue
		}
		out = append(out, candidate{
			lab: c.Lab,
			nu:  e.uniqueness[i],
			de:  math.Inf(1),
			nd:  math.Inf(1),
			pp:  math.Inf(1),
		})
	}
	return out
}

func (e *Engine) admits(c catalog.Color, hues []hue.Range, req Request) bool {
	if req.OnlyRGB && !c.InGamut() {
		return false
	}
	return req.Lightness.contains(c.Lab.L) && hue.Contains(hues, c.Hue)
}

// tighten lowers each candidate's worst-case scores with its scores against
// the newly placed color p.
func (e *Engine) tighten(pool []candidate, p colorspace.Lab) error {
	pairs := make([]scoring.Pair, len(pool))
	for i := range pool {
		pairs[i] = scoring.Pair{A: pool[i].lab, B: p}
	}
	scores, err := e.scorer.Score(pairs)
	if err != nil {
		return fmt.Errorf("score candidates: %w", err)
	}
	for i, s := range scores {
		c := &pool[i]
		c.de = math.Min(c.de, s.DE)
		c.nd = math.Min(c.nd, s.ND)
		c.pp = math.Min(c.pp, s.PP)
	}
	return nil
}

// scoreStartPairs caches the penalized pair preference of every pair of
// start colors.
func (e *Engine) scoreStartPairs() error {
	n := len(e.start)
	if n == 0 {
		return nil
	}
	labs := make([]colorspace.Lab, n)
	for i, c := range e.start {
		labs[i] = c.Lab
	}
	penalties, err := e.scorer.Penalty(labs)
	if err != nil {
		return fmt.Errorf("score start penalties: %w", err)
	}

	pairs := make([]scoring.Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, scoring.Pair{A: labs[i], B: labs[j]})
		}
	}
	scores, err := e.scorer.Score(pairs)
	if err != nil {
		return fmt.Errorf("score start pairs: %w", err)
	}

	e.startPref = make([]float64, n*n)
	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := scores[k].PP * math.Min(penalties[i], penalties[j])
			e.startPref[i*n+j] = v
			e.startPref[j*n+i] = v
			k++
		}
	}
	return nil
}

// firstColor draws the palette's first color from the endpoints of the most
// preferred pairs on the coarse start grid. Start colors are always in the
// sRGB gamut. When none passes the filters it falls back to any candidate;
// ok is false when there is none.
func (e *Engine) firstColor(hues []hue.Range, req Request, th jnd.Thresholds) (lab colorspace.Lab, ok bool) {
	lo, hi := req.Lightness.Min+0.01, req.Lightness.Max
	if req.Lightness.Min <= 10 {
		lo = 0
	}
	if req.Lightness.Max <= 15 {
		hi = 15
	}

	var idx []int
	for i, c := range e.start {
		if !c.InGamut() {
			continue
		}
		if c.Lab.L < lo || c.Lab.L > hi || !hue.Contains(hues, c.Hue) {
			continue
		}
		idx = append(idx, i)
	}

	switch len(idx) {
	case 0:
		pool := e.pool(hues, req, th, nil)
		if len(pool) == 0 {
			return colorspace.Lab{}, false
		}
		return pool[e.rand.IntN(len(pool))].lab, true
	case 1:
		return e.start[idx[0]].Lab, true
	}

	n := len(e.start)
	prefs := make([]float64, 0, len(idx)*(len(idx)-1)/2)
	for a := 0; a < len(idx); a++ {
		for b := a + 1; b < len(idx); b++ {
			prefs = append(prefs, e.startPref[idx[a]*n+idx[b]])
		}
	}
	cut := threshold(prefs, selectionSpread)

	seen := make(map[int]bool)
	var endpoints []int
	k := 0
	for a := 0; a < len(idx); a++ {
		for b := a + 1; b < len(idx); b++ {
			if prefs[k] > cut {
				for _, i := range []int{idx[a], idx[b]} {
					if !seen[i] {
						seen[i] = true
						endpoints = append(endpoints, i)
					}
				}
			}
			k++
		}
	}
	if len(endpoints) == 0 {
		endpoints = idx
	}
	return e.start[endpoints[e.rand.IntN(len(endpoints))]].Lab, true
}
