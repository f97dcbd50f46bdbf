// Package palette builds and scores categorical color palettes.
//
// An Engine samples colors greedily from a catalog: each step scores every
// remaining candidate against the colors already placed, keeps candidates
// whose worst-case score is near the best, and picks one of them at random.
package palette

import (
	"fmt"
	"math/rand/v2"

	"github.com/wethinkt/go-colorgorical/internal/applog"
	"github.com/wethinkt/go-colorgorical/internal/catalog"
	"github.com/wethinkt/go-colorgorical/internal/colorspace"
	"github.com/wethinkt/go-colorgorical/internal/scoring"
)

// Palette is an ordered sequence of colors in construction order.
type Palette []colorspace.Lab

// RGB converts every color to clamped sRGB.
func (p Palette) RGB() []colorspace.RGB {
	out := make([]colorspace.RGB, len(p))
	for i, c := range p {
		out[i] = colorspace.LabToRGB(c)
	}
	return out
}

// Source supplies random indexes. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Engine holds the read-only state shared by every palette request: the
// catalog, the scorer, and each catalog color's name uniqueness. It is safe
// for concurrent use when its Source is.
type Engine struct {
	catalog    *catalog.Catalog
	colors     []catalog.Color
	start      []catalog.Color
	uniqueness []float64
	scorer     scoring.Scorer
	rand       Source

	// startPref[i*len(start)+j] is the penalized pair preference of start
	// colors i and j.
	startPref []float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source. The default is the goroutine-safe
// global generator of math/rand/v2.
func WithRand(src Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.rand = src
		}
	}
}

// NewEngine scores the uniqueness of every catalog color once and returns an
// engine sampling from cat.
func NewEngine(cat *catalog.Catalog, s scoring.Scorer, opts ...Option) (*Engine, error) {
	defer applog.Log.Timed("palette.NewEngine")()

	e := &Engine{
		catalog: cat,
		colors:  cat.Colors(),
		start:   cat.StartColors(),
		scorer:  scoring.Checked(s),
		rand:    globalSource{},
	}
	for _, opt := range opts {
		opt(e)
	}

	labs := make([]colorspace.Lab, len(e.colors))
	for i, c := range e.colors {
		labs[i] = c.Lab
	}
	nu, err := scoring.Uniqueness(e.scorer, labs)
	if err != nil {
		return nil, fmt.Errorf("score catalog uniqueness: %w", err)
	}
	e.uniqueness = nu

	if err := e.scoreStartPairs(); err != nil {
		return nil, err
	}

	applog.Log.Info("Palette engine ready", "colors", len(e.colors), "start_colors", len(e.start))
	return e, nil
}

// Catalog returns the catalog the engine samples from.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Scorer returns the validated scorer used by the engine.
func (e *Engine) Scorer() scoring.Scorer { return e.scorer }
