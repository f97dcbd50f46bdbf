// Package samples generates example palettes across a grid of score
// weights, caches them as JSON, and renders swatch figures.
package samples

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/wethinkt/go-colorgorical/internal/applog"
	"github.com/wethinkt/go-colorgorical/internal/palette"
)

// CacheFile is the name of the generated palette cache inside the output
// directory.
const CacheFile = "examplePalettes.json"

var (
	// DefaultSizes are the palette sizes sampled for each weight setting.
	DefaultSizes = []int{3, 5, 8}
	// DefaultRepeats is the number of palettes per size.
	DefaultRepeats = 10
	// DefaultNumPalettes is the candidate count for each preferable palette.
	DefaultNumPalettes = 10
)

// Setting is the output for one weight setting. Palettes[i][r] is repeat r
// at Sizes[i].
type Setting struct {
	Weights  palette.Weights     `json:"weights"`
	Palettes [][]palette.Palette `json:"palettes"`
	Repeats  int                 `json:"repeats"`
	Sizes    []int               `json:"sizes"`
}

// WeightGrid returns every combination of {0, 0.5, 1} for perceptual
// distance, name difference and pair preference, with name uniqueness off,
// minus settings that duplicate another after normalization: those summing
// to 0.5, all halves, and one zero with two halves.
func WeightGrid() []palette.Weights {
	levels := []float64{0, 0.5, 1}
	var out []palette.Weights
	for _, de := range levels {
		for _, nd := range levels {
			for _, pp := range levels {
				if duplicateSetting(de, nd, pp) {
					continue
				}
				out = append(out, palette.Weights{CIEDE2000: de, NameDifference: nd, PairPreference: pp})
			}
		}
	}
	return out
}

func duplicateSetting(ws ...float64) bool {
	sum, zeros, halves := 0.0, 0, 0
	for _, w := range ws {
		sum += w
		switch w {
		case 0:
			zeros++
		case 0.5:
			halves++
		}
	}
	switch {
	case sum == 0.5:
		return true
	case halves == len(ws):
		return true
	case zeros == 1 && halves == 2:
		return true
	}
	return false
}

// Generator builds sample palettes with an engine.
type Generator struct {
	Engine      *palette.Engine
	Template    palette.Request
	Sizes       []int
	Repeats     int
	NumPalettes int
	// Workers bounds concurrent palette builds. Zero means GOMAXPROCS.
	Workers int
}

// NewGenerator returns a generator with the default sizes and repeats.
func NewGenerator(e *palette.Engine) *Generator {
	return &Generator{
		Engine:      e,
		Template:    palette.NewRequest(0),
		Sizes:       DefaultSizes,
		Repeats:     DefaultRepeats,
		NumPalettes: DefaultNumPalettes,
	}
}

// Generate builds palettes for every weight setting.
func (g *Generator) Generate(ctx context.Context, weights []palette.Weights) ([]Setting, error) {
	defer applog.Log.Timed("samples.Generate")()

	if g.Repeats <= 0 || len(g.Sizes) == 0 {
		return nil, fmt.Errorf("%w: sample sizes and repeats must be positive", palette.ErrInvalidInput)
	}
	out := make([]Setting, len(weights))
	for i, w := range weights {
		out[i] = Setting{Weights: w, Repeats: g.Repeats, Sizes: g.Sizes, Palettes: make([][]palette.Palette, len(g.Sizes))}
		for j := range g.Sizes {
			out[i].Palettes[j] = make([]palette.Palette, g.Repeats)
		}
	}

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range out {
		for j, size := range g.Sizes {
			for r := 0; r < g.Repeats; r++ {
				eg.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					req := g.Template
					req.Size = size
					req.Weights = out[i].Weights
					p, err := g.Engine.BuildPreferable(req, g.NumPalettes)
					if err != nil {
						return fmt.Errorf("sample %s size %d: %w", Name(out[i].Weights), size, err)
					}
					out[i].Palettes[j][r] = p
					return nil
				})
			}
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	applog.Log.Info("Sample palettes generated", "settings", len(out), "sizes", g.Sizes, "repeats", g.Repeats)
	return out, nil
}

// LoadOrGenerate returns the cached samples in dir, generating and caching
// them when the cache does not exist.
func (g *Generator) LoadOrGenerate(ctx context.Context, dir string) (settings []Setting, cached bool, err error) {
	path := filepath.Join(dir, CacheFile)
	settings, err = LoadCache(path)
	if err == nil {
		return settings, true, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		applog.Log.Warn("Ignoring unreadable sample cache", "path", path, "error", err)
	}

	settings, err = g.Generate(ctx, WeightGrid())
	if err != nil {
		return nil, false, err
	}
	if err := SaveCache(path, settings); err != nil {
		return nil, false, err
	}
	return settings, false, nil
}

// LoadCache reads a sample cache written by SaveCache.
func LoadCache(path string) ([]Setting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var settings []Setting
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return settings, nil
}

// SaveCache writes settings as JSON, creating the directory if needed.
func SaveCache(path string, settings []Setting) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sample dir: %w", err)
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
