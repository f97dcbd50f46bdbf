package reference

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/wethinkt/go-colorgorical/internal/catalog"
	"github.com/wethinkt/go-colorgorical/internal/colorspace"
	"github.com/wethinkt/go-colorgorical/internal/palette"
	"github.com/wethinkt/go-colorgorical/internal/scoring"
)

// distScorer scores pairs from Lab distance so rankings are predictable.
type distScorer struct{}

func (distScorer) Score(pairs []scoring.Pair) ([]scoring.PairScore, error) {
	out := make([]scoring.PairScore, len(pairs))
	for i, p := range pairs {
		dl, da, db := p.A.L-p.B.L, p.A.A-p.B.A, p.A.B-p.B.B
		d := math.Sqrt(dl*dl + da*da + db*db)
		out[i] = scoring.PairScore{DE: d, ND: math.Min(1, d/100), PP: d / 2, NU1: p.A.L / 100, NU2: p.B.L / 100}
	}
	return out, nil
}

func (distScorer) Penalty(colors []colorspace.Lab) ([]float64, error) {
	out := make([]float64, len(colors))
	for i := range out {
		out[i] = 1
	}
	return out, nil
}

func newTestEngine(t *testing.T) *palette.Engine {
	t.Helper()
	cat := catalog.New([]catalog.Color{
		catalog.NewColor(colorspace.Lab{L: 40, A: 0, B: 0}),
		catalog.NewColor(colorspace.Lab{L: 55, A: 30, B: 30}),
		catalog.NewColor(colorspace.Lab{L: 70, A: -30, B: 15}),
	})
	e, err := palette.NewEngine(cat, distScorer{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestBuiltin(t *testing.T) {
	f := Builtin()
	if !slices.Equal(f.Sizes, []int{3, 5, 8}) {
		t.Errorf("Sizes = %v, want [3 5 8]", f.Sizes)
	}
	collections := map[string]int{}
	for _, s := range f.Sets {
		collections[s.Collection]++
	}
	if collections["ColorBrewer"] != 4 || collections["Tableau"] != 4 {
		t.Errorf("collections = %v, want 4 ColorBrewer and 4 Tableau sets", collections)
	}
}

func TestSetPalette(t *testing.T) {
	var blueRed Set
	for _, s := range Builtin().Sets {
		if s.Name == "Blue Red" {
			blueRed = s
		}
	}
	if blueRed.Name == "" {
		t.Fatal("Blue Red set missing")
	}

	p3, ok := blueRed.Palette(3)
	if !ok || len(p3) != 3 {
		t.Fatalf("Palette(3) = %v, %v", p3, ok)
	}
	p8, ok := blueRed.Palette(8)
	if !ok || len(p8) != 8 {
		t.Fatalf("Palette(8) = %v, %v", p8, ok)
	}
	// Three colors come from the six-color variant; its second color is red,
	// the twelve-color variant's is light blue.
	if p3[1] == p8[1] {
		t.Errorf("expected sizes 3 and 8 to use different variants, both have %v", p3[1])
	}
	for _, c := range p8 {
		if c != colorspace.Snap(c) {
			t.Errorf("color %v is not on the catalog grid", c)
		}
	}
	if _, ok := blueRed.Palette(13); ok {
		t.Error("Palette(13) should not be available")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"not json":  `{`,
		"no sizes":  `{"sizes":[],"sets":[{"collection":"c","name":"n","variants":[["#000000"]]}]}`,
		"size one":  `{"sizes":[1],"sets":[{"collection":"c","name":"n","variants":[["#000000"]]}]}`,
		"no sets":   `{"sizes":[3],"sets":[]}`,
		"bad color": `{"sizes":[3],"sets":[{"collection":"c","name":"n","variants":[["red"]]}]}`,
		"no name":   `{"sizes":[3],"sets":[{"collection":"c","variants":[["#000000"]]}]}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); !errors.Is(err, ErrInvalidSets) {
				t.Errorf("Parse error = %v, want ErrInvalidSets", err)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	e := newTestEngine(t)
	cmps, err := Compare(e, Builtin())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(cmps) != 3 {
		t.Fatalf("got %d comparisons, want 3", len(cmps))
	}
	for _, n := range []int{3, 5, 8} {
		c := cmps[n]
		if len(c.Palettes) != 8 {
			t.Errorf("size %d: %d palettes, want 8", n, len(c.Palettes))
		}
		for _, m := range Metrics {
			entries := c.Rankings[m]
			if len(entries) != len(c.Palettes) {
				t.Fatalf("size %d %s: %d entries", n, m, len(entries))
			}
			for i := 1; i < len(entries); i++ {
				if entries[i].Score > entries[i-1].Score {
					t.Errorf("size %d %s: rankings not descending at %d", n, m, i)
				}
			}
			for _, en := range entries {
				if en.Score != m.Round(en.Score) {
					t.Errorf("size %d %s: score %v not rounded", n, m, en.Score)
				}
			}
			total := 0
			for _, a := range c.Averages[m] {
				total += a.N
			}
			if total != len(c.Palettes) {
				t.Errorf("size %d %s: averages cover %d palettes", n, m, total)
			}
		}
	}
}

func TestAverage(t *testing.T) {
	a := average("c", []float64{1, 2, 3})
	if a.Mean != 2 || a.N != 3 {
		t.Errorf("average = %+v", a)
	}
	if math.Abs(a.SD-math.Sqrt(2.0/3)) > 1e-12 {
		t.Errorf("SD = %v, want population deviation %v", a.SD, math.Sqrt(2.0/3))
	}
	if math.Abs(a.SE-a.SD/math.Sqrt(3)) > 1e-12 {
		t.Errorf("SE = %v", a.SE)
	}
	if one := average("c", []float64{4.567}); one.Mean != 4.57 || one.SD != 0 {
		t.Errorf("single average = %+v", one)
	}
}

func TestMetricRound(t *testing.T) {
	if got := MetricDE.Round(12.5); got != 13 {
		t.Errorf("de round = %v", got)
	}
	if got := MetricND.Round(0.4567); got != 0.46 {
		t.Errorf("nd round = %v", got)
	}
}

const oneSet = `{"sizes":[3],"sets":[{"collection":"Mine","name":"Primary","variants":[["#ff0000","#00ff00","#0000ff"]]}]}`

func TestRegistryOverride(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "palette-sets.json")

	r, err := NewRegistry(e, path)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if r.Source() != "builtin" {
		t.Errorf("Source = %q, want builtin for a missing override", r.Source())
	}

	if err := os.WriteFile(path, []byte(oneSet), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if r.Source() != path || !slices.Equal(r.Sizes(), []int{3}) {
		t.Errorf("after reload: source %q sizes %v", r.Source(), r.Sizes())
	}
	if _, ok := r.Comparison(5); ok {
		t.Error("size 5 should no longer be scored")
	}

	if err := os.WriteFile(path, []byte(`{`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err == nil {
		t.Error("expected reload of a broken file to fail")
	}
	if r.Source() != path {
		t.Error("failed reload should keep the previous comparisons")
	}
}

func TestRegistryWatch(t *testing.T) {
	e := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "palette-sets.json")
	r, err := NewRegistry(e, path)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Watch(ctx, 20*time.Millisecond); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := os.WriteFile(path, []byte(oneSet), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for r.Source() != path {
		if time.Now().After(deadline) {
			t.Fatal("registry did not reload after the override file was written")
		}
		time.Sleep(20 * time.Millisecond)
	}
	c, ok := r.Comparison(3)
	if !ok || len(c.Palettes) != 1 || c.Palettes[0].Name != "Primary" {
		t.Errorf("comparison after watch reload = %+v", c)
	}
}

func TestWatchWithoutPath(t *testing.T) {
	r, err := NewRegistry(newTestEngine(t), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Watch(context.Background(), time.Millisecond); err == nil {
		t.Error("expected an error watching without an override path")
	}
}
