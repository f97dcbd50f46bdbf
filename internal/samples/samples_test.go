package samples

import (
	"context"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/wethinkt/go-colorgorical/internal/catalog"
	"github.com/wethinkt/go-colorgorical/internal/colorspace"
	"github.com/wethinkt/go-colorgorical/internal/palette"
	"github.com/wethinkt/go-colorgorical/internal/scoring"
)

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

var (
	engineOnce sync.Once
	engine     *palette.Engine
	engineErr  error
)

func testEngine(t *testing.T) *palette.Engine {
	t.Helper()
	engineOnce.Do(func() {
		engine, engineErr = palette.NewEngine(catalog.Generate(), distScorer{})
	})
	if engineErr != nil {
		t.Fatalf("NewEngine: %v", engineErr)
	}
	return engine
}

func TestWeightGrid(t *testing.T) {
	grid := WeightGrid()
	if len(grid) != 20 {
		t.Fatalf("WeightGrid has %d settings, want 20", len(grid))
	}
	seen := map[palette.Weights]bool{}
	for _, w := range grid {
		if seen[w] {
			t.Errorf("duplicate setting %+v", w)
		}
		seen[w] = true
		if w.NameUniqueness != 0 {
			t.Errorf("setting %+v uses name uniqueness", w)
		}
		if err := w.Validate(); err != nil {
			t.Errorf("setting %+v invalid: %v", w, err)
		}
	}
	for _, dup := range []palette.Weights{
		{CIEDE2000: 0.5},
		{CIEDE2000: 0.5, NameDifference: 0.5, PairPreference: 0.5},
		{NameDifference: 0.5, PairPreference: 0.5},
	} {
		if seen[dup] {
			t.Errorf("grid should skip %+v", dup)
		}
	}
	if !seen[palette.Weights{}] || !seen[palette.Weights{CIEDE2000: 1, NameDifference: 1, PairPreference: 1}] {
		t.Error("grid should keep the all-zero and all-one settings")
	}
}

func TestName(t *testing.T) {
	w := palette.Weights{CIEDE2000: 1, NameDifference: 0.5, PairPreference: 1}
	if got := Name(w); got != "10-PD__5-ND__0-NU__10-PP" {
		t.Errorf("Name = %q", got)
	}
	if got := Title(w); got != "Slider settings: PD:1 ND:0.5 NU:0 PP:1" {
		t.Errorf("Title = %q", got)
	}
	p := palette.Palette{{L: 55, A: -20.5, B: 5}, {L: 70, A: 10, B: -35}}
	if got := LabName(p); got != "[55,-20,5]; [70,10,-35]" {
		t.Errorf("LabName = %q", got)
	}
}

func TestGenerate(t *testing.T) {
	g := NewGenerator(testEngine(t))
	g.Sizes = []int{3, 5}
	g.Repeats = 2
	g.NumPalettes = 2
	g.Workers = 4

	weights := []palette.Weights{{CIEDE2000: 1}, {PairPreference: 1, NameDifference: 0.5}}
	settings, err := g.Generate(context.Background(), weights)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(settings) != 2 {
		t.Fatalf("got %d settings", len(settings))
	}
	for i, s := range settings {
		if s.Weights != weights[i] {
			t.Errorf("setting %d weights = %+v", i, s.Weights)
		}
		if len(s.Palettes) != 2 {
			t.Fatalf("setting %d has %d size groups", i, len(s.Palettes))
		}
		for j, size := range g.Sizes {
			if len(s.Palettes[j]) != 2 {
				t.Errorf("setting %d size %d: %d repeats", i, size, len(s.Palettes[j]))
			}
			for _, p := range s.Palettes[j] {
				if len(p) != size {
					t.Errorf("setting %d: palette has %d colors, want %d", i, len(p), size)
				}
			}
		}
	}
}

func TestGenerateCanceled(t *testing.T) {
	g := NewGenerator(testEngine(t))
	g.Sizes = []int{3}
	g.Repeats = 1
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Generate(ctx, WeightGrid()); err == nil {
		t.Error("expected an error from a canceled context")
	}
}

func TestLoadOrGenerate(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(testEngine(t))
	g.Sizes = []int{3}
	g.Repeats = 1
	g.NumPalettes = 1

	first, cached, err := g.LoadOrGenerate(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadOrGenerate: %v", err)
	}
	if cached {
		t.Error("first call should generate")
	}
	if _, err := os.Stat(filepath.Join(dir, CacheFile)); err != nil {
		t.Fatalf("cache not written: %v", err)
	}

	second, cached, err := g.LoadOrGenerate(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadOrGenerate (cached): %v", err)
	}
	if !cached {
		t.Error("second call should read the cache")
	}
	if len(second) != len(first) || second[0].Palettes[0][0][0] != first[0].Palettes[0][0][0] {
		t.Error("cached samples differ from the generated ones")
	}
}

func TestFigures(t *testing.T) {
	s := Setting{
		Weights: palette.Weights{CIEDE2000: 1},
		Sizes:   []int{2, 3},
		Repeats: 2,
		Palettes: [][]palette.Palette{
			{{{L: 50, A: 60, B: 40}, {L: 70, A: -40, B: 20}}, {{L: 30, A: 10, B: -40}, {L: 80, A: 0, B: 60}}},
			{{{L: 50}, {L: 60}, {L: 70}}, {{L: 40}, {L: 55}, {L: 85}}},
		},
	}
	img := Render(s)
	b := img.Bounds()
	// Two sizes plus a gap column, three rows for two repeats.
	if b.Dx() < (2+1+3)*cellPx || b.Dy() < 3*cellPx {
		t.Errorf("figure %v too small", b)
	}
	top := margin + titleGap
	got := img.RGBAAt(margin+cellPx/2, top+cellPx/2)
	want := colorspace.LabToRGB(s.Palettes[0][0][0])
	if int(got.R) != want.R || int(got.G) != want.G || int(got.B) != want.B {
		t.Errorf("first swatch = %v, want %v", got, want)
	}
	if gap := img.RGBAAt(margin+cellPx/2, top+cellPx+cellPx/2); gap != background {
		t.Errorf("row between repeats = %v, want background", gap)
	}

	dir := t.TempDir()
	names, err := WriteFigures(dir, []Setting{s})
	if err != nil {
		t.Fatalf("WriteFigures: %v", err)
	}
	if len(names) != 1 || names[0] != "10-PD__0-ND__0-NU__0-PP.png" {
		t.Fatalf("names = %v", names)
	}
	f, err := os.Open(filepath.Join(dir, names[0]))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("figure is not a PNG: %v", err)
	}

	if err := WriteTeX(dir); err != nil {
		t.Fatalf("WriteTeX: %v", err)
	}
	tex, err := os.ReadFile(filepath.Join(dir, TeXFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(tex), `\includegraphics[width=\textwidth]{10-PD__0-ND__0-NU__0-PP.png}`) {
		t.Errorf("img.tex = %q", tex)
	}
}
