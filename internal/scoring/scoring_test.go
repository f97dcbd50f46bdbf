package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
)

type fakeScorer struct {
	scores    []PairScore
	penalties []float64
	err       error
}

func (f fakeScorer) Score([]Pair) ([]PairScore, error)         { return f.scores, f.err }
func (f fakeScorer) Penalty([]colorspace.Lab) ([]float64, error) { return f.penalties, f.err }

func TestChecked_Score(t *testing.T) {
	pairs := []Pair{{}, {}}
	ok := PairScore{DE: 10, ND: 0.5, PP: -20, NU1: 0.1, NU2: 0.2}

	tests := []struct {
		name    string
		inner   fakeScorer
		wantErr error
	}{
		{"valid", fakeScorer{scores: []PairScore{ok, ok}}, nil},
		{"short", fakeScorer{scores: []PairScore{ok}}, ErrMalformedOutput},
		{"nan", fakeScorer{scores: []PairScore{ok, {DE: math.NaN()}}}, ErrMalformedOutput},
		{"inf", fakeScorer{scores: []PairScore{ok, {PP: math.Inf(-1)}}}, ErrMalformedOutput},
		{"negative distance", fakeScorer{scores: []PairScore{ok, {DE: -1}}}, ErrMalformedOutput},
		{"negative uniqueness", fakeScorer{scores: []PairScore{ok, {NU2: -0.1}}}, ErrMalformedOutput},
		{"name difference above one", fakeScorer{scores: []PairScore{ok, {ND: 1.01}}}, ErrMalformedOutput},
		{"first uniqueness above one", fakeScorer{scores: []PairScore{ok, {NU1: 1.5}}}, ErrMalformedOutput},
		{"second uniqueness above one", fakeScorer{scores: []PairScore{ok, {NU2: 2}}}, ErrMalformedOutput},
		{"bounds inclusive", fakeScorer{scores: []PairScore{ok, {ND: 1, NU1: 1, NU2: 0}}}, nil},
		{"inner error", fakeScorer{err: errors.New("kernel crashed")}, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Checked(tt.inner).Score(pairs)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChecked_Penalty(t *testing.T) {
	colors := []colorspace.Lab{{L: 50}, {L: 60}}
	if _, err := Checked(fakeScorer{penalties: []float64{1, 0}}).Penalty(colors); err != nil {
		t.Fatal(err)
	}
	for _, bad := range [][]float64{{1}, {1, 1.5}, {-0.1, 1}, {math.NaN(), 1}} {
		if _, err := Checked(fakeScorer{penalties: bad}).Penalty(colors); !errors.Is(err, ErrMalformedOutput) {
			t.Errorf("Penalty(%v) err = %v, want ErrMalformedOutput", bad, err)
		}
	}
}

func TestChecked_Idempotent(t *testing.T) {
	c := Checked(NewAnalytic())
	if Checked(c) != c {
		t.Error("Checked should not wrap a checked scorer twice")
	}
}

func TestUniqueness(t *testing.T) {
	colors := []colorspace.Lab{{L: 50, A: 60, B: 40}, {L: 80}}
	nu, err := Uniqueness(NewAnalytic(), colors)
	if err != nil {
		t.Fatal(err)
	}
	if len(nu) != 2 {
		t.Fatalf("got %d values", len(nu))
	}
	scores, _ := NewAnalytic().Score([]Pair{{A: colors[0], B: colors[1]}})
	if nu[0] != scores[0].NU1 || nu[1] != scores[0].NU2 {
		t.Errorf("uniqueness %v disagrees with pair scores %+v", nu, scores[0])
	}
}
