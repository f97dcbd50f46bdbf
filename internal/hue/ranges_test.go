package hue

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []Range
		want []Range
	}{
		{"empty", nil, nil},
		{"single", []Range{{10, 20}}, []Range{{10, 20}}},
		{"wraps through zero", []Range{{270, 10}}, []Range{{0, 10}, {270, 360}}},
		{"negative low", []Range{{-30, 30}}, []Range{{0, 30}, {330, 360}}},
		{"beyond 360", []Range{{370, 380}}, []Range{{10, 20}}},
		{"touching merge", []Range{{0, 10}, {10, 20}}, []Range{{0, 20}}},
		{"chain merge", []Range{{10, 20}, {30, 40}, {15, 35}}, []Range{{10, 40}}},
		{"contained", []Range{{10, 50}, {20, 30}}, []Range{{10, 50}}},
		{"containing", []Range{{20, 30}, {10, 50}}, []Range{{10, 50}}},
		{"disjoint sorted", []Range{{200, 220}, {10, 20}}, []Range{{10, 20}, {200, 220}}},
		{"zero width dropped", []Range{{40, 40}, {100, 120}}, []Range{{100, 120}}},
		{"full circle", []Range{{0, 360}}, nil},
		{"raw span over circle", []Range{{-10, 400}, {20, 30}}, nil},
		{"merged full circle", []Range{{0, 200}, {150, 360}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for trial := range 500 {
		n := 1 + r.IntN(5)
		in := make([]Range, n)
		for i := range in {
			low := r.Float64()*720 - 360
			in[i] = Range{Low: low, High: low + r.Float64()*300}
		}
		once := Normalize(in)
		twice := Normalize(once)
		if !slices.Equal(once, twice) {
			t.Fatalf("trial %d: not idempotent: %v -> %v", trial, once, twice)
		}
		for i, g := range once {
			if g.Low < 0 || g.High > 360 || g.Low >= g.High {
				t.Fatalf("trial %d: range %v out of bounds", trial, g)
			}
			if i > 0 && once[i-1].High >= g.Low {
				t.Fatalf("trial %d: ranges %v and %v overlap or are unsorted", trial, once[i-1], g)
			}
		}
	}
}

func TestContains(t *testing.T) {
	ranges := Normalize([]Range{{270, 10}})
	for _, h := range []float64{0, 5, 10, 270, 300, 359.9} {
		if !Contains(ranges, h) {
			t.Errorf("Contains(%v) = false, want true", h)
		}
	}
	for _, h := range []float64{10.5, 90, 269.9} {
		if Contains(ranges, h) {
			t.Errorf("Contains(%v) = true, want false", h)
		}
	}
	if !Contains(nil, 123) {
		t.Error("empty filter should accept every hue")
	}
}

func TestFromPairs(t *testing.T) {
	got, err := FromPairs([][]float64{{10, 20}, {300, 40}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []Range{{10, 20}, {300, 40}}) {
		t.Errorf("FromPairs = %v", got)
	}
	if p := Pairs(got); len(p) != 2 || p[1][0] != 300 {
		t.Errorf("Pairs = %v", p)
	}

	for _, bad := range [][][]float64{
		{{10}},
		{{10, 20, 30}},
		{{math.NaN(), 20}},
		{{0, math.Inf(1)}},
	} {
		if _, err := FromPairs(bad); !errors.Is(err, ErrMalformedRange) {
			t.Errorf("FromPairs(%v) error = %v, want ErrMalformedRange", bad, err)
		}
	}
}
