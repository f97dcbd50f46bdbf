package catalog

import (
	"bytes"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
)

func TestGenerate(t *testing.T) {
	cat := Generate()
	if n := cat.Len(); n != ExpectedSize {
		t.Fatalf("Generate() has %d colors, want %d", n, ExpectedSize)
	}

	inGamut := 0
	for _, c := range cat.Colors() {
		if !onGrid(c.Lab.L) || !onGrid(c.Lab.A) || !onGrid(c.Lab.B) {
			t.Fatalf("%v is off grid", c.Lab)
		}
		if c.Hue < 0 || c.Hue >= 360 {
			t.Fatalf("%v has hue %v outside [0,360)", c.Lab, c.Hue)
		}
		if c.InGamut() {
			inGamut++
		}
	}
	if inGamut == 0 || inGamut == cat.Len() {
		t.Errorf("in-gamut count %d of %d, want a proper subset", inGamut, cat.Len())
	}

	for _, lab := range []colorspace.Lab{{L: 0}, {L: 100}, {L: 50}} {
		if cat.Index(lab) < 0 {
			t.Errorf("catalog is missing %v", lab)
		}
	}
	if cat.Index(colorspace.Lab{L: 90, A: -85, B: -110}) >= 0 {
		t.Error("catalog contains a color far outside sRGB")
	}
}

func TestStartColors(t *testing.T) {
	start := Generate().StartColors()
	if len(start) < 50 {
		t.Fatalf("only %d start colors", len(start))
	}
	for _, c := range start {
		if math.Mod(c.Lab.L-10, 15) != 0 || math.Mod(c.Lab.A+105, 15) != 0 || math.Mod(c.Lab.B+105, 15) != 0 {
			t.Fatalf("%v is not on the starting grid", c.Lab)
		}
	}
}

func TestCSVRoundTrip(t *testing.T) {
	cat := Generate()
	var buf bytes.Buffer
	if err := cat.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := LoadCSV(&buf, LoadOptions{ExpectedSize: cat.Len()})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got.Colors(), cat.Colors()) {
		t.Error("loaded catalog differs from the written one")
	}
}

func TestLoadCSV_Invalid(t *testing.T) {
	const row = "50,0,0,0,0,50,119,119,119\n"
	tests := []struct {
		name string
		in   string
		opts LoadOptions
	}{
		{"empty", "", LoadOptions{}},
		{"short row", "50,0,0,0,0,50,119,119\n", LoadOptions{}},
		{"not a number", "50,x,0,0,0,50,119,119,119\n", LoadOptions{}},
		{"off grid", "52,0,0,0,0,52,125,125,125\n", LoadOptions{}},
		{"wrong size", row + row, LoadOptions{ExpectedSize: ExpectedSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.in), tt.opts)
			if !errors.Is(err, ErrInvalidTable) {
				t.Errorf("err = %v, want ErrInvalidTable", err)
			}
		})
	}

	cat, err := LoadCSV(strings.NewReader(row), LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := cat.At(0).RGB; got != (colorspace.RGB{R: 119, G: 119, B: 119}) {
		t.Errorf("RGB = %v", got)
	}
}
