package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
)

// Column layout of the catalog table.
const (
	colL = iota
	colA
	colB
	colHue
	colChroma
	colLightness
	colR
	colG
	colBlue
	numColumns
)

// LoadOptions controls table validation.
type LoadOptions struct {
	// ExpectedSize, when positive, is the exact number of rows required.
	ExpectedSize int
}

// Open loads a catalog table from path.
func Open(path string, opts LoadOptions) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCSV(f, opts)
}

// LoadCSV reads a headerless nine-column table: Lab (0-2), hue angle in
// degrees (3), chroma (4), lightness (5) and sRGB (6-8).
func LoadCSV(r io.Reader, opts LoadOptions) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var colors []Color
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read line %d: %v", ErrInvalidTable, line, err)
		}
		if len(rec) != numColumns {
			return nil, fmt.Errorf("%w: line %d has %d columns, want %d", ErrInvalidTable, line, len(rec), numColumns)
		}
		var v [numColumns]float64
		for i, field := range rec {
			f, err := strconv.ParseFloat(field, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("%w: line %d column %d: %q is not a number", ErrInvalidTable, line, i, field)
			}
			v[i] = f
		}
		if !onGrid(v[colL]) || !onGrid(v[colA]) || !onGrid(v[colB]) {
			return nil, fmt.Errorf("%w: line %d: (%g,%g,%g) is off the %g-unit grid", ErrInvalidTable, line, v[colL], v[colA], v[colB], Step)
		}
		colors = append(colors, Color{
			Lab:    colorspace.Lab{L: v[colL], A: v[colA], B: v[colB]},
			Hue:    v[colHue],
			Chroma: v[colChroma],
			RGB: colorspace.RGB{
				R: int(math.Round(v[colR])),
				G: int(math.Round(v[colG])),
				B: int(math.Round(v[colBlue])),
			},
		})
	}

	if len(colors) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrInvalidTable)
	}
	if opts.ExpectedSize > 0 && len(colors) != opts.ExpectedSize {
		return nil, fmt.Errorf("%w: %d colors, want %d", ErrInvalidTable, len(colors), opts.ExpectedSize)
	}
	return &Catalog{colors: colors}, nil
}

// WriteCSV writes the catalog in the layout LoadCSV reads.
func (c *Catalog) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	rec := make([]string, numColumns)
	for _, col := range c.colors {
		rec[colL] = ftoa(col.Lab.L)
		rec[colA] = ftoa(col.Lab.A)
		rec[colB] = ftoa(col.Lab.B)
		rec[colHue] = ftoa(col.Hue)
		rec[colChroma] = ftoa(col.Chroma)
		rec[colLightness] = ftoa(col.Lab.L)
		rec[colR] = strconv.Itoa(col.RGB.R)
		rec[colG] = strconv.Itoa(col.RGB.G)
		rec[colBlue] = strconv.Itoa(col.RGB.B)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write catalog: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
