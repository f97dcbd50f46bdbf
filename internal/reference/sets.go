// Package reference scores well-known industry palettes so generated
// palettes can be compared against them.
package reference

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
	"github.com/wethinkt/go-colorgorical/internal/palette"
)

//go:embed palette-sets.json
var builtinSets []byte

// ErrInvalidSets is returned when a palette set file cannot be used.
var ErrInvalidSets = errors.New("invalid reference palette sets")

// Set is a named palette from a collection. Variants hold hex colors,
// shortest first; a comparison at size n takes the first n colors of the
// shortest variant with at least n colors.
type Set struct {
	Collection string     `json:"collection"`
	Name       string     `json:"name"`
	Variants   [][]string `json:"variants"`
}

// File is the on-disk layout of a palette set file.
type File struct {
	Sizes []int `json:"sizes"`
	Sets  []Set `json:"sets"`
}

// Builtin returns the embedded ColorBrewer and Tableau sets.
func Builtin() File {
	f, err := Parse(builtinSets)
	if err != nil {
		panic(fmt.Sprintf("embedded palette sets: %v", err))
	}
	return f
}

// Parse decodes and validates a palette set file.
func Parse(data []byte) (File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrInvalidSets, err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Read parses a palette set file from r.
func Read(r io.Reader) (File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("read palette sets: %w", err)
	}
	return Parse(data)
}

// Load reads a palette set file from path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read palette sets: %w", err)
	}
	return Parse(data)
}

// Validate checks sizes and that every color parses.
func (f File) Validate() error {
	if len(f.Sizes) == 0 {
		return fmt.Errorf("%w: no sizes", ErrInvalidSets)
	}
	for _, n := range f.Sizes {
		if n < 2 {
			return fmt.Errorf("%w: size %d cannot be scored", ErrInvalidSets, n)
		}
	}
	if len(f.Sets) == 0 {
		return fmt.Errorf("%w: no sets", ErrInvalidSets)
	}
	for _, s := range f.Sets {
		if s.Name == "" || s.Collection == "" {
			return fmt.Errorf("%w: set needs a name and a collection", ErrInvalidSets)
		}
		for _, v := range s.Variants {
			for _, hex := range v {
				if _, err := colorspace.ParseHex(hex); err != nil {
					return fmt.Errorf("%w: %s/%s: %w", ErrInvalidSets, s.Collection, s.Name, err)
				}
			}
		}
	}
	return nil
}

// Palette returns the set's first n colors, converted to Lab and snapped to
// the catalog grid. ok is false when no variant has n colors.
func (s Set) Palette(n int) (p palette.Palette, ok bool) {
	for _, v := range s.Variants {
		if len(v) < n {
			continue
		}
		p = make(palette.Palette, n)
		for i, hex := range v[:n] {
			rgb, err := colorspace.ParseHex(hex)
			if err != nil {
				return nil, false
			}
			p[i] = colorspace.Snap(colorspace.RGBToLab(rgb))
		}
		return p, true
	}
	return nil, false
}
