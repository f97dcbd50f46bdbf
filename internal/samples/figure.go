package samples

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
	"github.com/wethinkt/go-colorgorical/internal/palette"
)

const (
	cellPx     = 24
	margin     = 12
	lineHeight = 15
	titleGap   = 24
)

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ink        = color.RGBA{0x33, 0x33, 0x33, 0xff}
	titleInk   = color.RGBA{0x01, 0x01, 0x01, 0xff}
)

// Name is the figure basename for a weight setting, e.g.
// "10-PD__5-ND__0-NU__10-PP".
func Name(w palette.Weights) string {
	return fmt.Sprintf("%d-PD__%d-ND__%d-NU__%d-PP",
		tenths(w.CIEDE2000), tenths(w.NameDifference), tenths(w.NameUniqueness), tenths(w.PairPreference))
}

func tenths(v float64) int { return int(math.Round(10 * v)) }

// Title is the caption drawn above a figure.
func Title(w palette.Weights) string {
	return fmt.Sprintf("Slider settings: PD:%g ND:%g NU:%g PP:%g",
		w.CIEDE2000, w.NameDifference, w.NameUniqueness, w.PairPreference)
}

// LabName lists a palette's colors as truncated Lab triples.
func LabName(p palette.Palette) string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = fmt.Sprintf("[%d,%d,%d]", int(c.L), int(c.A), int(c.B))
	}
	return strings.Join(parts, "; ")
}

// Render draws one setting: a block of swatch rows per size, one row per
// repeat, followed by a table of every palette's Lab values.
func Render(s Setting) *image.RGBA {
	grid := swatchGrid(s)
	swatchW, swatchH := grid.Bounds().Dx()*cellPx, grid.Bounds().Dy()*cellPx

	face := basicfont.Face7x13
	var lines []string
	for _, sized := range s.Palettes {
		for _, p := range sized {
			lines = append(lines, LabName(p))
		}
	}
	textW := 0
	for _, l := range lines {
		textW = max(textW, font.MeasureString(face, l).Ceil())
	}
	title := Title(s.Weights)
	textH := len(lines) * lineHeight

	width := max(margin+swatchW+margin+textW+margin, margin+font.MeasureString(face, title).Ceil()+margin)
	height := margin + titleGap + max(swatchH, textH) + margin

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	top := margin + titleGap
	dst := image.Rect(margin, top, margin+swatchW, top+swatchH)
	draw.NearestNeighbor.Scale(img, dst, grid, grid.Bounds(), draw.Over, nil)

	drawText(img, face, titleInk, margin, margin+face.Metrics().Ascent.Ceil(), title)
	x := margin + swatchW + margin
	for i, l := range lines {
		drawText(img, face, ink, x, top+face.Metrics().Ascent.Ceil()+i*lineHeight, l)
	}
	return img
}

// swatchGrid renders one pixel per color. Sizes sit side by side separated
// by a blank column; repeats stack with a blank row between them.
func swatchGrid(s Setting) *image.RGBA {
	cols, rows := 0, 0
	for i, size := range s.Sizes {
		if i > 0 {
			cols++
		}
		cols += size
	}
	if s.Repeats > 0 {
		rows = 2*s.Repeats - 1
	}
	grid := image.NewRGBA(image.Rect(0, 0, max(cols, 1), max(rows, 1)))
	draw.Draw(grid, grid.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	x0 := 0
	for i, size := range s.Sizes {
		if i < len(s.Palettes) {
			for r, p := range s.Palettes[i] {
				for k, c := range p {
					if k >= size {
						break
					}
					rgb := colorspace.LabToRGB(c)
					grid.SetRGBA(x0+k, 2*r, color.RGBA{uint8(rgb.R), uint8(rgb.G), uint8(rgb.B), 0xff})
				}
			}
		}
		x0 += size + 1
	}
	return grid
}

func drawText(dst draw.Image, face font.Face, c color.Color, x, y int, s string) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

// WriteSwatch encodes the figure for s as PNG.
func WriteSwatch(w io.Writer, s Setting) error {
	return png.Encode(w, Render(s))
}

// WriteFigures writes one PNG per setting into dir and returns the file
// names in setting order.
func WriteFigures(dir string, settings []Setting) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create figure dir: %w", err)
	}
	names := make([]string, 0, len(settings))
	for _, s := range settings {
		name := Name(s.Weights) + ".png"
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if err := WriteSwatch(f, s); err != nil {
			f.Close()
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// TeXFile is the LaTeX include list written next to the figures.
const TeXFile = "img.tex"

// WriteTeX writes a figure environment for every PNG in dir.
func WriteTeX(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".png" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "\\begin{figure*}\n  \\includegraphics[width=\\textwidth]{%s}\n\\end{figure*}", e.Name())
	}
	return os.WriteFile(filepath.Join(dir, TeXFile), []byte(b.String()), 0o644)
}
