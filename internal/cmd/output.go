package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/wethinkt/go-colorgorical/internal/server"
)

// styled reports whether w is a terminal that can show colors.
func styled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the width of w when it is a terminal, else 80.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
)

// swatch renders a block filled with hex. Without color the hex code is
// shown in its place.
func swatch(hex string, color bool) string {
	if !color {
		return fmt.Sprintf("[%s]", hex)
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("         ")
}

// padRight pads s to width visible cells, ignoring escape sequences.
func padRight(s string, width int) string {
	if n := ansi.StringWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// printColors writes one line per color: swatch, hex, rgb and Lab.
func printColors(w io.Writer, colors []server.ColorInfo, color bool) {
	for i, c := range colors {
		num := fmt.Sprintf("%2d", i+1)
		if color {
			num = mutedStyle.Render(num)
		}
		fmt.Fprintf(w, "%s %s %s %s %s\n",
			num,
			padRight(swatch(c.Hex, color), 10),
			padRight(c.Hex, 8),
			padRight(c.RGBString, 17),
			c.LabString,
		)
	}
}

// heading renders a bold label on terminals.
func heading(s string, color bool) string {
	if !color {
		return s
	}
	return labelStyle.Render(s)
}

// renderMarkdown renders md for the terminal. Plain output uses the
// no-color style so pipes stay free of escape codes.
func renderMarkdown(md string, width int, color bool) (string, error) {
	style := glamour.WithAutoStyle()
	if !color {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(max(20, width-4)))
	if err != nil {
		return "", err
	}
	out, err := r.Render(md)
	if err != nil {
		return "", err
	}
	if !color {
		out = ansi.Strip(out)
	}
	return out, nil
}
