package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-colorgorical/internal/server"
)

var convertRGB bool

var convertCmd = &cobra.Command{
	Use:   "convert COLOR",
	Short: "Convert a color between Lab and sRGB",
	Long: `Convert one color between CIE Lab (D65) and 8-bit sRGB.

COLOR is #rrggbb or a comma-separated triple. Triples are Lab unless --rgb
is given.

Examples:
  colorgorical convert '#ff0000'
  colorgorical convert 50,0,0
  colorgorical convert --rgb 255,128,0`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&convertRGB, "rgb", false, "read the triple as sRGB channels")
}

// convertRequest classifies a command-line color.
func convertRequest(s string, rgb bool) (server.ConvertRequest, error) {
	if strings.HasPrefix(s, "#") {
		return server.ConvertRequest{Hex: s}, nil
	}
	t, err := parseTriple(s)
	if err != nil {
		return server.ConvertRequest{}, err
	}
	if rgb {
		return server.ConvertRequest{RGB: []int{int(t[0]), int(t[1]), int(t[2])}}, nil
	}
	return server.ConvertRequest{Lab: t}, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, err := convertRequest(args[0], convertRGB)
	if err != nil {
		return err
	}
	out, err := server.Convert(in)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputJSON {
		return printJSON(w, out)
	}
	color := styled(w)
	fmt.Fprintf(w, "%s %s\n", swatch(out.Hex, color), heading(out.Hex, color))
	fmt.Fprintf(w, "lab:     %s\n", out.Lab)
	fmt.Fprintf(w, "snapped: %s\n", out.Snapped)
	fmt.Fprintf(w, "rgb:     %s\n", out.RGB)
	fmt.Fprintf(w, "chroma:  %.2f\n", out.Chroma)
	fmt.Fprintf(w, "hue:     %.2f\n", out.Hue)
	if !out.InGamut {
		fmt.Fprintln(w, "outside the sRGB gamut; rgb is clipped")
	}
	return nil
}
