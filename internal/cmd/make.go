package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-colorgorical/internal/server"
)

// make command flags
var (
	makeSize      int
	makeWeights   string
	makeHues      []string
	makeLightness string
	makeSeeds     []string
	makeAllColors bool
	makeMarkSize  float64
	makeRuns      int
	makeNoHistory bool
)

var makeCmd = &cobra.Command{
	Use:   "make",
	Short: "Build a palette",
	Long: `Build a categorical palette. Several palettes are built with the same
settings and the one whose least preferred color pair is most preferred wins.

Weights range over [0,1]:
  de  perceptual distance (CIEDE2000)
  nd  color name difference
  nu  color name uniqueness
  pp  pair preference

Examples:
  colorgorical make -n 5
  colorgorical make -n 6 --weights de=1,pp=0.5
  colorgorical make -n 4 --hue 200:280 --lightness 40:70
  colorgorical make -n 3 --seed '#1f77b4' --seed 60,40,20`,
	Args: cobra.NoArgs,
	RunE: runMake,
}

func init() {
	makeCmd.Flags().IntVarP(&makeSize, "size", "n", 5, "number of colors")
	makeCmd.Flags().StringVarP(&makeWeights, "weights", "w", "", "score weights, e.g. de=1,nd=0.5,nu=0,pp=1 (default from config)")
	makeCmd.Flags().StringArrayVar(&makeHues, "hue", nil, "hue range low:high in degrees (repeatable)")
	makeCmd.Flags().StringVarP(&makeLightness, "lightness", "l", "", "lightness range low:high (default from config)")
	makeCmd.Flags().StringArrayVar(&makeSeeds, "seed", nil, "start color as #rrggbb or L,a,b (repeatable)")
	makeCmd.Flags().BoolVar(&makeAllColors, "all-colors", false, "allow colors outside the sRGB gamut")
	makeCmd.Flags().Float64Var(&makeMarkSize, "mark-size", 0, "mark size in degrees of visual angle (default from config)")
	makeCmd.Flags().IntVar(&makeRuns, "runs", 0, "palettes built per request (default from config)")
	makeCmd.Flags().BoolVar(&makeNoHistory, "no-history", false, "don't record the palette in the history")
}

// makeRequestFromFlags assembles a service request. Unset flags fall back to
// the configured defaults.
func makeRequestFromFlags() (server.MakeRequest, error) {
	size := makeSize
	in := server.MakeRequest{
		PaletteSize: &size,
		MarkSize:    makeMarkSize,
		NumPalettes: makeRuns,
		Weights:     cfg.Palette.Weights.Map(),
	}
	if makeWeights != "" {
		w, err := parseWeights(makeWeights)
		if err != nil {
			return server.MakeRequest{}, err
		}
		in.Weights = w
	}
	hues, err := parseRanges(makeHues)
	if err != nil {
		return server.MakeRequest{}, err
	}
	in.HueFilters = hues
	if makeLightness != "" {
		if in.LightnessRange, err = parseRange(makeLightness); err != nil {
			return server.MakeRequest{}, err
		}
	}
	if in.StartPalette, err = parseLabs(makeSeeds); err != nil {
		return server.MakeRequest{}, err
	}
	if makeAllColors {
		onlyRGB := false
		in.OnlyRGB = &onlyRGB
	}
	return in, nil
}

func runMake(cmd *cobra.Command, args []string) error {
	in, err := makeRequestFromFlags()
	if err != nil {
		return err
	}

	svc, closeHistory, err := newService(cfg, !makeNoHistory)
	if err != nil {
		return err
	}
	defer closeHistory()

	out, err := svc.Make(cmd.Context(), in)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputJSON {
		return printJSON(w, out)
	}

	color := styled(w)
	fmt.Fprintln(w, heading(fmt.Sprintf("Palette (%d of %d colors)", out.AchievedSize, out.PaletteSize), color))
	printColors(w, out.Colors, color)
	if out.AchievedSize < out.PaletteSize {
		fmt.Fprintln(w, "\nThe filters left too few noticeably different colors; try widening the hue or lightness ranges.")
	}
	fmt.Fprintf(w, "\nweights: %s\n", formatWeights(out.Weights))
	return nil
}

// formatWeights lists weights in flag order.
func formatWeights(m map[string]float64) string {
	parts := make([]string, 0, 4)
	for _, k := range []string{"de", "nd", "nu", "pp"} {
		parts = append(parts, fmt.Sprintf("%s=%g", k, m[weightAliases[k]]))
	}
	return strings.Join(parts, ",")
}
