package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-colorgorical/internal/samples"
)

// samples command flags
var (
	samplesDir     string
	samplesSizes   []int
	samplesRepeats int
	samplesRuns    int
	samplesWorkers int
	samplesFresh   bool
)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Generate sample palettes and figures",
	Long: `Build sample palettes for a grid of weight settings (perceptual distance,
name difference and pair preference at 0, 0.5 and 1) and write one PNG
figure per setting plus an img.tex include list.

Generated palettes are cached in examplePalettes.json inside the output
directory and reused on later runs unless --fresh is given.

Examples:
  colorgorical samples -o figures
  colorgorical samples -o figures --sizes 3,5 --repeats 4 --fresh`,
	Args: cobra.NoArgs,
	RunE: runSamples,
}

func init() {
	samplesCmd.Flags().StringVarP(&samplesDir, "output", "o", "samples", "output directory")
	samplesCmd.Flags().IntSliceVar(&samplesSizes, "sizes", samples.DefaultSizes, "palette sizes")
	samplesCmd.Flags().IntVar(&samplesRepeats, "repeats", samples.DefaultRepeats, "palettes per size")
	samplesCmd.Flags().IntVar(&samplesRuns, "runs", samples.DefaultNumPalettes, "candidates per preferable palette")
	samplesCmd.Flags().IntVar(&samplesWorkers, "workers", 0, "concurrent builds (default GOMAXPROCS)")
	samplesCmd.Flags().BoolVar(&samplesFresh, "fresh", false, "ignore the palette cache")
}

func runSamples(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cfg)
	if err != nil {
		return err
	}

	g := samples.NewGenerator(e)
	g.Template = cfg.Palette.Request(0)
	g.Sizes = samplesSizes
	g.Repeats = samplesRepeats
	g.NumPalettes = samplesRuns
	g.Workers = samplesWorkers

	w := cmd.OutOrStdout()
	var settings []samples.Setting
	if samplesFresh {
		if settings, err = g.Generate(cmd.Context(), samples.WeightGrid()); err != nil {
			return err
		}
		if err := samples.SaveCache(filepath.Join(samplesDir, samples.CacheFile), settings); err != nil {
			return err
		}
	} else {
		var cached bool
		if settings, cached, err = g.LoadOrGenerate(cmd.Context(), samplesDir); err != nil {
			return err
		}
		if cached {
			fmt.Fprintf(w, "Using cached palettes from %s\n", filepath.Join(samplesDir, samples.CacheFile))
		}
	}

	names, err := samples.WriteFigures(samplesDir, settings)
	if err != nil {
		return err
	}
	if err := samples.WriteTeX(samplesDir); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %d figures and %s to %s\n", len(names), samples.TeXFile, samplesDir)
	return nil
}
