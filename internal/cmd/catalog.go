package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-colorgorical/internal/catalog"
)

var catalogOutput string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect or export the color catalog",
	Long: `The catalog is the discretized CIE Lab space palettes are sampled from:
every grid point 5 units apart whose sRGB coordinates lie near the gamut.
A CSV table may replace the generated grid with [catalog] path in the config.

Examples:
  colorgorical catalog             # Summarize the active catalog
  colorgorical catalog export -o colors.csv`,
	Args: cobra.NoArgs,
	RunE: runCatalogInfo,
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the catalog as CSV",
	Long: `Write the active catalog as a headerless nine-column CSV table: L, a, b,
hue, chroma, lightness, R, G, B. The output can be loaded back with
[catalog] path in the config.`,
	Args: cobra.NoArgs,
	RunE: runCatalogExport,
}

func init() {
	catalogExportCmd.Flags().StringVarP(&catalogOutput, "output", "o", "-", "output file (default stdout)")
	catalogCmd.AddCommand(catalogExportCmd)
}

// catalogSummary describes a catalog.
type catalogSummary struct {
	Source      string `json:"source"`
	Colors      int    `json:"colors"`
	InGamut     int    `json:"in_gamut"`
	StartColors int    `json:"start_colors"`
}

func summarizeCatalog(cat *catalog.Catalog, source string) catalogSummary {
	s := catalogSummary{Source: source, Colors: cat.Len(), StartColors: len(cat.StartColors())}
	for i := range cat.Len() {
		if cat.At(i).InGamut() {
			s.InGamut++
		}
	}
	return s
}

func runCatalogInfo(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	s := summarizeCatalog(cat, catalogSource(cfg.Catalog))

	w := cmd.OutOrStdout()
	if outputJSON {
		return printJSON(w, s)
	}
	fmt.Fprintf(w, "source:        %s\n", s.Source)
	fmt.Fprintf(w, "colors:        %d\n", s.Colors)
	fmt.Fprintf(w, "in sRGB gamut: %d\n", s.InGamut)
	fmt.Fprintf(w, "start colors:  %d\n", s.StartColors)
	return nil
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	if catalogOutput == "-" {
		return cat.WriteCSV(cmd.OutOrStdout())
	}

	f, err := os.Create(catalogOutput)
	if err != nil {
		return err
	}
	if err := cat.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d colors to %s\n", cat.Len(), catalogOutput)
	return nil
}
