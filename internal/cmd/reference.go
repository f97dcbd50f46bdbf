package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-colorgorical/internal/reference"
	"github.com/wethinkt/go-colorgorical/internal/server"
)

// reference command flags
var (
	referenceSize int
	referenceFile string
)

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Score well-known reference palettes",
	Long: `Score the ColorBrewer and Tableau palettes truncated to each comparison
size and rank them on every metric, with per-collection averages.

A JSON file with the same layout as the built-in sets may replace them,
either with --file or with [reference] path in the config.

Examples:
  colorgorical reference
  colorgorical reference --size 5
  colorgorical reference --file my-sets.json --json`,
	Args: cobra.NoArgs,
	RunE: runReference,
}

func init() {
	referenceCmd.Flags().IntVarP(&referenceSize, "size", "n", 0, "only this palette size (default: every size)")
	referenceCmd.Flags().StringVar(&referenceFile, "file", "", "reference sets JSON (default from config)")
}

func runReference(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cfg)
	if err != nil {
		return err
	}
	path := cfg.Reference.Path
	if referenceFile != "" {
		path = referenceFile
	}
	refs, err := reference.NewRegistry(e, path)
	if err != nil {
		return err
	}
	out, err := server.NewService(e, cfg.Palette, server.WithReferences(refs)).References(referenceSize)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputJSON {
		return printJSON(w, out)
	}
	report, err := renderMarkdown(referenceMarkdown(out), termWidth(w), styled(w))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, report)
	return err
}

// metricTitles names each metric in reports.
var metricTitles = map[reference.Metric]string{
	reference.MetricDE: "Perceptual distance",
	reference.MetricND: "Name difference",
	reference.MetricNU: "Name uniqueness",
	reference.MetricPP: "Pair preference",
}

// referenceMarkdown lays out comparisons as ranking and average tables.
func referenceMarkdown(out server.ReferenceResponse) string {
	sizes := make([]int, 0, len(out.Comparisons))
	for n := range out.Comparisons {
		sizes = append(sizes, n)
	}
	slices.Sort(sizes)

	var b strings.Builder
	fmt.Fprintf(&b, "# Reference palettes\n\nsource: `%s`\n\n", out.Source)
	for _, n := range sizes {
		c := out.Comparisons[n]
		fmt.Fprintf(&b, "## %d colors\n\n", n)
		for _, m := range reference.Metrics {
			fmt.Fprintf(&b, "### %s\n\n", metricTitles[m])
			b.WriteString("| Palette | Score |\n|---|---|\n")
			for _, e := range c.Rankings[m] {
				fmt.Fprintf(&b, "| %s %s | %g |\n", e.Collection, e.Name, e.Score)
			}
			b.WriteString("\n| Collection | Mean | SD | SE | N |\n|---|---|---|---|---|\n")
			for _, a := range c.Averages[m] {
				fmt.Fprintf(&b, "| %s | %g | %.2f | %.2f | %d |\n", a.Collection, a.Mean, a.SD, a.SE, a.N)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
