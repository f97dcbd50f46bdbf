package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-colorgorical/internal/colorspace"
	"github.com/wethinkt/go-colorgorical/internal/server"
)

// score command flags
var (
	scoreName      string
	scoreWeights   string
	scoreNoHistory bool
)

var scoreCmd = &cobra.Command{
	Use:   "score COLOR...",
	Short: "Score an existing palette",
	Long: `Score a palette given as colors in #rrggbb or L,a,b form. Lab colors are
snapped to the catalog grid before scoring.

The report lists the worst pair on every metric, the pairwise perceptual
distance, name difference and pair preference, and each color's name
uniqueness.

Examples:
  colorgorical score '#1f77b4' '#ff7f0e' '#2ca02c' '#d62728'
  colorgorical score 50,0,0 70,40,40 30,10,-50 --name mine
  colorgorical score '#e41a1c' '#377eb8' --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreName, "name", "", "palette name shown in the report")
	scoreCmd.Flags().StringVarP(&scoreWeights, "weights", "w", "", "weights applied to the minimum scores, e.g. de=1,nd=1,nu=0,pp=1")
	scoreCmd.Flags().BoolVar(&scoreNoHistory, "no-history", false, "don't record the palette in the history")
}

func runScore(cmd *cobra.Command, args []string) error {
	labs, err := parseLabs(args)
	if err != nil {
		return err
	}
	in := server.ScoreRequest{Palette: labs, Name: scoreName}
	if scoreWeights != "" {
		if in.Weights, err = parseWeights(scoreWeights); err != nil {
			return err
		}
	}

	svc, closeHistory, err := newService(cfg, !scoreNoHistory)
	if err != nil {
		return err
	}
	defer closeHistory()

	out, err := svc.Score(cmd.Context(), in)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputJSON {
		return printJSON(w, out)
	}
	if !out.Scorable {
		fmt.Fprintln(w, "A palette needs at least two colors to be scored.")
		return nil
	}
	return printScoreReport(w, out)
}

// printScoreReport renders out as a markdown report.
func printScoreReport(w io.Writer, out server.ScoreResponse) error {
	color := styled(w)
	report, err := renderMarkdown(scoreMarkdown(out), termWidth(w), color)
	if err != nil {
		return err
	}
	fmt.Fprint(w, report)

	fmt.Fprintln(w, heading("Colors", color))
	colors := make([]server.ColorInfo, len(out.ConvertedPalette))
	for i, row := range out.ConvertedPalette {
		lab := colorspace.Lab{L: row[0], A: row[1], B: row[2]}
		rgb := colorspace.LabToRGB(lab)
		colors[i] = server.ColorInfo{Lab: lab, LabString: lab.String(), RGB: rgb, RGBString: rgb.String(), Hex: rgb.Hex()}
	}
	printColors(w, colors, color)
	return nil
}

// scoreMarkdown lays out a score response as markdown tables.
func scoreMarkdown(out server.ScoreResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", out.Name)
	fmt.Fprintf(&b, "id `%s`\n\n", out.UniqID)

	b.WriteString("## Worst pair\n\n")
	b.WriteString("| Metric | Score |\n|---|---|\n")
	m := out.MinScores
	fmt.Fprintf(&b, "| Perceptual distance | %.0f |\n", m.DE)
	fmt.Fprintf(&b, "| Name difference | %.2f |\n", m.ND)
	fmt.Fprintf(&b, "| Name uniqueness | %.2f |\n", m.NU)
	fmt.Fprintf(&b, "| Pair preference | %.0f |\n\n", m.PP)

	writeMatrix(&b, "Perceptual distance", out.DEMatrix)
	writeMatrix(&b, "Name difference", out.NDMatrix)
	writeMatrix(&b, "Pair preference", out.PPMatrix)

	b.WriteString("## Name uniqueness\n\n")
	b.WriteString("| Color | Score |\n|---|---|\n")
	for i, nu := range out.NUScores {
		fmt.Fprintf(&b, "| %d | %.2f |\n", i+1, nu)
	}
	b.WriteString("\n")
	return b.String()
}

// writeMatrix writes a lower-triangular matrix as a table with 1-based
// color numbers on both axes.
func writeMatrix(b *strings.Builder, title string, m [][]any) {
	fmt.Fprintf(b, "## %s\n\n|   |", title)
	for j := range m {
		fmt.Fprintf(b, " %d |", j+1)
	}
	b.WriteString("\n|---|")
	for range m {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for i, row := range m {
		fmt.Fprintf(b, "| **%d** |", i+1)
		for _, cell := range row {
			fmt.Fprintf(b, " %v |", cell)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
