package cmd

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-colorgorical/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently made and scored palettes",
	Long: `List palettes recorded by make, score and the HTTP API, newest first.
History is kept in a DuckDB file under ~/.colorgorical unless
[store] enabled = false.

Examples:
  colorgorical history
  colorgorical history -n 50 --json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of palettes")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if !cfg.Store.Enabled {
		return errors.New("palette history is disabled in the config")
	}
	path, err := cfg.StorePath()
	if err != nil {
		return err
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputJSON {
		if records == nil {
			records = []store.Record{}
		}
		return printJSON(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No palettes recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tKIND\tSIZE\tCOLORS\tID")
	for _, r := range records {
		hexes := make([]string, len(r.Colors))
		for i, rgb := range r.Colors.RGB() {
			hexes[i] = rgb.Hex()
		}
		colors := strings.Join(hexes, " ")
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Kind,
			len(r.Colors), r.RequestedSize,
			colors,
			r.ID,
		)
	}
	return tw.Flush()
}
