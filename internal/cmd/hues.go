package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-colorgorical/internal/server"
)

var huesCmd = &cobra.Command{
	Use:   "hues RANGE...",
	Short: "Normalize hue filter ranges",
	Long: `Merge, wrap and sort hue ranges given as low:high in degrees. Ranges
crossing 0 are split; ranges covering the whole circle remove the filter.

Examples:
  colorgorical hues 350:10 5:20
  colorgorical hues -- -30:30`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHues,
}

func runHues(cmd *cobra.Command, args []string) error {
	ranges, err := parseRanges(args)
	if err != nil {
		return err
	}
	out, err := server.NormalizeHues(server.NormalizeRequest{Ranges: ranges})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputJSON {
		return printJSON(w, out)
	}
	if out.Unrestricted {
		fmt.Fprintln(w, "unrestricted")
		return nil
	}
	for _, r := range out.Ranges {
		fmt.Fprintf(w, "%g:%g\n", r[0], r[1])
	}
	return nil
}
