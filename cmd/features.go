package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
)

var featuresCmd = &cobra.Command{
	Use:   "features [files...]",
	Short: "Feature adoption and per-user feature usage",
	RunE:  runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)
}

func runFeatures(cmd *cobra.Command, args []string) error {
	ds, _, ok, err := workingSet(cmd, args)
	if err != nil || !ok {
		return err
	}

	features := pipeline.AggregateFeatures(ds)

	fmt.Println()
	fmt.Println(cli.RenderTitle("FEATURES  " + filterNote()))
	fmt.Println()

	if len(features) == 0 {
		fmt.Println("  No feature breakdowns in these exports.")
		return nil
	}

	peak := float64(features[0].Generations)
	for _, f := range features {
		fmt.Println(cli.RenderHorizontalBar(
			fmt.Sprintf("%-22s", f.Name), float64(f.Generations), peak, 30,
			fmt.Sprintf("%s gens, %s", cli.FormatNumber(f.Generations), cli.FormatRate(f.AcceptanceRate)),
		))
	}
	fmt.Println()

	matrix := pipeline.AggregateFeaturesByUser(ds, pipeline.DefaultFeatureUsers)
	if len(matrix.Rows) == 0 {
		return nil
	}

	headers := []string{"User"}
	for _, f := range matrix.Features {
		headers = append(headers, pipeline.FeatureDisplayName(f))
	}
	headers = append(headers, "Total")

	rows := make([][]string, 0, len(matrix.Rows))
	for _, r := range matrix.Rows {
		row := []string{r.User}
		for _, g := range r.Generations {
			row = append(row, cli.FormatCount(g))
		}
		rows = append(rows, append(row, cli.FormatCount(r.Total)))
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Generations by User",
		Headers: headers,
		Rows:    rows,
	}))
	return nil
}
