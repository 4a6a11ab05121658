package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
)

var idesCmd = &cobra.Command{
	Use:   "ides [files...]",
	Short: "IDE share of usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShares(cmd, args, "IDES", "IDE", pipeline.AggregateIDEs)
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models [files...]",
	Short: "Model share of usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShares(cmd, args, "MODELS", "Model", func(ds model.Dataset) []model.ShareStats {
			return pipeline.AggregateModels(ds, pipeline.DefaultTopModels)
		})
	},
}

func init() {
	rootCmd.AddCommand(idesCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runShares(cmd *cobra.Command, args []string, title, label string, agg func(model.Dataset) []model.ShareStats) error {
	ds, _, ok, err := workingSet(cmd, args)
	if err != nil || !ok {
		return err
	}

	shares := agg(ds)

	fmt.Println()
	fmt.Println(cli.RenderTitle(title + "  " + filterNote()))
	fmt.Println()

	if len(shares) == 0 {
		fmt.Printf("  No %s breakdowns in these exports.\n", label)
		return nil
	}

	rows := make([][]string, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, []string{
			s.Name,
			cli.FormatNumber(s.Value),
			cli.FormatRate(s.SharePercent),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{label, "Weight", "Share"},
		Rows:    rows,
	}))
	return nil
}
