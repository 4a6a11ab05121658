package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [files...]",
	Short: "Totals, acceptance rate, and feature adoption",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	ds, result, ok, err := workingSet(cmd, args)
	if err != nil || !ok {
		return err
	}

	sum := pipeline.Summarize(ds)
	adoption := pipeline.AggregateAdoption(ds)
	stats := pipeline.Stats(result.Dataset)

	fmt.Println()
	fmt.Println(cli.RenderTitle("COPILOT USAGE  " + filterNote()))
	fmt.Println()

	span := "-"
	if stats.DateRange != nil {
		span = fmt.Sprintf("%s .. %s", stats.DateRange.Start, stats.DateRange.End)
	}

	rows := [][]string{
		{"Active Users", cli.FormatNumber(int64(sum.Users))},
		{"Code Generations", cli.FormatNumber(sum.Generations)},
		{"Acceptances", cli.FormatNumber(sum.Acceptances)},
		{"Acceptance Rate", cli.RateStyle(sum.AcceptanceRate).Render(cli.FormatRate(sum.AcceptanceRate))},
		{"Interactions", cli.FormatNumber(sum.Interactions)},
		{"Lines Added", cli.FormatNumber(sum.LOCAdded)},
		{"---"},
		{"Agent Users", fmt.Sprintf("%d (%s)", adoption.Agent, cli.FormatRate(adoption.AgentPercent))},
		{"Chat Users", fmt.Sprintf("%d (%s)", adoption.Chat, cli.FormatRate(adoption.ChatPercent))},
		{"Both", fmt.Sprintf("%d (%s)", adoption.Both, cli.FormatRate(adoption.BothPercent))},
		{"Neither", fmt.Sprintf("%d (%s)", adoption.NotAdopted, cli.FormatRate(adoption.NotAdoptedPercent))},
		{"---"},
		{"Records", cli.FormatNumber(int64(stats.TotalRecords))},
		{"Days", cli.FormatNumber(int64(stats.UniqueDates))},
		{"Date Range", span},
		{"Files", fmt.Sprintf("%d", result.ParsedFiles)},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))
	return nil
}
