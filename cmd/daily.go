package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
)

var dailyCmd = &cobra.Command{
	Use:   "daily [files...]",
	Short: "Per-day activity table",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, args []string) error {
	ds, _, ok, err := workingSet(cmd, args)
	if err != nil || !ok {
		return err
	}

	days := pipeline.AggregateDays(ds)
	if len(days) == 0 {
		fmt.Println("\n  No dated records.")
		return nil
	}
	trend := pipeline.ActiveUserTrend(days)

	fmt.Println()
	fmt.Println(cli.RenderTitle("DAILY ACTIVITY  " + filterNote()))
	fmt.Println()

	rows := make([][]string, 0, len(days))
	dau := make([]float64, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Day,
			cli.FormatNumber(int64(d.ActiveUsers)),
			cli.FormatNumber(d.Generations),
			cli.FormatNumber(d.Acceptances),
			cli.RateStyle(d.AcceptanceRate).Render(cli.FormatRate(d.AcceptanceRate)),
			cli.FormatNumber(d.Interactions),
			cli.FormatNumber(d.LOCSuggested),
			cli.FormatNumber(d.LOCAdded),
		})
		dau = append(dau, float64(d.ActiveUsers))
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Day", "Users", "Gens", "Accepted", "Rate", "Chats", "LOC Sugg.", "LOC Added"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Printf("  Active users  %s  latest %d %s avg %.1f\n",
		cli.RenderSparkline(dau), trend.Latest, cli.FormatDirection(trend.Direction), trend.Average)
	return nil
}
