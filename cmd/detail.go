package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
)

var (
	flagDetailFrom  string
	flagDetailTo    string
	flagDetailSort  string
	flagDetailLimit int
)

var detailCmd = &cobra.Command{
	Use:   "detail [files...]",
	Short: "Per-user, per-day feature usage",
	RunE:  runDetail,
}

func init() {
	detailCmd.Flags().StringVar(&flagDetailFrom, "from", "", "First day to include (YYYY-MM-DD)")
	detailCmd.Flags().StringVar(&flagDetailTo, "to", "", "Last day to include (YYYY-MM-DD)")
	detailCmd.Flags().StringVarP(&flagDetailSort, "sort", "s", string(model.SortDate), "Sort by date, user, or activity")
	detailCmd.Flags().IntVarP(&flagDetailLimit, "limit", "n", 0, "Max rows; 0 caps unfiltered output, -1 shows all")
	rootCmd.AddCommand(detailCmd)
}

func runDetail(cmd *cobra.Command, args []string) error {
	sort, ok := model.ParseDetailSort(flagDetailSort)
	if !ok {
		return fmt.Errorf("invalid --sort %q (want date, user, or activity)", flagDetailSort)
	}

	ds, _, ok, err := workingSet(cmd, args)
	if err != nil || !ok {
		return err
	}

	q := model.DetailQuery{From: flagDetailFrom, To: flagDetailTo, Sort: sort, Limit: flagDetailLimit}
	rows := pipeline.DetailRows(ds, q)

	fmt.Println()
	fmt.Println(cli.RenderTitle("DAILY DETAIL  " + filterNote()))
	fmt.Println()

	if len(rows) == 0 {
		fmt.Println("  No records in the selected range.")
		return nil
	}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Day,
			r.User,
			cli.FormatList(featureNames(r.Features), 3),
			cli.FormatNumber(r.Generations),
			cli.FormatNumber(r.Acceptances),
			cli.FormatNumber(r.Interactions),
			cli.FormatFlag(r.UsedChat),
			cli.FormatFlag(r.UsedAgent),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Day", "User", "Features", "Gens", "Accepted", "Chats", "Chat", "Agent"},
		Rows:     out,
		TextCols: 3,
	}))

	if q.Limit == 0 && !q.Filtered() && len(rows) == pipeline.DefaultDetailLimit {
		fmt.Println(cli.RenderMuted(fmt.Sprintf("  Showing the first %d rows. Use --from/--to or --limit -1 for more.",
			pipeline.DefaultDetailLimit)))
	}
	return nil
}

func featureNames(fs []model.DetailFeature) []string {
	return lo.Map(fs, func(f model.DetailFeature, _ int) string { return f.Name })
}
