package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
)

var (
	flagUsersTop     int
	flagUsersHeatmap bool
)

var usersCmd = &cobra.Command{
	Use:   "users [files...]",
	Short: "User leaderboard by code generations",
	RunE:  runUsers,
}

func init() {
	usersCmd.Flags().IntVarP(&flagUsersTop, "top", "n", 0, "Number of users (default from config)")
	usersCmd.Flags().BoolVar(&flagUsersHeatmap, "heatmap", false, "Also show the user-by-day heatmap")
	rootCmd.AddCommand(usersCmd)
}

func runUsers(cmd *cobra.Command, args []string) error {
	ds, _, ok, err := workingSet(cmd, args)
	if err != nil || !ok {
		return err
	}

	limit := flagUsersTop
	if limit == 0 {
		limit = appConfig.General.TopUsers
	}
	users := pipeline.AggregateUsers(ds, limit)

	fmt.Println()
	fmt.Println(cli.RenderTitle("LEADERBOARD  " + filterNote()))
	fmt.Println()

	rows := make([][]string, 0, len(users))
	for i, u := range users {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			u.User,
			cli.FormatNumber(u.Generations),
			cli.FormatNumber(u.Acceptances),
			cli.RateStyle(u.AcceptanceRate).Render(cli.FormatRate(u.AcceptanceRate)),
			cli.FormatNumber(int64(u.ActiveDays)),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"#", "User", "Gens", "Accepted", "Rate", "Days"},
		Rows:     rows,
		TextCols: 2,
	}))

	if flagUsersHeatmap {
		fmt.Println()
		fmt.Print(renderHeatmap(pipeline.AggregateHeatmap(ds, pipeline.DefaultHeatmapUsers)))
	}
	return nil
}

func renderHeatmap(h model.Heatmap) string {
	if len(h.Users) == 0 || len(h.Days) == 0 {
		return ""
	}
	width := 0
	for _, u := range h.Users {
		width = max(width, len(u))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  %-*s  %s .. %s\n", width, "Activity", h.Days[0], h.Days[len(h.Days)-1])
	for i, u := range h.Users {
		fmt.Fprintf(&b, "  %-*s  ", width, u)
		for _, v := range h.Cells[i] {
			b.WriteString(cli.RenderShade(v, h.Max))
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %s\n", cli.RenderMuted(fmt.Sprintf("peak %s generations + acceptances in a day", cli.FormatNumber(h.Max))))
	return b.String()
}
