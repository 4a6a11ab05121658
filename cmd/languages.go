package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
)

var flagMinGenerations int64

var languagesCmd = &cobra.Command{
	Use:   "languages [files...]",
	Short: "Language usage and acceptance ranking",
	RunE:  runLanguages,
}

func init() {
	languagesCmd.Flags().Int64Var(&flagMinGenerations, "min-generations", pipeline.MinLanguageGenerations,
		"Minimum generations for the acceptance ranking")
	rootCmd.AddCommand(languagesCmd)
}

func runLanguages(cmd *cobra.Command, args []string) error {
	ds, _, ok, err := workingSet(cmd, args)
	if err != nil || !ok {
		return err
	}

	byUsage := pipeline.TopLanguagesByUsage(ds, pipeline.DefaultTopLanguages)
	byRate := pipeline.TopLanguagesByRate(ds, flagMinGenerations, pipeline.DefaultTopLanguages)

	fmt.Println()
	fmt.Println(cli.RenderTitle("LANGUAGES  " + filterNote()))
	fmt.Println()

	if len(byUsage) == 0 {
		fmt.Println("  No language breakdowns in these exports.")
		return nil
	}

	fmt.Print(cli.RenderTable(languageTable("By Usage", byUsage)))
	fmt.Println()
	if len(byRate) == 0 {
		fmt.Printf("  No language reaches %d generations.\n", flagMinGenerations)
		return nil
	}
	t := languageTable(fmt.Sprintf("By Acceptance (min %d gens)", flagMinGenerations), byRate)
	for i, l := range byRate {
		t.Rows[i] = append(t.Rows[i], model.BandFor(l.AcceptanceRate).String())
	}
	t.Headers = append(t.Headers, "Band")
	fmt.Print(cli.RenderTable(t))
	return nil
}

func languageTable(title string, langs []model.LanguageStats) cli.Table {
	rows := make([][]string, 0, len(langs))
	for _, l := range langs {
		rows = append(rows, []string{
			l.Language,
			cli.FormatNumber(l.Generations),
			cli.FormatNumber(l.Acceptances),
			cli.RateStyle(l.AcceptanceRate).Render(cli.FormatRate(l.AcceptanceRate)),
		})
	}
	return cli.Table{
		Title:   title,
		Headers: []string{"Language", "Gens", "Accepted", "Rate"},
		Rows:    rows,
	}
}
