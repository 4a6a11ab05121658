package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/config"
	"github.com/theirongolddev/copilotpulse/internal/copilot"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch the download link for the latest 28-day Copilot users report",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

// newCopilotClient builds a client from config and env, or explains what
// is missing.
func newCopilotClient(cfg config.Config) (*copilot.Client, error) {
	return copilot.NewClient(copilot.Options{
		Token:      config.GetToken(cfg),
		Org:        config.GetOrg(cfg),
		BaseURL:    cfg.GitHub.BaseURL,
		APIVersion: cfg.GitHub.APIVersion,
	})
}

func runReport(cmd *cobra.Command, _ []string) error {
	client, err := newCopilotClient(appConfig)
	if err != nil {
		fmt.Println()
		fmt.Println("  GitHub organization and token are required.")
		fmt.Println()
		fmt.Println("  Configure them:")
		fmt.Println("    copilotpulse setup                                   (interactive)")
		fmt.Println("    GITHUB_TOKEN=ghp_... COPILOTPULSE_ORG=acme copilotpulse report")
		fmt.Println()
		return err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fetching report link for %s...\n", client.Org())
	}

	link, err := client.FetchReportLink(cmd.Context())
	if err != nil {
		appLog.Debug("report fetch failed", "org", client.Org(), "error", err)
		return errors.New(copilot.FriendlyError(err))
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("COPILOT REPORT  " + client.Org()))
	fmt.Println()

	rows := [][]string{
		{"Start", link.ReportStartDay},
		{"End", link.ReportEndDay},
		{"Links", fmt.Sprintf("%d", len(link.DownloadLinks))},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Report", "Value"},
		Rows:    rows,
	}))
	fmt.Println()
	for _, u := range link.DownloadLinks {
		fmt.Println(" ", u)
	}
	fmt.Println()
	fmt.Println(cli.RenderMuted("  Download the file, then: copilotpulse summary <file>"))
	return nil
}
