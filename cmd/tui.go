package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/copilotpulse/internal/config"
	"github.com/theirongolddev/copilotpulse/internal/logger"
	"github.com/theirongolddev/copilotpulse/internal/tui"
	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [files or directories...]",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, args []string) error {
	theme.SetActive(appConfig.Appearance.Theme)

	// Without TrueColor lipgloss may pick the Ascii profile and drop the
	// background fills.
	lipgloss.SetColorProfile(termenv.TrueColor)

	// The copilot client is optional; L reports what is missing.
	client, _ := newCopilotClient(appConfig)

	app := tui.NewApp(tui.Options{
		Inputs:     inputPaths(args),
		Users:      selectedUsers(),
		CachePath:  cachePath(),
		Config:     appConfig,
		ConfigPath: config.ConfigPath(),
		NeedSetup:  !config.Exists(),
		Client:     client,
		Logger:     logger.Nop(),
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
