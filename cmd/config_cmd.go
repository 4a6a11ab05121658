// Package cmd implements the copilotpulse CLI commands.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/config"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Inputs:    %s\n", orNone(cfg.General.Inputs))
	fmt.Printf("    Users:     %s\n", orNone(cfg.General.Users))
	fmt.Printf("    Top users: %d\n", cfg.General.TopUsers)
	if cfg.General.NoCache {
		fmt.Println("    Cache:     disabled")
	} else {
		fmt.Printf("    Cache:     %s\n", pipeline.CachePath())
	}
	fmt.Println()

	fmt.Println("  [GitHub]")
	fmt.Printf("    Org:         %s\n", orDash(config.GetOrg(cfg)))
	fmt.Printf("    Token:       %s\n", cli.MaskToken(config.GetToken(cfg)))
	fmt.Printf("    Base URL:    %s\n", cfg.GitHub.BaseURL)
	fmt.Printf("    API version: %s\n", cfg.GitHub.APIVersion)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address: %s\n", cfg.Server.Addr)
	fmt.Printf("    Watch:   %v\n", cfg.Server.Watch)
	if d := cfg.Server.Interval(); d > 0 {
		fmt.Printf("    Reload:  every %s\n", d)
	}
	fmt.Println()

	fmt.Println("  Run `copilotpulse setup` to reconfigure.")
	return nil
}

func orNone(list []string) string {
	if len(list) == 0 {
		return "(none)"
	}
	return strings.Join(list, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
