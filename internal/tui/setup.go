package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/copilotpulse/internal/config"
	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

// SetupValues are the answers collected by the setup form.
type SetupValues struct {
	Inputs string // comma separated
	Org    string
	Token  string
	Theme  string
}

// SetupValuesFrom prefills the form from cfg.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Inputs: strings.Join(cfg.General.Inputs, ", "),
		Org:    cfg.GitHub.Org,
		Theme:  cfg.Appearance.Theme,
	}
}

// NewSetupForm builds the first-run form. records is the number of records
// already loaded, shown as context; pass a negative value to omit it.
func NewSetupForm(records int, vals *SetupValues) *huh.Form {
	intro := "Merge Copilot usage-metrics exports and explore them."
	if records >= 0 {
		intro = fmt.Sprintf("Loaded %d usage records. A few settings and you're done.", records)
	}

	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themes = append(themes, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to copilotpulse").
				Description(intro),
			huh.NewInput().
				Title("Export files or directories").
				Description("Loaded when no paths are given on the command line. Comma separated.").
				Placeholder("~/copilot-exports").
				Value(&vals.Inputs),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("GitHub organization").
				Description("Used to fetch the latest usage report link. Leave blank to skip.").
				Value(&vals.Org),
			huh.NewInput().
				Title("GitHub token").
				Description("Needs Copilot metrics read access. GITHUB_TOKEN also works.").
				EchoMode(huh.EchoModePassword).
				Validate(validateToken).
				Value(&vals.Token),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&vals.Theme),
		),
	).WithShowHelp(true)
}

func validateToken(s string) error {
	s = strings.TrimSpace(s)
	if s != "" && len(s) < 8 {
		return errors.New("token looks too short")
	}
	return nil
}

// ApplySetup copies the answers onto cfg. Blank answers keep the existing
// value.
func ApplySetup(cfg config.Config, vals SetupValues) config.Config {
	if inputs := splitInputs(vals.Inputs); len(inputs) > 0 {
		cfg.General.Inputs = inputs
	}
	if org := strings.TrimSpace(vals.Org); org != "" {
		cfg.GitHub.Org = org
	}
	if tok := strings.TrimSpace(vals.Token); tok != "" {
		cfg.GitHub.Token = tok
	}
	if vals.Theme != "" {
		cfg.Appearance.Theme = theme.ByName(vals.Theme).Name
	}
	return cfg
}

func splitInputs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
