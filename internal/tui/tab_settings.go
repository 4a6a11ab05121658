package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/config"
	"github.com/theirongolddev/copilotpulse/internal/tui/components"
	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

const (
	settingsFieldInputs = iota
	settingsFieldOrg
	settingsFieldToken
	settingsFieldTheme
	settingsFieldTopUsers
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func (a App) updateSettingsKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a.settings.cursor = min(a.settings.cursor+1, settingsFieldCount-1)
	case "k", "up":
		a.settings.cursor = max(a.settings.cursor-1, 0)
	case "enter":
		if a.settings.cursor == settingsFieldTheme {
			a.cfg.Appearance.Theme = theme.Next(a.cfg.Appearance.Theme).Name
			theme.SetActive(a.cfg.Appearance.Theme)
			a.settings.saveErr = a.saveConfig()
			a.settings.saved = a.settings.saveErr == nil
			return a, nil, true
		}
		m, cmd := a.settingsStartEdit()
		return m, cmd, true
	default:
		return a, nil, false
	}
	a.settings.saved = false
	return a, nil, true
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 50

	switch a.settings.cursor {
	case settingsFieldInputs:
		ti.Placeholder = "~/copilot-exports, ./latest.json"
		ti.SetValue(strings.Join(a.cfg.General.Inputs, ", "))
	case settingsFieldOrg:
		ti.Placeholder = "acme"
		ti.SetValue(a.cfg.GitHub.Org)
	case settingsFieldToken:
		ti.Placeholder = "ghp_..."
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
		ti.SetValue(a.cfg.GitHub.Token)
	case settingsFieldTopUsers:
		ti.Placeholder = strconv.Itoa(a.topUsers())
		ti.CharLimit = 4
		if a.cfg.General.TopUsers > 0 {
			ti.SetValue(strconv.Itoa(a.cfg.General.TopUsers))
		}
	}

	ti.Focus()
	a.settings.input = ti
	a.settings.editing = true
	a.settings.saved = false
	return a, textinput.Blink
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		cmd, err := a.settingsSave(strings.TrimSpace(a.settings.input.Value()))
		if err != nil {
			a.settings.saveErr = err
			return a, nil
		}
		a.settings.editing = false
		a.settings.saveErr = a.saveConfig()
		a.settings.saved = a.settings.saveErr == nil
		return a, cmd
	case "esc":
		a.settings.editing = false
		a.settings.saveErr = nil
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave copies val into the field under the cursor and returns any
// follow-up the change needs.
func (a *App) settingsSave(val string) (tea.Cmd, error) {
	switch a.settings.cursor {
	case settingsFieldInputs:
		a.cfg.General.Inputs = splitInputs(val)
		if len(a.cfg.General.Inputs) == 0 || a.refreshing {
			return nil, nil
		}
		a.opts.Inputs = a.cfg.General.Inputs
		a.refreshing = true
		return refreshDataCmd(a.opts.Inputs, a.opts.CachePath, a.log), nil
	case settingsFieldOrg:
		a.cfg.GitHub.Org = val
		a.opts.Client = clientFor(a.cfg)
		a.report = reportState{}
	case settingsFieldToken:
		if err := validateToken(val); err != nil {
			return nil, err
		}
		a.cfg.GitHub.Token = val
		a.opts.Client = clientFor(a.cfg)
		a.report = reportState{}
	case settingsFieldTopUsers:
		if val == "" {
			a.cfg.General.TopUsers = 0
		} else {
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("top users must be a positive number, got %q", val)
			}
			a.cfg.General.TopUsers = n
		}
		a.apply(a.st)
	}
	return nil, nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	inputs := "(not set)"
	if len(a.cfg.General.Inputs) > 0 {
		inputs = cli.FormatList(a.cfg.General.Inputs, 3)
	}
	org := a.cfg.GitHub.Org
	if org == "" {
		org = "(not set)"
	}
	topUsers := strconv.Itoa(a.topUsers())
	if a.cfg.General.TopUsers == 0 {
		topUsers += " (default)"
	}

	fields := []struct{ label, value string }{
		{"Default inputs", inputs},
		{"GitHub org", org},
		{"GitHub token", cli.MaskToken(a.cfg.GitHub.Token)},
		{"Theme", theme.Active.Name},
		{"Top users", topUsers},
	}

	innerW := components.CardInnerWidth(cw)
	var form strings.Builder
	for i, f := range fields {
		switch {
		case a.settings.editing && i == a.settings.cursor:
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-16s ", f.label)))
			form.WriteString(a.settings.input.View())
		case i == a.settings.cursor:
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-16s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			form.WriteString(marker + label + value)
			if pad := innerW - lipgloss.Width(marker+label+value); pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		default:
			form.WriteString(valueStyle.Render("  "))
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-16s ", f.label+":")))
			form.WriteString(valueStyle.Render(f.value))
		}
		form.WriteString("\n")
	}

	switch {
	case a.settings.saveErr != nil:
		form.WriteString("\n")
		form.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	case a.settings.saved:
		form.WriteString("\n")
		form.WriteString(greenStyle.Render("Saved"))
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit or cycle theme  [Esc] cancel"))

	configPath := a.opts.ConfigPath
	if configPath == "" {
		configPath = "(not saved)"
	}
	var info strings.Builder
	info.WriteString(labelStyle.Render("Loaded inputs:   ") + valueStyle.Render(cli.FormatList(a.opts.Inputs, 3)) + "\n")
	info.WriteString(labelStyle.Render("Files:           ") + valueStyle.Render(fmt.Sprintf("%d (%d unreadable, %d bad records)", a.files, a.fileErrors, a.parseErrors)) + "\n")
	info.WriteString(labelStyle.Render("Records:         ") + valueStyle.Render(cli.FormatNumber(int64(a.st.Dataset.Len()))) + "\n")
	info.WriteString(labelStyle.Render("Load time:       ") + valueStyle.Render(fmt.Sprintf("%.1fs", a.loadTime.Seconds())) + "\n")
	info.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(configPath))
	if tok := config.GetToken(a.cfg); tok != "" && tok != a.cfg.GitHub.Token {
		info.WriteString("\n")
		info.WriteString(labelStyle.Render("Token source:    ") + valueStyle.Render("environment"))
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", form.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", info.String(), cw))
	b.WriteString("\n")
	b.WriteString(a.renderReportCard(cw))
	return b.String()
}
