package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/copilotpulse/internal/config"
	"github.com/theirongolddev/copilotpulse/internal/copilot"
	"github.com/theirongolddev/copilotpulse/internal/tui/components"
	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

// ReportLinkMsg carries a finished report-link fetch.
type ReportLinkMsg struct {
	Result *copilot.Result
}

var errNoClient = errors.New("set a GitHub organization and token in Settings or with `copilotpulse setup`")

type reportState struct {
	fetching bool
	result   *copilot.Result
}

// clientFor builds a report client from cfg, or nil when org or token
// is missing.
func clientFor(cfg config.Config) *copilot.Client {
	c, err := copilot.NewClient(copilot.Options{
		Token:      config.GetToken(cfg),
		Org:        config.GetOrg(cfg),
		BaseURL:    cfg.GitHub.BaseURL,
		APIVersion: cfg.GitHub.APIVersion,
	})
	if err != nil {
		return nil
	}
	return c
}

// startReportFetch begins a fetch unless one is already in flight.
func (a App) startReportFetch() (tea.Model, tea.Cmd) {
	if a.report.fetching {
		return a, nil
	}
	if a.opts.Client == nil {
		a.report.result = &copilot.Result{FetchedAt: time.Now(), Error: errNoClient}
		return a, nil
	}
	a.report.fetching = true
	return a, fetchReportCmd(a.opts.Client)
}

func fetchReportCmd(client *copilot.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return ReportLinkMsg{Result: client.Fetch(ctx)}
	}
}

func (a App) renderReportCard(cw int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	link := lipgloss.NewStyle().Foreground(t.Blue).Background(t.Surface).Underline(true)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	innerW := components.CardInnerWidth(cw)
	res := a.report.result

	var b strings.Builder
	switch {
	case a.report.fetching:
		b.WriteString(label.Render("Fetching..."))
	case res == nil:
		b.WriteString(label.Render("Press L to fetch the latest 28-day users report link."))
	case res.Error != nil:
		msg := copilot.FriendlyError(res.Error)
		if errors.Is(res.Error, errNoClient) {
			msg = res.Error.Error()
		}
		b.WriteString(warn.Render(msg))
	default:
		b.WriteString(label.Render("Period   ") + value.Render(res.Link.ReportStartDay+" … "+res.Link.ReportEndDay) + "\n")
		b.WriteString(label.Render("Fetched  ") + value.Render(res.FetchedAt.Local().Format("15:04:05")) + "\n")
		for _, u := range res.Link.DownloadLinks {
			b.WriteString(link.Render(components.Trunc(u, innerW)))
			b.WriteString("\n")
		}
	}

	title := "Latest report"
	if a.opts.Client != nil {
		title = fmt.Sprintf("Latest report (%s)", a.opts.Client.Org())
	}
	return components.ContentCard(title, strings.TrimSuffix(b.String(), "\n"), cw)
}
