// Package tui provides the interactive Bubble Tea dashboard.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/config"
	"github.com/theirongolddev/copilotpulse/internal/copilot"
	"github.com/theirongolddev/copilotpulse/internal/logger"
	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
	"github.com/theirongolddev/copilotpulse/internal/state"
	"github.com/theirongolddev/copilotpulse/internal/tui/components"
	"github.com/theirongolddev/copilotpulse/internal/tui/theme"
)

// Options configures NewApp.
type Options struct {
	Inputs     []string
	Users      []string // initial user filter; empty selects everyone
	CachePath  string   // empty disables the parse cache
	Config     config.Config
	ConfigPath string // where settings are saved; empty keeps them in memory
	NeedSetup  bool
	Client     *copilot.Client // nil disables report fetching
	Logger     *logger.Logger
}

// DataLoadedMsg is sent once when the initial load finishes.
type DataLoadedMsg struct {
	Sources     []state.Source
	Files       int
	FileErrors  int
	ParseErrors int
	LoadTime    time.Duration
	Err         error
}

// RefreshDataMsg is sent when a reload finishes.
type RefreshDataMsg DataLoadedMsg

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// views holds every aggregate for the current working set.
type views struct {
	summary      model.SummaryStats
	days         []model.DailyStats
	trend        model.UserTrend
	adoption     model.AdoptionStats
	leaders      []model.UserStats
	heatmap      model.Heatmap
	languages    []model.LanguageStats
	langRates    []model.LanguageStats
	features     []model.FeatureStats
	featureUsers model.FeatureMatrix
	ides         []model.ShareStats
	models       []model.ShareStats
	detail       []model.DetailRow
}

// App is the root Bubble Tea model.
type App struct {
	opts  Options
	cfg   config.Config
	log   *logger.Logger
	store *state.Store
	st    state.State
	v     views

	loaded      bool
	loadErr     error
	loadTime    time.Duration
	files       int
	fileErrors  int
	parseErrors int
	refreshing  bool
	message     string // transient status bar note

	width     int
	height    int
	activeTab int
	showHelp  bool

	filter   filterState
	detail   detailState
	settings settingsState
	report   reportState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg // progress and the final load message
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5
)

const (
	tabOverview = iota
	tabUsers
	tabBreakdown
	tabDetail
	tabSettings
)

// NewApp creates the dashboard model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:      opts,
		cfg:       opts.Config,
		log:       logger.OrNop(opts.Logger),
		store:     state.NewStore(state.State{}),
		needSetup: opts.NeedSetup,
		detail:    newDetailState(),
		spinner:   sp,
		loadSub:   make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts.Inputs, a.opts.CachePath, a.log, a.loadSub),
		a.spinner.Tick,
	)
}

// apply stores st and recomputes every view from its working set.
func (a *App) apply(st state.State) {
	a.st = st
	ds := st.Working()

	a.v.summary = pipeline.Summarize(ds)
	a.v.days = pipeline.AggregateDays(ds)
	a.v.trend = pipeline.ActiveUserTrend(a.v.days)
	a.v.adoption = pipeline.AggregateAdoption(ds)
	a.v.leaders = pipeline.AggregateUsers(ds, a.topUsers())
	a.v.heatmap = pipeline.AggregateHeatmap(ds, pipeline.DefaultHeatmapUsers)
	a.v.languages = pipeline.TopLanguagesByUsage(ds, pipeline.DefaultTopLanguages)
	a.v.langRates = pipeline.TopLanguagesByRate(ds, pipeline.MinLanguageGenerations, pipeline.DefaultTopLanguages)
	a.v.features = pipeline.AggregateFeatures(ds)
	a.v.featureUsers = pipeline.AggregateFeaturesByUser(ds, pipeline.DefaultFeatureUsers)
	a.v.ides = pipeline.AggregateIDEs(ds)
	a.v.models = pipeline.AggregateModels(ds, pipeline.DefaultTopModels)
	a.refreshDetail()

	a.filter.clamp(len(st.Users))
}

func (a *App) refreshDetail() {
	a.v.detail = pipeline.DetailRows(a.st.Working(), model.DetailQuery{
		From: a.detail.from,
		To:   a.detail.to,
		Sort: a.detail.sort,
	})
	a.detail.clamp(len(a.v.detail))
}

func (a *App) dispatch(action state.Action) {
	a.apply(a.store.Dispatch(action))
}

func (a App) topUsers() int {
	if a.cfg.General.TopUsers > 0 {
		return a.cfg.General.TopUsers
	}
	return pipeline.DefaultTopUsers
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case DataLoadedMsg:
		a.loaded = true
		a.setLoadStats(msg)
		a.dispatch(state.Load{Sources: msg.Sources})
		if len(a.opts.Users) > 0 {
			a.dispatch(state.SelectUsers{Users: a.opts.Users})
		}

		if a.needSetup {
			a.setupVals = new(SetupValues)
			*a.setupVals = SetupValuesFrom(a.cfg)
			a.setupForm = NewSetupForm(a.st.Dataset.Len(), a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case RefreshDataMsg:
		a.refreshing = false
		a.setLoadStats(DataLoadedMsg(msg))
		if msg.Err != nil {
			a.message = "Reload failed: " + msg.Err.Error()
			return a, nil
		}
		a.message = ""
		a.dispatch(state.Reload{Sources: msg.Sources})
		return a, nil

	case ReportLinkMsg:
		a.report.fetching = false
		a.report.result = msg.Result
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Cursor blinks and the like.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.detail.editing {
		var cmd tea.Cmd
		a.detail.input, cmd = a.detail.input.Update(msg)
		return a, cmd
	}
	if a.settings.editing {
		var cmd tea.Cmd
		a.settings.input, cmd = a.settings.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) setLoadStats(msg DataLoadedMsg) {
	a.loadErr = msg.Err
	a.loadTime = msg.LoadTime
	a.files = msg.Files
	a.fileErrors = msg.FileErrors
	a.parseErrors = msg.ParseErrors
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.loaded || a.showHelp || a.setupForm != nil || a.filter.open {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabDetail {
			a.detail.move(-1, len(a.v.detail))
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabDetail {
			a.detail.move(1, len(a.v.detail))
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y <= 1 {
			if tab := components.TabAtX(msg.X, a.activeTab); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// Modal inputs take every key.
	switch {
	case a.setupForm != nil:
		return a.updateSetupForm(msg)
	case a.filter.open:
		return a.updateFilter(msg)
	case a.detail.editing:
		return a.updateDetailInput(msg)
	case a.settings.editing:
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeTab {
	case tabDetail:
		if m, cmd, ok := a.updateDetailKeys(key); ok {
			return m, cmd
		}
	case tabSettings:
		if m, cmd, ok := a.updateSettingsKeys(key); ok {
			return m, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "f":
		a.filter.open = true
		return a, nil
	case "r":
		if a.refreshing {
			return a, nil
		}
		a.refreshing = true
		return a, refreshDataCmd(a.opts.Inputs, a.opts.CachePath, a.log)
	case "L":
		return a.startReportFetch()
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if len(msg.Runes) == 1 {
			if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.cfg = ApplySetup(a.cfg, *a.setupVals)
		theme.SetActive(a.cfg.Appearance.Theme)
		a.settings.saveErr = a.saveConfig()
		a.needSetup = false
		a.setupForm = nil
		a.apply(a.st)
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) saveConfig() error {
	if a.opts.ConfigPath == "" {
		return nil
	}
	return config.SaveTo(a.opts.ConfigPath, a.cfg)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	switch {
	case a.width == 0:
		return ""
	case a.width < minTerminalWidth:
		return a.viewTooNarrow()
	case !a.loaded:
		return a.viewLoading()
	case a.setupForm != nil:
		return a.setupForm.View()
	case a.showHelp:
		return a.viewHelp()
	case a.filter.open:
		return a.viewFilter()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  copilotpulse needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logo := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	count := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logo.Render("◈ copilotpulse"))
	b.WriteString(muted.Render(" · Copilot usage metrics"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())

	if a.progressMax > 0 {
		barW := min(max(a.width-30, 20), 40)
		b.WriteString(muted.Render(" Parsing exports\n\n"))
		b.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), barW))
		b.WriteString("\n")
		b.WriteString(count.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(muted.Render(" / "))
		b.WriteString(count.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(muted.Render(" Discovering exports..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

type binding struct{ key, desc string }

var helpSections = []struct {
	title    string
	bindings []binding
}{
	{"Navigation", []binding{
		{"o u b d x", "Jump to tab"},
		{"← →", "Previous / next tab"},
		{"j k", "Move in lists"},
		{"g G", "Top / bottom"},
	}},
	{"Actions", []binding{
		{"f", "Filter users"},
		{"/", "Detail date range"},
		{"s", "Cycle detail sort"},
		{"r", "Reload exports"},
		{"L", "Fetch latest report link"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}},
}

func (a App) viewHelp() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	title := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	section := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	desc := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(title.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range helpSections {
		b.WriteString("\n")
		b.WriteString(section.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-10s", bind.key)), desc.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderFilterPill(w)
	statusBar := components.RenderStatusBar(w, components.Status{
		Records:    a.st.Working().Len(),
		LoadTime:   fmt.Sprintf("%.1fs", a.loadTime.Seconds()),
		Refreshing: a.refreshing,
		Fetching:   a.report.fetching,
		Message:    a.message,
	})

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.activeTab == tabSettings:
		content = a.renderSettingsTab(cw)
	case a.st.Dataset.Len() == 0:
		content = a.renderEmpty(cw)
	case a.activeTab == tabOverview:
		content = a.renderOverviewTab(cw)
	case a.activeTab == tabUsers:
		content = a.renderUsersTab(cw)
	case a.activeTab == tabBreakdown:
		content = a.renderBreakdownTab(cw)
	case a.activeTab == tabDetail:
		content = a.renderDetailTab(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	out := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, out,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderFilterPill(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	s := dim.Render(" ") + accent.Render(a.selectionLabel())
	if r := pipeline.DateRange(a.st.Working()); r != nil {
		s += dim.Render(" │ ") + accent.Render(r.Start+" … "+r.End)
	}
	if a.detail.from != "" || a.detail.to != "" {
		s += dim.Render(" │ detail ") + accent.Render(rangeLabel(a.detail.from, a.detail.to))
	}
	return lipgloss.NewStyle().Background(t.Surface).Width(w).Render(s + dim.Render(" "))
}

func (a App) selectionLabel() string {
	sel := a.st.Selection
	switch {
	case sel.All():
		return fmt.Sprintf("all %d users", len(a.st.Users))
	case len(sel.Users()) == 0:
		return "no users"
	default:
		return fmt.Sprintf("%d of %d users", len(sel.Users()), len(a.st.Users))
	}
}

func (a App) renderEmpty(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	var b strings.Builder
	b.WriteString(muted.Render("No usage records loaded."))
	b.WriteString("\n\n")
	switch {
	case a.loadErr != nil:
		b.WriteString(warn.Render(a.loadErr.Error()))
	case a.fileErrors > 0:
		b.WriteString(warn.Render(fmt.Sprintf("%d of %d files could not be read.", a.fileErrors, a.files)))
	default:
		b.WriteString(muted.Render("Pass export files or directories: copilotpulse tui exports/"))
	}
	return components.ContentCard("Copilot usage", b.String(), cw)
}

// ─── Loading ────────────────────────────────────────────────────

// loadSources runs the shared load path and turns the result into a message.
func loadSources(ctx context.Context, inputs []string, cachePath string, log *logger.Logger, progress pipeline.ProgressFunc) DataLoadedMsg {
	start := time.Now()
	res, err := pipeline.LoadPaths(ctx, inputs, cachePath, pipeline.LoadOptions{
		Logger:   log,
		Progress: progress,
	})
	if err != nil {
		return DataLoadedMsg{LoadTime: time.Since(start), Err: err}
	}
	return DataLoadedMsg{
		Sources:     state.SourcesFrom(res),
		Files:       res.TotalFiles,
		FileErrors:  res.FileErrors,
		ParseErrors: res.ParseErrors,
		LoadTime:    time.Since(start),
	}
}

// loadDataCmd loads in a background goroutine. It streams ProgressMsg
// updates and exactly one DataLoadedMsg through sub.
func loadDataCmd(inputs []string, cachePath string, log *logger.Logger, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			// Non-blocking so parse workers never stall on the UI; a dropped
			// update is superseded by the next one.
			progress := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}
			sub <- loadSources(context.Background(), inputs, cachePath, log, progress)
		}()
		return <-sub
	}
}

// waitForLoadMsg blocks until the loader goroutine sends again.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads without progress reporting.
func refreshDataCmd(inputs []string, cachePath string, log *logger.Logger) tea.Cmd {
	return func() tea.Msg {
		return RefreshDataMsg(loadSources(context.Background(), inputs, cachePath, log, nil))
	}
}

// ─── Helpers ────────────────────────────────────────────────────

// chartDateLabels builds compact axis labels for ascending ISO days:
// "Jan 2" on the first day and at month boundaries, else the day number.
func chartDateLabels(days []model.DailyStats) []string {
	labels := make([]string, len(days))
	prev := time.Month(0)
	for i, d := range days {
		dt, err := time.Parse("2006-01-02", d.Day)
		if err != nil {
			labels[i] = d.Day
			continue
		}
		if i == 0 || dt.Month() != prev {
			labels[i] = dt.Format("Jan 2")
		} else {
			labels[i] = strconv.Itoa(dt.Day())
		}
		prev = dt.Month()
	}
	return labels
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	n := strings.Count(s, "\n") + 1
	if n >= h {
		return s
	}
	return s + strings.Repeat("\n", h-n)
}

// fillLinesWithBackground pads each line to w columns with bg.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
