package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/diet-tracker/internal/dashboard"
	"github.com/nhle/diet-tracker/internal/keys"
	appsync "github.com/nhle/diet-tracker/internal/sync"
	"github.com/nhle/diet-tracker/internal/theme"
	"github.com/nhle/diet-tracker/internal/ui"
	helpview "github.com/nhle/diet-tracker/internal/ui/help"
)

const (
	barWidth       = 30
	weeklyBarWidth = 40
)

// Source drives the view with dashboard loads.
type Source interface {
	Start() tea.Cmd
	Stop()
	Refresh() tea.Cmd
	WaitForNextResult() tea.Cmd
}

// Model is the dashboard screen.
type Model struct {
	source  Source
	keys    *keys.KeyMap
	help    helpview.Overlay
	spinner spinner.Model
	layout  ui.Layout

	data         dashboard.Data
	loaded       bool
	loading      bool
	err          error
	unauthorized bool
	showHelp     bool
}

// New creates the dashboard model fed by source.
func New(source Source, k *keys.KeyMap) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		source:  source,
		keys:    k,
		help:    helpview.New(k),
		spinner: sp,
		layout:  ui.NewLayout(80, 24),
		loading: true,
	}
}

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.source.Start(), m.spinner.Tick)
}

// Update handles window, key and load messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.source.Stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, tea.Batch(m.source.Refresh(), m.spinner.Tick)
		}
		return m, nil

	case appsync.DashboardMsg:
		m.loading = false
		m.err = msg.Error
		m.unauthorized = msg.Unauthorized
		if msg.Error == nil {
			m.data = msg.Data
			m.loaded = true
		}
		return m, m.source.WaitForNextResult()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	header := m.layout.RenderHeader("Diet Tracker", m.headerStatus())

	var content string
	switch {
	case m.showHelp:
		content = m.help.View(m.layout.Width)
	case !m.loaded:
		content = theme.DimmedStyle.Render("Loading dashboard...")
	default:
		content = lipgloss.JoinVertical(lipgloss.Left,
			m.renderToday(),
			m.renderWeekly(),
		)
	}

	return m.layout.RenderWithFrame(header, content, m.layout.RenderStatusBar(m.statusText()))
}

func (m Model) headerStatus() string {
	switch {
	case m.loading:
		return m.spinner.View() + " loading"
	case m.data.UsingDefaults:
		return "default targets"
	default:
		return m.data.PlanName
	}
}

func (m Model) statusText() string {
	switch {
	case m.unauthorized:
		return "Session expired. Run `diettracker login` to sign in again."
	case m.err != nil:
		return fmt.Sprintf("Refresh failed: %v", m.err)
	default:
		return m.help.Short()
	}
}

func (m Model) renderToday() string {
	d := m.data
	lines := []string{
		theme.SectionTitleStyle.Render("Today"),
		macroLine("calories", "Calories", d.Consumed.Calories, d.Targets.Calories, d.Percent.Calories, "kcal"),
		macroLine("protein", "Protein", d.Consumed.Protein, d.Targets.Protein, d.Percent.Protein, "g"),
		macroLine("carbs", "Carbs", d.Consumed.Carbs, d.Targets.Carbs, d.Percent.Carbs, "g"),
		macroLine("fat", "Fat", d.Consumed.Fat, d.Targets.Fat, d.Percent.Fat, "g"),
		theme.DimmedStyle.Render(fmt.Sprintf("Water target: %.0f ml", d.Targets.Water)),
	}
	if d.ExcludedRecords > 0 {
		lines = append(lines, theme.DimmedStyle.Render(
			fmt.Sprintf("%d record(s) left out: food not found", d.ExcludedRecords)))
	}
	return theme.PanelStyle.Render(strings.Join(lines, "\n"))
}

func macroLine(nutrient, label string, consumed, target, pct float64, unit string) string {
	name := theme.MacroStyle(nutrient).Render(fmt.Sprintf("%-9s", label))
	bar := theme.ProgressStyle(pct).Render(ui.Bar(barWidth, pct/100))
	return fmt.Sprintf("%s %s %6.0f / %-6.0f %-4s %5.0f%%", name, bar, consumed, target, unit, pct)
}

func (m Model) renderWeekly() string {
	maxCal := 0.0
	for _, p := range m.data.Weekly {
		if p.Calories > maxCal {
			maxCal = p.Calories
		}
	}

	lines := []string{theme.SectionTitleStyle.Render("Last 7 days")}
	for _, p := range m.data.Weekly {
		frac := 0.0
		if maxCal > 0 {
			frac = p.Calories / maxCal
		}
		bar := theme.MacroStyle("calories").Render(ui.Bar(weeklyBarWidth, frac))
		lines = append(lines, fmt.Sprintf("%s %s %6.0f kcal", p.Label(), bar, p.Calories))
	}
	return theme.PanelStyle.Render(strings.Join(lines, "\n"))
}
