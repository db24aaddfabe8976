package dashboard

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/diet-tracker/internal/dashboard"
	"github.com/nhle/diet-tracker/internal/keys"
	"github.com/nhle/diet-tracker/internal/model"
	appsync "github.com/nhle/diet-tracker/internal/sync"
)

type fakeSource struct {
	started, stopped, refreshed, waits int
}

func (f *fakeSource) Start() tea.Cmd             { f.started++; return nil }
func (f *fakeSource) Stop()                      { f.stopped++ }
func (f *fakeSource) Refresh() tea.Cmd           { f.refreshed++; return nil }
func (f *fakeSource) WaitForNextResult() tea.Cmd { f.waits++; return nil }

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func sampleData() dashboard.Data {
	return dashboard.Data{
		PlanName: "Cut",
		Targets:  model.Targets{Calories: 1600, Protein: 120, Carbs: 150, Fat: 50, Water: 2500},
		Consumed: model.Nutrients{Calories: 800, Protein: 60},
		Percent:  dashboard.Percentages{Calories: 50, Protein: 50},
		Weekly: []dashboard.DayPoint{
			{Date: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), Calories: 1200},
			{Date: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), Calories: 800},
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestDashboardRendersLoadedData(t *testing.T) {
	src := &fakeSource{}
	m := New(src, keys.DefaultKeyMap())
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Contains(t, m.View(), "Loading dashboard")

	m = update(t, m, appsync.DashboardMsg{Data: sampleData(), Generation: 1})
	view := m.View()

	assert.Contains(t, view, "Cut")
	assert.Contains(t, view, "Calories")
	assert.Contains(t, view, "Last 7 days")
	assert.Contains(t, view, "Tue")
	assert.Equal(t, 1, src.waits, "keeps listening after a result")
}

func TestDashboardKeepsLastDataOnError(t *testing.T) {
	m := New(&fakeSource{}, keys.DefaultKeyMap())
	m = update(t, m, appsync.DashboardMsg{Data: sampleData()})
	m = update(t, m, appsync.DashboardMsg{Error: errors.New("backend down")})

	view := m.View()
	assert.Contains(t, view, "Refresh failed: backend down")
	assert.Contains(t, view, "Cut")
}

func TestDashboardShowsSessionExpiry(t *testing.T) {
	m := New(&fakeSource{}, keys.DefaultKeyMap())
	m = update(t, m, appsync.DashboardMsg{Error: errors.New("401"), Unauthorized: true})

	assert.Contains(t, m.View(), "Session expired")
}

func TestDashboardKeys(t *testing.T) {
	src := &fakeSource{}
	m := New(src, keys.DefaultKeyMap())

	m = update(t, m, keyPress('r'))
	assert.Equal(t, 1, src.refreshed)
	assert.True(t, m.loading)

	m = update(t, m, keyPress('?'))
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	_, cmd := m.Update(keyPress('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, 1, src.stopped)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}
