package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/diet-tracker/internal/model"
	appsync "github.com/nhle/diet-tracker/internal/sync"
)

func startRefresher(t *testing.T, h *harness) appsync.DashboardMsg {
	t.Helper()
	r, err := h.app.newRefresher()
	require.NoError(t, err)
	t.Cleanup(r.Stop)

	msg, ok := r.Start()().(appsync.DashboardMsg)
	require.True(t, ok)
	return msg
}

func TestRefresherLoadsDashboard(t *testing.T) {
	h := newHarness(t)
	h.backend.AddPlan(model.MealPlan{PlanName: "Cut", UserID: "42", Active: true})

	msg := startRefresher(t, h)
	require.NoError(t, msg.Error)
	assert.Equal(t, "Cut", msg.Data.PlanName)
	assert.False(t, msg.Unauthorized)
}

func TestRefresherReportsExpiredToken(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.backend.Creds.SaveLogin("expired-token", "42"))

	msg := startRefresher(t, h)
	assert.Error(t, msg.Error)
	assert.True(t, msg.Unauthorized)

	_, err := h.backend.Creds.Token()
	assert.Error(t, err, "the rejected token is cleared")
}

func TestNewRefresherRequiresSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.backend.Creds.Clear())

	_, err := h.app.newRefresher()
	assert.ErrorIs(t, err, ErrNotSignedIn)
}
