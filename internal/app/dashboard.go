package app

import (
	"context"
	"fmt"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/diet-tracker/internal/dashboard"
	"github.com/nhle/diet-tracker/internal/gateway"
	"github.com/nhle/diet-tracker/internal/keys"
	appsync "github.com/nhle/diet-tracker/internal/sync"
	dashview "github.com/nhle/diet-tracker/internal/ui/dashboard"
)

// newRefresher builds the refresh loop for the signed-in user.
func (a *App) newRefresher() (*appsync.Refresher, error) {
	sess, err := a.session()
	if err != nil {
		return nil, err
	}
	load := func(ctx context.Context) (dashboard.Data, error) {
		// Reads treat a 401 as absence, so expiry is detected here.
		valid, err := a.backend.ValidateToken(ctx)
		if err == nil && !valid {
			return dashboard.Data{}, &gateway.StatusError{
				Method:     http.MethodPost,
				Path:       "auth/validateToken",
				StatusCode: http.StatusUnauthorized,
			}
		}
		return a.loader.Load(ctx, sess)
	}
	return appsync.New(load, a.refreshInterval), nil
}

// RunDashboard checks the stored token and runs the full-screen dashboard
// until the user quits or ctx is cancelled.
func (a *App) RunDashboard(ctx context.Context) error {
	if _, err := a.session(); err != nil {
		return err
	}
	valid, err := a.backend.ValidateToken(ctx)
	if err != nil {
		a.logger.Printf("dashboard: could not validate token: %v", err)
	} else if !valid {
		return fmt.Errorf("session expired: %w", ErrNotSignedIn)
	}

	r, err := a.newRefresher()
	if err != nil {
		return err
	}
	defer r.Stop()

	m := dashview.New(r, keys.DefaultKeyMap())
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
