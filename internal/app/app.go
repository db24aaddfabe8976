package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/nhle/diet-tracker/internal/credential"
	"github.com/nhle/diet-tracker/internal/dashboard"
	"github.com/nhle/diet-tracker/internal/foods"
	"github.com/nhle/diet-tracker/internal/gateway"
	"github.com/nhle/diet-tracker/internal/model"
	"github.com/nhle/diet-tracker/internal/plans"
	"github.com/nhle/diet-tracker/internal/store"
	"github.com/nhle/diet-tracker/internal/tracker"
)

// ErrNotSignedIn is returned by commands that need a stored session.
var ErrNotSignedIn = errors.New("not signed in: run `diettracker login <email>` first")

// Prompts asks the user for input the commands cannot take as arguments.
type Prompts interface {
	Password(ctx context.Context, email string) (string, error)
	PlanDraft(ctx context.Context) (plans.PlanDraft, error)
	EditPlan(ctx context.Context, current plans.PlanDraft) (plans.PlanDraft, error)
	plans.ConflictResolver
}

// Backend is the part of the gateway the commands use directly.
type Backend interface {
	dashboard.API
	foods.API
	plans.API
	tracker.API
	Login(ctx context.Context, email, password string) (model.Session, error)
	Logout() error
	ValidateToken(ctx context.Context) (bool, error)
}

var _ Backend = (*gateway.Client)(nil)

// App wires the backend, the credential store and the local event cache
// into the command line front end.
type App struct {
	backend Backend
	creds   *credential.Store
	events  store.EventStore
	prompts Prompts
	out     io.Writer
	logger  gateway.Logger
	now     func() time.Time

	refreshInterval time.Duration

	plans   *plans.Reconciler
	foods   *foods.Aggregator
	tracker *tracker.Tracker
	loader  *dashboard.Loader
}

// Option customizes an App.
type Option func(*App)

// WithOutput sets where command output is written.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithLogger sets the logger handed to every component.
func WithLogger(l gateway.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithClock sets the function used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithRefreshInterval sets how often the dashboard reloads.
func WithRefreshInterval(d time.Duration) Option {
	return func(a *App) { a.refreshInterval = d }
}

// New creates an App.
func New(backend Backend, creds *credential.Store, events store.EventStore, prompts Prompts, opts ...Option) *App {
	a := &App{
		backend:         backend,
		creds:           creds,
		events:          events,
		prompts:         prompts,
		out:             os.Stdout,
		logger:          log.Default(),
		now:             time.Now,
		refreshInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.plans = plans.New(backend, a.logger)
	a.foods = foods.New(backend, a.logger)
	a.tracker = tracker.New(backend, tracker.WithClock(a.now), tracker.WithLogger(a.logger))
	a.loader = dashboard.NewLoader(a.plans, backend,
		dashboard.WithClock(a.now),
		dashboard.WithLogger(a.logger),
	)
	return a
}

// session returns the stored session, or ErrNotSignedIn.
func (a *App) session() (model.Session, error) {
	sess, err := a.creds.Session()
	if errors.Is(err, credential.ErrNotFound) || (err == nil && !sess.Valid()) {
		return model.Session{}, ErrNotSignedIn
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("reading session: %w", err)
	}
	return sess, nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
