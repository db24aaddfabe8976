package sync

import (
	"context"
	"net/http"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/diet-tracker/internal/dashboard"
	"github.com/nhle/diet-tracker/internal/gateway"
)

// RefreshState represents the current state of the dashboard refresher.
type RefreshState int

const (
	RefreshIdle RefreshState = iota
	RefreshRunning
	RefreshError
)

// Status holds the refresher's state.
type Status struct {
	State       RefreshState
	LastRefresh time.Time
	Generation  uint64
	Error       error
}

// DashboardMsg is a tea.Msg sent when a dashboard load completes. Loads
// that were superseded or stopped never produce one.
type DashboardMsg struct {
	Data       dashboard.Data
	Generation uint64
	Error      error

	// Unauthorized is set when the backend rejected the token.
	Unauthorized bool
}

// LoadFunc loads the dashboard. It must honour ctx cancellation.
type LoadFunc func(ctx context.Context) (dashboard.Data, error)

// loadTimeout is the maximum time allowed for a single load.
const loadTimeout = 30 * time.Second

// Refresher reloads the dashboard periodically and on demand. Every load
// runs under its own cancellable context and generation number; starting a
// load cancels the previous one, and results from any load other than the
// latest are dropped.
type Refresher struct {
	load     LoadFunc
	interval time.Duration

	resultCh  chan DashboardMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu         gosync.Mutex
	running    bool
	generation uint64
	cancel     context.CancelFunc
	status     Status
}

// New creates a Refresher that calls load every interval.
func New(load LoadFunc, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Refresher{
		load:      load,
		interval:  interval,
		resultCh:  make(chan DashboardMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the refresh loop and subscribes to
// results. The loop loads once immediately.
func (r *Refresher) Start() tea.Cmd {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.mu.Unlock()

	go r.loop()

	return r.waitForResult()
}

// Stop halts the loop and cancels the in-flight load. Its result, if it
// still arrives, is dropped.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	close(r.stopCh)
	r.running = false
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Refresh triggers an immediate load.
func (r *Refresher) Refresh() tea.Cmd {
	select {
	case r.triggerCh <- struct{}{}:
	default:
		// A refresh is already pending.
	}
	return nil
}

// Status returns the current refresh status.
func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Refresher) loop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.refresh()
		case <-r.triggerCh:
			r.refresh()
		}
	}
}

// refresh cancels the previous load and starts a new generation.
func (r *Refresher) refresh() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.generation++
	gen := r.generation
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	r.cancel = cancel
	r.status.State = RefreshRunning
	r.status.Generation = gen
	r.mu.Unlock()

	go func() {
		defer cancel()
		data, err := r.load(ctx)
		r.finish(gen, data, err)
	}()
}

// finish publishes a load's result unless a newer load started or the
// refresher was stopped in the meantime.
func (r *Refresher) finish(gen uint64, data dashboard.Data, err error) {
	r.mu.Lock()
	if !r.running || gen != r.generation {
		r.mu.Unlock()
		return
	}
	r.cancel = nil
	if err != nil {
		r.status.State = RefreshError
		r.status.Error = err
	} else {
		r.status.State = RefreshIdle
		r.status.Error = nil
		r.status.LastRefresh = time.Now()
	}
	r.mu.Unlock()

	r.sendResult(DashboardMsg{
		Data:         data,
		Generation:   gen,
		Error:        err,
		Unauthorized: gateway.StatusCode(err) == http.StatusUnauthorized,
	})
}

// sendResult sends a DashboardMsg on the result channel without blocking.
func (r *Refresher) sendResult(msg DashboardMsg) {
	select {
	case r.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the loop
	}
}

func (r *Refresher) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-r.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next load result.
// Call it after handling a DashboardMsg to keep listening.
func (r *Refresher) WaitForNextResult() tea.Cmd {
	return r.waitForResult()
}
