package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nhle/diet-tracker/internal/model"
)

// Credentials supplies the bearer token and receives the results of
// login/logout and token invalidation.
type Credentials interface {
	Token() (string, error)
	SaveLogin(token string, userID model.ID) error
	Clear() error
}

// Logger is the subset of *log.Logger the client writes to.
type Logger interface {
	Printf(format string, v ...any)
}

// Client is a thin HTTP client for the diet backend's REST API. It reads
// the bearer token on every call, joins resource paths onto the base URL,
// rate limits outgoing requests, and retries with exponential backoff on
// HTTP 429.
//
// Reads and writes fail differently: Fetch* helpers treat anything other
// than 200/201 as absence and log it, while Post/Put/Delete return every
// failure to the caller.
type Client struct {
	baseURL        string
	creds          Credentials
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	logger         Logger
	onUnauthorized func()
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger read failures are reported to.
func WithLogger(l Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUnauthorizedHook registers fn to run after ValidateToken finds the
// stored token invalid and clears it.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// NewClient creates a client for the backend described by cfg.
func NewClient(cfg model.APIConfig, creds Credentials, opts ...Option) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: cfg.MaxRetries,
		logger:     log.Default(),
	}

	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs GET route and decodes the body into out. It reports
// found=false, with a nil error, when the backend answers with anything
// other than 200/201 or the request fails in transit; both are logged.
// A body that does not decode into out returns a *DecodeError, and a
// cancelled ctx returns ctx.Err().
func (c *Client) Fetch(ctx context.Context, route string, out any) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, route, nil, true)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		c.logf("GET %s failed: %v", route, err)
		return false, nil
	}

	if resp.status != http.StatusOK && resp.status != http.StatusCreated {
		c.logf("GET %s returned status %d", route, resp.status)
		return false, nil
	}

	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return false, &DecodeError{Method: http.MethodGet, Path: route, Err: err}
	}
	return true, nil
}

// FetchForCaller performs GET route/<caller's user id>.
func (c *Client) FetchForCaller(
	ctx context.Context,
	sess model.Session,
	route string,
	out any,
) (bool, error) {
	if !sess.Valid() {
		return false, fmt.Errorf("fetching %s for caller: no signed-in user", route)
	}
	return c.Fetch(ctx, ResourcePath(route, sess.UserID.String()), out)
}

// FetchByID performs GET route/<id>.
func (c *Client) FetchByID(
	ctx context.Context,
	route string,
	id model.ID,
	out any,
) (bool, error) {
	return c.Fetch(ctx, ResourcePath(route, id.String()), out)
}

// Post performs POST route with a JSON body and decodes the response into
// out when out is non-nil.
func (c *Client) Post(ctx context.Context, route string, body, out any) error {
	return c.mutate(ctx, http.MethodPost, route, body, out)
}

// Put performs PUT route with a JSON body.
func (c *Client) Put(ctx context.Context, route string, body, out any) error {
	return c.mutate(ctx, http.MethodPut, route, body, out)
}

// PutByID performs PUT route/<id>.
func (c *Client) PutByID(
	ctx context.Context,
	route string,
	id model.ID,
	body, out any,
) error {
	return c.mutate(ctx, http.MethodPut, ResourcePath(route, id.String()), body, out)
}

// Delete performs DELETE route.
func (c *Client) Delete(ctx context.Context, route string) error {
	return c.mutate(ctx, http.MethodDelete, route, nil, nil)
}

// DeleteByID performs DELETE route/<id>.
func (c *Client) DeleteByID(ctx context.Context, route string, id model.ID) error {
	return c.Delete(ctx, ResourcePath(route, id.String()))
}

// mutate runs a write and returns every failure to the caller.
func (c *Client) mutate(
	ctx context.Context,
	method string,
	route string,
	body any,
	out any,
) error {
	resp, err := c.do(ctx, method, route, body, true)
	if err != nil {
		c.logf("%s %s failed: %v", method, route, err)
		return err
	}

	if resp.status < 200 || resp.status >= 300 {
		statusErr := &StatusError{
			Method:     method,
			Path:       route,
			StatusCode: resp.status,
			Body:       string(bytes.TrimSpace(resp.body)),
		}
		c.logf("%v", statusErr)
		return statusErr
	}

	// No content to parse (e.g. 204).
	if out == nil || resp.status == http.StatusNoContent || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.body, out); err != nil {
		return &DecodeError{Method: method, Path: route, Err: err}
	}
	return nil
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and JSON serialization. It does
// not interpret the status code beyond retrying 429.
func (c *Client) do(
	ctx context.Context,
	method string,
	route string,
	body any,
	authenticate bool,
) (*response, error) {
	target := JoinURL(c.baseURL, route)

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	token := ""
	if authenticate {
		token = c.token()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("waiting for rate limiter: %w", err)
			}
		}

		// The body reader is consumed by each attempt.
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request %s %s: %w", method, route, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, route)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		return &response{status: resp.StatusCode, body: respBody}, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no attempts made")
	}
	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// token reads the bearer token. A missing token is not an error: the call
// proceeds unauthenticated and the backend decides.
func (c *Client) token() string {
	if c.creds == nil {
		return ""
	}
	token, err := c.creds.Token()
	if err != nil {
		return ""
	}
	return token
}

func (c *Client) logf(format string, v ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Printf("gateway: "+format, v...)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
