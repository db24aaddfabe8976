package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/diet-tracker/internal/model"
)

type fakeCreds struct {
	token   string
	userID  model.ID
	cleared bool
}

func (f *fakeCreds) Token() (string, error) {
	if f.token == "" {
		return "", errors.New("not found")
	}
	return f.token, nil
}

func (f *fakeCreds) SaveLogin(token string, userID model.ID) error {
	f.token = token
	f.userID = userID
	return nil
}

func (f *fakeCreds) Clear() error {
	f.token = ""
	f.userID = ""
	f.cleared = true
	return nil
}

type discard struct{}

func (discard) Printf(string, ...any) {}

func newTestClient(t *testing.T, h http.HandlerFunc, creds Credentials, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := model.APIConfig{BaseURL: srv.URL + "/", TimeoutSec: 5, MaxRetries: 2}
	opts = append([]Option{WithLogger(discard{})}, opts...)
	return NewClient(cfg, creds, opts...)
}

func TestFetchDecodesBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mealplans/7", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`{"plan_id": 7, "plan_name": "Cut", "active": true, "user_id": "42"}`))
	}, &fakeCreds{token: "tok"})

	var plan model.MealPlan
	found, err := c.FetchByID(context.Background(), "mealplans", model.ID("7"), &plan)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, model.ID("7"), plan.PlanID)
	assert.Equal(t, model.ID("42"), plan.UserID)
	assert.True(t, plan.Active)
}

func TestFetchTreatsErrorStatusAsAbsent(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusNoContent} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}, &fakeCreds{token: "tok"})

		var out []model.Meal
		found, err := c.Fetch(context.Background(), "meals", &out)
		assert.NoError(t, err, "status %d", status)
		assert.False(t, found, "status %d", status)
	}
}

func TestFetchOmitsAuthorizationWithoutToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}, &fakeCreds{})

	var out []model.Aliment
	found, err := c.Fetch(context.Background(), "aliments", &out)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestFetchReportsDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	}, &fakeCreds{token: "tok"})

	var out []model.Meal
	found, err := c.Fetch(context.Background(), "meals", &out)
	assert.False(t, found)
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
}

func TestFetchReturnsContextError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}, &fakeCreds{token: "tok"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, "meals", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchForCallerRequiresSession(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/users/mealplans/42", r.URL.Path)
		w.Write([]byte(`[]`))
	}, &fakeCreds{token: "tok"})

	_, err := c.FetchForCaller(context.Background(), model.Session{}, "users/mealplans", nil)
	assert.Error(t, err)
	assert.Equal(t, int32(0), calls.Load())

	found, err := c.FetchForCaller(context.Background(), model.Session{UserID: "42"}, "users/mealplans", nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostReturnsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"plan_name required"}`))
	}, &fakeCreds{token: "tok"})

	err := c.Post(context.Background(), "mealplans", map[string]string{}, nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, http.MethodPost, statusErr.Method)
	assert.Contains(t, statusErr.Body, "plan_name required")
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestPostDecodesCreatedResource(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"record_id": 55, "meal_id": 1, "aliment_id": 2}`))
	}, &fakeCreds{token: "tok"})

	var rec model.MealRecord
	err := c.Post(context.Background(), "mealRecords", model.MealRecord{MealID: "1", AlimentID: "2"}, &rec)
	require.NoError(t, err)
	assert.Equal(t, model.ID("55"), rec.RecordID)
}

func TestDeleteAcceptsNoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/mealRecords/9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}, &fakeCreds{token: "tok"})

	assert.NoError(t, c.DeleteByID(context.Background(), "mealRecords", model.ID("9")))
}

func TestRetriesOnTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}, &fakeCreds{token: "tok"})

	var out []model.Meal
	found, err := c.Fetch(context.Background(), "meals", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetriesStopAtLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}, &fakeCreds{token: "tok"})

	err := c.Put(context.Background(), "mealplans/1", map[string]bool{"active": false}, nil)
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
	// MaxRetries is 2: the first attempt plus two retries.
	assert.Equal(t, int32(3), calls.Load())
}
