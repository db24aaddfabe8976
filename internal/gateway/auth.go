package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nhle/diet-tracker/internal/model"
)

// loginResponse is the body of POST auth/login. Older backend versions
// nest the id under "user".
type loginResponse struct {
	Token  string   `json:"token"`
	UserID model.ID `json:"user_id"`
	User   *struct {
		ID model.ID `json:"id"`
	} `json:"user,omitempty"`
}

func (r loginResponse) userID() model.ID {
	if !r.UserID.IsZero() {
		return r.UserID
	}
	if r.User != nil {
		return r.User.ID
	}
	return ""
}

// Login exchanges credentials for a token and stores the token and user id.
func (c *Client) Login(ctx context.Context, email, password string) (model.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.Session{}, fmt.Errorf("email and password are required")
	}

	body := map[string]string{"email": email, "password": password}
	resp, err := c.do(ctx, http.MethodPost, "auth/login", body, false)
	if err != nil {
		return model.Session{}, fmt.Errorf("logging in: %w", err)
	}
	if resp.status != http.StatusOK && resp.status != http.StatusCreated {
		return model.Session{}, &StatusError{
			Method:     http.MethodPost,
			Path:       "auth/login",
			StatusCode: resp.status,
			Body:       strings.TrimSpace(string(resp.body)),
		}
	}

	var lr loginResponse
	if err := json.Unmarshal(resp.body, &lr); err != nil {
		return model.Session{}, &DecodeError{Method: http.MethodPost, Path: "auth/login", Err: err}
	}
	if lr.Token == "" || lr.userID().IsZero() {
		return model.Session{}, fmt.Errorf("login response is missing token or user id")
	}

	if err := c.creds.SaveLogin(lr.Token, lr.userID()); err != nil {
		return model.Session{}, fmt.Errorf("storing login: %w", err)
	}
	return model.Session{UserID: lr.userID()}, nil
}

// Logout forgets the stored token and user id.
func (c *Client) Logout() error {
	if err := c.creds.Clear(); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// ValidateToken asks the backend whether the stored token is still valid.
// A 401 clears the stored credentials and runs the unauthorized hook; it
// is the only place auth state is invalidated in reaction to the backend.
// A missing token is reported as invalid without a request.
func (c *Client) ValidateToken(ctx context.Context) (bool, error) {
	token := c.token()
	if token == "" {
		return false, nil
	}

	resp, err := c.do(ctx, http.MethodPost, "auth/validateToken", map[string]string{"token": token}, true)
	if err != nil {
		c.logf("POST auth/validateToken failed: %v", err)
		return false, fmt.Errorf("validating token: %w", err)
	}

	switch {
	case resp.status == http.StatusOK || resp.status == http.StatusCreated:
		return true, nil
	case resp.status == http.StatusUnauthorized:
		c.logf("token rejected by backend, clearing stored credentials")
		if err := c.creds.Clear(); err != nil {
			return false, fmt.Errorf("clearing rejected token: %w", err)
		}
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return false, nil
	default:
		return false, &StatusError{
			Method:     http.MethodPost,
			Path:       "auth/validateToken",
			StatusCode: resp.status,
			Body:       strings.TrimSpace(string(resp.body)),
		}
	}
}
