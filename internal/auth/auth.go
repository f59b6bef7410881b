// Package auth manages the tracker session: the credential store, the
// request gate that attaches bearer tokens, and the coordinator that
// refreshes an expired access token exactly once for all waiting requests.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/interview-tracker/tracker-cli/internal/output"
)

// User is the account returned by login and /api/auth/user/.
type User struct {
	ID        int64  `json:"pk"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// Options configures a Manager.
type Options struct {
	BaseURL string
	Store   *Store

	// Transport is the round tripper below the Gate. Defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper

	// Refresher defaults to an HTTPRefresher on BaseURL using Transport.
	Refresher Refresher

	PublicPaths    []string
	RefreshTimeout time.Duration
	RequestTimeout time.Duration

	Hooks  Hooks
	Logger *slog.Logger
}

// Manager is the per-application session object. It owns the store, the
// coordinator and the gated HTTP client; construct one per process and pass
// it around.
type Manager struct {
	baseURL string
	store   *Store
	coord   *Coordinator
	gate    *Gate
	client  *http.Client
	direct  *http.Client
	logger  *slog.Logger
}

// NewManager creates a manager. opts.Store must not be nil.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	hooks := opts.Hooks
	if hooks == nil {
		hooks = NopHooks{}
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	refresher := opts.Refresher
	if refresher == nil {
		refresher = NewHTTPRefresher(opts.BaseURL, &http.Client{Transport: transport, Timeout: opts.RefreshTimeout})
	}
	refreshTimeout := opts.RefreshTimeout
	if refreshTimeout == 0 {
		refreshTimeout = DefaultRefreshTimeout
	}
	publicPaths := opts.PublicPaths
	if len(publicPaths) == 0 {
		publicPaths = DefaultPublicPaths
	}

	coord := NewCoordinator(opts.Store, refresher,
		WithRefreshTimeout(refreshTimeout),
		WithHooks(hooks),
		WithLogger(logger),
	)
	gate := NewGate(transport, opts.Store, coord,
		WithPublicPaths(NewPublicPaths(publicPaths...)),
		WithGateHooks(hooks),
		WithGateLogger(logger),
	)

	return &Manager{
		baseURL: opts.BaseURL,
		store:   opts.Store,
		coord:   coord,
		gate:    gate,
		client:  &http.Client{Transport: gate, Timeout: opts.RequestTimeout},
		direct:  &http.Client{Transport: transport, Timeout: opts.RequestTimeout},
		logger:  logger,
	}
}

// HTTPClient returns the client every API call must go through.
func (m *Manager) HTTPClient() *http.Client {
	return m.client
}

// Store returns the credential store.
func (m *Manager) Store() *Store {
	return m.store
}

// OnSessionEnded subscribes fn to failed refreshes.
func (m *Manager) OnSessionEnded(fn func(error)) {
	m.coord.OnSessionEnded(fn)
}

// IsAuthenticated reports whether any credential is stored.
func (m *Manager) IsAuthenticated() bool {
	_, hasAccess := m.store.Access()
	_, hasRefresh := m.store.Refresh()
	return hasAccess || hasRefresh
}

// Login exchanges a username and password for a token pair and stores it.
func (m *Manager) Login(ctx context.Context, username, password string) (*User, error) {
	var resp loginResponse
	err := m.postJSON(ctx, LoginPath, map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		var apiErr *output.Error
		if errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusBadRequest {
			return nil, output.ErrAuthHint(apiErr.Message, "Check your username and password")
		}
		return nil, err
	}

	pair := resp.tokenPair.token()
	if pair.AccessToken == "" {
		return nil, output.ErrAPI(http.StatusOK, "login response has no access token")
	}
	m.store.SetTokens(pair.AccessToken, pair.RefreshToken)
	m.logger.Debug("logged in", "username", username)
	return resp.User, nil
}

// Register creates an account. When the server answers with tokens (no
// email verification required), they are stored and the user is logged in.
// It reports whether a session was established.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (bool, error) {
	var resp loginResponse
	if err := m.postJSON(ctx, RegistrationPath, req, &resp); err != nil {
		return false, err
	}
	pair := resp.tokenPair.token()
	if pair.AccessToken == "" {
		return false, nil
	}
	m.store.SetTokens(pair.AccessToken, pair.RefreshToken)
	return true, nil
}

// Logout asks the server to blacklist the refresh token and clears local
// credentials. The local clear happens even if the server call fails.
//
// The logout request bypasses the gate and carries no bearer: a refresh
// here would rotate the token being revoked and leave its successor live.
func (m *Manager) Logout(ctx context.Context) error {
	defer m.store.Clear()

	refresh, ok := m.store.Refresh()
	if !ok {
		return nil
	}
	req, err := newJSONRequest(ctx, m.baseURL+LogoutPath, map[string]string{"refresh": refresh})
	if err != nil {
		return err
	}
	if err := m.do(m.direct, req, nil); err != nil {
		m.logger.Warn("server logout failed", "error", err)
	}
	return nil
}

// Refresh forces a token refresh through the coordinator.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err := m.coord.Refresh(ctx)
	return err
}

// CurrentUser fetches the authenticated user.
func (m *Manager) CurrentUser(ctx context.Context) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+UserPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var user User
	if err := m.do(m.client, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type loginResponse struct {
	tokenPair
	User *User `json:"user"`
}

func (m *Manager) postJSON(ctx context.Context, path string, body, out any) error {
	req, err := newJSONRequest(ctx, m.baseURL+path, body)
	if err != nil {
		return err
	}
	return m.do(m.client, req, out)
}

func newJSONRequest(ctx context.Context, url string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (m *Manager) do(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		if IsSessionEnded(err) {
			return output.ErrSessionEnded(err)
		}
		return output.ErrNetwork(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return output.ErrAuth("Authentication failed")
	case resp.StatusCode >= 300:
		msg := ErrorDetail(respBody)
		if msg == "" {
			msg = fmt.Sprintf("Request failed (HTTP %d)", resp.StatusCode)
		}
		return output.ErrAPI(resp.StatusCode, msg)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
