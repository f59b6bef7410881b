package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// seenRequest is what the fake API recorded for one request.
type seenRequest struct {
	Path          string
	Authorization string
	Body          string
}

// fakeAPI accepts exactly one bearer token on protected paths and always
// answers public paths with publicStatus.
type fakeAPI struct {
	*httptest.Server

	mu           sync.Mutex
	valid        string
	publicStatus int
	seen         []seenRequest
}

func newFakeAPI(t *testing.T, valid string) *fakeAPI {
	t.Helper()
	api := &fakeAPI{valid: valid, publicStatus: http.StatusOK}
	api.Server = httptest.NewServer(http.HandlerFunc(api.handle))
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	a.mu.Lock()
	a.seen = append(a.seen, seenRequest{Path: r.URL.Path, Authorization: r.Header.Get("Authorization"), Body: string(body)})
	valid, publicStatus := a.valid, a.publicStatus
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if strings.HasPrefix(r.URL.Path, "/api/auth/login") || strings.HasPrefix(r.URL.Path, "/api/auth/registration") {
		w.WriteHeader(publicStatus)
		_, _ = w.Write([]byte(`{"public":true}`))
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+valid {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type","code":"token_not_valid"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path, "body": string(body)})
}

func (a *fakeAPI) setValid(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.valid = token
}

func (a *fakeAPI) requests() []seenRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]seenRequest, len(a.seen))
	copy(out, a.seen)
	return out
}

// countingRefresher counts calls and, if gate is non-nil, blocks each call
// until gate is closed.
type countingRefresher struct {
	calls atomic.Int32
	gate  chan struct{}
	token *oauth2.Token
	err   error

	mu   sync.Mutex
	used []string
}

func (r *countingRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	r.calls.Add(1)
	r.mu.Lock()
	r.used = append(r.used, refreshToken)
	r.mu.Unlock()

	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	tok := *r.token
	return &tok, nil
}

// queued returns the number of callers waiting on the coordinator.
func queued(c *Coordinator) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// recordingHooks counts hook events.
type recordingHooks struct {
	NopHooks
	starts         atomic.Int32
	queuedCount    atomic.Int32
	refreshStarts  atomic.Int32
	refreshEnds    atomic.Int32
	refreshFailure atomic.Int32
}

func (h *recordingHooks) OnRequestStart(context.Context, RequestInfo) { h.starts.Add(1) }
func (h *recordingHooks) OnQueued(context.Context)                    { h.queuedCount.Add(1) }
func (h *recordingHooks) OnRefreshStart(context.Context)              { h.refreshStarts.Add(1) }
func (h *recordingHooks) OnRefreshEnd(_ context.Context, err error, _ time.Duration) {
	h.refreshEnds.Add(1)
	if err != nil {
		h.refreshFailure.Add(1)
	}
}
