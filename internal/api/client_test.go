package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-tracker/tracker-cli/internal/auth"
	"github.com/interview-tracker/tracker-cli/internal/output"
)

func TestClientSetsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/interviews/", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "tracker-cli/"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", srv.Client(), nil)
	resp, err := c.Get(context.Background(), "api/interviews/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.RequestID)
}

func TestClientSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme", body["company_name"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7,"company_name":"Acme"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)
	resp, err := c.Post(context.Background(), "/api/interviews/", map[string]string{"company_name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var got struct {
		ID int `json:"id"`
	}
	require.NoError(t, resp.UnmarshalData(&got))
	assert.Equal(t, 7, got.ID)
}

func TestClientRawMessageBodyPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, `{"status":"offer"}`, string(data))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)
	_, err := c.Patch(context.Background(), "/api/interviews/1/", json.RawMessage(`{"status":"offer"}`))
	require.NoError(t, err)
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		header   map[string]string
		wantCode string
		wantMsg  string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Given token not valid for any token type"}`, nil, output.CodeAuth, "Given token not valid for any token type"},
		{"validation", http.StatusBadRequest, `{"interview_date":["Date has wrong format."]}`, nil, output.CodeValidation, "interview_date: Date has wrong format."},
		{"forbidden", http.StatusForbidden, `{}`, nil, output.CodeForbidden, "Access denied"},
		{"not found", http.StatusNotFound, `{"detail":"Not found."}`, nil, output.CodeNotFound, "Resource not found"},
		{"rate limit", http.StatusTooManyRequests, ``, map[string]string{"Retry-After": "12"}, output.CodeRateLimit, "Rate limited"},
		{"server error", http.StatusInternalServerError, `oops`, nil, output.CodeAPI, "Request failed (HTTP 500)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, srv.Client(), nil).Get(context.Background(), "/api/interviews/1/")
			require.Error(t, err)

			var e *output.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Contains(t, e.Message, tt.wantMsg)
		})
	}
}

func TestClientRateLimitHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client(), nil).Get(context.Background(), "/x")
	assert.Equal(t, "Try again in 12 seconds", output.AsError(err).Hint)
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil, nil).Get(context.Background(), "/api/interviews/")
	require.Error(t, err)
	assert.Equal(t, output.CodeNetwork, output.AsError(err).Code)
}

func TestClientContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL, srv.Client(), nil).Get(ctx, "/x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientSessionEnded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := auth.NewStore(srv.URL, nil)
	mgr := auth.NewManager(auth.Options{BaseURL: srv.URL, Store: store})

	_, err := NewClient(srv.URL, mgr.HTTPClient(), nil).Get(context.Background(), "/api/interviews/")
	require.Error(t, err)

	e := output.AsError(err)
	assert.Equal(t, output.CodeSessionEnded, e.Code)
	assert.Equal(t, output.ExitSessionEnded, e.ExitCode())
	assert.True(t, auth.IsSessionEnded(err))
}

func TestGetAllBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(` [{"id":1},{"id":2}]`))
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL, srv.Client(), nil).GetAll(context.Background(), "/api/interviews/")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestGetAllFollowsNext(t *testing.T) {
	var calls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprintf(w, `{"count":3,"next":"%s/api/interviews/?page=2","previous":null,"results":[{"id":1},{"id":2}]}`, srv.URL)
		case "2":
			_, _ = w.Write([]byte(`{"count":3,"next":null,"previous":null,"results":[{"id":3}]}`))
		}
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL, srv.Client(), nil).GetAll(context.Background(), "/api/interviews/")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.JSONEq(t, `{"id":3}`, string(items[2]))
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetAllRejectsNonList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client(), nil).GetAll(context.Background(), "/api/interviews/1/")
	assert.ErrorContains(t, err, "expected a list")
}

func TestBuildURL(t *testing.T) {
	c := NewClient("https://tracker.example.com/", nil, nil)

	assert.Equal(t, "https://tracker.example.com/api/interviews/", c.BuildURL("/api/interviews/"))
	assert.Equal(t, "https://tracker.example.com/api/interviews/", c.BuildURL("api/interviews/"))
	assert.Equal(t, "https://other.example.com/x", c.BuildURL("https://other.example.com/x"))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 0, parseRetryAfter(""))
	assert.Equal(t, 30, parseRetryAfter("30"))
	assert.Equal(t, 0, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}
