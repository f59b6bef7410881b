package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-tracker/tracker-cli/internal/auth"
	"github.com/interview-tracker/tracker-cli/internal/cli"
	"github.com/interview-tracker/tracker-cli/internal/commands"
	"github.com/interview-tracker/tracker-cli/internal/config"
	"github.com/interview-tracker/tracker-cli/internal/output"
	"github.com/interview-tracker/tracker-cli/internal/tracker"
)

// backend is a fake tracker server with rotating refresh tokens.
type backend struct {
	*httptest.Server

	mu          sync.Mutex
	access      string
	refresh     string
	generation  int
	blacklisted []string
	lastBody    map[string]any

	refreshes atomic.Int32
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+auth.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"non_field_errors":["Unable to log in with provided credentials."]}`))
			return
		}
		access, refresh := b.rotate()
		fmt.Fprintf(w, `{"access":%q,"refresh":%q,"user":{"pk":7,"username":%q,"email":"ada@example.com"}}`, access, refresh, in["username"])
	})
	mux.HandleFunc("POST "+auth.RegistrationPath, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["password1"] != in["password2"] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"non_field_errors":["The two password fields didn't match."]}`))
			return
		}
		access, refresh := b.rotate()
		fmt.Fprintf(w, `{"access":%q,"refresh":%q}`, access, refresh)
	})
	mux.HandleFunc("POST "+auth.RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		b.refreshes.Add(1)
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		current := b.refresh
		b.mu.Unlock()
		if in["refresh"] == "" || in["refresh"] != current {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired","code":"token_not_valid"}`))
			return
		}
		access, refresh := b.rotate()
		fmt.Fprintf(w, `{"access":%q,"refresh":%q}`, access, refresh)
	})
	mux.HandleFunc("POST "+auth.LogoutPath, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		b.blacklisted = append(b.blacklisted, in["refresh"])
		b.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"detail":"Successfully logged out."}`))
	})
	mux.HandleFunc("GET "+auth.UserPath, b.authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pk":7,"username":"ada","email":"ada@example.com"}`))
	}))
	mux.HandleFunc("GET "+tracker.InterviewsPath, b.authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":1,"company_name":"Acme","position":"SRE","status":"scheduled","interview_stage":"technical","is_upcoming":true},
			{"id":2,"company_name":"Globex","position":"Backend","status":"completed","interview_stage":"final","is_upcoming":false}]`))
	}))
	mux.HandleFunc("POST "+tracker.InterviewsPath, b.authed(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		b.lastBody = maps.Clone(in)
		b.mu.Unlock()
		in["id"] = 3
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	}))
	mux.HandleFunc("GET /api/interviews/{id}/", b.authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"No Interview matches the given query."}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"company_name":"Acme","position":"SRE","rounds":[{"id":4,"interview":1,"stage":"technical"}]}`))
	}))
	mux.HandleFunc("PATCH /api/interviews/{id}/", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		b.lastBody = in
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"id":1,"company_name":"Acme","position":"SRE","status":"completed"}`))
	}))
	mux.HandleFunc("DELETE /api/interviews/{id}/", b.authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET "+tracker.RoundsPath, b.authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":4,"interview":1,"stage":"technical"},{"id":5,"interview":2,"stage":"final"}]`))
	}))
	mux.HandleFunc("GET "+tracker.StatsPath, b.authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":2,"active":1,"offers":0,"success_rate":0,"upcoming_count":1}`))
	}))
	mux.HandleFunc("GET "+tracker.ProfilePath, b.authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"username":"ada","email":"ada@example.com","email_notifications_enabled":true,"reminder_days_before":1,"reminder_time":"09:00:00"}`))
	}))
	mux.HandleFunc("PATCH "+tracker.ProfilePath, b.authed(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		b.lastBody = in
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"username":"ada","email":"ada@example.com","email_notifications_enabled":false,"reminder_days_before":2}`))
	}))

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

// rotate issues a new token pair and invalidates the previous one.
func (b *backend) rotate() (access, refresh string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
	b.access = fmt.Sprintf("T%d", b.generation)
	b.refresh = fmt.Sprintf("r%d", b.generation)
	return b.access, b.refresh
}

// expire invalidates the current access token.
func (b *backend) expire() {
	b.mu.Lock()
	b.access = "expired"
	b.mu.Unlock()
}

// revoke invalidates the current refresh token.
func (b *backend) revoke() {
	b.mu.Lock()
	b.refresh = "revoked"
	b.mu.Unlock()
}

func (b *backend) body() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastBody
}

func (b *backend) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		valid := b.access
		b.mu.Unlock()
		if valid == "" || r.Header.Get("Authorization") != "Bearer "+valid {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type","code":"token_not_valid"}`))
			return
		}
		h(w, r)
	}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (r result) envelope(t *testing.T) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &env), "stdout: %s", r.stdout)
	return env
}

// setupEnv points config and file credentials at a temp dir and the
// backend.
func setupEnv(t *testing.T, b *backend) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TRACKER_CACHE_DIR", t.TempDir())
	t.Setenv("TRACKER_BASE_URL", b.URL)
	t.Setenv("TRACKER_CREDENTIAL_STORE", config.StoreFile)
	t.Setenv("TRACKER_FORMAT", "")
	t.Setenv("TRACKER_VERBOSE", "")
	t.Setenv("TRACKER_DEBUG", "")
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := cli.NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	code := cli.Run(context.Background(), root, args)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func login(t *testing.T) {
	t.Helper()
	res := run(t, "secret\n", "auth", "login", "--username", "ada", "--password-stdin", "--json")
	require.Equal(t, 0, res.code, res.stdout)
}

func TestCatalogMatchesRegisteredCommands(t *testing.T) {
	root := cli.NewRootCmd()
	root.InitDefaultHelpCmd()

	var registered []string
	for _, cmd := range root.Commands() {
		registered = append(registered, cmd.Name())
	}
	catalog := commands.CatalogCommandNames()

	sort.Strings(registered)
	sort.Strings(catalog)
	assert.Equal(t, catalog, registered)
}

func TestLoginStatusLogout(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)

	res := run(t, "secret\n", "auth", "login", "-u", "ada", "--password-stdin", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	env := res.envelope(t)
	assert.Equal(t, "Logged in as ada", env["summary"])

	// Persisted to the file store for the next invocation.
	assert.FileExists(t, filepath.Join(config.GlobalConfigDir(), auth.CredentialsFileName))

	res = run(t, "", "auth", "status", "--json")
	require.Equal(t, 0, res.code)
	data := res.envelope(t)["data"].(map[string]any)
	assert.Equal(t, true, data["authenticated"])
	assert.Equal(t, true, data["refresh_token"])
	assert.Equal(t, b.URL, data["origin"])

	res = run(t, "", "auth", "token")
	require.Equal(t, 0, res.code)
	assert.Equal(t, "T1\n", res.stdout)

	res = run(t, "", "auth", "logout", "--json")
	require.Equal(t, 0, res.code)
	b.mu.Lock()
	assert.Equal(t, []string{"r1"}, b.blacklisted)
	b.mu.Unlock()

	res = run(t, "", "auth", "status", "--json")
	require.Equal(t, 0, res.code)
	data = res.envelope(t)["data"].(map[string]any)
	assert.Equal(t, false, data["authenticated"])
}

func TestLoginBadPassword(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)

	res := run(t, "wrong\n", "auth", "login", "-u", "ada", "--password-stdin", "--json")
	assert.Equal(t, output.ExitAuth, res.code)
	env := res.envelope(t)
	assert.Equal(t, output.CodeAuth, env["code"])
	assert.Contains(t, env["error"], "Unable to log in")
}

func TestLoginWithoutTerminalNeedsFlags(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)

	res := run(t, "", "auth", "login", "--json")
	assert.Equal(t, output.ExitUsage, res.code)
	assert.Equal(t, output.CodeUsage, res.envelope(t)["code"])
}

func TestRegisterLogsIn(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)

	res := run(t, "s3cret-pass\n", "auth", "register", "--username", "grace", "--email", "grace@example.com", "--password-stdin", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	data := res.envelope(t)["data"].(map[string]any)
	assert.Equal(t, true, data["logged_in"])

	res = run(t, "", "auth", "token")
	assert.Equal(t, "T1\n", res.stdout)
}

func TestAuthRefreshRotatesTokens(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)
	login(t)

	res := run(t, "", "auth", "refresh", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, int32(1), b.refreshes.Load())

	res = run(t, "", "auth", "token")
	assert.Equal(t, "T2\n", res.stdout)
}

func TestUnauthenticatedCommandFailsFast(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)

	res := run(t, "", "interviews", "list", "--json")
	assert.Equal(t, output.ExitAuth, res.code)
	env := res.envelope(t)
	assert.Equal(t, output.CodeAuth, env["code"])
	assert.Equal(t, "Run: tracker auth login", env["hint"])
}

func TestInterviewsListFilters(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)
	login(t)

	res := run(t, "", "interviews", "list", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Len(t, res.envelope(t)["data"], 2)

	res = run(t, "", "interviews", "list", "--upcoming", "--json")
	require.Equal(t, 0, res.code)
	env := res.envelope(t)
	assert.Len(t, env["data"], 1)
	assert.Equal(t, "1 interview", env["summary"])

	res = run(t, "", "iv", "list", "--stage", "FINAL", "--jq", ".[].company_name")
	require.Equal(t, 0, res.code)
	assert.Equal(t, "Globex\n", res.stdout)
}

func TestInterviewsShowCreateUpdateDelete(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)
	login(t)

	res := run(t, "", "interviews", "show", "1", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	env := res.envelope(t)
	assert.Equal(t, "Acme - SRE", env["summary"])
	assert.Equal(t, float64(1), env["context"].(map[string]any)["rounds"])

	res = run(t, "", "interviews", "show", "99", "--json")
	assert.Equal(t, output.ExitNotFound, res.code)

	res = run(t, "", "interviews", "show", "0", "--json")
	assert.Equal(t, output.ExitUsage, res.code)

	// Company names resolve against the interview list.
	res = run(t, "", "interviews", "show", "acme", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, "Acme - SRE", res.envelope(t)["summary"])

	res = run(t, "", "interviews", "show", "Hooli", "--json")
	assert.Equal(t, output.ExitNotFound, res.code)

	res = run(t, "", "interviews", "show", "e", "--json")
	assert.Equal(t, output.ExitAmbiguous, res.code)
	assert.Equal(t, output.CodeAmbiguous, res.envelope(t)["code"])

	res = run(t, "", "interviews", "create", "--company", "Initech", "--position", "SRE", "--date", "2026-11-02T15:00:00Z", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, "Created interview #3: Initech - SRE", res.envelope(t)["summary"])
	assert.Equal(t, map[string]any{"company_name": "Initech", "position": "SRE", "interview_date": "2026-11-02T15:00:00Z"}, b.body())

	res = run(t, "", "interviews", "create", "--company", "Initech", "--json")
	assert.Equal(t, output.ExitUsage, res.code)

	res = run(t, "", "interviews", "create", "--company", "Initech", "--position", "SRE", "--date", "2026-11-02 15:00", "--applied", "2026-10-01", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	body := b.body()
	assert.True(t, strings.HasPrefix(body["interview_date"].(string), "2026-11-02T15:00:00"), body["interview_date"])
	assert.Equal(t, "2026-10-01", body["application_date"])

	// A date without a time of day is rejected.
	res = run(t, "", "interviews", "create", "--company", "Initech", "--position", "SRE", "--date", "next tuesday", "--json")
	assert.Equal(t, output.ExitUsage, res.code)

	res = run(t, "", "interviews", "create", "--company", "Initech", "--position", "SRE", "--applied", "someday", "--json")
	assert.Equal(t, output.ExitUsage, res.code)

	res = run(t, "", "interviews", "update", "1", "--status", "completed", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, map[string]any{"status": "completed"}, b.body())

	res = run(t, "", "interviews", "update", "1", "--json")
	assert.Equal(t, output.ExitUsage, res.code)

	// Not a terminal: deleting requires --force.
	res = run(t, "", "interviews", "delete", "1", "--json")
	assert.Equal(t, output.ExitUsage, res.code)

	res = run(t, "", "interviews", "delete", "1", "--force", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, "Deleted interview #1", res.envelope(t)["summary"])
}

func TestRoundsStatsProfile(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)
	login(t)

	res := run(t, "", "rounds", "list", "-i", "2", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, "1 round", res.envelope(t)["summary"])

	res = run(t, "", "stats", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, "2 total, 1 active, 0 offers (0.0% success)", res.envelope(t)["summary"])

	res = run(t, "", "profile", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, "Email reminders 1 day before", res.envelope(t)["summary"])

	res = run(t, "", "profile", "update", "--notifications=false", "--reminder-days", "2", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, map[string]any{"email_notifications_enabled": false, "reminder_days_before": float64(2)}, b.body())

	res = run(t, "", "profile", "update", "--reminder-days", "30", "--json")
	assert.Equal(t, output.ExitUsage, res.code)

	res = run(t, "", "profile", "update", "--reminder-time", "9am", "--json")
	assert.Equal(t, output.ExitUsage, res.code)

	res = run(t, "", "profile", "me", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, "ada <ada@example.com>", res.envelope(t)["summary"])
}

func TestDashboardRefreshesOnceForConcurrentRequests(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)
	login(t)
	b.expire()

	res := run(t, "", "dashboard", "--json", "--stats")
	require.Equal(t, 0, res.code, res.stdout+res.stderr)
	assert.Equal(t, int32(1), b.refreshes.Load())

	env := res.envelope(t)
	assert.Equal(t, "ada: 2 total, 1 active, 0 offers (0.0% success), 1 upcoming", env["summary"])
	data := env["data"].(map[string]any)
	assert.Len(t, data["upcoming"], 1)
	assert.Contains(t, env, "meta")

	// The rotated pair was saved for the next invocation.
	res = run(t, "", "auth", "token")
	assert.Equal(t, "T2\n", res.stdout)
}

func TestSessionEndedClearsCredentials(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)
	login(t)
	b.expire()
	b.revoke()

	res := run(t, "", "interviews", "list", "--json")
	assert.Equal(t, output.ExitSessionEnded, res.code)
	assert.Equal(t, output.CodeSessionEnded, res.envelope(t)["code"])
	assert.Contains(t, res.stderr, "tracker auth login")
	assert.Equal(t, int32(1), b.refreshes.Load())

	res = run(t, "", "interviews", "list", "--json")
	assert.Equal(t, output.ExitAuth, res.code)
	assert.Equal(t, int32(1), b.refreshes.Load())
}

func TestAPICommand(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)
	login(t)

	res := run(t, "", "api", "get", "/api/interviews/", "--jq", ".[0].company_name")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, "Acme\n", res.stdout)

	res = run(t, "", "api", "get", "api/interviews/1/", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	env := res.envelope(t)
	assert.Equal(t, "GET /api/interviews/1/: id 1", env["summary"])
	meta := env["meta"].(map[string]any)
	assert.Equal(t, float64(200), meta["status"])
	assert.NotEmpty(t, meta["request_id"])

	res = run(t, "", "api", "get", b.URL+"/api/interviews/", "--all", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Len(t, res.envelope(t)["data"], 2)

	res = run(t, "", "api", "get", "https://evil.example.com/api/interviews/", "--json")
	assert.Equal(t, output.ExitUsage, res.code)

	res = run(t, "", "api", "patch", "/api/interviews/1/", "-d", `{"status":"completed"}`, "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, map[string]any{"status": "completed"}, b.body())

	res = run(t, "", "api", "post", "/api/interviews/", "-d", `{bad`, "--json")
	assert.Equal(t, output.ExitUsage, res.code)

	res = run(t, "", "api", "post", "/api/interviews/", "--json")
	assert.Equal(t, output.ExitUsage, res.code)
	assert.Equal(t, "--data required", res.envelope(t)["error"])

	res = run(t, "", "api", "delete", "/api/interviews/1/", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	env = res.envelope(t)
	assert.Equal(t, map[string]any{}, env["data"])
	assert.Equal(t, float64(204), env["meta"].(map[string]any)["status"])
}

func TestConfigShowAndSet(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)

	res := run(t, "", "config", "set", "refresh_timeout", "5s")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Contains(t, res.stdout, "Set refresh_timeout in ")

	res = run(t, "", "config", "set", "nope", "1")
	assert.Equal(t, output.ExitUsage, res.code)

	res = run(t, "", "config", "show", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	data := res.envelope(t)["data"].(map[string]any)
	assert.Equal(t, map[string]any{"value": "5s", "source": "global"}, data["refresh_timeout"])
	assert.Equal(t, map[string]any{"value": b.URL, "source": "env"}, data["base_url"])

	res = run(t, "", "config", "path")
	assert.Equal(t, config.GlobalConfigPath()+"\n", res.stdout)
}

func TestInvalidConfigIsUsageError(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)
	t.Setenv("TRACKER_CREDENTIAL_STORE", "floppy")

	res := run(t, "", "stats", "--json")
	assert.Equal(t, output.ExitUsage, res.code)
	assert.Contains(t, res.envelope(t)["error"], "credential_store")

	// Still repairable without a working config.
	res = run(t, "", "config", "set", "credential_store", "file")
	assert.Equal(t, 0, res.code)
}

func TestDoctor(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)

	res := run(t, "", "doctor", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	data := res.envelope(t)["data"].(map[string]any)
	assert.Equal(t, float64(1), data["failed"])
	assert.Equal(t, float64(2), data["skipped"])

	login(t)
	res = run(t, "", "doctor", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	env := res.envelope(t)
	assert.Equal(t, "All 5 checks passed", env["summary"])
}

func TestVersionAndUnknownFlag(t *testing.T) {
	res := run(t, "", "version")
	assert.Equal(t, 0, res.code)
	assert.True(t, strings.HasPrefix(res.stdout, "tracker version "))

	res = run(t, "", "version", "--bogus", "--json")
	assert.Equal(t, output.ExitUsage, res.code)
	assert.Equal(t, "Unknown option: --bogus", res.envelope(t)["error"])
}

func TestCompletionCache(t *testing.T) {
	b := newBackend(t)
	setupEnv(t, b)

	res := run(t, "", "completion", "bash")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Contains(t, res.stdout, "tracker")

	login(t)

	res = run(t, "", "completion", "status", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, "0 interviews (empty)", res.envelope(t)["summary"])

	// Listing interviews fills the cache.
	require.Equal(t, 0, run(t, "", "interviews", "list", "--json").code)

	res = run(t, "", "completion", "status", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, "2 interviews (fresh)", res.envelope(t)["summary"])

	res = run(t, "", "__complete", "interviews", "show", "")
	require.Equal(t, 0, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "1\tAcme - SRE\n2\tGlobex - Backend\n"), res.stdout)

	res = run(t, "", "__complete", "rounds", "list", "--interview", "glo")
	require.Equal(t, 0, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "2\tGlobex - Backend\n"), res.stdout)

	res = run(t, "", "completion", "refresh", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, "Cached 2 interviews", res.envelope(t)["summary"])

	// Signing out drops the cache.
	require.Equal(t, 0, run(t, "", "auth", "logout", "--json").code)
	res = run(t, "", "completion", "status", "--json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Equal(t, "0 interviews (empty)", res.envelope(t)["summary"])
}
