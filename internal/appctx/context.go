// Package appctx provides application context helpers.
package appctx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/mattn/go-isatty"

	"github.com/interview-tracker/tracker-cli/internal/api"
	"github.com/interview-tracker/tracker-cli/internal/auth"
	"github.com/interview-tracker/tracker-cli/internal/config"
	"github.com/interview-tracker/tracker-cli/internal/names"
	"github.com/interview-tracker/tracker-cli/internal/observability"
	"github.com/interview-tracker/tracker-cli/internal/output"
	"github.com/interview-tracker/tracker-cli/internal/tracker"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config  *config.Config
	Auth    *auth.Manager
	API     *api.Client
	Tracker *tracker.Service
	Names   *names.Resolver
	Output  *output.Writer
	Logger  *slog.Logger

	// Observability
	Collector *observability.SessionCollector
	Hooks     *observability.CLIHooks

	// Flags holds the global flag values
	Flags GlobalFlags

	// Stdout receives command output and Stderr receives notices, traces
	// and stats. They default to the process streams.
	Stdout io.Writer
	Stderr io.Writer

	logLevel     *slog.LevelVar
	closers      []io.Closer
	sessionEnded atomic.Bool
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	// Output format flags
	JSON    bool
	Quiet   bool
	Styled  bool // Force ANSI styled output (even when piped)
	IDsOnly bool
	Count   bool
	JQ      string

	// Connection flags
	BaseURL string
	Store   string

	// Behavior flags
	Verbose int // 0=off, 1=refresh events, 2=refresh events+requests
	Stats   bool
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config) (*App, error) {
	a := &App{
		Config:   cfg,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		logLevel: new(slog.LevelVar),
	}

	// Discarded until ApplyFlags turns on -v. The handler writes through
	// a.Stderr so tests can capture it.
	a.logLevel.Set(slog.LevelError + 1)
	a.Logger = slog.New(slog.NewTextHandler(stderrWriter{a}, &slog.HandlerOptions{Level: a.logLevel}))

	backends, err := a.buildBackends()
	if err != nil {
		return nil, err
	}

	// Collector always runs to gather stats; hooks control output verbosity.
	// Level 0 initially; ApplyFlags sets the actual level from -v flags.
	a.Collector = observability.NewSessionCollector()
	a.Hooks = observability.NewCLIHooks(0, a.Collector, observability.NewTraceWriterTo(stderrWriter{a}))

	store := auth.NewStore(cfg.BaseURL, a.Logger, backends...)
	a.Auth = auth.NewManager(auth.Options{
		BaseURL:        cfg.BaseURL,
		Store:          store,
		PublicPaths:    cfg.PublicPaths,
		RefreshTimeout: cfg.RefreshTimeout,
		RequestTimeout: cfg.RequestTimeout,
		Hooks:          a.Hooks,
		Logger:         a.Logger,
	})
	a.Auth.OnSessionEnded(a.notifySessionEnded)

	a.API = api.NewClient(cfg.BaseURL, a.Auth.HTTPClient(), a.Logger)
	a.Tracker = tracker.NewService(a.API)
	a.Names = names.NewResolver(a.Tracker)

	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		format = output.FormatAuto
	}
	a.Output = output.New(output.Options{
		Format: format,
		Writer: a.Stdout,
	})

	return a, nil
}

// buildBackends returns the persistence chain for the configured store.
func (a *App) buildBackends() ([]auth.Backend, error) {
	file := auth.NewFileBackend(config.GlobalConfigDir())

	switch a.Config.CredentialStore {
	case config.StoreMemory:
		return nil, nil
	case config.StoreFile:
		return []auth.Backend{file}, nil
	case config.StoreKeyring:
		return []auth.Backend{auth.NewKeyringBackend(), file}, nil
	case config.StoreRedis:
		r, err := auth.NewRedisBackend(a.Config.RedisURL)
		if err != nil {
			return nil, output.ErrUsageHint(err.Error(), "Check redis_url in your config")
		}
		a.closers = append(a.closers, r)
		return []auth.Backend{r}, nil
	default:
		if auth.KeyringAvailable() {
			return []auth.Backend{auth.NewKeyringBackend(), file}, nil
		}
		a.Logger.Debug("keyring unavailable, using file credentials", "dir", config.GlobalConfigDir())
		return []auth.Backend{file}, nil
	}
}

// ApplyFlags applies global flag values to the app configuration.
func (a *App) ApplyFlags() {
	format := a.Output.Format()

	// Order matters: specific modes first
	switch {
	case a.Flags.IDsOnly:
		format = output.FormatIDs
	case a.Flags.Count:
		format = output.FormatCount
	case a.Flags.Quiet:
		format = output.FormatQuiet
	case a.Flags.JSON:
		format = output.FormatJSON
	case a.Flags.Styled:
		format = output.FormatStyled
	}
	a.Output = output.New(output.Options{
		Format: format,
		Writer: a.Stdout,
		JQ:     a.Flags.JQ,
	})

	level := a.VerboseLevel()
	if a.Hooks != nil {
		a.Hooks.SetLevel(level)
	}
	if level > 0 {
		a.logLevel.Set(slog.LevelDebug)
	}
}

// VerboseLevel combines -v flags, the verbose config key and TRACKER_DEBUG.
func (a *App) VerboseLevel() int {
	level := a.Flags.Verbose
	if a.Config != nil && a.Config.Verbose != nil && *a.Config.Verbose > level {
		level = *a.Config.Verbose
	}
	if debugEnv := os.Getenv("TRACKER_DEBUG"); debugEnv != "" {
		// TRACKER_DEBUG can be "1", "2", or "true" (treated as 2)
		if n, err := strconv.Atoi(debugEnv); err == nil {
			level = max(level, n)
		} else if debugEnv == "true" {
			level = 2
		}
	}
	return min(level, 2)
}

// SessionEnded reports whether a token refresh failed during this run.
func (a *App) SessionEnded() bool {
	return a.sessionEnded.Load()
}

// notifySessionEnded runs once per failed refresh.
func (a *App) notifySessionEnded(err error) {
	first := a.sessionEnded.CompareAndSwap(false, true)
	a.Logger.Debug("session ended", "error", err)
	if !first || a.isMachineOutput() {
		return
	}
	r := output.NewRenderer(a.Stderr, false)
	r.Notice(a.Stderr, "Your session has ended and saved credentials were cleared.", "Run: tracker auth login")
}

// OK outputs a success response, automatically including stats if --stats flag is set.
func (a *App) OK(data any, opts ...output.ResponseOption) error {
	if a.Flags.Stats && a.Collector != nil {
		opts = append(opts, output.WithMeta("stats", a.Collector.Summary()))
	}
	return a.Output.OK(data, opts...)
}

// Err outputs an error response, printing stats to stderr if --stats flag is set.
func (a *App) Err(err error) error {
	if outputErr := a.Output.Err(err); outputErr != nil {
		return outputErr
	}

	// Machine-consumable modes keep stderr clean.
	if a.Flags.Stats && a.Collector != nil && !a.isMachineOutput() {
		a.printStats(a.Collector.Summary())
	}
	return nil
}

// isMachineOutput returns true if the output mode is intended for programmatic consumption.
func (a *App) isMachineOutput() bool {
	if a.Flags.Quiet || a.Flags.IDsOnly || a.Flags.Count || a.Flags.JQ != "" {
		return true
	}
	return a.Config != nil && a.Config.Format == "quiet"
}

func (a *App) printStats(stats observability.SessionMetrics) {
	parts := stats.FormatParts()
	if len(parts) > 0 {
		fmt.Fprintf(a.Stderr, "\nStats: %s\n", strings.Join(parts, " | "))
	}
}

// IsInteractive returns true if prompts can be shown.
func (a *App) IsInteractive() bool {
	if a.Flags.JSON || a.Flags.Quiet || a.Flags.IDsOnly || a.Flags.Count {
		return false
	}
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// Close releases backend connections.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// stderrWriter resolves App.Stderr at write time.
type stderrWriter struct{ a *App }

func (w stderrWriter) Write(p []byte) (int, error) {
	return w.a.Stderr.Write(p)
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
