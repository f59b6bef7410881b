package observability

import (
	"context"
	"sync"
	"time"

	"github.com/interview-tracker/tracker-cli/internal/auth"
)

// Verify CLIHooks implements auth.Hooks at compile time.
var _ auth.Hooks = (*CLIHooks)(nil)

// CLIHooks implements auth.Hooks for CLI observability.
// It supports configurable verbosity levels:
//   - 0: Silent (collect stats only, no output)
//   - 1: Session events (token refreshes and queued requests)
//   - 2: Session events + HTTP requests
type CLIHooks struct {
	mu        sync.Mutex
	level     int
	collector *SessionCollector
	writer    *TraceWriter
}

// NewCLIHooks creates a new CLIHooks with the given verbosity level.
// If collector is nil, metrics are not collected.
// If writer is nil, no trace output is produced.
func NewCLIHooks(level int, collector *SessionCollector, writer *TraceWriter) *CLIHooks {
	return &CLIHooks{
		level:     level,
		collector: collector,
		writer:    writer,
	}
}

// SetLevel changes the verbosity level at runtime.
func (h *CLIHooks) SetLevel(level int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.level = level
}

// Level returns the current verbosity level.
func (h *CLIHooks) Level() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level
}

func (h *CLIHooks) snapshot() (int, *SessionCollector, *TraceWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level, h.collector, h.writer
}

// OnRequestStart is called before each attempt is sent.
func (h *CLIHooks) OnRequestStart(_ context.Context, info auth.RequestInfo) {
	level, _, writer := h.snapshot()
	if level >= 2 && writer != nil {
		writer.WriteRequestStart(info)
	}
}

// OnRequestEnd is called after each attempt completes.
func (h *CLIHooks) OnRequestEnd(_ context.Context, info auth.RequestInfo, result auth.RequestResult) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordRequest(info, result)
	}
	if level >= 2 && writer != nil {
		writer.WriteRequestEnd(info, result)
	}
}

// OnQueued is called when a request waits behind an in-flight refresh.
func (h *CLIHooks) OnQueued(context.Context) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordQueued()
	}
	if level >= 1 && writer != nil {
		writer.WriteQueued()
	}
}

// OnRefreshStart is called when a token refresh begins.
func (h *CLIHooks) OnRefreshStart(context.Context) {
	level, _, writer := h.snapshot()
	if level >= 1 && writer != nil {
		writer.WriteRefreshStart()
	}
}

// OnRefreshEnd is called when a token refresh settles.
func (h *CLIHooks) OnRefreshEnd(_ context.Context, err error, duration time.Duration) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordRefresh(err, duration)
	}
	if level >= 1 && writer != nil {
		writer.WriteRefreshEnd(err, duration)
	}
}
