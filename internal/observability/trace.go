package observability

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/interview-tracker/tracker-cli/internal/auth"
)

// sensitiveParams are query parameter names that should be scrubbed from trace output.
var sensitiveParams = map[string]bool{
	"access":        true, // simplejwt field names
	"refresh":       true,
	"access_token":  true,
	"refresh_token": true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"client_secret": true,
}

// TraceWriter outputs human-readable trace information to stderr.
// It formats output with timestamps relative to session start.
type TraceWriter struct {
	mu        sync.Mutex
	writer    io.Writer
	startTime time.Time
}

// NewTraceWriter creates a new TraceWriter that writes to stderr.
func NewTraceWriter() *TraceWriter {
	return NewTraceWriterTo(os.Stderr)
}

// NewTraceWriterTo creates a new TraceWriter that writes to the given writer.
func NewTraceWriterTo(w io.Writer) *TraceWriter {
	return &TraceWriter{
		writer:    w,
		startTime: time.Now(),
	}
}

func (t *TraceWriter) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.startTime).Seconds()
	fmt.Fprintf(t.writer, "[%.3fs] "+format+"\n", append([]any{elapsed}, args...)...)
}

// WriteRequestStart writes a request start trace line.
// Format: [0.234s]   -> GET /api/interviews/
// Retries are marked with the attempt number. Sensitive query parameters
// are redacted.
func (t *TraceWriter) WriteRequestStart(info auth.RequestInfo) {
	suffix := ""
	if info.Attempt > 1 {
		suffix = fmt.Sprintf(" (attempt %d)", info.Attempt)
	}
	t.printf("  -> %s %s%s", info.Method, scrubURL(info.URL), suffix)
}

// WriteRequestEnd writes a request completion trace line.
// Format: [0.234s]   <- 200 (45ms)
func (t *TraceWriter) WriteRequestEnd(_ auth.RequestInfo, result auth.RequestResult) {
	if result.Error != nil {
		t.printf("  <- ERROR: %v", result.Error)
		return
	}
	t.printf("  <- %d (%dms)", result.StatusCode, result.Duration.Milliseconds())
}

// WriteQueued writes a line for a request waiting on a refresh.
func (t *TraceWriter) WriteQueued() {
	t.printf("  .. waiting for token refresh")
}

// WriteRefreshStart writes a refresh start trace line.
func (t *TraceWriter) WriteRefreshStart() {
	t.printf("Refreshing access token")
}

// WriteRefreshEnd writes a refresh completion trace line.
// Format: [0.234s] Refreshed access token (120ms)
func (t *TraceWriter) WriteRefreshEnd(err error, duration time.Duration) {
	if err != nil {
		t.printf("Refresh failed: %v", err)
		return
	}
	t.printf("Refreshed access token (%dms)", duration.Milliseconds())
}

// Reset resets the start time for relative timestamps.
func (t *TraceWriter) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startTime = time.Now()
}

// scrubURL redacts sensitive query parameters from a URL for safe logging.
// Returns a safe placeholder if the URL cannot be parsed.
func scrubURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		// Don't leak potentially sensitive malformed URLs
		return "[unparseable URL]"
	}

	query := u.Query()
	modified := false
	for key := range query {
		if sensitiveParams[strings.ToLower(key)] {
			query.Set(key, "[REDACTED]")
			modified = true
		}
	}

	if !modified {
		return rawURL
	}

	u.RawQuery = query.Encode()
	return u.String()
}
