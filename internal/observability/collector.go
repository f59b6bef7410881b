// Package observability provides metrics collection and tracing for CLI sessions.
package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/interview-tracker/tracker-cli/internal/auth"
)

// SessionMetrics aggregates metrics for an entire CLI session.
type SessionMetrics struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalRequests   int
	Retried         int // requests re-issued after a refresh
	FailedRequests  int
	Queued          int
	Refreshes       int
	FailedRefreshes int
	TotalLatency    time.Duration
	RefreshLatency  time.Duration
}

// FormatParts returns the non-zero metrics as short display strings.
func (m SessionMetrics) FormatParts() []string {
	var parts []string
	if m.TotalRequests > 0 {
		parts = append(parts, fmt.Sprintf("%d requests", m.TotalRequests))
	}
	if m.Retried > 0 {
		parts = append(parts, fmt.Sprintf("%d retried", m.Retried))
	}
	if m.Refreshes > 0 {
		s := fmt.Sprintf("%d refresh", m.Refreshes)
		if m.FailedRefreshes > 0 {
			s += fmt.Sprintf(" (%d failed)", m.FailedRefreshes)
		}
		parts = append(parts, s)
	}
	if m.Queued > 0 {
		parts = append(parts, fmt.Sprintf("%d queued", m.Queued))
	}
	if m.TotalLatency > 0 {
		parts = append(parts, fmt.Sprintf("%dms", m.TotalLatency.Milliseconds()))
	}
	return parts
}

// SessionCollector accumulates metrics across a CLI session.
// It is safe for concurrent use and uses counters instead of unbounded slices.
type SessionCollector struct {
	mu sync.Mutex

	startTime       time.Time
	totalRequests   int
	retried         int
	failedRequests  int
	queued          int
	refreshes       int
	failedRefreshes int
	totalLatency    time.Duration
	refreshLatency  time.Duration
}

// NewSessionCollector creates a new SessionCollector.
func NewSessionCollector() *SessionCollector {
	return &SessionCollector{
		startTime: time.Now(),
	}
}

// RecordRequest records one attempt of a request.
func (c *SessionCollector) RecordRequest(info auth.RequestInfo, result auth.RequestResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
	c.totalLatency += result.Duration
	if info.Attempt > 1 {
		c.retried++
	}
	if result.Error != nil || result.StatusCode >= 400 {
		c.failedRequests++
	}
}

// RecordQueued records a request that waited on a refresh.
func (c *SessionCollector) RecordQueued() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queued++
}

// RecordRefresh records a settled refresh.
func (c *SessionCollector) RecordRefresh(err error, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshes++
	c.refreshLatency += duration
	if err != nil {
		c.failedRefreshes++
	}
}

// Summary returns aggregated metrics for the session.
func (c *SessionCollector) Summary() SessionMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	return SessionMetrics{
		StartTime:       c.startTime,
		EndTime:         time.Now(),
		TotalRequests:   c.totalRequests,
		Retried:         c.retried,
		FailedRequests:  c.failedRequests,
		Queued:          c.queued,
		Refreshes:       c.refreshes,
		FailedRefreshes: c.failedRefreshes,
		TotalLatency:    c.totalLatency,
		RefreshLatency:  c.refreshLatency,
	}
}

// Reset clears all collected metrics and resets the start time.
func (c *SessionCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.totalRequests = 0
	c.retried = 0
	c.failedRequests = 0
	c.queued = 0
	c.refreshes = 0
	c.failedRefreshes = 0
	c.totalLatency = 0
	c.refreshLatency = 0
}
