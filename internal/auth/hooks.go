package auth

import (
	"context"
	"time"
)

// RequestInfo describes one attempt of a request passing through the Gate.
type RequestInfo struct {
	Method  string
	URL     string
	Attempt int
	Public  bool
}

// RequestResult describes the outcome of one attempt.
type RequestResult struct {
	StatusCode int
	Duration   time.Duration
	Error      error
}

// Hooks observes the Gate and the Coordinator. Implementations must be safe
// for concurrent use and must not block.
type Hooks interface {
	OnRequestStart(ctx context.Context, info RequestInfo)
	OnRequestEnd(ctx context.Context, info RequestInfo, result RequestResult)
	OnQueued(ctx context.Context)
	OnRefreshStart(ctx context.Context)
	OnRefreshEnd(ctx context.Context, err error, duration time.Duration)
}

// NopHooks ignores every event.
type NopHooks struct{}

var _ Hooks = NopHooks{}

func (NopHooks) OnRequestStart(context.Context, RequestInfo) {}
func (NopHooks) OnRequestEnd(context.Context, RequestInfo, RequestResult) {}
func (NopHooks) OnQueued(context.Context) {}
func (NopHooks) OnRefreshStart(context.Context) {}
func (NopHooks) OnRefreshEnd(context.Context, error, time.Duration) {}
