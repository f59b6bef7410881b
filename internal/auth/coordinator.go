package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultRefreshTimeout bounds a single refresh call.
const DefaultRefreshTimeout = 30 * time.Second

// Coordinator makes sure that concurrent authentication failures caused by
// the same expired access token produce a single refresh call.
//
// The coordinator is either idle or refreshing. The first caller to fail
// while idle becomes the refresher; callers failing while a refresh is in
// flight are queued and resumed, in arrival order, with the refresher's
// outcome. The flag and the queue only change together under mu, so no
// waiter can be queued after the refresh settles.
type Coordinator struct {
	store     *Store
	refresher Refresher
	timeout   time.Duration
	hooks     Hooks
	logger    *slog.Logger

	mu         sync.Mutex
	refreshing bool
	queue      []chan refreshResult

	subMu       sync.Mutex
	subscribers []func(error)
}

type refreshResult struct {
	token string
	err   error
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithRefreshTimeout bounds each refresh call. Zero disables the bound.
func WithRefreshTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.timeout = d }
}

// WithHooks sets the observer for refresh events.
func WithHooks(h Hooks) CoordinatorOption {
	return func(c *Coordinator) {
		if h != nil {
			c.hooks = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates an idle coordinator.
func NewCoordinator(store *Store, refresher Refresher, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:     store,
		refresher: refresher,
		timeout:   DefaultRefreshTimeout,
		hooks:     NopHooks{},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnSessionEnded registers fn to be called after every failed refresh, once
// the credentials have been cleared and all waiters released.
func (c *Coordinator) OnSessionEnded(fn func(error)) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Refreshing reports whether a refresh is in flight.
func (c *Coordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// Await is called by a request that was rejected while carrying
// staleToken. It returns the access token to retry with, or an error
// matching ErrSessionEnded if the refresh failed.
//
// If the stored token already differs from staleToken, a refresh that
// started after the request was sent has completed, and the current token
// is returned without another refresh.
func (c *Coordinator) Await(ctx context.Context, staleToken string) (string, error) {
	return c.await(ctx, staleToken, false)
}

// Refresh forces a refresh, or joins the one in flight.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	return c.await(ctx, "", true)
}

func (c *Coordinator) await(ctx context.Context, staleToken string, force bool) (string, error) {
	c.mu.Lock()
	if c.refreshing {
		done := make(chan refreshResult, 1)
		c.queue = append(c.queue, done)
		depth := len(c.queue)
		c.mu.Unlock()

		c.logger.Debug("queued behind token refresh", "depth", depth)
		c.hooks.OnQueued(ctx)

		select {
		case r := <-done:
			return r.token, r.err
		case <-ctx.Done():
			// done is buffered, so the drain never blocks on us.
			return "", ctx.Err()
		}
	}
	if !force {
		if current, ok := c.store.Access(); ok && current != staleToken {
			c.mu.Unlock()
			return current, nil
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	token, err := c.refresh(ctx)
	c.settle(token, err)
	if err != nil {
		c.notify(err)
	}
	return token, err
}

// refresh performs the single refresh call and updates the store. It runs
// without holding mu.
func (c *Coordinator) refresh(ctx context.Context) (string, error) {
	start := time.Now()
	c.hooks.OnRefreshStart(ctx)
	c.logger.Debug("refreshing access token")

	token, err := c.exchange(ctx)
	if err != nil {
		c.store.Clear()
		err = &SessionEndedError{Cause: err}
		c.logger.Warn("token refresh failed, credentials cleared", "error", err)
	} else {
		c.logger.Debug("access token refreshed", "duration", time.Since(start))
	}

	c.hooks.OnRefreshEnd(ctx, err, time.Since(start))
	return token, err
}

func (c *Coordinator) exchange(ctx context.Context) (string, error) {
	refreshToken, ok := c.store.Refresh()
	if !ok {
		return "", ErrNoRefreshToken
	}

	// One caller going away must not end everyone's session.
	rctx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(rctx, c.timeout)
		defer cancel()
	}

	tok, err := c.refresher.Refresh(rctx, refreshToken)
	if err != nil {
		return "", err
	}
	if tok == nil || tok.AccessToken == "" {
		return "", errors.New("refresh returned no access token")
	}

	rotated := tok.RefreshToken
	if rotated == "" {
		rotated = refreshToken
	}
	c.store.SetTokens(tok.AccessToken, rotated)
	return tok.AccessToken, nil
}

// settle returns to idle and drains the queue in one step.
func (c *Coordinator) settle(token string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, done := range c.queue {
		done <- refreshResult{token: token, err: err}
	}
	c.queue = nil
	c.refreshing = false
}

func (c *Coordinator) notify(err error) {
	c.subMu.Lock()
	subs := make([]func(error), len(c.subscribers))
	copy(subs, c.subscribers)
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(err)
	}
}
