package auth

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Gate is an http.RoundTripper that attaches the stored access token to
// every protected request and, on a 401, waits for the Coordinator and
// re-issues the request once with the new token.
//
// Requests to public paths never carry credentials and their 401s are
// returned untouched. A 401 on the re-issued request is returned as-is.
type Gate struct {
	next   http.RoundTripper
	store  *Store
	coord  *Coordinator
	public PublicPaths
	hooks  Hooks
	logger *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithPublicPaths replaces the default allow-list.
func WithPublicPaths(p PublicPaths) GateOption {
	return func(g *Gate) { g.public = p }
}

// WithGateHooks sets the request observer.
func WithGateHooks(h Hooks) GateOption {
	return func(g *Gate) {
		if h != nil {
			g.hooks = h
		}
	}
}

// WithGateLogger sets the logger.
func WithGateLogger(l *slog.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate wraps next. A nil next uses http.DefaultTransport.
func NewGate(next http.RoundTripper, store *Store, coord *Coordinator, opts ...GateOption) *Gate {
	if next == nil {
		next = http.DefaultTransport
	}
	g := &Gate{
		next:   next,
		store:  store,
		coord:  coord,
		public: NewPublicPaths(DefaultPublicPaths...),
		hooks:  NopHooks{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ http.RoundTripper = (*Gate)(nil)

// RoundTrip implements http.RoundTripper.
func (g *Gate) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	public := g.public.Match(req.URL.Path)
	var token string
	if !public {
		token, _ = g.store.Access()
	}

	resp, err := g.send(req, body, token, public, 1)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || public {
		return resp, nil
	}
	discard(resp)

	g.logger.Debug("access token rejected", "method", req.Method, "path", req.URL.Path)
	fresh, err := g.coord.Await(req.Context(), token)
	if err != nil {
		return nil, err
	}
	return g.send(req, body, fresh, false, 2)
}

func (g *Gate) send(req *http.Request, body func() io.ReadCloser, token string, public bool, attempt int) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Header.Del("Authorization")
	if body != nil {
		out.Body = body()
		out.GetBody = func() (io.ReadCloser, error) { return body(), nil }
	}
	if token != "" && !public {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(out)
	}

	info := RequestInfo{Method: req.Method, URL: req.URL.String(), Attempt: attempt, Public: public}
	g.hooks.OnRequestStart(req.Context(), info)
	start := time.Now()

	resp, err := g.next.RoundTrip(out)

	result := RequestResult{Duration: time.Since(start), Error: err}
	if resp != nil {
		result.StatusCode = resp.StatusCode
	}
	g.hooks.OnRequestEnd(req.Context(), info, result)
	return resp, err
}

// replayableBody reads the request body once so it can be sent twice. It
// always closes req.Body, as the RoundTripper contract requires.
func replayableBody(req *http.Request) (func() io.ReadCloser, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	return func() io.ReadCloser { return io.NopCloser(bytes.NewReader(data)) }, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
