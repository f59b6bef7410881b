// Package api provides an HTTP client for the tracker REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/interview-tracker/tracker-cli/internal/auth"
	"github.com/interview-tracker/tracker-cli/internal/output"
	"github.com/interview-tracker/tracker-cli/internal/version"
)

// maxPages bounds GetAll against a server that links pages in a cycle.
const maxPages = 1000

// Client is an HTTP client for the tracker API. Authentication is handled
// entirely by the underlying http.Client's transport.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// Response wraps an API response.
type Response struct {
	Data       json.RawMessage
	StatusCode int
	Headers    http.Header
	RequestID  string
}

// UnmarshalData unmarshals the response data into the given value.
func (r *Response) UnmarshalData(v any) error {
	return json.Unmarshal(r.Data, v)
}

// NewClient creates a new API client. httpClient should be the session's
// gated client (auth.Manager.HTTPClient).
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger,
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// page is a DRF paginated list.
type page struct {
	Next    *string           `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// GetAll fetches every item of a list endpoint. Both bare arrays and DRF
// paginated objects ({"next": ..., "results": [...]}) are accepted.
func (c *Client) GetAll(ctx context.Context, path string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	url := c.BuildURL(path)

	for n := 0; n < maxPages; n++ {
		resp, err := c.doURL(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		items, next, err := decodeList(resp.Data)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)

		if next == "" {
			return all, nil
		}
		url = next
	}

	c.logger.Warn("pagination capped; results may be incomplete", "pages", maxPages)
	return all, nil
}

func decodeList(data json.RawMessage) ([]json.RawMessage, string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, "", fmt.Errorf("failed to parse response: %w", err)
		}
		return items, "", nil
	}

	var p page
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, "", fmt.Errorf("failed to parse response: %w", err)
	}
	if p.Results == nil {
		return nil, "", fmt.Errorf("failed to parse response: expected a list")
	}
	next := ""
	if p.Next != nil {
		next = *p.Next
	}
	return p.Results, next, nil
}

// Do performs a request against a path relative to the base URL.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	return c.doURL(ctx, method, c.BuildURL(path), body)
}

func (c *Client) doURL(ctx context.Context, method, url string, body any) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		var data []byte
		switch b := body.(type) {
		case json.RawMessage:
			data = b
		default:
			var err error
			if data, err = json.Marshal(body); err != nil {
				return nil, fmt.Errorf("failed to marshal body: %w", err)
			}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", "method", method, "url", url, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		switch {
		case auth.IsSessionEnded(err):
			return nil, output.ErrSessionEnded(err)
		case errors.Is(err, context.Canceled):
			return nil, err
		default:
			return nil, output.ErrNetwork(err)
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{
			Data:       respBody,
			StatusCode: resp.StatusCode,
			Headers:    resp.Header,
			RequestID:  requestID,
		}, nil
	}

	c.logger.Debug("api error", "status", resp.StatusCode, "request_id", requestID)
	return nil, statusError(resp, respBody, url)
}

// statusError maps a non-2xx response to an output error. A 401 here has
// already been through one refresh-and-retry, so it is final.
func statusError(resp *http.Response, body []byte, url string) error {
	detail := auth.ErrorDetail(body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if detail == "" {
			detail = "Authentication failed"
		}
		return output.ErrAuth(detail)
	case http.StatusBadRequest:
		if detail == "" {
			detail = "Invalid request"
		}
		return output.ErrValidation(detail)
	case http.StatusForbidden:
		if detail == "" {
			detail = "Access denied"
		}
		return output.ErrForbidden(detail)
	case http.StatusNotFound:
		return output.ErrNotFound("Resource", url)
	case http.StatusTooManyRequests:
		return output.ErrRateLimit(parseRetryAfter(resp.Header.Get("Retry-After")))
	default:
		if detail == "" {
			detail = fmt.Sprintf("Request failed (HTTP %d)", resp.StatusCode)
		}
		return output.ErrAPI(resp.StatusCode, detail)
	}
}

// BuildURL resolves path against the base URL. Absolute URLs pass through.
func (c *Client) BuildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// parseRetryAfter parses the Retry-After header value.
func parseRetryAfter(header string) int {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return seconds
	}
	return 0
}
