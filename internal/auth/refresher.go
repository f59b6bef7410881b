package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"golang.org/x/oauth2"
)

// Refresher exchanges a refresh token for a new token pair. A returned
// token with an empty RefreshToken means the server did not rotate it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return f(ctx, refreshToken)
}

// HTTPRefresher calls the token refresh endpoint. Client must not be a
// client built on the Gate.
type HTTPRefresher struct {
	URL    string
	Client *http.Client
}

// NewHTTPRefresher creates a refresher for baseURL + RefreshPath.
func NewHTTPRefresher(baseURL string, client *http.Client) *HTTPRefresher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRefresher{URL: baseURL + RefreshPath, Client: client}
}

// tokenPair accepts both the simplejwt field names and the OAuth ones.
type tokenPair struct {
	Access       string `json:"access"`
	Refresh      string `json:"refresh"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (p tokenPair) token() *oauth2.Token {
	tok := &oauth2.Token{TokenType: "Bearer", AccessToken: p.Access, RefreshToken: p.Refresh}
	if tok.AccessToken == "" {
		tok.AccessToken = p.AccessToken
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = p.RefreshToken
	}
	return tok
}

func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	body, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RefreshRejectedError{StatusCode: resp.StatusCode, Detail: ErrorDetail(respBody)}
	}

	var pair tokenPair
	if err := json.Unmarshal(respBody, &pair); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	tok := pair.token()
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("refresh response has no access token")
	}
	return tok, nil
}

// ErrorDetail extracts a human message from a DRF error body: "detail",
// then "non_field_errors", then the first field error by key order.
func ErrorDetail(body []byte) string {
	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) != nil {
		return ""
	}

	var detail string
	if raw, ok := fields["detail"]; ok && json.Unmarshal(raw, &detail) == nil && detail != "" {
		return detail
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if _, ok := fields["non_field_errors"]; ok {
		keys = append([]string{"non_field_errors"}, keys...)
	}

	for _, k := range keys {
		var msgs []string
		if json.Unmarshal(fields[k], &msgs) != nil || len(msgs) == 0 {
			continue
		}
		if k == "non_field_errors" {
			return msgs[0]
		}
		return k + ": " + msgs[0]
	}
	return ""
}
