// Package urlarg parses tracker URLs into IDs.
// This allows users to paste URLs from the browser or API responses as
// command arguments.
package urlarg

import (
	"net/url"
	"strconv"
	"strings"
)

// Resource types recognized in URLs.
const (
	TypeInterview = "interview"
	TypeRound     = "round"
)

// Parsed represents components extracted from a tracker URL.
type Parsed struct {
	Host string
	Type string
	ID   int64
}

// IsURL checks if the input looks like a tracker resource URL.
func IsURL(input string) bool {
	return Parse(input) != nil
}

// Parse extracts the resource from a tracker URL.
// Returns nil if the input is not a recognized URL.
//
// Supported URL patterns:
//   - https://{host}/api/interviews/{id}/
//   - https://{host}/api/interviews/rounds/{id}/
//   - https://{host}/interviews/{id}
//   - https://{host}/interviews/{id}/edit
func Parse(input string) *Parsed {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 0 && segments[0] == "api" {
		segments = segments[1:]
	}
	if len(segments) < 2 || segments[0] != "interviews" {
		return nil
	}

	typ, rest := TypeInterview, segments[1:]
	if rest[0] == "rounds" {
		typ, rest = TypeRound, rest[1:]
	}
	if len(rest) == 0 || len(rest) > 2 || (len(rest) == 2 && rest[1] != "edit") {
		return nil
	}

	id, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &Parsed{Host: u.Host, Type: typ, ID: id}
}

// ExtractInterviewID returns the interview ID of an interview URL.
// Any other argument is returned as-is.
func ExtractInterviewID(arg string) string {
	if parsed := Parse(arg); parsed != nil && parsed.Type == TypeInterview {
		return strconv.FormatInt(parsed.ID, 10)
	}
	return arg
}
