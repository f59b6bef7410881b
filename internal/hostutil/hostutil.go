// Package hostutil normalizes the tracker server address.
package hostutil

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Normalize turns what a user types for --base-url into the origin every
// API path is appended to. Bare hosts get https://, or http:// when they
// are loopback. Trailing slashes and a trailing /api segment are dropped,
// since endpoint paths already start with /api/.
func Normalize(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		scheme := "https://"
		if IsLocalhost(strings.SplitN(host, "/", 2)[0]) {
			scheme = "http://"
		}
		host = scheme + host
	}
	host = strings.TrimRight(host, "/")
	host = strings.TrimSuffix(host, "/api")
	return host
}

// IsLocalhost reports whether host (with optional port) names this machine:
// localhost, a *.localhost name, or a loopback IP.
func IsLocalhost(host string) bool {
	name := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		name = h
	}
	name = strings.Trim(name, "[]")

	if name == "localhost" || strings.HasSuffix(name, ".localhost") {
		return true
	}
	ip := net.ParseIP(name)
	return ip != nil && ip.IsLoopback()
}

// RequireSecureURL rejects URLs that would send bearer tokens in clear
// text: anything but https, unless the host is loopback.
func RequireSecureURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if IsLocalhost(u.Host) {
			return nil
		}
		return fmt.Errorf("refusing insecure http:// URL %q: use https:// or a localhost address", raw)
	default:
		return fmt.Errorf("unsupported scheme in %q: use https://", raw)
	}
}
