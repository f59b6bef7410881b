package auth

import "strings"

// Endpoint paths of the tracker API used by the auth layer.
const (
	LoginPath        = "/api/auth/login/"
	RegistrationPath = "/api/auth/registration/"
	RefreshPath      = "/api/auth/token/refresh/"
	LogoutPath       = "/api/auth/logout/"
	UserPath         = "/api/auth/user/"
)

// DefaultPublicPaths are sent without credentials and never trigger a
// refresh: a stale token must not block the endpoints that replace it.
var DefaultPublicPaths = []string{LoginPath, RegistrationPath, RefreshPath}

// PublicPaths is an allow-list of path prefixes. "/api/auth/login/" matches
// "/api/auth/login", "/api/auth/login/" and anything below it.
type PublicPaths struct {
	prefixes []string
}

// NewPublicPaths builds an allow-list. Empty entries are ignored.
func NewPublicPaths(prefixes ...string) PublicPaths {
	p := PublicPaths{}
	for _, prefix := range prefixes {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			continue
		}
		if !strings.HasPrefix(prefix, "/") {
			prefix = "/" + prefix
		}
		p.prefixes = append(p.prefixes, strings.TrimSuffix(prefix, "/"))
	}
	return p
}

// Match reports whether path is on the allow-list.
func (p PublicPaths) Match(path string) bool {
	for _, prefix := range p.prefixes {
		if prefix == "" {
			// "/" was listed: everything is public.
			return true
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Prefixes returns the normalized prefixes.
func (p PublicPaths) Prefixes() []string {
	out := make([]string, len(p.prefixes))
	copy(out, p.prefixes)
	return out
}
