package auth

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrNotFound is returned by a Backend that holds no credentials for an origin.
var ErrNotFound = errors.New("credentials not found")

// Credentials is the token pair persisted for one origin.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Backend persists credentials. Implementations may fail; the Store
// absorbs those failures.
type Backend interface {
	Name() string
	Load(origin string) (*Credentials, error)
	Save(origin string, creds *Credentials) error
	Delete(origin string) error
}

// Store is the single source of truth for the access and refresh tokens of
// one origin. Reads and writes never fail: the in-memory pair is
// authoritative and the backends are best-effort mirrors of it.
type Store struct {
	origin   string
	backends []Backend
	logger   *slog.Logger

	// persistMu orders backend writes the same way as memory writes.
	persistMu sync.Mutex

	mu      sync.RWMutex
	access  string
	refresh string
}

// NewStore creates a store for origin. Backends are tried in order: the
// first one holding credentials seeds the store, and writes go to the first
// one that accepts them, removing older copies from the backends before it.
// With no backends the store is memory-only.
func NewStore(origin string, logger *slog.Logger, backends ...Backend) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		origin:   origin,
		backends: backends,
		logger:   logger,
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	for _, b := range s.backends {
		creds, err := b.Load(s.origin)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				s.logger.Warn("credential load failed", "backend", b.Name(), "error", err)
			}
			continue
		}
		if creds.AccessToken == "" && creds.RefreshToken == "" {
			continue
		}
		s.access = creds.AccessToken
		s.refresh = creds.RefreshToken
		s.logger.Debug("credentials restored", "backend", b.Name(), "origin", s.origin)
		return
	}
}

// Origin returns the origin the store is bound to.
func (s *Store) Origin() string {
	return s.origin
}

// Access returns the access token, or false if none is stored.
func (s *Store) Access() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, s.access != ""
}

// Refresh returns the refresh token, or false if none is stored.
func (s *Store) Refresh() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh, s.refresh != ""
}

// SetTokens overwrites both tokens. Contents are not validated.
func (s *Store) SetTokens(access, refresh string) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.mu.Unlock()

	creds := &Credentials{AccessToken: access, RefreshToken: refresh}
	for i, b := range s.backends {
		err := b.Save(s.origin, creds)
		if err == nil {
			s.dropShadowing(s.backends[:i])
			return
		}
		s.logger.Warn("credential save failed, trying next backend", "backend", b.Name(), "error", err)
	}
}

// dropShadowing deletes the origin from backends that restore would read
// before the one holding the newest pair.
func (s *Store) dropShadowing(ahead []Backend) {
	for _, b := range ahead {
		if err := b.Delete(s.origin); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("stale credential delete failed", "backend", b.Name(), "error", err)
		}
	}
}

// Clear removes both tokens from memory and from every backend. It is
// idempotent.
func (s *Store) Clear() {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.mu.Unlock()

	for _, b := range s.backends {
		if err := b.Delete(s.origin); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("credential delete failed", "backend", b.Name(), "error", err)
		}
	}
}
