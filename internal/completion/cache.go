// Package completion provides tab completion support for the tracker CLI.
// It keeps a file-based cache of interviews so shell completions work
// without an API call or a token refresh.
package completion

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/interview-tracker/tracker-cli/internal/tracker"
)

// CachedInterview holds interview data for tab completion.
type CachedInterview struct {
	ID          int64     `json:"id"`
	CompanyName string    `json:"company_name"`
	Position    string    `json:"position,omitempty"`
	Upcoming    bool      `json:"upcoming,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Cache stores completion data with metadata for staleness detection.
type Cache struct {
	Interviews []CachedInterview `json:"interviews,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Version    int               `json:"version"`
}

const (
	// CacheVersion is the current cache schema version.
	CacheVersion = 1

	// DefaultMaxAge is the default cache staleness threshold.
	DefaultMaxAge = time.Hour

	// CacheFileName is the default cache file name.
	CacheFileName = "completion.json"
)

// Store handles reading and writing the completion cache.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a new cache store.
// If dir is empty, it uses the default location (~/.cache/tracker/).
func NewStore(dir string) *Store {
	if dir == "" {
		dir = defaultCacheDir()
	}
	return &Store{dir: dir}
}

func defaultCacheDir() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "tracker")
}

// Path returns the full path to the cache file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, CacheFileName)
}

// Load reads the cache from disk.
// Returns an empty cache if the file doesn't exist or is invalid.
func (s *Store) Load() (*Cache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &Cache{Version: CacheVersion}, nil
		}
		return nil, err
	}

	var cache Cache
	if err := json.Unmarshal(data, &cache); err != nil || cache.Version != CacheVersion {
		return &Cache{Version: CacheVersion}, nil //nolint:nilerr // a corrupt cache is an empty cache
	}
	return &cache, nil
}

// UpdateInterviews replaces the cached interviews.
func (s *Store) UpdateInterviews(interviews []tracker.Interview) error {
	cached := make([]CachedInterview, 0, len(interviews))
	for _, iv := range interviews {
		c := CachedInterview{
			ID:          iv.ID,
			CompanyName: iv.CompanyName,
			Position:    iv.Position,
			Upcoming:    iv.IsUpcoming,
		}
		if t, err := time.Parse(time.RFC3339, iv.UpdatedAt); err == nil {
			c.UpdatedAt = t
		}
		cached = append(cached, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(Cache{
		Interviews: cached,
		UpdatedAt:  time.Now(),
		Version:    CacheVersion,
	}, "", "  ")
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := s.Path() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.Path())
}

// IsStale returns true if the cache is missing or older than maxAge.
func (s *Store) IsStale(maxAge time.Duration) bool {
	cache, err := s.Load()
	if err != nil || cache.UpdatedAt.IsZero() {
		return true
	}
	return time.Since(cache.UpdatedAt) > maxAge
}

// Clear removes the cache file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.Path())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Interviews returns cached interviews, or nil if the cache is empty.
func (s *Store) Interviews() []CachedInterview {
	cache, err := s.Load()
	if err != nil {
		return nil
	}
	return cache.Interviews
}
