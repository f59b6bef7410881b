// Package config provides layered configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/interview-tracker/tracker-cli/internal/hostutil"
)

// Credential store kinds.
const (
	StoreAuto    = "auto" // keyring when available, else file
	StoreKeyring = "keyring"
	StoreFile    = "file"
	StoreMemory  = "memory"
	StoreRedis   = "redis"
)

// Config holds the resolved configuration.
type Config struct {
	// API settings
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`

	// Auth settings
	CredentialStore string        `yaml:"credential_store" json:"credential_store"`
	RedisURL        string        `yaml:"redis_url,omitempty" json:"redis_url,omitempty"`
	PublicPaths     []string      `yaml:"public_paths,omitempty" json:"public_paths,omitempty"`
	RefreshTimeout  time.Duration `yaml:"refresh_timeout" json:"refresh_timeout"`

	// Output settings
	Format  string `yaml:"format" json:"format"`
	Verbose *int   `yaml:"verbose,omitempty" json:"verbose,omitempty"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `yaml:"-" json:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceSystem  Source = "system"
	SourceGlobal  Source = "global"
	SourceLocal   Source = "local"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	BaseURL         string
	CredentialStore string
	Format          string
}

// fileConfig is the on-disk shape. Durations are strings like "30s".
type fileConfig struct {
	BaseURL         string   `yaml:"base_url"`
	CredentialStore string   `yaml:"credential_store"`
	RedisURL        string   `yaml:"redis_url"`
	PublicPaths     []string `yaml:"public_paths"`
	RefreshTimeout  string   `yaml:"refresh_timeout"`
	RequestTimeout  string   `yaml:"request_timeout"`
	Format          string   `yaml:"format"`
	Verbose         *int     `yaml:"verbose"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseURL:         "http://localhost:8000",
		RequestTimeout:  30 * time.Second,
		CredentialStore: StoreAuto,
		RefreshTimeout:  30 * time.Second,
		Format:          "auto",
		Sources:         make(map[string]string),
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: flags > env (including .env) > local > global > system > defaults
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, systemConfigPath(), SourceSystem)
	loadFromFile(cfg, GlobalConfigPath(), SourceGlobal)
	loadFromFile(cfg, localConfigPath(), SourceLocal)

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed .env: %v\n", err)
	}
	LoadFromEnv(cfg)

	ApplyOverrides(cfg, overrides)

	cfg.BaseURL = NormalizeBaseURL(cfg.BaseURL)
	return cfg, cfg.Validate()
}

func loadFromFile(cfg *Config, path string, source Source) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config locations
	if err != nil {
		return // File doesn't exist, skip
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed config at %s: %v\n", path, err)
		return
	}

	// base_url and public_paths decide where tokens are sent. A config file
	// in the working directory must not redirect authenticated traffic.
	untrusted := source == SourceLocal

	if fc.BaseURL != "" {
		if untrusted {
			fmt.Fprintf(os.Stderr, "warning: ignoring base_url %q from %s config at %s (authority keys are not trusted from local config)\n", fc.BaseURL, source, path)
		} else {
			cfg.BaseURL = fc.BaseURL
			cfg.Sources["base_url"] = string(source)
		}
	}
	if len(fc.PublicPaths) > 0 {
		if untrusted {
			fmt.Fprintf(os.Stderr, "warning: ignoring public_paths from %s config at %s (authority keys are not trusted from local config)\n", source, path)
		} else {
			cfg.PublicPaths = fc.PublicPaths
			cfg.Sources["public_paths"] = string(source)
		}
	}
	if fc.CredentialStore != "" {
		cfg.CredentialStore = fc.CredentialStore
		cfg.Sources["credential_store"] = string(source)
	}
	if fc.RedisURL != "" {
		cfg.RedisURL = fc.RedisURL
		cfg.Sources["redis_url"] = string(source)
	}
	if d, ok := parseDuration(fc.RefreshTimeout, path, "refresh_timeout"); ok {
		cfg.RefreshTimeout = d
		cfg.Sources["refresh_timeout"] = string(source)
	}
	if d, ok := parseDuration(fc.RequestTimeout, path, "request_timeout"); ok {
		cfg.RequestTimeout = d
		cfg.Sources["request_timeout"] = string(source)
	}
	if fc.Format != "" {
		cfg.Format = fc.Format
		cfg.Sources["format"] = string(source)
	}
	if fc.Verbose != nil && *fc.Verbose >= 0 && *fc.Verbose <= 2 {
		v := *fc.Verbose
		cfg.Verbose = &v
		cfg.Sources["verbose"] = string(source)
	}
}

func parseDuration(v, path, key string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		fmt.Fprintf(os.Stderr, "warning: ignoring invalid %s %q at %s\n", key, v, path)
		return 0, false
	}
	return d, true
}

// LoadFromEnv loads configuration from TRACKER_* environment variables.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("TRACKER_BASE_URL"); v != "" {
		cfg.BaseURL = v
		cfg.Sources["base_url"] = string(SourceEnv)
	}
	if v := os.Getenv("TRACKER_CREDENTIAL_STORE"); v != "" {
		cfg.CredentialStore = v
		cfg.Sources["credential_store"] = string(SourceEnv)
	}
	if v := os.Getenv("TRACKER_REDIS_URL"); v != "" {
		cfg.RedisURL = v
		cfg.Sources["redis_url"] = string(SourceEnv)
	}
	if v := os.Getenv("TRACKER_PUBLIC_PATHS"); v != "" {
		cfg.PublicPaths = strings.Split(v, ",")
		cfg.Sources["public_paths"] = string(SourceEnv)
	}
	if v := os.Getenv("TRACKER_REFRESH_TIMEOUT"); v != "" {
		if d, ok := parseDuration(v, "environment", "TRACKER_REFRESH_TIMEOUT"); ok {
			cfg.RefreshTimeout = d
			cfg.Sources["refresh_timeout"] = string(SourceEnv)
		}
	}
	if v := os.Getenv("TRACKER_REQUEST_TIMEOUT"); v != "" {
		if d, ok := parseDuration(v, "environment", "TRACKER_REQUEST_TIMEOUT"); ok {
			cfg.RequestTimeout = d
			cfg.Sources["request_timeout"] = string(SourceEnv)
		}
	}
	if v := os.Getenv("TRACKER_FORMAT"); v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(SourceEnv)
	}
	if v := os.Getenv("TRACKER_VERBOSE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 2 {
			cfg.Verbose = &n
			cfg.Sources["verbose"] = string(SourceEnv)
		}
	}
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	if o.BaseURL != "" {
		// Accept bare hosts: "localhost:8000" or "tracker.example.com".
		cfg.BaseURL = hostutil.Normalize(o.BaseURL)
		cfg.Sources["base_url"] = string(SourceFlag)
	}
	if o.CredentialStore != "" {
		cfg.CredentialStore = o.CredentialStore
		cfg.Sources["credential_store"] = string(SourceFlag)
	}
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
}

var credentialStores = []string{StoreAuto, StoreKeyring, StoreFile, StoreMemory, StoreRedis}

// Validate checks values that cannot be fixed up silently.
func (cfg *Config) Validate() error {
	if !slices.Contains(credentialStores, cfg.CredentialStore) {
		return fmt.Errorf("invalid credential_store %q (want one of %s)", cfg.CredentialStore, strings.Join(credentialStores, ", "))
	}
	if cfg.CredentialStore == StoreRedis && cfg.RedisURL == "" {
		return fmt.Errorf("credential_store redis requires redis_url")
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return fmt.Errorf("invalid base_url %q: must start with http:// or https://", cfg.BaseURL)
	}
	if err := hostutil.RequireSecureURL(cfg.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	return nil
}

// Get returns the string form of a config key, for display.
func (cfg *Config) Get(key string) (string, bool) {
	switch key {
	case "base_url":
		return cfg.BaseURL, true
	case "credential_store":
		return cfg.CredentialStore, true
	case "redis_url":
		return cfg.RedisURL, true
	case "public_paths":
		return strings.Join(cfg.PublicPaths, ","), true
	case "refresh_timeout":
		return cfg.RefreshTimeout.String(), true
	case "request_timeout":
		return cfg.RequestTimeout.String(), true
	case "format":
		return cfg.Format, true
	case "verbose":
		if cfg.Verbose == nil {
			return "", true
		}
		return strconv.Itoa(*cfg.Verbose), true
	}
	return "", false
}

// Keys lists the settable config keys in display order.
func Keys() []string {
	return []string{"base_url", "credential_store", "redis_url", "public_paths", "refresh_timeout", "request_timeout", "format", "verbose"}
}

// SetGlobal writes key=value into the global config file, creating it if
// needed. Unknown keys are rejected.
func SetGlobal(key, value string) error {
	if !slices.Contains(Keys(), key) {
		return fmt.Errorf("unknown config key %q", key)
	}

	path := GlobalConfigPath()
	doc := map[string]any{}
	if data, err := os.ReadFile(path); err == nil { //nolint:gosec // G304: trusted config location
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	switch key {
	case "public_paths":
		doc[key] = strings.Split(value, ",")
	case "verbose":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 2 {
			return fmt.Errorf("verbose must be 0, 1 or 2")
		}
		doc[key] = n
	case "refresh_timeout", "request_timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		doc[key] = value
	default:
		doc[key] = value
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Path helpers

func systemConfigPath() string {
	return "/etc/tracker/config.yaml"
}

// GlobalConfigPath returns the per-user config file path.
func GlobalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.yaml")
}

func localConfigPath() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ".tracker.yaml")
}

// GlobalConfigDir returns the global config directory path. Credentials
// stored by the file backend live here too.
func GlobalConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "tracker")
}

// NormalizeBaseURL ensures consistent URL format (no trailing slash).
func NormalizeBaseURL(url string) string {
	return strings.TrimSuffix(url, "/")
}
