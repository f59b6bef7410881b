package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDev(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	tests := []struct {
		version  string
		expected bool
	}{
		{"dev", true},
		{"1.0.0", false},
		{"v1.2.3", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			Version = tt.version
			assert.Equal(t, tt.expected, IsDev())
		})
	}
}

func TestFull(t *testing.T) {
	original, commit, date := Version, Commit, Date
	defer func() { Version, Commit, Date = original, commit, date }()

	Version = "dev"
	assert.Equal(t, "tracker version dev (built from source)", Full())

	Version, Commit, Date = "1.2.3", "abc123", "2026-01-02"
	assert.Equal(t, "tracker version 1.2.3 (abc123, 2026-01-02)", Full())
}

func TestUserAgent(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "1.0.0"
	assert.Equal(t, "tracker-cli/1.0.0", UserAgent())
}
