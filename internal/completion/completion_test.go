package completion

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-tracker/tracker-cli/internal/tracker"
)

func newTestCompleter(cacheDir string) *Completer {
	return NewCompleter(func(*cobra.Command) string { return cacheDir })
}

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	assert.True(t, store.IsStale(DefaultMaxAge))
	assert.Empty(t, store.Interviews())

	require.NoError(t, store.UpdateInterviews([]tracker.Interview{
		{ID: 1, CompanyName: "Acme", Position: "SRE", IsUpcoming: true, UpdatedAt: "2026-10-01T10:00:00Z"},
		{ID: 2, CompanyName: "Globex", UpdatedAt: "not a time"},
	}))

	assert.False(t, store.IsStale(DefaultMaxAge))
	got := store.Interviews()
	require.Len(t, got, 2)
	assert.Equal(t, CachedInterview{
		ID:          1,
		CompanyName: "Acme",
		Position:    "SRE",
		Upcoming:    true,
		UpdatedAt:   time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
	}, got[0])
	assert.True(t, got[1].UpdatedAt.IsZero())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, store.Clear())
	assert.Empty(t, store.Interviews())
	require.NoError(t, store.Clear(), "clearing a missing cache is not an error")
}

func TestStoreCorruptCacheIsEmpty(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.Path(), []byte("{nope"), 0600))

	cache, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, cache.Interviews)
	assert.True(t, store.IsStale(DefaultMaxAge))
}

func TestRankInterviews(t *testing.T) {
	now := time.Now()
	ranked := rankInterviews([]CachedInterview{
		{ID: 1, CompanyName: "Zeta"},
		{ID: 2, CompanyName: "Alpha"},
		{ID: 3, CompanyName: "Old", UpdatedAt: now.Add(-48 * time.Hour)},
		{ID: 4, CompanyName: "New", UpdatedAt: now.Add(-time.Hour)},
		{ID: 5, CompanyName: "Soon", Upcoming: true},
	})

	var ids []int64
	for _, iv := range ranked {
		ids = append(ids, iv.ID)
	}
	// Upcoming first, recency among dated, then alphabetical.
	assert.Equal(t, int64(5), ids[0])
	assert.Less(t, indexOf(ids, 4), indexOf(ids, 3))
	assert.Less(t, indexOf(ids, 2), indexOf(ids, 1))
}

func indexOf(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func TestInterviewCompletion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewStore(dir).UpdateInterviews([]tracker.Interview{
		{ID: 12, CompanyName: "Acme", Position: "SRE"},
		{ID: 7, CompanyName: "Globex", Position: "Backend", IsUpcoming: true},
	}))

	complete := newTestCompleter(dir).InterviewCompletion()

	got, directive := complete(newTestCmd(), nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.Equal(t, []cobra.Completion{
		cobra.CompletionWithDesc("7", "Globex - Backend"),
		cobra.CompletionWithDesc("12", "Acme - SRE"),
	}, got)

	got, _ = complete(newTestCmd(), nil, "acm")
	assert.Equal(t, []cobra.Completion{cobra.CompletionWithDesc("12", "Acme - SRE")}, got)

	got, _ = complete(newTestCmd(), nil, "1")
	assert.Equal(t, []cobra.Completion{cobra.CompletionWithDesc("12", "Acme - SRE")}, got)

	got, _ = complete(newTestCmd(), []string{"12"}, "")
	assert.Empty(t, got, "only the first argument completes")
}

func TestInterviewFlagCompletion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewStore(dir).UpdateInterviews([]tracker.Interview{{ID: 3, CompanyName: "Initech"}}))

	got, _ := newTestCompleter(dir).InterviewFlagCompletion()(newTestCmd(), []string{"x"}, "")
	assert.Equal(t, []cobra.Completion{cobra.CompletionWithDesc("3", "Initech")}, got)
}

func TestCompletionWithoutCache(t *testing.T) {
	got, directive := newTestCompleter(t.TempDir()).InterviewCompletion()(newTestCmd(), nil, "")
	assert.Nil(t, got)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}

func TestDefaultCacheDirFunc(t *testing.T) {
	t.Setenv("TRACKER_CACHE_DIR", "/tmp/tracker-cache")
	assert.Equal(t, "/tmp/tracker-cache", DefaultCacheDirFunc(nil))
}
