package completion

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// CacheDirFunc returns the cache directory to use for completion.
type CacheDirFunc func(cmd *cobra.Command) string

// DefaultCacheDirFunc returns TRACKER_CACHE_DIR, or "" for the default
// location. Completion runs without an app, so config files are not read.
func DefaultCacheDirFunc(*cobra.Command) string {
	return os.Getenv("TRACKER_CACHE_DIR")
}

// Completer provides tab completion functions for the tracker CLI.
// It reads from the file-based cache and never calls the API.
type Completer struct {
	getCacheDir CacheDirFunc
}

// NewCompleter creates a new Completer.
// If getCacheDir is nil, DefaultCacheDirFunc is used.
func NewCompleter(getCacheDir CacheDirFunc) *Completer {
	if getCacheDir == nil {
		getCacheDir = DefaultCacheDirFunc
	}
	return &Completer{getCacheDir: getCacheDir}
}

// Store returns the cache store for cmd.
func (c *Completer) Store(cmd *cobra.Command) *Store {
	return NewStore(c.getCacheDir(cmd))
}

// InterviewCompletion completes interview IDs, described by company and
// position. Only the first positional argument is completed.
func (c *Completer) InterviewCompletion() cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return c.interviews(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// InterviewFlagCompletion is InterviewCompletion for flag values.
func (c *Completer) InterviewFlagCompletion() cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		return c.interviews(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

func (c *Completer) interviews(cmd *cobra.Command, toComplete string) []cobra.Completion {
	interviews := c.Store(cmd).Interviews()
	if len(interviews) == 0 {
		return nil
	}

	toCompleteLower := strings.ToLower(toComplete)
	var completions []cobra.Completion
	for _, iv := range rankInterviews(interviews) {
		id := strconv.FormatInt(iv.ID, 10)
		desc := iv.CompanyName
		if iv.Position != "" {
			desc += " - " + iv.Position
		}
		if strings.HasPrefix(id, toComplete) || strings.Contains(strings.ToLower(desc), toCompleteLower) {
			completions = append(completions, cobra.CompletionWithDesc(id, desc))
		}
	}
	return completions
}

// rankInterviews returns interviews sorted by priority:
// 1. Upcoming
// 2. Recently updated
// 3. Alphabetical by company
func rankInterviews(interviews []CachedInterview) []CachedInterview {
	ranked := make([]CachedInterview, len(interviews))
	copy(ranked, interviews)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Upcoming != ranked[j].Upcoming {
			return ranked[i].Upcoming
		}
		if !ranked[i].UpdatedAt.Equal(ranked[j].UpdatedAt) {
			return ranked[i].UpdatedAt.After(ranked[j].UpdatedAt)
		}
		return strings.ToLower(ranked[i].CompanyName) < strings.ToLower(ranked[j].CompanyName)
	})

	return ranked
}
