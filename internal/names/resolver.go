// Package names resolves interview references typed on the command line.
// Resolution priority:
// 1. Numeric ID passthrough
// 2. Exact match (case-sensitive)
// 3. Case-insensitive match
// 4. Partial match (contains)
package names

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/interview-tracker/tracker-cli/internal/output"
	"github.com/interview-tracker/tracker-cli/internal/tracker"
	"github.com/interview-tracker/tracker-cli/internal/urlarg"
)

// InterviewLister lists the user's interviews.
type InterviewLister interface {
	ListInterviews(ctx context.Context) ([]tracker.Interview, error)
}

// Resolver resolves company names and "Company - Position" labels to
// interview IDs. The interview list is fetched once per resolver.
type Resolver struct {
	lister InterviewLister

	mu         sync.Mutex
	interviews []tracker.Interview
}

// NewResolver creates a resolver backed by lister.
func NewResolver(lister InterviewLister) *Resolver {
	return &Resolver{lister: lister}
}

// Label is how an interview is named in matches and suggestions.
func Label(iv tracker.Interview) string {
	if iv.Position == "" {
		return iv.CompanyName
	}
	return iv.CompanyName + " - " + iv.Position
}

// ResolveInterview resolves an ID, interview URL, company name or label to
// an interview ID. IDs and URLs are passed through without a request; the
// API validates them. It returns the ID and a display label (empty for IDs).
func (r *Resolver) ResolveInterview(ctx context.Context, input string) (int64, string, error) {
	input = urlarg.ExtractInterviewID(strings.TrimSpace(input))
	if input == "" {
		return 0, "", output.ErrUsage("Interview ID or company name required")
	}
	if id, err := strconv.ParseInt(input, 10, 64); err == nil {
		if id <= 0 {
			return 0, "", output.ErrUsageHint("Invalid interview ID: "+input, "IDs are positive integers")
		}
		return id, "", nil
	}

	interviews, err := r.getInterviews(ctx)
	if err != nil {
		return 0, "", err
	}

	// Labels first so "Acme - SRE" can pick one of several Acme interviews.
	match, matches := resolve(input, interviews, Label)
	if match == nil && len(matches) == 0 {
		match, matches = resolve(input, interviews, func(iv tracker.Interview) string { return iv.CompanyName })
	}

	if match != nil {
		return match.ID, Label(*match), nil
	}
	if len(matches) > 1 {
		labels := make([]string, len(matches))
		for i, m := range matches {
			labels[i] = Label(m) + " (#" + strconv.FormatInt(m.ID, 10) + ")"
		}
		return 0, "", output.ErrAmbiguous("interview", labels)
	}

	if suggestions := suggest(input, interviews, Label); len(suggestions) > 0 {
		return 0, "", output.ErrNotFoundHint("Interview", input, "Did you mean: "+strings.Join(suggestions, ", "))
	}
	return 0, "", output.ErrNotFound("Interview", input)
}

func (r *Resolver) getInterviews(ctx context.Context) ([]tracker.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.interviews != nil {
		return r.interviews, nil
	}
	interviews, err := r.lister.ListInterviews(ctx)
	if err != nil {
		return nil, err
	}
	r.interviews = interviews
	return interviews, nil
}

// resolve performs name resolution in priority order:
// exact, case-insensitive, then partial. Returns the single match if
// unambiguous, or all candidates of the first phase that had several.
func resolve[T any](input string, items []T, name func(T) string) (*T, []T) {
	inputLower := strings.ToLower(input)

	for i := range items {
		if name(items[i]) == input {
			return &items[i], nil
		}
	}

	var caseMatches []T
	for i := range items {
		if strings.ToLower(name(items[i])) == inputLower {
			caseMatches = append(caseMatches, items[i])
		}
	}
	if len(caseMatches) == 1 {
		return &caseMatches[0], nil
	}
	if len(caseMatches) > 1 {
		return nil, caseMatches
	}

	var partialMatches []T
	for i := range items {
		if strings.Contains(strings.ToLower(name(items[i])), inputLower) {
			partialMatches = append(partialMatches, items[i])
		}
	}
	if len(partialMatches) == 1 {
		return &partialMatches[0], nil
	}
	return nil, partialMatches
}

// suggest returns up to 3 names sharing a prefix or a word with input.
func suggest[T any](input string, items []T, name func(T) string) []string {
	inputLower := strings.ToLower(input)
	var suggestions []string

	for _, item := range items {
		n := name(item)
		nameLower := strings.ToLower(n)

		commonLen := 0
		for i := 0; i < len(inputLower) && i < len(nameLower); i++ {
			if inputLower[i] != nameLower[i] {
				break
			}
			commonLen++
		}

		if commonLen >= 2 || containsWord(nameLower, inputLower) {
			suggestions = append(suggestions, n)
			if len(suggestions) >= 3 {
				break
			}
		}
	}

	return suggestions
}

// containsWord checks if haystack contains any word from needle.
func containsWord(haystack, needle string) bool {
	for _, word := range strings.Fields(needle) {
		if len(word) >= 2 && strings.Contains(haystack, word) {
			return true
		}
	}
	return false
}
