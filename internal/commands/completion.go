package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/interview-tracker/tracker-cli/internal/completion"
	"github.com/interview-tracker/tracker-cli/internal/output"
	"github.com/interview-tracker/tracker-cli/internal/tracker"
)

// completer serves interview completions from the cache. It never builds
// an app, so completions stay fast and never trigger a token refresh.
var completer = completion.NewCompleter(nil)

// NewCompletionCmd creates the completion command group.
func NewCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [shell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for tracker.

To load completions:

Bash:
  $ source <(tracker completion bash)

Zsh:
  $ tracker completion zsh > "${fpath[1]}/_tracker"

Fish:
  $ tracker completion fish | source

PowerShell:
  PS> tracker completion powershell | Out-String | Invoke-Expression

Interview IDs complete from a local cache, updated by "tracker interviews
list" and "tracker completion refresh". Set TRACKER_CACHE_DIR to move it.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Annotations:           map[string]string{SkipSetupAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return genCompletion(cmd.Root(), cmd.OutOrStdout(), args[0])
		},
	}

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		cmd.AddCommand(&cobra.Command{
			Use:                   shell,
			Short:                 fmt.Sprintf("Generate %s completion script", shell),
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			Annotations:           map[string]string{SkipSetupAnnotation: "true"},
			RunE: func(cmd *cobra.Command, args []string) error {
				return genCompletion(cmd.Root(), cmd.OutOrStdout(), shell)
			},
		})
	}

	cmd.AddCommand(newCompletionRefreshCmd())
	cmd.AddCommand(newCompletionStatusCmd())

	return cmd
}

func genCompletion(root *cobra.Command, w io.Writer, shell string) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	default:
		return output.ErrUsage("Unknown shell: " + shell)
	}
}

func newCompletionRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the completion cache",
		Long:  "Fetch your interviews and update the local cache used for tab completion. Requires authentication.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireAuth(cmd)
			if err != nil {
				return err
			}

			interviews, err := app.Tracker.ListInterviews(cmd.Context())
			if err != nil {
				return err
			}

			store := completer.Store(cmd)
			if err := store.UpdateInterviews(interviews); err != nil {
				return fmt.Errorf("writing completion cache: %w", err)
			}

			return app.OK(map[string]any{
				"interviews": len(interviews),
				"cache_path": store.Path(),
			}, output.WithSummary("Cached "+plural(len(interviews), "interview")))
		},
	}
}

func newCompletionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show completion cache status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			store := completer.Store(cmd)
			cache, err := store.Load()
			if err != nil {
				return err
			}

			stale := store.IsStale(completion.DefaultMaxAge)
			age, status := "never", "empty"
			if !cache.UpdatedAt.IsZero() {
				age = time.Since(cache.UpdatedAt).Round(time.Second).String()
				status = "fresh"
				if stale {
					status = "stale"
				}
			}

			return app.OK(map[string]any{
				"interviews": len(cache.Interviews),
				"updated_at": cache.UpdatedAt,
				"age":        age,
				"status":     status,
				"stale":      stale,
				"cache_path": store.Path(),
			}, output.WithSummary(fmt.Sprintf("%s (%s)", plural(len(cache.Interviews), "interview"), status)))
		},
	}
}

// updateCompletionCache refreshes the cache after a full interview listing.
// Best-effort: completion is a convenience.
func updateCompletionCache(cmd *cobra.Command, interviews []tracker.Interview) {
	_ = completer.Store(cmd).UpdateInterviews(interviews)
}
