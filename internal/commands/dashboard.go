package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/interview-tracker/tracker-cli/internal/output"
	"github.com/interview-tracker/tracker-cli/internal/tracker"
)

// NewRoundsCmd creates the rounds command group.
func NewRoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds",
		Short: "Show interview rounds",
	}
	cmd.AddCommand(newRoundsListCmd())
	return cmd
}

func newRoundsListCmd() *cobra.Command {
	var interview string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List interview rounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireAuth(cmd)
			if err != nil {
				return err
			}

			var interviewID int64
			if interview != "" {
				if interviewID, _, err = app.Names.ResolveInterview(cmd.Context(), interview); err != nil {
					return err
				}
			}

			rounds, err := app.Tracker.ListRounds(cmd.Context(), interviewID)
			if err != nil {
				return err
			}
			return app.OK(rounds, output.WithSummary(plural(len(rounds), "round")))
		},
	}

	cmd.Flags().StringVarP(&interview, "interview", "i", "", "Only rounds of this interview (ID or company)")
	_ = cmd.RegisterFlagCompletionFunc("interview", completer.InterviewFlagCompletion())

	return cmd
}

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireAuth(cmd)
			if err != nil {
				return err
			}

			st, err := app.Tracker.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return app.OK(st, output.WithSummary(statsSummary(st)))
		},
	}
}

func statsSummary(st *tracker.Stats) string {
	return fmt.Sprintf("%d total, %d active, %d offers (%.1f%% success)",
		st.Total, st.Active, st.Offers, st.SuccessRate)
}

// Dashboard is the combined view returned by the dashboard command.
type Dashboard struct {
	Profile    *tracker.Profile    `json:"profile"`
	Stats      *tracker.Stats      `json:"stats"`
	Interviews []tracker.Interview `json:"upcoming"`
}

// NewDashboardCmd creates the dashboard command. Its three requests run
// concurrently and share the session, so an expired token is refreshed
// once for all of them.
func NewDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show profile, statistics and upcoming interviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireAuth(cmd)
			if err != nil {
				return err
			}

			var d Dashboard
			var all []tracker.Interview

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				d.Profile, err = app.Tracker.Profile(ctx)
				return err
			})
			g.Go(func() error {
				var err error
				d.Stats, err = app.Tracker.Stats(ctx)
				return err
			})
			g.Go(func() error {
				var err error
				all, err = app.Tracker.ListInterviews(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			d.Interviews = make([]tracker.Interview, 0, len(all))
			for _, iv := range all {
				if iv.IsUpcoming {
					d.Interviews = append(d.Interviews, iv)
				}
			}

			summary := fmt.Sprintf("%s: %s, %d upcoming", d.Profile.Username, statsSummary(d.Stats), len(d.Interviews))
			return app.OK(d, output.WithSummary(summary))
		},
	}
}
