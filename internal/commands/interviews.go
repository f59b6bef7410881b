package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/interview-tracker/tracker-cli/internal/dateparse"
	"github.com/interview-tracker/tracker-cli/internal/output"
	"github.com/interview-tracker/tracker-cli/internal/tracker"
	"github.com/interview-tracker/tracker-cli/internal/tui"
)

// NewInterviewsCmd creates the interviews command group.
func NewInterviewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interviews",
		Aliases: []string{"interview", "iv"},
		Short:   "Manage interviews",
		Long:    "List, show, create, update and delete tracked interviews.",
	}

	cmd.AddCommand(
		newInterviewsListCmd(),
		newInterviewsShowCmd(),
		newInterviewsCreateCmd(),
		newInterviewsUpdateCmd(),
		newInterviewsDeleteCmd(),
	)

	return cmd
}

func newInterviewsListCmd() *cobra.Command {
	var status, stage string
	var upcoming bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List interviews",
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
			updateCompletionCache(cmd, interviews)

			filtered := make([]tracker.Interview, 0, len(interviews))
			for _, iv := range interviews {
				if status != "" && !strings.EqualFold(iv.Status, status) && !strings.EqualFold(iv.ApplicationStatus, status) {
					continue
				}
				if stage != "" && !strings.EqualFold(iv.InterviewStage, stage) {
					continue
				}
				if upcoming && !iv.IsUpcoming {
					continue
				}
				filtered = append(filtered, iv)
			}

			return app.OK(filtered, output.WithSummary(plural(len(filtered), "interview")))
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status or application status")
	cmd.Flags().StringVar(&stage, "stage", "", "Filter by interview stage")
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "Only interviews in the next 7 days")

	return cmd
}

func newInterviewsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "show <id|company>",
		Short:             "Show an interview and its rounds",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completer.InterviewCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireAuth(cmd)
			if err != nil {
				return err
			}
			id, _, err := app.Names.ResolveInterview(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			iv, err := app.Tracker.GetInterview(cmd.Context(), id)
			if err != nil {
				return err
			}

			return app.OK(iv,
				output.WithSummary(fmt.Sprintf("%s - %s", iv.CompanyName, iv.Position)),
				output.WithContext("rounds", len(iv.Rounds)),
			)
		},
	}
}

// interviewFlags binds the writable interview fields to flags.
func interviewFlags(cmd *cobra.Command, in *tracker.InterviewInput) {
	cmd.Flags().StringVar(&in.CompanyName, "company", "", "Company name")
	cmd.Flags().StringVar(&in.Position, "position", "", "Position")
	cmd.Flags().StringVar(&in.InterviewDate, "date", "", `Interview date and time (e.g. "tomorrow 3pm", 2026-11-02T15:00:00Z)`)
	cmd.Flags().StringVar(&in.InterviewType, "type", "", "Interview type (phone, technical, behavioral, final)")
	cmd.Flags().StringVar(&in.Status, "status", "", "Status (scheduled, completed, cancelled)")
	cmd.Flags().StringVar(&in.Location, "location", "", "Location (onsite, remote, hybrid)")
	cmd.Flags().StringVar(&in.InterviewStage, "stage", "", "Interview stage")
	cmd.Flags().StringVar(&in.ApplicationStatus, "application-status", "", "Application status")
	cmd.Flags().StringVar(&in.ApplicationDate, "applied", "", `Application date (YYYY-MM-DD, "yesterday", "3 days ago")`)
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Notes")
}

// normalizeDates resolves natural language dates in place: the interview
// date to RFC 3339 and the application date to YYYY-MM-DD.
func normalizeDates(in *tracker.InterviewInput, now time.Time) error {
	if in.InterviewDate != "" {
		t, err := dateparse.ParseTime(in.InterviewDate, now)
		if err != nil {
			return output.ErrUsageHint("Invalid --date: "+in.InterviewDate, `Use a date and a time, e.g. "tomorrow 3pm" or 2026-11-02T15:00:00Z`)
		}
		if _, rfcErr := time.Parse(time.RFC3339, in.InterviewDate); rfcErr != nil {
			in.InterviewDate = t.Format(time.RFC3339)
		}
	}
	if in.ApplicationDate != "" {
		d, err := dateparse.ParseFrom(in.ApplicationDate, now)
		if err != nil {
			return output.ErrUsageHint("Invalid --applied: "+in.ApplicationDate, `Use YYYY-MM-DD or e.g. "yesterday"`)
		}
		in.ApplicationDate = d
	}
	return nil
}

func newInterviewsCreateCmd() *cobra.Command {
	var in tracker.InterviewInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an interview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireAuth(cmd)
			if err != nil {
				return err
			}
			if in.CompanyName == "" || in.Position == "" {
				return output.ErrUsage("--company and --position are required")
			}
			if err := normalizeDates(&in, time.Now()); err != nil {
				return err
			}

			iv, err := app.Tracker.CreateInterview(cmd.Context(), in)
			if err != nil {
				return err
			}

			return app.OK(iv, output.WithSummary(fmt.Sprintf("Created interview #%d: %s - %s", iv.ID, iv.CompanyName, iv.Position)))
		},
	}

	interviewFlags(cmd, &in)
	return cmd
}

func newInterviewsUpdateCmd() *cobra.Command {
	var in tracker.InterviewInput

	cmd := &cobra.Command{
		Use:               "update <id|company>",
		Short:             "Update an interview",
		Long:              "Update the given fields of an interview. Fields not passed are left unchanged.",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completer.InterviewCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireAuth(cmd)
			if err != nil {
				return err
			}
			id, _, err := app.Names.ResolveInterview(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if in == (tracker.InterviewInput{}) {
				return output.ErrUsage("Nothing to update")
			}
			if err := normalizeDates(&in, time.Now()); err != nil {
				return err
			}

			iv, err := app.Tracker.UpdateInterview(cmd.Context(), id, in)
			if err != nil {
				return err
			}

			return app.OK(iv, output.WithSummary(fmt.Sprintf("Updated interview #%d", iv.ID)))
		},
	}

	interviewFlags(cmd, &in)
	return cmd
}

func newInterviewsDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:               "delete <id|company>",
		Short:             "Delete an interview",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completer.InterviewCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireAuth(cmd)
			if err != nil {
				return err
			}
			id, label, err := app.Names.ResolveInterview(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if !force {
				if !app.IsInteractive() {
					return output.ErrUsageHint("Refusing to delete without confirmation", "Pass --force")
				}
				what := fmt.Sprintf("interview #%d", id)
				if label != "" {
					what = fmt.Sprintf("%s (#%d)", label, id)
				}
				ok, err := tui.ConfirmDangerous(fmt.Sprintf("Delete %s and all its rounds?", what))
				if err != nil {
					return err
				}
				if !ok {
					return output.ErrUsage("Canceled")
				}
			}

			if err := app.Tracker.DeleteInterview(cmd.Context(), id); err != nil {
				return err
			}

			return app.OK(map[string]any{"id": id, "deleted": true},
				output.WithSummary(fmt.Sprintf("Deleted interview #%d", id)))
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")

	return cmd
}
