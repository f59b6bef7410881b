package commands

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/interview-tracker/tracker-cli/internal/output"
	"github.com/interview-tracker/tracker-cli/internal/tracker"
)

var reminderTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// NewProfileCmd creates the profile command group.
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update notification preferences",
		RunE:  runProfileShow,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show notification preferences",
			Args:  cobra.NoArgs,
			RunE:  runProfileShow,
		},
		newProfileUpdateCmd(),
		newMeCmd(),
	)

	return cmd
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	app, err := requireAuth(cmd)
	if err != nil {
		return err
	}

	p, err := app.Tracker.Profile(cmd.Context())
	if err != nil {
		return err
	}

	summary := "Email reminders off"
	if p.EmailNotificationsEnabled {
		summary = fmt.Sprintf("Email reminders %s before", plural(p.ReminderDaysBefore, "day"))
	}
	return app.OK(p, output.WithSummary(summary))
}

func newProfileUpdateCmd() *cobra.Command {
	var notifications bool
	var days int
	var at string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update notification preferences",
		Example: `  tracker profile update --notifications=false
  tracker profile update --reminder-days 2 --reminder-time 08:30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireAuth(cmd)
			if err != nil {
				return err
			}

			var upd tracker.ProfileUpdate
			if cmd.Flags().Changed("notifications") {
				upd.EmailNotificationsEnabled = &notifications
			}
			if cmd.Flags().Changed("reminder-days") {
				if days < 1 || days > 7 {
					return output.ErrUsage("--reminder-days must be between 1 and 7")
				}
				upd.ReminderDaysBefore = &days
			}
			if cmd.Flags().Changed("reminder-time") {
				if !reminderTimePattern.MatchString(at) {
					return output.ErrUsageHint("Invalid --reminder-time: "+at, "Use HH:MM")
				}
				upd.ReminderTime = &at
			}
			if upd == (tracker.ProfileUpdate{}) {
				return output.ErrUsage("Nothing to update")
			}

			p, err := app.Tracker.UpdateProfile(cmd.Context(), upd)
			if err != nil {
				return err
			}
			return app.OK(p, output.WithSummary("Profile updated"))
		},
	}

	cmd.Flags().BoolVar(&notifications, "notifications", true, "Enable email reminders")
	cmd.Flags().IntVar(&days, "reminder-days", 1, "Days before an interview to send a reminder (1-7)")
	cmd.Flags().StringVar(&at, "reminder-time", "", "Time of day to send reminders (HH:MM)")

	return cmd
}

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireAuth(cmd)
			if err != nil {
				return err
			}

			u, err := app.Tracker.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			return app.OK(u, output.WithSummary(fmt.Sprintf("%s <%s>", u.Username, u.Email)))
		},
	}
}
