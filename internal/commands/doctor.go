package commands

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/interview-tracker/tracker-cli/internal/appctx"
	"github.com/interview-tracker/tracker-cli/internal/auth"
	"github.com/interview-tracker/tracker-cli/internal/output"
	"github.com/interview-tracker/tracker-cli/internal/version"
)

// Check represents a single diagnostic check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "pass", "fail", "skip", "warn"
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// DoctorResult holds the complete diagnostic results.
type DoctorResult struct {
	Checks  []Check `json:"checks"`
	Passed  int     `json:"passed"`
	Failed  int     `json:"failed"`
	Warned  int     `json:"warned"`
	Skipped int     `json:"skipped"`
}

// Summary returns a human-readable summary of the results.
func (r *DoctorResult) Summary() string {
	if r.Failed == 0 && r.Warned == 0 && r.Passed > 0 {
		if r.Skipped > 0 {
			return fmt.Sprintf("All %d checks passed, %d skipped", r.Passed, r.Skipped)
		}
		return fmt.Sprintf("All %d checks passed", r.Passed)
	}
	parts := []string{}
	if r.Passed > 0 {
		parts = append(parts, fmt.Sprintf("%d passed", r.Passed))
	}
	if r.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", r.Failed))
	}
	if r.Warned > 0 {
		parts = append(parts, plural(r.Warned, "warning"))
	}
	if r.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", r.Skipped))
	}
	return strings.Join(parts, ", ")
}

// NewDoctorCmd creates the doctor command.
func NewDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check CLI health and diagnose issues",
		Long: `Run diagnostic checks on configuration, stored credentials and API access.

The doctor command checks:
  - Configuration validity
  - Stored credentials and where they live
  - Access token expiry
  - API access (refreshing the session if needed)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			result := summarizeChecks(runDoctorChecks(cmd.Context(), app, time.Now()))

			if app.Output.EffectiveFormat() == output.FormatStyled {
				renderDoctorStyled(cmd.OutOrStdout(), result)
				return nil
			}
			return app.OK(result, output.WithSummary(result.Summary()))
		},
	}
}

func runDoctorChecks(ctx context.Context, app *appctx.App, now time.Time) []Check {
	checks := []Check{
		{Name: "Version", Status: "pass", Message: fmt.Sprintf("%s (%s %s/%s)", version.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)},
		checkConfig(app),
	}

	cred := checkCredentials(app)
	checks = append(checks, cred)
	if cred.Status != "pass" {
		return append(checks,
			Check{Name: "Access Token", Status: "skip", Message: "Skipped (no credentials)"},
			Check{Name: "API Access", Status: "skip", Message: "Skipped (no credentials)"},
		)
	}

	checks = append(checks, checkAccessToken(app, now))
	return append(checks, checkAPIAccess(ctx, app))
}

func checkConfig(app *appctx.App) Check {
	if err := app.Config.Validate(); err != nil {
		return Check{Name: "Configuration", Status: "fail", Message: err.Error(), Hint: "Run: tracker config show"}
	}
	return Check{Name: "Configuration", Status: "pass", Message: fmt.Sprintf("%s (store: %s)", app.Config.BaseURL, app.Config.CredentialStore)}
}

func checkCredentials(app *appctx.App) Check {
	if _, ok := app.Auth.Store().Refresh(); !ok {
		return Check{
			Name:    "Credentials",
			Status:  "fail",
			Message: "No saved session for " + app.Auth.Store().Origin(),
			Hint:    "Run: tracker auth login",
		}
	}
	return Check{Name: "Credentials", Status: "pass", Message: "Refresh token stored"}
}

func checkAccessToken(app *appctx.App, now time.Time) Check {
	access, ok := app.Auth.Store().Access()
	if !ok {
		return Check{Name: "Access Token", Status: "warn", Message: "Missing; it will be refreshed on the next request"}
	}
	info, err := auth.InspectToken(access)
	if err != nil || info.ExpiresAt.IsZero() {
		return Check{Name: "Access Token", Status: "pass", Message: "Present (expiry unknown)"}
	}
	if info.Expired(now) {
		return Check{
			Name:    "Access Token",
			Status:  "warn",
			Message: "Expired at " + info.ExpiresAt.Local().Format(time.DateTime),
			Hint:    "It will be refreshed on the next request",
		}
	}
	return Check{Name: "Access Token", Status: "pass", Message: "Valid for " + info.ExpiresAt.Sub(now).Round(time.Second).String()}
}

func checkAPIAccess(ctx context.Context, app *appctx.App) Check {
	u, err := app.Tracker.CurrentUser(ctx)
	if err != nil {
		e := output.AsError(err)
		return Check{Name: "API Access", Status: "fail", Message: e.Message, Hint: e.Hint}
	}
	return Check{Name: "API Access", Status: "pass", Message: "Signed in as " + u.Username}
}

func summarizeChecks(checks []Check) *DoctorResult {
	result := &DoctorResult{Checks: checks}
	for _, c := range checks {
		switch c.Status {
		case "pass":
			result.Passed++
		case "fail":
			result.Failed++
		case "warn":
			result.Warned++
		case "skip":
			result.Skipped++
		}
	}
	return result
}

// renderDoctorStyled outputs a human-friendly styled format for TTY.
func renderDoctorStyled(w io.Writer, result *DoctorResult) {
	r := output.NewRenderer(w, false)
	nameStyle := lipgloss.NewStyle().Bold(true)

	icons := map[string]string{
		"pass": r.Success.Render("✓"),
		"fail": r.Error.Render("✗"),
		"warn": r.Warning.Render("!"),
		"skip": r.Muted.Render("○"),
	}
	styles := map[string]lipgloss.Style{
		"pass": r.Success,
		"fail": r.Error,
		"warn": r.Warning,
		"skip": r.Muted,
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Summary.Render("Tracker CLI Doctor"))
	fmt.Fprintln(w)

	for _, check := range result.Checks {
		fmt.Fprintf(w, "  %s %s %s\n", icons[check.Status], nameStyle.Render(check.Name), styles[check.Status].Render(check.Message))
		if check.Hint != "" && (check.Status == "fail" || check.Status == "warn") {
			fmt.Fprintf(w, "      %s\n", r.Hint.Render("↳ "+check.Hint))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n\n", result.Summary())
}
