package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/interview-tracker/tracker-cli/internal/appctx"
	"github.com/interview-tracker/tracker-cli/internal/commands"
	"github.com/interview-tracker/tracker-cli/internal/config"
	"github.com/interview-tracker/tracker-cli/internal/hostutil"
	"github.com/interview-tracker/tracker-cli/internal/output"
	"github.com/interview-tracker/tracker-cli/internal/version"
)

// NewRootCmd creates the root cobra command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags
	var format string

	cmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Command-line interface for the interview tracker",
		Long:          "tracker keeps your job applications, interviews and rounds in one place.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsSetup(cmd) {
				return nil
			}

			cfg, err := config.Load(config.FlagOverrides{
				BaseURL:         hostutil.Normalize(flags.BaseURL),
				CredentialStore: flags.Store,
				Format:          format,
			})
			if err != nil {
				return output.ErrUsageHint(err.Error(), "Run: tracker config set <key> <value>")
			}

			app, err := appctx.NewApp(cfg)
			if err != nil {
				return err
			}
			app.Stdout = cmd.OutOrStdout()
			app.Stderr = cmd.ErrOrStderr()
			app.Flags = flags
			app.ApplyFlags()

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}
	cmd.SetVersionTemplate("{{.Name}} version {{.Version}}\n")

	// Accept --ids_only as --ids-only, on every subcommand.
	cmd.SetGlobalNormalizationFunc(normalizeFlagName)

	// Allow flags anywhere in the command line
	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)

	// Output format flags
	cmd.PersistentFlags().BoolVarP(&flags.JSON, "json", "j", false, "Output as JSON")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Output data only, no envelope")
	cmd.PersistentFlags().BoolVar(&flags.Styled, "styled", false, "Force styled output (ANSI colors)")
	cmd.PersistentFlags().BoolVar(&flags.IDsOnly, "ids-only", false, "Output only IDs")
	cmd.PersistentFlags().BoolVar(&flags.Count, "count", false, "Output only count")
	cmd.PersistentFlags().StringVar(&flags.JQ, "jq", "", "Filter response data with a jq expression")
	cmd.PersistentFlags().StringVar(&format, "format", "", "Output format (auto, json, styled, quiet, ids, count)")

	// Connection flags
	cmd.PersistentFlags().StringVar(&flags.BaseURL, "base-url", "", "Tracker server URL (e.g., localhost:8000, tracker.example.com)")
	cmd.PersistentFlags().StringVar(&flags.Store, "store", "", "Credential store (auto, keyring, file, memory, redis)")

	// Behavior flags
	cmd.PersistentFlags().CountVarP(&flags.Verbose, "verbose", "v", "Verbose output (-v for refresh events, -vv for requests)")
	cmd.PersistentFlags().BoolVar(&flags.Stats, "stats", false, "Show session statistics")

	cmd.AddCommand(
		commands.NewAuthCmd(),
		commands.NewInterviewsCmd(),
		commands.NewRoundsCmd(),
		commands.NewStatsCmd(),
		commands.NewDashboardCmd(),
		commands.NewProfileCmd(),
		commands.NewAPICmd(),
		commands.NewConfigCmd(),
		commands.NewDoctorCmd(),
		commands.NewCommandsCmd(),
		commands.NewCompletionCmd(),
		commands.NewVersionCmd(),
	)

	return cmd
}

func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// needsSetup reports whether cmd needs config and an app.
func needsSetup(cmd *cobra.Command) bool {
	if cmd.Name() == "help" || cmd.Annotations[commands.SkipSetupAnnotation] != "" {
		return false
	}
	// cobra's generated completion commands
	if strings.HasPrefix(cmd.Name(), cobra.ShellCompRequestCmd) {
		return false
	}
	return true
}

// Execute runs the root command and exits with the error's exit code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := Run(ctx, NewRootCmd(), os.Args[1:])
	stop()
	os.Exit(code)
}

// Run executes root with args and returns the process exit code. Errors are
// rendered to the root's output writer.
func Run(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)

	// Use ExecuteC to get the executed command (for correct context access)
	executedCmd, err := root.ExecuteContextC(ctx)

	var app *appctx.App
	if executedCmd != nil {
		app = appctx.FromContext(executedCmd.Context())
	}
	if app != nil {
		defer func() { _ = app.Close() }()
	}

	if err == nil {
		return 0
	}

	err = transformCobraError(err)
	apiErr := output.AsError(err)

	if app != nil {
		_ = app.Err(err)
		return apiErr.ExitCode()
	}

	// No app (setup failed or a flag error): pick the format from flags.
	writer := output.New(output.Options{
		Format: fallbackFormat(root),
		Writer: root.OutOrStdout(),
	})
	_ = writer.Err(err)
	return apiErr.ExitCode()
}

func fallbackFormat(root *cobra.Command) output.Format {
	pf := root.PersistentFlags()
	quiet, _ := pf.GetBool("quiet")
	idsOnly, _ := pf.GetBool("ids-only")
	count, _ := pf.GetBool("count")
	jsonFlag, _ := pf.GetBool("json")
	styled, _ := pf.GetBool("styled")

	switch {
	case idsOnly:
		return output.FormatIDs
	case count:
		return output.FormatCount
	case quiet:
		return output.FormatQuiet
	case jsonFlag:
		return output.FormatJSON
	case styled:
		return output.FormatStyled
	}
	return output.FormatAuto
}

var (
	shorthandFlagRe = regexp.MustCompile(`unknown shorthand flag: '.' in (-\w)`)
	requiredFlagRe  = regexp.MustCompile(`required flag\(s\) "([\w-]+)"`)
)

// transformCobraError turns cobra's parse errors into usage errors.
func transformCobraError(err error) error {
	var e *output.Error
	if errors.As(err, &e) {
		return err
	}
	msg := err.Error()

	switch {
	case strings.HasPrefix(msg, "flag needs an argument: "):
		return output.ErrUsage(strings.TrimPrefix(msg, "flag needs an argument: ") + " requires a value")
	case strings.HasPrefix(msg, "unknown flag: "):
		return output.ErrUsage("Unknown option: " + strings.TrimPrefix(msg, "unknown flag: "))
	case strings.HasPrefix(msg, "unknown shorthand flag: "):
		if m := shorthandFlagRe.FindStringSubmatch(msg); len(m) > 1 {
			return output.ErrUsage("Unknown option: " + m[1])
		}
		return output.ErrUsage(msg)
	case strings.HasPrefix(msg, "unknown command "):
		return output.ErrUsageHint(msg, "Run: tracker commands")
	case strings.Contains(msg, "invalid argument"):
		return output.ErrUsage(msg)
	case strings.Contains(msg, "arg(s), received"):
		return output.ErrUsage(msg)
	case strings.HasPrefix(msg, "required flag(s) "):
		if m := requiredFlagRe.FindStringSubmatch(msg); len(m) > 1 {
			return output.ErrUsage("--" + m[1] + " required")
		}
		return output.ErrUsage(msg)
	}

	return err
}
