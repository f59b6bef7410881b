package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/interview-tracker/tracker-cli/internal/config"
	"github.com/interview-tracker/tracker-cli/internal/output"
)

// NewConfigCmd creates the config command for managing configuration.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage tracker configuration.

Configuration is loaded from multiple sources with the following precedence:
  flags > env (TRACKER_*, .env) > local > global > system > defaults

Config locations:
  - System: /etc/tracker/config.yaml
  - Global: ~/.config/tracker/config.yaml
  - Local:  .tracker.yaml (base_url and public_paths are ignored here)`,
		RunE: runConfigShow,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show effective configuration",
			Long:  "Display the current effective configuration with source information.",
			Args:  cobra.NoArgs,
			RunE:  runConfigShow,
		},
		newConfigSetCmd(),
		&cobra.Command{
			Use:         "path",
			Short:       "Print the global config file path",
			Args:        cobra.NoArgs,
			Annotations: map[string]string{SkipSetupAnnotation: "true"},
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GlobalConfigPath())
				return err
			},
		},
	)

	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}

	configData := make(map[string]any)
	for _, key := range config.Keys() {
		value, _ := app.Config.Get(key)
		if value == "" {
			continue
		}
		source := app.Config.Sources[key]
		if source == "" {
			source = string(config.SourceDefault)
		}
		configData[key] = map[string]string{
			"value":  value,
			"source": source,
		}
	}

	return app.OK(configData,
		output.WithSummary("Effective configuration"),
		output.WithContext("global_path", config.GlobalConfigPath()),
	)
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a value in the global config file",
		Example: `  tracker config set base_url https://tracker.example.com
  tracker config set credential_store file
  tracker config set refresh_timeout 10s`,
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{SkipSetupAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := config.SetGlobal(key, value); err != nil {
				return output.ErrUsageHint(err.Error(), fmt.Sprintf("Valid keys: %v", config.Keys()))
			}

			// Runs without an app so a broken config can be repaired.
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, config.GlobalConfigPath())
			return err
		},
	}
}
