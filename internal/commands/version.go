package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/interview-tracker/tracker-cli/internal/version"
)

// NewVersionCmd creates the version command. It runs without an app so it
// works with a broken config.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{SkipSetupAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return err
		},
	}
}
