package commands

import (
	"github.com/spf13/cobra"

	"github.com/interview-tracker/tracker-cli/internal/output"
)

// CommandInfo describes a CLI command.
type CommandInfo struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Actions     []string `json:"actions,omitempty"`
}

// CommandCategory groups commands by category.
type CommandCategory struct {
	Name     string        `json:"name"`
	Commands []CommandInfo `json:"commands"`
}

// commandCategories returns all command categories for the catalog.
func commandCategories() []CommandCategory {
	return []CommandCategory{
		{
			Name: "Tracking",
			Commands: []CommandInfo{
				{Name: "interviews", Category: "tracking", Description: "Manage interviews", Actions: []string{"list", "show", "create", "update", "delete"}},
				{Name: "rounds", Category: "tracking", Description: "Show interview rounds", Actions: []string{"list"}},
				{Name: "stats", Category: "tracking", Description: "Show dashboard statistics"},
				{Name: "dashboard", Category: "tracking", Description: "Show profile, statistics and upcoming interviews"},
				{Name: "profile", Category: "tracking", Description: "Show or update notification preferences", Actions: []string{"show", "update", "me"}},
			},
		},
		{
			Name: "Auth & Config",
			Commands: []CommandInfo{
				{Name: "auth", Category: "auth", Description: "Manage the signed-in session", Actions: []string{"login", "register", "logout", "status", "refresh", "token"}},
				{Name: "config", Category: "auth", Description: "Manage configuration", Actions: []string{"show", "set", "path"}},
				{Name: "doctor", Category: "auth", Description: "Check CLI health and diagnose issues"},
			},
		},
		{
			Name: "Additional Commands",
			Commands: []CommandInfo{
				{Name: "api", Category: "additional", Description: "Raw API access", Actions: []string{"get", "post", "put", "patch", "delete"}},
				{Name: "completion", Category: "additional", Description: "Generate shell completion scripts", Actions: []string{"bash", "zsh", "fish", "powershell", "refresh", "status"}},
				{Name: "commands", Category: "additional", Description: "List all commands"},
				{Name: "help", Category: "additional", Description: "Show help"},
				{Name: "version", Category: "additional", Description: "Show version"},
			},
		},
	}
}

// CatalogCommandNames returns all command names from the catalog.
func CatalogCommandNames() []string {
	var names []string
	for _, cat := range commandCategories() {
		for _, cmd := range cat.Commands {
			names = append(names, cmd.Name)
		}
	}
	return names
}

// NewCommandsCmd creates the commands listing command.
func NewCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "commands",
		Aliases: []string{"cmds"},
		Short:   "List all available commands",
		Long:    "List all available tracker commands organized by category.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			return app.OK(commandCategories(), output.WithSummary("All available tracker commands"))
		},
	}
}
