// Package commands implements the CLI commands.
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/interview-tracker/tracker-cli/internal/auth"
	"github.com/interview-tracker/tracker-cli/internal/output"
	"github.com/interview-tracker/tracker-cli/internal/tui"
)

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  "Manage tracker authentication including login, registration, logout, and status.",
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthRegisterCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
		newAuthRefreshCmd(),
		newAuthTokenCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var username string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to tracker",
		Long: `Sign in with a username and password. The access and refresh tokens are
saved to the configured credential store.

Without a terminal, pass the username as a flag and the password on stdin:
  echo "$TRACKER_PASSWORD" | tracker auth login --username ada --password-stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			form := tui.LoginForm{Username: username}
			if passwordStdin {
				if form.Password, err = readSecret(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}
			if form.Username == "" || form.Password == "" {
				if !app.IsInteractive() {
					return output.ErrUsageHint("Username and password required", "Use --username with --password-stdin")
				}
				if err := tui.PromptLogin(&form); err != nil {
					return err
				}
			}

			user, err := app.Auth.Login(cmd.Context(), form.Username, form.Password)
			if err != nil {
				return err
			}

			data := map[string]any{"status": "logged_in", "username": form.Username}
			if user != nil {
				data["user"] = user
				if user.Username != "" {
					data["username"] = user.Username
				}
			}
			return app.OK(data, output.WithSummary(fmt.Sprintf("Logged in as %s", data["username"])))
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}

func newAuthRegisterCmd() *cobra.Command {
	var username, email string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a tracker account",
		Long: `Create an account. When the server does not require email verification
the new session is saved immediately.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			form := tui.RegisterForm{Username: username, Email: email}
			if passwordStdin {
				if form.Password, err = readSecret(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				form.Password2 = form.Password
			}
			if form.Username == "" || form.Email == "" || form.Password == "" {
				if !app.IsInteractive() {
					return output.ErrUsageHint("Username, email and password required", "Use --username, --email and --password-stdin")
				}
				if err := tui.PromptRegister(&form); err != nil {
					return err
				}
			}

			loggedIn, err := app.Auth.Register(cmd.Context(), auth.RegisterRequest{
				Username:  form.Username,
				Email:     form.Email,
				Password1: form.Password,
				Password2: form.Password2,
			})
			if err != nil {
				return err
			}

			if !loggedIn {
				return app.OK(map[string]any{
					"status":    "registered",
					"username":  form.Username,
					"logged_in": false,
				}, output.WithSummary("Account created. Verify your email, then run: tracker auth login"))
			}
			return app.OK(map[string]any{
				"status":    "registered",
				"username":  form.Username,
				"logged_in": true,
			}, output.WithSummary(fmt.Sprintf("Account created. Logged in as %s", form.Username)))
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove stored credentials",
		Long:  "Revoke the refresh token on the server and remove stored credentials for the current origin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if err := app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			_ = completer.Store(cmd).Clear()

			return app.OK(map[string]string{
				"status": "logged_out",
			}, output.WithSummary("Successfully logged out"))
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long:  "Display the current authentication status and access token details.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			store := app.Auth.Store()
			status := map[string]any{
				"authenticated":    app.Auth.IsAuthenticated(),
				"origin":           store.Origin(),
				"credential_store": app.Config.CredentialStore,
			}
			if !app.Auth.IsAuthenticated() {
				return app.OK(status, output.WithSummary("Not authenticated"))
			}

			_, hasRefresh := store.Refresh()
			status["refresh_token"] = hasRefresh

			summary := "Authenticated"
			if access, ok := store.Access(); ok {
				if info, err := auth.InspectToken(access); err == nil {
					if info.UserID != "" {
						status["user_id"] = info.UserID
					}
					if !info.ExpiresAt.IsZero() {
						expiresIn := time.Until(info.ExpiresAt).Round(time.Second)
						status["expires_at"] = info.ExpiresAt.UTC().Format(time.RFC3339)
						status["expires_in"] = expiresIn.String()
						status["expired"] = info.Expired(time.Now())
						if info.Expired(time.Now()) {
							summary += " (access token expired; it will be refreshed on next use)"
						}
					}
				}
			}

			return app.OK(status, output.WithSummary(summary))
		},
	}
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the access token",
		Long:  "Force a refresh of the access token using the stored refresh token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireAuth(cmd)
			if err != nil {
				return err
			}

			if err := app.Auth.Refresh(cmd.Context()); err != nil {
				if auth.IsSessionEnded(err) {
					return output.ErrSessionEnded(err)
				}
				return err
			}

			return app.OK(map[string]string{
				"status": "refreshed",
			}, output.WithSummary("Token refreshed successfully"))
		},
	}
}

func newAuthTokenCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print the access token",
		Long: `Print the current access token to stdout for use with other tools.

Examples:
  curl -H "Authorization: Bearer $(tracker auth token)" ...
  tracker auth token --refresh   # refresh first
  tracker auth token --json      # JSON envelope with token in data field`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireAuth(cmd)
			if err != nil {
				return err
			}

			if refresh {
				if err := app.Auth.Refresh(cmd.Context()); err != nil {
					if auth.IsSessionEnded(err) {
						return output.ErrSessionEnded(err)
					}
					return err
				}
			}

			token, ok := app.Auth.Store().Access()
			if !ok {
				return output.ErrAuthHint("No access token stored", "Run: tracker auth refresh")
			}

			// Raw output by default for shell substitution.
			if app.Flags.JSON {
				return app.OK(map[string]string{"token": token})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh the token before printing it")

	return cmd
}
