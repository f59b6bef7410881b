package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/interview-tracker/tracker-cli/internal/appctx"
	"github.com/interview-tracker/tracker-cli/internal/output"
)

// SkipSetupAnnotation marks commands that run without loading config or
// building an app.
const SkipSetupAnnotation = "tracker/skip-setup"

// appFrom returns the app stored on the command context.
func appFrom(cmd *cobra.Command) (*appctx.App, error) {
	app := appctx.FromContext(cmd.Context())
	if app == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return app, nil
}

// requireAuth returns the app, failing fast when nothing is stored so the
// user gets a login hint instead of a session-ended error.
func requireAuth(cmd *cobra.Command) (*appctx.App, error) {
	app, err := appFrom(cmd)
	if err != nil {
		return nil, err
	}
	if !app.Auth.IsAuthenticated() {
		return nil, output.ErrAuth("Not authenticated")
	}
	return app, nil
}

// parseJSONData validates a --data argument.
func parseJSONData(data string) (json.RawMessage, error) {
	if !json.Valid([]byte(data)) {
		var v any
		err := json.Unmarshal([]byte(data), &v)
		return nil, output.ErrUsageHint("Invalid JSON data", fmt.Sprintf("JSON parse error: %v", err))
	}
	return json.RawMessage(data), nil
}

// readSecret reads one line from r, without the trailing newline.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// plural returns "n thing" or "n things".
func plural(n int, thing string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", thing)
	}
	return fmt.Sprintf("%d %ss", n, thing)
}
