package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-tracker/tracker-cli/internal/output"
)

func TestTransformCobraError(t *testing.T) {
	tests := []struct {
		in       string
		wantMsg  string
		wantCode string
	}{
		{"flag needs an argument: --data", "--data requires a value", output.CodeUsage},
		{"unknown flag: --nope", "Unknown option: --nope", output.CodeUsage},
		{"unknown shorthand flag: 'z' in -z", "Unknown option: -z", output.CodeUsage},
		{`required flag(s) "data" not set`, "--data required", output.CodeUsage},
		{"accepts 1 arg(s), received 0", "accepts 1 arg(s), received 0", output.CodeUsage},
		{`invalid argument "x" for "-v, --verbose" flag`, `invalid argument "x" for "-v, --verbose" flag`, output.CodeUsage},
		{`unknown command "nope" for "tracker"`, `unknown command "nope" for "tracker"`, output.CodeUsage},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			e := output.AsError(transformCobraError(errors.New(tt.in)))
			assert.Equal(t, tt.wantMsg, e.Message)
			assert.Equal(t, tt.wantCode, e.Code)
		})
	}
}

func TestTransformCobraErrorKeepsStructuredErrors(t *testing.T) {
	orig := output.ErrNotFound("Interview", "invalid argument 7")
	assert.Same(t, orig, transformCobraError(orig))

	plain := errors.New("boom")
	assert.Equal(t, plain, transformCobraError(plain))
}

func TestNeedsSetup(t *testing.T) {
	root := NewRootCmd()
	root.InitDefaultHelpCmd()

	find := func(args ...string) *cobra.Command {
		cmd, _, err := root.Find(args)
		require.NoError(t, err)
		return cmd
	}

	assert.True(t, needsSetup(find("stats")))
	assert.True(t, needsSetup(find("auth", "login")))
	assert.True(t, needsSetup(find("config", "show")))
	assert.False(t, needsSetup(find("version")))
	assert.False(t, needsSetup(find("config", "set")))
	assert.False(t, needsSetup(find("config", "path")))
	assert.False(t, needsSetup(find("help")))
	assert.False(t, needsSetup(find("completion", "bash")))
	assert.True(t, needsSetup(find("completion", "refresh")))
}

func TestUnderscoreFlagsAreNormalized(t *testing.T) {
	root := NewRootCmd()
	require.NoError(t, root.PersistentFlags().Parse([]string{"--ids_only", "--base_url", "localhost:8000"}))

	idsOnly, err := root.PersistentFlags().GetBool("ids-only")
	require.NoError(t, err)
	assert.True(t, idsOnly)
	assert.Equal(t, "localhost:8000", root.PersistentFlags().Lookup("base-url").Value.String())
}

func TestFallbackFormat(t *testing.T) {
	tests := []struct {
		args []string
		want output.Format
	}{
		{nil, output.FormatAuto},
		{[]string{"--json"}, output.FormatJSON},
		{[]string{"--quiet", "--json"}, output.FormatQuiet},
		{[]string{"--ids-only", "--count"}, output.FormatIDs},
		{[]string{"--styled"}, output.FormatStyled},
	}

	for _, tt := range tests {
		root := NewRootCmd()
		require.NoError(t, root.PersistentFlags().Parse(tt.args))
		assert.Equal(t, tt.want, fallbackFormat(root), "%v", tt.args)
	}
}

func TestRunSetupErrorWithoutApp(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TRACKER_BASE_URL", "http://tracker.example.com")

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})

	code := Run(context.Background(), root, []string{"stats", "--json"})
	assert.Equal(t, output.ExitUsage, code)

	var env map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &env))
	assert.Equal(t, false, env["ok"])
	assert.Equal(t, output.CodeUsage, env["code"])
	assert.Contains(t, env["error"], "base_url")
}

func TestRunHelpSkipsSetup(t *testing.T) {
	t.Setenv("TRACKER_CREDENTIAL_STORE", "floppy")

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)

	assert.Equal(t, 0, Run(context.Background(), root, []string{"--help"}))
	assert.Contains(t, out.String(), "interviews")
}
