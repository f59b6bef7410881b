package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/interview-tracker/tracker-cli/internal/output"
)

// NewAPICmd creates the api command for raw API access.
func NewAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api <verb> <path>",
		Short: "Raw API access",
		Long: `Make raw requests to any tracker API endpoint. Requests go through the
same session as every other command: the token is attached and refreshed
automatically.

Examples:
  tracker api get /api/interviews/
  tracker api get /api/interviews/ --jq '.[].company_name'
  tracker api patch /api/interviews/4/ -d '{"status":"completed"}'`,
	}

	cmd.AddCommand(
		newAPIVerbCmd(http.MethodGet, false),
		newAPIVerbCmd(http.MethodPost, true),
		newAPIVerbCmd(http.MethodPut, true),
		newAPIVerbCmd(http.MethodPatch, true),
		newAPIVerbCmd(http.MethodDelete, false),
	)

	return cmd
}

func newAPIVerbCmd(method string, needsData bool) *cobra.Command {
	var data string
	var all bool

	verb := strings.ToLower(method)
	cmd := &cobra.Command{
		Use:   verb + " <path>",
		Short: method + " request to API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			path, err := parsePath(args[0], app.Config.BaseURL)
			if err != nil {
				return err
			}

			var body any
			if needsData {
				if data == "" {
					return output.ErrUsage("--data is required")
				}
				if body, err = parseJSONData(data); err != nil {
					return err
				}
			}

			if all && method == http.MethodGet {
				items, err := app.API.GetAll(cmd.Context(), path)
				if err != nil {
					return err
				}
				return app.OK(items, output.WithSummary(fmt.Sprintf("GET %s: %s", path, plural(len(items), "item"))))
			}

			resp, err := app.API.Do(cmd.Context(), method, path, body)
			if err != nil {
				return err
			}

			// 204 No Content
			payload := resp.Data
			if len(payload) == 0 {
				payload = json.RawMessage("{}")
			}

			return app.OK(payload,
				output.WithSummary(fmt.Sprintf("%s %s: %s", method, path, apiSummary(payload))),
				output.WithMeta("status", resp.StatusCode),
				output.WithMeta("request_id", resp.RequestID),
			)
		},
	}

	if needsData {
		cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body (required)")
		_ = cmd.MarkFlagRequired("data")
	}
	if method == http.MethodGet {
		cmd.Flags().BoolVar(&all, "all", false, "Follow pagination and return every item")
	}

	return cmd
}

// parsePath normalizes the API path. Full URLs are accepted only for the
// configured origin so a pasted link cannot send the token elsewhere.
func parsePath(input, baseURL string) (string, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", output.ErrUsage("Invalid URL: " + input)
		}
		base, err := url.Parse(baseURL)
		if err != nil || !strings.EqualFold(u.Host, base.Host) || u.Scheme != base.Scheme {
			return "", output.ErrUsageHint("URL is not on "+baseURL, "Pass a path like /api/interviews/")
		}
		path := u.EscapedPath()
		if u.RawQuery != "" {
			path += "?" + u.RawQuery
		}
		return path, nil
	}

	if !strings.HasPrefix(input, "/") {
		input = "/" + input
	}
	return input, nil
}

// apiSummary describes a JSON payload briefly.
func apiSummary(data json.RawMessage) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "response"
	}
	switch d := v.(type) {
	case []any:
		return plural(len(d), "item")
	case map[string]any:
		if results, ok := d["results"].([]any); ok {
			return plural(len(results), "item")
		}
		if id, ok := d["id"]; ok {
			return fmt.Sprintf("id %v", id)
		}
		return "object"
	default:
		return "value"
	}
}
