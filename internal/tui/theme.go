package tui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Theme is the color palette for styled output. Colors are hex strings;
// an empty color means no styling.
type Theme struct {
	Primary    string
	Secondary  string
	Success    string
	Warning    string
	Error      string
	Muted      string
	Foreground string
}

// DefaultTheme returns the default tracker palette.
func DefaultTheme() Theme {
	return Theme{
		Primary:    "#7aa2f7",
		Secondary:  "#a9b1d6",
		Success:    "#9ece6a",
		Warning:    "#e0af68",
		Error:      "#f7768e",
		Muted:      "#737aa2",
		Foreground: "#c0caf5",
	}
}

// NoColorTheme returns a theme with empty colors (honors NO_COLOR).
func NoColorTheme() Theme {
	return Theme{}
}

// ResolveTheme loads a theme with the following precedence:
//  1. NO_COLOR env var set → NoColorTheme
//  2. TRACKER_THEME env var → colors.toml at that path
//  3. User theme at $XDG_CONFIG_HOME/tracker/theme/colors.toml
//  4. DefaultTheme
//
// The theme directory may be a symlink to a system theme.
func ResolveTheme() Theme {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return NoColorTheme()
	}

	if path := os.Getenv("TRACKER_THEME"); path != "" {
		if theme, err := LoadThemeFromFile(path); err == nil {
			return theme
		}
	}

	if theme, err := LoadUserTheme(); err == nil {
		return theme
	}

	return DefaultTheme()
}

// LoadUserTheme loads the theme from the user's tracker config directory.
func LoadUserTheme() (Theme, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Theme{}, err
		}
		configDir = filepath.Join(home, ".config")
	}
	return LoadThemeFromFile(filepath.Join(configDir, "tracker", "theme", "colors.toml"))
}

// LoadThemeFromFile parses a colors.toml file and returns a Theme.
func LoadThemeFromFile(path string) (Theme, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path from trusted config
	if err != nil {
		return Theme{}, err
	}

	colors, err := parseColors(data)
	if err != nil {
		return Theme{}, err
	}
	return mapColorsToTheme(colors), nil
}

// parseColors returns the top-level string keys of a TOML document that
// hold hex colors. Other keys are ignored.
func parseColors(data []byte) (map[string]string, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	colors := make(map[string]string)
	for k, v := range doc {
		if s, ok := v.(string); ok && isValidHexColor(s) {
			colors[k] = s
		}
	}
	return colors, nil
}

// isValidHexColor checks if a string is a valid hex color (#RGB or #RRGGBB).
func isValidHexColor(s string) bool {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 3 && len(hex) != 6) {
		return false
	}
	for _, c := range hex {
		isDigit := c >= '0' && c <= '9'
		isLower := c >= 'a' && c <= 'f'
		isUpper := c >= 'A' && c <= 'F'
		if !isDigit && !isLower && !isUpper {
			return false
		}
	}
	return true
}

// mapColorsToTheme maps terminal theme color names to Theme semantics:
//
//	accent, color4 → Primary
//	color7         → Secondary
//	color2         → Success
//	color3         → Warning
//	color1         → Error
//	color8, color0 → Muted
//	foreground     → Foreground
//
// Missing colors fall back to DefaultTheme.
func mapColorsToTheme(colors map[string]string) Theme {
	defaults := DefaultTheme()

	get := func(fallback string, keys ...string) string {
		for _, k := range keys {
			if v, ok := colors[k]; ok {
				return v
			}
		}
		return fallback
	}

	return Theme{
		Primary:    get(defaults.Primary, "accent", "color4"),
		Secondary:  get(defaults.Secondary, "color7"),
		Success:    get(defaults.Success, "color2"),
		Warning:    get(defaults.Warning, "color3"),
		Error:      get(defaults.Error, "color1"),
		Muted:      get(defaults.Muted, "color8", "color0"),
		Foreground: get(defaults.Foreground, "foreground"),
	}
}
