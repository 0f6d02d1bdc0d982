package plotpage

import (
	"errors"
	"fmt"
	"strings"
)

// Theme represents a color theme for visualizations.
type Theme string

const (
	// ThemeLight is the light color theme.
	ThemeLight Theme = "light"
	// ThemeDark is the dark color theme.
	ThemeDark Theme = "dark"
)

// ErrUnknownTheme is returned by ParseTheme for names other than light and dark.
var ErrUnknownTheme = errors.New("unknown theme")

// ParseTheme maps a case-insensitive theme name to a Theme.
func ParseTheme(name string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(name))) {
	case ThemeDark:
		return ThemeDark, nil
	case ThemeLight:
		return ThemeLight, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
}

// ThemeConfig holds the theme-specific styling values.
type ThemeConfig struct {
	Background  string
	Surface     string
	Border      string
	TextPrimary string
	TextMuted   string
	Accent      string

	ChartBackground string
	ChartGrid       string
	ChartAxis       string
	ChartText       string
	ChartTextMuted  string

	// HeatmapRange runs from the "no edits" colour to the busiest day.
	HeatmapRange []string

	// Palette colours pie slices and multi-series charts.
	Palette []string
}

// GetThemeConfig returns the configuration for a given theme.
// Unknown themes fall back to light.
func GetThemeConfig(theme Theme) ThemeConfig {
	if theme == ThemeDark {
		return darkTheme
	}

	return lightTheme
}

// Slate neutrals with the Wikimedia blue as accent.
var lightTheme = ThemeConfig{
	Background:  "#f8fafc", // slate-50.
	Surface:     "#ffffff",
	Border:      "#e2e8f0", // slate-200.
	TextPrimary: "#0f172a", // slate-900.
	TextMuted:   "#64748b", // slate-500.
	Accent:      "#3366cc",

	ChartBackground: "transparent",
	ChartGrid:       "#e2e8f0",
	ChartAxis:       "#94a3b8", // slate-400.
	ChartText:       "#334155", // slate-700.
	ChartTextMuted:  "#64748b",

	HeatmapRange: []string{"#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39"},
	Palette: []string{
		"#3366cc", "#dc3912", "#ff9900", "#109618", "#990099",
		"#0099c6", "#dd4477", "#66aa00", "#b82e2e", "#316395",
	},
}

var darkTheme = ThemeConfig{
	Background:  "#020617", // slate-950.
	Surface:     "#0f172a", // slate-900.
	Border:      "#1e293b", // slate-800.
	TextPrimary: "#f8fafc",
	TextMuted:   "#94a3b8",
	Accent:      "#6b9bff",

	ChartBackground: "transparent",
	ChartGrid:       "#1e293b",
	ChartAxis:       "#475569", // slate-600.
	ChartText:       "#cbd5e1", // slate-300.
	ChartTextMuted:  "#94a3b8",

	HeatmapRange: []string{"#161b22", "#0e4429", "#006d32", "#26a641", "#39d353"},
	Palette: []string{
		"#6b9bff", "#ff7a59", "#ffc94d", "#4cd97b", "#d17bff",
		"#4dd4ff", "#ff79a8", "#a6e05c", "#ff6b6b", "#7aa7ff",
	},
}
