// Package report writes a loaded article as terminal text, JSON, YAML or an
// HTML dashboard.
package report

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatHTML = "html"

	// formatYMLAlias is accepted for FormatYAML.
	formatYMLAlias = "yml"
)

// ErrUnsupportedFormat indicates the requested output format is not supported.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Formats returns the canonical output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML, FormatHTML}
}

// NormalizeFormat canonicalizes a user-provided output format string.
func NormalizeFormat(format string) string {
	normalized := strings.ToLower(strings.TrimSpace(format))
	if normalized == formatYMLAlias {
		return FormatYAML
	}

	return normalized
}

// ValidateFormat returns the canonical name of format or ErrUnsupportedFormat.
func ValidateFormat(format string) (string, error) {
	normalized := NormalizeFormat(format)
	if slices.Contains(Formats(), normalized) {
		return normalized, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}
