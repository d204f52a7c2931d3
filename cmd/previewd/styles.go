// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette - shared hex colors for consistent theming across all CLI output.
// These colors are designed for dark terminal backgrounds with good contrast.
const (
	// ColorPrimary is purple - used for titles, headers, and primary emphasis.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray - used for subtitles, secondary text, and de-emphasized content.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green - used for success states and healthy previews.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red - used for errors, failures, and crashed previews.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber - used for warnings and paused previews.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue - used for URLs, commands, and interactive elements.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

// Base styles - reusable lipgloss styles built from the color palette.
var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages and running previews.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning messages and paused previews.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// URLStyle is for preview URLs and other interactive elements.
	URLStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// headerStyle is for table column headers.
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorMuted)
)

// statusStyle picks the style matching a preview status string.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "running":
		return SuccessStyle
	case "paused":
		return WarningStyle
	case "error", "stopped":
		return ErrorStyle
	default:
		return SubtitleStyle
	}
}
