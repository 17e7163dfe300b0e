// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette for CLI output, tuned for dark terminal backgrounds.
const (
	// ColorPrimary is purple - titles and primary emphasis.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray - subtitles and de-emphasized content.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green - the all-clear result.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red - ERROR findings.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber - WARNING findings.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue - check names and file references.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for primary headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for the all-clear line.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error findings and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning findings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CheckStyle is for check names.
	CheckStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)
