// Package components provides reusable UI components and styles.
// Call InitStyles() before use to initialize all style variables.
package components

import (
	"charm.land/lipgloss/v2"

	"github.com/aldema/pipeboard/internal/config"
)

// scheme holds the active color scheme so individual renderers can pick
// colors that are not baked into a precomputed style.
var scheme config.ColorScheme

// These are cached to avoid recomputing on every redraw.
var (
	// TitleStyle defines the appearance of titles (stage headers, app header)
	TitleStyle lipgloss.Style

	// StageStyle defines the appearance of pipeline stage columns
	StageStyle lipgloss.Style

	// SelectedStageStyle highlights the stage holding the cursor
	SelectedStageStyle lipgloss.Style

	// DropStageStyle highlights the stage a drag currently hovers over
	DropStageStyle lipgloss.Style

	// DealStyle defines the appearance of individual deals as cards
	DealStyle lipgloss.Style

	// EmptyStyle defines the placeholder text of an empty stage
	EmptyStyle lipgloss.Style

	// IndicatorStyle defines the appearance of scroll indicators
	IndicatorStyle lipgloss.Style

	// SubtleStyle defines muted helper text
	SubtleStyle lipgloss.Style

	// FormBoxStyle defines the base style for deal forms
	FormBoxStyle lipgloss.Style

	// ConfirmBoxStyle defines the base style for deletion confirmations
	ConfirmBoxStyle lipgloss.Style

	// HelpBoxStyle defines the base style for the help screen
	HelpBoxStyle lipgloss.Style

	// DetailBoxStyle defines the base style for the deal detail overlay
	DetailBoxStyle lipgloss.Style

	// InboxBoxStyle defines the base style for the notification panel
	InboxBoxStyle lipgloss.Style

	// InfoBannerStyle defines the appearance of info notifications
	InfoBannerStyle lipgloss.Style

	// WarningBannerStyle defines the appearance of warning notifications
	WarningBannerStyle lipgloss.Style

	// ErrorBannerStyle defines the appearance of error messages
	ErrorBannerStyle lipgloss.Style

	// StatusBarStyle defines the base style for the status bar
	StatusBarStyle lipgloss.Style

	// SearchPromptStyle defines the search input prompt in the status bar
	SearchPromptStyle lipgloss.Style
)

// InitStyles initializes all styles with the given color scheme
func InitStyles(colors config.ColorScheme) {
	scheme = colors

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.Title))

	StageStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colors.StageBorder)).
		PaddingLeft(1).
		PaddingRight(1)

	SelectedStageStyle = StageStyle.
		BorderForeground(lipgloss.Color(colors.Accent))

	DropStageStyle = StageStyle.
		BorderForeground(lipgloss.Color(colors.DraggingBorder))

	DealStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(lipgloss.Color(colors.DealBorder)).
		BorderBackground(lipgloss.Color(colors.DealBackground)).
		Background(lipgloss.Color(colors.DealBackground)).
		Padding(0)

	EmptyStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Subtle)).
		Italic(true).
		Padding(1, 0)

	IndicatorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Subtle)).
		Align(lipgloss.Center)

	SubtleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Subtle))

	FormBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colors.Accent)).
		Padding(1, 2)

	ConfirmBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colors.Lost)).
		Padding(1)

	HelpBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colors.StageBorder)).
		Padding(1, 2)

	DetailBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colors.Accent)).
		Padding(1, 2)

	InboxBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colors.StageBorder)).
		Padding(1, 2)

	InfoBannerStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.InfoFg)).
		Background(lipgloss.Color(colors.InfoBg)).
		Bold(true).
		Padding(0, 1)

	WarningBannerStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.WarningFg)).
		Background(lipgloss.Color(colors.WarningBg)).
		Bold(true).
		Padding(0, 1)

	ErrorBannerStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.ErrorFg)).
		Background(lipgloss.Color(colors.ErrorBg)).
		Bold(true).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Subtle))

	SearchPromptStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Accent)).
		Bold(true)
}
