package components

import (
	"strings"

	"charm.land/lipgloss/v2"
)

type StatusBarProps struct {
	Width int
	Left  string
	Right string
}

// RenderStatusBar renders a status bar with left and right aligned text.
func RenderStatusBar(props StatusBarProps) string {
	left := StatusBarStyle.Render(props.Left)
	right := StatusBarStyle.Render(props.Right)

	gapWidth := props.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gapWidth < 1 {
		gapWidth = 1
	}
	gap := strings.Repeat(" ", gapWidth)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, gap, right)
}

// RenderBanner renders a one-line notification banner for the given
// severity ("info", "warning" or anything else, treated as error).
func RenderBanner(severity, text string) string {
	switch severity {
	case "info":
		return InfoBannerStyle.Render(text)
	case "warning":
		return WarningBannerStyle.Render(text)
	default:
		return ErrorBannerStyle.Render(text)
	}
}
