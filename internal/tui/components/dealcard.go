package components

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/aldema/pipeboard/internal/models"
)

// DealCardHeight is the fixed height of a deal card: three content lines
// plus the top and bottom border.
const DealCardHeight = 5

// DealCardProps selects the visual state of a single card.
type DealCardProps struct {
	Cursor   bool // the keyboard cursor rests on this card
	Marked   bool // part of the multi-select set
	Pending  bool // an optimistic mutation is still in flight
	Dragging bool // this card is the payload of an active drag

	// PendingFrame is the current spinner frame shown on pending cards.
	// Empty falls back to a static ellipsis.
	PendingFrame string
}

// RenderDeal renders a single deal as a card
//
//	┏━━━━━━━━━━━━━━━━━━━━━┓
//	┃ {Title}           ✓ ┃
//	┃ $12,500 · 40%       ┃
//	┃ Jane Doe │ Acme Inc ┃
//	┗━━━━━━━━━━━━━━━━━━━━━┛
//
// Width is the inner content width; the border adds two columns.
func RenderDeal(deal *models.Deal, width int, props DealCardProps) string {
	bg := scheme.DealBackground
	if props.Cursor {
		bg = scheme.SelectedBg
	}

	border := scheme.DealBorder
	switch {
	case props.Dragging:
		border = scheme.DraggingBorder
	case props.Cursor:
		border = scheme.SelectedBorder
	case props.Marked:
		border = scheme.Accent
	}

	title := renderDealTitle(deal, width, bg, props)
	meta := renderDealMeta(deal, width, bg, props)
	people := renderDealPeople(deal, width, bg)

	style := DealStyle.
		Width(width).
		BorderForeground(lipgloss.Color(border)).
		BorderBackground(lipgloss.Color(bg)).
		Background(lipgloss.Color(bg))

	return style.Render(title + "\n" + meta + "\n" + people)
}

func renderDealTitle(deal *models.Deal, width int, bg string, props DealCardProps) string {
	title := deal.Title
	suffix := ""
	if props.Marked {
		suffix = " ✓"
	}

	avail := width - lipgloss.Width(suffix)
	title = Truncate(title, avail)

	line := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(scheme.Normal)).
		Background(lipgloss.Color(bg)).
		Render(title)

	if suffix != "" {
		line += lipgloss.NewStyle().
			Foreground(lipgloss.Color(scheme.Accent)).
			Background(lipgloss.Color(bg)).
			Bold(true).
			Render(suffix)
	}
	return line
}

func renderDealMeta(deal *models.Deal, width int, bg string, props DealCardProps) string {
	parts := []string{FormatAmount(deal.Amount)}
	if deal.Probability > 0 {
		parts = append(parts, strconv.Itoa(deal.Probability)+"%")
	}
	if props.Pending {
		frame := props.PendingFrame
		if frame == "" {
			frame = "…"
		}
		parts = append(parts, frame)
	}

	statusColor := scheme.Subtle
	switch deal.Status {
	case models.StatusWon:
		statusColor = scheme.Won
		parts = append(parts, "won")
	case models.StatusLost:
		statusColor = scheme.Lost
		parts = append(parts, "lost")
	}

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(statusColor)).
		Background(lipgloss.Color(bg)).
		Render(Truncate(strings.Join(parts, " · "), width))
}

func renderDealPeople(deal *models.Deal, width int, bg string) string {
	var parts []string
	if deal.ContactName != "" {
		parts = append(parts, deal.ContactName)
	}
	if deal.OrgName != "" {
		parts = append(parts, deal.OrgName)
	}

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(scheme.Subtle)).
		Background(lipgloss.Color(bg)).
		Render(Truncate(strings.Join(parts, " │ "), width))
}

// FormatAmount renders an amount in cents as a dollar figure with
// thousands separators. Cents are dropped, deal values on a board
// do not need them.
func FormatAmount(cents int64) string {
	dollars := cents / 100
	negative := dollars < 0
	if negative {
		dollars = -dollars
	}

	digits := strconv.FormatInt(dollars, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "$" + b.String()
	if negative {
		out = "-" + out
	}
	return out
}

// Truncate cuts s to at most width cells, appending an ellipsis when
// something was cut. It measures in cells, not bytes, so multibyte runes
// survive; apply it before styling, it does not understand escape codes.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if width == 1 {
		return "…"
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
