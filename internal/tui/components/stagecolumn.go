package components

import (
	"fmt"
	"strings"

	"github.com/aldema/pipeboard/internal/models"
)

// StageProps carries everything RenderStage needs beyond the stage data
// itself. Per-deal state lookups are passed as callbacks so the component
// stays free of store imports.
type StageProps struct {
	Selected     bool // this stage holds the keyboard cursor
	DropTarget   bool // an active drag hovers over this stage
	CursorIdx    int  // index of the deal under the cursor, -1 if none
	Width        int  // outer column width including border
	Height       int  // fixed column height (0 for auto)
	ScrollOffset int  // index of the first visible deal

	IsMarked     func(dealID string) bool
	IsPending    func(dealID string) bool
	DraggingID   string
	PendingFrame string
}

// RenderStage renders a complete pipeline stage with its header and deals
//
//	{Stage Name} (count) · $total
//	▲ more above        (when scrolled down)
//	{Deal 1}
//	{Deal 2}
//	▼ more below        (when more deals follow)
func RenderStage(stage *models.Stage, deals []*models.Deal, props StageProps) string {
	innerWidth := props.Width - 4 // border + padding on both sides
	if innerWidth < 8 {
		innerWidth = 8
	}

	var total int64
	for _, d := range deals {
		total += d.Amount
	}

	header := fmt.Sprintf("%s (%d)", stage.Name, len(deals))
	content := TitleStyle.Render(Truncate(header, innerWidth)) + "\n"
	content += SubtleStyle.Render(Truncate(FormatAmount(total), innerWidth)) + "\n"

	if len(deals) == 0 {
		content += EmptyStyle.Render("No deals")
	} else {
		// Column overhead: border (2) + header (2) + both indicators (2).
		const stageOverhead = 6
		availableHeight := props.Height - stageOverhead
		maxVisible := max(availableHeight/DealCardHeight, 1)

		if props.ScrollOffset > 0 {
			content += IndicatorStyle.Width(innerWidth).Render("▲ more above") + "\n"
		} else {
			content += "\n"
		}

		end := min(props.ScrollOffset+maxVisible, len(deals))
		start := min(props.ScrollOffset, end)
		for i, deal := range deals[start:end] {
			actual := start + i
			content += RenderDeal(deal, innerWidth-2, DealCardProps{
				Cursor:       props.Selected && actual == props.CursorIdx,
				Marked:       props.IsMarked != nil && props.IsMarked(deal.ID),
				Pending:      props.IsPending != nil && props.IsPending(deal.ID),
				Dragging:     props.DraggingID == deal.ID,
				PendingFrame: props.PendingFrame,
			}) + "\n"
		}

		if end < len(deals) {
			content += IndicatorStyle.Width(innerWidth).Render("▼ more below")
		}
	}

	style := StageStyle
	switch {
	case props.DropTarget:
		style = DropStageStyle
	case props.Selected:
		style = SelectedStageStyle
	}

	style = style.Width(props.Width - 2)
	if props.Height > 0 {
		style = style.Height(props.Height - 2)
	}
	return style.Render(strings.TrimRight(content, "\n"))
}

// StageContentWidth returns the inner card width for a column of the
// given outer width. Layout hit testing needs the same number the
// renderer uses.
func StageContentWidth(outer int) int {
	inner := outer - 4
	if inner < 8 {
		inner = 8
	}
	return inner
}

// VisibleDeals returns how many cards fit into a column of the given
// outer height.
func VisibleDeals(height int) int {
	const stageOverhead = 6
	return max((height-stageOverhead)/DealCardHeight, 1)
}
