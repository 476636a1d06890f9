package tui

import (
	"github.com/aldema/pipeboard/internal/board"
	"github.com/aldema/pipeboard/internal/tui/components"
)

const (
	maxStageWidth = 42
	minStageWidth = 22

	// headerRows is the title line above the board, statusRows the bar
	// below it. The board columns fill everything in between.
	headerRows = 1
	statusRows = 1
)

// boardHeight returns the row count available to stage columns.
func (m Model) boardHeight() int {
	return max(m.height-headerRows-statusRows, components.DealCardHeight+7)
}

// visibleCardCount returns how many cards fit in one column.
func (m Model) visibleCardCount() int {
	return components.VisibleDeals(m.boardHeight())
}

// relayout recomputes the screen geometry: the column width, the drop
// targets handed to the gesture engine, and the card rectangles used for
// mouse hit testing. Call after anything that changes the board, the
// filter, the scroll offsets or the window size.
func (m *Model) relayout() {
	b, filtered := m.visibleBoard()
	if m.width == 0 || len(b.Stages) == 0 {
		m.cards = nil
		m.stageWidth = 0
		m.ctrl.Engine().SetTargets(nil)
		return
	}

	w := m.width / len(b.Stages)
	if w > maxStageWidth {
		w = maxStageWidth
	}
	if w < minStageWidth {
		w = minStageWidth
	}
	m.stageWidth = w

	height := m.boardHeight()
	visible := components.VisibleDeals(height)
	innerWidth := components.StageContentWidth(w)

	targets := make([]board.DropTarget, 0, len(b.Stages))
	m.cards = m.cards[:0]

	for i, stage := range b.Stages {
		x := i * w
		targets = append(targets, board.DropTarget{
			StageID: stage.ID,
			Bounds:  board.Rect{X: x, Y: headerRows, Width: w, Height: height},
		})

		// Cards start below the border, the two header lines and the
		// scroll indicator line.
		deals := filtered[stage.ID]
		offset := m.scroll[stage.ID]
		if offset > len(deals) {
			offset = len(deals)
		}
		end := min(offset+visible, len(deals))
		cardY := headerRows + 4
		for _, deal := range deals[offset:end] {
			m.cards = append(m.cards, cardRect{
				dealID:  deal.ID,
				stageID: stage.ID,
				bounds: board.Rect{
					X:      x + 2,
					Y:      cardY,
					Width:  innerWidth,
					Height: components.DealCardHeight,
				},
			})
			cardY += components.DealCardHeight
		}
	}

	m.ctrl.Engine().SetTargets(targets)
}
