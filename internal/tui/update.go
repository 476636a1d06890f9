package tui

import (
	"log/slog"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/aldema/pipeboard/internal/events"
	"github.com/aldema/pipeboard/internal/models"
)

// Update handles all messages and updates the model.
// This implements the "Update" part of the Model-View-Update pattern.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.relayout()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.MouseClickMsg:
		return m.handleMouseDown(msg.Mouse())

	case tea.MouseMotionMsg:
		return m.handleMouseMove(msg.Mouse())

	case tea.MouseReleaseMsg:
		return m.handleMouseUp()

	case boardLoadedMsg:
		if msg.err != nil {
			slog.Error("board load failed", "error", msg.err)
			return m.setBanner("error", "could not load the board"), nil
		}
		m.clampCursor()
		m.relayout()
		return m, nil

	case inboxLoadedMsg:
		if msg.err != nil {
			slog.Warn("inbox load failed", "error", msg.err)
		}
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			m.banners = appendNotice(m.banners, failureBanner(msg.action, msg.err))
		} else if n, ok := bulkBanner(msg.action, msg.result); ok {
			m.banners = appendNotice(m.banners, n)
		}
		m.clampCursor()
		m.relayout()
		return m, nil

	case eventMsg:
		m.applyEvent(msg.event)
		m.clampCursor()
		m.relayout()
		return m, m.waitEventCmd()

	case eventsClosedMsg:
		return m.setBanner("warning", "live updates disconnected"), nil

	case noticeMsg:
		m.banners = appendNotice(m.banners, notice(msg))
		return m, m.waitNoticeCmd()
	}

	// Search mode owns the text input, forward everything else to it.
	if m.mode == modeSearch {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey dispatches key events by mode.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchMode(msg)
	case modeForm:
		return m.handleFormMode(msg)
	case modeConfirm:
		return m.handleConfirmMode(msg)
	case modeDetail:
		return m.handleDetailMode(msg)
	case modeInbox:
		return m.handleInboxMode(msg)
	case modeHelp:
		return m.handleHelpMode(msg)
	default:
		return m.handleNormalMode(msg)
	}
}

// applyEvent routes one pushed server event into the stores.
func (m *Model) applyEvent(ev events.Event) {
	switch ev.Type {
	case events.TypeDealCreated, events.TypeDealUpdated, events.TypeDealMoved:
		if deal := ev.Deal.ToModel(); deal != nil {
			m.deals.ApplyDealUpsert(deal)
		}
	case events.TypeDealDeleted:
		if ev.Deal != nil {
			m.deals.ApplyDealDelete(ev.Deal.ID)
		}
	case events.TypeNotificationCreated:
		if n := ev.Notification.ToModel(); n != nil {
			m.inbox.Prepend(n)
		}
	case events.TypeNotificationRead:
		if ev.Notification != nil {
			m.inbox.ApplyReadEvent(ev.Notification.ID, ev.Notification.IsRead)
		}
	default:
		slog.Debug("ignoring unknown event type", "type", ev.Type)
	}
}

// ============================================================================
// NORMAL MODE HANDLERS
// ============================================================================

// handleNormalMode dispatches key events in normal mode.
func (m Model) handleNormalMode(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	m = m.clearBanner()

	key := msg.String()
	if key == "space" {
		key = " "
	}
	km := m.keys

	switch key {
	case km.Quit, "ctrl+c":
		return m, tea.Quit
	case km.ShowHelp:
		m.mode = modeHelp
		return m, nil
	case km.PrevStage, "left":
		return m.moveCursorStage(-1), nil
	case km.NextStage, "right":
		return m.moveCursorStage(1), nil
	case km.PrevDeal, "up":
		return m.moveCursorDeal(-1), nil
	case km.NextDeal, "down":
		return m.moveCursorDeal(1), nil
	case km.MoveDealRight:
		return m.moveDeal(1)
	case km.MoveDealLeft:
		return m.moveDeal(-1)
	case km.AddDeal:
		return m.openCreateForm()
	case km.EditDeal:
		return m.openEditForm()
	case km.ViewDeal:
		return m.openDetail()
	case km.DeleteDeal:
		return m.confirmDelete()
	case km.ToggleSelect:
		return m.toggleSelect(), nil
	case km.BulkMarkWon:
		return m.bulkStatus(models.StatusWon)
	case km.BulkMarkLost:
		return m.bulkStatus(models.StatusLost)
	case km.BulkDelete:
		return m.confirmBulkDelete()
	case km.ClearSelection:
		m.deals.ClearSelection()
		return m, nil
	case km.StartSearch:
		return m.enterSearch()
	case km.ToggleInbox:
		m.mode = modeInbox
		m.inboxIdx = 0
		return m, nil
	case km.Refresh:
		return m, tea.Batch(m.loadBoardCmd(), m.loadInboxCmd())
	}

	return m, nil
}

// moveCursorStage moves the cursor horizontally, clamped at the edges.
func (m Model) moveCursorStage(dir int) Model {
	b, filtered := m.visibleBoard()
	next := m.stageIdx + dir
	if next < 0 || next >= len(b.Stages) {
		return m
	}
	m.stageIdx = next
	if n := len(filtered[b.Stages[next].ID]); m.dealIdx >= n {
		m.dealIdx = max(n-1, 0)
	}
	m.ensureCursorVisible()
	return m
}

// moveCursorDeal moves the cursor vertically inside the current stage.
func (m Model) moveCursorDeal(dir int) Model {
	stage := m.currentStage()
	if stage == nil {
		return m
	}
	_, filtered := m.visibleBoard()
	n := len(filtered[stage.ID])
	next := m.dealIdx + dir
	if next < 0 || next >= n {
		return m
	}
	m.dealIdx = next
	m.ensureCursorVisible()
	return m
}

// moveDeal asks the controller to move the current deal one stage over.
// The optimistic move lands synchronously, persistence runs behind it.
func (m Model) moveDeal(dir int) (tea.Model, tea.Cmd) {
	deal := m.currentDeal()
	if deal == nil {
		return m, nil
	}
	if dir > 0 {
		m.ctrl.MoveRight(deal.ID)
	} else {
		m.ctrl.MoveLeft(deal.ID)
	}
	m.stageIdx = m.stageIndexOf(deal.ID)
	m.clampCursor()
	m.relayout()
	return m, nil
}

// stageIndexOf returns the index of the stage currently holding the deal,
// falling back to the cursor's stage.
func (m Model) stageIndexOf(dealID string) int {
	b := m.deals.BoardSnapshot()
	_, stageID, _, err := b.Find(dealID)
	if err != nil {
		return m.stageIdx
	}
	for i, s := range b.Stages {
		if s.ID == stageID {
			return i
		}
	}
	return m.stageIdx
}

// toggleSelect flips the current deal in and out of the selection set.
func (m Model) toggleSelect() Model {
	if deal := m.currentDeal(); deal != nil {
		m.deals.ToggleSelect(deal.ID)
	}
	return m
}

// bulkStatus marks every selected deal won or lost.
func (m Model) bulkStatus(status models.DealStatus) (tea.Model, tea.Cmd) {
	ids := m.deals.Selected()
	if len(ids) == 0 {
		return m.setBanner("info", "nothing selected"), nil
	}
	return m, m.bulkStatusCmd(ids, status)
}

// ============================================================================
// MOUSE HANDLERS
// ============================================================================

// handleMouseDown arms a drag on the card under the pointer and moves the
// cursor there.
func (m Model) handleMouseDown(mouse tea.Mouse) (tea.Model, tea.Cmd) {
	if m.mode != modeNormal || mouse.Button != tea.MouseLeft {
		return m, nil
	}
	for _, card := range m.cards {
		if card.bounds.Contains(mouse.X, mouse.Y) {
			m.ctrl.DragStart(card.dealID, card.stageID, mouse.X, mouse.Y)
			m.cursorTo(card.dealID)
			return m, nil
		}
	}
	return m, nil
}

func (m Model) handleMouseMove(mouse tea.Mouse) (tea.Model, tea.Cmd) {
	if m.mode != modeNormal {
		return m, nil
	}
	m.ctrl.DragMove(mouse.X, mouse.Y)
	return m, nil
}

func (m Model) handleMouseUp() (tea.Model, tea.Cmd) {
	if m.mode != modeNormal {
		return m, nil
	}
	m.ctrl.DragEnd()
	m.clampCursor()
	m.relayout()
	return m, nil
}

// cursorTo places the keyboard cursor on the given deal in the filtered
// view, if it is visible.
func (m *Model) cursorTo(dealID string) {
	b, filtered := m.visibleBoard()
	for si, stage := range b.Stages {
		for di, deal := range filtered[stage.ID] {
			if deal.ID == dealID {
				m.stageIdx = si
				m.dealIdx = di
				m.ensureCursorVisible()
				return
			}
		}
	}
}

// ============================================================================
// HELP MODE
// ============================================================================

func (m Model) handleHelpMode(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", m.keys.ShowHelp:
		m.mode = modeNormal
	}
	return m, nil
}
