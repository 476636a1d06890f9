package tui

import (
	tea "charm.land/bubbletea/v2"
)

// ============================================================================
// NOTIFICATION INBOX
// ============================================================================

// handleInboxMode handles keyboard input while the inbox panel is open.
func (m Model) handleInboxMode(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	km := m.keys
	all := m.inbox.All()

	switch msg.String() {
	case "esc", km.ToggleInbox, "q":
		m.mode = modeNormal
		return m, nil

	case km.NextDeal, "down":
		if m.inboxIdx < len(all)-1 {
			m.inboxIdx++
		}
		return m, nil

	case km.PrevDeal, "up":
		if m.inboxIdx > 0 {
			m.inboxIdx--
		}
		return m, nil

	case km.MarkRead:
		if m.inboxIdx < len(all) {
			n := all[m.inboxIdx]
			// Toggle: reading an unread entry, or unreading a read one.
			return m, m.markReadCmd(n.ID, !n.IsRead)
		}
		return m, nil

	case km.MarkAllRead:
		return m, m.markAllReadCmd()

	case km.ViewDeal:
		// Jump to the deal the notification refers to, if it is on the
		// board.
		if m.inboxIdx < len(all) && all[m.inboxIdx].DealID != "" {
			m.mode = modeNormal
			m.cursorTo(all[m.inboxIdx].DealID)
		}
		return m, nil
	}

	return m, nil
}

// ============================================================================
// DEAL DETAIL
// ============================================================================

// openDetail opens the full-card view of the current deal.
func (m Model) openDetail() (tea.Model, tea.Cmd) {
	deal := m.currentDeal()
	if deal == nil {
		return m, nil
	}
	m.detailID = deal.ID
	m.mode = modeDetail
	return m, nil
}

// handleDetailMode handles keyboard input while the detail view is open.
func (m Model) handleDetailMode(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", m.keys.ViewDeal:
		m.detailID = ""
		m.mode = modeNormal
	case m.keys.EditDeal:
		m.detailID = ""
		m.mode = modeNormal
		return m.openEditForm()
	}
	return m, nil
}
