package tui

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
)

// ============================================================================
// CONFIRMATION DIALOGS
// ============================================================================

// confirmState is a pending yes/no question with the command to run on
// confirmation.
type confirmState struct {
	prompt string
	action tea.Cmd
}

// confirmDelete asks before deleting the current deal. Deletion is the
// one mutation that does not roll back, so it always confirms.
func (m Model) confirmDelete() (tea.Model, tea.Cmd) {
	deal := m.currentDeal()
	if deal == nil {
		return m, nil
	}
	m.confirm = &confirmState{
		prompt: fmt.Sprintf("Delete %q?", deal.Title),
		action: m.deleteDealCmd(deal.ID),
	}
	m.mode = modeConfirm
	return m, nil
}

// confirmBulkDelete asks before deleting the whole selection.
func (m Model) confirmBulkDelete() (tea.Model, tea.Cmd) {
	ids := m.deals.Selected()
	if len(ids) == 0 {
		return m.setBanner("info", "nothing selected"), nil
	}
	m.confirm = &confirmState{
		prompt: fmt.Sprintf("Delete %d selected deals?", len(ids)),
		action: m.bulkDeleteCmd(ids),
	}
	m.mode = modeConfirm
	return m, nil
}

// handleConfirmMode handles keyboard input while a confirmation is open.
func (m Model) handleConfirmMode(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	c := m.confirm
	m.confirm = nil
	m.mode = modeNormal
	if c == nil {
		return m, nil
	}

	switch msg.String() {
	case "y", "Y", "enter":
		return m, c.action
	default:
		return m, nil
	}
}
