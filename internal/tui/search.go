package tui

import (
	tea "charm.land/bubbletea/v2"
)

// ============================================================================
// SEARCH MODE HANDLERS
// ============================================================================

// enterSearch opens the search prompt, seeded with the active query so a
// running filter can be refined.
func (m Model) enterSearch() (tea.Model, tea.Cmd) {
	m.mode = modeSearch
	m.search.SetValue(m.deals.Query())
	return m, m.search.Focus()
}

// handleSearchMode handles keyboard input in search mode. Every keystroke
// updates the filter immediately, the view narrows as the user types.
func (m Model) handleSearchMode(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.confirmSearch()
	case "esc":
		return m.cancelSearch()
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.deals.SetQuery(m.search.Value())
	m.clampCursor()
	m.relayout()
	return m, cmd
}

// confirmSearch keeps the filter active and returns to normal mode.
func (m Model) confirmSearch() (tea.Model, tea.Cmd) {
	m.mode = modeNormal
	m.search.Blur()
	return m, nil
}

// cancelSearch clears the filter entirely. All deals show again.
func (m Model) cancelSearch() (tea.Model, tea.Cmd) {
	m.mode = modeNormal
	m.search.Blur()
	m.search.SetValue("")
	m.deals.SetQuery("")
	m.clampCursor()
	m.relayout()
	return m, nil
}
