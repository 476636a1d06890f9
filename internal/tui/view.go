package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/aldema/pipeboard/internal/tui/components"
)

// View renders the current state of the application.
// This implements the "View" part of the Model-View-Update pattern.
func (m Model) View() tea.View {
	var view tea.View
	view.AltScreen = true
	view.MouseMode = tea.MouseModeCellMotion

	if m.width == 0 {
		view.Content = "Loading..."
		return view
	}

	layers := []*lipgloss.Layer{lipgloss.NewLayer(m.viewBoard())}

	var modal string
	switch m.mode {
	case modeForm:
		modal = m.viewForm()
	case modeConfirm:
		modal = m.viewConfirm()
	case modeDetail:
		modal = m.viewDetail()
	case modeInbox:
		modal = m.viewInbox()
	case modeHelp:
		modal = m.viewHelp()
	}
	if modal != "" {
		layers = append(layers, centeredLayer(modal, m.width, m.height))
	}
	if len(m.banners) > 0 {
		layers = append(layers, m.noticeLayer())
	}

	view.Content = lipgloss.NewCanvas(layers...).Render()
	return view
}

// noticeLayer stacks the recent banners in the top-right corner, most
// recent at the bottom.
func (m Model) noticeLayer() *lipgloss.Layer {
	lines := make([]string, 0, len(m.banners))
	for _, n := range m.banners {
		lines = append(lines, components.RenderBanner(n.severity, n.text))
	}
	content := lipgloss.JoinVertical(lipgloss.Right, lines...)
	x := max(m.width-lipgloss.Width(content)-1, 0)
	return lipgloss.NewLayer(content).X(x).Y(headerRows)
}

// centeredLayer positions content at the center of the screen.
func centeredLayer(content string, screenWidth, screenHeight int) *lipgloss.Layer {
	x := max((screenWidth-lipgloss.Width(content))/2, 0)
	y := max((screenHeight-lipgloss.Height(content))/2, 0)
	return lipgloss.NewLayer(content).X(x).Y(y)
}

// ============================================================================
// BOARD
// ============================================================================

// viewBoard renders the header line, the stage columns and the status bar.
func (m Model) viewBoard() string {
	b, filtered := m.visibleBoard()

	header := m.viewHeader()

	engine := m.ctrl.Engine()
	columns := make([]string, 0, len(b.Stages))
	for i, stage := range b.Stages {
		deals := filtered[stage.ID]
		columns = append(columns, components.RenderStage(stage, deals, components.StageProps{
			Selected:     i == m.stageIdx,
			DropTarget:   engine.HoveredStage() == stage.ID,
			CursorIdx:    m.cursorIdxFor(i),
			Width:        m.stageWidth,
			Height:       m.boardHeight(),
			ScrollOffset: m.scroll[stage.ID],
			IsMarked:     m.deals.IsSelected,
			IsPending:    m.deals.HasPending,
			DraggingID:   engine.DraggedDeal(),
			PendingFrame: m.spin.View(),
		}))
	}

	boardRow := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	if len(columns) == 0 {
		boardRow = components.EmptyStyle.Render("No pipeline loaded")
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, boardRow, m.viewStatusBar())
}

func (m Model) cursorIdxFor(stageIdx int) int {
	if stageIdx != m.stageIdx {
		return -1
	}
	return m.dealIdx
}

// viewHeader renders the top line: app title, deal counts, the live
// search prompt or active filter, and the unread badge on the right.
func (m Model) viewHeader() string {
	title := components.TitleStyle.Render("Pipeboard")
	if m.deals.Loading() {
		title += " " + m.spin.View()
	}

	counts := components.SubtleStyle.Render(
		fmt.Sprintf(" %d/%d deals", m.deals.BoardSnapshot().DealCount(), m.deals.TotalCount()))

	var tail string
	switch {
	case m.mode == modeSearch:
		tail = components.SearchPromptStyle.Render(" /") + m.search.View()
	case m.deals.Query() != "":
		tail = components.SearchPromptStyle.Render(" filter: " + m.deals.Query())
	}

	line := title + counts + tail
	if unread := m.inbox.UnreadCount(); unread > 0 {
		badge := components.SearchPromptStyle.Render(fmt.Sprintf("● %d unread", unread))
		gap := m.width - lipgloss.Width(line) - lipgloss.Width(badge) - 1
		if gap > 0 {
			line += strings.Repeat(" ", gap) + badge
		}
	}
	return line
}

func (m Model) viewStatusBar() string {
	sel := ""
	if n := m.deals.SelectedCount(); n > 0 {
		sel = fmt.Sprintf("%d selected · ", n)
	}
	return components.RenderStatusBar(components.StatusBarProps{
		Width: m.width,
		Left:  "Pipeboard - Deal Pipeline",
		Right: sel + "press ? for help",
	})
}

// ============================================================================
// MODALS
// ============================================================================

func (m Model) viewForm() string {
	f := m.form
	if f == nil {
		return ""
	}

	title := "New Deal"
	if f.editingID != "" {
		title = "Edit Deal"
	}

	var b strings.Builder
	b.WriteString(components.TitleStyle.Render(title) + "\n\n")
	for i := range f.inputs {
		label := fieldLabels[i]
		if i == f.focus {
			b.WriteString(components.SearchPromptStyle.Render("▸ "+label) + "\n")
		} else {
			b.WriteString(components.SubtleStyle.Render("  "+label) + "\n")
		}
		b.WriteString("  " + f.inputs[i].View() + "\n")
	}
	if f.err != "" {
		b.WriteString("\n" + components.RenderBanner("error", f.err))
	}
	b.WriteString("\n" + components.SubtleStyle.Render("tab: next field  "+m.keys.SaveForm+": save  esc: cancel"))

	return components.FormBoxStyle.Width(min(m.width*3/4, 70)).Render(b.String())
}

func (m Model) viewConfirm() string {
	if m.confirm == nil {
		return ""
	}
	content := m.confirm.prompt + "\n\n" +
		components.SubtleStyle.Render("y: confirm  n: cancel")
	return components.ConfirmBoxStyle.Render(content)
}

func (m Model) viewDetail() string {
	deal, err := m.deals.Deal(m.detailID)
	if err != nil {
		return components.DetailBoxStyle.Render("This deal is gone.")
	}

	width := min(m.width*3/4, 80)
	inner := width - 6

	var b strings.Builder
	b.WriteString(components.TitleStyle.Render(deal.Title) + "\n\n")
	b.WriteString(fmt.Sprintf("%s · %s · %d%%\n",
		components.FormatAmount(deal.Amount), deal.StageName, deal.Probability))

	var people []string
	if deal.ContactName != "" {
		people = append(people, deal.ContactName)
	}
	if deal.OrgName != "" {
		people = append(people, deal.OrgName)
	}
	if deal.OwnerName != "" {
		people = append(people, "owner: "+deal.OwnerName)
	}
	if len(people) > 0 {
		b.WriteString(components.SubtleStyle.Render(strings.Join(people, " │ ")) + "\n")
	}
	if !deal.ExpectedClose.IsZero() {
		b.WriteString(components.SubtleStyle.Render("expected close: "+deal.ExpectedClose.Format("2006-01-02")) + "\n")
	}

	b.WriteString("\n" + components.RenderMarkdown(deal.Description, inner))
	b.WriteString("\n\n" + components.SubtleStyle.Render("e: edit  esc: close"))

	return components.DetailBoxStyle.Width(width).Render(b.String())
}

func (m Model) viewInbox() string {
	all := m.inbox.All()
	width := min(m.width*2/3, 70)
	inner := width - 6

	var b strings.Builder
	b.WriteString(components.TitleStyle.Render(fmt.Sprintf("Notifications (%d unread)", m.inbox.UnreadCount())) + "\n\n")

	if len(all) == 0 {
		b.WriteString(components.EmptyStyle.Render("Nothing here"))
	}

	visible := max(m.height-10, 3)
	start := 0
	if m.inboxIdx >= visible {
		start = m.inboxIdx - visible + 1
	}
	for i := start; i < len(all) && i < start+visible; i++ {
		n := all[i]
		marker := "  "
		if !n.IsRead {
			marker = "● "
		}
		stamp := n.CreatedAt.Format("Jan 2 15:04")
		// Prefix, marker, gap and timestamp around the message text.
		avail := inner - 2 - 2 - 2 - lipgloss.Width(stamp)
		line := marker + components.Truncate(n.Message, avail) + "  " +
			components.SubtleStyle.Render(stamp)
		if i == m.inboxIdx {
			line = components.SearchPromptStyle.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + components.SubtleStyle.Render(
		m.keys.MarkRead+": toggle read  "+m.keys.MarkAllRead+": mark all  enter: go to deal  esc: close"))

	return components.InboxBoxStyle.Width(width).Render(b.String())
}

func (m Model) viewHelp() string {
	km := m.keys
	rows := [][2]string{
		{km.PrevStage + "/" + km.NextStage, "move between stages"},
		{km.PrevDeal + "/" + km.NextDeal, "move between deals"},
		{km.MoveDealLeft + "/" + km.MoveDealRight, "move deal to adjacent stage"},
		{km.AddDeal, "add deal"},
		{km.EditDeal, "edit deal"},
		{km.ViewDeal, "view deal"},
		{km.DeleteDeal, "delete deal"},
		{"space", "toggle selection"},
		{km.BulkMarkWon, "mark selection won"},
		{km.BulkMarkLost, "mark selection lost"},
		{km.BulkDelete, "delete selection"},
		{km.ClearSelection, "clear selection"},
		{km.StartSearch, "search"},
		{km.ToggleInbox, "notifications"},
		{km.Refresh, "refresh"},
		{km.Quit, "quit"},
	}

	var b strings.Builder
	b.WriteString(components.TitleStyle.Render("Keys") + "\n\n")
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("%12s  %s\n", row[0], row[1]))
	}

	return components.HelpBoxStyle.Render(b.String())
}
