// Package tui renders the pipeline board and routes input to the stores.
package tui

import (
	"context"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/aldema/pipeboard/internal/board"
	"github.com/aldema/pipeboard/internal/config"
	"github.com/aldema/pipeboard/internal/events"
	"github.com/aldema/pipeboard/internal/models"
	"github.com/aldema/pipeboard/internal/remote"
	"github.com/aldema/pipeboard/internal/store"
)

// mode is the current input mode of the application.
type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeForm
	modeConfirm
	modeDetail
	modeInbox
	modeHelp
)

// notice is a user-facing message shown in the banner line.
type notice struct {
	severity string // "info", "warning", "error"
	text     string
}

// NoticeFeed bridges the board controller's failure callbacks into the
// Bubble Tea message loop. Notify runs on background goroutines. Hand
// the same feed to board.NewController and NewModel.
type NoticeFeed struct {
	ch chan notice
}

// NewNoticeFeed returns a feed with room for a screenful of banners.
func NewNoticeFeed() *NoticeFeed {
	return &NoticeFeed{ch: make(chan notice, 16)}
}

// Notify implements board.Notifier.
func (f *NoticeFeed) Notify(severity remote.Severity, message string) {
	select {
	case f.ch <- notice{severity: bannerLevel(severity), text: message}:
	default:
		// A full feed means the user already has a screen of banners.
	}
}

// cardRect is one deal card's screen footprint, rebuilt on every layout
// pass and used to hit-test mouse clicks.
type cardRect struct {
	dealID  string
	stageID string
	bounds  board.Rect
}

// Model is the complete state of the TUI application.
type Model struct {
	ctx  context.Context
	cfg  *config.Config
	keys config.KeyMappings

	deals  *store.DealStore
	inbox  *store.NotificationStore
	ctrl   *board.Controller
	events <-chan events.Event
	feed   *NoticeFeed

	width  int
	height int
	mode   mode

	// Keyboard cursor over the filtered board view.
	stageIdx int
	dealIdx  int
	scroll   map[string]int // per-stage scroll offset

	search textinput.Model
	spin   spinner.Model

	form     *dealForm
	confirm  *confirmState
	detailID string
	inboxIdx int

	// The three most recent user-facing notices, rendered as a stack in
	// the top-right corner.
	banners []notice

	// Screen geometry from the last render, for mouse hit testing.
	cards      []cardRect
	stageWidth int
}

// NewModel wires the TUI to its stores and the push event channel.
// eventCh may be nil when the client starts offline.
func NewModel(ctx context.Context, cfg *config.Config, deals *store.DealStore, inbox *store.NotificationStore, ctrl *board.Controller, feed *NoticeFeed, eventCh <-chan events.Event) Model {
	search := textinput.New()
	search.Placeholder = "search deals"
	search.CharLimit = 120

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		ctx:    ctx,
		cfg:    cfg,
		keys:   cfg.KeyMappings,
		deals:  deals,
		inbox:  inbox,
		ctrl:   ctrl,
		events: eventCh,
		feed:   feed,
		scroll: make(map[string]int),
		search: search,
		spin:   spin,
	}
}

// Init kicks off the initial loads and starts pumping background
// channels into the update loop.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadBoardCmd(), m.loadInboxCmd(), m.waitNoticeCmd(), m.spin.Tick}
	if m.events != nil {
		cmds = append(cmds, m.waitEventCmd())
	}
	return tea.Batch(cmds...)
}

// ==== VIEW PROJECTION HELPERS ====

// visibleBoard returns the filtered projection the board renders from.
func (m Model) visibleBoard() (*models.Board, map[string][]*models.Deal) {
	b := m.deals.BoardSnapshot()
	return b, board.Filter(b, m.deals.Query())
}

// currentStage returns the stage under the cursor, or nil before load.
func (m Model) currentStage() *models.Stage {
	b := m.deals.BoardSnapshot()
	if m.stageIdx < 0 || m.stageIdx >= len(b.Stages) {
		return nil
	}
	return b.Stages[m.stageIdx]
}

// currentDeal returns the deal under the cursor in the filtered view.
func (m Model) currentDeal() *models.Deal {
	stage := m.currentStage()
	if stage == nil {
		return nil
	}
	_, filtered := m.visibleBoard()
	deals := filtered[stage.ID]
	if m.dealIdx < 0 || m.dealIdx >= len(deals) {
		return nil
	}
	return deals[m.dealIdx]
}

// clampCursor keeps the cursor inside the filtered view after the board
// or the query changed underneath it.
func (m *Model) clampCursor() {
	b, filtered := m.visibleBoard()
	if len(b.Stages) == 0 {
		m.stageIdx, m.dealIdx = 0, 0
		return
	}
	if m.stageIdx >= len(b.Stages) {
		m.stageIdx = len(b.Stages) - 1
	}
	if m.stageIdx < 0 {
		m.stageIdx = 0
	}
	deals := filtered[b.Stages[m.stageIdx].ID]
	if m.dealIdx >= len(deals) {
		m.dealIdx = len(deals) - 1
	}
	if m.dealIdx < 0 {
		m.dealIdx = 0
	}
	m.ensureCursorVisible()
}

// ensureCursorVisible adjusts the stage scroll offset so the cursor row
// stays on screen.
func (m *Model) ensureCursorVisible() {
	stage := m.currentStage()
	if stage == nil {
		return
	}
	visible := m.visibleCardCount()
	offset := m.scroll[stage.ID]
	if m.dealIdx < offset {
		offset = m.dealIdx
	}
	if m.dealIdx >= offset+visible {
		offset = m.dealIdx - visible + 1
	}
	if offset < 0 {
		offset = 0
	}
	m.scroll[stage.ID] = offset
}

func (m Model) setBanner(severity, text string) Model {
	m.banners = appendNotice(m.banners, notice{severity: severity, text: text})
	return m
}

func (m Model) clearBanner() Model {
	m.banners = nil
	return m
}

// appendNotice keeps the three most recent notices.
func appendNotice(stack []notice, n notice) []notice {
	stack = append(stack, n)
	if len(stack) > 3 {
		stack = stack[len(stack)-3:]
	}
	return stack
}
