package tui

import (
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/aldema/pipeboard/internal/events"
	"github.com/aldema/pipeboard/internal/models"
	"github.com/aldema/pipeboard/internal/remote"
)

// ============================================================================
// MESSAGES
// ============================================================================

// boardLoadedMsg reports the result of the initial or a refresh load.
type boardLoadedMsg struct {
	err error
}

// inboxLoadedMsg reports the result of loading the notification inbox.
type inboxLoadedMsg struct {
	err error
}

// mutationDoneMsg reports a completed store mutation started from a key
// handler. action names the operation for the banner; bulk operations also
// carry the server's result so partial failures reach the user.
type mutationDoneMsg struct {
	action string
	result *remote.BulkResult
	err    error
}

// eventMsg wraps one pushed server event.
type eventMsg struct {
	event events.Event
}

// eventsClosedMsg signals that the push channel shut down for good.
type eventsClosedMsg struct{}

// noticeMsg carries a banner from a background goroutine.
type noticeMsg notice

// ============================================================================
// COMMANDS
// ============================================================================

func (m Model) loadBoardCmd() tea.Cmd {
	deals := m.deals
	ctx := m.ctx
	return func() tea.Msg {
		return boardLoadedMsg{err: deals.Load(ctx)}
	}
}

func (m Model) loadInboxCmd() tea.Cmd {
	inbox := m.inbox
	ctx := m.ctx
	return func() tea.Msg {
		return inboxLoadedMsg{err: inbox.Load(ctx)}
	}
}

func (m Model) createDealCmd(draft models.DealDraft) tea.Cmd {
	deals := m.deals
	ctx := m.ctx
	return func() tea.Msg {
		_, err := deals.Create(ctx, draft)
		return mutationDoneMsg{action: "create deal", err: err}
	}
}

func (m Model) updateDealCmd(id string, patch models.DealPatch) tea.Cmd {
	deals := m.deals
	ctx := m.ctx
	return func() tea.Msg {
		_, err := deals.Update(ctx, id, patch)
		return mutationDoneMsg{action: "update deal", err: err}
	}
}

func (m Model) deleteDealCmd(id string) tea.Cmd {
	deals := m.deals
	ctx := m.ctx
	return func() tea.Msg {
		return mutationDoneMsg{action: "delete deal", err: deals.Delete(ctx, id)}
	}
}

func (m Model) bulkStatusCmd(ids []string, status models.DealStatus) tea.Cmd {
	deals := m.deals
	ctx := m.ctx
	return func() tea.Msg {
		result, err := deals.BulkUpdate(ctx, ids, models.DealPatch{Status: &status})
		return mutationDoneMsg{action: "bulk update", result: result, err: err}
	}
}

func (m Model) bulkDeleteCmd(ids []string) tea.Cmd {
	deals := m.deals
	ctx := m.ctx
	return func() tea.Msg {
		result, err := deals.BulkDelete(ctx, ids)
		return mutationDoneMsg{action: "bulk delete", result: result, err: err}
	}
}

func (m Model) markReadCmd(id string, read bool) tea.Cmd {
	inbox := m.inbox
	ctx := m.ctx
	return func() tea.Msg {
		var err error
		if read {
			err = inbox.MarkRead(ctx, id)
		} else {
			err = inbox.MarkUnread(ctx, id)
		}
		return mutationDoneMsg{action: "mark read", err: err}
	}
}

func (m Model) markAllReadCmd() tea.Cmd {
	inbox := m.inbox
	ctx := m.ctx
	return func() tea.Msg {
		result, err := inbox.MarkAllRead(ctx)
		return mutationDoneMsg{action: "mark all read", result: result, err: err}
	}
}

// waitEventCmd blocks on the push channel and resubmits itself from the
// eventMsg handler, one event per update cycle.
func (m Model) waitEventCmd() tea.Cmd {
	ch := m.events
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case ev, ok := <-ch:
			if !ok {
				return eventsClosedMsg{}
			}
			return eventMsg{event: ev}
		case <-ctx.Done():
			return nil
		}
	}
}

// waitNoticeCmd blocks on the controller's notice feed.
func (m Model) waitNoticeCmd() tea.Cmd {
	feed := m.feed
	ctx := m.ctx
	return func() tea.Msg {
		if feed == nil {
			return nil
		}
		select {
		case n := <-feed.ch:
			return noticeMsg(n)
		case <-ctx.Done():
			return nil
		}
	}
}

// bulkBanner summarizes a bulk result: a warning when the server refused
// part of the batch, an info line for a clean batch, nothing otherwise.
// The failed deals have already snapped back on the board, the banner is
// the only trace the user gets.
func bulkBanner(action string, result *remote.BulkResult) (notice, bool) {
	if result == nil {
		return notice{}, false
	}
	if result.Failed > 0 {
		total := result.Succeeded + result.Failed
		return notice{
			severity: "warning",
			text:     fmt.Sprintf("%s: %d of %d failed", action, result.Failed, total),
		}, true
	}
	if result.Succeeded > 0 {
		return notice{
			severity: "info",
			text:     fmt.Sprintf("%s: %d done", action, result.Succeeded),
		}, true
	}
	return notice{}, false
}

// failureBanner converts a mutation error into its banner notice.
func failureBanner(action string, err error) notice {
	return notice{
		severity: bannerLevel(remote.SeverityOf(err)),
		text:     action + ": " + remote.UserMessage(err),
	}
}

// bannerLevel maps remote severities onto the three banner styles.
func bannerLevel(sev remote.Severity) string {
	switch sev {
	case remote.SeverityLow:
		return "info"
	case remote.SeverityMedium:
		return "warning"
	default:
		return "error"
	}
}
