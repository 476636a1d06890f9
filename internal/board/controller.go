package board

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aldema/pipeboard/internal/models"
	"github.com/aldema/pipeboard/internal/remote"
	"github.com/aldema/pipeboard/internal/store"
)

// moveTimeout bounds a single persisted move, retries included.
const moveTimeout = 30 * time.Second

// Notifier receives the one user-visible message produced per failed move.
// Implemented by the TUI's notification stack.
type Notifier interface {
	Notify(severity remote.Severity, message string)
}

// Controller binds the gesture engine to the deal store. A resolved drag and
// the keyboard move path both funnel into the same single-intent move: the
// store applies it optimistically and the controller reports the failure, if
// any, exactly once.
type Controller struct {
	store    *store.DealStore
	engine   *Engine
	notifier Notifier

	bg sync.WaitGroup
}

// NewController creates a controller. The notifier may be nil, in which case
// failures are only logged.
func NewController(s *store.DealStore, e *Engine, n Notifier) *Controller {
	return &Controller{store: s, engine: e, notifier: n}
}

// Engine returns the gesture engine so the view can feed it pointer input
// and drop-target layout.
func (c *Controller) Engine() *Engine {
	return c.engine
}

// DragStart begins a gesture for the deal under the pointer, validated
// against the store's current board.
func (c *Controller) DragStart(dealID, stageID string, x, y int) {
	c.engine.PointerDown(c.store.BoardSnapshot(), dealID, stageID, x, y)
}

// DragMove feeds pointer travel to the engine.
func (c *Controller) DragMove(x, y int) {
	c.engine.PointerMove(x, y)
}

// DragEnd resolves the gesture and persists the move intent, if there is
// one. The deal relocates on screen immediately; persistence runs in the
// background so the event loop never blocks on the network.
func (c *Controller) DragEnd() {
	move, ok := c.engine.PointerUp()
	if !ok {
		return
	}
	c.apply(move)
}

// DragCancel aborts the gesture with no side effect.
func (c *Controller) DragCancel() {
	c.engine.Cancel()
}

// MoveRight relocates the deal one stage toward the end of the board. The
// keyboard path emits the same single move intent as a drag.
func (c *Controller) MoveRight(dealID string) {
	c.moveAdjacent(dealID, 1)
}

// MoveLeft relocates the deal one stage toward the start of the board.
func (c *Controller) MoveLeft(dealID string) {
	c.moveAdjacent(dealID, -1)
}

func (c *Controller) moveAdjacent(dealID string, dir int) {
	if dealID == "" {
		return
	}
	b := c.store.BoardSnapshot()
	_, stageID, _, err := b.Find(dealID)
	if err != nil {
		return
	}
	idx := -1
	for i, s := range b.Stages {
		if s.ID == stageID {
			idx = i
			break
		}
	}
	next := idx + dir
	if idx < 0 || next < 0 || next >= len(b.Stages) {
		// Already at the edge of the board.
		return
	}
	c.apply(Move{DealID: dealID, FromStageID: stageID, ToStageID: b.Stages[next].ID})
}

// apply persists one move intent. Failures reach the notifier exactly once;
// the store has already rolled the deal back to its original position by the
// time the error surfaces.
func (c *Controller) apply(move Move) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), moveTimeout)
		defer cancel()

		_, err := c.store.MoveToStage(ctx, move.DealID, move.ToStageID)
		if err == nil || errors.Is(err, models.ErrSameStage) {
			return
		}
		slog.Warn("move failed",
			"deal_id", move.DealID,
			"from", move.FromStageID,
			"to", move.ToStageID,
			"error", err)
		if c.notifier != nil {
			c.notifier.Notify(remote.SeverityOf(err), remote.UserMessage(err))
		}
	}()
}

// Wait blocks until all in-flight moves resolve. Used on shutdown and by
// tests that need deterministic reconciliation.
func (c *Controller) Wait() {
	c.bg.Wait()
}
