// Package board turns raw pointer input into at most one stage-move intent
// per gesture and projects the search filter over the stored board. It never
// talks to the network itself; resolved intents are handed to the deal store
// by the Controller.
package board

import (
	"time"

	"github.com/aldema/pipeboard/internal/models"
)

// Phase is the gesture state: Idle -> Armed -> Dragging -> Resolved -> Idle.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseArmed    Phase = "armed"
	PhaseDragging Phase = "dragging"
	PhaseResolved Phase = "resolved"
)

// Rect is a drop-target rectangle in screen cells.
type Rect struct {
	X, Y          int
	Width, Height int
}

func (r Rect) isZero() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the point falls inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// center returns the rectangle's midpoint, doubled to stay in integers.
func (r Rect) center() (cx, cy int) {
	return 2*r.X + r.Width, 2*r.Y + r.Height
}

// DropTarget is one stage column's droppable area.
type DropTarget struct {
	StageID string
	Bounds  Rect
}

// Move is the single intent a completed gesture can produce.
type Move struct {
	DealID      string
	FromStageID string
	ToStageID   string
}

// Activation tunes when a press becomes a drag. Mouse presses arm on
// distance alone; touch presses arm after TouchDelay as long as the finger
// stayed within TouchSlop (larger movement first is a scroll, not a drag).
type Activation struct {
	Distance   int
	TouchDelay time.Duration
	TouchSlop  int
}

// DefaultActivation matches the feel of the original pointer sensors:
// 8 cells of travel for mouse, 250ms hold with 5 cells of slop for touch.
func DefaultActivation() Activation {
	return Activation{Distance: 8, TouchDelay: 250 * time.Millisecond, TouchSlop: 5}
}

// Engine is the per-gesture state machine. One instance serves the whole
// board; a gesture owns it from PointerDown to PointerUp or Cancel. Not safe
// for concurrent use - it lives on the UI event loop.
type Engine struct {
	activation Activation
	targets    []DropTarget
	now        func() time.Time

	phase       Phase
	dealID      string
	fromStageID string
	stageIDs    map[string]struct{} // stages known at gesture start
	touch       bool
	pressedAt   time.Time
	startX      int
	startY      int
	x           int
	y           int
	hover       string
}

// NewEngine creates an idle engine with the given activation thresholds.
func NewEngine(activation Activation) *Engine {
	return &Engine{
		activation: activation,
		now:        time.Now,
		phase:      PhaseIdle,
	}
}

// Phase returns the current gesture phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// DraggedDeal returns the id of the deal under the active gesture, empty
// when idle.
func (e *Engine) DraggedDeal() string {
	if e.phase == PhaseArmed || e.phase == PhaseDragging {
		return e.dealID
	}
	return ""
}

// HoveredStage returns the drop target currently under the pointer, empty
// when not dragging or not over any target.
func (e *Engine) HoveredStage() string {
	if e.phase != PhaseDragging {
		return ""
	}
	return e.hover
}

// SetTargets registers the stage drop rectangles for the current layout.
// Malformed targets (empty stage id, zero rectangle) are skipped; layout
// glitches must never break the gesture.
func (e *Engine) SetTargets(targets []DropTarget) {
	e.targets = e.targets[:0]
	for _, t := range targets {
		if t.StageID == "" || t.Bounds.isZero() {
			continue
		}
		e.targets = append(e.targets, t)
	}
}

// PointerDown starts a gesture candidate for the deal at the given screen
// position. The press is rejected - the engine stays Idle - when the deal id
// is empty, the deal is not on the given board snapshot, or the stage does
// not match the deal's actual stage (the row was stale).
func (e *Engine) PointerDown(b *models.Board, dealID, stageID string, x, y int) {
	e.pointerDown(b, dealID, stageID, x, y, false)
}

// TouchDown is PointerDown for touch input: arming waits for the press delay
// instead of travel distance.
func (e *Engine) TouchDown(b *models.Board, dealID, stageID string, x, y int) {
	e.pointerDown(b, dealID, stageID, x, y, true)
}

func (e *Engine) pointerDown(b *models.Board, dealID, stageID string, x, y int, touch bool) {
	e.reset()
	if b == nil || dealID == "" {
		return
	}
	_, actualStage, _, err := b.Find(dealID)
	if err != nil {
		// Deal vanished between render and press.
		return
	}
	if stageID != "" && stageID != actualStage {
		stageID = actualStage
	}
	if stageID == "" {
		stageID = actualStage
	}

	e.stageIDs = make(map[string]struct{}, len(b.Stages))
	for _, s := range b.Stages {
		e.stageIDs[s.ID] = struct{}{}
	}

	e.phase = PhaseArmed
	e.dealID = dealID
	e.fromStageID = stageID
	e.touch = touch
	e.pressedAt = e.now()
	e.startX, e.startY = x, y
	e.x, e.y = x, y
}

// PointerMove feeds pointer travel into the machine. While Armed it decides
// whether the press has become a drag; while Dragging it tracks the hovered
// drop target.
func (e *Engine) PointerMove(x, y int) {
	switch e.phase {
	case PhaseArmed:
		e.x, e.y = x, y
		dist := abs(x-e.startX) + abs(y-e.startY)
		if e.touch {
			if dist > e.activation.TouchSlop {
				// Finger travelled before the hold elapsed: a scroll.
				e.reset()
				return
			}
			if e.now().Sub(e.pressedAt) >= e.activation.TouchDelay {
				e.phase = PhaseDragging
				e.hover = e.nearestTarget(x, y)
			}
			return
		}
		if dist >= e.activation.Distance {
			e.phase = PhaseDragging
			e.hover = e.nearestTarget(x, y)
		}
	case PhaseDragging:
		e.x, e.y = x, y
		e.hover = e.nearestTarget(x, y)
	}
}

// PointerUp resolves the gesture. It returns the move intent and true only
// when the drag ended over a known stage different from the origin; every
// other outcome - press never armed into a drag, no target under the
// pointer, target unknown to the board, target equals origin - is a no-op.
// The engine is Idle again when PointerUp returns, whatever the outcome.
func (e *Engine) PointerUp() (Move, bool) {
	defer e.reset()

	if e.phase != PhaseDragging {
		return Move{}, false
	}
	e.phase = PhaseResolved

	target := e.nearestTarget(e.x, e.y)
	if target == "" || target == e.fromStageID {
		return Move{}, false
	}
	if _, known := e.stageIDs[target]; !known {
		// The registered rectangle names a stage the board never had.
		return Move{}, false
	}
	return Move{DealID: e.dealID, FromStageID: e.fromStageID, ToStageID: target}, true
}

// Cancel aborts the gesture with no intent. Called on escape and whenever an
// external state change invalidates the drag (the dragged deal was deleted
// or moved by a push event).
func (e *Engine) Cancel() {
	e.reset()
}

// nearestTarget resolves the drop target under the point: among registered
// rectangles containing it, the one whose center is closest. Empty when the
// point hits nothing.
func (e *Engine) nearestTarget(x, y int) string {
	best := ""
	bestDist := 0
	for _, t := range e.targets {
		if !t.Bounds.Contains(x, y) {
			continue
		}
		cx, cy := t.Bounds.center()
		dx, dy := 2*x-cx, 2*y-cy
		d := dx*dx + dy*dy
		if best == "" || d < bestDist {
			best = t.StageID
			bestDist = d
		}
	}
	return best
}

func (e *Engine) reset() {
	e.phase = PhaseIdle
	e.dealID = ""
	e.fromStageID = ""
	e.stageIDs = nil
	e.touch = false
	e.hover = ""
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
