package board

import (
	"testing"
	"time"

	"github.com/aldema/pipeboard/internal/models"
)

// testBoard returns a three-stage board with one deal per stage.
func testBoard(t *testing.T) *models.Board {
	t.Helper()
	stages := []*models.Stage{
		{ID: "lead", Name: "Lead", DisplayOrder: 1},
		{ID: "proposal", Name: "Proposal", DisplayOrder: 2},
		{ID: "won", Name: "Won", DisplayOrder: 3},
	}
	deals := map[string][]*models.Deal{
		"lead":     {{ID: "d-1", Title: "Acme deal", StageID: "lead"}},
		"proposal": {{ID: "d-2", Title: "Other", StageID: "proposal"}},
		"won":      {{ID: "d-3", Title: "Closed", StageID: "won"}},
	}
	return models.NewBoard(stages, deals)
}

// columnTargets lays the three stages out as adjacent 20-cell columns.
func columnTargets() []DropTarget {
	return []DropTarget{
		{StageID: "lead", Bounds: Rect{X: 0, Y: 0, Width: 20, Height: 40}},
		{StageID: "proposal", Bounds: Rect{X: 20, Y: 0, Width: 20, Height: 40}},
		{StageID: "won", Bounds: Rect{X: 40, Y: 0, Width: 20, Height: 40}},
	}
}

// drag runs a full mouse gesture from (x0,y0) to (x1,y1) on the deal.
func drag(t *testing.T, e *Engine, b *models.Board, dealID, stageID string, x0, y0, x1, y1 int) (Move, bool) {
	t.Helper()
	e.PointerDown(b, dealID, stageID, x0, y0)
	e.PointerMove(x1, y1)
	return e.PointerUp()
}

func TestDrag_ResolvesSingleMoveIntent(t *testing.T) {
	e := NewEngine(DefaultActivation())
	e.SetTargets(columnTargets())

	move, ok := drag(t, e, testBoard(t), "d-1", "lead", 5, 5, 30, 5)
	if !ok {
		t.Fatal("gesture produced no intent")
	}
	want := Move{DealID: "d-1", FromStageID: "lead", ToStageID: "proposal"}
	if move != want {
		t.Errorf("move = %+v, want %+v", move, want)
	}
	if e.Phase() != PhaseIdle {
		t.Errorf("phase after resolve = %s, want idle", e.Phase())
	}
}

// TestDrag_DropOnOriginIsNoOp covers the idempotent no-op gesture: releasing
// over the origin stage emits nothing.
func TestDrag_DropOnOriginIsNoOp(t *testing.T) {
	e := NewEngine(DefaultActivation())
	e.SetTargets(columnTargets())

	if _, ok := drag(t, e, testBoard(t), "d-1", "lead", 5, 5, 15, 20); ok {
		t.Error("drop on origin stage emitted an intent")
	}
}

// TestDrag_DropOutsideTargetsIsNoOp: releasing in dead space emits nothing.
func TestDrag_DropOutsideTargetsIsNoOp(t *testing.T) {
	e := NewEngine(DefaultActivation())
	e.SetTargets(columnTargets())

	if _, ok := drag(t, e, testBoard(t), "d-1", "lead", 5, 5, 80, 80); ok {
		t.Error("drop outside every target emitted an intent")
	}
}

// TestDrag_BelowActivationIsClick: a press that never travels past the
// activation distance resolves as a click, not a drag.
func TestDrag_BelowActivationIsClick(t *testing.T) {
	e := NewEngine(DefaultActivation())
	e.SetTargets(columnTargets())

	if _, ok := drag(t, e, testBoard(t), "d-1", "lead", 5, 5, 7, 6); ok {
		t.Error("sub-threshold movement emitted an intent")
	}
}

// TestPointerDown_RejectsInvalidCandidates covers the defensive cases:
// empty id, a deal missing from the snapshot, and a nil board all leave the
// engine Idle.
func TestPointerDown_RejectsInvalidCandidates(t *testing.T) {
	e := NewEngine(DefaultActivation())
	b := testBoard(t)

	e.PointerDown(b, "", "lead", 5, 5)
	if e.Phase() != PhaseIdle {
		t.Error("empty deal id armed the engine")
	}
	e.PointerDown(b, "vanished", "lead", 5, 5)
	if e.Phase() != PhaseIdle {
		t.Error("missing deal armed the engine")
	}
	e.PointerDown(nil, "d-1", "lead", 5, 5)
	if e.Phase() != PhaseIdle {
		t.Error("nil board armed the engine")
	}
}

// TestPointerDown_CorrectsStaleStage: when the pressed row claims a stage
// the deal is no longer in, the gesture uses the deal's actual stage.
func TestPointerDown_CorrectsStaleStage(t *testing.T) {
	e := NewEngine(DefaultActivation())
	e.SetTargets(columnTargets())

	move, ok := drag(t, e, testBoard(t), "d-1", "won", 5, 5, 30, 5)
	if !ok {
		t.Fatal("gesture produced no intent")
	}
	if move.FromStageID != "lead" {
		t.Errorf("FromStageID = %s, want the deal's actual stage", move.FromStageID)
	}
}

// TestDrop_UnknownStageIsNoOp: a registered rectangle naming a stage the
// board never had resolves to nothing.
func TestDrop_UnknownStageIsNoOp(t *testing.T) {
	e := NewEngine(DefaultActivation())
	e.SetTargets(append(columnTargets(),
		DropTarget{StageID: "phantom", Bounds: Rect{X: 60, Y: 0, Width: 20, Height: 40}}))

	if _, ok := drag(t, e, testBoard(t), "d-1", "lead", 5, 5, 70, 5); ok {
		t.Error("drop on a stage unknown to the board emitted an intent")
	}
}

// TestSetTargets_SkipsMalformed: empty stage ids and zero rectangles are
// dropped instead of breaking resolution.
func TestSetTargets_SkipsMalformed(t *testing.T) {
	e := NewEngine(DefaultActivation())
	e.SetTargets([]DropTarget{
		{StageID: "", Bounds: Rect{X: 0, Y: 0, Width: 20, Height: 40}},
		{StageID: "proposal", Bounds: Rect{}},
		{StageID: "proposal", Bounds: Rect{X: 20, Y: 0, Width: 20, Height: 40}},
	})

	move, ok := drag(t, e, testBoard(t), "d-1", "lead", 5, 5, 30, 5)
	if !ok || move.ToStageID != "proposal" {
		t.Errorf("move = %+v ok=%v, want resolution against the one valid target", move, ok)
	}
}

// TestNearestTarget_PicksClosestCenter: the pointer inside two overlapping
// rectangles resolves to the one whose center is nearer.
func TestNearestTarget_PicksClosestCenter(t *testing.T) {
	e := NewEngine(DefaultActivation())
	e.SetTargets([]DropTarget{
		{StageID: "proposal", Bounds: Rect{X: 0, Y: 0, Width: 60, Height: 40}},
		{StageID: "won", Bounds: Rect{X: 30, Y: 0, Width: 30, Height: 40}},
	})

	// (45, 20) is inside both; won's center (45,20) is exact, proposal's is
	// (30,20).
	move, ok := drag(t, e, testBoard(t), "d-1", "lead", 5, 5, 45, 20)
	if !ok || move.ToStageID != "won" {
		t.Errorf("move = %+v ok=%v, want drop on won", move, ok)
	}
}

// TestCancel_AbortsWithoutIntent: escape mid-drag returns to Idle and the
// following release emits nothing.
func TestCancel_AbortsWithoutIntent(t *testing.T) {
	e := NewEngine(DefaultActivation())
	e.SetTargets(columnTargets())

	e.PointerDown(testBoard(t), "d-1", "lead", 5, 5)
	e.PointerMove(30, 5)
	if e.Phase() != PhaseDragging {
		t.Fatalf("phase = %s, want dragging", e.Phase())
	}
	e.Cancel()
	if e.Phase() != PhaseIdle {
		t.Errorf("phase after cancel = %s, want idle", e.Phase())
	}
	if _, ok := e.PointerUp(); ok {
		t.Error("release after cancel emitted an intent")
	}
}

// TestTouch_HoldArmsWithinSlop: a touch press becomes a drag after the hold
// delay as long as the finger stayed within the slop tolerance.
func TestTouch_HoldArmsWithinSlop(t *testing.T) {
	e := NewEngine(Activation{Distance: 8, TouchDelay: 250 * time.Millisecond, TouchSlop: 5})
	e.SetTargets(columnTargets())

	now := time.Unix(100, 0)
	e.now = func() time.Time { return now }

	e.TouchDown(testBoard(t), "d-1", "lead", 5, 5)
	now = now.Add(300 * time.Millisecond)
	e.PointerMove(7, 6) // within slop
	if e.Phase() != PhaseDragging {
		t.Fatalf("phase = %s, want dragging after hold", e.Phase())
	}
	e.PointerMove(30, 5)
	move, ok := e.PointerUp()
	if !ok || move.ToStageID != "proposal" {
		t.Errorf("move = %+v ok=%v, want drop on proposal", move, ok)
	}
}

// TestTouch_EarlyTravelIsScroll: finger travel past the slop before the hold
// elapses aborts the gesture - it was a scroll.
func TestTouch_EarlyTravelIsScroll(t *testing.T) {
	e := NewEngine(Activation{Distance: 8, TouchDelay: 250 * time.Millisecond, TouchSlop: 5})
	e.SetTargets(columnTargets())

	now := time.Unix(100, 0)
	e.now = func() time.Time { return now }

	e.TouchDown(testBoard(t), "d-1", "lead", 5, 5)
	now = now.Add(50 * time.Millisecond)
	e.PointerMove(5, 25)
	if e.Phase() != PhaseIdle {
		t.Errorf("phase = %s, want idle after scroll travel", e.Phase())
	}
}

// TestDrag_HoverTracksTargets: the hovered stage follows the pointer during
// the drag and clears outside every target.
func TestDrag_HoverTracksTargets(t *testing.T) {
	e := NewEngine(DefaultActivation())
	e.SetTargets(columnTargets())

	e.PointerDown(testBoard(t), "d-1", "lead", 5, 5)
	e.PointerMove(30, 5)
	if got := e.HoveredStage(); got != "proposal" {
		t.Errorf("HoveredStage = %q, want proposal", got)
	}
	e.PointerMove(45, 5)
	if got := e.HoveredStage(); got != "won" {
		t.Errorf("HoveredStage = %q, want won", got)
	}
	e.PointerMove(90, 90)
	if got := e.HoveredStage(); got != "" {
		t.Errorf("HoveredStage = %q, want empty in dead space", got)
	}
	e.Cancel()
}
