package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aldema/pipeboard/internal/models"
	"github.com/aldema/pipeboard/internal/remote"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

// seededStore returns a store whose board has three stages with the given
// number of deals each. Deal ids are "<stage>-<n>".
func seededStore(t *testing.T, fake *fakeCollection, perStage int) *DealStore {
	t.Helper()
	stages := []*models.Stage{
		{ID: "lead", Name: "Lead", DisplayOrder: 1},
		{ID: "proposal", Name: "Proposal", DisplayOrder: 2},
		{ID: "won", Name: "Won", DisplayOrder: 3},
	}
	deals := make(map[string][]*models.Deal)
	for _, st := range stages {
		for i := 0; i < perStage; i++ {
			deals[st.ID] = append(deals[st.ID], &models.Deal{
				ID:       fmt.Sprintf("%s-%d", st.ID, i),
				Title:    fmt.Sprintf("Deal %s %d", st.Name, i),
				StageID:  st.ID,
				Position: i,
				Status:   models.StatusOpen,
				Version:  1,
			})
		}
	}

	s := NewDealStore(fake, "pipe-1", nil)
	s.RestoreBoard(models.NewBoard(stages, deals))
	return s
}

// stageIDs returns the deal ids of one stage in order.
func stageIDs(t *testing.T, s *DealStore, stageID string) []string {
	t.Helper()
	board := s.BoardSnapshot()
	list := board.DealsForStage(stageID)
	ids := make([]string, len(list))
	for i, d := range list {
		ids[i] = d.ID
	}
	return ids
}

func assertOrder(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("list = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("list = %v, want %v", got, want)
		}
	}
}

// ============================================================================
// UPDATE
// ============================================================================

// TestUpdate_OptimisticThenConfirmed ensures the patch shows immediately and
// the server's deal - including server-computed fields - replaces it on
// success.
func TestUpdate_OptimisticThenConfirmed(t *testing.T) {
	fake := &fakeCollection{}
	fake.UpdateFn = func(ctx context.Context, id string, patch models.DealPatch, expectedVersion int64) (*models.Deal, error) {
		if expectedVersion != 1 {
			t.Errorf("expectedVersion = %d, want 1", expectedVersion)
		}
		d := &models.Deal{ID: id, StageID: "lead", Version: 2, Probability: 65, StageName: "Lead"}
		patch.Apply(d)
		return d, nil
	}
	s := seededStore(t, fake, 2)

	title := "Bigger deal"
	updated, err := s.Update(context.Background(), "lead-0", models.DealPatch{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != 2 || updated.Probability != 65 {
		t.Errorf("server-computed fields missing: %+v", updated)
	}

	got, err := s.Deal("lead-0")
	if err != nil {
		t.Fatalf("Deal: %v", err)
	}
	if got.Title != "Bigger deal" || got.Version != 2 {
		t.Errorf("stored deal = %+v, want server copy", got)
	}
}

// TestUpdate_RollbackRestoresSnapshot ensures a failed update restores the
// pre-patch deal field for field.
func TestUpdate_RollbackRestoresSnapshot(t *testing.T) {
	fake := &fakeCollection{}
	fake.UpdateFn = func(ctx context.Context, id string, patch models.DealPatch, expectedVersion int64) (*models.Deal, error) {
		return nil, validationErr("deals.update")
	}
	s := seededStore(t, fake, 2)

	before, _ := s.Deal("lead-0")

	title := "doomed rename"
	amount := int64(999)
	_, err := s.Update(context.Background(), "lead-0", models.DealPatch{Title: &title, Amount: &amount})
	if err == nil {
		t.Fatal("Update = nil, want error")
	}

	after, _ := s.Deal("lead-0")
	if *after != *before {
		t.Errorf("deal after rollback = %+v, want %+v", after, before)
	}
	if s.LastError() == nil {
		t.Error("LastError = nil after failed update")
	}
}

// TestUpdate_ConflictSchedulesRefetch ensures a conflict failure rolls back
// and then converges to the server's current truth via the background fetch.
func TestUpdate_ConflictSchedulesRefetch(t *testing.T) {
	fake := &fakeCollection{}
	fake.UpdateFn = func(ctx context.Context, id string, patch models.DealPatch, expectedVersion int64) (*models.Deal, error) {
		return nil, conflictErr("deals.update")
	}
	fake.GetByIDFn = func(ctx context.Context, id string) (*models.Deal, error) {
		return &models.Deal{ID: id, Title: "Renamed elsewhere", StageID: "lead", Version: 5}, nil
	}
	s := seededStore(t, fake, 1)

	title := "my rename"
	if _, err := s.Update(context.Background(), "lead-0", models.DealPatch{Title: &title}); err == nil {
		t.Fatal("Update = nil, want conflict error")
	}
	s.WaitBackground()

	got, err := s.Deal("lead-0")
	if err != nil {
		t.Fatalf("Deal: %v", err)
	}
	if got.Title != "Renamed elsewhere" || got.Version != 5 {
		t.Errorf("deal after conflict refetch = %+v, want server truth", got)
	}
	if fake.callCount("get") != 1 {
		t.Errorf("background fetches = %d, want 1", fake.callCount("get"))
	}
}

// TestUpdate_Serialization ensures a second update on the same deal queues
// behind the first, so the first one's rollback can never clobber the
// second one's result. The first update fails after the second was issued.
func TestUpdate_Serialization(t *testing.T) {
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	var calls int
	var callsMu sync.Mutex

	fake := &fakeCollection{}
	fake.UpdateFn = func(ctx context.Context, id string, patch models.DealPatch, expectedVersion int64) (*models.Deal, error) {
		callsMu.Lock()
		calls++
		n := calls
		callsMu.Unlock()

		if n == 1 {
			close(firstEntered)
			<-releaseFirst
			return nil, serverErr("deals.update")
		}
		d := &models.Deal{ID: id, StageID: "lead", Version: expectedVersion + 1}
		patch.Apply(d)
		return d, nil
	}
	s := seededStore(t, fake, 1)

	titleA := "patch A"
	titleB := "patch B"

	var wg sync.WaitGroup
	wg.Add(2)
	var errA, errB error
	go func() {
		defer wg.Done()
		_, errA = s.Update(context.Background(), "lead-0", models.DealPatch{Title: &titleA})
	}()
	<-firstEntered
	go func() {
		defer wg.Done()
		_, errB = s.Update(context.Background(), "lead-0", models.DealPatch{Title: &titleB})
	}()

	// B must be queued, not in flight, while A is suspended.
	time.Sleep(50 * time.Millisecond)
	callsMu.Lock()
	if calls != 1 {
		t.Errorf("remote update calls while A in flight = %d, want 1", calls)
	}
	callsMu.Unlock()

	close(releaseFirst)
	wg.Wait()

	if errA == nil {
		t.Error("first update = nil, want error")
	}
	if errB != nil {
		t.Errorf("second update = %v, want nil", errB)
	}

	got, err := s.Deal("lead-0")
	if err != nil {
		t.Fatalf("Deal: %v", err)
	}
	if got.Title != "patch B" {
		t.Errorf("final title = %q, want %q (A's rollback must not clobber B)", got.Title, "patch B")
	}
}

// TestUpdate_MissingDeal ensures updating an id that is not on the board
// fails without calling the server.
func TestUpdate_MissingDeal(t *testing.T) {
	fake := &fakeCollection{}
	s := seededStore(t, fake, 1)

	title := "x"
	if _, err := s.Update(context.Background(), "ghost", models.DealPatch{Title: &title}); err != models.ErrDealNotFound {
		t.Errorf("Update(ghost) = %v, want ErrDealNotFound", err)
	}
	if fake.callCount("update") != 0 {
		t.Error("remote update called for a deal that is not on the board")
	}
}

// ============================================================================
// CREATE
// ============================================================================

// TestCreate_ReplacesPlaceholder ensures the optimistic placeholder shows up
// immediately and is swapped in place for the server's deal.
func TestCreate_ReplacesPlaceholder(t *testing.T) {
	entered := make(chan struct{})
	proceed := make(chan struct{})
	fake := &fakeCollection{}
	fake.CreateFn = func(ctx context.Context, draft models.DealDraft) (*models.Deal, error) {
		close(entered)
		<-proceed
		return &models.Deal{ID: "srv-42", Title: draft.Title, StageID: draft.StageID, Version: 1}, nil
	}
	s := seededStore(t, fake, 1)

	done := make(chan error, 1)
	go func() {
		_, err := s.Create(context.Background(), models.DealDraft{Title: "Fresh deal", StageID: "lead"})
		done <- err
	}()

	<-entered
	// While the create is in flight the placeholder is visible and counted.
	ids := stageIDs(t, s, "lead")
	if len(ids) != 2 || !strings.HasPrefix(ids[1], localIDPrefix) {
		t.Errorf("lead stage during create = %v, want trailing placeholder", ids)
	}
	if s.TotalCount() != 4 {
		t.Errorf("TotalCount during create = %d, want 4", s.TotalCount())
	}

	close(proceed)
	if err := <-done; err != nil {
		t.Fatalf("Create: %v", err)
	}

	ids = stageIDs(t, s, "lead")
	assertOrder(t, ids, []string{"lead-0", "srv-42"})
}

// TestCreate_FailureRemovesPlaceholder ensures a failed create removes the
// placeholder, restores the counter, and surfaces the error.
func TestCreate_FailureRemovesPlaceholder(t *testing.T) {
	fake := &fakeCollection{}
	fake.CreateFn = func(ctx context.Context, draft models.DealDraft) (*models.Deal, error) {
		return nil, validationErr("deals.create")
	}
	s := seededStore(t, fake, 1)

	_, err := s.Create(context.Background(), models.DealDraft{Title: "Doomed", StageID: "lead"})
	if err == nil {
		t.Fatal("Create = nil, want error")
	}
	assertOrder(t, stageIDs(t, s, "lead"), []string{"lead-0"})
	if s.TotalCount() != 3 {
		t.Errorf("TotalCount after failed create = %d, want 3", s.TotalCount())
	}
}

// TestCreate_UnknownStage ensures a draft naming a stage that is not on the
// board fails before any remote call.
func TestCreate_UnknownStage(t *testing.T) {
	fake := &fakeCollection{}
	s := seededStore(t, fake, 1)

	if _, err := s.Create(context.Background(), models.DealDraft{Title: "x", StageID: "nope"}); err != models.ErrStageNotFound {
		t.Errorf("Create with unknown stage = %v, want ErrStageNotFound", err)
	}
	if fake.callCount("create") != 0 {
		t.Error("remote create called despite unknown stage")
	}
}

// ============================================================================
// DELETE
// ============================================================================

// TestDelete_RemovesImmediately covers the success path: gone from board,
// selection and counter.
func TestDelete_RemovesImmediately(t *testing.T) {
	fake := &fakeCollection{}
	s := seededStore(t, fake, 2)
	s.ToggleSelect("lead-1")

	if err := s.Delete(context.Background(), "lead-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	assertOrder(t, stageIDs(t, s, "lead"), []string{"lead-0"})
	if s.IsSelected("lead-1") {
		t.Error("deleted deal still selected")
	}
	if s.TotalCount() != 5 {
		t.Errorf("TotalCount = %d, want 5", s.TotalCount())
	}
}

// TestDelete_FailureDoesNotRestore pins down the deliberate asymmetry:
// a failed delete surfaces its error but the deal stays removed.
func TestDelete_FailureDoesNotRestore(t *testing.T) {
	fake := &fakeCollection{}
	fake.DeleteFn = func(ctx context.Context, id string) error {
		return serverErr("deals.delete")
	}
	s := seededStore(t, fake, 2)

	err := s.Delete(context.Background(), "lead-1")
	if err == nil {
		t.Fatal("Delete = nil, want error")
	}
	if s.BoardSnapshot().Contains("lead-1") {
		t.Error("deal restored after failed delete; delete is intentionally not rolled back")
	}
}

// ============================================================================
// MOVE
// ============================================================================

// TestMoveToStage_OptimisticAppend ensures the moved deal lands at the end
// of the destination and takes the server's denormalized fields on success.
func TestMoveToStage_OptimisticAppend(t *testing.T) {
	fake := &fakeCollection{}
	fake.MoveToStageFn = func(ctx context.Context, dealID, fromStageID, toStageID string) (*models.Deal, error) {
		if fromStageID != "lead" || toStageID != "won" {
			t.Errorf("move %s -> %s, want lead -> won", fromStageID, toStageID)
		}
		return &models.Deal{ID: dealID, StageID: toStageID, StageName: "Won", Probability: 100, Version: 2}, nil
	}
	s := seededStore(t, fake, 2)

	moved, err := s.MoveToStage(context.Background(), "lead-0", "won")
	if err != nil {
		t.Fatalf("MoveToStage: %v", err)
	}
	if moved.StageName != "Won" || moved.Probability != 100 {
		t.Errorf("server-derived fields missing after move: %+v", moved)
	}
	assertOrder(t, stageIDs(t, s, "won"), []string{"won-0", "won-1", "lead-0"})
	assertOrder(t, stageIDs(t, s, "lead"), []string{"lead-1"})
}

// TestMoveToStage_RollbackPreservesPosition ensures a failed move puts the
// deal back at its exact original position, not at the end of the list.
func TestMoveToStage_RollbackPreservesPosition(t *testing.T) {
	fake := &fakeCollection{}
	fake.MoveToStageFn = func(ctx context.Context, dealID, fromStageID, toStageID string) (*models.Deal, error) {
		return nil, serverErr("deals.move")
	}
	s := seededStore(t, fake, 3)

	// lead = [lead-0, lead-1, lead-2]; move the middle one and fail.
	if _, err := s.MoveToStage(context.Background(), "lead-1", "won"); err == nil {
		t.Fatal("MoveToStage = nil, want error")
	}

	assertOrder(t, stageIDs(t, s, "lead"), []string{"lead-0", "lead-1", "lead-2"})
	assertOrder(t, stageIDs(t, s, "won"), []string{"won-0", "won-1", "won-2"})
}

// TestMoveToStage_SameStageIsError ensures a move to the current stage never
// reaches the server.
func TestMoveToStage_SameStageIsError(t *testing.T) {
	fake := &fakeCollection{}
	s := seededStore(t, fake, 1)

	if _, err := s.MoveToStage(context.Background(), "lead-0", "lead"); err != models.ErrSameStage {
		t.Errorf("MoveToStage same stage = %v, want ErrSameStage", err)
	}
	if fake.callCount("move") != 0 {
		t.Error("remote move called for same-stage move")
	}
}

// ============================================================================
// BULK
// ============================================================================

// TestBulkUpdate_PartialFailure ensures the optimistic patch sticks on
// server-confirmed successes, the failed id is reconciled via re-fetch, and
// the selection set empties regardless.
func TestBulkUpdate_PartialFailure(t *testing.T) {
	fake := &fakeCollection{}
	fake.BulkUpdateFn = func(ctx context.Context, ids []string, patch models.DealPatch) (*remote.BulkResult, error) {
		return &remote.BulkResult{Succeeded: 2, Failed: 1, FailedIDs: []string{"lead-2"}}, nil
	}
	fake.GetByIDFn = func(ctx context.Context, id string) (*models.Deal, error) {
		return &models.Deal{ID: id, Title: "server truth", StageID: "lead", Status: models.StatusOpen, Version: 9}, nil
	}
	s := seededStore(t, fake, 3)
	for _, id := range []string{"lead-0", "lead-1", "lead-2"} {
		s.ToggleSelect(id)
	}

	status := models.StatusLost
	result, err := s.BulkUpdate(context.Background(), []string{"lead-0", "lead-1", "lead-2"}, models.DealPatch{Status: &status})
	if err != nil {
		t.Fatalf("BulkUpdate: %v", err)
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("result = %+v, want 2/1", result)
	}
	s.WaitBackground()

	for _, id := range []string{"lead-0", "lead-1"} {
		d, _ := s.Deal(id)
		if d.Status != models.StatusLost {
			t.Errorf("%s status = %s, want optimistic patch kept on success", id, d.Status)
		}
	}
	d, _ := s.Deal("lead-2")
	if d.Version != 9 || d.Title != "server truth" {
		t.Errorf("failed member not reconciled: %+v", d)
	}
	if s.SelectedCount() != 0 {
		t.Errorf("SelectedCount = %d, want 0 after bulk", s.SelectedCount())
	}
}

// TestBulkUpdate_TotalFailure ensures a failed bulk call rolls every member
// back and still clears the selection.
func TestBulkUpdate_TotalFailure(t *testing.T) {
	fake := &fakeCollection{}
	fake.BulkUpdateFn = func(ctx context.Context, ids []string, patch models.DealPatch) (*remote.BulkResult, error) {
		return nil, serverErr("deals.bulk_update")
	}
	s := seededStore(t, fake, 2)
	s.ToggleSelect("lead-0")

	status := models.StatusWon
	if _, err := s.BulkUpdate(context.Background(), []string{"lead-0", "lead-1"}, models.DealPatch{Status: &status}); err == nil {
		t.Fatal("BulkUpdate = nil, want error")
	}

	for _, id := range []string{"lead-0", "lead-1"} {
		d, _ := s.Deal(id)
		if d.Status != models.StatusOpen {
			t.Errorf("%s status = %s, want rollback to open", id, d.Status)
		}
	}
	if s.SelectedCount() != 0 {
		t.Error("selection survived a completed (failed) bulk operation")
	}
}

// TestBulkDelete_TotalFailureRestoresOrder ensures every removed deal comes
// back in its original slot when the whole call fails.
func TestBulkDelete_TotalFailureRestoresOrder(t *testing.T) {
	fake := &fakeCollection{}
	fake.BulkDeleteFn = func(ctx context.Context, ids []string) (*remote.BulkResult, error) {
		return nil, serverErr("deals.bulk_delete")
	}
	s := seededStore(t, fake, 3)

	if _, err := s.BulkDelete(context.Background(), []string{"lead-0", "lead-2"}); err == nil {
		t.Fatal("BulkDelete = nil, want error")
	}
	assertOrder(t, stageIDs(t, s, "lead"), []string{"lead-0", "lead-1", "lead-2"})
	if s.TotalCount() != 9 {
		t.Errorf("TotalCount = %d, want 9 after full rollback", s.TotalCount())
	}
}

// TestBulkDelete_PartialFailure ensures only the failed id is restored and
// the counter reflects the server's authoritative result.
func TestBulkDelete_PartialFailure(t *testing.T) {
	fake := &fakeCollection{}
	fake.BulkDeleteFn = func(ctx context.Context, ids []string) (*remote.BulkResult, error) {
		return &remote.BulkResult{Succeeded: 1, Failed: 1, FailedIDs: []string{"lead-0"}}, nil
	}
	s := seededStore(t, fake, 2)

	result, err := s.BulkDelete(context.Background(), []string{"lead-0", "lead-1"})
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("result = %+v, want one failure", result)
	}
	s.WaitBackground()

	board := s.BoardSnapshot()
	if !board.Contains("lead-0") {
		t.Error("failed member not restored")
	}
	if board.Contains("lead-1") {
		t.Error("confirmed delete rolled back")
	}
	if s.TotalCount() != 5 {
		t.Errorf("TotalCount = %d, want 5", s.TotalCount())
	}
}

// ============================================================================
// EVENT MERGING
// ============================================================================

// TestApplyDealUpsert_NewAndKnown covers merge semantics for pushed deals.
func TestApplyDealUpsert_NewAndKnown(t *testing.T) {
	fake := &fakeCollection{}
	s := seededStore(t, fake, 1)

	s.ApplyDealUpsert(&models.Deal{ID: "pushed-1", Title: "From push", StageID: "won", Version: 1})
	if !s.BoardSnapshot().Contains("pushed-1") {
		t.Error("pushed deal not appended")
	}
	if s.TotalCount() != 4 {
		t.Errorf("TotalCount = %d, want 4", s.TotalCount())
	}

	s.ApplyDealUpsert(&models.Deal{ID: "lead-0", Title: "Updated elsewhere", StageID: "lead", Version: 3})
	d, _ := s.Deal("lead-0")
	if d.Title != "Updated elsewhere" {
		t.Errorf("known deal not replaced by push: %+v", d)
	}
	if s.TotalCount() != 4 {
		t.Errorf("TotalCount = %d, want unchanged 4", s.TotalCount())
	}
}

// TestApplyDealUpsert_DroppedWhileInFlight ensures a push for a deal with a
// pending local mutation is discarded - the pending reconciliation wins.
func TestApplyDealUpsert_DroppedWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	proceed := make(chan struct{})
	fake := &fakeCollection{}
	fake.UpdateFn = func(ctx context.Context, id string, patch models.DealPatch, expectedVersion int64) (*models.Deal, error) {
		close(entered)
		<-proceed
		d := &models.Deal{ID: id, StageID: "lead", Version: expectedVersion + 1}
		patch.Apply(d)
		return d, nil
	}
	s := seededStore(t, fake, 1)

	title := "local win"
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.Update(context.Background(), "lead-0", models.DealPatch{Title: &title}); err != nil {
			t.Errorf("Update: %v", err)
		}
	}()

	<-entered
	s.ApplyDealUpsert(&models.Deal{ID: "lead-0", Title: "push loser", StageID: "lead", Version: 99})
	close(proceed)
	<-done

	d, _ := s.Deal("lead-0")
	if d.Title != "local win" {
		t.Errorf("title = %q, want the pending operation's result", d.Title)
	}
}

// ============================================================================
// SELECTION
// ============================================================================

// TestSelection_ToggleAndClear covers the selection set lifecycle.
func TestSelection_ToggleAndClear(t *testing.T) {
	s := seededStore(t, &fakeCollection{}, 1)

	s.ToggleSelect("lead-0")
	s.ToggleSelect("won-0")
	if s.SelectedCount() != 2 || !s.IsSelected("lead-0") {
		t.Errorf("selection = %v, want lead-0 and won-0", s.Selected())
	}

	s.ToggleSelect("lead-0")
	if s.IsSelected("lead-0") {
		t.Error("second toggle did not deselect")
	}

	s.ToggleSelect("") // must be a no-op
	s.ClearSelection()
	if s.SelectedCount() != 0 {
		t.Error("ClearSelection left entries behind")
	}
}
