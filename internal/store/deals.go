package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aldema/pipeboard/internal/models"
	"github.com/aldema/pipeboard/internal/remote"
)

// localIDPrefix marks placeholder ids minted for optimistic creates before
// the server has assigned the real id.
const localIDPrefix = "local-"

// backgroundOpTimeout bounds background reconciliation and cache writes.
const backgroundOpTimeout = 30 * time.Second

// Snapshotter persists the last confirmed board so it can be shown when the
// API is unreachable. Implemented by the cache package.
type Snapshotter interface {
	SaveBoard(ctx context.Context, pipelineID string, board *models.Board) error
}

// DealStore is the optimistic mutation store for the pipeline board.
//
// Every mutation applies its expected outcome to the in-memory board
// immediately, issues the remote call, and reconciles when it resolves:
// success replaces the optimistic copy with the server's authoritative deal,
// failure restores the pre-mutation snapshot (except delete, see Delete).
// Mutations on the same deal are serialized; mutations on different deals
// run concurrently. All methods are safe for concurrent use.
type DealStore struct {
	remote     remote.Collection
	pipelineID string
	snapshots  Snapshotter // optional

	mu         sync.RWMutex
	board      *models.Board
	totalCount int
	selection  map[string]struct{}
	query      string
	loading    bool
	lastErr    error

	ops *opTracker
	bg  sync.WaitGroup // background reconciliation fetches
}

// NewDealStore creates a store for one pipeline. The snapshotter may be nil.
func NewDealStore(collection remote.Collection, pipelineID string, snapshots Snapshotter) *DealStore {
	return &DealStore{
		remote:     collection,
		pipelineID: pipelineID,
		snapshots:  snapshots,
		board:      models.NewBoard(nil, nil),
		selection:  make(map[string]struct{}),
		ops:        newOpTracker(),
	}
}

// ============================================================================
// LOADING
// ============================================================================

// Load fetches the stage definitions and the first page of deals and
// replaces the board with the result. On success the confirmed board is
// written to the snapshot cache in the background.
func (s *DealStore) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	stages, err := s.remote.Stages(ctx, s.pipelineID)
	if err != nil {
		s.setLastError(err)
		return fmt.Errorf("loading stages: %w", err)
	}

	page, err := s.remote.Search(ctx, remote.SearchCriteria{}, remote.Pagination{Page: 1, PerPage: 500})
	if err != nil {
		s.setLastError(err)
		return fmt.Errorf("loading deals: %w", err)
	}

	deals := make(map[string][]*models.Deal)
	for _, d := range page.Deals {
		deals[d.StageID] = append(deals[d.StageID], d)
	}
	board := models.NewBoard(stages, deals)

	s.mu.Lock()
	s.board = board
	s.totalCount = page.TotalCount
	s.lastErr = nil
	s.mu.Unlock()

	s.saveSnapshot()
	return nil
}

// RestoreBoard installs a previously cached board, used at startup when the
// API is unreachable. The total count is derived from the snapshot.
func (s *DealStore) RestoreBoard(board *models.Board) {
	if board == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = board
	s.totalCount = board.DealCount()
}

// saveSnapshot writes the confirmed board to the cache in the background.
// Cache failures are logged and swallowed; they never reach the user.
func (s *DealStore) saveSnapshot() {
	if s.snapshots == nil {
		return
	}
	board := s.BoardSnapshot()
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundOpTimeout)
		defer cancel()
		if err := s.snapshots.SaveBoard(ctx, s.pipelineID, board); err != nil {
			slog.Error("failed to cache board snapshot", "pipeline_id", s.pipelineID, "error", err)
		}
	}()
}

// ============================================================================
// READS
// ============================================================================

// BoardSnapshot returns a deep copy of the current board. Callers may read
// and mutate it freely; it never aliases store state.
func (s *DealStore) BoardSnapshot() *models.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Clone()
}

// Deal returns a copy of the deal with the given id.
func (s *DealStore) Deal(id string) (*models.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, _, _, err := s.board.Find(id)
	if err != nil {
		return nil, err
	}
	return d.Clone(), nil
}

// TotalCount returns the total number of deals the server reports for this
// pipeline, adjusted optimistically by pending creates and deletes.
func (s *DealStore) TotalCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalCount
}

// Loading reports whether a full board load is in progress.
func (s *DealStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError returns the most recent mutation or load failure, nil after a
// successful load.
func (s *DealStore) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// IsUpdating reports whether an update is in flight for the deal.
func (s *DealStore) IsUpdating(id string) bool {
	kind, ok := s.ops.kindOf(id)
	return ok && (kind == OpUpdate || kind == OpBulk)
}

// IsDeleting reports whether a delete is in flight for the deal.
func (s *DealStore) IsDeleting(id string) bool {
	kind, ok := s.ops.kindOf(id)
	return ok && kind == OpDelete
}

// IsMoving reports whether a stage move is in flight for the deal.
func (s *DealStore) IsMoving(id string) bool {
	kind, ok := s.ops.kindOf(id)
	return ok && kind == OpMove
}

// HasPending reports whether any mutation is in flight for the deal.
func (s *DealStore) HasPending(id string) bool {
	return s.ops.inFlight(id)
}

// setLastError records the most recent surfaced failure.
func (s *DealStore) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// ============================================================================
// SEARCH QUERY
// ============================================================================

// SetQuery sets the board filter query. Filtering is a view concern: the
// stored board membership is never touched, callers derive the filtered
// view from BoardSnapshot.
func (s *DealStore) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
}

// Query returns the current board filter query.
func (s *DealStore) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// ============================================================================
// SELECTION SET
// ============================================================================

// ToggleSelect adds or removes a deal id from the selection set.
func (s *DealStore) ToggleSelect(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selection[id]; ok {
		delete(s.selection, id)
	} else {
		s.selection[id] = struct{}{}
	}
}

// IsSelected reports whether the deal id is in the selection set.
func (s *DealStore) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selection[id]
	return ok
}

// Selected returns the ids currently selected, in no particular order.
func (s *DealStore) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.selection))
	for id := range s.selection {
		ids = append(ids, id)
	}
	return ids
}

// SelectedCount returns the size of the selection set.
func (s *DealStore) SelectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selection)
}

// ClearSelection empties the selection set.
func (s *DealStore) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = make(map[string]struct{})
}

// ============================================================================
// MUTATIONS
// ============================================================================

// Create inserts a placeholder deal at the end of the draft's stage
// immediately, then issues the remote create. On success the placeholder is
// replaced in place by the server's deal; on failure the placeholder is
// removed, the count restored, and the error returned for the form to react.
func (s *DealStore) Create(ctx context.Context, draft models.DealDraft) (*models.Deal, error) {
	placeholder := &models.Deal{
		ID:            localIDPrefix + uuid.NewString(),
		Title:         draft.Title,
		Description:   draft.Description,
		Amount:        draft.Amount,
		StageID:       draft.StageID,
		Status:        models.StatusOpen,
		OwnerName:     draft.OwnerName,
		ContactName:   draft.ContactName,
		OrgName:       draft.OrgName,
		ExpectedClose: draft.ExpectedClose,
	}

	release := s.ops.begin(OpCreate, placeholder.ID)
	defer release()

	s.mu.Lock()
	if stage := s.board.Stage(draft.StageID); stage != nil {
		placeholder.StageName = stage.Name
	}
	if err := s.board.Append(draft.StageID, placeholder); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.totalCount++
	s.mu.Unlock()

	created, err := s.remote.Create(ctx, draft)
	if err != nil {
		s.mu.Lock()
		_, _, _, removeErr := s.board.Remove(placeholder.ID)
		if removeErr != nil {
			slog.Error("placeholder vanished before rollback", "id", placeholder.ID, "error", removeErr)
		}
		s.totalCount--
		s.lastErr = err
		s.mu.Unlock()
		return nil, fmt.Errorf("creating deal: %w", err)
	}

	s.mu.Lock()
	_, stageID, pos, findErr := s.board.Find(placeholder.ID)
	if findErr == nil {
		s.board.Remove(placeholder.ID)
		// Honor the server's stage if it differs from where the placeholder sat.
		target := created.StageID
		if s.board.Stage(target) == nil {
			target = stageID
		}
		if target == stageID {
			_ = s.board.InsertAt(stageID, pos, created)
		} else {
			_ = s.board.Append(target, created)
		}
	}
	s.mu.Unlock()

	return created.Clone(), nil
}

// Update patches the deal optimistically and issues the remote update
// guarded by the deal's current revision. On success the server's deal
// replaces the local copy (server-computed fields come from the response,
// never from the patch). On failure the pre-patch snapshot is restored; a
// conflict additionally triggers a background re-fetch so the UI converges
// to current truth.
func (s *DealStore) Update(ctx context.Context, id string, patch models.DealPatch) (*models.Deal, error) {
	if id == "" {
		return nil, models.ErrMissingDealID
	}

	release := s.ops.begin(OpUpdate, id)
	defer release()

	s.mu.Lock()
	deal, _, _, err := s.board.Find(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	snapshot := deal.Clone()
	version := deal.Version
	patch.Apply(deal)
	s.mu.Unlock()

	updated, err := s.remote.Update(ctx, id, patch, version)
	if err != nil {
		s.mu.Lock()
		if restoreErr := s.board.Replace(snapshot); restoreErr != nil {
			slog.Error("failed to restore deal after update failure", "id", id, "error", restoreErr)
		}
		s.lastErr = err
		s.mu.Unlock()

		if remote.Classify(err) == remote.CategoryConflict {
			s.refetchInBackground(id)
		}
		return nil, fmt.Errorf("updating deal: %w", err)
	}

	s.mu.Lock()
	if replaceErr := s.board.Replace(updated); replaceErr != nil {
		slog.Error("updated deal missing from board", "id", id, "error", replaceErr)
	}
	s.mu.Unlock()

	return updated.Clone(), nil
}

// Delete removes the deal immediately and issues the remote delete. On
// failure the deal is deliberately NOT restored - delete intent is treated
// as idempotent - but the error is still surfaced to the caller.
func (s *DealStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return models.ErrMissingDealID
	}

	release := s.ops.begin(OpDelete, id)
	defer release()

	s.mu.Lock()
	_, _, _, err := s.board.Remove(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.selection, id)
	s.totalCount--
	s.mu.Unlock()

	if err := s.remote.Delete(ctx, id); err != nil {
		s.setLastError(err)
		return fmt.Errorf("deleting deal: %w", err)
	}
	return nil
}

// MoveToStage relocates the deal to the end of the destination stage
// immediately and issues the remote move. On success the server's deal -
// with its re-derived stage name and probability - replaces the moved copy.
// On failure the deal returns to its origin stage at its original position.
func (s *DealStore) MoveToStage(ctx context.Context, id, toStageID string) (*models.Deal, error) {
	if id == "" {
		return nil, models.ErrMissingDealID
	}

	release := s.ops.begin(OpMove, id)
	defer release()

	s.mu.Lock()
	fromStageID, fromPos, err := s.board.MoveToStage(id, toStageID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if stage := s.board.Stage(toStageID); stage != nil {
		if d, _, _, findErr := s.board.Find(id); findErr == nil {
			d.StageName = stage.Name
		}
	}
	s.mu.Unlock()

	moved, err := s.remote.MoveToStage(ctx, id, fromStageID, toStageID)
	if err != nil {
		s.mu.Lock()
		d, _, _, findErr := s.board.Find(id)
		if findErr == nil {
			s.board.Remove(id)
			if insertErr := s.board.InsertAt(fromStageID, fromPos, d); insertErr != nil {
				slog.Error("failed to restore deal position after move failure", "id", id, "error", insertErr)
			}
		}
		s.lastErr = err
		s.mu.Unlock()
		return nil, fmt.Errorf("moving deal: %w", err)
	}

	s.mu.Lock()
	if replaceErr := s.board.Replace(moved); replaceErr != nil {
		slog.Error("moved deal missing from board", "id", id, "error", replaceErr)
	}
	s.mu.Unlock()

	return moved.Clone(), nil
}

// ============================================================================
// BULK MUTATIONS
// ============================================================================

// BulkUpdate applies the patch optimistically to every listed deal and
// issues one remote bulk call. Successes reported by the server are never
// rolled back; the entries the server reports as failed are restored and
// re-fetched in the background. The selection set is cleared on completion
// regardless of partial failure.
func (s *DealStore) BulkUpdate(ctx context.Context, ids []string, patch models.DealPatch) (*remote.BulkResult, error) {
	if len(ids) == 0 {
		return &remote.BulkResult{}, nil
	}

	release := s.ops.begin(OpBulk, ids...)
	defer release()
	defer s.ClearSelection()

	s.mu.Lock()
	snapshots := make(map[string]*models.Deal, len(ids))
	for _, id := range ids {
		deal, _, _, err := s.board.Find(id)
		if err != nil {
			continue
		}
		snapshots[id] = deal.Clone()
		patch.Apply(deal)
	}
	s.mu.Unlock()

	result, err := s.remote.BulkUpdate(ctx, ids, patch)
	if err != nil {
		// Whole call failed: every member rolls back.
		s.mu.Lock()
		for _, snapshot := range snapshots {
			if restoreErr := s.board.Replace(snapshot); restoreErr != nil {
				slog.Error("failed to restore deal after bulk failure", "id", snapshot.ID, "error", restoreErr)
			}
		}
		s.lastErr = err
		s.mu.Unlock()
		return nil, fmt.Errorf("bulk update: %w", err)
	}

	// Partial failure: reconcile only what the server reports as failed.
	for _, id := range result.FailedIDs {
		if snapshot, ok := snapshots[id]; ok {
			s.mu.Lock()
			if restoreErr := s.board.Replace(snapshot); restoreErr != nil {
				slog.Error("failed to restore bulk-failed deal", "id", id, "error", restoreErr)
			}
			s.mu.Unlock()
			s.refetchInBackground(id)
		}
	}

	return result, nil
}

// bulkRemoval records where a deal sat before an optimistic bulk delete so
// it can be reinserted exactly on rollback.
type bulkRemoval struct {
	deal    *models.Deal
	stageID string
	pos     int
}

// BulkDelete removes every listed deal optimistically and reconciles the
// count against the server's authoritative result. Deals the server reports
// as failed are reinserted and re-fetched. The selection set is cleared on
// completion regardless of partial failure.
func (s *DealStore) BulkDelete(ctx context.Context, ids []string) (*remote.BulkResult, error) {
	if len(ids) == 0 {
		return &remote.BulkResult{}, nil
	}

	release := s.ops.begin(OpBulk, ids...)
	defer release()
	defer s.ClearSelection()

	s.mu.Lock()
	removals := make([]bulkRemoval, 0, len(ids))
	byID := make(map[string]bulkRemoval, len(ids))
	for _, id := range ids {
		deal, stageID, pos, err := s.board.Remove(id)
		if err != nil {
			continue
		}
		r := bulkRemoval{deal: deal, stageID: stageID, pos: pos}
		removals = append(removals, r)
		byID[id] = r
		delete(s.selection, id)
		s.totalCount--
	}
	s.mu.Unlock()

	result, err := s.remote.BulkDelete(ctx, ids)
	if err != nil {
		// Whole call failed: reinsert in reverse removal order so recorded
		// positions land back exactly where they were.
		s.mu.Lock()
		for i := len(removals) - 1; i >= 0; i-- {
			r := removals[i]
			if insertErr := s.board.InsertAt(r.stageID, r.pos, r.deal); insertErr != nil {
				slog.Error("failed to restore deal after bulk delete failure", "id", r.deal.ID, "error", insertErr)
			}
			s.totalCount++
		}
		s.lastErr = err
		s.mu.Unlock()
		return nil, fmt.Errorf("bulk delete: %w", err)
	}

	for _, id := range result.FailedIDs {
		if r, ok := byID[id]; ok {
			s.mu.Lock()
			if insertErr := s.board.InsertAt(r.stageID, r.pos, r.deal); insertErr != nil {
				slog.Error("failed to restore bulk-failed deal", "id", id, "error", insertErr)
			}
			s.totalCount++
			s.mu.Unlock()
			s.refetchInBackground(id)
		}
	}

	return result, nil
}

// ============================================================================
// EVENT MERGING
// ============================================================================

// ApplyDealUpsert merges a pushed deal into the board: unknown deals are
// appended to their stage, known deals are replaced - unless that deal has
// a mutation in flight, in which case the pending operation's reconciliation
// wins and the event is dropped.
func (s *DealStore) ApplyDealUpsert(deal *models.Deal) {
	if deal == nil || deal.ID == "" {
		return
	}
	if s.ops.inFlight(deal.ID) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board.Contains(deal.ID) {
		if err := s.board.Replace(deal.Clone()); err != nil {
			slog.Error("failed to merge pushed deal", "id", deal.ID, "error", err)
		}
		return
	}
	if err := s.board.Append(deal.StageID, deal.Clone()); err != nil {
		slog.Error("pushed deal references unknown stage", "id", deal.ID, "stage_id", deal.StageID, "error", err)
		return
	}
	s.totalCount++
}

// ApplyDealDelete removes a deal deleted elsewhere. Ignored while a local
// mutation for the same deal is pending.
func (s *DealStore) ApplyDealDelete(id string) {
	if id == "" || s.ops.inFlight(id) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, _, err := s.board.Remove(id); err == nil {
		delete(s.selection, id)
		s.totalCount--
	}
}

// ============================================================================
// BACKGROUND RECONCILIATION
// ============================================================================

// refetchInBackground fetches the server's current copy of a deal and
// replaces the local one. Used after conflicts and bulk partial failures.
// Failures are logged and swallowed - this is a best-effort convergence
// path, the user already saw exactly one error for the action.
func (s *DealStore) refetchInBackground(id string) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()

		// Wait for the failing operation (and anything queued behind it) to
		// resolve before merging, so the fetched truth lands last.
		l := s.ops.lockFor(id)
		l.Lock()
		defer l.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), backgroundOpTimeout)
		defer cancel()

		deal, err := s.remote.GetByID(ctx, id)
		if err != nil {
			if remote.Classify(err) == remote.CategoryNotFound {
				s.ApplyDealDelete(id)
				return
			}
			slog.Error("background re-fetch failed", "id", id, "error", err)
			return
		}
		s.ApplyDealUpsert(deal)
	}()
}

// WaitBackground blocks until all background reconciliation finishes.
// Used on shutdown and by tests that need deterministic convergence.
func (s *DealStore) WaitBackground() {
	s.bg.Wait()
}
