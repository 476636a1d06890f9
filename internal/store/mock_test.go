package store

import (
	"context"
	"net/http"
	"sync"

	"github.com/aldema/pipeboard/internal/models"
	"github.com/aldema/pipeboard/internal/remote"
)

// fakeCollection is a scriptable in-memory remote.Collection. Each method
// delegates to the matching Fn when set and otherwise succeeds by echoing
// its input, so tests only script the calls they care about.
type fakeCollection struct {
	mu    sync.Mutex
	calls []string

	StagesFn        func(ctx context.Context, pipelineID string) ([]*models.Stage, error)
	SearchFn        func(ctx context.Context, criteria remote.SearchCriteria, page remote.Pagination) (*remote.DealPage, error)
	GetByIDFn       func(ctx context.Context, id string) (*models.Deal, error)
	CreateFn        func(ctx context.Context, draft models.DealDraft) (*models.Deal, error)
	UpdateFn        func(ctx context.Context, id string, patch models.DealPatch, expectedVersion int64) (*models.Deal, error)
	DeleteFn        func(ctx context.Context, id string) error
	MoveToStageFn   func(ctx context.Context, dealID, fromStageID, toStageID string) (*models.Deal, error)
	BulkUpdateFn    func(ctx context.Context, ids []string, patch models.DealPatch) (*remote.BulkResult, error)
	BulkDeleteFn    func(ctx context.Context, ids []string) (*remote.BulkResult, error)
	NotificationsFn func(ctx context.Context, page remote.Pagination) (*remote.NotificationPage, error)
	MarkReadFn      func(ctx context.Context, id string, read bool) (*models.Notification, error)
	MarkAllReadFn   func(ctx context.Context) (*remote.BulkResult, error)
}

// record notes a call for assertions on call counts and ordering.
func (f *fakeCollection) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

// callCount returns how many times the named method ran.
func (f *fakeCollection) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

// conflictErr builds a conflict-category error like the HTTP client would.
func conflictErr(op string) error {
	return &remote.Error{Op: op, Category: remote.CategoryConflict, Severity: remote.SeverityMedium, Message: "version mismatch", StatusCode: http.StatusConflict}
}

// validationErr builds a validation-category error (never retried).
func validationErr(op string) error {
	return &remote.Error{Op: op, Category: remote.CategoryValidation, Severity: remote.SeverityLow, Message: "invalid", StatusCode: http.StatusUnprocessableEntity}
}

// serverErr builds a server_error-category error.
func serverErr(op string) error {
	return &remote.Error{Op: op, Category: remote.CategoryServerError, Severity: remote.SeverityHigh, Message: "boom", StatusCode: http.StatusInternalServerError}
}

func (f *fakeCollection) Stages(ctx context.Context, pipelineID string) ([]*models.Stage, error) {
	f.record("stages")
	if f.StagesFn != nil {
		return f.StagesFn(ctx, pipelineID)
	}
	return nil, nil
}

func (f *fakeCollection) Search(ctx context.Context, criteria remote.SearchCriteria, page remote.Pagination) (*remote.DealPage, error) {
	f.record("search")
	if f.SearchFn != nil {
		return f.SearchFn(ctx, criteria, page)
	}
	return &remote.DealPage{}, nil
}

func (f *fakeCollection) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	f.record("get")
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return &models.Deal{ID: id}, nil
}

func (f *fakeCollection) Create(ctx context.Context, draft models.DealDraft) (*models.Deal, error) {
	f.record("create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, draft)
	}
	return &models.Deal{
		ID: "srv-1", Title: draft.Title, StageID: draft.StageID,
		Status: models.StatusOpen, Version: 1,
	}, nil
}

func (f *fakeCollection) Update(ctx context.Context, id string, patch models.DealPatch, expectedVersion int64) (*models.Deal, error) {
	f.record("update")
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, id, patch, expectedVersion)
	}
	d := &models.Deal{ID: id, Version: expectedVersion + 1}
	patch.Apply(d)
	return d, nil
}

func (f *fakeCollection) Delete(ctx context.Context, id string) error {
	f.record("delete")
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func (f *fakeCollection) MoveToStage(ctx context.Context, dealID, fromStageID, toStageID string) (*models.Deal, error) {
	f.record("move")
	if f.MoveToStageFn != nil {
		return f.MoveToStageFn(ctx, dealID, fromStageID, toStageID)
	}
	return &models.Deal{ID: dealID, StageID: toStageID, Version: 2}, nil
}

func (f *fakeCollection) BulkUpdate(ctx context.Context, ids []string, patch models.DealPatch) (*remote.BulkResult, error) {
	f.record("bulk_update")
	if f.BulkUpdateFn != nil {
		return f.BulkUpdateFn(ctx, ids, patch)
	}
	return &remote.BulkResult{Succeeded: len(ids)}, nil
}

func (f *fakeCollection) BulkDelete(ctx context.Context, ids []string) (*remote.BulkResult, error) {
	f.record("bulk_delete")
	if f.BulkDeleteFn != nil {
		return f.BulkDeleteFn(ctx, ids)
	}
	return &remote.BulkResult{Succeeded: len(ids)}, nil
}

func (f *fakeCollection) Notifications(ctx context.Context, page remote.Pagination) (*remote.NotificationPage, error) {
	f.record("notifications")
	if f.NotificationsFn != nil {
		return f.NotificationsFn(ctx, page)
	}
	return &remote.NotificationPage{}, nil
}

func (f *fakeCollection) MarkRead(ctx context.Context, id string, read bool) (*models.Notification, error) {
	f.record("mark_read")
	if f.MarkReadFn != nil {
		return f.MarkReadFn(ctx, id, read)
	}
	return &models.Notification{ID: id, IsRead: read}, nil
}

func (f *fakeCollection) MarkAllRead(ctx context.Context) (*remote.BulkResult, error) {
	f.record("mark_all_read")
	if f.MarkAllReadFn != nil {
		return f.MarkAllReadFn(ctx)
	}
	return &remote.BulkResult{}, nil
}
