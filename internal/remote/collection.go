package remote

import (
	"context"

	"github.com/aldema/pipeboard/internal/models"
)

// SearchCriteria narrows a deal search.
type SearchCriteria struct {
	Query   string
	StageID string
	Status  models.DealStatus
}

// Pagination selects one page of a collection.
type Pagination struct {
	Page    int
	PerPage int
}

// DealPage is one page of search results.
type DealPage struct {
	Deals      []*models.Deal
	TotalCount int
	Page       int
	TotalPages int
}

// NotificationPage is one page of the notification inbox.
type NotificationPage struct {
	Notifications []*models.Notification
	TotalCount    int
	UnreadCount   int
	Page          int
	TotalPages    int
}

// BulkResult reports the server's authoritative outcome of a bulk call.
// FailedIDs identifies the members that did not apply; the client reconciles
// only those and never rolls back the successes.
type BulkResult struct {
	Succeeded int
	Failed    int
	FailedIDs []string
}

// Collection is the remote CRM resource the stores mutate against.
// Implementations must return *Error values so failures classify cleanly.
type Collection interface {
	// Board definition and population
	Stages(ctx context.Context, pipelineID string) ([]*models.Stage, error)
	Search(ctx context.Context, criteria SearchCriteria, page Pagination) (*DealPage, error)
	GetByID(ctx context.Context, id string) (*models.Deal, error)

	// Single-deal mutations
	Create(ctx context.Context, draft models.DealDraft) (*models.Deal, error)
	// Update fails with a conflict-category error when expectedVersion does
	// not match the server's current revision of the deal.
	Update(ctx context.Context, id string, patch models.DealPatch, expectedVersion int64) (*models.Deal, error)
	Delete(ctx context.Context, id string) error
	MoveToStage(ctx context.Context, dealID, fromStageID, toStageID string) (*models.Deal, error)

	// Bulk mutations
	BulkUpdate(ctx context.Context, ids []string, patch models.DealPatch) (*BulkResult, error)
	BulkDelete(ctx context.Context, ids []string) (*BulkResult, error)

	// Notification inbox
	Notifications(ctx context.Context, page Pagination) (*NotificationPage, error)
	MarkRead(ctx context.Context, id string, read bool) (*models.Notification, error)
	MarkAllRead(ctx context.Context) (*BulkResult, error)
}
