package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aldema/pipeboard/internal/models"
)

// HTTPClient implements Collection against the CRM REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewHTTPClient creates a client for the API at baseURL. A zero timeout
// falls back to 15 seconds.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken sets the bearer token attached to every request.
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// errorBody is the API's error envelope.
type errorBody struct {
	Message string `json:"message"`
}

// do performs one HTTP round trip with retry per the failure category.
// The decoded response body is written into out when out is non-nil.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return newError(op, CategoryUnknown, 0, "could not encode request", err)
		}
	}

	return Do(ctx, op, func(ctx context.Context) error {
		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return newError(op, CategoryUnknown, 0, "could not build request", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return newError(op, Classify(err), 0, "request failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return c.statusError(op, resp)
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return newError(op, CategoryUnknown, resp.StatusCode, "could not decode response", err)
			}
		}
		return nil
	})
}

// statusError maps an HTTP error status to a classified error.
func (c *HTTPClient) statusError(op string, resp *http.Response) *Error {
	var eb errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&eb)

	cat := categoryForStatus(resp.StatusCode)
	msg := eb.Message
	if msg == "" {
		msg = fmt.Sprintf("server returned %s", resp.Status)
	}
	return newError(op, cat, resp.StatusCode, msg, nil)
}

// categoryForStatus maps HTTP status codes onto the failure taxonomy.
func categoryForStatus(code int) Category {
	switch {
	case code == http.StatusUnauthorized:
		return CategoryAuthentication
	case code == http.StatusForbidden:
		return CategoryAuthorization
	case code == http.StatusNotFound:
		return CategoryNotFound
	case code == http.StatusConflict:
		return CategoryConflict
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests:
		return CategoryTimeout
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return CategoryValidation
	case code >= 500:
		return CategoryServerError
	}
	return CategoryUnknown
}

// Stages fetches the stage definitions of a pipeline.
func (c *HTTPClient) Stages(ctx context.Context, pipelineID string) ([]*models.Stage, error) {
	var dtos []*stageDTO
	path := "/api/pipelines/" + url.PathEscape(pipelineID) + "/stages"
	if err := c.do(ctx, "stages.list", http.MethodGet, path, nil, nil, &dtos); err != nil {
		return nil, err
	}
	stages := make([]*models.Stage, len(dtos))
	for i, dto := range dtos {
		stages[i] = dto.toModel()
	}
	return stages, nil
}

// Search fetches one page of deals matching the criteria.
func (c *HTTPClient) Search(ctx context.Context, criteria SearchCriteria, page Pagination) (*DealPage, error) {
	q := url.Values{}
	if criteria.Query != "" {
		q.Set("q", criteria.Query)
	}
	if criteria.StageID != "" {
		q.Set("stage_id", criteria.StageID)
	}
	if criteria.Status != "" {
		q.Set("status", string(criteria.Status))
	}
	if page.Page > 0 {
		q.Set("page", strconv.Itoa(page.Page))
	}
	if page.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(page.PerPage))
	}

	var dto dealPageDTO
	if err := c.do(ctx, "deals.search", http.MethodGet, "/api/deals", q, nil, &dto); err != nil {
		return nil, err
	}
	deals := make([]*models.Deal, len(dto.Deals))
	for i, d := range dto.Deals {
		deals[i] = d.toModel()
	}
	return &DealPage{
		Deals:      deals,
		TotalCount: dto.TotalCount,
		Page:       dto.Page,
		TotalPages: dto.TotalPages,
	}, nil
}

// GetByID fetches a single deal.
func (c *HTTPClient) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	var dto dealDTO
	path := "/api/deals/" + url.PathEscape(id)
	if err := c.do(ctx, "deals.get", http.MethodGet, path, nil, nil, &dto); err != nil {
		return nil, err
	}
	return dto.toModel(), nil
}

// Create creates a deal and returns the server's copy, including all
// server-assigned fields.
func (c *HTTPClient) Create(ctx context.Context, draft models.DealDraft) (*models.Deal, error) {
	var dto dealDTO
	if err := c.do(ctx, "deals.create", http.MethodPost, "/api/deals", nil, draftToDTO(draft), &dto); err != nil {
		return nil, err
	}
	return dto.toModel(), nil
}

// updateBody carries a patch plus the compare-and-swap revision token.
type updateBody struct {
	Patch           patchDTO `json:"patch"`
	ExpectedVersion int64    `json:"expected_version"`
}

// Update applies a patch guarded by the expected revision. A stale
// expectedVersion comes back as 409 and classifies as conflict.
func (c *HTTPClient) Update(ctx context.Context, id string, patch models.DealPatch, expectedVersion int64) (*models.Deal, error) {
	var dto dealDTO
	path := "/api/deals/" + url.PathEscape(id)
	body := updateBody{Patch: patchToDTO(patch), ExpectedVersion: expectedVersion}
	if err := c.do(ctx, "deals.update", http.MethodPatch, path, nil, body, &dto); err != nil {
		return nil, err
	}
	return dto.toModel(), nil
}

// Delete removes a deal.
func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	path := "/api/deals/" + url.PathEscape(id)
	return c.do(ctx, "deals.delete", http.MethodDelete, path, nil, nil, nil)
}

// moveBody is the payload of a stage-transition request.
type moveBody struct {
	FromStageID string `json:"from_stage_id"`
	ToStageID   string `json:"to_stage_id"`
}

// MoveToStage asks the server to transition the deal and returns the
// authoritative deal with its re-derived denormalized fields.
func (c *HTTPClient) MoveToStage(ctx context.Context, dealID, fromStageID, toStageID string) (*models.Deal, error) {
	var dto dealDTO
	path := "/api/deals/" + url.PathEscape(dealID) + "/move"
	body := moveBody{FromStageID: fromStageID, ToStageID: toStageID}
	if err := c.do(ctx, "deals.move", http.MethodPost, path, nil, body, &dto); err != nil {
		return nil, err
	}
	return dto.toModel(), nil
}

// bulkUpdateBody is the payload of a bulk patch request.
type bulkUpdateBody struct {
	IDs   []string `json:"ids"`
	Patch patchDTO `json:"patch"`
}

// BulkUpdate applies one patch to many deals in a single call.
func (c *HTTPClient) BulkUpdate(ctx context.Context, ids []string, patch models.DealPatch) (*BulkResult, error) {
	var dto bulkResultDTO
	body := bulkUpdateBody{IDs: ids, Patch: patchToDTO(patch)}
	if err := c.do(ctx, "deals.bulk_update", http.MethodPost, "/api/deals/bulk", nil, body, &dto); err != nil {
		return nil, err
	}
	return dto.toModel(), nil
}

// bulkDeleteBody is the payload of a bulk delete request.
type bulkDeleteBody struct {
	IDs []string `json:"ids"`
}

// BulkDelete removes many deals in a single call.
func (c *HTTPClient) BulkDelete(ctx context.Context, ids []string) (*BulkResult, error) {
	var dto bulkResultDTO
	if err := c.do(ctx, "deals.bulk_delete", http.MethodPost, "/api/deals/bulk-delete", nil, bulkDeleteBody{IDs: ids}, &dto); err != nil {
		return nil, err
	}
	return dto.toModel(), nil
}

// Notifications fetches one page of the notification inbox.
func (c *HTTPClient) Notifications(ctx context.Context, page Pagination) (*NotificationPage, error) {
	q := url.Values{}
	if page.Page > 0 {
		q.Set("page", strconv.Itoa(page.Page))
	}
	if page.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(page.PerPage))
	}

	var dto notificationPageDTO
	if err := c.do(ctx, "notifications.list", http.MethodGet, "/api/notifications", q, nil, &dto); err != nil {
		return nil, err
	}
	notifications := make([]*models.Notification, len(dto.Notifications))
	for i, n := range dto.Notifications {
		notifications[i] = n.toModel()
	}
	return &NotificationPage{
		Notifications: notifications,
		TotalCount:    dto.TotalCount,
		UnreadCount:   dto.UnreadCount,
		Page:          dto.Page,
		TotalPages:    dto.TotalPages,
	}, nil
}

// markReadBody is the payload of a read-flag toggle.
type markReadBody struct {
	Read bool `json:"read"`
}

// MarkRead sets the read flag of one notification.
func (c *HTTPClient) MarkRead(ctx context.Context, id string, read bool) (*models.Notification, error) {
	var dto notificationDTO
	path := "/api/notifications/" + url.PathEscape(id) + "/read"
	if err := c.do(ctx, "notifications.mark_read", http.MethodPost, path, nil, markReadBody{Read: read}, &dto); err != nil {
		return nil, err
	}
	return dto.toModel(), nil
}

// MarkAllRead marks the whole inbox read.
func (c *HTTPClient) MarkAllRead(ctx context.Context) (*BulkResult, error) {
	var dto bulkResultDTO
	if err := c.do(ctx, "notifications.mark_all_read", http.MethodPost, "/api/notifications/read-all", nil, nil, &dto); err != nil {
		return nil, err
	}
	return dto.toModel(), nil
}
