package remote

import (
	"time"

	"github.com/aldema/pipeboard/internal/models"
)

// Wire representations of the CRM REST API. Kept separate from the domain
// models so server field renames stay contained here.

type dealDTO struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	AmountCents   int64     `json:"amount_cents"`
	StageID       string    `json:"stage_id"`
	StageName     string    `json:"stage_name"`
	Position      int       `json:"position"`
	Status        string    `json:"status"`
	Probability   int       `json:"probability"`
	Version       int64     `json:"version"`
	OwnerName     string    `json:"owner_name"`
	ContactName   string    `json:"contact_name"`
	OrgName       string    `json:"org_name"`
	ExpectedClose time.Time `json:"expected_close"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (d *dealDTO) toModel() *models.Deal {
	return &models.Deal{
		ID:            d.ID,
		Title:         d.Title,
		Description:   d.Description,
		Amount:        d.AmountCents,
		StageID:       d.StageID,
		StageName:     d.StageName,
		Position:      d.Position,
		Status:        models.DealStatus(d.Status),
		Probability:   d.Probability,
		Version:       d.Version,
		OwnerName:     d.OwnerName,
		ContactName:   d.ContactName,
		OrgName:       d.OrgName,
		ExpectedClose: d.ExpectedClose,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type stageDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
}

func (s *stageDTO) toModel() *models.Stage {
	return &models.Stage{ID: s.ID, Name: s.Name, DisplayOrder: s.DisplayOrder}
}

type notificationDTO struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	DealID    string    `json:"deal_id"`
	IsRead    bool      `json:"is_read"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *notificationDTO) toModel() *models.Notification {
	return &models.Notification{
		ID:        n.ID,
		Kind:      models.NotificationKind(n.Kind),
		Message:   n.Message,
		DealID:    n.DealID,
		IsRead:    n.IsRead,
		Version:   n.Version,
		CreatedAt: n.CreatedAt,
	}
}

type dealPageDTO struct {
	Deals      []*dealDTO `json:"deals"`
	TotalCount int        `json:"total_count"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
}

type notificationPageDTO struct {
	Notifications []*notificationDTO `json:"notifications"`
	TotalCount    int                `json:"total_count"`
	UnreadCount   int                `json:"unread_count"`
	Page          int                `json:"page"`
	TotalPages    int                `json:"total_pages"`
}

type bulkResultDTO struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids"`
}

func (b *bulkResultDTO) toModel() *BulkResult {
	return &BulkResult{Succeeded: b.Succeeded, Failed: b.Failed, FailedIDs: b.FailedIDs}
}

// patchDTO serializes only the fields present in a DealPatch.
type patchDTO struct {
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	AmountCents   *int64     `json:"amount_cents,omitempty"`
	Status        *string    `json:"status,omitempty"`
	OwnerName     *string    `json:"owner_name,omitempty"`
	ContactName   *string    `json:"contact_name,omitempty"`
	OrgName       *string    `json:"org_name,omitempty"`
	ExpectedClose *time.Time `json:"expected_close,omitempty"`
}

func patchToDTO(p models.DealPatch) patchDTO {
	dto := patchDTO{
		Title:         p.Title,
		Description:   p.Description,
		AmountCents:   p.Amount,
		OwnerName:     p.OwnerName,
		ContactName:   p.ContactName,
		OrgName:       p.OrgName,
		ExpectedClose: p.ExpectedClose,
	}
	if p.Status != nil {
		s := string(*p.Status)
		dto.Status = &s
	}
	return dto
}

type draftDTO struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	AmountCents   int64     `json:"amount_cents"`
	StageID       string    `json:"stage_id"`
	OwnerName     string    `json:"owner_name"`
	ContactName   string    `json:"contact_name"`
	OrgName       string    `json:"org_name"`
	ExpectedClose time.Time `json:"expected_close"`
}

func draftToDTO(d models.DealDraft) draftDTO {
	return draftDTO{
		Title:         d.Title,
		Description:   d.Description,
		AmountCents:   d.Amount,
		StageID:       d.StageID,
		OwnerName:     d.OwnerName,
		ContactName:   d.ContactName,
		OrgName:       d.OrgName,
		ExpectedClose: d.ExpectedClose,
	}
}
