package events

import (
	"time"

	"github.com/aldema/pipeboard/internal/models"
)

// Type indicates what kind of change a pushed event describes.
type Type string

const (
	TypeDealCreated         Type = "deal.created"
	TypeDealUpdated         Type = "deal.updated"
	TypeDealMoved           Type = "deal.moved"
	TypeDealDeleted         Type = "deal.deleted"
	TypeNotificationCreated Type = "notification.created"
	TypeNotificationRead    Type = "notification.read"
)

// Event is one pushed change. SequenceID increases monotonically per
// connection; the client drops anything at or below the last sequence it
// delivered, so server redelivery never double-applies.
type Event struct {
	Type       Type      `json:"type"`
	SequenceID int64     `json:"sequence_id"`
	Timestamp  time.Time `json:"timestamp"`

	Deal         *DealPayload         `json:"deal,omitempty"`
	Notification *NotificationPayload `json:"notification,omitempty"`
}

// DealPayload is the deal attached to deal.* events.
type DealPayload struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Amount        int64     `json:"amount"`
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

// ToModel converts the payload to the domain deal.
func (p *DealPayload) ToModel() *models.Deal {
	if p == nil {
		return nil
	}
	return &models.Deal{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Amount:        p.Amount,
		StageID:       p.StageID,
		StageName:     p.StageName,
		Position:      p.Position,
		Status:        models.DealStatus(p.Status),
		Probability:   p.Probability,
		Version:       p.Version,
		OwnerName:     p.OwnerName,
		ContactName:   p.ContactName,
		OrgName:       p.OrgName,
		ExpectedClose: p.ExpectedClose,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// NotificationPayload is the record attached to notification.* events.
type NotificationPayload struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	DealID    string    `json:"deal_id"`
	IsRead    bool      `json:"is_read"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// ToModel converts the payload to the domain notification.
func (p *NotificationPayload) ToModel() *models.Notification {
	if p == nil {
		return nil
	}
	return &models.Notification{
		ID:        p.ID,
		Kind:      models.NotificationKind(p.Kind),
		Message:   p.Message,
		DealID:    p.DealID,
		IsRead:    p.IsRead,
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
	}
}

// SubscribeMessage selects which pipeline's events the connection receives.
// An empty pipeline id subscribes to everything the token can see.
type SubscribeMessage struct {
	PipelineID string `json:"pipeline_id"`
}

// Message is the wire envelope. Type is "event", "subscribe", "ping" or
// "pong"; exactly one of the optional fields is set for "event" and
// "subscribe".
type Message struct {
	Type      string            `json:"type"`
	Event     *Event            `json:"event,omitempty"`
	Subscribe *SubscribeMessage `json:"subscribe,omitempty"`
}
