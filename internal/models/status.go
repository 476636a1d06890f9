package models

// DealStatus represents the lifecycle state of a deal
type DealStatus string

const (
	StatusOpen DealStatus = "open"
	StatusWon  DealStatus = "won"
	StatusLost DealStatus = "lost"
)

// Valid reports whether s is one of the known statuses.
func (s DealStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusWon, StatusLost:
		return true
	}
	return false
}

// NotificationKind indicates what a notification is about
type NotificationKind string

const (
	NotificationDealAssigned NotificationKind = "deal_assigned"
	NotificationDealMoved    NotificationKind = "deal_moved"
	NotificationDealWon      NotificationKind = "deal_won"
	NotificationMention      NotificationKind = "mention"
)
