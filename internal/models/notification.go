package models

import "time"

// Notification is a single inbox entry shown in the notification panel
type Notification struct {
	ID        string
	Kind      NotificationKind
	Message   string
	DealID    string // optional - the deal this notification refers to
	IsRead    bool
	Version   int64
	CreatedAt time.Time
}

// Clone returns a copy of the notification for rollback snapshots.
func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}
