package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aldema/pipeboard/internal/models"
	"github.com/aldema/pipeboard/internal/remote"
)

// NotificationStore is the optimistic mutation store for the notification
// inbox. Read-flag toggles follow the same optimistic/rollback shape as
// deal updates, specialized for one boolean field: the unread counter is
// adjusted together with the flag and reversed exactly on failure.
type NotificationStore struct {
	remote remote.Collection

	mu      sync.RWMutex
	items   []*models.Notification
	unread  int
	lastErr error

	ops *opTracker
}

// NewNotificationStore creates an empty notification store.
func NewNotificationStore(collection remote.Collection) *NotificationStore {
	return &NotificationStore{
		remote: collection,
		ops:    newOpTracker(),
	}
}

// Load fetches the first page of the inbox and the server's unread count.
func (s *NotificationStore) Load(ctx context.Context) error {
	page, err := s.remote.Notifications(ctx, remote.Pagination{Page: 1, PerPage: 100})
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return fmt.Errorf("loading notifications: %w", err)
	}

	s.mu.Lock()
	s.items = page.Notifications
	s.unread = page.UnreadCount
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// All returns copies of the notifications, newest first.
func (s *NotificationStore) All() []*models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Notification, len(s.items))
	for i, n := range s.items {
		out[i] = n.Clone()
	}
	return out
}

// UnreadCount returns the unread aggregate, adjusted optimistically by
// pending flag toggles.
func (s *NotificationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// LastError returns the most recent surfaced failure.
func (s *NotificationStore) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// find returns the stored notification with the given id. Caller holds mu.
func (s *NotificationStore) find(id string) *models.Notification {
	for _, n := range s.items {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// MarkRead flags the notification read, decrementing the unread counter
// optimistically. On failure both the flag and the counter return to their
// prior values exactly.
func (s *NotificationStore) MarkRead(ctx context.Context, id string) error {
	return s.setRead(ctx, id, true)
}

// MarkUnread flags the notification unread, incrementing the unread counter
// optimistically, with the same rollback symmetry as MarkRead.
func (s *NotificationStore) MarkUnread(ctx context.Context, id string) error {
	return s.setRead(ctx, id, false)
}

// setRead is the shared optimistic toggle behind MarkRead/MarkUnread.
func (s *NotificationStore) setRead(ctx context.Context, id string, read bool) error {
	if id == "" {
		return models.ErrNotificationNotFound
	}

	release := s.ops.begin(OpUpdate, id)
	defer release()

	s.mu.Lock()
	n := s.find(id)
	if n == nil {
		s.mu.Unlock()
		return models.ErrNotificationNotFound
	}
	if n.IsRead == read {
		// Already in the requested state - nothing to do, nothing to send.
		s.mu.Unlock()
		return nil
	}
	snapshot := n.Clone()
	n.IsRead = read
	if read {
		s.unread--
	} else {
		s.unread++
	}
	s.mu.Unlock()

	updated, err := s.remote.MarkRead(ctx, id, read)
	if err != nil {
		s.mu.Lock()
		if cur := s.find(id); cur != nil {
			*cur = *snapshot
		}
		// Reverse the aggregate adjustment exactly.
		if read {
			s.unread++
		} else {
			s.unread--
		}
		s.lastErr = err
		s.mu.Unlock()
		return fmt.Errorf("marking notification: %w", err)
	}

	s.mu.Lock()
	if cur := s.find(id); cur != nil {
		*cur = *updated
	}
	s.mu.Unlock()
	return nil
}

// MarkAllRead flags the whole inbox read optimistically and reconciles
// against the server's result: ids the server reports as failed return to
// unread, and the counter converges to the server-confirmed remainder.
func (s *NotificationStore) MarkAllRead(ctx context.Context) (*remote.BulkResult, error) {
	s.mu.Lock()
	var flipped []string
	for _, n := range s.items {
		if !n.IsRead {
			flipped = append(flipped, n.ID)
		}
	}
	s.mu.Unlock()

	if len(flipped) == 0 {
		return &remote.BulkResult{}, nil
	}

	release := s.ops.begin(OpBulk, flipped...)
	defer release()

	// Flip exactly the collected ids. A notification pushed in since the
	// collection stays untouched, and the counter moves by the same delta
	// the flips produced so it can be reversed exactly.
	s.mu.Lock()
	applied := flipped[:0]
	for _, id := range flipped {
		if n := s.find(id); n != nil && !n.IsRead {
			n.IsRead = true
			applied = append(applied, id)
		}
	}
	flipped = applied
	s.unread -= len(flipped)
	s.mu.Unlock()

	result, err := s.remote.MarkAllRead(ctx)
	if err != nil {
		s.mu.Lock()
		for _, id := range flipped {
			if n := s.find(id); n != nil {
				n.IsRead = false
			}
		}
		s.unread += len(flipped)
		s.lastErr = err
		s.mu.Unlock()
		return nil, fmt.Errorf("marking all read: %w", err)
	}

	if len(result.FailedIDs) > 0 {
		s.mu.Lock()
		restored := 0
		for _, id := range result.FailedIDs {
			if n := s.find(id); n != nil && n.IsRead {
				n.IsRead = false
				restored++
			}
		}
		s.unread += restored
		s.mu.Unlock()
		slog.Warn("some notifications stayed unread", "failed", result.Failed)
	}

	return result, nil
}

// Prepend merges a pushed notification at the head of the inbox, bumping
// the unread counter when it arrives unread. Known ids are ignored -
// event redelivery must not double-count.
func (s *NotificationStore) Prepend(n *models.Notification) {
	if n == nil || n.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(n.ID) != nil {
		return
	}
	s.items = append([]*models.Notification{n.Clone()}, s.items...)
	if !n.IsRead {
		s.unread++
	}
}

// ApplyReadEvent merges a read-flag change made elsewhere (another device,
// the web app). Dropped while a local toggle for the same id is pending.
func (s *NotificationStore) ApplyReadEvent(id string, read bool) {
	if id == "" || s.ops.inFlight(id) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.find(id)
	if n == nil || n.IsRead == read {
		return
	}
	n.IsRead = read
	if read {
		s.unread--
	} else {
		s.unread++
	}
}
