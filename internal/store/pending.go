package store

import (
	"sort"
	"sync"
	"time"
)

// OpKind identifies the kind of in-flight mutation.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
	OpMove   OpKind = "move"
	OpBulk   OpKind = "bulk"
)

// PendingOp describes one in-flight mutation: what it is and which records
// it touches. The rollback snapshot lives on the operation's own stack; this
// record exists so the UI can show per-record pending flags.
type PendingOp struct {
	Kind      OpKind
	IDs       []string
	StartedAt time.Time
}

// opTracker serializes mutations per record id and tracks what is in
// flight. Acquiring an id that already has a pending operation blocks until
// that operation resolves, so an older operation's rollback can never
// overwrite a newer operation's state. Different ids proceed concurrently.
type opTracker struct {
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	pending map[string]*PendingOp
}

func newOpTracker() *opTracker {
	return &opTracker{
		locks:   make(map[string]*sync.Mutex),
		pending: make(map[string]*PendingOp),
	}
}

// lockFor returns the serialization mutex for an id, creating it lazily.
func (t *opTracker) lockFor(id string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}

// begin acquires the serialization lock for every id and registers the
// pending operation. Ids are locked in sorted order so two overlapping bulk
// operations cannot deadlock. The returned release func unregisters the
// operation and unlocks.
func (t *opTracker) begin(kind OpKind, ids ...string) (release func()) {
	sorted := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	held := make([]*sync.Mutex, len(sorted))
	for i, id := range sorted {
		held[i] = t.lockFor(id)
		held[i].Lock()
	}

	op := &PendingOp{Kind: kind, IDs: sorted, StartedAt: time.Now()}
	t.mu.Lock()
	for _, id := range sorted {
		t.pending[id] = op
	}
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		for _, id := range sorted {
			delete(t.pending, id)
		}
		t.mu.Unlock()
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// kindOf returns the kind of the operation currently in flight for id.
func (t *opTracker) kindOf(id string) (OpKind, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.pending[id]
	if !ok {
		return "", false
	}
	return op.Kind, true
}

// inFlight reports whether any operation is pending for id.
func (t *opTracker) inFlight(id string) bool {
	_, ok := t.kindOf(id)
	return ok
}
