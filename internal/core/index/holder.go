package index

import (
	"sync"
	"sync/atomic"
	"time"
)

// Holder publishes snapshots. Loads are lock-free; updates are
// serialised so each new snapshot is derived from the latest one.
type Holder struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	now     func() time.Time
}

// NewHolder creates a holder with nothing published. Load returns nil
// until the first Update.
func NewHolder() *Holder {
	return &Holder{now: time.Now}
}

// Load returns the current snapshot, or nil if none has been published.
func (h *Holder) Load() *Snapshot {
	return h.current.Load()
}

// Update derives a new snapshot from the current one (or from Empty when
// nothing is published) and publishes it. If fn returns an error nothing
// is published.
func (h *Holder) Update(fn func(cur *Snapshot) (*Snapshot, error)) (*Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur := h.current.Load()
	base := cur
	if base == nil {
		base = Empty()
	}
	next, err := fn(base)
	if err != nil {
		return nil, err
	}
	if next == base {
		next = base.clone()
	}
	if cur != nil {
		next.generation = cur.generation + 1
	} else {
		next.generation = 1
	}
	next.builtAt = h.now()
	h.current.Store(next)
	return next, nil
}
