package dedup

import (
	"sync"

	"github.com/deusflow/newsrelay/internal/news"
)

// Checker answers whether an item id has not been delivered yet.
type Checker interface {
	IsNew(id string) bool
}

// Registry is the set of item ids already delivered. It lives for the whole
// process, only grows, and is safe for concurrent use by both cycles.
type Registry struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		items: make(map[string]struct{}),
	}
}

// IsNew reports whether id has never been marked as processed.
func (r *Registry) IsNew(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, seen := r.items[id]
	return !seen
}

// MarkProcessed records id as delivered. Marking twice is a no-op.
func (r *Registry) MarkProcessed(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[id] = struct{}{}
}

// MarkAll records every item of a delivered batch.
func (r *Registry) MarkAll(items []news.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, it := range items {
		r.items[it.ID] = struct{}{}
	}
}

// Filter keeps items that are new and drops repeated ids inside the batch,
// keeping the first occurrence.
func (r *Registry) Filter(items []news.Item) []news.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]news.Item, 0, len(items))
	batch := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, seen := r.items[it.ID]; seen {
			continue
		}
		if _, dup := batch[it.ID]; dup {
			continue
		}
		batch[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Len returns the number of processed ids.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
