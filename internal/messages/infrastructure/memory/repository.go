package memory

import (
	"context"
	"sort"
	"sync"

	messages "bustrack/internal/messages/domain"
)

// Repository keeps contact messages in process memory.
type Repository struct {
	mu    sync.RWMutex
	items map[string]messages.Message
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{items: make(map[string]messages.Message)}
}

// Save inserts or replaces a message.
func (r *Repository) Save(_ context.Context, msg messages.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[msg.ID] = msg
	return nil
}

// List returns messages newest first.
func (r *Repository) List(_ context.Context) ([]messages.Message, error) {
	r.mu.RLock()
	out := make([]messages.Message, 0, len(r.items))
	for _, msg := range r.items {
		out = append(out, msg)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get returns a message or nil when absent.
func (r *Repository) Get(_ context.Context, id string) (*messages.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &msg, nil
}

// Delete removes a message.
func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return messages.ErrNotFound
	}
	delete(r.items, id)
	return nil
}
