package memory

import (
	"context"
	"sync"

	"github.com/hupe1980/agentgraph/core"
)

// InMemoryStore is a process-local Store. Loaded and saved slices are
// copies, so callers never share message backing arrays with the store.
type InMemoryStore struct {
	mu      sync.RWMutex
	history map[string][]core.Message // conversationID -> messages
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{history: make(map[string][]core.Message)}
}

// Load implements Store.
func (m *InMemoryStore) Load(_ context.Context, conversationID string) ([]core.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return cloneMessages(m.history[conversationID]), nil
}

// Save implements Store.
func (m *InMemoryStore) Save(_ context.Context, conversationID string, msgs []core.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history[conversationID] = cloneMessages(msgs)

	return nil
}

// Delete forgets a conversation.
func (m *InMemoryStore) Delete(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.history, conversationID)
}
