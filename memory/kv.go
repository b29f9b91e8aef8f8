package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/kv"
)

// KVStore keeps each conversation as one msgpack record in a kv.Store.
type KVStore struct {
	store kv.Store
}

var _ Store = (*KVStore)(nil)

// NewKVStore wraps store.
func NewKVStore(store kv.Store) *KVStore { return &KVStore{store: store} }

func conversationKey(id string) kv.Key { return kv.Key{"memory", id} }

// Load implements Store.
func (s *KVStore) Load(ctx context.Context, conversationID string) ([]core.Message, error) {
	msgs, err := kv.GetValue[[]core.Message](ctx, s.store, conversationKey(conversationID))
	if errors.Is(err, kv.ErrNotFound) {
		return []core.Message{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("memory: load %s: %w", conversationID, err)
	}

	return msgs, nil
}

// Save implements Store.
func (s *KVStore) Save(ctx context.Context, conversationID string, msgs []core.Message) error {
	if err := kv.SetValue(ctx, s.store, conversationKey(conversationID), msgs); err != nil {
		return fmt.Errorf("memory: save %s: %w", conversationID, err)
	}

	return nil
}
