package memory

import (
	"context"

	"github.com/hupe1980/agentgraph/core"
)

// Store loads and saves the message history of a conversation.
type Store interface {
	// Load returns the saved history, or an empty slice when none exists.
	Load(ctx context.Context, conversationID string) ([]core.Message, error)

	// Save replaces the saved history.
	Save(ctx context.Context, conversationID string, msgs []core.Message) error
}

// DefaultConversation is the id used when the caller has a single conversation.
const DefaultConversation = "default"

func cloneMessages(msgs []core.Message) []core.Message {
	out := make([]core.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}

	return out
}
