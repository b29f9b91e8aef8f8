package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/memory"
)

// ConversationOptions configures a Conversation.
type ConversationOptions struct {
	// ID selects the stored conversation. Defaults to memory.DefaultConversation.
	ID string

	// Store persists the history. Nil keeps it in process only.
	Store memory.Store

	// HistoryLimit trims the carried history to the last n messages before
	// every turn. 0 keeps everything.
	HistoryLimit int

	// Stateless seeds every turn with only the new user message, like the
	// plain chat agent.
	Stateless bool
}

// Conversation drives an agent turn by turn, carrying the message history
// between turns. It is safe for concurrent use; turns are serialized.
type Conversation struct {
	mu    sync.Mutex
	agent *Agent
	opts  ConversationOptions
	state core.State
}

// NewConversation wraps a for multi-turn use.
func NewConversation(a *Agent, optFns ...func(o *ConversationOptions)) *Conversation {
	opts := ConversationOptions{ID: memory.DefaultConversation}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ID == "" {
		opts.ID = memory.DefaultConversation
	}

	return &Conversation{agent: a, opts: opts}
}

// Load replaces the carried history with the stored one.
func (c *Conversation) Load(ctx context.Context) error {
	if c.opts.Store == nil {
		return nil
	}

	msgs, err := c.opts.Store.Load(ctx, c.opts.ID)
	if err != nil {
		return fmt.Errorf("load conversation %s: %w", c.opts.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = core.NewState(msgs...)

	return nil
}

// Save writes the carried history to the store.
func (c *Conversation) Save(ctx context.Context) error {
	if c.opts.Store == nil {
		return nil
	}

	c.mu.Lock()
	msgs := c.state.Clone().Messages
	c.mu.Unlock()

	if err := c.opts.Store.Save(ctx, c.opts.ID, msgs); err != nil {
		return fmt.Errorf("save conversation %s: %w", c.opts.ID, err)
	}

	return nil
}

// Send runs one turn with input as the new user message. On error the
// carried history is left as it was before the turn.
func (c *Conversation) Send(ctx context.Context, input string) (graph.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seed := core.NewState()
	if !c.opts.Stateless {
		seed = core.TrimHistory(c.state, c.opts.HistoryLimit)
	}

	res, err := c.agent.Invoke(ctx, core.AppendMessages(seed, core.NewUserMessage(input)))
	if err != nil {
		return res, err
	}

	if !c.opts.Stateless {
		c.state = res.State
	}

	return res, nil
}

// History returns a copy of the carried messages.
func (c *Conversation) History() []core.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.Clone().Messages
}

// Reply returns the content of the final assistant message of a result.
func Reply(res graph.Result) (string, error) {
	last, ok := res.State.LastMessage()
	if !ok || last.Role != core.RoleAssistant {
		return "", errNoReply
	}

	return last.Content, nil
}

var errNoReply = errors.New("agent produced no assistant reply")
