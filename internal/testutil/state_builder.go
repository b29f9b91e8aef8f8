package testutil

import (
	"github.com/hupe1980/agentgraph/core"
)

// StateBuilder provides a fluent helper for constructing states in tests.
// Example:
//
//	st := NewStateBuilder().System("sys").User("hi").Document("draft").Build()
//
// Chain only the parts you need.
type StateBuilder struct {
	messages []core.Message
	document string
	values   map[string]any
}

// NewStateBuilder creates an empty builder.
func NewStateBuilder() *StateBuilder { return &StateBuilder{values: map[string]any{}} }

// System appends a system message (chainable).
func (b *StateBuilder) System(t string) *StateBuilder {
	b.messages = append(b.messages, core.NewSystemMessage(t))
	return b
}

// User appends a user message (chainable).
func (b *StateBuilder) User(t string) *StateBuilder {
	b.messages = append(b.messages, core.NewUserMessage(t))
	return b
}

// Assistant appends an assistant message with optional tool calls (chainable).
func (b *StateBuilder) Assistant(t string, calls ...core.ToolCall) *StateBuilder {
	b.messages = append(b.messages, core.NewAssistantMessage(t, calls...))
	return b
}

// ToolResult appends a tool result message (chainable).
func (b *StateBuilder) ToolResult(callID, name, content string) *StateBuilder {
	b.messages = append(b.messages, core.NewToolMessage(callID, name, content))
	return b
}

// Message appends arbitrary messages (chainable).
func (b *StateBuilder) Message(msgs ...core.Message) *StateBuilder {
	b.messages = append(b.messages, msgs...)
	return b
}

// Document sets the document buffer (chainable).
func (b *StateBuilder) Document(d string) *StateBuilder { b.document = d; return b }

// Value sets a scalar field (chainable).
func (b *StateBuilder) Value(key string, v any) *StateBuilder { b.values[key] = v; return b }

// Build returns the assembled state.
func (b *StateBuilder) Build() core.State {
	s := core.NewState(b.messages...)
	s.Document = b.document

	for k, v := range b.values {
		s = s.WithValue(k, v)
	}

	return s
}

// Call builds a tool call with a fixed id.
func Call(id, name string, args map[string]any) core.ToolCall {
	return core.ToolCall{ID: id, Name: name, Arguments: args}
}
