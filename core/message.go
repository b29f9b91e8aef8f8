package core

import (
	"slices"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleSystem carries the role prompt. At most one, always first.
	RoleSystem Role = "system"
	// RoleUser is human input.
	RoleUser Role = "user"
	// RoleAssistant is model output, optionally carrying tool calls.
	RoleAssistant Role = "assistant"
	// RoleTool is the result of exactly one tool call.
	RoleTool Role = "tool"
)

// TagIterationLimit marks messages synthesized when a graph run stops at its
// iteration cap.
const TagIterationLimit = "iteration_limit_reached"

// TagToolError marks tool result messages produced from a failed call.
const TagToolError = "tool_error"

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string         `json:"id" msgpack:"id"`
	Name      string         `json:"name" msgpack:"name"`
	Arguments map[string]any `json:"arguments,omitempty" msgpack:"arguments,omitempty"`

	// RawArguments keeps the model's argument text when it did not decode
	// to an object. Arguments is nil then.
	RawArguments string `json:"raw_arguments,omitempty" msgpack:"raw_arguments,omitempty"`
}

// Message is one entry in a conversation. Messages are treated as immutable
// once created; helpers below always return fresh values.
type Message struct {
	ID      string `json:"id,omitempty" msgpack:"id,omitempty"`
	Role    Role   `json:"role" msgpack:"role"`
	Content string `json:"content" msgpack:"content"`

	// ToolCalls is only set on assistant messages.
	ToolCalls []ToolCall `json:"tool_calls,omitempty" msgpack:"tool_calls,omitempty"`

	// ToolCallID and Name are only set on tool messages.
	ToolCallID string `json:"tool_call_id,omitempty" msgpack:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty" msgpack:"name,omitempty"`

	Tags []string `json:"tags,omitempty" msgpack:"tags,omitempty"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{ID: uuid.NewString(), Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{ID: uuid.NewString(), Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message with optional tool calls.
func NewAssistantMessage(content string, calls ...ToolCall) Message {
	return Message{ID: uuid.NewString(), Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// NewToolMessage creates the result message for the tool call with id callID.
func NewToolMessage(callID, name, content string) Message {
	return Message{ID: uuid.NewString(), Role: RoleTool, Content: content, ToolCallID: callID, Name: name}
}

// HasToolCalls reports whether m is an assistant message requesting tools.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// HasTag reports whether m carries tag.
func (m Message) HasTag(tag string) bool {
	return slices.Contains(m.Tags, tag)
}

// WithTag returns a copy of m with tag appended.
func (m Message) WithTag(tag string) Message {
	m.Tags = append(slices.Clone(m.Tags), tag)
	return m
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	m.Tags = slices.Clone(m.Tags)
	if m.ToolCalls != nil {
		calls := make([]ToolCall, len(m.ToolCalls))
		for i, c := range m.ToolCalls {
			calls[i] = ToolCall{ID: c.ID, Name: c.Name, Arguments: cloneMap(c.Arguments), RawArguments: c.RawArguments}
		}

		m.ToolCalls = calls
	}

	return m
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}
