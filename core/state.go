package core

import (
	"fmt"
	"slices"
)

// DocumentKey is the state delta key that replaces State.Document.
const DocumentKey = "document"

// State is the value flowing through a graph. Nodes receive a State and
// return a new one; they never mutate the one they were given.
type State struct {
	Messages []Message     `json:"messages" msgpack:"messages"`
	Document string         `json:"document,omitempty" msgpack:"document,omitempty"`
	Values   map[string]any `json:"values,omitempty" msgpack:"values,omitempty"`
}

// NewState seeds a state with the given messages.
func NewState(msgs ...Message) State {
	return State{Messages: slices.Clone(msgs)}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{Document: s.Document, Values: cloneMap(s.Values)}
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		for i, m := range s.Messages {
			out.Messages[i] = m.Clone()
		}
	}

	return out
}

// LastMessage returns the most recent message, if any.
func (s State) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}

	return s.Messages[len(s.Messages)-1], true
}

// Value returns a task specific value.
func (s State) Value(key string) (any, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// WithValue returns a copy of s with key set.
func (s State) WithValue(key string, v any) State {
	out := s
	out.Values = cloneMap(s.Values)

	if out.Values == nil {
		out.Values = map[string]any{}
	}

	out.Values[key] = v

	return out
}

// AppendMessages is the message reducer: the result holds every message of s
// in order followed by msgs. s itself is left untouched.
func AppendMessages(s State, msgs ...Message) State {
	out := s
	out.Messages = make([]Message, 0, len(s.Messages)+len(msgs))
	out.Messages = append(out.Messages, s.Messages...)
	out.Messages = append(out.Messages, msgs...)

	return out
}

// ApplyDelta merges a tool state delta into s. DocumentKey replaces the
// document buffer; other keys land in Values.
func ApplyDelta(s State, delta map[string]any) State {
	if len(delta) == 0 {
		return s
	}

	out := s
	out.Values = cloneMap(s.Values)

	for k, v := range delta {
		if k == DocumentKey {
			if doc, ok := v.(string); ok {
				out.Document = doc
				continue
			}
		}

		if out.Values == nil {
			out.Values = map[string]any{}
		}

		out.Values[k] = v
	}

	return out
}

// TrimHistory keeps a leading system message plus at most the last n other
// messages. The cut never splits a tool exchange: tool results whose
// requesting assistant message was dropped are dropped too. n <= 0 disables
// trimming.
func TrimHistory(s State, n int) State {
	if n <= 0 {
		return s
	}

	var head []Message

	rest := s.Messages
	if len(rest) > 0 && rest[0].Role == RoleSystem {
		head, rest = rest[:1], rest[1:]
	}

	if len(rest) <= n {
		return s
	}

	rest = rest[len(rest)-n:]
	for len(rest) > 0 && rest[0].Role == RoleTool {
		rest = rest[1:]
	}

	out := s
	out.Messages = make([]Message, 0, len(head)+len(rest))
	out.Messages = append(out.Messages, head...)
	out.Messages = append(out.Messages, rest...)

	return out
}

// PendingToolCalls returns tool calls that have no result message yet, in
// request order.
func (s State) PendingToolCalls() []ToolCall {
	resolved := make(map[string]bool)

	for _, m := range s.Messages {
		if m.Role == RoleTool {
			resolved[m.ToolCallID] = true
		}
	}

	var pending []ToolCall

	for _, m := range s.Messages {
		if m.Role != RoleAssistant {
			continue
		}

		for _, c := range m.ToolCalls {
			if !resolved[c.ID] {
				pending = append(pending, c)
			}
		}
	}

	return pending
}

// CheckToolResults verifies that every tool result answers exactly one earlier,
// still unresolved tool call. Dangling calls are allowed.
func (s State) CheckToolResults() error {
	open := make(map[string]bool)

	for i, m := range s.Messages {
		switch m.Role {
		case RoleAssistant:
			for _, c := range m.ToolCalls {
				open[c.ID] = true
			}
		case RoleTool:
			if !open[m.ToolCallID] {
				return fmt.Errorf("%w: message %d answers %q", ErrOrphanToolResult, i, m.ToolCallID)
			}

			delete(open, m.ToolCallID)
		}
	}

	return nil
}

// Validate checks the invariants of a terminal state: no orphaned tool
// results and no dangling tool calls.
func (s State) Validate() error {
	if err := s.CheckToolResults(); err != nil {
		return err
	}

	if pending := s.PendingToolCalls(); len(pending) > 0 {
		return fmt.Errorf("%w: %d unresolved, first %q", ErrDanglingToolCall, len(pending), pending[0].ID)
	}

	return nil
}
