package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
)

// ErrScriptExhausted is returned when a ScriptedModel is called more times
// than it has replies.
var ErrScriptExhausted = errors.New("scripted model: no replies left")

// Reply is one scripted model turn. Respond, when set, computes the reply
// from the request and takes precedence over Message and Err.
type Reply struct {
	Message core.Message
	Err     error
	Usage   *model.TokenUsage
	Respond func(req model.Request) (core.Message, error)
}

// Text is a reply with plain assistant content.
func Text(content string) Reply {
	return Reply{Message: core.NewAssistantMessage(content)}
}

// ToolCalls is a reply requesting the given tool calls.
func ToolCalls(calls ...core.ToolCall) Reply {
	return Reply{Message: core.NewAssistantMessage("", calls...)}
}

// Fail is a reply that fails with err.
func Fail(err error) Reply { return Reply{Err: err} }

// ScriptedModel is a deterministic in-memory model.Model that plays back
// replies in order and records every request it receives.
type ScriptedModel struct {
	mu       sync.Mutex
	info     model.Info
	replies  []Reply
	requests []model.Request
}

// NewScriptedModel constructs a ScriptedModel with tool support enabled.
func NewScriptedModel(replies ...Reply) *ScriptedModel {
	return &ScriptedModel{
		info:    model.Info{Name: "scripted", Provider: "scripted", SupportsTools: true},
		replies: replies,
	}
}

// Add appends more replies (chainable).
func (m *ScriptedModel) Add(replies ...Reply) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.replies = append(m.replies, replies...)

	return m
}

// Requests returns copies of all requests seen so far.
func (m *ScriptedModel) Requests() []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]model.Request(nil), m.requests...)
}

// Calls returns how many times Generate was invoked.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.requests)
}

// Generate implements model.Model; emits per-rune partial chunks when
// streaming, then the final response.
func (m *ScriptedModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	req.Messages = append([]core.Message(nil), req.Messages...)
	m.requests = append(m.requests, req)

	var (
		reply Reply
		ok    bool
	)

	if len(m.replies) > 0 {
		reply, ok = m.replies[0], true
		m.replies = m.replies[1:]
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if !ok {
			errCh <- ErrScriptExhausted
			return
		}

		msg, err := reply.Message, reply.Err
		if reply.Respond != nil {
			msg, err = reply.Respond(req)
		}

		if err != nil {
			errCh <- err
			return
		}

		if req.Stream {
			for _, r := range msg.Content {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- model.Response{
					Partial: true,
					Message: core.Message{Role: core.RoleAssistant, Content: string(r)},
				}:
				}
			}
		}

		finish := "stop"
		if msg.HasToolCalls() {
			finish = "tool_calls"
		}

		respCh <- model.Response{ID: msg.ID, Message: msg, FinishReason: finish, Usage: reply.Usage}
	}()

	return respCh, errCh
}

// Info implements model.Model.
func (m *ScriptedModel) Info() model.Info { return m.info }
