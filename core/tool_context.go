package core

import (
	"context"
	"maps"
	"sync"

	"github.com/hupe1980/agentgraph/logging"
)

// ToolContext is the constrained surface a tool sees during one invocation.
// It exposes a read-only snapshot of the graph state and accumulates a state
// delta that the tools node applies after the dispatch round.
type ToolContext struct {
	ctx      context.Context
	callID   string
	toolName string
	state    State
	logger   logging.Logger

	mu    sync.Mutex
	delta map[string]any
}

// NewToolContext binds a tool invocation to the call it answers and the state
// the call was issued against.
func NewToolContext(ctx context.Context, call ToolCall, state State, logger logging.Logger) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}

	return &ToolContext{
		ctx:      ctx,
		callID:   call.ID,
		toolName: call.Name,
		state:    state,
		logger:   logging.OrNoOp(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// FunctionCallID returns the id of the tool call being answered.
func (tc *ToolContext) FunctionCallID() string { return tc.callID }

// ToolName returns the requested tool name.
func (tc *ToolContext) ToolName() string { return tc.toolName }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }

// Document returns the current document buffer, including pending changes.
func (tc *ToolContext) Document() string {
	if v, ok := tc.GetState(DocumentKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}

	return tc.state.Document
}

// GetState looks a key up in the pending delta first, then in the snapshot.
func (tc *ToolContext) GetState(k string) (any, bool) {
	tc.mu.Lock()
	v, ok := tc.delta[k]
	tc.mu.Unlock()

	if ok {
		return v, true
	}

	if k == DocumentKey {
		return tc.state.Document, true
	}

	return tc.state.Value(k)
}

// SetState records a state mutation in the delta.
func (tc *ToolContext) SetState(k string, v any) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.delta == nil {
		tc.delta = map[string]any{}
	}

	tc.delta[k] = v
}

// SetDocument replaces the document buffer once the delta is applied.
func (tc *ToolContext) SetDocument(doc string) { tc.SetState(DocumentKey, doc) }

// Delta returns a copy of the accumulated state changes.
func (tc *ToolContext) Delta() map[string]any {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	return maps.Clone(tc.delta)
}
