package graph

import (
	"context"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/tool"
)

// Route labels used by the prebuilt routers.
const (
	RouteContinue = "continue"
	RouteEnd      = "end"
)

// HasToolCalls routes to RouteContinue when the latest message requests tools.
func HasToolCalls(state core.State) string {
	if last, ok := state.LastMessage(); ok && last.HasToolCalls() {
		return RouteContinue
	}

	return RouteEnd
}

// ToolsNode returns a node that dispatches the tool calls of the latest
// assistant message, appends one result per call and applies the tools'
// state deltas. A state whose latest message has no tool calls passes
// through unchanged.
func ToolsNode(d *tool.Dispatcher) NodeFunc {
	return func(ctx context.Context, state core.State) (core.State, error) {
		last, ok := state.LastMessage()
		if !ok || !last.HasToolCalls() {
			return state, nil
		}

		res := d.DispatchState(ctx, state, last.ToolCalls)

		out := core.AppendMessages(state, res.Messages()...)

		return core.ApplyDelta(out, res.Delta()), nil
	}
}
