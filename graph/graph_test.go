package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/tool"
)

func appendNode(content string) NodeFunc {
	return func(_ context.Context, s core.State) (core.State, error) {
		return core.AppendMessages(s, core.NewAssistantMessage(content)), nil
	}
}

func TestGraph_Linear(t *testing.T) {
	g, err := NewBuilder("linear").
		AddNode("a", appendNode("a")).
		AddNode("b", appendNode("b")).
		SetEntryPoint("a").
		AddEdge("a", "b").
		AddEdge("b", End).
		Compile()
	require.NoError(t, err)

	in := core.NewState(core.NewUserMessage("hi"))
	res, err := g.Execute(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Steps)
	assert.False(t, res.LimitReached)
	require.Len(t, res.State.Messages, 3)
	assert.Equal(t, "b", res.State.Messages[2].Content)
	assert.Len(t, in.Messages, 1)
}

func TestGraph_ConditionalRouting(t *testing.T) {
	var visits int

	g, err := NewBuilder("cond").
		AddNode("count", func(_ context.Context, s core.State) (core.State, error) {
			visits++
			return s.WithValue("n", visits), nil
		}).
		SetEntryPoint("count").
		AddConditionalEdges("count", func(s core.State) string {
			if n, _ := s.Value("n"); n.(int) < 3 {
				return "again"
			}
			return "done"
		}, map[string]string{"again": "count", "done": End}).
		Compile()
	require.NoError(t, err)

	res, err := g.Execute(context.Background(), core.State{})
	require.NoError(t, err)
	assert.Equal(t, 3, visits)
	assert.Equal(t, 3, res.Steps)
}

func TestCompile_Errors(t *testing.T) {
	noop := appendNode("x")

	tests := []struct {
		name    string
		builder *Builder
		target  error
	}{
		{"no entry", NewBuilder("g").AddNode("a", noop).AddEdge("a", End), ErrNoEntryPoint},
		{"unknown entry", NewBuilder("g").AddNode("a", noop).AddEdge("a", End).SetEntryPoint("b"), ErrNoEntryPoint},
		{"unknown edge target", NewBuilder("g").AddNode("a", noop).AddEdge("a", "b").SetEntryPoint("a"), ErrUnknownNode},
		{"unknown route target", NewBuilder("g").AddNode("a", noop).SetEntryPoint("a").
			AddConditionalEdges("a", HasToolCalls, map[string]string{RouteContinue: "tools", RouteEnd: End}), ErrUnknownNode},
		{"dead end", NewBuilder("g").AddNode("a", noop).AddNode("b", noop).AddEdge("a", "b").SetEntryPoint("a"), ErrDeadEnd},
		{"duplicate", NewBuilder("g").AddNode("a", noop).AddNode("a", noop).AddEdge("a", End).SetEntryPoint("a"), ErrDuplicateNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.builder.Compile()
			assert.Nil(t, g)
			assert.ErrorIs(t, err, tt.target)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}

func TestGraph_UnknownRouteAtRuntime(t *testing.T) {
	g, err := NewBuilder("g").
		AddNode("a", appendNode("x")).
		SetEntryPoint("a").
		AddConditionalEdges("a", func(core.State) string { return "nowhere" }, map[string]string{"end": End}).
		Compile()
	require.NoError(t, err)

	in := core.NewState(core.NewUserMessage("hi"))
	out, err := g.Run(context.Background(), in)
	assert.ErrorIs(t, err, ErrUnknownRoute)
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.Equal(t, in, out)
}

func TestGraph_NodeErrorKeepsInputState(t *testing.T) {
	boom := errors.New("boom")

	g, err := NewBuilder("g").
		AddNode("a", appendNode("x")).
		AddNode("b", func(context.Context, core.State) (core.State, error) { return core.State{}, boom }).
		SetEntryPoint("a").
		AddEdge("a", "b").
		AddEdge("b", End).
		Compile()
	require.NoError(t, err)

	in := core.NewState(core.NewUserMessage("hi"))
	out, err := g.Run(context.Background(), in)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "node b")
	assert.Equal(t, in, out)
}

func TestGraph_IterationLimit(t *testing.T) {
	loop := tool.NewFunctionTool("loop", "", map[string]any{"type": "object"},
		func(*core.ToolContext, map[string]any) (any, error) { return "again", nil })
	d := tool.NewDispatcher(tool.MustNewRegistry(loop))

	var n int

	agentNode := func(_ context.Context, s core.State) (core.State, error) {
		n++
		c := core.ToolCall{ID: string(rune('a' + n)), Name: "loop"}
		return core.AppendMessages(s, core.NewAssistantMessage("", c)), nil
	}

	g, err := NewBuilder("runaway").
		AddNode("agent", agentNode).
		AddNode("tools", ToolsNode(d)).
		SetEntryPoint("agent").
		AddConditionalEdges("agent", HasToolCalls, map[string]string{RouteContinue: "tools", RouteEnd: End}).
		AddEdge("tools", "agent").
		Compile(WithMaxIterations(3))
	require.NoError(t, err)

	res, err := g.Execute(context.Background(), core.NewState(core.NewUserMessage("go")))
	require.NoError(t, err)

	assert.True(t, res.LimitReached)
	assert.Equal(t, 3, n)
	assert.NoError(t, res.State.Validate())

	last, _ := res.State.LastMessage()
	assert.Equal(t, core.RoleAssistant, last.Role)
	assert.True(t, last.HasTag(core.TagIterationLimit))
}

func TestStopAtLimit_ResolvesDanglingCalls(t *testing.T) {
	s := core.NewState(core.NewAssistantMessage("", core.ToolCall{ID: "c1", Name: "add"}))

	out := StopAtLimit(s, 5)

	require.NoError(t, out.Validate())
	require.Len(t, out.Messages, 3)
	assert.Equal(t, "c1", out.Messages[1].ToolCallID)
	assert.True(t, out.Messages[1].HasTag(core.TagIterationLimit))
}

func TestGraph_Canceled(t *testing.T) {
	g, err := NewBuilder("g").AddNode("a", appendNode("x")).AddEdge("a", End).SetEntryPoint("a").Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = g.Run(ctx, core.State{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGraph_Stream(t *testing.T) {
	g, err := NewBuilder("g").
		AddNode("a", appendNode("a")).
		AddNode("b", appendNode("b")).
		SetEntryPoint("a").
		AddEdge("a", "b").
		AddEdge("b", End).
		Compile()
	require.NoError(t, err)

	steps, errs := g.Stream(context.Background(), core.State{})

	var nodes []string
	for s := range steps {
		nodes = append(nodes, s.Node)
	}

	assert.Equal(t, []string{"a", "b"}, nodes)
	assert.NoError(t, <-errs)
}

func TestGraph_Walk(t *testing.T) {
	g, err := NewBuilder("g").
		AddNode("a", appendNode("a")).
		AddNode("b", appendNode("b")).
		SetEntryPoint("a").
		AddEdge("a", "b").
		AddEdge("b", End).
		Compile()
	require.NoError(t, err)

	in := core.NewState(core.NewUserMessage("hi"))

	var seen []int

	res, err := g.Walk(context.Background(), in, func(s Step) bool {
		seen = append(seen, len(s.State.Messages))
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, seen)
	assert.Equal(t, 2, res.Steps)

	res, err = g.Walk(context.Background(), in, func(Step) bool { return false })
	require.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, in, res.State)
}

func TestToolsNode_AppliesDelta(t *testing.T) {
	d := tool.NewDispatcher(tool.MustNewRegistry(tool.Update()))
	node := ToolsNode(d)

	in := core.NewState(core.NewAssistantMessage("", core.ToolCall{
		ID: "c1", Name: "update", Arguments: map[string]any{"content": "hello"},
	}))

	out, err := node(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "hello", out.Document)
	assert.Empty(t, in.Document)
	require.NoError(t, out.Validate())
	assert.Len(t, out.Messages, 2)

	same, err := node(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, out, same)
}
