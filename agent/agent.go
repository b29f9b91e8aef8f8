package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/tool"
)

// Options configures the prebuilt agents. Zero values fall back to each
// agent's defaults.
type Options struct {
	// Instruction overrides the agent's default system prompt.
	Instruction *Instruction

	// MaxIterations caps visits to the agent's model node per run.
	MaxIterations int

	// MaxParallelTools bounds concurrent tool calls in one round. 1 runs
	// calls sequentially so later calls see earlier state changes.
	MaxParallelTools int

	// OnPartial, when set, switches model calls to streaming and receives
	// content deltas as they arrive.
	OnPartial func(delta string)

	// Tools replaces the ReAct agent's arithmetic tools.
	Tools []tool.Tool

	// TopK is the number of chunks the RAG agent retrieves per query.
	TopK int

	Logger logging.Logger
}

func defaultOptions() Options {
	return Options{
		MaxIterations:    core.DefaultMaxIterations,
		MaxParallelTools: 1,
	}
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return opts
}

func (o Options) instruction(def Instruction) Instruction {
	if o.Instruction != nil {
		return *o.Instruction
	}

	return def
}

// Agent is a named, compiled agent graph. It is immutable and safe for
// concurrent runs.
type Agent struct {
	name  string
	graph *graph.Graph
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Graph exposes the compiled graph.
func (a *Agent) Graph() *graph.Graph { return a.graph }

// Invoke runs the agent on state. A successful run returns a state without
// dangling tool calls or orphaned tool results. On error the returned
// result carries the input state.
func (a *Agent) Invoke(ctx context.Context, state core.State) (graph.Result, error) {
	return a.Walk(ctx, state, nil)
}

// Walk is Invoke with a callback after every node.
func (a *Agent) Walk(ctx context.Context, state core.State, onStep func(graph.Step) bool) (graph.Result, error) {
	res, err := a.graph.Walk(ctx, state, onStep)
	if err != nil {
		return res, err
	}

	if err := res.State.Validate(); err != nil {
		return graph.Result{State: state}, fmt.Errorf("agent %s: %w", a.name, err)
	}

	return res, nil
}

func (o Options) dispatcher(reg *tool.Registry) *tool.Dispatcher {
	return tool.NewDispatcher(reg, func(d *tool.DispatcherOptions) {
		d.MaxParallel = o.MaxParallelTools
		d.Logger = o.Logger
	})
}

func compile(name string, b *graph.Builder, opts Options, cycle string) (*Agent, error) {
	g, err := b.Compile(func(o *graph.Options) {
		o.MaxIterations = opts.MaxIterations
		o.CycleNode = cycle
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	return &Agent{name: name, graph: g}, nil
}
