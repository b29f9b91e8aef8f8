package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
)

// Options configures a compiled graph.
type Options struct {
	// MaxIterations caps visits to CycleNode per run. 0 disables the cap.
	MaxIterations int

	// CycleNode is the node whose visits are counted. Defaults to the entry point.
	CycleNode string

	// Logger receives graph.* events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// WithMaxIterations sets Options.MaxIterations.
func WithMaxIterations(n int) func(o *Options) {
	return func(o *Options) { o.MaxIterations = n }
}

// WithLogger sets Options.Logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

func loggerOrNoOp(l logging.Logger) logging.Logger { return logging.OrNoOp(l) }

// Step is the state right after a node finished.
type Step struct {
	Node  string
	Index int
	State core.State
}

// Result is the outcome of a run.
type Result struct {
	State        core.State
	Steps        int
	LimitReached bool
}

// Graph is a compiled, immutable graph. It is safe for concurrent runs.
type Graph struct {
	name  string
	nodes map[string]NodeFunc
	edges map[string]edge
	entry string
	cycle string
	opts  Options
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Run executes the graph and returns the final state. On error the input
// state is returned unchanged.
func (g *Graph) Run(ctx context.Context, state core.State) (core.State, error) {
	res, err := g.Execute(ctx, state)
	return res.State, err
}

// Execute runs the graph from its entry point until End. Node errors are
// returned wrapped with the node name. When the iteration cap is hit the
// run stops cleanly: dangling tool calls are answered with a notice, an
// assistant message tagged core.TagIterationLimit is appended and
// Result.LimitReached is set; the error is nil.
func (g *Graph) Execute(ctx context.Context, state core.State) (Result, error) {
	return g.execute(ctx, state, nil)
}

// Walk is Execute with a callback invoked after every node. Returning false
// from onStep aborts the run with ErrAborted (or the context's error).
func (g *Graph) Walk(ctx context.Context, state core.State, onStep func(Step) bool) (Result, error) {
	return g.execute(ctx, state, onStep)
}

// Stream runs the graph in the background and emits the state after every
// node. Both channels are closed when the run ends; at most one error is sent.
func (g *Graph) Stream(ctx context.Context, state core.State) (<-chan Step, <-chan error) {
	steps := make(chan Step)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(steps)

		_, err := g.execute(ctx, state, func(s Step) bool {
			select {
			case steps <- s:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return steps, errs
}

func (g *Graph) execute(ctx context.Context, in core.State, onStep func(Step) bool) (Result, error) {
	logger := g.opts.Logger
	start := time.Now()
	limiter := core.NewIterationLimiter(g.opts.MaxIterations)

	state := in
	current := g.entry
	steps := 0

	fail := func(err error) (Result, error) {
		g.logRun(steps, time.Since(start), false, err)
		return Result{State: in, Steps: steps}, err
	}

	for current != End {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		if current == g.cycle {
			if err := limiter.Increment(); err != nil {
				logger.Warn("graph.iteration_limit", "graph", g.name, "node", current, "max", g.opts.MaxIterations, "visits", limiter.Count())

				state = StopAtLimit(state, g.opts.MaxIterations)
				g.logRun(steps, time.Since(start), true, nil)

				return Result{State: state, Steps: steps, LimitReached: true}, nil
			}
		}

		logger.Debug("graph.node.start", "graph", g.name, "node", current, "step", steps)

		next, err := g.nodes[current](ctx, state)
		if err != nil {
			logger.Error("graph.node.error", "graph", g.name, "node", current, "error", err.Error())
			return fail(fmt.Errorf("graph %s: node %s: %w", g.name, current, err))
		}

		state = next
		steps++

		if onStep != nil && !onStep(Step{Node: current, Index: steps, State: state}) {
			if err := ctx.Err(); err != nil {
				return fail(err)
			}

			return fail(ErrAborted)
		}

		target, err := g.route(current, state)
		if err != nil {
			logger.Error("graph.route.error", "graph", g.name, "node", current, "error", err.Error())
			return fail(err)
		}

		logger.Debug("graph.node.complete", "graph", g.name, "node", current, "next", target)

		current = target
	}

	g.logRun(steps, time.Since(start), false, nil)

	return Result{State: state, Steps: steps}, nil
}

func (g *Graph) route(from string, state core.State) (string, error) {
	e := g.edges[from]
	if e.router == nil {
		return e.to, nil
	}

	label := e.router(state)

	target, ok := e.routes[label]
	if !ok {
		return "", fmt.Errorf("%w: %w: node %s returned %q", core.ErrConfiguration, ErrUnknownRoute, from, label)
	}

	return target, nil
}

func (g *Graph) logRun(steps int, dur time.Duration, limit bool, err error) {
	if l, ok := g.opts.Logger.(interface {
		LogGraphRun(string, int, time.Duration, bool, error)
	}); ok {
		l.LogGraphRun(g.name, steps, dur, limit, err)
	}
}

// LimitNotice is the content of messages synthesized at the iteration cap.
const LimitNotice = "Iteration limit reached"

// StopAtLimit closes out a state cut short by the iteration cap: every
// dangling tool call gets a tagged result and a tagged assistant message is
// appended, so the returned state validates.
func StopAtLimit(state core.State, max int) core.State {
	var msgs []core.Message

	for _, c := range state.PendingToolCalls() {
		msgs = append(msgs, core.NewToolMessage(c.ID, c.Name, LimitNotice+": tool call not executed.").
			WithTag(core.TagIterationLimit).
			WithTag(core.TagToolError))
	}

	msgs = append(msgs, core.NewAssistantMessage(fmt.Sprintf("%s after %d iterations. Stopping here.", LimitNotice, max)).
		WithTag(core.TagIterationLimit))

	return core.AppendMessages(state, msgs...)
}
