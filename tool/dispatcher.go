package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
)

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	// MaxParallel bounds concurrent tool executions. 0 or 1 runs calls
	// sequentially; results are always returned in request order.
	MaxParallel int

	// Logger receives tool.* events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Dispatcher executes tool calls through a Registry.
type Dispatcher struct {
	registry *Registry
	opts     DispatcherOptions
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{MaxParallel: 1}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Dispatcher{registry: registry, opts: opts}
}

// Registry returns the registry the dispatcher resolves names against.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// CallResult is the outcome of one tool call.
type CallResult struct {
	Call    core.ToolCall
	Message core.Message   // role tool, ToolCallID == Call.ID
	Value   any            // raw tool return value on success
	Err     error          // tool failure, nil on success
	Delta   map[string]any // state changes requested by the tool
}

// OK reports whether the tool ran and returned without error.
func (r CallResult) OK() bool { return r.Err == nil }

// Result holds one CallResult per requested call, in request order.
type Result struct {
	Results []CallResult
}

// Messages returns the tool result messages in request order.
func (r Result) Messages() []core.Message {
	msgs := make([]core.Message, len(r.Results))
	for i, cr := range r.Results {
		msgs[i] = cr.Message
	}

	return msgs
}

// Delta merges the state deltas of all calls. Later calls win on key conflicts.
func (r Result) Delta() map[string]any {
	var out map[string]any

	for _, cr := range r.Results {
		for k, v := range cr.Delta {
			if out == nil {
				out = map[string]any{}
			}

			out[k] = v
		}
	}

	return out
}

// Dispatch executes calls against an empty state snapshot.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []core.ToolCall) Result {
	return d.DispatchState(ctx, core.State{}, calls)
}

// DispatchState executes calls with state visible to tools through their
// ToolContext. Exactly one result is produced per call, in request order.
// Parallel calls all see state as given.
// Unknown tools, failures, panics and cancellation all become result
// content; DispatchState itself never fails.
func (d *Dispatcher) DispatchState(ctx context.Context, state core.State, calls []core.ToolCall) Result {
	n := len(calls)
	if n == 0 {
		return Result{}
	}

	results := make([]CallResult, n)

	maxPar := d.opts.MaxParallel
	if maxPar <= 1 || n == 1 {
		// sequential calls see the deltas of earlier calls in the batch
		for i, c := range calls {
			results[i] = d.execute(ctx, state, c)
			state = core.ApplyDelta(state, results[i].Delta)
		}

		return Result{Results: results}
	}

	if maxPar > n {
		maxPar = n
	}

	var wg sync.WaitGroup

	sem := make(chan struct{}, maxPar)
	batchStart := time.Now()

	for i := range calls {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, c core.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = d.execute(ctx, state, c)
		}(i, calls[i])
	}

	wg.Wait()

	d.opts.Logger.Debug(
		"tool.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return Result{Results: results}
}

func (d *Dispatcher) execute(ctx context.Context, state core.State, c core.ToolCall) CallResult {
	res := CallResult{Call: c}

	if err := ctx.Err(); err != nil {
		res.Err = err
		res.Message = errorMessage(c, errorContent(err))

		return res
	}

	impl, ok := d.registry.Get(c.Name)
	if !ok {
		d.opts.Logger.Warn("tool.call.not_found", "tool", c.Name, "fc_id", c.ID)

		res.Err = NewToolError(c.Name, "tool not found", CodeNotFound)
		res.Message = errorMessage(c, InvalidToolNotice)

		return res
	}

	if c.RawArguments != "" {
		reason := "arguments must be a JSON object"
		if _, err := ParseArguments(c.RawArguments); err != nil {
			reason = err.Error()
		}

		d.opts.Logger.Warn("tool.call.invalid_arguments", "tool", c.Name, "fc_id", c.ID, "error", reason)

		res.Err = NewToolError(c.Name, reason, CodeValidation)
		res.Message = errorMessage(c, errorContent(res.Err))

		return res
	}

	toolCtx := core.NewToolContext(ctx, c, state, d.opts.Logger)
	start := time.Now()

	var value any

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				d.opts.Logger.Error("tool.call.panic", "tool", c.Name, "recover", r, "stack", string(debug.Stack()))
				err = NewToolError(c.Name, fmt.Sprint(r), CodePanic)
			}
		}()

		value, err = impl.Call(toolCtx, c.Arguments)

		return err
	}()

	if l, ok := d.opts.Logger.(interface {
		LogToolCall(string, time.Duration, bool, error)
	}); ok {
		l.LogToolCall(c.Name, time.Since(start), err == nil, err)
	}

	if err != nil {
		res.Err = err
		res.Message = errorMessage(c, errorContent(err))

		return res
	}

	res.Value = value
	res.Delta = toolCtx.Delta()
	res.Message = core.NewToolMessage(c.ID, c.Name, FormatResult(value))

	return res
}

func errorMessage(c core.ToolCall, content string) core.Message {
	return core.NewToolMessage(c.ID, c.Name, content).WithTag(core.TagToolError)
}

func errorContent(err error) string {
	return "Error: " + err.Error()
}

// FormatResult renders a tool return value as result content. Floats use the
// shortest exact form; infinities render as inf / -inf.
func FormatResult(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(data)
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
