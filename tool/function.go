package tool

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/internal/util"
)

// FunctionTool exposes a plain Go function as a Tool.
//
// Responsibilities:
//   - Holds the JSON schema of the accepted arguments
//   - Coerces and validates model supplied arguments before execution
//   - Normalizes error handling so callers receive *ToolError with consistent codes:
//     VALIDATION_ERROR  -> schema / argument mismatch
//     EXECUTION_ERROR   -> underlying function returned an error (non-ToolError)
//     (custom codes preserved if the function returns *ToolError directly)
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	resolved    *jsonschema.Resolved
	fn          func(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from an explicit map schema.
// Arguments are checked with the minimal validator (required fields and
// property types).
//
// Example:
//
//	echo := NewFunctionTool(
//	  "echo",
//	  "Echo the given text",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{"text": map[string]any{"type": "string"}},
//	    "required": []string{"text"},
//	  },
//	  func(tc *core.ToolContext, args map[string]any) (any, error) {
//	    return args["text"], nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunc derives the argument schema from the struct type Args and decodes
// validated arguments into it before calling fn.
//
// Example:
//
//	type AddArgs struct {
//	  A int `json:"a" jsonschema:"first addend"`
//	  B int `json:"b" jsonschema:"second addend"`
//	}
//
//	add, err := NewFunc("add", "Add two integers.",
//	  func(tc *core.ToolContext, args AddArgs) (any, error) {
//	    return args.A + args.B, nil
//	  },
//	)
func NewFunc[Args any](
	name, description string,
	fn func(toolCtx *core.ToolContext, args Args) (any, error),
) (*FunctionTool, error) {
	schema, err := jsonschema.For[Args](&jsonschema.ForOptions{})
	if err != nil {
		return nil, fmt.Errorf("derive schema for tool %s: %w", name, err)
	}

	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		return nil, fmt.Errorf("resolve schema for tool %s: %w", name, err)
	}

	params, err := util.SchemaMap(schema)
	if err != nil {
		return nil, fmt.Errorf("encode schema for tool %s: %w", name, err)
	}

	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  params,
		resolved:    resolved,
		fn: func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			var v Args
			if err := decodeArgs(args, &v); err != nil {
				return nil, err
			}

			return fn(toolCtx, v)
		},
	}, nil
}

// MustNewFunc is like NewFunc but panics on schema errors. Intended for
// package level tool definitions.
func MustNewFunc[Args any](
	name, description string,
	fn func(toolCtx *core.ToolContext, args Args) (any, error),
) *FunctionTool {
	t, err := NewFunc(name, description, fn)
	if err != nil {
		panic(err)
	}

	return t
}

func decodeArgs(args map[string]any, v any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}

	return nil
}

// Name returns the unique tool name used in function call declarations and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call coerces and validates args, then invokes the underlying function.
//
// Error Semantics:
//
//	*ToolError (returned directly)  -> forwarded unchanged
//	validation failure              -> *ToolError{Code: "VALIDATION_ERROR"}
//	other error                     -> *ToolError{Code: "EXECUTION_ERROR"}
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "fc_id", toolCtx.FunctionCallID())

	if args == nil {
		args = map[string]any{}
	}

	args = util.CoerceArguments(args, t.parameters)

	if err := t.validate(args); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	result, err := t.fn(toolCtx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)

			return nil, toolErr
		}

		logger.Error("tool.call.error", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
			Details: err,
		}
	}

	logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

func (t *FunctionTool) validate(args map[string]any) error {
	if t.resolved != nil {
		return t.resolved.Validate(args)
	}

	return util.ValidateParameters(args, t.parameters)
}
