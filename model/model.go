package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/tool"
)

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolDefinitions describes tools for a Request.
func ToolDefinitions(tools []tool.Tool) []ToolDefinition {
	defs := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = ToolDefinition{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()}
	}

	return defs
}

// Request is the normalized model input. A leading system message carries
// the role prompt.
type Request struct {
	Messages []core.Message   `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Partial chunks
// carry a content delta; the final chunk carries the complete message.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface nodes use to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrNoResponse is returned by Collect when the model closed its channels
// without producing anything.
var ErrNoResponse = errors.New("model returned no response")

// Collect drains a Generate call into one assistant message. The final
// chunk wins; if the stream ended with partial chunks only, their contents
// are concatenated. Usage is nil when the provider did not report any.
func Collect(ctx context.Context, out <-chan Response, errCh <-chan error) (core.Message, *TokenUsage, error) {
	return CollectFunc(ctx, out, errCh, nil)
}

// CollectFunc is Collect with a callback receiving each partial content
// delta as it arrives.
func CollectFunc(
	ctx context.Context,
	out <-chan Response,
	errCh <-chan error,
	onPartial func(delta string),
) (core.Message, *TokenUsage, error) {
	var (
		final   *Response
		partial strings.Builder
		usage   *TokenUsage
		gotAny  bool
	)

	for out != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return core.Message{}, nil, ctx.Err()
		case r, ok := <-out:
			if !ok {
				out = nil
				continue
			}

			gotAny = true

			if r.Usage != nil {
				usage = r.Usage
			}

			if r.Partial {
				partial.WriteString(r.Message.Content)

				if onPartial != nil && r.Message.Content != "" {
					onPartial(r.Message.Content)
				}

				continue
			}

			final = &r
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}

			if err != nil {
				return core.Message{}, nil, err
			}
		}
	}

	if final != nil {
		msg := final.Message
		msg.Role = core.RoleAssistant

		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}

		return msg, usage, nil
	}

	if !gotAny {
		return core.Message{}, nil, ErrNoResponse
	}

	return core.NewAssistantMessage(partial.String()), usage, nil
}

// Invoke runs one Generate call, collects the reply and reports latency and
// token usage through logger when it supports LogModelCall.
func Invoke(ctx context.Context, m Model, req Request, logger logging.Logger) (core.Message, error) {
	return InvokeStream(ctx, m, req, logger, nil)
}

// InvokeStream is Invoke with a callback for partial content. When onPartial
// is set the request is sent in streaming mode.
func InvokeStream(
	ctx context.Context,
	m Model,
	req Request,
	logger logging.Logger,
	onPartial func(delta string),
) (core.Message, error) {
	start := time.Now()

	if onPartial != nil {
		req.Stream = true
	}

	out, errCh := m.Generate(ctx, req)
	msg, usage, err := CollectFunc(ctx, out, errCh, onPartial)

	if l, ok := logger.(interface {
		LogModelCall(string, int, int, time.Duration, error)
	}); ok {
		var prompt, completion int
		if usage != nil {
			prompt, completion = usage.PromptTokens, usage.CompletionTokens
		}

		l.LogModelCall(m.Info().Name, prompt, completion, time.Since(start), err)
	}

	if err != nil {
		return core.Message{}, fmt.Errorf("model %s: %w", m.Info().Name, err)
	}

	return msg, nil
}
