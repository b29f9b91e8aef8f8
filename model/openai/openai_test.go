package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := openai.NewClient(
		option.WithAPIKey("test"),
		option.WithBaseURL(srv.URL+"/"),
		option.WithMaxRetries(0),
	)

	return NewModelFromClient(&client, func(o *Options) { o.Model = "gpt-test" })
}

func TestGenerate_ToolCalls(t *testing.T) {
	var captured map[string]any

	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-test",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [
						{"id": "call_1", "type": "function", "function": {"name": "add", "arguments": "{\"a\": 30, \"b\": 12}"}},
						{"id": "call_2", "type": "function", "function": {"name": "add", "arguments": "{\"a\": 1, \"b\": 2"}}
					]
				}
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	})

	req := model.Request{
		Messages: []core.Message{
			core.NewSystemMessage("sys"),
			core.NewUserMessage("Add 30 and 12"),
		},
		Tools: model.ToolDefinitions(tool.Arithmetic()),
	}

	out, errCh := m.Generate(context.Background(), req)
	msg, usage, err := model.Collect(context.Background(), out, errCh)
	require.NoError(t, err)

	require.Len(t, msg.ToolCalls, 2)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "add", msg.ToolCalls[0].Name)
	assert.Equal(t, map[string]any{"a": 30.0, "b": 12.0}, msg.ToolCalls[0].Arguments)
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, msg.ToolCalls[1].Arguments, "truncated JSON is repaired")

	require.NotNil(t, usage)
	assert.Equal(t, 10, usage.PromptTokens)

	assert.Equal(t, "gpt-test", captured["model"])
	tools, _ := captured["tools"].([]any)
	assert.Len(t, tools, 4)
	msgs, _ := captured["messages"].([]any)
	assert.Len(t, msgs, 2)
}

func TestGenerate_NonObjectArgumentsReachTheModel(t *testing.T) {
	var requests []map[string]any

	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))

		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")

		if len(requests) == 1 {
			fmt.Fprint(w, `{
				"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-test",
				"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
					"role": "assistant", "content": "",
					"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "add", "arguments": "[1,2]"}}]
				}}]
			}`)

			return
		}

		fmt.Fprint(w, `{
			"id": "chatcmpl-2", "object": "chat.completion", "created": 1, "model": "gpt-test",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Sorry, let me fix that."}}]
		}`)
	})

	a, err := agent.NewReAct(m)
	require.NoError(t, err)

	res, err := a.Invoke(context.Background(), core.NewState(core.NewUserMessage("Add 1 and 2")))
	require.NoError(t, err)

	reply, err := agent.Reply(res)
	require.NoError(t, err)
	assert.Equal(t, "Sorry, let me fix that.", reply)
	require.NoError(t, res.State.Validate())

	require.Len(t, requests, 2)
	msgs, _ := requests[1]["messages"].([]any)
	require.Len(t, msgs, 4)

	assistant, _ := msgs[2].(map[string]any)
	calls, _ := assistant["tool_calls"].([]any)
	require.Len(t, calls, 1)
	fn, _ := calls[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "[1,2]", fn["arguments"])

	result, _ := msgs[3].(map[string]any)
	assert.Equal(t, "call_1", result["tool_call_id"])
	assert.Contains(t, result["content"], tool.CodeValidation)
}

func TestBuildMessages_ToolExchange(t *testing.T) {
	call := core.ToolCall{ID: "call_1", Name: "add", Arguments: map[string]any{"a": 1, "b": 2}}
	msgs := buildMessages([]core.Message{
		core.NewUserMessage("q"),
		core.NewAssistantMessage("", call),
		core.NewToolMessage("call_1", "add", "3"),
	})

	require.Len(t, msgs, 3)
	require.NotNil(t, msgs[1].OfAssistant)
	assert.Equal(t, "call_1", msgs[1].OfAssistant.ToolCalls[0].ID)
	assert.JSONEq(t, `{"a":1,"b":2}`, msgs[1].OfAssistant.ToolCalls[0].Function.Arguments)
	require.NotNil(t, msgs[2].OfTool)
	assert.Equal(t, "call_1", msgs[2].OfTool.ToolCallID)
}

func TestGenerate_Streaming(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")

		chunks := []string{
			`{"id":"c","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`,
			`{"id":"c","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
			`{"id":"c","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		}

		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}

		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	out, errCh := m.Generate(context.Background(), model.Request{
		Messages: []core.Message{core.NewUserMessage("hi")},
		Stream:   true,
	})

	var partials []string

	var final *model.Response

	for r := range out {
		if r.Partial {
			partials = append(partials, r.Message.Content)
			continue
		}

		final = &r
	}

	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"Hel", "lo"}, partials)
	require.NotNil(t, final)
	assert.Equal(t, "Hello", final.Message.Content)
	assert.Equal(t, "stop", final.FinishReason)
}

func TestGenerate_ErrorStatus(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "slow down", "type": "rate_limit"}}`)
	})

	out, errCh := m.Generate(context.Background(), model.Request{Messages: []core.Message{core.NewUserMessage("hi")}})
	_, _, err := model.Collect(context.Background(), out, errCh)

	var pe *model.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
	assert.True(t, model.IsTransient(err))
}
