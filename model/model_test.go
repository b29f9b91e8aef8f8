package model_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/internal/testutil"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

func userRequest(text string) model.Request {
	return model.Request{Messages: []core.Message{core.NewUserMessage(text)}}
}

func TestCollect_FinalMessage(t *testing.T) {
	m := testutil.NewScriptedModel(testutil.Text("hello"))

	req := userRequest("hi")
	req.Stream = true

	out, errCh := m.Generate(context.Background(), req)
	msg, _, err := model.Collect(context.Background(), out, errCh)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, msg.Role)
	assert.Equal(t, "hello", msg.Content)
	assert.NotEmpty(t, msg.ID)
}

func TestCollect_PartialOnly(t *testing.T) {
	out := make(chan model.Response, 2)
	errCh := make(chan error)

	out <- model.Response{Partial: true, Message: core.Message{Content: "ab"}}
	out <- model.Response{Partial: true, Message: core.Message{Content: "cd"}}
	close(out)
	close(errCh)

	msg, _, err := model.Collect(context.Background(), out, errCh)
	require.NoError(t, err)
	assert.Equal(t, "abcd", msg.Content)
}

func TestCollect_NoResponse(t *testing.T) {
	out := make(chan model.Response)
	errCh := make(chan error)

	close(out)
	close(errCh)

	_, _, err := model.Collect(context.Background(), out, errCh)
	assert.ErrorIs(t, err, model.ErrNoResponse)
}

func TestToolDefinitions(t *testing.T) {
	defs := model.ToolDefinitions(tool.Arithmetic())
	require.Len(t, defs, 4)
	assert.Equal(t, "add", defs[0].Name)
	assert.Equal(t, "object", defs[0].Parameters["type"])
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", &model.ProviderError{Provider: "p", StatusCode: http.StatusTooManyRequests}, true},
		{"server", &model.ProviderError{Provider: "p", StatusCode: http.StatusBadGateway}, true},
		{"bad request", &model.ProviderError{Provider: "p", StatusCode: http.StatusBadRequest}, false},
		{"unauthorized", &model.ProviderError{Provider: "p", StatusCode: http.StatusUnauthorized}, false},
		{"no status", &model.ProviderError{Provider: "p", Err: errors.New("conn reset")}, true},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, model.IsTransient(tc.err))
		})
	}
}

func fastRetry(o *model.RetryOptions) {
	o.Initial = time.Millisecond
	o.Max = 2 * time.Millisecond
}

func TestWithRetry_RecoversFromTransient(t *testing.T) {
	inner := testutil.NewScriptedModel(
		testutil.Fail(&model.ProviderError{Provider: "p", StatusCode: http.StatusServiceUnavailable}),
		testutil.Fail(&model.ProviderError{Provider: "p", StatusCode: http.StatusTooManyRequests}),
		testutil.Text("ok"),
	)

	m := model.WithRetry(inner, fastRetry)

	msg, err := model.Invoke(context.Background(), m, userRequest("hi"), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
	assert.Equal(t, 3, inner.Calls())
}

func TestWithRetry_PermanentFailure(t *testing.T) {
	perm := &model.ProviderError{Provider: "p", StatusCode: http.StatusBadRequest}
	inner := testutil.NewScriptedModel(testutil.Fail(perm), testutil.Text("unused"))

	m := model.WithRetry(inner, fastRetry)

	_, err := model.Invoke(context.Background(), m, userRequest("hi"), nil)
	require.ErrorIs(t, err, perm)
	assert.Equal(t, 1, inner.Calls())
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	transient := &model.ProviderError{Provider: "p", StatusCode: http.StatusInternalServerError}
	inner := testutil.NewScriptedModel(
		testutil.Fail(transient), testutil.Fail(transient), testutil.Fail(transient),
	)

	m := model.WithRetry(inner, fastRetry, func(o *model.RetryOptions) { o.MaxAttempts = 2 })

	_, err := model.Invoke(context.Background(), m, userRequest("hi"), nil)
	require.Error(t, err)
	assert.Equal(t, 2, inner.Calls())
}

func TestInvoke_LogsUsage(t *testing.T) {
	var buf bytes.Buffer

	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json", Output: &buf})

	inner := testutil.NewScriptedModel(testutil.Reply{
		Message: core.NewAssistantMessage("hi"),
		Usage:   &model.TokenUsage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15},
	})

	_, err := model.Invoke(context.Background(), inner, userRequest("hi"), logger)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"msg":"model.call.completed"`)
	assert.Contains(t, buf.String(), `"prompt_tokens":12`)
	assert.Contains(t, buf.String(), `"model":"scripted"`)
}

func TestInvokeStream_ForwardsPartials(t *testing.T) {
	m := testutil.NewScriptedModel(testutil.Text("abc"))

	var deltas []string

	msg, err := model.InvokeStream(context.Background(), m, userRequest("hi"), nil, func(d string) {
		deltas = append(deltas, d)
	})
	require.NoError(t, err)

	assert.Equal(t, "abc", msg.Content)
	assert.Equal(t, []string{"a", "b", "c"}, deltas)
	assert.True(t, m.Requests()[0].Stream)
}
