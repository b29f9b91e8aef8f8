package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(level LogLevel) (*StructuredLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: &buf}), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}

	return out
}

func TestStructuredLogger_LevelFilter(t *testing.T) {
	l, buf := jsonLogger(LogLevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown", "k", 1)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.EqualValues(t, 1, lines[0]["k"])
}

func TestStructuredLogger_ComponentAndAttrs(t *testing.T) {
	l, buf := jsonLogger(LogLevelDebug)

	scoped := l.WithComponent("rag").With("index", "report")
	scoped.Info("rag.index.built", "chunks", 3)
	l.Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "rag", lines[0]["component"])
	assert.Equal(t, "report", lines[0]["index"])
	assert.NotContains(t, lines[1], "component")
}

func TestStructuredLogger_DomainHelpers(t *testing.T) {
	l, buf := jsonLogger(LogLevelInfo)

	l.LogToolCall("add", time.Millisecond, true, nil)
	l.LogToolCall("divide", time.Millisecond, false, errors.New("bad args"))
	l.LogGraphRun("react", 4, time.Second, true, nil)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "tool.call.completed", lines[0]["msg"])
	assert.Equal(t, "tool.call.failed", lines[1]["msg"])
	assert.Equal(t, "bad args", lines[1]["error"])
	assert.Equal(t, "graph.run.completed", lines[2]["msg"])
	assert.Equal(t, true, lines[2]["limit_reached"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel(" error "))
	assert.Equal(t, LogLevelInfo, ParseLevel("verbose"))
}

func TestArgsToAttrs_BadKey(t *testing.T) {
	attrs := argsToAttrs([]any{"dangling"})
	require.Len(t, attrs, 1)
	assert.Equal(t, "!BADKEY", attrs[0].Key)
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))

	l, _ := jsonLogger(LogLevelInfo)
	assert.Same(t, l, OrNoOp(l))
}
