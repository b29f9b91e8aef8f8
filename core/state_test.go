package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendMessages_AppendOnly(t *testing.T) {
	s := NewState(NewSystemMessage("sys"), NewUserMessage("hi"))
	before := s.Clone()

	out := AppendMessages(s, NewAssistantMessage("hello"), NewUserMessage("again"))

	require.Len(t, out.Messages, 4)
	assert.Equal(t, before.Messages, out.Messages[:2], "prefix must be preserved")
	assert.Equal(t, "hello", out.Messages[2].Content)
	assert.Equal(t, "again", out.Messages[3].Content)
	assert.Equal(t, before, s, "input state must not change")
}

func TestAppendMessages_DoesNotAlias(t *testing.T) {
	s := NewState(NewUserMessage("a"))
	s.Messages = append(make([]Message, 0, 8), s.Messages...)

	x := AppendMessages(s, NewUserMessage("x"))
	y := AppendMessages(s, NewUserMessage("y"))

	assert.Equal(t, "x", x.Messages[1].Content)
	assert.Equal(t, "y", y.Messages[1].Content)
}

func TestTrimHistory(t *testing.T) {
	s := NewState(
		NewSystemMessage("sys"),
		NewUserMessage("1"),
		NewAssistantMessage("2"),
		NewUserMessage("3"),
		NewAssistantMessage("4"),
	)

	out := TrimHistory(s, 2)
	require.Len(t, out.Messages, 3)
	assert.Equal(t, RoleSystem, out.Messages[0].Role)
	assert.Equal(t, "3", out.Messages[1].Content)
	assert.Equal(t, "4", out.Messages[2].Content)
	assert.Len(t, s.Messages, 5)

	assert.Equal(t, s, TrimHistory(s, 0))
	assert.Equal(t, s, TrimHistory(s, 10))
}

func TestTrimHistory_DropsOrphanedToolResults(t *testing.T) {
	call := ToolCall{ID: "c1", Name: "add"}
	s := NewState(
		NewUserMessage("q"),
		NewAssistantMessage("", call),
		NewToolMessage("c1", "add", "3"),
		NewAssistantMessage("3"),
	)

	out := TrimHistory(s, 2)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, "3", out.Messages[0].Content)
	assert.NoError(t, out.Validate())
}

func TestState_Validate(t *testing.T) {
	call := ToolCall{ID: "c1", Name: "add"}

	t.Run("ok", func(t *testing.T) {
		s := NewState(NewUserMessage("q"), NewAssistantMessage("", call), NewToolMessage("c1", "add", "1"))
		assert.NoError(t, s.Validate())
	})

	t.Run("orphan", func(t *testing.T) {
		s := NewState(NewUserMessage("q"), NewToolMessage("c1", "add", "1"))
		assert.ErrorIs(t, s.Validate(), ErrOrphanToolResult)
	})

	t.Run("answered twice", func(t *testing.T) {
		s := NewState(
			NewAssistantMessage("", call),
			NewToolMessage("c1", "add", "1"),
			NewToolMessage("c1", "add", "1"),
		)
		assert.ErrorIs(t, s.CheckToolResults(), ErrOrphanToolResult)
	})

	t.Run("dangling", func(t *testing.T) {
		s := NewState(NewUserMessage("q"), NewAssistantMessage("", call))
		assert.NoError(t, s.CheckToolResults())
		assert.ErrorIs(t, s.Validate(), ErrDanglingToolCall)
		assert.Equal(t, []ToolCall{call}, s.PendingToolCalls())
	})
}

func TestApplyDelta(t *testing.T) {
	s := State{Document: "old"}

	out := ApplyDelta(s, map[string]any{DocumentKey: "new", "saved": true})

	assert.Equal(t, "new", out.Document)
	v, ok := out.Value("saved")
	assert.True(t, ok)
	assert.Equal(t, true, v)
	assert.Equal(t, "old", s.Document)
	assert.Nil(t, s.Values)
}

func TestMessage_Tags(t *testing.T) {
	m := NewAssistantMessage("stop")
	tagged := m.WithTag(TagIterationLimit)

	assert.False(t, m.HasTag(TagIterationLimit))
	assert.True(t, tagged.HasTag(TagIterationLimit))
}
