package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/kv"
)

func conversation() []core.Message {
	return []core.Message{
		core.NewUserMessage("Hi, I'm Bob"),
		core.NewAssistantMessage("Hello Bob! How can I help?"),
		core.NewUserMessage("What's my name?"),
		core.NewAssistantMessage("Your name is Bob.\nNice to meet you."),
	}
}

func contents(msgs []core.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.Role) + ":" + m.Content
	}

	return out
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	msgs, err := s.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	in := conversation()
	require.NoError(t, s.Save(ctx, "c1", in))

	in[0].Content = "mutated"

	got, err := s.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Hi, I'm Bob", got[0].Content, "saved copy is isolated")

	got[1].Content = "mutated"
	again, _ := s.Load(ctx, "c1")
	assert.Equal(t, "Hello Bob! How can I help?", again[1].Content, "loaded copy is isolated")

	s.Delete("c1")
	got, _ = s.Load(ctx, "c1")
	assert.Empty(t, got)
}

func TestTranscriptStore_Format(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs", "logging.txt")
	s := NewTranscriptStore(path)

	msgs := []core.Message{
		core.NewSystemMessage("ignored"),
		core.NewUserMessage("hello"),
		core.NewAssistantMessage("hi there"),
	}
	require.NoError(t, s.Save(ctx, DefaultConversation, msgs))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Your Conversation Log:\nYou: hello\nAI: hi there\n\nEnd of Conversation", string(b))
}

func TestTranscriptStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewTranscriptStore(filepath.Join(t.TempDir(), "logging.txt"))

	got, err := s.Load(ctx, DefaultConversation)
	require.NoError(t, err)
	assert.Empty(t, got, "missing file is an empty history")

	require.NoError(t, s.Save(ctx, DefaultConversation, conversation()))

	got, err = s.Load(ctx, DefaultConversation)
	require.NoError(t, err)
	assert.Equal(t, contents(conversation()), contents(got))
}

func TestKVStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	b, err := kv.NewBadger(func(o *kv.BadgerOptions) { o.InMemory = true })
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	s := NewKVStore(b)

	got, err := s.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, got)

	in := append(conversation(),
		core.NewAssistantMessage("", core.ToolCall{ID: "t1", Name: "add", Arguments: map[string]any{"a": "1"}}),
		core.NewToolMessage("t1", "add", "2").WithTag(core.TagToolError),
	)
	require.NoError(t, s.Save(ctx, "c1", in))

	got, err = s.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got, len(in))
	assert.Equal(t, contents(in), contents(got))
	assert.Equal(t, in[0].ID, got[0].ID)
	assert.Equal(t, "t1", got[5].ToolCallID)
	assert.True(t, got[5].HasTag(core.TagToolError))
	assert.Equal(t, "add", got[4].ToolCalls[0].Name)
	assert.Equal(t, "1", got[4].ToolCalls[0].Arguments["a"])
}
