package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/memory"
	"github.com/hupe1980/agentgraph/model"
	tu "github.com/hupe1980/agentgraph/internal/testutil"
)

// echoReply answers with the number of messages the model saw.
func echoReply() tu.Reply {
	return tu.Reply{Respond: func(req model.Request) (core.Message, error) {
		return core.NewAssistantMessage(fmt.Sprintf("seen %d", len(req.Messages))), nil
	}}
}

func TestConversation_CarriesHistory(t *testing.T) {
	m := tu.NewScriptedModel(echoReply(), echoReply())

	a, err := NewMemoryChat(m)
	require.NoError(t, err)

	conv := NewConversation(a)

	res, err := conv.Send(context.Background(), "Hi, I'm Sam.")
	require.NoError(t, err)

	reply, _ := Reply(res)
	assert.Equal(t, "seen 1", reply)

	res, err = conv.Send(context.Background(), "What's my name?")
	require.NoError(t, err)

	reply, _ = Reply(res)
	assert.Equal(t, "seen 3", reply)
	assert.Len(t, conv.History(), 4)
}

func TestConversation_HistoryLimit(t *testing.T) {
	m := tu.NewScriptedModel(echoReply(), echoReply(), echoReply())

	a, err := NewMemoryChat(m)
	require.NoError(t, err)

	conv := NewConversation(a, func(o *ConversationOptions) { o.HistoryLimit = 2 })

	for _, in := range []string{"one", "two", "three"} {
		_, err := conv.Send(context.Background(), in)
		require.NoError(t, err)
	}

	reqs := m.Requests()
	assert.Len(t, reqs[2].Messages, 3)
	assert.Equal(t, "two", reqs[2].Messages[0].Content)
}

func TestConversation_Stateless(t *testing.T) {
	m := tu.NewScriptedModel(echoReply(), echoReply())

	a, err := NewChat(m)
	require.NoError(t, err)

	conv := NewConversation(a, func(o *ConversationOptions) { o.Stateless = true })

	for _, in := range []string{"one", "two"} {
		res, err := conv.Send(context.Background(), in)
		require.NoError(t, err)

		reply, _ := Reply(res)
		assert.Equal(t, "seen 1", reply)
	}

	assert.Empty(t, conv.History())
}

func TestConversation_ErrorKeepsHistory(t *testing.T) {
	boom := errors.New("rate limited")
	m := tu.NewScriptedModel(tu.Text("hello"), tu.Fail(boom))

	a, err := NewMemoryChat(m)
	require.NoError(t, err)

	conv := NewConversation(a)

	_, err = conv.Send(context.Background(), "hi")
	require.NoError(t, err)

	_, err = conv.Send(context.Background(), "again")
	require.ErrorIs(t, err, boom)

	assert.Len(t, conv.History(), 2)
}

func TestConversation_LoadAndSave(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()

	require.NoError(t, store.Save(ctx, "sam", []core.Message{
		core.NewUserMessage("My name is Sam."),
		core.NewAssistantMessage("Nice to meet you, Sam."),
	}))

	m := tu.NewScriptedModel(echoReply())

	a, err := NewMemoryChat(m)
	require.NoError(t, err)

	conv := NewConversation(a, func(o *ConversationOptions) {
		o.ID = "sam"
		o.Store = store
	})

	require.NoError(t, conv.Load(ctx))

	_, err = conv.Send(ctx, "What's my name?")
	require.NoError(t, err)
	require.NoError(t, conv.Save(ctx))

	saved, err := store.Load(ctx, "sam")
	require.NoError(t, err)
	require.Len(t, saved, 4)
	assert.Equal(t, "seen 3", saved[3].Content)
}

func TestReply_RequiresAssistantMessage(t *testing.T) {
	_, err := Reply(graphResult(userState("hi")))
	require.Error(t, err)
}
