package agent

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/agentgraph/artifact"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

// InputFunc asks the user for the next instruction. Returning io.EOF ends
// the drafting session.
type InputFunc func(ctx context.Context) (string, error)

// DrafterGreeting opens a drafting session with an empty history.
const DrafterGreeting = "I'm ready to help you update a document. What would you like to create?"

// DrafterPrompt is the drafter's system prompt template.
const DrafterPrompt = `You are Drafter, a helpful writing assistant. You are going to help the user update and modify documents.

- If the user wants to update or modify content, use the 'update' tool with the complete updated content.
- If the user wants to save and finish, you need to use the 'save' tool.
- Make sure to always show the current document state after modifications.

The current document content is:{{.Document}}`

const drafterStoppedKey = "drafter.stopped"

// NewDrafter builds the interactive document drafter. Each visit to the
// "agent" node takes one user instruction (the greeting on an empty
// history), calls the model and always continues to the "tools" node. The
// run ends after a successful save or when input returns io.EOF.
func NewDrafter(llm model.Model, store artifact.Store, input InputFunc, optFns ...func(o *Options)) (*Agent, error) {
	if store == nil || input == nil {
		return nil, fmt.Errorf("%w: drafter needs an artifact store and an input function", core.ErrConfiguration)
	}

	opts := applyOptions(optFns)

	reg, err := tool.NewRegistry(tool.Update(), tool.Save(store))
	if err != nil {
		return nil, err
	}

	caller := newModelCaller(llm, opts.instruction(NewInstructionFromTemplate(DrafterPrompt)), reg, opts)

	agentNode := func(ctx context.Context, state core.State) (core.State, error) {
		var user core.Message

		if !hasConversation(state) {
			user = core.NewUserMessage(DrafterGreeting)
		} else {
			text, err := input(ctx)
			if errors.Is(err, io.EOF) {
				return state.WithValue(drafterStoppedKey, true), nil
			}

			if err != nil {
				return state, err
			}

			user = core.NewUserMessage(text)
		}

		reply, err := caller.call(ctx, state, user)
		if err != nil {
			return state, err
		}

		return core.AppendMessages(state, user, reply), nil
	}

	b := graph.NewBuilder("drafter").
		AddNode("agent", agentNode).
		AddNode("tools", graph.ToolsNode(opts.dispatcher(reg))).
		SetEntryPoint("agent").
		AddEdge("agent", "tools").
		AddConditionalEdges("tools", DrafterRoute, map[string]string{
			graph.RouteContinue: "agent",
			graph.RouteEnd:      graph.End,
		})

	return compile("drafter", b, opts, "agent")
}

// DrafterRoute ends the session once a save in the latest tool round
// succeeded, or the user stopped; otherwise it loops back for the next
// instruction.
func DrafterRoute(state core.State) string {
	if v, ok := state.Value(drafterStoppedKey); ok && v == true {
		return graph.RouteEnd
	}

	if SavedInLastRound(state) {
		return graph.RouteEnd
	}

	return graph.RouteContinue
}

// SavedInLastRound reports whether the trailing tool results contain a
// successful save.
func SavedInLastRound(state core.State) bool {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		m := state.Messages[i]
		if m.Role != core.RoleTool {
			return false
		}

		if m.Name == "save" && !m.HasTag(core.TagToolError) {
			return true
		}
	}

	return false
}

func hasConversation(state core.State) bool {
	for _, m := range state.Messages {
		if m.Role != core.RoleSystem {
			return true
		}
	}

	return false
}
