package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

// modelCaller sends the conversation to a model with the resolved system
// prompt in front and the registry's tools attached.
type modelCaller struct {
	llm         model.Model
	instruction Instruction
	tools       []model.ToolDefinition
	onPartial   func(string)
	logger      logging.Logger
}

func newModelCaller(llm model.Model, instruction Instruction, reg *tool.Registry, opts Options) *modelCaller {
	c := &modelCaller{
		llm:         llm,
		instruction: instruction,
		onPartial:   opts.OnPartial,
		logger:      opts.Logger,
	}

	if reg != nil {
		c.tools = model.ToolDefinitions(reg.Tools())
	}

	return c
}

// request builds the model input. System messages already in state are
// replaced by the resolved instruction; extra messages go last.
func (c *modelCaller) request(state core.State, extra ...core.Message) (model.Request, error) {
	prompt, err := c.instruction.Resolve(state)
	if err != nil {
		return model.Request{}, fmt.Errorf("resolve instruction: %w", err)
	}

	msgs := make([]core.Message, 0, len(state.Messages)+len(extra)+1)
	if prompt != "" {
		msgs = append(msgs, core.NewSystemMessage(prompt))
	}

	for _, m := range state.Messages {
		if m.Role != core.RoleSystem {
			msgs = append(msgs, m)
		}
	}

	msgs = append(msgs, extra...)

	return model.Request{Messages: msgs, Tools: c.tools}, nil
}

func (c *modelCaller) call(ctx context.Context, state core.State, extra ...core.Message) (core.Message, error) {
	req, err := c.request(state, extra...)
	if err != nil {
		return core.Message{}, err
	}

	reply, err := model.InvokeStream(ctx, c.llm, req, c.logger, c.onPartial)
	if err != nil {
		return core.Message{}, err
	}

	if reply.HasToolCalls() {
		names := make([]string, len(reply.ToolCalls))
		for i, tc := range reply.ToolCalls {
			names[i] = tc.Name
		}

		c.logger.Debug("agent.model.tool_calls", "model", c.llm.Info().Name, "tools", names)
	}

	return reply, nil
}

// node returns a graph node appending the model's reply to the state.
func (c *modelCaller) node() func(ctx context.Context, state core.State) (core.State, error) {
	return func(ctx context.Context, state core.State) (core.State, error) {
		reply, err := c.call(ctx, state)
		if err != nil {
			return state, err
		}

		return core.AppendMessages(state, reply), nil
	}
}
