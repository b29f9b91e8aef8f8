package agent

import (
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

// ReActPrompt is the ReAct agent's default system prompt.
const ReActPrompt = "You are my AI assistant, please answer my query to the best of your ability."

// NewReAct builds the tool-using reasoning agent. The "agent" node calls
// the model; while its reply requests tools, the "tools" node runs them and
// hands the results back. Without Options.Tools it gets add, subtract,
// multiply and divide.
func NewReAct(llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := applyOptions(optFns)

	tools := opts.Tools
	if len(tools) == 0 {
		tools = tool.Arithmetic()
	}

	reg, err := tool.NewRegistry(tools...)
	if err != nil {
		return nil, err
	}

	caller := newModelCaller(llm, opts.instruction(NewInstructionFromText(ReActPrompt)), reg, opts)

	b := graph.NewBuilder("react").
		AddNode("agent", caller.node()).
		AddNode("tools", graph.ToolsNode(opts.dispatcher(reg))).
		SetEntryPoint("agent").
		AddConditionalEdges("agent", graph.HasToolCalls, map[string]string{
			graph.RouteContinue: "tools",
			graph.RouteEnd:      graph.End,
		}).
		AddEdge("tools", "agent")

	return compile("react", b, opts, "agent")
}
