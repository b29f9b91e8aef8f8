package agent

import (
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/model"
)

// NewChat builds the plain chat agent: a single "process" node sending the
// conversation to the model and appending the reply. It has no system
// prompt unless Options.Instruction is set.
func NewChat(llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	return newSingleNode("chat", "process", llm, optFns)
}

// NewMemoryChat builds the memory chat agent. The graph is the same single
// model node; history is carried across turns by a Conversation.
func NewMemoryChat(llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	return newSingleNode("memory_chat", "process_message", llm, optFns)
}

func newSingleNode(name, node string, llm model.Model, optFns []func(o *Options)) (*Agent, error) {
	opts := applyOptions(optFns)
	caller := newModelCaller(llm, opts.instruction(Instruction{}), nil, opts)

	b := graph.NewBuilder(name).
		AddNode(node, caller.node()).
		AddEdge(node, graph.End).
		SetEntryPoint(node)

	return compile(name, b, opts, node)
}
