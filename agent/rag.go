package agent

import (
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/rag"
	"github.com/hupe1980/agentgraph/tool"
)

// RAGPrompt is the RAG agent's default system prompt.
const RAGPrompt = `You are an intelligent AI assistant who answers questions based on the document loaded into your knowledge base.
Use the retriever tool available to answer questions about the document. You can make multiple calls if needed.
If you need to look up some information before asking a follow up question, you are allowed to do that!
Please always cite the specific parts of the documents you use in your answers.`

// NewRAG builds the retrieval agent over idx. The "llm" node calls the
// model with the retrieve tool attached; the "retriever_agent" node runs
// the requested searches.
func NewRAG(llm model.Model, idx *rag.Index, optFns ...func(o *Options)) (*Agent, error) {
	opts := applyOptions(optFns)

	reg, err := tool.NewRegistry(rag.NewRetrieveTool(idx, opts.TopK))
	if err != nil {
		return nil, err
	}

	caller := newModelCaller(llm, opts.instruction(NewInstructionFromText(RAGPrompt)), reg, opts)

	b := graph.NewBuilder("rag").
		AddNode("llm", caller.node()).
		AddNode("retriever_agent", graph.ToolsNode(opts.dispatcher(reg))).
		SetEntryPoint("llm").
		AddConditionalEdges("llm", graph.HasToolCalls, map[string]string{
			graph.RouteContinue: "retriever_agent",
			graph.RouteEnd:      graph.End,
		}).
		AddEdge("retriever_agent", "llm")

	return compile("rag", b, opts, "llm")
}
