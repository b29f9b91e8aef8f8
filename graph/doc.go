// Package graph implements a small state graph executor.
//
// A graph is a set of named nodes, each a function from core.State to a new
// core.State, connected by edges. An edge is either fixed (always go to a
// target) or conditional (a Router inspects the state and returns a label
// that maps to a target). Execution starts at the entry point and stops when
// an edge leads to End.
//
// Cycles are allowed; the tool loop (agent -> tools -> agent) is one. Every
// compiled graph carries an iteration cap on its cycle entry node so a model
// that keeps requesting tools cannot spin forever.
//
// Usage:
//
//	g, err := graph.NewBuilder("react").
//		AddNode("agent", callModel).
//		AddNode("tools", runTools).
//		SetEntryPoint("agent").
//		AddConditionalEdges("agent", graph.HasToolCalls, map[string]string{
//			graph.RouteContinue: "tools",
//			graph.RouteEnd:      graph.End,
//		}).
//		AddEdge("tools", "agent").
//		Compile()
package graph
