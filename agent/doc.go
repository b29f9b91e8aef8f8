// Package agent contains the prebuilt agents and the plumbing they share.
// Every agent is a compiled graph.Graph wrapped in an *Agent:
//
//  1. Chat and MemoryChat: one model node, no tools
//  2. ReAct: model node plus a tools node running the arithmetic tools
//  3. Drafter: interactive document editor driven by the update and save tools
//  4. RAG: model node plus a retrieve tool over a rag.Index
//
// Conversation carries state between REPL turns, trims it and persists it
// through a memory.Store.
package agent
