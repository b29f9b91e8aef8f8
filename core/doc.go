// Package core provides the foundational data types shared by the graph
// executor, the tool subsystem and the prebuilt agents:
//
//   - Message / ToolCall: one conversation entry and a model requested tool invocation
//   - State: ordered messages plus the document buffer and task specific values
//   - AppendMessages / TrimHistory / ApplyDelta: the only ways state changes shape
//   - ToolContext: the sandbox a tool sees while it runs
//   - IterationLimiter: the cap on graph cycles
//
// Implementation concerns (model providers, persistence, orchestration) live
// in sibling packages and depend on core, never the other way around.
package core
