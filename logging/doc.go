// Package logging provides a small abstraction over slog so the graph
// executor, tool dispatcher, model adapters and stores depend on a minimal
// interface (Logger) while callers plug in whatever structured logger they
// use.
//
// StructuredLogger adds component scoping and domain helpers. Components
// discover the helpers with interface checks, so any Logger works:
//
//   - LogToolCall: tool.call.completed / tool.call.failed
//   - LogModelCall: model.call.completed / model.call.failed with token usage
//   - LogGraphRun: graph.run.completed / graph.run.failed
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json"})
//	a, err := agent.NewReAct(m, func(o *agent.Options) { o.Logger = logger })
//
// NoOpLogger discards everything and is the default wherever a Logger is
// optional.
package logging
