// Package runner is the interactive console boundary of agentgraph.
//
// A Runner reads one line at a time, treats "exit" and "quit" (any case)
// as the end of the session, hands the line to an agent and prints the
// reply. Chat drives multi-turn agents through an agent.Conversation;
// Draft drives the drafter, whose graph asks for input itself, and prints
// the document as a diff whenever a tool rewrites it.
//
// Output is styled with lipgloss. Styles are bound to the output writer,
// so non-terminal writers get plain text.
package runner
