// Package main is the entry point for the agentgraph CLI.
//
// Usage:
//
//	agentgraph [flags] <command> [args]
//
// Commands:
//
//	chat     - plain chat, no memory
//	memory   - chat with a persisted conversation
//	react    - arithmetic tool-using agent
//	drafter  - interactive document drafter
//	rag      - question answering over a text document
//	index    - build or refresh the persisted index of a document
//	config   - show or initialize the configuration
package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/agentgraph/cmd/agentgraph/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
