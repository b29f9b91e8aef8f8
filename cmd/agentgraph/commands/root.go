// Package commands implements the agentgraph cobra commands.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgraph"
	"github.com/hupe1980/agentgraph/config"
	"github.com/hupe1980/agentgraph/runner"
)

var (
	// Global flags
	configPath string
	provider   string
	modelName  string
	logLevel   string
	verbose    bool

	// Effective configuration, loaded before every command.
	cfg config.Config

	// Overridable in tests.
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	// newGraph builds the dependencies of a command. Tests replace it to
	// inject a scripted model.
	newGraph = func(cfg config.Config, r *runner.Runner) (*agentgraph.AgentGraph, error) {
		return agentgraph.New(func(o *agentgraph.Options) {
			o.Config = cfg
			o.Logger = agentgraph.NewLogger(cfg, stderr)

			if r != nil {
				o.OnPartial = r.Partial()
			}
		})
	}
)

var rootCmd = &cobra.Command{
	Use:   "agentgraph",
	Short: "Graph based LLM agents",
	Long: `agentgraph - conversational agents built as small state graphs.

Agents:
  chat      plain chat, every turn stands alone
  memory    chat that remembers the conversation across turns and sessions
  react     reasoning agent with add, subtract, multiply and divide tools
  drafter   edits a document with you and saves it when asked
  rag       answers questions about a text document

Configuration is read from ~/.agentgraph/config.yaml (or --config).
API keys come from OPENAI_API_KEY and ANTHROPIC_API_KEY.
Type "exit" or "quit" to leave an interactive session.

Examples:
  agentgraph chat
  agentgraph react "Add 40 + 12 and then multiply the result by 6."
  agentgraph rag Stock_Market_Performance_2024.txt
  agentgraph --provider anthropic drafter`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.agentgraph/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "model provider: openai or anthropic")
	rootCmd.PersistentFlags().StringVarP(&modelName, "model", "m", "", "model name")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")

	rootCmd.AddCommand(chatCmd, memoryCmd, reactCmd, drafterCmd, ragCmd, indexCmd, configCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()

	if flags.Changed("provider") {
		loaded.Provider = provider
	}

	if flags.Changed("model") {
		loaded.Model = modelName
	}

	if flags.Changed("log-level") {
		loaded.LogLevel = logLevel
	}

	if verbose {
		loaded.LogLevel = "debug"
	}

	if err := loaded.Validate(); err != nil {
		return err
	}

	cfg = loaded

	return nil
}

func newRunner(optFns ...func(o *runner.Options)) *runner.Runner {
	return runner.New(stdin, stdout, optFns...)
}

// withGraph builds the dependencies, runs fn and closes them again.
func withGraph(r *runner.Runner, fn func(g *agentgraph.AgentGraph) error) error {
	g, err := newGraph(cfg, r)
	if err != nil {
		return err
	}

	runErr := fn(g)

	if err := g.Close(); err != nil && runErr == nil {
		return fmt.Errorf("close: %w", err)
	}

	return runErr
}
