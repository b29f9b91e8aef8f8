package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgraph"
	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/runner"
)

var historyLimit int

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat without memory",
	Long: `Chat with the model. Every turn is sent on its own, the agent does not
remember earlier turns. With a message argument a single turn is run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newRunner()

		return withGraph(r, func(g *agentgraph.AgentGraph) error {
			a, err := g.Chat()
			if err != nil {
				return err
			}

			conv := agent.NewConversation(a, func(o *agent.ConversationOptions) { o.Stateless = true })

			return converse(cmd, r, conv, args)
		})
	},
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Chat with a remembered conversation",
	Long: `Chat with the model while carrying the conversation across turns. The
history is loaded at start and saved on exit, to the transcript file when
one is configured, otherwise to the index directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("history-limit") {
			cfg.HistoryLimit = historyLimit
		}

		r := newRunner()

		return withGraph(r, func(g *agentgraph.AgentGraph) error {
			a, err := g.MemoryChat()
			if err != nil {
				return err
			}

			store, err := g.MemoryStore()
			if err != nil {
				return err
			}

			conv := agent.NewConversation(a, func(o *agent.ConversationOptions) {
				o.Store = store
				o.HistoryLimit = cfg.HistoryLimit
			})

			ctx := cmd.Context()
			if err := conv.Load(ctx); err != nil {
				return err
			}

			if err := r.Chat(ctx, conv); err != nil {
				return err
			}

			return conv.Save(ctx)
		})
	},
}

var reactCmd = &cobra.Command{
	Use:   "react [message]",
	Short: "Run the arithmetic tool-using agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newRunner(func(o *runner.Options) { o.ShowTools = true })

		return withGraph(r, func(g *agentgraph.AgentGraph) error {
			a, err := g.ReAct()
			if err != nil {
				return err
			}

			conv := agent.NewConversation(a, func(o *agent.ConversationOptions) { o.Stateless = true })

			return converse(cmd, r, conv, args)
		})
	},
}

var drafterCmd = &cobra.Command{
	Use:   "drafter",
	Short: "Draft a document interactively",
	Long: `Work on a document with the model. Ask for changes in plain language; the
document is shown as a diff after each update. The session ends when the
document is saved or you type exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		r := newRunner()

		return withGraph(nil, func(g *agentgraph.AgentGraph) error {
			a, err := g.Drafter(r.Input())
			if err != nil {
				return err
			}

			_, err = r.Draft(cmd.Context(), a)

			return err
		})
	},
}

var ragCmd = &cobra.Command{
	Use:   "rag <document> [question]",
	Short: "Answer questions about a text document",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newRunner(func(o *runner.Options) {
			o.Prompt = runner.QuestionPrompt
			o.AnswerHeader = runner.AnswerHeader
		})

		return withGraph(nil, func(g *agentgraph.AgentGraph) error {
			a, err := g.RAG(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			conv := agent.NewConversation(a, func(o *agent.ConversationOptions) { o.Stateless = true })

			return converse(cmd, r, conv, args[1:])
		})
	},
}

var indexCmd = &cobra.Command{
	Use:   "index <document>",
	Short: "Build or refresh the persisted index of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGraph(nil, func(g *agentgraph.AgentGraph) error {
			idx, reused, err := g.Index(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			state := "built"
			if reused {
				state = "up to date"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks, %s\n", agentgraph.IndexName(args[0]), idx.Len(), state)

			return nil
		})
	},
}

func init() {
	memoryCmd.Flags().IntVar(&historyLimit, "history-limit", 0, "messages carried between turns (0: all)")
}

// converse runs a single turn when a message is given, otherwise the REPL.
func converse(cmd *cobra.Command, r *runner.Runner, conv *agent.Conversation, args []string) error {
	if len(args) == 0 {
		return r.Chat(cmd.Context(), conv)
	}

	return r.Turn(cmd.Context(), conv, strings.Join(args, " "))
}
