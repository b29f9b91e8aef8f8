package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph"
	"github.com/hupe1980/agentgraph/config"
	"github.com/hupe1980/agentgraph/embed"
	"github.com/hupe1980/agentgraph/kv"
	"github.com/hupe1980/agentgraph/runner"
	tu "github.com/hupe1980/agentgraph/internal/testutil"
)

// run executes the CLI against a scripted model and returns stdout.
func run(t *testing.T, m *tu.ScriptedModel, input string, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	base := config.Default()
	base.Transcript = filepath.Join(dir, "logging.txt")
	base.Artifacts = filepath.Join(dir, "out")
	require.NoError(t, base.Save(cfgPath))

	var out bytes.Buffer

	origGraph, origIn, origOut := newGraph, stdin, stdout
	t.Cleanup(func() { newGraph, stdin, stdout = origGraph, origIn, origOut })

	stdin, stdout = strings.NewReader(input), &out
	newGraph = func(cfg config.Config, r *runner.Runner) (*agentgraph.AgentGraph, error) {
		return agentgraph.New(func(o *agentgraph.Options) {
			o.Config = cfg
			o.Model = m
			o.Embedder = embed.NewHash(64)
			o.KV = kv.NewMemory()

			if r != nil {
				o.OnPartial = r.Partial()
			}
		})
	}

	resetFlags(rootCmd)
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := rootCmd.ExecuteContext(context.Background())

	return out.String(), err
}

// resetFlags clears flag values left over from earlier executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}

	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)

	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestReact_SingleTurn(t *testing.T) {
	m := tu.NewScriptedModel(
		tu.ToolCalls(tu.Call("c1", "add", map[string]any{"a": 2, "b": 3})),
		tu.Text("2 + 3 = 5"),
	)

	out, err := run(t, m, "", "react", "What is 2 + 3?")
	require.NoError(t, err)

	assert.Contains(t, out, "USING TOOLS: add")
	assert.Contains(t, out, "2 + 3 = 5")
}

func TestChat_Interactive(t *testing.T) {
	m := tu.NewScriptedModel(tu.Text("Hello!"))

	out, err := run(t, m, "Hi\nexit\n", "chat")
	require.NoError(t, err)

	assert.Contains(t, out, runner.ChatPrompt)
	assert.Contains(t, out, "AI: Hello!")
}

func TestMemory_WritesTranscript(t *testing.T) {
	m := tu.NewScriptedModel(tu.Text("Nice to meet you, Sam."))

	_, err := run(t, m, "I'm Sam\nquit\n", "memory")
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Transcript)
	require.NoError(t, err)

	assert.Contains(t, string(data), "You: I'm Sam")
	assert.Contains(t, string(data), "AI: Nice to meet you, Sam.")
}

func TestIndex_MissingDocument(t *testing.T) {
	_, err := run(t, tu.NewScriptedModel(), "", "index", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestIndex_BuildsDocument(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Stocks rose in 2024."), 0o600))

	out, err := run(t, tu.NewScriptedModel(), "", "index", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "report: 1 chunks, built")
}

func TestConfigShow(t *testing.T) {
	out, err := run(t, tu.NewScriptedModel(), "", "--provider", "anthropic", "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "provider: anthropic")
	assert.Contains(t, out, "top_k: 5")
}

func TestUnknownProviderFlag(t *testing.T) {
	_, err := run(t, tu.NewScriptedModel(), "", "--provider", "gemini", "config", "show")
	require.Error(t, err)
}
