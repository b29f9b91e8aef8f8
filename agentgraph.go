// Package agentgraph wires configured models, embedders and stores into the
// prebuilt agents. Most applications either use the agent and graph
// packages directly or create an AgentGraph from a config.Config:
//
//	g, err := agentgraph.New(func(o *agentgraph.Options) { o.Config = cfg })
//	if err != nil { ... }
//	defer g.Close()
//
//	a, err := g.ReAct()
//	res, err := a.Invoke(ctx, core.NewState(core.NewUserMessage("Add 3 and 4.")))
//
// Stores are opened lazily, so a chat session never touches the index
// directory.
package agentgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/artifact"
	s3store "github.com/hupe1980/agentgraph/artifact/s3"
	"github.com/hupe1980/agentgraph/config"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/embed"
	"github.com/hupe1980/agentgraph/kv"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/memory"
	"github.com/hupe1980/agentgraph/model"
	anthropicmodel "github.com/hupe1980/agentgraph/model/anthropic"
	openaimodel "github.com/hupe1980/agentgraph/model/openai"
	"github.com/hupe1980/agentgraph/rag"
)

// Options configures an AgentGraph. Any dependency left nil is built from
// Config.
type Options struct {
	Config config.Config

	Model     model.Model
	Embedder  embed.Embedder
	KV        kv.Store
	Artifacts artifact.Store

	// OnPartial receives streamed content of chat style agents.
	OnPartial func(delta string)

	// Getenv resolves S3 credentials. Defaults to os.Getenv.
	Getenv func(string) string

	Logger logging.Logger
}

// AgentGraph holds the shared dependencies of the prebuilt agents. It is
// safe for concurrent use.
type AgentGraph struct {
	opts   Options
	model  model.Model
	logger logging.Logger

	mu        sync.Mutex
	embedder  embed.Embedder
	kv        kv.Store
	ownsKV    bool
	artifacts artifact.Store
}

// New validates the configuration and builds the chat model.
func New(optFns ...func(o *Options)) (*AgentGraph, error) {
	opts := Options{Config: config.Default(), Getenv: os.Getenv}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	logger := logging.OrNoOp(opts.Logger)

	m := opts.Model
	if m == nil {
		built, err := NewModel(opts.Config)
		if err != nil {
			return nil, err
		}

		m = model.WithRetry(built, func(o *model.RetryOptions) { o.Logger = logger })
	}

	return &AgentGraph{
		opts:      opts,
		model:     m,
		logger:    logger,
		embedder:  opts.Embedder,
		kv:        opts.KV,
		artifacts: opts.Artifacts,
	}, nil
}

// NewModel builds the configured provider adapter. API keys are read by
// the SDKs from OPENAI_API_KEY and ANTHROPIC_API_KEY.
func NewModel(cfg config.Config) (model.Model, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderOpenAI:
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}

			o.Temperature = cfg.Temperature
		}), nil
	case config.ProviderAnthropic:
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if cfg.Model != "" {
				o.Model = anthropic.Model(cfg.Model)
			}

			o.Temperature = cfg.Temperature
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", core.ErrConfiguration, cfg.Provider)
	}
}

// NewLogger builds the structured logger described by cfg.
func NewLogger(cfg config.Config, out io.Writer) *logging.StructuredLogger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Output:    out,
		Component: "agentgraph",
	})
}

// Model returns the chat model shared by all agents.
func (g *AgentGraph) Model() model.Model { return g.model }

// Config returns the effective configuration.
func (g *AgentGraph) Config() config.Config { return g.opts.Config }

func (g *AgentGraph) agentOptions(stream bool) func(o *agent.Options) {
	cfg := g.opts.Config

	return func(o *agent.Options) {
		o.MaxIterations = cfg.MaxIterations
		o.MaxParallelTools = cfg.MaxParallelTools
		o.TopK = cfg.TopK
		o.Logger = g.logger

		if stream {
			o.OnPartial = g.opts.OnPartial
		}
	}
}

// Chat builds the plain chat agent.
func (g *AgentGraph) Chat() (*agent.Agent, error) {
	return agent.NewChat(g.model, g.agentOptions(true))
}

// MemoryChat builds the memory chat agent.
func (g *AgentGraph) MemoryChat() (*agent.Agent, error) {
	return agent.NewMemoryChat(g.model, g.agentOptions(true))
}

// ReAct builds the arithmetic ReAct agent.
func (g *AgentGraph) ReAct() (*agent.Agent, error) {
	return agent.NewReAct(g.model, g.agentOptions(false))
}

// Drafter builds the drafter saving to the configured artifact store.
func (g *AgentGraph) Drafter(input agent.InputFunc) (*agent.Agent, error) {
	store, err := g.ArtifactStore()
	if err != nil {
		return nil, err
	}

	return agent.NewDrafter(g.model, store, input, g.agentOptions(false))
}

// RAG indexes the document at path (reusing a persisted index when the
// document is unchanged) and builds the retrieval agent over it.
func (g *AgentGraph) RAG(ctx context.Context, path string) (*agent.Agent, error) {
	idx, _, err := g.Index(ctx, path)
	if err != nil {
		return nil, err
	}

	return agent.NewRAG(g.model, idx, g.agentOptions(false))
}

// Index loads or builds the persisted index of the document at path. The
// boolean reports whether a persisted index was reused.
func (g *AgentGraph) Index(ctx context.Context, path string) (*rag.Index, bool, error) {
	text, err := rag.LoadDocument(path)
	if err != nil {
		return nil, false, err
	}

	store, err := g.KV()
	if err != nil {
		return nil, false, err
	}

	cfg := g.opts.Config

	return rag.LoadOrBuild(ctx, store, IndexName(path), text, g.Embedder(), func(o *rag.Options) {
		o.Splitter.ChunkSize = cfg.ChunkSize
		o.Splitter.ChunkOverlap = cfg.ChunkOverlap
		o.Logger = g.logger
	})
}

// IndexName derives the persisted index name from a document path.
func IndexName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Embedder returns the configured embedder, creating the OpenAI one on
// first use.
func (g *AgentGraph) Embedder() embed.Embedder {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.embedder == nil {
		cfg := g.opts.Config
		g.embedder = embed.NewOpenAI(func(o *embed.OpenAIOptions) {
			o.Model = cfg.EmbeddingModel
			o.Dimension = cfg.EmbeddingDim
			o.Logger = g.logger
		})
	}

	return g.embedder
}

// KV returns the key-value store, opening badger in Config.IndexDir on
// first use.
func (g *AgentGraph) KV() (kv.Store, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.kv != nil {
		return g.kv, nil
	}

	dir := g.opts.Config.IndexDir
	store, err := kv.NewBadger(func(o *kv.BadgerOptions) {
		o.Dir = dir
		o.Logger = g.logger
	})
	if err != nil {
		return nil, fmt.Errorf("open index dir %s: %w", dir, err)
	}

	g.kv, g.ownsKV = store, true

	return store, nil
}

// MemoryStore returns the conversation store of the memory agent: the
// transcript file when configured, otherwise the key-value store.
func (g *AgentGraph) MemoryStore() (memory.Store, error) {
	if path := g.opts.Config.Transcript; path != "" {
		return memory.NewTranscriptStore(path), nil
	}

	store, err := g.KV()
	if err != nil {
		return nil, err
	}

	return memory.NewKVStore(store), nil
}

// ArtifactStore returns the drafter's save destination.
func (g *AgentGraph) ArtifactStore() (artifact.Store, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.artifacts != nil {
		return g.artifacts, nil
	}

	store, err := OpenArtifacts(g.opts.Config.Artifacts, g.opts.Getenv)
	if err != nil {
		return nil, err
	}

	g.artifacts = store

	return store, nil
}

// OpenArtifacts opens a directory store, or an S3 store for
// s3://bucket/prefix locations.
func OpenArtifacts(location string, getenv func(string) string) (artifact.Store, error) {
	rest, ok := strings.CutPrefix(location, "s3://")
	if !ok {
		if location == "" {
			location = "."
		}

		return artifact.NewDirStore(location)
	}

	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return nil, fmt.Errorf("%w: artifacts location %q has no bucket", core.ErrConfiguration, location)
	}

	if getenv == nil {
		getenv = os.Getenv
	}

	return s3store.NewFromEnv(getenv, bucket, func(o *s3store.Options) { o.Prefix = prefix }), nil
}

// Close releases stores opened by the AgentGraph.
func (g *AgentGraph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error

	if g.ownsKV && g.kv != nil {
		errs = append(errs, g.kv.Close())
		g.kv = nil
	}

	return errors.Join(errs...)
}
