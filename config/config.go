// Package config loads the agentgraph CLI configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/hupe1980/agentgraph/core"
)

const (
	// DefaultBaseDir is the configuration directory below the home directory.
	DefaultBaseDir = ".agentgraph"
	// DefaultConfigFile is the default configuration filename.
	DefaultConfigFile = "config.yaml"
)

// Providers accepted in Config.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the CLI configuration. API keys are not part of it; the SDKs
// read them from their usual environment variables.
type Config struct {
	// Provider selects the chat model backend: openai or anthropic.
	Provider string `yaml:"provider"`

	// Model is the provider specific model name. Empty uses the adapter default.
	Model string `yaml:"model,omitempty"`

	Temperature float64 `yaml:"temperature"`

	// EmbeddingModel and EmbeddingDim configure the OpenAI embedder used to
	// build retrieval indexes.
	EmbeddingModel string `yaml:"embedding_model"`
	EmbeddingDim   int    `yaml:"embedding_dim"`

	MaxIterations    int `yaml:"max_iterations"`
	MaxParallelTools int `yaml:"max_parallel_tools"`

	// HistoryLimit bounds the messages the memory agent carries between
	// turns. 0 keeps everything.
	HistoryLimit int `yaml:"history_limit"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`

	// IndexDir is the badger directory holding persisted indexes and
	// conversations.
	IndexDir string `yaml:"index_dir"`

	// Transcript is the conversation log file of the memory agent.
	Transcript string `yaml:"transcript"`

	// Artifacts is where the drafter saves documents: a directory or
	// s3://bucket/prefix.
	Artifacts string `yaml:"artifacts"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:         ProviderOpenAI,
		Temperature:      0,
		EmbeddingModel:   "text-embedding-3-small",
		EmbeddingDim:     1536,
		MaxIterations:    core.DefaultMaxIterations,
		MaxParallelTools: 1,
		ChunkSize:        1000,
		ChunkOverlap:     100,
		TopK:             5,
		IndexDir:         filepath.Join(DefaultBaseDir, "index"),
		Transcript:       "logging.txt",
		Artifacts:        ".",
		LogLevel:         "warn",
		LogFormat:        "text",
	}
}

// DefaultPath returns ~/.agentgraph/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, DefaultBaseDir, DefaultConfigFile), nil
}

// Load reads path over the defaults. An empty path means DefaultPath; a
// missing default file yields the defaults, a missing explicit file is an
// error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}

		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}

		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Save writes c to path, creating the directory.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks value ranges. Errors wrap core.ErrConfiguration.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Provider) {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}

	if c.MaxIterations < 0 {
		errs = append(errs, errors.New("max_iterations must not be negative"))
	}

	if c.MaxParallelTools < 1 {
		errs = append(errs, errors.New("max_parallel_tools must be at least 1"))
	}

	if c.HistoryLimit < 0 {
		errs = append(errs, errors.New("history_limit must not be negative"))
	}

	if c.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk_size must be positive"))
	}

	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, errors.New("chunk_overlap must be in [0, chunk_size)"))
	}

	if c.TopK <= 0 {
		errs = append(errs, errors.New("top_k must be positive"))
	}

	if c.EmbeddingDim <= 0 {
		errs = append(errs, errors.New("embedding_dim must be positive"))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", core.ErrConfiguration, errors.Join(errs...))
}
