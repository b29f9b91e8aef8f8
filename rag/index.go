package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/agentgraph/embed"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/vecstore"
)

// Options configures Build.
type Options struct {
	Splitter SplitterOptions

	// BatchSize bounds the number of chunks sent per embedding call.
	BatchSize int

	Logger logging.Logger
}

// DefaultOptions returns the standard chunking settings.
func DefaultOptions() Options {
	return Options{
		Splitter: SplitterOptions{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
			Separators:   DefaultSeparators,
		},
		BatchSize: 128,
	}
}

// Index holds embedded chunks of one document and answers similarity
// queries. It is immutable after construction and safe for concurrent use.
type Index struct {
	chunks   []Chunk
	vectors  vecstore.Index
	embedder embed.Embedder
}

// Build splits text, embeds every chunk and indexes the vectors.
func Build(ctx context.Context, text string, embedder embed.Embedder, optFns ...func(o *Options)) (*Index, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	splitter, err := NewSplitter(func(o *SplitterOptions) { *o = opts.Splitter })
	if err != nil {
		return nil, err
	}

	chunks, err := splitter.Split(text)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	batch := opts.BatchSize
	if batch <= 0 {
		batch = len(chunks)
	}

	for i := 0; i < len(chunks); i += batch {
		end := min(i+batch, len(chunks))

		texts := make([]string, end-i)
		for j := range texts {
			texts[j] = chunks[i+j].Text
		}

		vecs, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("rag: embed chunks [%d:%d]: %w", i, end, err)
		}

		for j, v := range vecs {
			chunks[i+j].Vector = v
		}
	}

	logger.Info("rag.index.built",
		"chunks", len(chunks),
		"dimension", embedder.Dimension(),
		"duration", time.Since(start),
	)

	return newIndex(chunks, embedder)
}

func newIndex(chunks []Chunk, embedder embed.Embedder) (*Index, error) {
	vectors := vecstore.NewMemory()

	ids := make([]string, len(chunks))
	vecs := make([][]float32, len(chunks))

	for i, c := range chunks {
		ids[i] = strconv.Itoa(i)
		vecs[i] = c.Vector
	}

	if err := vectors.BatchInsert(ids, vecs); err != nil {
		return nil, err
	}

	return &Index{chunks: chunks, vectors: vectors, embedder: embedder}, nil
}

// Len returns the number of chunks.
func (x *Index) Len() int { return len(x.chunks) }

// Chunks returns a copy of the chunks in document order.
func (x *Index) Chunks() []Chunk { return append([]Chunk(nil), x.chunks...) }

// Search returns up to k chunks ordered by descending cosine similarity to
// query; equal scores keep document order. An empty index yields an empty
// result.
func (x *Index) Search(ctx context.Context, query string, k int) ([]Chunk, error) {
	if x.Len() == 0 || k <= 0 || strings.TrimSpace(query) == "" {
		return []Chunk{}, nil
	}

	qv, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("rag: embed query: %w", err)
	}

	matches, err := x.vectors.Search(qv, k)
	if err != nil {
		return nil, err
	}

	out := make([]Chunk, 0, len(matches))

	for _, m := range matches {
		i, err := strconv.Atoi(m.ID)
		if err != nil || i < 0 || i >= len(x.chunks) {
			return nil, fmt.Errorf("rag: vector id %q out of range", m.ID)
		}

		out = append(out, x.chunks[i])
	}

	return out, nil
}
