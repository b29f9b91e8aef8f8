// Package embed turns text into dense float32 vectors for similarity search.
//
// Two implementations are provided:
//
//   - [OpenAI] calls the OpenAI embeddings API (or any compatible endpoint).
//   - [Hash] is a deterministic offline embedder based on feature hashing,
//     used in tests and when no provider is configured.
//
// Quick start:
//
//	e := embed.NewOpenAI(func(o *embed.OpenAIOptions) { o.Dimension = 256 })
//	vecs, err := e.EmbedBatch(ctx, []string{"hello", "world"})
package embed

import (
	"context"
	"errors"
)

// Embedder converts text into fixed-dimension float32 vectors.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int
}

// ErrEmptyInput is returned when there is nothing to embed.
var ErrEmptyInput = errors.New("embed: empty input")
