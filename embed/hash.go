package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Hash is a deterministic [Embedder] that hashes lowercased word tokens
// into a fixed number of buckets and L2-normalizes the counts. Texts that
// share words end up close in cosine space; nothing is learned.
type Hash struct {
	dim int
}

var _ Embedder = (*Hash)(nil)

// NewHash returns a Hash embedder producing vectors of the given dimension
// (default 256 when dim <= 0).
func NewHash(dim int) *Hash {
	if dim <= 0 {
		dim = 256
	}

	return &Hash{dim: dim}
}

// Embed hashes a single text.
func (h *Hash) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, h.dim)

	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		vec[f.Sum32()%uint32(h.dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}

	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec, nil
}

// EmbedBatch hashes every text in order.
func (h *Hash) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	out := make([][]float32, len(texts))

	for i, t := range texts {
		v, err := h.Embed(ctx, t)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

// Dimension returns the bucket count.
func (h *Hash) Dimension() int { return h.dim }
