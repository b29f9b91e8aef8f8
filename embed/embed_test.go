package embed_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/embed"
	"github.com/hupe1980/agentgraph/internal/util"
)

// fakeEmbeddingServer answers OpenAI-compatible embedding requests with
// vectors derived from the input position. The first failFirst requests
// get a 503.
func fakeEmbeddingServer(t *testing.T, dim int, failFirst int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n <= failFirst {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy"}}`))

			return
		}

		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type item struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}

		data := make([]item, len(req.Input))
		for i := range req.Input {
			vec := make([]float64, dim)
			for j := range vec {
				vec[j] = float64(i+1) * 0.01 * float64(j+1)
			}

			// reversed order to check index handling
			data[len(req.Input)-1-i] = item{Object: "embedding", Index: i, Embedding: vec}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "test-model",
			"data":   data,
			"usage":  map[string]any{"prompt_tokens": 3, "total_tokens": 3},
		})
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func newOpenAI(srv *httptest.Server, dim int) *embed.OpenAI {
	return embed.NewOpenAI(func(o *embed.OpenAIOptions) {
		o.APIKey = "test"
		o.BaseURL = srv.URL + "/"
		o.Dimension = dim
		o.Retry = util.RetryPolicy{MaxAttempts: 3, Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1}
		o.RequestOptions = []option.RequestOption{option.WithMaxRetries(0)}
	})
}

func TestOpenAI_EmbedBatch(t *testing.T) {
	const dim = 4

	srv, _ := fakeEmbeddingServer(t, dim, 0)
	e := newOpenAI(srv, dim)

	assert.Equal(t, dim, e.Dimension())

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	for i, v := range vecs {
		require.Len(t, v, dim)
		assert.InDelta(t, float64(i+1)*0.01, v[0], 1e-6, "vector %d placed by index", i)
	}
}

func TestOpenAI_RetriesTransientFailures(t *testing.T) {
	srv, calls := fakeEmbeddingServer(t, 2, 2)
	e := newOpenAI(srv, 2)

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAI_EmptyInput(t *testing.T) {
	e := embed.NewOpenAI(func(o *embed.OpenAIOptions) { o.APIKey = "test" })

	_, err := e.Embed(context.Background(), "")
	assert.ErrorIs(t, err, embed.ErrEmptyInput)

	_, err = e.EmbedBatch(context.Background(), nil)
	assert.ErrorIs(t, err, embed.ErrEmptyInput)
}

func TestHash_Deterministic(t *testing.T) {
	h := embed.NewHash(64)

	a1, err := h.Embed(context.Background(), "Stock market performance in 2024")
	require.NoError(t, err)

	a2, err := h.Embed(context.Background(), "stock MARKET performance in 2024!")
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.Len(t, a1, 64)

	var norm float32
	for _, v := range a1 {
		norm += v * v
	}

	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestHash_DefaultDimension(t *testing.T) {
	assert.Equal(t, 256, embed.NewHash(0).Dimension())
}
