package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hupe1980/agentgraph/embed"
	"github.com/hupe1980/agentgraph/kv"
	"github.com/hupe1980/agentgraph/logging"
)

// Meta describes a persisted index.
type Meta struct {
	Name         string `msgpack:"name"`
	Fingerprint  string `msgpack:"fingerprint"`
	ChunkSize    int    `msgpack:"chunk_size"`
	ChunkOverlap int    `msgpack:"chunk_overlap"`
	Dimension    int    `msgpack:"dimension"`
	Count        int    `msgpack:"count"`
}

// splitterVersion changes whenever the chunking of a given input changes.
const splitterVersion = 2

// Fingerprint identifies the inputs an index was built from: source text,
// chunking settings and embedding dimension.
func Fingerprint(text string, opts SplitterOptions, dim int) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d\x00%d\x00%d\x00%d\x00%q\x00", splitterVersion, opts.ChunkSize, opts.ChunkOverlap, dim, opts.Separators)
	_, _ = h.Write([]byte(text))

	return hex.EncodeToString(h.Sum(nil))
}

func indexPrefix(name string) kv.Key { return kv.Key{"rag", name} }

func metaKey(name string) kv.Key { return kv.Key{"rag", name, "meta"} }

func chunkPrefix(name string) kv.Key { return kv.Key{"rag", name, "chunk"} }

func chunkKey(name string, i int) kv.Key {
	return kv.Key{"rag", name, "chunk", fmt.Sprintf("%08d", i)}
}

// Save writes the index under name, replacing any previous version.
func (x *Index) Save(ctx context.Context, store kv.Store, name string, meta Meta) error {
	if err := kv.DeletePrefix(ctx, store, indexPrefix(name)); err != nil {
		return fmt.Errorf("rag: clear index %s: %w", name, err)
	}

	meta.Name = name
	meta.Count = len(x.chunks)
	meta.Dimension = x.embedder.Dimension()

	entries := make([]kv.Entry, 0, len(x.chunks)+1)

	for i, c := range x.chunks {
		e, err := kv.Encode(chunkKey(name, i), c)
		if err != nil {
			return err
		}

		entries = append(entries, e)
	}

	// meta is written last; Load treats a missing meta as no index
	m, err := kv.Encode(metaKey(name), meta)
	if err != nil {
		return err
	}

	if err := store.BatchSet(ctx, entries); err != nil {
		return fmt.Errorf("rag: save index %s: %w", name, err)
	}

	return store.Set(ctx, m.Key, m.Value)
}

// Load reads the index saved under name. It returns kv.ErrNotFound when
// nothing was saved.
func Load(ctx context.Context, store kv.Store, name string, embedder embed.Embedder) (*Index, Meta, error) {
	meta, err := kv.GetValue[Meta](ctx, store, metaKey(name))
	if err != nil {
		return nil, Meta{}, err
	}

	chunks := make([]Chunk, 0, meta.Count)

	for e, err := range store.List(ctx, chunkPrefix(name)) {
		if err != nil {
			return nil, Meta{}, err
		}

		c, err := kv.Decode[Chunk](e)
		if err != nil {
			return nil, Meta{}, err
		}

		chunks = append(chunks, c)
	}

	if len(chunks) != meta.Count {
		return nil, Meta{}, fmt.Errorf("rag: index %s has %d chunks, meta says %d", name, len(chunks), meta.Count)
	}

	for i, c := range chunks {
		if c.Index != i {
			return nil, Meta{}, fmt.Errorf("rag: index %s chunk %d out of order", name, c.Index)
		}
	}

	idx, err := newIndex(chunks, embedder)
	if err != nil {
		return nil, Meta{}, err
	}

	return idx, meta, nil
}

// LoadOrBuild reuses the index saved under name when its fingerprint
// matches text and the chunking options; otherwise it builds a fresh index
// and saves it. The bool reports whether a persisted index was reused.
func LoadOrBuild(
	ctx context.Context,
	store kv.Store,
	name, text string,
	embedder embed.Embedder,
	optFns ...func(o *Options),
) (*Index, bool, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)
	fp := Fingerprint(text, opts.Splitter, embedder.Dimension())

	idx, meta, err := Load(ctx, store, name, embedder)

	switch {
	case err == nil && meta.Fingerprint == fp:
		logger.Info("rag.index.reused", "name", name, "chunks", idx.Len())
		return idx, true, nil
	case err == nil:
		logger.Info("rag.index.stale", "name", name, "error", ErrStaleIndex.Error())
	case errors.Is(err, kv.ErrNotFound):
	default:
		logger.Warn("rag.index.load_failed", "name", name, "error", err.Error())
	}

	idx, err = Build(ctx, text, embedder, func(o *Options) { *o = opts })
	if err != nil {
		return nil, false, err
	}

	if err := idx.Save(ctx, store, name, Meta{
		Fingerprint:  fp,
		ChunkSize:    opts.Splitter.ChunkSize,
		ChunkOverlap: opts.Splitter.ChunkOverlap,
	}); err != nil {
		return nil, false, err
	}

	return idx, false, nil
}
