package rag

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/agentgraph/core"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the minimum number of characters shared by
	// neighbouring chunks.
	DefaultChunkOverlap = 100
)

// DefaultSeparators are tried in order; after the last one the splitter
// cuts at the size limit.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " "}

// Chunk is a contiguous slice of the source document. Start and End are
// byte offsets, so Text == source[Start:End].
type Chunk struct {
	Index  int       `json:"index" msgpack:"index"`
	Start  int       `json:"start" msgpack:"start"`
	End    int       `json:"end" msgpack:"end"`
	Text   string    `json:"text" msgpack:"text"`
	Vector []float32 `json:"vector,omitempty" msgpack:"vector"`
}

// SplitterOptions configures a Splitter.
type SplitterOptions struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// Splitter breaks text into overlapping chunks, preferring to cut at
// paragraph, line, sentence and word boundaries, in that order. Separators
// stay attached to the text before them, so chunks cover the source with no
// gaps.
type Splitter struct {
	opts SplitterOptions
}

// NewSplitter validates the options and returns a Splitter.
func NewSplitter(optFns ...func(o *SplitterOptions)) (*Splitter, error) {
	opts := SplitterOptions{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Separators:   DefaultSeparators,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrConfiguration, opts.ChunkSize)
	}

	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", core.ErrConfiguration, opts.ChunkOverlap, opts.ChunkSize)
	}

	return &Splitter{opts: opts}, nil
}

// span is a byte range of the source with its length in characters.
type span struct {
	start, end int
	n          int
}

// Split returns the chunks of text in document order.
func (s *Splitter) Split(text string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	pieces := s.pieces(text, 0, len(text), s.opts.Separators)
	spans := s.window(text, pieces)

	chunks := make([]Chunk, len(spans))
	for i, sp := range spans {
		chunks[i] = Chunk{Index: i, Start: sp.start, End: sp.end, Text: text[sp.start:sp.end]}
	}

	return chunks, nil
}

// pieces cuts text[start:end] at separators until every span fits the
// chunk size. A span with no separator left is returned whole, even when it
// is longer than a chunk.
func (s *Splitter) pieces(text string, start, end int, seps []string) []span {
	n := utf8.RuneCountInString(text[start:end])
	if n <= s.opts.ChunkSize {
		return []span{{start: start, end: end, n: n}}
	}

	for i, sep := range seps {
		if !strings.Contains(text[start:end], sep) {
			continue
		}

		var out []span

		pos := start
		for pos < end {
			j := strings.Index(text[pos:end], sep)

			next := end
			if j >= 0 {
				next = pos + j + len(sep)
			}

			out = append(out, s.pieces(text, pos, next, seps[i+1:])...)
			pos = next
		}

		return out
	}

	return []span{{start: start, end: end, n: n}}
}

// window slides a chunk-sized window over the text. Each chunk ends on the
// last piece boundary that fits, or is cut at the size limit when none
// does. The next chunk starts on the last boundary at least ChunkOverlap
// characters before that end, or exactly ChunkOverlap characters back.
func (s *Splitter) window(text string, pieces []span) []span {
	// offsets maps a character index to its byte offset.
	offsets := make([]int, 0, len(text)+1)
	for off := range text {
		offsets = append(offsets, off)
	}

	offsets = append(offsets, len(text))
	total := len(offsets) - 1

	bounds := make([]int, len(pieces))

	pos := 0
	for i, p := range pieces {
		pos += p.n
		bounds[i] = pos
	}

	// lastBound returns the greatest piece boundary <= x, or 0.
	lastBound := func(x int) int {
		i := sort.SearchInts(bounds, x+1) - 1
		if i < 0 {
			return 0
		}

		return bounds[i]
	}

	var (
		out     []span
		start   int
		prevEnd int
	)

	for {
		limit := min(start+s.opts.ChunkSize, total)

		end := lastBound(limit)
		if end <= start+s.opts.ChunkOverlap || end <= prevEnd {
			end = limit
		}

		out = append(out, span{start: offsets[start], end: offsets[end], n: end - start})

		if end == total {
			return out
		}

		next := lastBound(end - s.opts.ChunkOverlap)
		if next <= start {
			next = end - s.opts.ChunkOverlap
		}

		start, prevEnd = next, end
	}
}
