package rag

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/tool"
)

// DefaultTopK is the number of chunks the retrieve tool returns.
const DefaultTopK = 5

// NoResultsNotice is the retrieve tool's answer when nothing matched.
const NoResultsNotice = "No relevant information found in the document."

// RetrieveArgs are the arguments of the retrieve tool.
type RetrieveArgs struct {
	Query string `json:"query" jsonschema:"the search query"`
}

// NewRetrieveTool exposes idx as the "retrieve" tool returning the top k
// chunks (DefaultTopK when k <= 0).
func NewRetrieveTool(idx *Index, k int) *tool.FunctionTool {
	if k <= 0 {
		k = DefaultTopK
	}

	return tool.MustNewFunc("retrieve",
		"This tool searches and returns the information from the loaded document based on the user's query.",
		func(tc *core.ToolContext, args RetrieveArgs) (any, error) {
			chunks, err := idx.Search(tc.Context(), args.Query, k)
			if err != nil {
				return nil, err
			}

			tc.Logger().Debug("rag.retrieve", "query", args.Query, "hits", len(chunks))

			return FormatResults(chunks), nil
		})
}

// FormatResults renders chunks as numbered "Result i:" blocks separated by
// blank lines.
func FormatResults(chunks []Chunk) string {
	if len(chunks) == 0 {
		return NoResultsNotice
	}

	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("Result %d:\n%s\n", i+1, c.Text)
	}

	return strings.Join(blocks, "\n\n")
}

// LoadDocument reads a plain text source document. A missing file or an
// unsupported format is a configuration error.
func LoadDocument(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "", fmt.Errorf("%w: %s: pdf sources must be converted to text first", core.ErrConfiguration, path)
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %w: %s", core.ErrConfiguration, ErrMissingDocument, path)
	}

	if err != nil {
		return "", fmt.Errorf("rag: read %s: %w", path, err)
	}

	return string(b), nil
}
