package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentgraph/artifact"
	"github.com/hupe1980/agentgraph/core"
)

// UpdateArgs are the arguments of the update tool.
type UpdateArgs struct {
	Content string `json:"content" jsonschema:"the complete updated document content"`
}

// SaveArgs are the arguments of the save tool.
type SaveArgs struct {
	Filename string `json:"filename" jsonschema:"the name of the text file to save the content to"`
}

// Update returns a tool replacing the document buffer. The change becomes
// visible once the tools node applies the call's state delta.
func Update() *FunctionTool {
	return MustNewFunc("update", "This tool updates the document with new content.",
		func(tc *core.ToolContext, args UpdateArgs) (any, error) {
			tc.SetDocument(args.Content)
			return "Document successfully updated. Current content is: " + args.Content, nil
		})
}

// Save returns a tool writing the current document to store. A missing .txt
// extension is appended to the file name.
func Save(store artifact.Store) *FunctionTool {
	return MustNewFunc("save", "This tool saves the current document content to a file.",
		func(tc *core.ToolContext, args SaveArgs) (any, error) {
			filename := strings.TrimSpace(args.Filename)
			if !strings.HasSuffix(filename, ".txt") {
				filename += ".txt"
			}

			if err := store.Save(tc.Context(), filename, []byte(tc.Document())); err != nil {
				return nil, fmt.Errorf("error saving document: %w", err)
			}

			tc.SetState(SavedFileKey, filename)

			return fmt.Sprintf("Document successfully saved to %s.", filename), nil
		})
}

// SavedFileKey is the state key the save tool records the written file name under.
const SavedFileKey = "saved_file"
