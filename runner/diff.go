package runner

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineDiff is one line of a document diff.
type LineDiff struct {
	Op   diffmatchpatch.Operation
	Text string
}

// DiffLines compares two documents line by line.
func DiffLines(before, after string) []LineDiff {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []LineDiff

	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		for _, line := range strings.Split(text, "\n") {
			out = append(out, LineDiff{Op: d.Type, Text: line})
		}
	}

	return out
}

// RenderDiff renders the change from before to after with "+ ", "- " and
// "  " line prefixes.
func RenderDiff(before, after string, styles Styles) string {
	var sb strings.Builder

	for _, l := range DiffLines(before, after) {
		switch l.Op {
		case diffmatchpatch.DiffInsert:
			sb.WriteString(styles.Added.Render("+ " + l.Text))
		case diffmatchpatch.DiffDelete:
			sb.WriteString(styles.Removed.Render("- " + l.Text))
		default:
			sb.WriteString("  " + l.Text)
		}

		sb.WriteByte('\n')
	}

	return sb.String()
}
