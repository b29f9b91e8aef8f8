package memory

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/agentgraph/core"
)

const (
	transcriptHeader = "Your Conversation Log:"
	transcriptFooter = "End of Conversation"
	userPrefix       = "You: "
	assistantPrefix  = "AI: "
)

// TranscriptStore keeps a single conversation in a plain text log file.
// Only user and assistant messages are written; the conversation id is
// ignored. A missing file loads as an empty history.
type TranscriptStore struct {
	path string
}

var _ Store = (*TranscriptStore)(nil)

// NewTranscriptStore returns a store backed by the file at path.
func NewTranscriptStore(path string) *TranscriptStore {
	return &TranscriptStore{path: path}
}

// Path returns the log file location.
func (t *TranscriptStore) Path() string { return t.path }

// Load parses the log file. Lines that do not start a new entry continue
// the previous message.
func (t *TranscriptStore) Load(_ context.Context, _ string) ([]core.Message, error) {
	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.Message{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("memory: open transcript: %w", err)
	}
	defer f.Close()

	var (
		msgs    []core.Message
		current *strings.Builder
		role    core.Role
	)

	flush := func() {
		if current == nil {
			return
		}

		content := strings.TrimRight(current.String(), "\n")
		if role == core.RoleUser {
			msgs = append(msgs, core.NewUserMessage(content))
		} else {
			msgs = append(msgs, core.NewAssistantMessage(content))
		}

		current = nil
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for sc.Scan() {
		line := sc.Text()

		switch {
		case current == nil && line == transcriptHeader:
		case line == transcriptFooter:
			flush()
		case strings.HasPrefix(line, userPrefix):
			flush()

			current, role = &strings.Builder{}, core.RoleUser
			current.WriteString(strings.TrimPrefix(line, userPrefix))
		case strings.HasPrefix(line, assistantPrefix):
			flush()

			current, role = &strings.Builder{}, core.RoleAssistant
			current.WriteString(strings.TrimPrefix(line, assistantPrefix))
		case current != nil:
			current.WriteString("\n")
			current.WriteString(line)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("memory: read transcript: %w", err)
	}

	flush()

	return msgs, nil
}

// Save rewrites the log file.
func (t *TranscriptStore) Save(_ context.Context, _ string, msgs []core.Message) error {
	var b strings.Builder

	b.WriteString(transcriptHeader + "\n")

	for _, m := range msgs {
		switch m.Role {
		case core.RoleUser:
			b.WriteString(userPrefix + m.Content + "\n")
		case core.RoleAssistant:
			if m.Content == "" {
				continue
			}

			b.WriteString(assistantPrefix + m.Content + "\n\n")
		}
	}

	b.WriteString(transcriptFooter)

	if dir := filepath.Dir(t.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("memory: create transcript dir: %w", err)
		}
	}

	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("memory: write transcript: %w", err)
	}

	return os.Rename(tmp, t.path)
}
