package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/tool"
)

// Prompts used by the prebuilt agents.
const (
	ChatPrompt     = "Enter your message: "
	QuestionPrompt = "What is your question: "
	DrafterPrompt  = "What would you like to do with the document? "
	AnswerHeader   = "=== ANSWER ==="
)

// IsExit reports whether line ends the session.
func IsExit(line string) bool {
	line = strings.TrimSpace(line)
	return strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit")
}

// Options configures a Runner.
type Options struct {
	// Prompt is printed before every line read by Chat.
	Prompt string

	// AnswerHeader, when set, is printed above each answer instead of the
	// "AI: " label.
	AnswerHeader string

	// ShowTools prints tool requests and results of every turn.
	ShowTools bool

	Theme  Theme
	Logger logging.Logger
}

// Runner is a line oriented console session. Public methods are safe for
// concurrent use; reads and writes are serialized.
type Runner struct {
	mu       sync.Mutex
	in       *bufio.Scanner
	out      io.Writer
	opts     Options
	styles   Styles
	streamed bool
}

// New constructs a Runner reading from in and writing to out.
func New(in io.Reader, out io.Writer, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Prompt: ChatPrompt,
		Theme:  DefaultTheme,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &Runner{
		in:     scanner,
		out:    out,
		opts:   opts,
		styles: NewStyles(out, opts.Theme),
	}
}

// Styles returns the styles bound to the output.
func (r *Runner) Styles() Styles { return r.styles }

// ReadLine prints prompt and reads one line. It returns io.EOF when input
// is exhausted.
func (r *Runner) ReadLine(prompt string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprint(r.out, r.styles.Prompt.Render(prompt))

	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return r.in.Text(), nil
}

// Partial returns a callback printing streamed content as it arrives.
// Chat then skips reprinting the finished answer.
func (r *Runner) Partial() func(delta string) {
	return func(delta string) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if !r.streamed {
			r.streamed = true
			r.writeLabel()
		}

		fmt.Fprint(r.out, delta)
	}
}

// Chat runs the read, send, print loop until the user exits or input ends.
// A failed turn is reported and the loop continues; a canceled context
// ends it.
func (r *Runner) Chat(ctx context.Context, conv *agent.Conversation) error {
	for {
		line, err := r.ReadLine(r.opts.Prompt)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		if IsExit(line) {
			return nil
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := r.Turn(ctx, conv, line); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
		}
	}
}

// Turn sends one message and prints the answer. A failed turn is printed
// and returned.
func (r *Runner) Turn(ctx context.Context, conv *agent.Conversation, input string) error {
	res, err := conv.Send(ctx, input)
	if err != nil {
		r.opts.Logger.Error("runner.turn.failed", "error", err.Error())
		r.printError(err)

		return err
	}

	r.printTurn(res)

	return nil
}

// Input returns the drafter's input function. Exit words and the end of
// input both stop the session.
func (r *Runner) Input() agent.InputFunc {
	return func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		line, err := r.ReadLine("\n" + DrafterPrompt)
		if err != nil {
			return "", err
		}

		if IsExit(line) {
			return "", io.EOF
		}

		r.println("\n" + r.styles.Label.Render("USER:") + " " + line)

		return line, nil
	}
}

// Draft runs the drafter to completion, printing every model reply, tool
// round and document change as it happens.
func (r *Runner) Draft(ctx context.Context, a *agent.Agent) (core.State, error) {
	r.println(r.styles.Header.Render("===== DRAFTER ====="))

	seen := 0
	doc := ""

	res, err := a.Walk(ctx, core.NewState(), func(step graph.Step) bool {
		msgs := step.State.Messages
		if seen > len(msgs) {
			seen = 0
		}

		for _, m := range msgs[seen:] {
			r.printMessage(m)
		}

		seen = len(msgs)

		if step.State.Document != doc {
			r.println(r.styles.Header.Render("Document changes:"))
			r.print(RenderDiff(doc, step.State.Document, r.styles))
			doc = step.State.Document
		}

		return true
	})
	if err != nil {
		r.printError(err)
		return res.State, err
	}

	if res.LimitReached {
		r.println(r.styles.Error.Render(graph.LimitNotice))
	}

	if name, ok := res.State.Value(tool.SavedFileKey); ok {
		r.println(r.styles.Label.Render("Saved:") + fmt.Sprintf(" %v", name))
	}

	r.println(r.styles.Header.Render("===== DRAFTER FINISHED ====="))

	return res.State, nil
}

func (r *Runner) printTurn(res graph.Result) {
	msgs := res.State.Messages

	start := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser {
			start = i + 1
			break
		}
	}

	if r.opts.ShowTools {
		for _, m := range msgs[start:] {
			if m.Role == core.RoleTool || m.HasToolCalls() {
				r.printMessage(m)
			}
		}
	}

	r.mu.Lock()
	streamed := r.streamed
	r.streamed = false
	r.mu.Unlock()

	if streamed {
		r.println("")
		return
	}

	answer, err := agent.Reply(res)
	if err != nil {
		r.printError(err)
		return
	}

	if r.opts.AnswerHeader != "" {
		r.println("\n" + r.styles.Header.Render(r.opts.AnswerHeader))
		r.println(answer)

		return
	}

	r.mu.Lock()
	r.writeLabel()
	fmt.Fprintln(r.out, answer)
	r.mu.Unlock()
}

func (r *Runner) printMessage(m core.Message) {
	switch m.Role {
	case core.RoleAssistant:
		if m.Content != "" {
			r.println("\n" + r.styles.Label.Render("AI:") + " " + m.Content)
		}

		if m.HasToolCalls() {
			names := make([]string, len(m.ToolCalls))
			for i, c := range m.ToolCalls {
				names[i] = c.Name
			}

			r.println(r.styles.Tool.Render("USING TOOLS: " + strings.Join(names, ", ")))
		}
	case core.RoleTool:
		style := r.styles.Tool
		if m.HasTag(core.TagToolError) {
			style = r.styles.Error
		}

		r.println(style.Render(fmt.Sprintf("TOOL RESULT (%s): %s", m.Name, m.Content)))
	}
}

func (r *Runner) writeLabel() {
	fmt.Fprint(r.out, r.styles.Label.Render("AI:")+" ")
}

func (r *Runner) printError(err error) {
	r.println(r.styles.Error.Render("Error: " + err.Error()))
}

func (r *Runner) println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, s)
}

func (r *Runner) print(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprint(r.out, s)
}
