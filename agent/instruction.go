package agent

import (
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/internal/util"
)

// Provider supplies instruction text derived from the current state.
type Provider interface {
	Instruction(state core.State) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(state core.State) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(state core.State) (string, error) { return f(state) }

// Instruction is either a static system prompt or a dynamic provider.
// The zero value means no system prompt.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(core.State) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// NewInstructionFromTemplate renders a text/template against the state on
// every resolve. The template sees .Document, .Values and .Messages.
func NewInstructionFromTemplate(tmpl string) Instruction {
	return NewInstructionFromFunc(func(s core.State) (string, error) {
		return util.RenderTemplate(tmpl, s)
	})
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(state core.State) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(state)
	}

	return i.text, nil
}
