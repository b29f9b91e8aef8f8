package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
)

func graphResult(s core.State) graph.Result { return graph.Result{State: s} }

func TestInstruction_Static(t *testing.T) {
	i := NewInstructionFromText("static")
	assert.True(t, i.IsStatic())

	got, err := i.Resolve(core.NewState())
	require.NoError(t, err)
	assert.Equal(t, "static", got)
}

func TestInstruction_Template(t *testing.T) {
	i := NewInstructionFromTemplate(DrafterPrompt)
	assert.False(t, i.IsStatic())

	got, err := i.Resolve(core.State{Document: "Draft v2"})
	require.NoError(t, err)
	assert.Contains(t, got, "The current document content is:Draft v2")
}

func TestInstruction_TemplateLeavesDocumentUnparsed(t *testing.T) {
	got, err := NewInstructionFromTemplate("Doc: {{.Document}}").Resolve(core.State{Document: "{{.Values}}"})
	require.NoError(t, err)
	assert.Equal(t, "Doc: {{.Values}}", got)
}

func TestInstruction_FuncError(t *testing.T) {
	boom := errors.New("boom")
	i := NewInstructionFromFunc(func(core.State) (string, error) { return "", boom })

	_, err := i.Resolve(core.NewState())
	require.ErrorIs(t, err, boom)
}
