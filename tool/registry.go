package tool

import (
	"fmt"

	"github.com/hupe1980/agentgraph/core"
)

// Registry maps tool names to tools. It is built once and never mutated.
type Registry struct {
	byName map[string]Tool
	order  []Tool
}

// NewRegistry builds a registry. Duplicate or empty names are configuration errors.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(tools)), order: make([]Tool, 0, len(tools))}

	for _, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("%w: nil tool", core.ErrConfiguration)
		}

		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("%w: tool with empty name", core.ErrConfiguration)
		}

		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("%w: %w: %s", core.ErrConfiguration, ErrDuplicateTool, name)
		}

		r.byName[name] = t
		r.order = append(r.order, t)
	}

	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
func MustNewRegistry(tools ...Tool) *Registry {
	r, err := NewRegistry(tools...)
	if err != nil {
		panic(err)
	}

	return r
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}

	t, ok := r.byName[name]

	return t, ok
}

// Tools returns the tools in registration order.
func (r *Registry) Tools() []Tool {
	if r == nil {
		return nil
	}

	return append([]Tool(nil), r.order...)
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}

	names := make([]string, len(r.order))
	for i, t := range r.order {
		names[i] = t.Name()
	}

	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.order)
}
