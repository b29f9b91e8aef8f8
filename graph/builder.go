package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/agentgraph/core"
)

// End is the terminal marker. An edge to End stops execution.
const End = "__end__"

// NodeFunc is a state transition. It must not mutate its input.
type NodeFunc func(ctx context.Context, state core.State) (core.State, error)

// Router picks the label of the next route from the current state.
type Router func(state core.State) string

type edge struct {
	to     string
	router Router
	routes map[string]string
}

// Builder assembles a graph. Mistakes are collected and reported by Compile.
type Builder struct {
	name  string
	nodes map[string]NodeFunc
	order []string
	edges map[string]edge
	entry string
	errs  []error
}

// NewBuilder starts a graph named name. The name shows up in logs.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]NodeFunc),
		edges: make(map[string]edge),
	}
}

// AddNode registers a node.
func (b *Builder) AddNode(name string, fn NodeFunc) *Builder {
	switch {
	case name == "" || name == End:
		b.errs = append(b.errs, fmt.Errorf("invalid node name %q", name))
	case fn == nil:
		b.errs = append(b.errs, fmt.Errorf("node %q has nil function", name))
	default:
		if _, dup := b.nodes[name]; dup {
			b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateNode, name))
			break
		}

		b.nodes[name] = fn
		b.order = append(b.order, name)
	}

	return b
}

// AddEdge adds a fixed edge from -> to. to may be End.
func (b *Builder) AddEdge(from, to string) *Builder {
	return b.setEdge(from, edge{to: to})
}

// AddConditionalEdges routes out of from by calling router and looking the
// returned label up in routes. Every label the router may return must be
// declared; targets may be End.
func (b *Builder) AddConditionalEdges(from string, router Router, routes map[string]string) *Builder {
	if router == nil || len(routes) == 0 {
		b.errs = append(b.errs, fmt.Errorf("conditional edge from %q needs a router and at least one route", from))
		return b
	}

	cp := make(map[string]string, len(routes))
	for k, v := range routes {
		cp[k] = v
	}

	return b.setEdge(from, edge{router: router, routes: cp})
}

func (b *Builder) setEdge(from string, e edge) *Builder {
	if _, dup := b.edges[from]; dup {
		b.errs = append(b.errs, fmt.Errorf("node %q already has an outgoing edge", from))
		return b
	}

	b.edges[from] = e

	return b
}

// SetEntryPoint names the first node to run.
func (b *Builder) SetEntryPoint(name string) *Builder {
	b.entry = name
	return b
}

// Compile validates the wiring and returns an executable graph. All errors
// wrap core.ErrConfiguration.
func (b *Builder) Compile(optFns ...func(o *Options)) (*Graph, error) {
	opts := Options{MaxIterations: core.DefaultMaxIterations}
	for _, fn := range optFns {
		fn(&opts)
	}

	errs := append([]error(nil), b.errs...)

	if b.entry == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, ok := b.nodes[b.entry]; !ok {
		errs = append(errs, fmt.Errorf("%w: entry %q", ErrNoEntryPoint, b.entry))
	}

	froms := make([]string, 0, len(b.edges))
	for from := range b.edges {
		froms = append(froms, from)
	}

	sort.Strings(froms)

	for _, from := range froms {
		if _, ok := b.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("%w: edge source %q", ErrUnknownNode, from))
		}

		e := b.edges[from]
		if e.router == nil {
			if !b.isTarget(e.to) {
				errs = append(errs, fmt.Errorf("%w: edge %s -> %q", ErrUnknownNode, from, e.to))
			}

			continue
		}

		labels := make([]string, 0, len(e.routes))
		for label := range e.routes {
			labels = append(labels, label)
		}

		sort.Strings(labels)

		for _, label := range labels {
			if !b.isTarget(e.routes[label]) {
				errs = append(errs, fmt.Errorf("%w: route %s[%s] -> %q", ErrUnknownNode, from, label, e.routes[label]))
			}
		}
	}

	for _, name := range b.order {
		if _, ok := b.edges[name]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDeadEnd, name))
		}
	}

	cycle := opts.CycleNode
	if cycle == "" {
		cycle = b.entry
	} else if _, ok := b.nodes[cycle]; !ok {
		errs = append(errs, fmt.Errorf("%w: cycle node %q", ErrUnknownNode, cycle))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: graph %s: %w", core.ErrConfiguration, b.name, errors.Join(errs...))
	}

	g := &Graph{
		name:  b.name,
		nodes: make(map[string]NodeFunc, len(b.nodes)),
		edges: make(map[string]edge, len(b.edges)),
		entry: b.entry,
		cycle: cycle,
		opts:  opts,
	}

	for k, v := range b.nodes {
		g.nodes[k] = v
	}

	for k, v := range b.edges {
		g.edges[k] = v
	}

	g.opts.Logger = loggerOrNoOp(opts.Logger)

	return g, nil
}

func (b *Builder) isTarget(name string) bool {
	if name == End {
		return true
	}

	_, ok := b.nodes[name]

	return ok
}
