package graph

import (
	"errors"
	"fmt"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Builder assembles a Graph. It is not safe for concurrent use.
type Builder struct {
	registry *Registry
	edges    *EdgeTable
	entry    string
	compiled bool
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		registry: NewRegistry(),
		edges:    NewEdgeTable(),
	}
}

var errCompiled = errors.New("graph builder already compiled")

// AddNode registers a node.
func (b *Builder) AddNode(name string, fn NodeFunc) error {
	if b.compiled {
		return errCompiled
	}
	return b.registry.Register(name, fn)
}

// AddEdge declares a fixed transition from -> to.
func (b *Builder) AddEdge(from, to string) error {
	if b.compiled {
		return errCompiled
	}
	return b.edges.SetFixed(from, to)
}

// AddConditionalEdges declares a routed transition out of from.
func (b *Builder) AddConditionalEdges(from string, router Router, branches map[string]string) error {
	if b.compiled {
		return errCompiled
	}
	return b.edges.SetConditional(from, router, branches)
}

// SetEntry marks the node every walk starts at.
func (b *Builder) SetEntry(name string) error {
	if b.compiled {
		return errCompiled
	}
	b.entry = name
	return nil
}

// Compile validates the definition and freezes it into a Graph.
//
// All problems are reported together in a *domain.GraphError:
//   - the entry step is missing or not registered;
//   - an edge leaves a step that is not registered;
//   - an edge (or a branch) leads to a step that is neither registered nor
//     domain.Terminal;
//   - a registered node has no outgoing edge.
func (b *Builder) Compile() (*Graph, error) {
	if b.compiled {
		return nil, errCompiled
	}
	var problems []error

	switch {
	case b.entry == "":
		problems = append(problems, errors.New("entry step not set"))
	case !b.registry.Has(b.entry):
		problems = append(problems, fmt.Errorf("entry step: %w", &domain.UnknownNodeError{Name: b.entry}))
	}

	for _, from := range b.edges.Sources() {
		if !b.registry.Has(from) {
			problems = append(problems, fmt.Errorf("edge source: %w", &domain.UnknownNodeError{Name: from}))
		}
		for _, to := range b.edges.Destinations(from) {
			if to == domain.Terminal || b.registry.Has(to) {
				continue
			}
			problems = append(problems, &domain.UnknownNodeError{Name: to, From: from})
		}
	}

	for _, name := range b.registry.Names() {
		if !b.edges.Has(name) {
			problems = append(problems, &domain.DanglingNodeError{Node: name})
		}
	}

	if len(problems) > 0 {
		return nil, &domain.GraphError{Errors: problems}
	}

	b.compiled = true
	return &Graph{
		registry: b.registry,
		edges:    b.edges,
		entry:    b.entry,
	}, nil
}

// Graph is a validated, immutable node registry and edge table with an
// entry step. It is safe for concurrent use by multiple executors.
type Graph struct {
	registry *Registry
	edges    *EdgeTable
	entry    string
}

// Entry returns the step every walk starts at.
func (g *Graph) Entry() string {
	return g.entry
}

// Nodes returns the registered step names in lexical order.
func (g *Graph) Nodes() []string {
	return g.registry.Names()
}

// Node returns the function registered under name.
func (g *Graph) Node(name string) (NodeFunc, error) {
	return g.registry.Get(name)
}

// Edges returns every edge of the graph, grouped by source in lexical order.
func (g *Graph) Edges() []EdgeInfo {
	var infos []EdgeInfo
	for _, from := range g.edges.Sources() {
		infos = append(infos, g.edges.Describe(from)...)
	}
	return infos
}
