package graph

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/aretw0/chatflow/pkg/domain"
)

// NodeFunc is the transition function of a node.
// It must not modify its input; it returns a new State that either keeps the
// transcript unchanged or appends the node's own messages.
type NodeFunc func(ctx context.Context, state domain.State) (domain.State, error)

// Registry maps step names to node functions.
// It is mutated only while a graph is being built.
type Registry struct {
	nodes map[string]NodeFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]NodeFunc)}
}

// Register adds a node under name.
func (r *Registry) Register(name string, fn NodeFunc) error {
	if name == "" {
		return errors.New("node name is required")
	}
	if name == domain.Terminal {
		return errors.New("the terminal marker cannot be registered as a node")
	}
	if fn == nil {
		return errors.New("node " + name + ": function is nil")
	}
	if _, ok := r.nodes[name]; ok {
		return &domain.DuplicateNodeError{Name: name}
	}
	r.nodes[name] = fn
	return nil
}

// Get returns the node registered under name.
func (r *Registry) Get(name string) (NodeFunc, error) {
	fn, ok := r.nodes[name]
	if !ok {
		return nil, &domain.UnknownNodeError{Name: name}
	}
	return fn, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.nodes[name]
	return ok
}

// Names returns the registered step names in lexical order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.nodes))
}
