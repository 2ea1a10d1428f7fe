package graph

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Router computes a branch key from the state a node produced.
type Router func(ctx context.Context, state domain.State) string

// Branch keys produced by When.
const (
	BranchTrue  = "true"
	BranchFalse = "false"
)

// When adapts a predicate into a Router producing BranchTrue or BranchFalse.
func When(pred func(ctx context.Context, state domain.State) bool) Router {
	return func(ctx context.Context, state domain.State) string {
		return strconv.FormatBool(pred(ctx, state))
	}
}

type edge struct {
	to       string
	router   Router
	branches map[string]string
}

func (e edge) conditional() bool {
	return e.router != nil
}

// EdgeInfo describes an edge for introspection and diagrams.
// A conditional edge yields one EdgeInfo per branch, labelled by its key.
type EdgeInfo struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Branch      string `json:"branch,omitempty"`
	Conditional bool   `json:"conditional,omitempty"`
}

// EdgeTable maps each step to its single outgoing edge.
type EdgeTable struct {
	edges map[string]edge
}

// NewEdgeTable creates an empty edge table.
func NewEdgeTable() *EdgeTable {
	return &EdgeTable{edges: make(map[string]edge)}
}

// SetFixed declares an unconditional transition from -> to.
// to may be domain.Terminal.
func (t *EdgeTable) SetFixed(from, to string) error {
	if _, ok := t.edges[from]; ok {
		return &domain.DuplicateEdgeError{From: from}
	}
	if to == "" {
		return fmt.Errorf("edge from %q: destination is required", from)
	}
	t.edges[from] = edge{to: to}
	return nil
}

// SetConditional declares a routed transition. The router's result is looked
// up in branches when the edge is resolved; keys are not checked up front
// because the set a router produces may depend on the data.
func (t *EdgeTable) SetConditional(from string, router Router, branches map[string]string) error {
	if _, ok := t.edges[from]; ok {
		return &domain.DuplicateEdgeError{From: from}
	}
	if router == nil {
		return fmt.Errorf("edge from %q: router is nil", from)
	}
	if len(branches) == 0 {
		return fmt.Errorf("edge from %q: %w", from, domain.ErrEmptyBranchMap)
	}
	t.edges[from] = edge{router: router, branches: maps.Clone(branches)}
	return nil
}

// Resolve returns the step that follows from, given the state from produced.
func (t *EdgeTable) Resolve(ctx context.Context, from string, state domain.State) (string, error) {
	e, ok := t.edges[from]
	if !ok {
		return "", &domain.DanglingNodeError{Node: from}
	}
	if !e.conditional() {
		return e.to, nil
	}
	key := e.router(ctx, state)
	next, ok := e.branches[key]
	if !ok {
		return "", &domain.UnmappedBranchError{From: from, Key: key}
	}
	return next, nil
}

// Has reports whether from has an outgoing edge.
func (t *EdgeTable) Has(from string) bool {
	_, ok := t.edges[from]
	return ok
}

// Destinations lists every step from may continue to, without duplicates.
func (t *EdgeTable) Destinations(from string) []string {
	e, ok := t.edges[from]
	if !ok {
		return nil
	}
	if !e.conditional() {
		return []string{e.to}
	}
	dests := slices.Collect(maps.Values(e.branches))
	slices.Sort(dests)
	return slices.Compact(dests)
}

// Sources returns the steps that have an outgoing edge, in lexical order.
func (t *EdgeTable) Sources() []string {
	return slices.Sorted(maps.Keys(t.edges))
}

// Describe returns the outgoing edges of from as EdgeInfo values.
func (t *EdgeTable) Describe(from string) []EdgeInfo {
	e, ok := t.edges[from]
	if !ok {
		return nil
	}
	if !e.conditional() {
		return []EdgeInfo{{From: from, To: e.to}}
	}
	keys := slices.Sorted(maps.Keys(e.branches))
	infos := make([]EdgeInfo, 0, len(keys))
	for _, key := range keys {
		infos = append(infos, EdgeInfo{From: from, To: e.branches[key], Branch: key, Conditional: true})
	}
	return infos
}
