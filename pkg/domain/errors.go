package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNilTranscript is returned when a State is built without a transcript.
	ErrNilTranscript = errors.New("transcript is required")

	// ErrEmptyBranchMap is returned when a conditional edge has no branches.
	ErrEmptyBranchMap = errors.New("branch map must not be empty")

	// ErrTranscriptRewritten is reported when a node drops or edits messages
	// it received instead of appending to them.
	ErrTranscriptRewritten = errors.New("node rewrote the transcript")

	// ErrNodePanicked wraps a panic recovered from a node function.
	ErrNodePanicked = errors.New("node panicked")
)

// DuplicateNodeError is returned when a step name is registered twice.
type DuplicateNodeError struct {
	Name string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %q already registered", e.Name)
}

// UnknownNodeError is returned when a step name has no registered node.
type UnknownNodeError struct {
	Name string
	// From is the step that referenced Name, when known.
	From string
}

func (e *UnknownNodeError) Error() string {
	if e.From != "" {
		return fmt.Sprintf("node %q (referenced from %q) is not registered", e.Name, e.From)
	}
	return fmt.Sprintf("node %q is not registered", e.Name)
}

// DuplicateEdgeError is returned when a step already has an outgoing edge.
type DuplicateEdgeError struct {
	From string
}

func (e *DuplicateEdgeError) Error() string {
	return fmt.Sprintf("node %q already has an outgoing edge", e.From)
}

// DanglingNodeError is returned when a node has no declared continuation.
type DanglingNodeError struct {
	Node string
}

func (e *DanglingNodeError) Error() string {
	return fmt.Sprintf("node %q has no outgoing edge", e.Node)
}

// UnmappedBranchError is returned when a router produces a key that its
// branch map does not contain.
type UnmappedBranchError struct {
	From string
	Key  string
}

func (e *UnmappedBranchError) Error() string {
	return fmt.Sprintf("router of node %q returned unmapped branch %q", e.From, e.Key)
}

// NodeExecutionError wraps a failure raised inside a node.
// State is the input the node received; the node's partial output is never kept.
type NodeExecutionError struct {
	Node  string
	State State
	Err   error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.Node, e.Err)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

// StepBudgetExceededError is returned when a walk does not reach Terminal
// within the configured number of steps.
type StepBudgetExceededError struct {
	Limit int
	// State is the last state observed before the walk was stopped.
	State State
}

func (e *StepBudgetExceededError) Error() string {
	return fmt.Sprintf("walk exceeded step budget of %d (last step %q)", e.Limit, e.State.CurrentStep())
}

// CancelledError is returned when the caller cancels a walk between steps.
type CancelledError struct {
	// Step is the node that would have run next.
	Step  string
	State State
	Err   error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("walk cancelled before node %q: %v", e.Step, e.Err)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}

// GraphError aggregates the configuration problems found while compiling a graph.
type GraphError struct {
	Errors []error
}

func (e *GraphError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid graph: " + e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid graph: %d problems: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes every member to errors.Is and errors.As.
func (e *GraphError) Unwrap() []error {
	return e.Errors
}

// IsConfigurationError reports whether err stems from a malformed graph
// definition rather than from a walk's inputs or its collaborators.
// Configuration errors are never worth retrying.
func IsConfigurationError(err error) bool {
	var (
		dupNode  *DuplicateNodeError
		dupEdge  *DuplicateEdgeError
		unknown  *UnknownNodeError
		dangling *DanglingNodeError
		graphErr *GraphError
	)
	return errors.As(err, &dupNode) ||
		errors.As(err, &dupEdge) ||
		errors.As(err, &unknown) ||
		errors.As(err, &dangling) ||
		errors.As(err, &graphErr) ||
		errors.Is(err, ErrEmptyBranchMap)
}
