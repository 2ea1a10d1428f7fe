package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/oklog/ulid/v2"
)

// DefaultMaxSteps bounds a walk when no explicit budget is configured.
const DefaultMaxSteps = 25

// Executor walks a Graph, one step at a time, for a single conversation turn.
// An Executor holds no per-walk state and may run many walks concurrently.
type Executor struct {
	graph    *Graph
	maxSteps int
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMaxSteps sets the maximum number of node invocations per walk.
func WithMaxSteps(n int) ExecutorOption {
	return func(e *Executor) {
		e.maxSteps = n
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) ExecutorOption {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger used for walk diagnostics.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor for g.
func NewExecutor(g *Graph, opts ...ExecutorOption) (*Executor, error) {
	if g == nil {
		return nil, errors.New("executor: graph is nil")
	}
	e := &Executor{
		graph:    g,
		maxSteps: DefaultMaxSteps,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxSteps <= 0 {
		return nil, fmt.Errorf("executor: max steps must be positive, got %d", e.maxSteps)
	}
	return e, nil
}

// Graph returns the graph the executor walks.
func (e *Executor) Graph() *Graph {
	return e.graph
}

// MaxSteps returns the step budget of each walk.
func (e *Executor) MaxSteps() int {
	return e.maxSteps
}

// walk holds the bookkeeping of a single Run call.
type walk struct {
	id     string
	steps  int
	logger *slog.Logger
}

// Run executes one walk starting at the graph's entry step and returns the
// terminal state, positioned at domain.Terminal.
//
// Any failure aborts the walk. The returned error is one of
// *domain.UnknownNodeError, *domain.NodeExecutionError,
// *domain.UnmappedBranchError, *domain.DanglingNodeError,
// *domain.StepBudgetExceededError or *domain.CancelledError. None of them
// carries a state produced by a failing node.
func (e *Executor) Run(ctx context.Context, initial domain.State) (domain.State, error) {
	if !initial.Valid() {
		return domain.State{}, fmt.Errorf("executor: %w", domain.ErrNilTranscript)
	}

	w := &walk{id: ulid.Make().String()}
	w.logger = e.logger.With("walk_id", w.id)

	step := e.graph.entry
	state := initial.WithStep(step)

	w.logger.Debug("walk started", "entry", step, "messages", state.Len())
	e.emitWalk(ctx, w, domain.EventWalkStart, domain.WalkRunning, nil)

	for w.steps < e.maxSteps {
		if err := ctx.Err(); err != nil {
			return e.fail(ctx, w, &domain.CancelledError{Step: step, State: state, Err: err})
		}

		next, dest, err := e.advance(ctx, w, step, state)
		if err != nil {
			return e.fail(ctx, w, err)
		}

		if dest == domain.Terminal {
			final := next.WithStep(domain.Terminal)
			w.logger.Debug("walk finished", "steps", w.steps, "messages", final.Len())
			e.emitWalk(ctx, w, domain.EventWalkEnd, domain.WalkTerminal, nil)
			return final, nil
		}

		step = dest
		state = next.WithStep(step)
	}

	return e.fail(ctx, w, &domain.StepBudgetExceededError{Limit: e.maxSteps, State: state})
}

// advance runs the node at step and resolves its continuation.
func (e *Executor) advance(ctx context.Context, w *walk, step string, state domain.State) (domain.State, string, error) {
	fn, err := e.graph.registry.Get(step)
	if err != nil {
		return domain.State{}, "", err
	}

	w.steps++
	started := time.Now()
	e.emitNode(ctx, w, domain.EventNodeEnter, step, "", 0)

	next, err := invoke(ctx, fn, state)
	if err != nil {
		return domain.State{}, "", &domain.NodeExecutionError{Node: step, State: state, Err: err}
	}
	if !next.Valid() {
		return domain.State{}, "", &domain.NodeExecutionError{Node: step, State: state, Err: domain.ErrNilTranscript}
	}
	if !next.HasPrefix(state) {
		return domain.State{}, "", &domain.NodeExecutionError{Node: step, State: state, Err: domain.ErrTranscriptRewritten}
	}

	dest, err := e.graph.edges.Resolve(ctx, step, next)
	if err != nil {
		return domain.State{}, "", err
	}

	e.emitNode(ctx, w, domain.EventNodeLeave, step, dest, time.Since(started))
	w.logger.Debug("step completed", "step", step, "next", dest, "n", w.steps)
	return next, dest, nil
}

func invoke(ctx context.Context, fn NodeFunc, state domain.State) (next domain.State, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, err = domain.State{}, fmt.Errorf("%w: %v", domain.ErrNodePanicked, r)
		}
	}()
	return fn(ctx, state)
}

func (e *Executor) fail(ctx context.Context, w *walk, err error) (domain.State, error) {
	w.logger.Warn("walk failed", "steps", w.steps, "err", err)
	e.emitWalk(ctx, w, domain.EventWalkEnd, domain.WalkFailed, err)
	return domain.State{}, err
}

func (e *Executor) emitWalk(ctx context.Context, w *walk, typ domain.EventType, status domain.WalkStatus, err error) {
	hook := e.hooks.OnWalkStart
	if typ == domain.EventWalkEnd {
		hook = e.hooks.OnWalkEnd
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.WalkEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, WalkID: w.id},
		Status:    status,
		Steps:     w.steps,
		Err:       err,
	})
}

func (e *Executor) emitNode(ctx context.Context, w *walk, typ domain.EventType, node, next string, d time.Duration) {
	hook := e.hooks.OnNodeEnter
	if typ == domain.EventNodeLeave {
		hook = e.hooks.OnNodeLeave
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, WalkID: w.id},
		Node:      node,
		Step:      w.steps,
		Next:      next,
		Duration:  d,
	})
}
