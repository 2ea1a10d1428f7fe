package chatflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/adapters/echo"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/chat"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/aretw0/chatflow/pkg/observability"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/session"
)

// Bot is the high-level entry point for the library.
// It owns a compiled conversation graph, an executor and a session manager.
type Bot struct {
	completer    ports.Completer
	store        ports.StateStore
	locker       ports.DistributedLocker
	lockTTL      time.Duration
	systemPrompt string
	maxSteps     int
	clock        func() time.Time
	hooks        domain.LifecycleHooks
	metrics      *observability.Metrics
	logger       *slog.Logger
	closers      []io.Closer

	executor *graph.Executor
	sessions *session.Manager
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithCompleter sets the completion provider. Defaults to the echo completer.
func WithCompleter(c ports.Completer) Option {
	return func(b *Bot) {
		b.completer = c
	}
}

// WithStore sets the session store. Defaults to an in-memory store.
func WithStore(s ports.StateStore) Option {
	return func(b *Bot) {
		b.store = s
	}
}

// WithLocker adds a distributed lock around each turn.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(b *Bot) {
		b.locker = l
		b.lockTTL = ttl
	}
}

// WithSystemPrompt sets the instruction sent ahead of every completion request.
func WithSystemPrompt(prompt string) Option {
	return func(b *Bot) {
		b.systemPrompt = prompt
	}
}

// WithMaxSteps bounds the number of node invocations per turn.
func WithMaxSteps(n int) Option {
	return func(b *Bot) {
		b.maxSteps = n
	}
}

// WithClock overrides the time source used to stamp turns.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) {
		b.clock = now
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = b.hooks.Merge(hooks)
	}
}

// WithMetrics records walk and node metrics into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Bot) {
		b.metrics = m
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithCloser registers a resource released by Close, e.g. a redis client.
func WithCloser(c io.Closer) Option {
	return func(b *Bot) {
		b.closers = append(b.closers, c)
	}
}

// New wires a Bot from the given options.
func New(opts ...Option) (*Bot, error) {
	b := &Bot{
		maxSteps: graph.DefaultMaxSteps,
		clock:    time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.completer == nil {
		b.completer = echo.New()
	}
	if b.store == nil {
		b.store = memory.NewStore()
	}

	g, err := chat.NewGraph(b.completer,
		chat.WithSystemPrompt(b.systemPrompt),
		chat.WithClock(b.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build conversation graph: %w", err)
	}

	hooks := b.hooks.Merge(observability.LoggingHooks(b.logger))
	if b.metrics != nil {
		hooks = hooks.Merge(b.metrics.Hooks())
	}

	b.executor, err = graph.NewExecutor(g,
		graph.WithMaxSteps(b.maxSteps),
		graph.WithLifecycleHooks(hooks),
		graph.WithLogger(b.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	sessionOpts := []session.Option{session.WithLogger(b.logger)}
	if b.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(b.locker))
		if b.lockTTL > 0 {
			sessionOpts = append(sessionOpts, session.WithLockTTL(b.lockTTL))
		}
	}
	b.sessions = session.NewManager(b.store, sessionOpts...)

	return b, nil
}

// Turn appends text to the session's transcript, walks the graph and persists
// the result. It returns the terminal state.
func (b *Bot) Turn(ctx context.Context, sessionID, text string) (domain.State, error) {
	return b.sessions.Turn(ctx, sessionID, text, b.executor)
}

// TurnDiff runs a turn like Turn and also returns the changes it made to
// the stored conversation.
func (b *Bot) TurnDiff(ctx context.Context, sessionID, text string) (domain.State, *domain.StateDiff, error) {
	return b.sessions.TurnDiff(ctx, sessionID, text, b.executor)
}

// Reply runs a turn and returns only the assistant's answer.
func (b *Bot) Reply(ctx context.Context, sessionID, text string) (domain.Message, error) {
	final, err := b.Turn(ctx, sessionID, text)
	if err != nil {
		return domain.Message{}, err
	}
	msg, ok := final.Last()
	if !ok || msg.Role != domain.RoleAssistant {
		return domain.Message{}, fmt.Errorf("turn for session %q ended without a reply", sessionID)
	}
	return msg, nil
}

// Load returns the stored state of a session.
func (b *Bot) Load(ctx context.Context, sessionID string) (domain.State, error) {
	return b.sessions.Load(ctx, sessionID)
}

// List returns the IDs of stored sessions.
func (b *Bot) List(ctx context.Context) ([]string, error) {
	return b.sessions.List(ctx)
}

// Delete removes a session. Deleting an unknown session is not an error.
func (b *Bot) Delete(ctx context.Context, sessionID string) error {
	return b.sessions.Delete(ctx, sessionID)
}

// Export renders a session as a downloadable JSON record.
func (b *Bot) Export(ctx context.Context, sessionID string) ([]byte, error) {
	state, err := b.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Export(sessionID, state)
}

// Graph returns the compiled conversation graph.
func (b *Bot) Graph() *graph.Graph {
	return b.executor.Graph()
}

// Metrics returns the metrics registry, or nil when metrics are disabled.
func (b *Bot) Metrics() *observability.Metrics {
	return b.metrics
}

// Close releases resources registered with WithCloser.
func (b *Bot) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
