package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a session.
const DefaultLockTTL = 30 * time.Second

// ErrEmptyMessage is returned by Turn for blank user input.
var ErrEmptyMessage = errors.New("user message is empty")

// Runner executes one walk of a conversation graph. *graph.Executor
// satisfies it.
type Runner interface {
	Run(ctx context.Context, initial domain.State) (domain.State, error)
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// Unused lock entries are dropped as soon as their reference count hits zero.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu and call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (domain.State, error) {
	var state domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// Save persists the session state.
func (m *Manager) Save(ctx context.Context, sessionID string, state domain.State) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, state)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// Turn runs one conversation turn for sessionID.
//
// Under the session lock it loads the stored transcript (an unknown session
// starts empty), appends userText as a user message, runs the walk and saves
// the terminal state. When the walk fails nothing is written and the
// walk's error is returned unchanged.
func (m *Manager) Turn(ctx context.Context, sessionID, userText string, runner Runner) (domain.State, error) {
	final, _, err := m.TurnDiff(ctx, sessionID, userText, runner)
	return final, err
}

// TurnDiff is Turn, also returning what the turn changed relative to the
// state it started from. The diff is computed while the session lock is
// held, so concurrent turns on one session never share a prior.
func (m *Manager) TurnDiff(ctx context.Context, sessionID, userText string, runner Runner) (domain.State, *domain.StateDiff, error) {
	if sessionID == "" {
		return domain.State{}, nil, errors.New("session ID cannot be empty")
	}
	if strings.TrimSpace(userText) == "" {
		return domain.State{}, nil, ErrEmptyMessage
	}

	var (
		final domain.State
		diff  *domain.StateDiff
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		prior, err := m.loadOrEmpty(ctx, sessionID)
		if err != nil {
			return err
		}

		result, err := runner.Run(ctx, prior.Append(domain.UserMessage(userText)))
		if err != nil {
			m.logger.Debug("turn failed, session left unchanged", "session_id", sessionID, "err", err)
			return err
		}

		if err := m.store.Save(ctx, sessionID, result); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		final = result
		diff = domain.Diff(&prior, result)
		return nil
	})
	return final, diff, err
}

// loadOrEmpty returns the stored state, or an empty finished conversation
// when the session does not exist yet.
func (m *Manager) loadOrEmpty(ctx context.Context, sessionID string) (domain.State, error) {
	state, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return domain.State{}, fmt.Errorf("failed to load session: %w", err)
	}
	return domain.NewState(domain.Terminal, []domain.Message{})
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The walk's ctx may already be cancelled; release anyway.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
