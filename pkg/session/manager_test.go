package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/chatflow/pkg/adapters/echo"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/chat"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]domain.State
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state domain.State) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]domain.State)
	}
	s.data[sessionID] = state
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (domain.State, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[sessionID]; ok {
		return state, nil
	}
	return domain.State{}, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

// failingRunner fails every walk.
type failingRunner struct{ err error }

func (f failingRunner) Run(context.Context, domain.State) (domain.State, error) {
	return domain.State{}, f.err
}

func newExecutor(t *testing.T) *graph.Executor {
	t.Helper()
	g, err := chat.NewGraph(echo.New())
	require.NoError(t, err)
	e, err := graph.NewExecutor(g)
	require.NoError(t, err)
	return e
}

func TestManager_TurnStartsAndContinuesSession(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(memory.NewStore())
	exec := newExecutor(t)

	first, err := manager.Turn(ctx, "s1", "hi", exec)
	require.NoError(t, err)
	assert.Equal(t, domain.Terminal, first.CurrentStep())
	assert.Equal(t, []domain.Message{
		domain.UserMessage("hi"),
		domain.AssistantMessage("You said: hi"),
	}, first.Transcript())

	second, err := manager.Turn(ctx, "s1", "again", exec)
	require.NoError(t, err)
	assert.Equal(t, 4, second.Len())
	assert.True(t, second.HasPrefix(first))

	stored, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, stored.Equal(second))
}

func TestManager_FailedTurnLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	manager := session.NewManager(store)

	before, err := manager.Turn(ctx, "s1", "hi", newExecutor(t))
	require.NoError(t, err)

	boom := errors.New("model down")
	_, err = manager.Turn(ctx, "s1", "second", failingRunner{err: boom})
	assert.ErrorIs(t, err, boom)

	after, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, after.Equal(before))

	_, err = manager.Turn(ctx, "fresh", "hi", failingRunner{err: boom})
	assert.ErrorIs(t, err, boom)
	_, err = store.Load(ctx, "fresh")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_TurnValidation(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	_, err := manager.Turn(context.Background(), "s1", "   ", newExecutor(t))
	assert.ErrorIs(t, err, session.ErrEmptyMessage)

	_, err = manager.Turn(context.Background(), "", "hi", newExecutor(t))
	assert.Error(t, err)
}

func TestManager_ConcurrentTurnsAreSerialized(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(&SlowStore{})
	exec := newExecutor(t)
	const turns = 10

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := manager.Turn(ctx, "race-test", fmt.Sprintf("msg %d", i), exec)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final, err := manager.Load(ctx, "race-test")
	require.NoError(t, err)
	assert.Equal(t, 2*turns, final.Len(), "no turn may be lost")
}

func TestManager_ConcurrentTurnDiffsDoNotOverlap(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(&SlowStore{})
	exec := newExecutor(t)
	const turns = 10

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		wg   sync.WaitGroup
	)
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("msg %d", i)
			_, diff, err := manager.TurnDiff(ctx, "race-test", text, exec)
			if !assert.NoError(t, err) || !assert.NotNil(t, diff) {
				return
			}
			assert.False(t, diff.Rewritten)
			if assert.Len(t, diff.Appended, 2) {
				assert.Equal(t, domain.UserMessage(text), diff.Appended[0])
			}
			mu.Lock()
			for _, m := range diff.Appended {
				seen[m.Content]++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, seen, 2*turns)
	for content, n := range seen {
		assert.Equal(t, 1, n, "message %q reported by more than one turn", content)
	}
}

func TestManager_TurnDiffNoChangeOnFailure(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	_, diff, err := manager.TurnDiff(context.Background(), "s1", "hi", failingRunner{err: errors.New("down")})
	assert.Error(t, err)
	assert.Nil(t, diff)
}

func TestManager_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(memory.NewStore())
	state, err := domain.NewState(domain.Terminal, []domain.Message{domain.UserMessage("hi")})
	require.NoError(t, err)

	require.NoError(t, manager.Save(ctx, "s1", state))
	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	require.NoError(t, manager.Delete(ctx, "s1"))
	_, err = manager.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// countingLocker records Lock calls and releases.
type countingLocker struct {
	mu       sync.Mutex
	locked   int
	unlocked int
	ttl      time.Duration
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked++
	l.ttl = ttl
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(),
		session.WithLocker(locker),
		session.WithLockTTL(5*time.Second),
	)

	_, err := manager.Turn(context.Background(), "s1", "hi", newExecutor(t))
	require.NoError(t, err)

	assert.Equal(t, 1, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
	assert.Equal(t, 5*time.Second, locker.ttl)
}
