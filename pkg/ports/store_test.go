package ports_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

// MockStore is a map-backed StateStore used to exercise the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]domain.State
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]domain.State)}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, state domain.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = state
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (domain.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.data[sessionID]
	if !ok {
		return domain.State{}, domain.ErrSessionNotFound
	}
	return state, nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func TestStateStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, NewMockStore())
}

func TestCompleterFunc(t *testing.T) {
	var c ports.Completer = ports.CompleterFunc(func(ctx context.Context, msgs []domain.Message) (domain.Message, error) {
		return domain.AssistantMessage("pong"), nil
	})

	msg, err := c.Complete(context.Background(), []domain.Message{domain.UserMessage("ping")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Content != "pong" || msg.Role != domain.RoleAssistant {
		t.Errorf("unexpected reply %v", msg)
	}
}
