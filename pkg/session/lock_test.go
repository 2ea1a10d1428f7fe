package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
)

// MockStore accepts everything and stores nothing.
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, sessionID string, state domain.State) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, sessionID string) (domain.State, error) {
	return domain.State{}, domain.ErrSessionNotFound
}
func (m *MockStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, sid, domain.State{})
		_ = mgr.Delete(ctx, sid)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("memory leak detected: %d locks remaining after %d sessions", lockCount, count)
	}
}
