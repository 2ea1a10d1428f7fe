package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryStore_CallerCannotMutateStoredState(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	state, err := domain.NewState(domain.Terminal, []domain.Message{domain.UserMessage("hi")})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "s1", state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	transcript := loaded.Transcript()
	transcript[0].Content = "tampered"
	_ = loaded.Append(domain.AssistantMessage("extra"))

	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Message{domain.UserMessage("hi")}, again.Transcript())
}
