package session_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	state, err := domain.NewState(domain.Terminal, []domain.Message{
		domain.UserMessage("hi"),
		domain.AssistantMessage("hello"),
	})
	require.NoError(t, err)
	state = state.WithMetadata(domain.KeyTimestamp, "2026-01-02T03:04:05Z")

	data, err := session.Export("abc", state)
	require.NoError(t, err)

	var rec session.Record
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "abc", rec.SessionID)
	assert.Equal(t, "2026-01-02T03:04:05Z", rec.Timestamp)
	assert.Equal(t, state.Transcript(), rec.Messages)
	assert.Contains(t, string(data), "\n  \"messages\": [")
}

func TestNewRecord_FallsBackToNow(t *testing.T) {
	state, err := domain.NewState(domain.Terminal, []domain.Message{})
	require.NoError(t, err)
	now := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	rec := session.NewRecord("x", state, now)
	assert.Equal(t, "2026-05-06T07:08:09Z", rec.Timestamp)
	assert.NotNil(t, rec.Messages)
	assert.Empty(t, rec.Messages)
}
