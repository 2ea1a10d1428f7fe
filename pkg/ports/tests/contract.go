package tests

import (
	"context"
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

// CompleterContractTest is a reusable test suite that verifies if an adapter
// complies with ports.Completer. The completer must be wired to a backend
// (real or fake) that answers every request with want.
func CompleterContractTest(t *testing.T, completer ports.Completer, want string) {
	t.Helper()

	t.Run("Complete_Success", func(t *testing.T) {
		transcript := []domain.Message{domain.UserMessage("hi")}
		reply, err := completer.Complete(context.Background(), transcript)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Role != domain.RoleAssistant {
			t.Errorf("expected role %q, got %q", domain.RoleAssistant, reply.Role)
		}
		if reply.Content != want {
			t.Errorf("content mismatch. got %q, want %q", reply.Content, want)
		}
		if len(transcript) != 1 {
			t.Errorf("completer must not modify its input, got %d messages", len(transcript))
		}
	})

	t.Run("Complete_History", func(t *testing.T) {
		transcript := []domain.Message{
			domain.SystemMessage("be brief"),
			domain.UserMessage("hi"),
			domain.AssistantMessage("hello"),
			domain.UserMessage("how are you?"),
		}
		if _, err := completer.Complete(context.Background(), transcript); err != nil {
			t.Fatalf("unexpected error with multi-turn history: %v", err)
		}
	})

	t.Run("Complete_Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := completer.Complete(ctx, []domain.Message{domain.UserMessage("hi")}); err == nil {
			t.Error("expected error for cancelled context, got nil")
		}
	})
}
