package ports

import (
	"context"
	"errors"

	"github.com/aretw0/chatflow/pkg/domain"
)

// ErrEmptyCompletion is returned when a provider answers without any content.
var ErrEmptyCompletion = errors.New("completion returned no content")

// Completer is the language-model collaborator of the respond node.
type Completer interface {
	// Complete returns the assistant message that continues messages.
	// The returned message always has domain.RoleAssistant.
	Complete(ctx context.Context, messages []domain.Message) (domain.Message, error)
}

// CompleterFunc adapts a plain function to the Completer interface.
type CompleterFunc func(ctx context.Context, messages []domain.Message) (domain.Message, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	return f(ctx, messages)
}
