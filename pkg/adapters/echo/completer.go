// Package echo provides an offline ports.Completer that repeats the user.
// It backs demos, the default configuration and tests.
package echo

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

// Completer answers every transcript with its latest user message.
type Completer struct {
	prefix string
}

// Option configures a Completer.
type Option func(*Completer)

// WithPrefix sets the text prepended to every reply.
func WithPrefix(prefix string) Option {
	return func(c *Completer) {
		c.prefix = prefix
	}
}

// New creates an echo completer. Replies look like "You said: hi".
func New(opts ...Option) *Completer {
	c := &Completer{prefix: "You said: "}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete implements ports.Completer.
func (c *Completer) Complete(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != domain.RoleUser {
			continue
		}
		text := strings.TrimSpace(messages[i].Content)
		if text == "" {
			break
		}
		return domain.AssistantMessage(c.prefix + text), nil
	}
	return domain.Message{}, fmt.Errorf("echo: no user message: %w", ports.ErrEmptyCompletion)
}
