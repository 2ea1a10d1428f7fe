package chat

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/aretw0/chatflow/pkg/ports"
)

// Step names of the conversation graph.
const (
	StepRespond = "respond"
	StepAnalyze = "analyze"
)

// Respond returns the node that appends the completer's reply.
// A non-empty systemPrompt is sent before the transcript but never stored.
func Respond(completer ports.Completer, systemPrompt string) graph.NodeFunc {
	return func(ctx context.Context, state domain.State) (domain.State, error) {
		transcript := state.Transcript()
		if systemPrompt != "" {
			transcript = append([]domain.Message{domain.SystemMessage(systemPrompt)}, transcript...)
		}

		reply, err := completer.Complete(ctx, transcript)
		if err != nil {
			return domain.State{}, err
		}
		if reply.Content == "" {
			return domain.State{}, ports.ErrEmptyCompletion
		}
		if reply.Role != domain.RoleAssistant {
			return domain.State{}, errors.New("completer returned a non-assistant message")
		}
		return state.Append(reply), nil
	}
}

// Analyze returns the node that records when the turn happened and how many
// user messages the conversation holds. It appends nothing.
func Analyze(now func() time.Time) graph.NodeFunc {
	return func(ctx context.Context, state domain.State) (domain.State, error) {
		turns := 0
		for _, msg := range state.Transcript() {
			if msg.Role == domain.RoleUser {
				turns++
			}
		}
		return state.
			WithMetadata(domain.KeyTimestamp, now().UTC().Format(time.RFC3339)).
			WithMetadata(domain.KeyTurns, turns), nil
	}
}
