package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/aretw0/chatflow/pkg/ports"
)

type options struct {
	systemPrompt string
	clock        func() time.Time
}

// Option configures NewGraph.
type Option func(*options)

// WithSystemPrompt sets the instructions sent ahead of every transcript.
func WithSystemPrompt(prompt string) Option {
	return func(o *options) {
		o.systemPrompt = prompt
	}
}

// WithClock overrides time.Now for the analyze step.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// NewGraph builds and compiles the conversation graph.
func NewGraph(completer ports.Completer, opts ...Option) (*graph.Graph, error) {
	if completer == nil {
		return nil, errors.New("chat: completer is nil")
	}
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	b := graph.NewBuilder()
	err := errors.Join(
		b.AddNode(StepRespond, Respond(completer, o.systemPrompt)),
		b.AddNode(StepAnalyze, Analyze(o.clock)),
		b.AddEdge(StepRespond, StepAnalyze),
		b.AddEdge(StepAnalyze, domain.Terminal),
		b.SetEntry(StepRespond),
	)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	return b.Compile()
}
