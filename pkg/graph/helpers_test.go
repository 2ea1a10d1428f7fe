package graph_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/stretchr/testify/require"
)

// passthrough returns its input unchanged and counts invocations.
func passthrough(calls *atomic.Int32) graph.NodeFunc {
	return func(ctx context.Context, s domain.State) (domain.State, error) {
		if calls != nil {
			calls.Add(1)
		}
		return s, nil
	}
}

// replyWith appends a single assistant message.
func replyWith(text string) graph.NodeFunc {
	return func(ctx context.Context, s domain.State) (domain.State, error) {
		return s.Append(domain.AssistantMessage(text)), nil
	}
}

func seed(t *testing.T, msgs ...domain.Message) domain.State {
	t.Helper()
	if msgs == nil {
		msgs = []domain.Message{}
	}
	s, err := domain.NewState("seed", msgs)
	require.NoError(t, err)
	return s
}

func compile(t *testing.T, b *graph.Builder) *graph.Graph {
	t.Helper()
	g, err := b.Compile()
	require.NoError(t, err)
	return g
}

func executor(t *testing.T, g *graph.Graph, opts ...graph.ExecutorOption) *graph.Executor {
	t.Helper()
	e, err := graph.NewExecutor(g, opts...)
	require.NoError(t, err)
	return e
}
