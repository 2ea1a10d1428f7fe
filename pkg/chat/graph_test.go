package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/chatflow/pkg/adapters/echo"
	"github.com/aretw0/chatflow/pkg/chat"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("BRT", -3*60*60))

// recorder is a Completer that remembers what it was sent.
type recorder struct {
	reply domain.Message
	err   error
	seen  [][]domain.Message
}

func (r *recorder) Complete(_ context.Context, msgs []domain.Message) (domain.Message, error) {
	r.seen = append(r.seen, msgs)
	return r.reply, r.err
}

func run(t *testing.T, c ports.Completer, initial []domain.Message, opts ...chat.Option) (domain.State, error) {
	t.Helper()
	g, err := chat.NewGraph(c, append([]chat.Option{chat.WithClock(func() time.Time { return fixedTime })}, opts...)...)
	require.NoError(t, err)
	e, err := graph.NewExecutor(g)
	require.NoError(t, err)
	s, err := domain.NewState(g.Entry(), initial)
	require.NoError(t, err)
	return e.Run(context.Background(), s)
}

func TestNewGraph_Shape(t *testing.T) {
	g, err := chat.NewGraph(echo.New())
	require.NoError(t, err)

	assert.Equal(t, chat.StepRespond, g.Entry())
	assert.Equal(t, []graph.EdgeInfo{
		{From: chat.StepAnalyze, To: domain.Terminal},
		{From: chat.StepRespond, To: chat.StepAnalyze},
	}, g.Edges())

	_, err = chat.NewGraph(nil)
	assert.Error(t, err)
}

func TestTurn_AppendsReplyAndMetadata(t *testing.T) {
	final, err := run(t, echo.New(), []domain.Message{domain.UserMessage("hi")})
	require.NoError(t, err)

	assert.Equal(t, domain.Terminal, final.CurrentStep())
	assert.Equal(t, []domain.Message{
		domain.UserMessage("hi"),
		domain.AssistantMessage("You said: hi"),
	}, final.Transcript())

	ts, ok := final.Value(domain.KeyTimestamp)
	require.True(t, ok)
	assert.Equal(t, "2026-03-04T08:06:07Z", ts)

	turns, ok := final.Value(domain.KeyTurns)
	require.True(t, ok)
	assert.Equal(t, 1, turns)
}

func TestTurn_CountsUserTurnsAcrossHistory(t *testing.T) {
	final, err := run(t, echo.New(), []domain.Message{
		domain.UserMessage("one"),
		domain.AssistantMessage("You said: one"),
		domain.UserMessage("two"),
	})
	require.NoError(t, err)

	turns, _ := final.Value(domain.KeyTurns)
	assert.Equal(t, 2, turns)
	assert.Equal(t, 4, final.Len())
}

func TestRespond_SystemPromptNotStored(t *testing.T) {
	rec := &recorder{reply: domain.AssistantMessage("ok")}
	final, err := run(t, rec, []domain.Message{domain.UserMessage("hi")}, chat.WithSystemPrompt("be kind"))
	require.NoError(t, err)

	require.Len(t, rec.seen, 1)
	assert.Equal(t, []domain.Message{
		domain.SystemMessage("be kind"),
		domain.UserMessage("hi"),
	}, rec.seen[0])

	for _, msg := range final.Transcript() {
		assert.NotEqual(t, domain.RoleSystem, msg.Role)
	}
}

func TestRespond_CompleterFailure(t *testing.T) {
	boom := errors.New("rate limited")
	_, err := run(t, &recorder{err: boom}, []domain.Message{domain.UserMessage("hi")})

	assert.ErrorIs(t, err, boom)
	var nodeErr *domain.NodeExecutionError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, chat.StepRespond, nodeErr.Node)
	assert.Equal(t, 1, nodeErr.State.Len())
}

func TestRespond_RejectsBadReplies(t *testing.T) {
	_, err := run(t, &recorder{reply: domain.AssistantMessage("")}, []domain.Message{domain.UserMessage("hi")})
	assert.ErrorIs(t, err, ports.ErrEmptyCompletion)

	_, err = run(t, &recorder{reply: domain.UserMessage("spoofed")}, []domain.Message{domain.UserMessage("hi")})
	var nodeErr *domain.NodeExecutionError
	assert.True(t, errors.As(err, &nodeErr))
}
