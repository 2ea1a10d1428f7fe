package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState_RequiresTranscript(t *testing.T) {
	_, err := domain.NewState("respond", nil)
	assert.ErrorIs(t, err, domain.ErrNilTranscript)

	_, err = domain.NewState("", []domain.Message{})
	assert.Error(t, err)

	s, err := domain.NewState("respond", []domain.Message{})
	require.NoError(t, err)
	assert.True(t, s.Valid())
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "respond", s.CurrentStep())
}

func TestNewState_CopiesInput(t *testing.T) {
	input := []domain.Message{domain.UserMessage("hi")}
	s, err := domain.NewState("respond", input)
	require.NoError(t, err)

	input[0] = domain.UserMessage("changed")
	assert.Equal(t, "hi", s.Transcript()[0].Content)
}

func TestState_CopyOnTransition(t *testing.T) {
	s, err := domain.NewState("respond", []domain.Message{domain.UserMessage("hi")})
	require.NoError(t, err)

	appended := s.Append(domain.AssistantMessage("hello"))
	stepped := s.WithStep("analyze")
	tagged := s.WithMetadata("k", "v")

	// Receiver untouched.
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "respond", s.CurrentStep())
	_, ok := s.Value("k")
	assert.False(t, ok)

	assert.Equal(t, 2, appended.Len())
	assert.Equal(t, "analyze", stepped.CurrentStep())
	v, ok := tagged.Value("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestState_AppendDoesNotAlias(t *testing.T) {
	s, err := domain.NewState("respond", []domain.Message{domain.UserMessage("hi")})
	require.NoError(t, err)

	a := s.Append(domain.AssistantMessage("a"))
	b := s.Append(domain.AssistantMessage("b"))

	last, _ := a.Last()
	assert.Equal(t, "a", last.Content)
	last, _ = b.Last()
	assert.Equal(t, "b", last.Content)
}

func TestState_TranscriptAccessorReturnsCopy(t *testing.T) {
	s, err := domain.NewState("respond", []domain.Message{domain.UserMessage("hi")})
	require.NoError(t, err)

	got := s.Transcript()
	got[0] = domain.AssistantMessage("tampered")
	assert.Equal(t, domain.UserMessage("hi"), s.Transcript()[0])

	meta := s.WithMetadata("k", 1)
	m := meta.Metadata()
	m["k"] = 2
	v, _ := meta.Value("k")
	assert.Equal(t, 1, v)
}

func TestState_HasPrefix(t *testing.T) {
	s, err := domain.NewState("respond", []domain.Message{domain.UserMessage("hi")})
	require.NoError(t, err)
	next := s.Append(domain.AssistantMessage("hello"))

	assert.True(t, next.HasPrefix(s))
	assert.True(t, s.HasPrefix(s))
	assert.False(t, s.HasPrefix(next))

	other, err := domain.NewState("respond", []domain.Message{domain.UserMessage("bye")})
	require.NoError(t, err)
	assert.False(t, next.HasPrefix(other))
}

func TestState_Equal(t *testing.T) {
	a, _ := domain.NewState("respond", []domain.Message{domain.UserMessage("hi")})
	b, _ := domain.NewState("respond", []domain.Message{domain.UserMessage("hi")})
	assert.True(t, a.Equal(b))
	assert.True(t, a.WithMetadata("k", 1).Equal(b.WithMetadata("k", 1)))
	assert.False(t, a.Equal(b.WithStep("analyze")))
	assert.False(t, a.Equal(b.WithMetadata("k", 1)))
	assert.False(t, a.Equal(b.Append(domain.AssistantMessage("x"))))
}

func TestState_JSONRoundTrip(t *testing.T) {
	s, err := domain.NewState("respond", []domain.Message{domain.UserMessage("hi")})
	require.NoError(t, err)
	s = s.Append(domain.AssistantMessage("hello")).WithStep(domain.Terminal).WithMetadata("turns", "1")

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"transcript": [
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": "hello"}
		],
		"current_step": "__end__",
		"metadata": {"turns": "1"}
	}`, string(data))

	var decoded domain.State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equal(s))
	assert.True(t, decoded.Terminated())
}

func TestState_UnmarshalRejectsUnknownRole(t *testing.T) {
	var s domain.State
	err := json.Unmarshal([]byte(`{"transcript":[{"role":"robot","content":"x"}],"current_step":"a"}`), &s)
	assert.Error(t, err)
}

func TestState_UnmarshalEmptyTranscriptIsValid(t *testing.T) {
	var s domain.State
	require.NoError(t, json.Unmarshal([]byte(`{"current_step":"a"}`), &s))
	assert.True(t, s.Valid())
	assert.Equal(t, 0, s.Len())
}
