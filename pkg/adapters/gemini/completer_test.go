package gemini_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aretw0/chatflow/pkg/adapters/gemini"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type request struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	SystemInstruction *struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
}

func fakeAPI(t *testing.T, parts ...map[string]any) (*httptest.Server, func() request) {
	t.Helper()
	var (
		mu   sync.Mutex
		last request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		_ = json.Unmarshal(body, &last)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"role": "model", "parts": parts},
				"finishReason": "STOP",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, func() request {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func newCompleter(t *testing.T, url string) *gemini.Completer {
	t.Helper()
	c, err := gemini.New(context.Background(), "test-model", &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: url},
	})
	require.NoError(t, err)
	return c
}

func TestGemini_Contract(t *testing.T) {
	srv, _ := fakeAPI(t, map[string]any{"text": "Hi there!"})
	tests.CompleterContractTest(t, newCompleter(t, srv.URL), "Hi there!")
}

func TestGemini_MapsRoles(t *testing.T) {
	srv, last := fakeAPI(t, map[string]any{"text": "ok"})
	c := newCompleter(t, srv.URL)
	assert.Equal(t, "test-model", c.Model())

	_, err := c.Complete(context.Background(), []domain.Message{
		domain.SystemMessage("be brief"),
		domain.UserMessage("hi"),
		domain.AssistantMessage("hello"),
		domain.UserMessage("again"),
	})
	require.NoError(t, err)

	req := last()
	require.Len(t, req.Contents, 3)
	assert.Equal(t, "user", req.Contents[0].Role)
	assert.Equal(t, "model", req.Contents[1].Role)
	assert.Equal(t, "again", req.Contents[2].Parts[0].Text)
	require.NotNil(t, req.SystemInstruction)
	assert.Equal(t, "be brief", req.SystemInstruction.Parts[0].Text)
}

func TestGemini_SkipsThoughts(t *testing.T) {
	srv, _ := fakeAPI(t,
		map[string]any{"text": "thinking...", "thought": true},
		map[string]any{"text": "answer"},
	)
	reply, err := newCompleter(t, srv.URL).Complete(context.Background(), []domain.Message{domain.UserMessage("q")})
	require.NoError(t, err)
	assert.Equal(t, "answer", reply.Content)
}

func TestGemini_EmptyCompletion(t *testing.T) {
	srv, _ := fakeAPI(t)
	_, err := newCompleter(t, srv.URL).Complete(context.Background(), []domain.Message{domain.UserMessage("q")})
	assert.ErrorIs(t, err, ports.ErrEmptyCompletion)
}

func TestNew_NilConfig(t *testing.T) {
	_, err := gemini.New(context.Background(), "", nil)
	assert.Error(t, err)
}
