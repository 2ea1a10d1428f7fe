// Package gemini adapts the Google Gen AI SDK to ports.Completer.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Completer implements ports.Completer with Models.GenerateContent.
type Completer struct {
	model  string
	client *genai.Client
}

// New creates a Gemini completer from a client configuration.
func New(ctx context.Context, model string, clientConfig *genai.ClientConfig) (*Completer, error) {
	if clientConfig == nil {
		return nil, errors.New("gemini: clientConfig cannot be nil")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	return &Completer{model: model, client: client}, nil
}

// NewWithAPIKey creates a Gemini API (non Vertex) completer.
func NewWithAPIKey(ctx context.Context, model, apiKey string) (*Completer, error) {
	return New(ctx, model, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// Model returns the configured model name.
func (c *Completer) Model() string {
	return c.model
}

// Complete implements ports.Completer. System messages become the request's
// system instruction; assistant turns are sent with the "model" role.
func (c *Completer) Complete(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	contents, system := toContents(messages)

	config := &genai.GenerateContentConfig{}
	if system != nil {
		config.SystemInstruction = system
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return domain.Message{}, fmt.Errorf("gemini: %w", err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, fmt.Errorf("gemini: %w", ports.ErrEmptyCompletion)
	}
	return domain.AssistantMessage(text), nil
}

func toContents(messages []domain.Message) ([]*genai.Content, *genai.Content) {
	var (
		system   *genai.Content
		contents = make([]*genai.Content, 0, len(messages))
	)
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: msg.Content})
		case domain.RoleAssistant:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: msg.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: msg.Content}}})
		}
	}
	return contents, system
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
