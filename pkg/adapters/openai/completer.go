// Package openai adapts the OpenAI chat completions API to ports.Completer.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Options configures the provider.
type Options struct {
	Model       string
	APIKey      string
	BaseURL     string
	RequestOpts []option.RequestOption
}

// Option mutates Options.
type Option func(*Options)

// WithModel selects the chat model.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithAPIKey sets the API key. Without it the client reads OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(o *Options) {
		o.APIKey = key
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *Options) {
		o.BaseURL = url
	}
}

// WithRequestOptions appends raw SDK request options.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(o *Options) {
		o.RequestOpts = append(o.RequestOpts, opts...)
	}
}

// Completer implements ports.Completer with chat completions.
type Completer struct {
	model  string
	client openai.Client
}

// New constructs an OpenAI completer.
func New(opts ...Option) *Completer {
	o := Options{Model: DefaultModel}
	for _, opt := range opts {
		opt(&o)
	}
	reqOpts := make([]option.RequestOption, 0, len(o.RequestOpts)+2)
	if o.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(o.APIKey))
	}
	if o.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.BaseURL))
	}
	reqOpts = append(reqOpts, o.RequestOpts...)

	return &Completer{
		model:  o.Model,
		client: openai.NewClient(reqOpts...),
	}
}

// Model returns the configured chat model.
func (c *Completer) Model() string {
	return c.model
}

// Complete sends the transcript and returns the first choice.
func (c *Completer) Complete(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toParams(messages),
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return domain.Message{}, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Message{}, fmt.Errorf("openai: %w", ports.ErrEmptyCompletion)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, fmt.Errorf("openai: finish reason %q: %w", resp.Choices[0].FinishReason, ports.ErrEmptyCompletion)
	}
	return domain.AssistantMessage(content), nil
}

func toParams(messages []domain.Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			params = append(params, openai.SystemMessage(msg.Content))
		case domain.RoleAssistant:
			params = append(params, openai.AssistantMessage(msg.Content))
		default:
			params = append(params, openai.UserMessage(msg.Content))
		}
	}
	return params
}
