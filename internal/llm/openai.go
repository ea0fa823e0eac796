package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint.
// TopK is not a standard field of that API; it is sent as an extra top_k
// body field only when enabled with WithTopK.
type OpenAIProvider struct {
	name     string
	client   *openai.Client
	model    string
	sendTopK bool
}

// OpenAIOption customizes an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithTopK makes the provider send Params.TopK as top_k.
func WithTopK(enabled bool) OpenAIOption {
	return func(p *OpenAIProvider) { p.sendTopK = enabled }
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider returns a provider for model at baseURL. An empty baseURL
// targets api.openai.com; a nil httpClient keeps the SDK default.
func NewOpenAIProvider(name, apiKey, model, baseURL string, httpClient *http.Client, opts ...OpenAIOption) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	p := &OpenAIProvider{
		name:   name,
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return p.name }

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, msgs []Message, params Params) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(msgs)),
	}
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	if params.MaxOutputTokens > 0 {
		req.MaxTokens = params.MaxOutputTokens
	}
	if params.Temperature > 0 {
		t := float32(params.Temperature)
		req.Temperature = &t
	}
	if params.TopP > 0 {
		req.TopP = float32(params.TopP)
	}
	if p.sendTopK && params.TopK > 0 {
		req.SetExtraFields(map[string]any{"top_k": params.TopK})
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: chat completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
