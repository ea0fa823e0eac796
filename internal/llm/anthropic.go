package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

const anthropicDefaultMaxTokens = 1024

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

var _ Provider = (*AnthropicProvider)(nil)

// NewAnthropicProvider returns a provider for model. baseURL and httpClient
// are optional.
func NewAnthropicProvider(apiKey, model, baseURL string, httpClient *http.Client) *AnthropicProvider {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	if httpClient != nil {
		opts = append(opts, anthropic.WithHTTPClient(httpClient))
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Complete implements Provider. System messages travel in the request's
// system block; the Messages API accepts only user and assistant turns.
func (p *AnthropicProvider) Complete(ctx context.Context, msgs []Message, params Params) (string, error) {
	system, turns := splitSystem(msgs)

	amsgs := make([]anthropic.Message, 0, len(turns))
	for _, m := range turns {
		role := anthropic.RoleUser
		if m.Role == RoleAssistant {
			role = anthropic.RoleAssistant
		}
		amsgs = append(amsgs, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(m.Content)},
		})
	}

	maxTokens := anthropicDefaultMaxTokens
	if params.MaxOutputTokens > 0 {
		maxTokens = params.MaxOutputTokens
	}
	req := anthropic.MessagesRequest{
		Model:     anthropic.Model(p.model),
		Messages:  amsgs,
		MaxTokens: maxTokens,
	}
	if system != "" {
		req.MultiSystem = []anthropic.MessageSystemPart{{Type: "text", Text: system}}
	}
	if params.Temperature > 0 {
		// Anthropic caps temperature at 1.
		t := float32(min(params.Temperature, 1))
		req.Temperature = &t
	}
	if params.TopP > 0 {
		tp := float32(params.TopP)
		req.TopP = &tp
	}
	if params.TopK > 0 {
		k := params.TopK
		req.TopK = &k
	}

	resp, err := p.client.CreateMessages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("anthropic: create messages: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			b.WriteString(*block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
