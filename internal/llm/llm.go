// Package llm adapts external completion providers to one small interface.
//
// Backends:
//   - OpenAIProvider: any OpenAI-compatible chat completions endpoint; Gemini
//     is reached through its OpenAI-compatible base URL
//   - AnthropicProvider: the Anthropic Messages API
//   - EinoProvider: any eino chat model, built on Volcengine Ark by New
//
// Providers never log; callers decide what to record about a failure.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"

	"github.com/tbourn/go-mindcare-backend/internal/config"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GeminiBaseURL is Google's OpenAI-compatible endpoint.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Default models per provider, used when LLM_MODEL is empty.
var defaultModels = map[string]string{
	"gemini":    "gemini-2.0-flash",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-haiku-latest",
}

var (
	// ErrEmptyCompletion is returned when a provider answers without text.
	ErrEmptyCompletion = errors.New("llm: empty completion")
	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("llm: unknown provider")
)

// Message is one role-tagged turn of a prompt.
type Message struct {
	Role    string
	Content string
}

// Params are the sampling parameters sent with every request. Zero values
// leave the provider default in place.
type Params struct {
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

// ParamsFrom extracts sampling parameters from configuration.
func ParamsFrom(cfg config.LLMConfig) Params {
	return Params{
		Temperature:     cfg.Temperature,
		TopK:            cfg.TopK,
		TopP:            cfg.TopP,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
}

// Provider produces the next assistant turn for a prompt.
type Provider interface {
	// Complete returns the generated text. Implementations honor ctx
	// cancellation and deadlines.
	Complete(ctx context.Context, msgs []Message, p Params) (string, error)
	// Name identifies the backend in logs and metrics.
	Name() string
}

// New builds the Provider selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModels[name]
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch name {
	case "gemini":
		base := cfg.BaseURL
		if base == "" {
			base = GeminiBaseURL
		}
		return NewOpenAIProvider("gemini", cfg.APIKey, modelName, base, httpClient, WithTopK(cfg.SendTopK)), nil
	case "openai":
		return NewOpenAIProvider("openai", cfg.APIKey, modelName, cfg.BaseURL, httpClient, WithTopK(cfg.SendTopK)), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, modelName, cfg.BaseURL, httpClient), nil
	case "ark":
		cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Region:  cfg.Region,
			APIKey:  cfg.APIKey,
			Model:   modelName,
		})
		if err != nil {
			return nil, fmt.Errorf("llm: ark chat model: %w", err)
		}
		return NewEinoProvider("ark", cm), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// splitSystem separates system instructions from the conversational turns.
// Several system messages are joined with a blank line.
func splitSystem(msgs []Message) (string, []Message) {
	var sys []string
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(sys, "\n\n"), rest
}
