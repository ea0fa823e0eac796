package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EinoProvider drives any eino chat model. TopK has no eino option and is
// ignored.
type EinoProvider struct {
	name string
	cm   model.BaseChatModel
}

var _ Provider = (*EinoProvider)(nil)

// NewEinoProvider wraps cm under the given name.
func NewEinoProvider(name string, cm model.BaseChatModel) *EinoProvider {
	return &EinoProvider{name: name, cm: cm}
}

// Name implements Provider.
func (p *EinoProvider) Name() string { return p.name }

// Complete implements Provider.
func (p *EinoProvider) Complete(ctx context.Context, msgs []Message, params Params) (string, error) {
	in := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			in = append(in, schema.SystemMessage(m.Content))
		case RoleAssistant:
			in = append(in, schema.AssistantMessage(m.Content, nil))
		default:
			in = append(in, schema.UserMessage(m.Content))
		}
	}

	var opts []model.Option
	if params.Temperature > 0 {
		opts = append(opts, model.WithTemperature(float32(params.Temperature)))
	}
	if params.TopP > 0 {
		opts = append(opts, model.WithTopP(float32(params.TopP)))
	}
	if params.MaxOutputTokens > 0 {
		opts = append(opts, model.WithMaxTokens(params.MaxOutputTokens))
	}

	out, err := p.cm.Generate(ctx, in, opts...)
	if err != nil {
		return "", fmt.Errorf("%s: generate: %w", p.name, err)
	}
	if out == nil {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(out.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
