// Package openai streams generations from the OpenAI Chat Completions API
// and from OpenAI-compatible endpoints.
package openai

import (
	"context"
	"fmt"
	"iter"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/MikaNatus/open-lovable/pkg/llm"
)

// Provider streams chat completion deltas.
type Provider struct {
	name   string
	client *sdk.Client
}

// New creates a Provider for api.openai.com.
func New(apiKey string, opts ...option.RequestOption) *Provider {
	return NewNamed("openai", apiKey, opts...)
}

// NewNamed creates a Provider reported under name. Compatible endpoints are
// selected with option.WithBaseURL.
func NewNamed(name, apiKey string, opts ...option.RequestOption) *Provider {
	client := sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Provider{name: name, client: &client}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// StreamText streams the content deltas of the first choice.
func (p *Provider) StreamText(ctx context.Context, req *llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := p.client.Chat.Completions.NewStreaming(ctx, buildParams(req))
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			s := chunk.Choices[0].Delta.Content
			if s == "" {
				continue
			}
			if !yield(s, nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("%s streaming error: %w", p.name, err))
		}
	}
}

func buildParams(req *llm.Request) sdk.ChatCompletionNewParams {
	var messages []sdk.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, sdk.SystemMessage(req.System))
	}
	messages = append(messages, sdk.UserMessage(req.Prompt))

	params := sdk.ChatCompletionNewParams{
		Model:       req.Model,
		Messages:    messages,
		Temperature: param.NewOpt(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	return params
}
