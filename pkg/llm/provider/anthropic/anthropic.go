// Package anthropic streams generations from the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"iter"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/MikaNatus/open-lovable/pkg/llm"
)

// Provider streams text deltas from Claude models.
type Provider struct {
	client *sdk.Client
}

// New creates a Provider. Extra request options are applied after the API
// key, so they may override the base URL or retry policy.
func New(apiKey string, opts ...option.RequestOption) *Provider {
	client := sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Provider{client: &client}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "anthropic"
}

// StreamText streams the text deltas of a single-turn message.
func (p *Provider) StreamText(ctx context.Context, req *llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := p.client.Messages.NewStreaming(ctx, buildMessageParams(req))
		defer stream.Close()

		for stream.Next() {
			// Only text deltas carry generated output; message and block
			// boundaries are ignored.
			e, ok := stream.Current().AsAny().(sdk.ContentBlockDeltaEvent)
			if !ok || e.Delta.Type != "text_delta" || e.Delta.Text == "" {
				continue
			}
			if !yield(e.Delta.Text, nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("anthropic streaming error: %w", err))
		}
	}
}

func buildMessageParams(req *llm.Request) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: sdk.Float(req.Temperature),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{
			{
				Type: "text",
				Text: req.System,
			},
		}
	}
	return params
}
