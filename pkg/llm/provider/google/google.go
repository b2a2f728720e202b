// Package google streams generations from the Gemini API.
package google

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/MikaNatus/open-lovable/pkg/llm"
)

// Provider streams Gemini candidate text.
type Provider struct {
	client *genai.Client
	err    error
}

// Option configures a Provider.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at a different Gemini API root.
func WithBaseURL(url string) Option {
	return func(c *genai.ClientConfig) {
		c.HTTPOptions.BaseURL = url
	}
}

// New creates a Provider for the Gemini Developer API. Client construction
// errors are reported by the first StreamText call.
func New(apiKey string, opts ...Option) *Provider {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return &Provider{err: fmt.Errorf("genai client: %w", err)}
	}
	return &Provider{client: client}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "google"
}

// StreamText streams the text parts of the first candidate.
func (p *Provider) StreamText(ctx context.Context, req *llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if p.err != nil {
			yield("", p.err)
			return
		}

		for chunk, err := range p.client.Models.GenerateContentStream(ctx, req.Model, genai.Text(req.Prompt), buildConfig(req)) {
			if err != nil {
				yield("", fmt.Errorf("google streaming error: %w", err))
				return
			}

			text := candidateText(chunk)
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func buildConfig(req *llm.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}
	return cfg
}

func candidateText(chunk *genai.GenerateContentResponse) string {
	if chunk == nil || len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range chunk.Candidates[0].Content.Parts {
		// Thought summaries are not part of the generated site.
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
