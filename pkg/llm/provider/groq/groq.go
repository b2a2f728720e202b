// Package groq serves models hosted on Groq through its OpenAI-compatible
// endpoint. It is the provider for models without a namespace prefix.
package groq

import (
	"github.com/openai/openai-go/option"

	"github.com/MikaNatus/open-lovable/pkg/llm/provider/openai"
)

// BaseURL is Groq's OpenAI-compatible API root.
const BaseURL = "https://api.groq.com/openai/v1"

// New creates a Groq provider. Options are applied after the Groq base URL.
func New(apiKey string, opts ...option.RequestOption) *openai.Provider {
	return openai.NewNamed("groq", apiKey, append([]option.RequestOption{option.WithBaseURL(BaseURL)}, opts...)...)
}
