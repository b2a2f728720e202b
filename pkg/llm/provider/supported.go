package provider

import (
	"fmt"

	"github.com/MikaNatus/open-lovable/pkg/llm/provider/anthropic"
	"github.com/MikaNatus/open-lovable/pkg/llm/provider/google"
	"github.com/MikaNatus/open-lovable/pkg/llm/provider/groq"
	"github.com/MikaNatus/open-lovable/pkg/llm/provider/lorem"
	"github.com/MikaNatus/open-lovable/pkg/llm/provider/openai"
)

// Supported provider names. Every name except Groq is also the model
// namespace prefix that routes to it.
const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Google    = "google"
	Groq      = "groq"
	Lorem     = "lorem"
)

// SupportedProviders returns the list of all supported provider names.
func SupportedProviders() []string {
	return []string{Anthropic, OpenAI, Google, Groq, Lorem}
}

// Namespaces returns the model prefixes that select a provider explicitly.
func Namespaces() []string {
	return []string{Anthropic, OpenAI, Google, Lorem}
}

// New creates a Streamer for the named provider authenticated with apiKey.
// The lorem provider needs no key.
func New(name, apiKey string) (Streamer, error) {
	if apiKey == "" && name != Lorem {
		return nil, fmt.Errorf("%w: %s has no API key", ErrProviderNotConfigured, name)
	}

	switch name {
	case Anthropic:
		return anthropic.New(apiKey), nil
	case OpenAI:
		return openai.New(apiKey), nil
	case Google:
		return google.New(apiKey), nil
	case Groq:
		return groq.New(apiKey), nil
	case Lorem:
		return lorem.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q (supported: %v)", name, SupportedProviders())
	}
}
