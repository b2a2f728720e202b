// Package provider selects and drives the model provider that streams a
// website generation.
package provider

import (
	"context"
	"errors"
	"iter"

	"github.com/MikaNatus/open-lovable/pkg/llm"
)

// ErrProviderNotConfigured is returned when a model resolves to a provider
// that has no credential.
var ErrProviderNotConfigured = errors.New("provider not configured")

// Streamer streams the text of one generation.
type Streamer interface {
	// Name returns the canonical provider name (e.g. "anthropic", "groq").
	Name() string

	// StreamText returns a lazy, finite sequence of text fragments. A non-nil
	// error ends the sequence. The sequence must only be ranged over once.
	StreamText(ctx context.Context, req *llm.Request) iter.Seq2[string, error]
}
