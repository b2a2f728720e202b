package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MikaNatus/open-lovable/pkg/llm"
)

var (
	// ErrPromptRequired is returned for a request without a usable prompt.
	ErrPromptRequired = errors.New("prompt is required")

	// ErrInvalidBody is returned for a request body that is not valid JSON.
	ErrInvalidBody = errors.New("invalid request body")
)

// GenerateRequest is one website generation. It is not modified once
// received.
type GenerateRequest struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
	SandboxID   string

	// RequestID correlates the generation across services.
	RequestID string

	// Header is forwarded to the apply service.
	Header http.Header
}

// Validate reports ErrPromptRequired when the prompt is blank.
func (r *GenerateRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrPromptRequired
	}
	return nil
}

// generateBody is the JSON body of POST /api/generate-ai-code-stream.
// Optional fields are pointers so an explicit zero temperature survives.
type generateBody struct {
	Prompt      string   `json:"prompt"`
	Model       *string  `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"maxTokens"`
	SandboxID   *string  `json:"sandboxId"`
}

// DecodeGenerateRequest parses a request body and fills in defaults.
// It returns ErrInvalidBody for malformed JSON and ErrPromptRequired for a
// blank prompt.
func DecodeGenerateRequest(body []byte, defaultModel string) (*GenerateRequest, error) {
	var b generateBody
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	req := &GenerateRequest{
		Prompt:      b.Prompt,
		Model:       defaultModel,
		Temperature: llm.DefaultTemperature,
		MaxTokens:   llm.DefaultMaxTokens,
	}
	if b.Model != nil && *b.Model != "" {
		req.Model = *b.Model
	}
	if b.Temperature != nil {
		req.Temperature = *b.Temperature
	}
	if b.MaxTokens != nil && *b.MaxTokens > 0 {
		req.MaxTokens = *b.MaxTokens
	}
	if b.SandboxID != nil {
		req.SandboxID = *b.SandboxID
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
