package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MikaNatus/open-lovable/pkg/llm"
	"github.com/MikaNatus/open-lovable/pkg/progress"
	"github.com/MikaNatus/open-lovable/relay"
)

var (
	generateToolName    = "generate_website"
	generateDescription = "Generate a React + Vite + Tailwind website from a prompt and apply it to a sandbox. Returns the generated source, detected npm packages and the apply service results."
)

// GenerateInput represents the input arguments for the generate_website tool.
type GenerateInput struct {
	Prompt      string   `json:"prompt" jsonschema:"description of the website to build"`
	Model       string   `json:"model,omitempty" jsonschema:"namespaced model id, e.g. anthropic/claude-sonnet-4-5 (default: server default model)"`
	Temperature *float64 `json:"temperature,omitempty" jsonschema:"sampling temperature (default: 0.7)"`
	MaxTokens   int      `json:"max_tokens,omitempty" jsonschema:"maximum output tokens (default: 4000)"`
	SandboxID   string   `json:"sandbox_id,omitempty" jsonschema:"sandbox to apply the generated files to"`
}

// GenerateOutput represents the output of the generate_website tool.
type GenerateOutput struct {
	RequestID     string         `json:"request_id"`
	Outcome       string         `json:"outcome"`
	Model         string         `json:"model"`
	Provider      string         `json:"provider,omitempty"`
	Content       string         `json:"content"`
	Packages      []string       `json:"packages"`
	Results       map[string]any `json:"results,omitempty"`
	AppliedEvents int            `json:"applied_events"`
	Error         string         `json:"error,omitempty"`
}

// handleGenerate runs one generation to completion and reports its outcome.
func (s *Server) handleGenerate(ctx context.Context, _ *mcp.CallToolRequest, input GenerateInput) (*mcp.CallToolResult, GenerateOutput, error) {
	logger := s.config.Logger

	req := &relay.GenerateRequest{
		Prompt:      input.Prompt,
		Model:       input.Model,
		Temperature: llm.DefaultTemperature,
		MaxTokens:   input.MaxTokens,
		SandboxID:   input.SandboxID,
		RequestID:   uuid.NewString(),
	}
	if input.Temperature != nil {
		req.Temperature = *input.Temperature
	}
	if err := req.Validate(); err != nil {
		return errorResult("Invalid input: %v", err), GenerateOutput{Packages: []string{}}, nil
	}

	logger.Debug("MCP generate request",
		"request_id", req.RequestID,
		"model", req.Model,
	)

	collector := &relay.Collector{}
	res, runErr := s.config.Generator.Generate(ctx, req, collector)

	output := GenerateOutput{
		RequestID:     req.RequestID,
		Outcome:       res.Outcome,
		Model:         res.Model,
		Provider:      res.Provider,
		Content:       res.Content,
		Packages:      res.Packages,
		AppliedEvents: res.AppliedEvents,
	}
	if output.Packages == nil {
		output.Packages = []string{}
	}
	if len(res.Results) > 0 {
		if err := json.Unmarshal(res.Results, &output.Results); err != nil {
			logger.Warn("apply results are not an object", "error", err)
		}
	}
	if runErr != nil {
		output.Error = lastError(collector.Events(), runErr)
	}

	// Structured output is mirrored as JSON text for clients without
	// structured content support.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal generate output", "error", err)
		return errorResult("Failed to serialize results: %v", err), GenerateOutput{Packages: []string{}}, nil
	}

	return &mcp.CallToolResult{
		IsError: runErr != nil,
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

// lastError returns the message of the run's error event, falling back to
// the returned error.
func lastError(events []progress.Event, err error) string {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == progress.TypeError {
			return events[i].Error
		}
	}
	return err.Error()
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}
