package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MikaNatus/open-lovable/pkg/tagscan"
)

var (
	detectToolName    = "detect_packages"
	detectDescription = "List the distinct npm packages declared with <package>NAME</package> tags in generated text, in order of first appearance."
)

// DetectInput represents the input arguments for the detect_packages tool.
type DetectInput struct {
	Text string `json:"text" jsonschema:"generated text to scan for package tags"`
}

// DetectOutput represents the output of the detect_packages tool.
type DetectOutput struct {
	Packages []string `json:"packages"`
	Count    int      `json:"count"`
}

func (s *Server) handleDetect(_ context.Context, _ *mcp.CallToolRequest, input DetectInput) (*mcp.CallToolResult, DetectOutput, error) {
	packages := tagscan.FindAll(input.Text)
	if packages == nil {
		packages = []string{}
	}

	output := DetectOutput{Packages: packages, Count: len(packages)}
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), DetectOutput{Packages: []string{}}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
