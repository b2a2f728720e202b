// Package mcp provides an MCP (Model Context Protocol) server exposing the
// lovable generation pipeline as tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MikaNatus/open-lovable/pkg/utils"
	"github.com/MikaNatus/open-lovable/relay"
)

// Generator runs one website generation. *relay.Relay satisfies it and
// records the run's telemetry like any streamed generation.
type Generator interface {
	Generate(ctx context.Context, req *relay.GenerateRequest, emit relay.Emitter) (*relay.Result, error)
}

type Config struct {
	// Generator runs website generations for the generate_website tool.
	Generator Generator

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the generation tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "lovable",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Generator == nil {
			return nil, errors.New("generator is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        generateToolName,
			Description: generateDescription,
		}, s.handleGenerate)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        detectToolName,
			Description: detectDescription,
		}, s.handleDetect)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}
