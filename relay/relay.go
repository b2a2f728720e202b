package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/MikaNatus/open-lovable/pkg/eventstream"
	"github.com/MikaNatus/open-lovable/pkg/llm"
	"github.com/MikaNatus/open-lovable/pkg/llm/provider"
	lvlogger "github.com/MikaNatus/open-lovable/pkg/logger"
	"github.com/MikaNatus/open-lovable/pkg/sse"
	"github.com/MikaNatus/open-lovable/relay/header"
	"github.com/MikaNatus/open-lovable/relay/worker"
)

// GeneratePath is the streaming generation endpoint.
const GeneratePath = "/api/generate-ai-code-stream"

// ErrorResponse is the JSON body of a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ModelsResponse is the body of GET /api/models.
type ModelsResponse struct {
	DefaultModel string      `json:"defaultModel"`
	Models       []llm.Model `json:"models"`
	Providers    []string    `json:"providers"`
	Namespaces   []string    `json:"namespaces"`
}

// Relay is the generation relay HTTP server. Each POST to GeneratePath runs
// one Pipeline whose events are streamed back as SSE, and every finished run
// is enqueued for telemetry publishing.
type Relay struct {
	config        Config
	pipeline      *Pipeline
	registry      *provider.Registry
	workerPool    *worker.Pool
	logger        *slog.Logger
	server        *fiber.App
	headerHandler *header.Handler
}

// New creates a new Relay. The publisher receives one event per generation
// and is closed by Close.
func New(config Config, pipeline *Pipeline, registry *provider.Registry, publisher eventstream.Publisher, logger *slog.Logger) (*Relay, error) {
	if pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if registry == nil {
		return nil, errors.New("provider registry is required")
	}
	if logger == nil {
		logger = lvlogger.Nop()
	}

	wp, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	r := &Relay{
		config:        config,
		pipeline:      pipeline,
		registry:      registry,
		workerPool:    wp,
		logger:        logger,
		server:        app,
		headerHandler: header.NewHandler(),
	}

	app.Get("/healthz", r.handleHealth)
	app.Get("/api/models", r.handleModels)
	app.Post(GeneratePath, r.handleGenerate)

	return r, nil
}

// MountMCP serves h at /mcp. It must be called before the relay starts.
func (r *Relay) MountMCP(h http.Handler) {
	r.server.All("/mcp", adaptor.HTTPHandler(h))
}

// App returns the underlying fiber app.
func (r *Relay) App() *fiber.App {
	return r.server
}

// Run starts the relay server on the configured listening address.
func (r *Relay) Run() error {
	r.logger.Info("starting relay server",
		"listen", r.config.ListenAddr,
		"applier", r.config.ApplierURL,
	)

	return r.server.Listen(r.config.ListenAddr)
}

// RunWithListener starts the relay server using the provided listener.
func (r *Relay) RunWithListener(listener net.Listener) error {
	r.logger.Info("starting relay server",
		"listen", listener.Addr().String(),
		"applier", r.config.ApplierURL,
	)

	return r.server.Listener(listener)
}

// Close stops the server, then drains the telemetry worker pool.
func (r *Relay) Close() error {
	serr := r.server.Shutdown()
	perr := r.workerPool.Close()
	return errors.Join(serr, perr)
}

func (r *Relay) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (r *Relay) handleModels(c *fiber.Ctx) error {
	return c.JSON(ModelsResponse{
		DefaultModel: r.pipeline.DefaultModel(),
		Models:       llm.Catalog(),
		Providers:    r.registry.Configured(),
		Namespaces:   provider.Namespaces(),
	})
}

// handleGenerate validates the request, then streams the pipeline's events.
func (r *Relay) handleGenerate(c *fiber.Ctx) error {
	req, err := DecodeGenerateRequest(c.Body(), r.pipeline.DefaultModel())
	if err != nil {
		r.logger.Debug("rejecting generation request", "error", err)
		msg := "Prompt is required"
		if errors.Is(err, ErrInvalidBody) {
			msg = "Invalid request body"
		}
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
	}

	req.RequestID = r.headerHandler.RequestID(c)
	req.Header = r.headerHandler.ApplierRequestHeaders(c)

	r.headerHandler.SetStreamHeaders(c)

	// io.Pipe gives per-event flushing: each write blocks until fasthttp's
	// chunked body writer has consumed it.
	pr, pw := io.Pipe()
	go r.streamGeneration(req, sse.NewWriter(pw))

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

// streamGeneration runs the generation against w and closes it exactly once.
// It uses context.Background() because fasthttp recycles the request context
// once the handler returns.
func (r *Relay) streamGeneration(req *GenerateRequest, w *sse.Writer) {
	defer w.Close()
	_, _ = r.Generate(context.Background(), req, SSEEmitter(w))
}

// Generate runs one generation through the pipeline and enqueues its
// telemetry event. Both the SSE endpoint and the MCP generate tool use it.
func (r *Relay) Generate(ctx context.Context, req *GenerateRequest, emit Emitter) (*Result, error) {
	startedAt := time.Now()
	res, err := r.pipeline.Run(ctx, req, emit)
	if err != nil {
		r.logger.Warn("generation ended with error",
			"request_id", req.RequestID,
			"outcome", res.Outcome,
			"error", err,
		)
	}

	job := worker.Job{
		RequestID:     req.RequestID,
		SandboxID:     req.SandboxID,
		Provider:      res.Provider,
		Model:         res.Model,
		StartedAt:     startedAt,
		CompletedAt:   startedAt.Add(res.Duration),
		Outcome:       res.Outcome,
		ContentBytes:  len(res.Content),
		Packages:      res.Packages,
		AppliedEvents: res.AppliedEvents,
		Skipped:       res.Skipped,
	}
	if err != nil {
		job.Error = err.Error()
	}
	r.workerPool.Enqueue(job)

	return res, err
}
