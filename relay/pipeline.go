package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikaNatus/open-lovable/pkg/applier"
	"github.com/MikaNatus/open-lovable/pkg/llm"
	"github.com/MikaNatus/open-lovable/pkg/llm/provider"
	"github.com/MikaNatus/open-lovable/pkg/logger"
	"github.com/MikaNatus/open-lovable/pkg/progress"
	"github.com/MikaNatus/open-lovable/pkg/tagscan"
	"github.com/MikaNatus/open-lovable/pkg/utils"
)

// Outcomes recorded on a Result.
const (
	OutcomeCompleted  = "completed"
	OutcomeModelError = "model_error"
	OutcomeApplyError = "apply_error"
	OutcomeAborted    = "aborted"
	OutcomePanic      = "panic"
)

// ErrPanic wraps a value recovered from a panic during a run.
var ErrPanic = errors.New("generation panicked")

// Resolver selects the provider for a model. *provider.Registry satisfies it.
type Resolver interface {
	Resolve(model string) (provider.Streamer, string, error)
}

// Applier starts an apply service stream. *applier.Client satisfies it.
type Applier interface {
	Apply(ctx context.Context, req *applier.Request) (*applier.Stream, error)
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	Resolver Resolver
	Applier  Applier

	// SystemPrompt defaults to llm.SystemPrompt.
	SystemPrompt string

	// ScanWindow defaults to tagscan.DefaultWindow.
	ScanWindow int

	// DefaultModel is used for requests with no model.
	DefaultModel string

	Logger *slog.Logger
}

// Result summarizes one run.
type Result struct {
	// Content is the full generated text handed to the apply service.
	Content string

	// Packages are the distinct package names in discovery order.
	Packages []string

	Provider string
	Model    string
	Outcome  string
	Err      error
	Duration time.Duration

	// Results is the payload of the apply service's complete message.
	Results json.RawMessage

	// AppliedEvents counts relayed apply service messages.
	AppliedEvents int

	// Skipped counts malformed apply service messages.
	Skipped int
}

// Pipeline drives one generation from the model stream through the apply
// service. A Pipeline is safe for concurrent use; every Run owns its own
// scanner and accumulator.
type Pipeline struct {
	resolver     Resolver
	applier      Applier
	system       string
	window       int
	defaultModel string
	logger       *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(c PipelineConfig) (*Pipeline, error) {
	if c.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if c.Applier == nil {
		return nil, errors.New("applier is required")
	}

	p := &Pipeline{
		resolver:     c.Resolver,
		applier:      c.Applier,
		system:       c.SystemPrompt,
		window:       c.ScanWindow,
		defaultModel: c.DefaultModel,
		logger:       c.Logger,
	}
	if p.system == "" {
		p.system = llm.SystemPrompt
	}
	if p.window == 0 {
		p.window = tagscan.DefaultWindow
	}
	if p.defaultModel == "" {
		p.defaultModel = llm.DefaultModel
	}
	if p.logger == nil {
		p.logger = logger.Nop()
	}
	return p, nil
}

// DefaultModel returns the model used when a request names none.
func (p *Pipeline) DefaultModel() string {
	return p.defaultModel
}

// Run executes the generation and emits its progress events to emit.
//
// The apply service is only called once the model stream is exhausted. Every
// failure is reported to emit as exactly one error event, and Run returns a
// non-nil error whenever the outcome is not OutcomeCompleted. An emit failure
// stops the run without further events.
func (p *Pipeline) Run(ctx context.Context, req *GenerateRequest, emit Emitter) (res *Result, err error) {
	start := time.Now()
	res = &Result{Model: req.Model, Outcome: OutcomeCompleted}
	if res.Model == "" {
		res.Model = p.defaultModel
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := p.logger.With("request_id", req.RequestID, "model", res.Model)
	log.Debug("generation started", "prompt", utils.Truncate(req.Prompt, 80))

	defer func() {
		if r := recover(); r != nil {
			log.Error("generation panicked", "panic", r)
			res.Outcome = OutcomePanic
			err = fmt.Errorf("%w: %v", ErrPanic, r)
			_ = emit.Emit(progress.Error(fmt.Sprint(r)))
		}
		res.Err = err
		res.Duration = time.Since(start)
	}()

	if err := p.generate(ctx, req, res, emit, log); err != nil {
		return res, err
	}
	if err := p.apply(ctx, req, res, emit, log); err != nil {
		return res, err
	}

	log.Info("generation completed",
		"provider", res.Provider,
		"packages", len(res.Packages),
		"applied_events", res.AppliedEvents,
		"skipped", res.Skipped,
	)
	return res, nil
}

// generate runs the primary phase: stream fragments, forward them and
// report newly found packages.
func (p *Pipeline) generate(ctx context.Context, req *GenerateRequest, res *Result, emit Emitter, log *slog.Logger) error {
	streamer, native, err := p.resolver.Resolve(res.Model)
	if err != nil {
		return p.fail(res, emit, OutcomeModelError, err.Error(), err)
	}
	res.Provider = streamer.Name()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}

	log.Debug("starting model stream", "provider", res.Provider, "native_model", native)

	scanner := tagscan.New(tagscan.WithWindow(p.window))
	var full strings.Builder

	for fragment, ferr := range streamer.StreamText(ctx, &llm.Request{
		Model:       native,
		System:      p.system,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}) {
		if ferr != nil {
			res.Content = full.String()
			res.Packages = scanner.Packages()
			return p.fail(res, emit, OutcomeModelError, ferr.Error(), fmt.Errorf("model stream: %w", ferr))
		}

		full.WriteString(fragment)
		if err := p.emit(res, emit, progress.Content(fragment)); err != nil {
			return err
		}

		for _, name := range scanner.Observe(fragment) {
			log.Debug("package detected", "package", name)
			if err := p.emit(res, emit, progress.Package(name)); err != nil {
				return err
			}
		}
	}

	res.Content = full.String()
	res.Packages = scanner.Packages()
	return nil
}

// apply runs the secondary phase: hand the full text to the apply service
// and relay its messages.
func (p *Pipeline) apply(ctx context.Context, req *GenerateRequest, res *Result, emit Emitter, log *slog.Logger) error {
	if err := p.emit(res, emit, progress.ApplicationStart()); err != nil {
		return err
	}

	stream, err := p.applier.Apply(ctx, &applier.Request{
		Response:  res.Content,
		Packages:  res.Packages,
		SandboxID: req.SandboxID,
		Header:    req.Header,
	})
	if err != nil {
		return p.fail(res, emit, OutcomeApplyError, progress.MessageApplyFailed, err)
	}
	defer stream.Close()

	for {
		msg, err := stream.Next()
		if errors.Is(err, applier.ErrMalformedMessage) {
			res.Skipped++
			log.Debug("skipping malformed apply message", "error", err)
			continue
		}
		if err != nil {
			return p.fail(res, emit, OutcomeApplyError, err.Error(), fmt.Errorf("reading apply stream: %w", err))
		}
		if msg == nil {
			return nil
		}

		res.AppliedEvents++
		if err := p.emit(res, emit, progress.ApplicationProgress(msg)); err != nil {
			return err
		}

		if msg.IsComplete() {
			res.Results = msg.Results()
			if err := p.emit(res, emit, progress.ApplicationComplete(res.Results)); err != nil {
				return err
			}
		}
	}
}

func (p *Pipeline) emit(res *Result, emit Emitter, ev progress.Event) error {
	if err := emit.Emit(ev); err != nil {
		res.Outcome = OutcomeAborted
		return fmt.Errorf("emitting %s event: %w", ev.Type, err)
	}
	return nil
}

// fail records outcome and reports msg as the run's single error event.
func (p *Pipeline) fail(res *Result, emit Emitter, outcome, msg string, cause error) error {
	res.Outcome = outcome
	p.logger.Error("generation failed", "outcome", outcome, "error", cause)

	if err := emit.Emit(progress.Error(msg)); err != nil {
		res.Outcome = OutcomeAborted
		return errors.Join(cause, fmt.Errorf("emitting error event: %w", err))
	}
	return cause
}
