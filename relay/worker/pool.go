// Package worker provides an asynchronous worker pool that publishes
// generation telemetry through an eventstream.Publisher.
//
// The pool decouples publishing from the relay's streaming path so a slow or
// unavailable event backend never delays a client's progress stream.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikaNatus/open-lovable/pkg/eventstream"
	"github.com/MikaNatus/open-lovable/pkg/logger"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job describes one finished generation request.
type Job struct {
	RequestID string
	SandboxID string
	Provider  string
	Model     string

	StartedAt   time.Time
	CompletedAt time.Time

	Outcome       string
	Error         string
	ContentBytes  int
	Packages      []string
	AppliedEvents int
	Skipped       int
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives one GenerationEvent per job.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the pool logger. Defaults to a no-op logger.
	Logger *slog.Logger
}

// Pool publishes telemetry jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, fmt.Errorf("worker pool requires a publisher")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: log,
		now:    time.Now,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job
// being dropped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"request_id", job.RequestID,
			"model", job.Model,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"request_id", job.RequestID,
			"model", job.Model,
		)
		return false
	}
}

// Close signals workers to stop, waits for in-flight jobs to drain and then
// closes the publisher. Call it after the relay HTTP server has stopped.
func (p *Pool) Close() error {
	close(p.queue)
	p.wg.Wait()
	return p.config.Publisher.Close()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("telemetry worker stopped", "worker_id", id)
}

func (p *Pool) processJob(job Job) {
	event := p.buildEvent(job)

	if err := p.config.Publisher.PublishGeneration(context.Background(), event); err != nil {
		p.logger.Error("publishing generation event failed",
			"request_id", job.RequestID,
			"error", err,
		)
		return
	}

	p.logger.Debug("generation event published",
		"event_id", event.EventID,
		"request_id", job.RequestID,
		"outcome", job.Outcome,
	)
}

func (p *Pool) buildEvent(job Job) *eventstream.GenerationEvent {
	packages := job.Packages
	if packages == nil {
		packages = []string{}
	}

	return &eventstream.GenerationEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeGenerationCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     p.now().UTC(),
		Source: eventstream.EventSource{
			RequestID: job.RequestID,
			SandboxID: job.SandboxID,
			Provider:  job.Provider,
			Model:     job.Model,
		},
		RequestMeta: eventstream.RequestMeta{
			StartedAt:   job.StartedAt,
			CompletedAt: job.CompletedAt,
			DurationMs:  job.CompletedAt.Sub(job.StartedAt).Milliseconds(),
		},
		Generation: eventstream.GenerationResult{
			Outcome:       job.Outcome,
			Error:         job.Error,
			ContentBytes:  job.ContentBytes,
			Packages:      packages,
			AppliedEvents: job.AppliedEvents,
			Skipped:       job.Skipped,
		},
	}
}
