package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeGenerationCompleted is emitted after a generation request's
	// stream is closed, whatever its outcome.
	EventTypeGenerationCompleted = "lovable.generation.completed"
)

// GenerationEvent is a transport-neutral event payload describing one
// finished generation request.
type GenerationEvent struct {
	SchemaVersion int              `json:"schema_version"`
	EventType     string           `json:"event_type"`
	EventID       string           `json:"event_id"`
	EmittedAt     time.Time        `json:"emitted_at"`
	Source        EventSource      `json:"source"`
	RequestMeta   RequestMeta      `json:"request_meta"`
	Generation    GenerationResult `json:"generation"`
}

// EventSource identifies where the generation ran.
type EventSource struct {
	RequestID string `json:"request_id,omitempty"`
	SandboxID string `json:"sandbox_id,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model"`
}

// RequestMeta captures request lifecycle metadata for the event.
type RequestMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// GenerationResult summarises what the pipeline produced.
type GenerationResult struct {
	Outcome       string   `json:"outcome"`
	Error         string   `json:"error,omitempty"`
	ContentBytes  int      `json:"content_bytes"`
	Packages      []string `json:"packages"`
	AppliedEvents int      `json:"applied_events"`
	Skipped       int      `json:"skipped_messages"`
}
