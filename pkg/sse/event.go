// Package sse provides a minimal SSE (Server-Sent Events) reader and writer.
//
// The lovable relay uses a Reader to consume the apply service stream and a
// Writer to frame the progress stream it sends to clients. TeeReader lets the
// CLI keep a verbatim copy of a stream while parsing it.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Event represents a single parsed SSE event, delimited by a blank line
// in the byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n".
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}
