package sse

import (
	"bufio"
	"io"
	"strings"
)

// maxLineSize bounds a single SSE line. Apply service results can carry
// whole file listings, so this is generous.
const maxLineSize = 1024 * 1024

// Reader parses SSE events from a source io.Reader. When built with
// NewTeeReader it also writes every raw line verbatim to a destination:
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌───────────────────────┐
// │  Reader.Next()   │──▶│ destination io.Writer │ (tee only)
// └──────────────────┘   └───────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Event       │
// └──────────────────┘
type Reader struct {
	scanner *bufio.Scanner
	dest    io.Writer

	// current accumulates fields for the event being built in the current scan.
	current *Event
	hasData bool
}

// NewReader returns a Reader that parses SSE events from src.
func NewReader(src io.Reader) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Reader{
		scanner: scanner,
		current: &Event{},
	}
}

// NewTeeReader returns a Reader that parses SSE events from src and writes
// all raw bytes through to dest. The CLI uses it to save a stream to disk
// while rendering it.
func NewTeeReader(src io.Reader, dest io.Writer) *Reader {
	r := NewReader(src)
	r.dest = dest
	return r
}

// Next returns the next parsed SSE event from the scanner. It blocks until a
// complete event is available (terminated by a blank line in the stream).
// Next returns nil, nil when the source is exhausted.
//
// A tee Reader also copies every line to the destination writer supplied
// to NewTeeReader before parsing it.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()

		if r.dest != nil {
			// bufio.Scanner strips the newline so it is reinserted here.
			if _, err := io.WriteString(r.dest, line+"\n"); err != nil {
				return nil, err
			}
		}

		// Lines may end in CRLF.
		raw := strings.TrimSuffix(line, "\r")

		// A blank line signals the end of the current event.
		if raw == "" {
			if r.hasData {
				currentEvent := r.current
				r.reset()
				return currentEvent, nil
			}

			// Blank line with no accumulated fields: leading blank lines
			// or keep-alive newlines.
			continue
		}

		// Lines starting with ':' are comments. Skip them in Event parsing.
		if strings.HasPrefix(raw, ":") {
			continue
		}

		r.parseLine(raw)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Source exhausted and no error from scanner.
	// If there is an in-progress event (stream ended without a trailing blank
	// line), yield it.
	if r.hasData {
		ev := r.current
		r.reset()
		return ev, nil
	}

	return nil, nil
}

// parseLine processes a single non-empty, non-comment SSE line and
// accumulates the field into the current event.
//
// A line has the form "field:value" where the first
// space after the colon is optional and stripped if present.
func (r *Reader) parseLine(line string) {
	var field, value string

	if before, after, ok := strings.Cut(line, ":"); ok {
		field = before
		value = after
		// Strip a single leading space after the colon.
		value = strings.TrimPrefix(value, " ")
	} else {
		// Line with no colon: the entire line is the field name with
		// an empty value.
		field = line
	}

	switch field {
	case "data":
		if r.hasData && r.current.Data != "" {
			// Multiple data fields are joined with "\n".
			r.current.Data += "\n"
		}
		r.current.Data += value
		r.hasData = true
	case "event":
		r.current.Type = value
		r.hasData = true
	case "id":
		r.current.ID = value
		r.hasData = true
	default:
		// "retry" and unknown fields are ignored.
	}
}

// reset clears the accumulated event state for the next event.
func (r *Reader) reset() {
	r.current = &Event{}
	r.hasData = false
}
