package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// ErrStreamClosed is returned by Writer methods once the stream is closed.
var ErrStreamClosed = errors.New("sse stream closed")

type flusher interface {
	Flush() error
}

// Writer frames JSON payloads as SSE "data:" events.
//
// Writes are expected from a single goroutine. Close may be called from any
// goroutine and unblocks a pending write when the destination is an
// *io.PipeWriter.
type Writer struct {
	dest   io.Writer
	closed atomic.Bool
	once   sync.Once
}

// NewWriter returns a Writer that frames events onto dest. If dest is an
// io.Closer it is closed by Close.
func NewWriter(dest io.Writer) *Writer {
	return &Writer{dest: dest}
}

// WriteJSON encodes v and writes it as a single "data: <json>\n\n" frame,
// flushing dest afterwards when it supports flushing.
func (w *Writer) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding sse payload: %w", err)
	}
	return w.WriteData(data)
}

// WriteData writes data as a single frame. Embedded newlines are split over
// multiple "data:" lines.
func (w *Writer) WriteData(data []byte) error {
	if w.closed.Load() {
		return ErrStreamClosed
	}

	var frame bytes.Buffer
	for line := range bytes.SplitSeq(data, []byte("\n")) {
		frame.WriteString("data: ")
		frame.Write(line)
		frame.WriteByte('\n')
	}
	frame.WriteByte('\n')

	if _, err := w.dest.Write(frame.Bytes()); err != nil {
		return err
	}
	if f, ok := w.dest.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close marks the stream closed and closes dest if it is an io.Closer.
// Only the first call has any effect.
func (w *Writer) Close() error {
	var err error
	w.once.Do(func() {
		w.closed.Store(true)
		if c, ok := w.dest.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

// Closed reports whether Close has been called.
func (w *Writer) Closed() bool {
	return w.closed.Load()
}
