package relay

import (
	"sync"

	"github.com/MikaNatus/open-lovable/pkg/progress"
	"github.com/MikaNatus/open-lovable/pkg/sse"
)

// Emitter receives progress events in order. A non-nil error means the
// client is gone and the run must stop.
type Emitter interface {
	Emit(ev progress.Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ev progress.Event) error

// Emit calls f(ev).
func (f EmitterFunc) Emit(ev progress.Event) error {
	return f(ev)
}

// SSEEmitter writes each event as one SSE data frame.
func SSEEmitter(w *sse.Writer) Emitter {
	return EmitterFunc(func(ev progress.Event) error {
		return w.WriteJSON(ev)
	})
}

// Collector buffers every event in memory.
type Collector struct {
	mu     sync.Mutex
	events []progress.Event
}

// Emit records ev.
func (c *Collector) Emit(ev progress.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (c *Collector) Events() []progress.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]progress.Event, len(c.events))
	copy(out, c.events)
	return out
}
