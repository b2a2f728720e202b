package applier

import "encoding/json"

// TypeComplete is the message type that carries the final results.
const TypeComplete = "complete"

// Message is one JSON object from the apply service stream.
type Message map[string]any

// Type returns the message's "type" discriminator, or "" if absent.
func (m Message) Type() string {
	t, _ := m["type"].(string)
	return t
}

// IsComplete reports whether this is the final results message.
func (m Message) IsComplete() bool {
	return m.Type() == TypeComplete
}

// Results returns the "results" payload re-encoded as JSON, or nil when the
// message has none.
func (m Message) Results() json.RawMessage {
	v, ok := m["results"]
	if !ok {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
