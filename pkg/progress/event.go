// Package progress defines the unified event stream sent to a generation
// client. Every event is a single JSON object discriminated by "type".
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// Type discriminates Event variants on the wire.
type Type string

const (
	TypeContent             Type = "content"
	TypePackage             Type = "package"
	TypeApplicationStart    Type = "application-start"
	TypeApplicationProgress Type = "application-progress"
	TypeApplicationComplete Type = "application-complete"
	TypeError               Type = "error"
)

// SourceKey marks an application-progress event on the wire. The inner
// message's own "type" replaces the discriminator, so the marker is what
// tells a wrapped message apart from a relay event.
const SourceKey = "source"

const (
	MessageApplicationStart    = "Applying generated code..."
	MessageApplicationComplete = "Website created successfully!"
	MessageApplyFailed         = "failed to apply generated code"
)

// Event is one entry of the progress stream. Only the fields belonging to
// its Type are encoded.
type Event struct {
	Type Type

	// Content is the text fragment of a content event.
	Content string

	// Name is the package name of a package event.
	Name string

	// Message is the human-readable text of package, application-start and
	// application-complete events.
	Message string

	// Results is the opaque results payload of an application-complete event.
	Results json.RawMessage

	// Error is the failure message of an error event.
	Error string

	// Inner is the secondary service message wrapped by an
	// application-progress event, including its own "type".
	Inner map[string]any
}

func Content(fragment string) Event {
	return Event{Type: TypeContent, Content: fragment}
}

func Package(name string) Event {
	return Event{
		Type:    TypePackage,
		Name:    name,
		Message: fmt.Sprintf("📦 Package detected: %s", name),
	}
}

func ApplicationStart() Event {
	return Event{Type: TypeApplicationStart, Message: MessageApplicationStart}
}

// ApplicationProgress wraps a secondary service message. The map is copied.
func ApplicationProgress(inner map[string]any) Event {
	return Event{Type: TypeApplicationProgress, Inner: maps.Clone(inner)}
}

func ApplicationComplete(results json.RawMessage) Event {
	return Event{
		Type:    TypeApplicationComplete,
		Results: results,
		Message: MessageApplicationComplete,
	}
}

func Error(msg string) Event {
	return Event{Type: TypeError, Error: msg}
}

type contentWire struct {
	Type    Type   `json:"type"`
	Content string `json:"content"`
}

type packageWire struct {
	Type    Type   `json:"type"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type messageWire struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

type completeWire struct {
	Type    Type            `json:"type"`
	Results json.RawMessage `json:"results,omitempty"`
	Message string          `json:"message"`
}

type errorWire struct {
	Type  Type   `json:"type"`
	Error string `json:"error"`
}

// MarshalJSON encodes the event in its variant's wire shape.
//
// An application-progress event is the envelope
// {"type":"application-progress","source":"application-progress"} with the
// inner message merged over it, so inner keys win on every collision,
// "type" included.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case TypeContent:
		return json.Marshal(contentWire{Type: e.Type, Content: e.Content})
	case TypePackage:
		return json.Marshal(packageWire{Type: e.Type, Name: e.Name, Message: e.Message})
	case TypeApplicationStart:
		return json.Marshal(messageWire{Type: e.Type, Message: e.Message})
	case TypeApplicationProgress:
		out := make(map[string]any, len(e.Inner)+2)
		out["type"] = TypeApplicationProgress
		out[SourceKey] = TypeApplicationProgress
		maps.Copy(out, e.Inner)
		return json.Marshal(out)
	case TypeApplicationComplete:
		return json.Marshal(completeWire{Type: e.Type, Results: e.Results, Message: e.Message})
	case TypeError:
		return json.Marshal(errorWire{Type: e.Type, Error: e.Error})
	default:
		return nil, fmt.Errorf("unknown progress event type %q", e.Type)
	}
}

// UnmarshalJSON decodes any wire variant. An object carrying the source
// marker, or whose type is not a relay event type, is an application-progress
// event and every key but the marker becomes its inner message.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var t Type
	if v, ok := raw["type"]; ok {
		if err := json.Unmarshal(v, &t); err != nil {
			return fmt.Errorf("decoding progress event type: %w", err)
		}
	}

	var source Type
	if v, ok := raw[SourceKey]; ok {
		_ = json.Unmarshal(v, &source)
	}
	marked := source == TypeApplicationProgress
	if marked || (t != "" && !t.relayed()) {
		return e.decodeProgress(raw, marked)
	}

	*e = Event{Type: t}
	switch t {
	case TypeContent:
		return decodeString(raw, "content", &e.Content)
	case TypePackage:
		if err := decodeString(raw, "name", &e.Name); err != nil {
			return err
		}
		return decodeString(raw, "message", &e.Message)
	case TypeApplicationStart:
		return decodeString(raw, "message", &e.Message)
	case TypeApplicationComplete:
		e.Results = raw["results"]
		return decodeString(raw, "message", &e.Message)
	case TypeError:
		return decodeString(raw, "error", &e.Error)
	case TypeApplicationProgress:
		return e.decodeProgress(raw, false)
	default:
		return errors.New("progress event has no type")
	}
}

// relayed reports whether t is a type the relay itself emits.
func (t Type) relayed() bool {
	switch t {
	case TypeContent, TypePackage, TypeApplicationStart,
		TypeApplicationProgress, TypeApplicationComplete, TypeError:
		return true
	}
	return false
}

func (e *Event) decodeProgress(raw map[string]json.RawMessage, marked bool) error {
	inner := make(map[string]any, len(raw))
	for k, v := range raw {
		if marked && k == SourceKey {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("decoding field %q: %w", k, err)
		}
		inner[k] = val
	}
	// The envelope type survives only when the inner message had none.
	if inner["type"] == string(TypeApplicationProgress) {
		delete(inner, "type")
	}
	*e = Event{Type: TypeApplicationProgress, Inner: inner}
	return nil
}

func decodeString(raw map[string]json.RawMessage, key string, dst *string) error {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("decoding field %q: %w", key, err)
	}
	return nil
}

// Stage returns the inner message's "type" of an application-progress event.
func (e Event) Stage() string {
	s, _ := e.Inner["type"].(string)
	return s
}
