package provider

import (
	"fmt"
	"slices"
	"strings"
)

// Registry maps model identifiers to configured providers.
//
// A model of the form "<namespace>/<id>" whose namespace is one of
// Namespaces() is served by that provider with the prefix stripped. Any
// other model, including ones that contain a slash such as
// "moonshotai/kimi-k2-instruct", goes to the fallback provider unchanged.
type Registry struct {
	streamers map[string]Streamer
	fallback  string
}

// NewRegistry creates an empty Registry whose fallback provider is named
// fallback.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		streamers: make(map[string]Streamer),
		fallback:  fallback,
	}
}

// Register adds s under s.Name(), replacing any previous entry.
func (r *Registry) Register(s Streamer) {
	r.streamers[s.Name()] = s
}

// Resolve returns the Streamer for model and the provider-native model id.
// It returns ErrProviderNotConfigured when the selected provider was never
// registered.
func (r *Registry) Resolve(model string) (Streamer, string, error) {
	name, native := r.route(model)

	s, ok := r.streamers[name]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s (model %q)", ErrProviderNotConfigured, name, model)
	}
	return s, native, nil
}

func (r *Registry) route(model string) (string, string) {
	if ns, rest, ok := strings.Cut(model, "/"); ok && slices.Contains(Namespaces(), ns) {
		return ns, rest
	}
	return r.fallback, model
}

// Fallback returns the name of the provider used for un-namespaced models.
func (r *Registry) Fallback() string {
	return r.fallback
}

// Configured returns the registered provider names, sorted.
func (r *Registry) Configured() []string {
	names := make([]string, 0, len(r.streamers))
	for name := range r.streamers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
