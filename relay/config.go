// Package relay provides the website-generation relay: an HTTP server that
// streams a model generation to the client as SSE, detects package tags on
// the fly, and then relays the apply service's progress stream.
package relay

// Config is the relay server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// ApplierURL is the base URL of the apply service (e.g., "http://localhost:3000").
	ApplierURL string

	// DefaultModel is used when a request does not name a model.
	DefaultModel string

	// SystemPrompt is sent with every generation. Defaults to llm.SystemPrompt.
	SystemPrompt string

	// ScanWindow is the package tag scanner's retained window in characters.
	// Zero uses tagscan.DefaultWindow.
	ScanWindow int
}
