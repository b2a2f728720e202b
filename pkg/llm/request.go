// Package llm holds the provider-neutral request type and the website
// generation prompt shared by every model provider.
package llm

const (
	// DefaultModel is used when a generation request names no model. It has
	// no namespace prefix, so it is served by the default provider.
	DefaultModel = "moonshotai/kimi-k2-instruct"

	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4000
)

// Request is one system+user generation call. Model is the provider-native
// identifier with any namespace prefix already removed.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}
