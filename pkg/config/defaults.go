package config

import (
	"github.com/MikaNatus/open-lovable/pkg/llm"
	"github.com/MikaNatus/open-lovable/pkg/tagscan"
)

// Event stream providers.
const (
	EventStreamNop   = "nop"
	EventStreamKafka = "kafka"
)

const (
	defaultRelayListen = ":8080"
	defaultApplierURL  = "http://localhost:3000"

	defaultClientRelayTarget = "http://localhost:8080"

	defaultEventStreamTopic = "lovable.generations"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Relay: RelayConfig{
			Listen:       defaultRelayListen,
			ApplierURL:   defaultApplierURL,
			DefaultModel: llm.DefaultModel,
			ScanWindow:   tagscan.DefaultWindow,
		},
		Client: ClientConfig{
			RelayTarget: defaultClientRelayTarget,
		},
		EventStream: EventStreamConfig{
			Provider: EventStreamNop,
			Topic:    defaultEventStreamTopic,
		},
	}
}
