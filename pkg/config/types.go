package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent lovable configuration stored as
// config.toml in the .lovable/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Relay       RelayConfig       `toml:"relay"`
	Client      ClientConfig      `toml:"client"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// RelayConfig holds generation relay settings.
type RelayConfig struct {
	Listen           string `toml:"listen,omitempty"`
	ApplierURL       string `toml:"applier_url,omitempty"`
	DefaultModel     string `toml:"default_model,omitempty"`
	ScanWindow       uint   `toml:"scan_window,omitempty"`
	SystemPromptFile string `toml:"system_prompt_file,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// relay (e.g. lovable generate). Values are full URLs (scheme + host + port).
type ClientConfig struct {
	RelayTarget string `toml:"relay_target,omitempty"`
}

// EventStreamConfig holds generation telemetry settings.
type EventStreamConfig struct {
	// Provider is "nop" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma-separated list of kafka broker addresses.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"relay.listen": {
		get: func(c *Config) string { return c.Relay.Listen },
		set: func(c *Config, v string) error { c.Relay.Listen = v; return nil },
	},
	"relay.applier_url": {
		get: func(c *Config) string { return c.Relay.ApplierURL },
		set: func(c *Config, v string) error { c.Relay.ApplierURL = v; return nil },
	},
	"relay.default_model": {
		get: func(c *Config) string { return c.Relay.DefaultModel },
		set: func(c *Config, v string) error { c.Relay.DefaultModel = v; return nil },
	},
	"relay.scan_window": {
		get: func(c *Config) string {
			if c.Relay.ScanWindow == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Relay.ScanWindow), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid value for relay.scan_window: %w", err)
			}
			c.Relay.ScanWindow = uint(n)
			return nil
		},
	},
	"relay.system_prompt_file": {
		get: func(c *Config) string { return c.Relay.SystemPromptFile },
		set: func(c *Config, v string) error { c.Relay.SystemPromptFile = v; return nil },
	},
	"client.relay_target": {
		get: func(c *Config) string { return c.Client.RelayTarget },
		set: func(c *Config, v string) error { c.Client.RelayTarget = v; return nil },
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case EventStreamNop, EventStreamKafka:
				c.EventStream.Provider = v
				return nil
			default:
				return fmt.Errorf("invalid value for eventstream.provider: %q (expected %s or %s)", v, EventStreamNop, EventStreamKafka)
			}
		},
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return c.EventStream.Brokers },
		set: func(c *Config, v string) error { c.EventStream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}
