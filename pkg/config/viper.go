package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/MikaNatus/open-lovable/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable read by InitViper.
const EnvPrefix = "LOVABLE"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the LOVABLE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (LOVABLE_RELAY_LISTEN, LOVABLE_RELAY_APPLIER_URL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Relay
	v.SetDefault("relay.listen", d.Relay.Listen)
	v.SetDefault("relay.applier_url", d.Relay.ApplierURL)
	v.SetDefault("relay.default_model", d.Relay.DefaultModel)
	v.SetDefault("relay.scan_window", d.Relay.ScanWindow)
	v.SetDefault("relay.system_prompt_file", d.Relay.SystemPromptFile)

	// Client
	v.SetDefault("client.relay_target", d.Client.RelayTarget)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}
