package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/MikaNatus/open-lovable/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Always set targetPath when the directory exists so SaveConfig
	// can create or overwrite the file.
	cfger.targetPath = path

	return cfger, nil
}

// orderedKeys is the stable listing order, matching the TOML section layout.
var orderedKeys = []string{
	"relay.listen",
	"relay.applier_url",
	"relay.default_model",
	"relay.scan_window",
	"relay.system_prompt_file",
	"client.relay_target",
	"eventstream.provider",
	"eventstream.brokers",
	"eventstream.topic",
}

// ValidConfigKeys returns all supported configuration key names in a stable,
// logical order.
func ValidConfigKeys() []string {
	result := make([]string, 0, len(configKeys))
	for _, k := range orderedKeys {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}

	// Append any keys in the map that we missed in the ordered list.
	var rest []string
	for k := range configKeys {
		if !slices.Contains(result, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)

	return append(result, rest...)
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target .lovable/
// directory. If the file does not exist, returns NewDefaultConfig() so callers
// always receive a fully-populated Config. Fields explicitly set in the file
// override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Relay.Listen == "" {
		cfg.Relay.Listen = defaults.Relay.Listen
	}
	if cfg.Relay.ApplierURL == "" {
		cfg.Relay.ApplierURL = defaults.Relay.ApplierURL
	}
	if cfg.Relay.DefaultModel == "" {
		cfg.Relay.DefaultModel = defaults.Relay.DefaultModel
	}
	if cfg.Relay.ScanWindow == 0 {
		cfg.Relay.ScanWindow = defaults.Relay.ScanWindow
	}

	if cfg.Client.RelayTarget == "" {
		cfg.Client.RelayTarget = defaults.Client.RelayTarget
	}

	if cfg.EventStream.Provider == "" {
		cfg.EventStream.Provider = defaults.EventStream.Provider
	}
	if cfg.EventStream.Topic == "" {
		cfg.EventStream.Topic = defaults.EventStream.Topic
	}
}

// SaveConfig persists the configuration to config.toml in the target .lovable/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// presetModels maps a preset name to the default model it selects.
var presetModels = map[string]string{
	"groq":      "moonshotai/kimi-k2-instruct",
	"anthropic": "anthropic/claude-sonnet-4-20250514",
	"openai":    "openai/gpt-5",
	"google":    "google/gemini-2.5-pro",
	"lorem":     "lorem/fast",
}

// PresetConfig returns the default Config with the relay's default model set
// for the named provider preset.
func PresetConfig(name string) (*Config, error) {
	model, ok := presetModels[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}

	cfg := NewDefaultConfig()
	cfg.Relay.DefaultModel = model
	return cfg, nil
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"groq", "anthropic", "openai", "google", "lorem"}
}

// BrokerList splits the comma-separated broker list, dropping blanks.
func (e EventStreamConfig) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
