package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --model on
// both "lovable serve" and "lovable generate").
type Flag struct {
	// Name is the long flag name (e.g. "applier").
	Name string

	// Shorthand is the one-letter short flag (e.g. "a"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "relay.applier_url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagListen       = "listen"
	FlagApplier      = "applier"
	FlagDefaultModel = "model"
	FlagScanWindow   = "scan-window"
	FlagSystemPrompt = "system-prompt-file"
	FlagRelayTarget  = "relay-target"
	FlagEventStream  = "eventstream"
	FlagKafkaBrokers = "kafka-brokers"
	FlagKafkaTopic   = "kafka-topic"
)

// RelayFlags are the flags shared by commands that run or talk to the relay.
var RelayFlags = FlagSet{
	FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "relay.listen",
		Description: "Address for the relay to listen on",
	},
	FlagApplier: {
		Name:        "applier",
		Shorthand:   "a",
		ViperKey:    "relay.applier_url",
		Description: "Base URL of the apply service",
	},
	FlagDefaultModel: {
		Name:        "model",
		Shorthand:   "m",
		ViperKey:    "relay.default_model",
		Description: "Model used when a request names none (e.g. anthropic/claude-sonnet-4-20250514)",
	},
	FlagScanWindow: {
		Name:        "scan-window",
		ViperKey:    "relay.scan_window",
		Description: "Bytes of trailing text kept for package tag detection",
	},
	FlagSystemPrompt: {
		Name:        "system-prompt-file",
		ViperKey:    "relay.system_prompt_file",
		Description: "File whose contents replace the built-in system prompt",
	},
	FlagRelayTarget: {
		Name:        "relay",
		Shorthand:   "r",
		ViperKey:    "client.relay_target",
		Description: "Relay URL to connect to",
	},
	FlagEventStream: {
		Name:        "eventstream",
		ViperKey:    "eventstream.provider",
		Description: "Generation telemetry publisher (nop, kafka)",
	},
	FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Comma-separated kafka broker addresses",
	},
	FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "eventstream.topic",
		Description: "Kafka topic for generation events",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
