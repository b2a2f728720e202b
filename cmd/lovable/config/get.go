package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikaNatus/open-lovable/pkg/cliui"
	"github.com/MikaNatus/open-lovable/pkg/config"
)

const getLongDesc string = `Get a configuration value.

Reads the value for the given key from the config.toml file
stored in the .lovable/ directory, falling back to the default.

Examples:
  lovable config get relay.applier_url
  lovable config get eventstream.provider`

const getShortDesc string = "Get a configuration value"

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runGet(cmd, args[0], configDir)
		},
		ValidArgsFunction: validKeysCompletion,
	}
}

func runGet(cmd *cobra.Command, key, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	value, err := cfger.GetConfigValue(key)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printTarget(w, cfger)
	if value == "" {
		fmt.Fprintf(w, "  %s  %s\n\n", cliui.KeyStyle.Render(key), cliui.DimStyle.Render("<not set>"))
	} else {
		fmt.Fprintf(w, "  %s  %s\n\n", cliui.KeyStyle.Render(key), cliui.ValueStyle.Render(value))
	}

	return nil
}
