package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikaNatus/open-lovable/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays all configuration keys and their current values from the
config.toml file stored in the .lovable/ directory.

Examples:
  lovable config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd, configDir)
		},
	}
}

func runList(cmd *cobra.Command, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Using config file: %s\n\n", cfger.GetTarget())

	keys := config.ValidConfigKeys()

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range keys {
		maxLen = max(maxLen, len(k))
	}

	for _, key := range keys {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}

		if value == "" {
			fmt.Fprintf(w, "%-*s = <not set>\n", maxLen, key)
		} else {
			fmt.Fprintf(w, "%-*s = %q\n", maxLen, key, value)
		}
	}

	return nil
}
