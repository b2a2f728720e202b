package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikaNatus/open-lovable/pkg/cliui"
	"github.com/MikaNatus/open-lovable/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .lovable/ directory. Keys use dotted notation matching
the TOML section structure.

Examples:
  lovable config set relay.listen :9090
  lovable config set relay.scan_window 1024
  lovable config set eventstream.provider kafka`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd, args[0], args[1], configDir)
		},
		ValidArgsFunction: validKeysCompletion,
	}
}

func runSet(cmd *cobra.Command, key, value, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printTarget(w, cfger)
	fmt.Fprintf(w, "  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(value),
	)
	return nil
}
