// Package configcmder provides the config command for managing persistent
// lovable configuration stored in the .lovable/ directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MikaNatus/open-lovable/pkg/cliui"
	"github.com/MikaNatus/open-lovable/pkg/config"
)

const configLongDesc string = `Manage persistent lovable configuration.

Configuration is stored as config.toml in the .lovable/ directory and provides
default values for command flags. CLI flags and LOVABLE_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  relay.listen, relay.applier_url, relay.default_model,
  relay.scan_window, relay.system_prompt_file,
  client.relay_target,
  eventstream.provider, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  lovable config set <key> <value>    Set a configuration value
  lovable config get <key>            Get a configuration value
  lovable config list                 List all configuration values

Examples:
  lovable config set relay.applier_url http://localhost:3000
  lovable config set relay.default_model openai/gpt-5
  lovable config get relay.default_model
  lovable config list`

const configShortDesc string = "Manage persistent lovable configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validKeysCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	fmt.Fprintf(w, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Config file:"),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)
}
