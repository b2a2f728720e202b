// Package lovablecmder provides the root lovable command.
package lovablecmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/MikaNatus/open-lovable/cmd/lovable/auth"
	configcmder "github.com/MikaNatus/open-lovable/cmd/lovable/config"
	generatecmder "github.com/MikaNatus/open-lovable/cmd/lovable/generate"
	initcmder "github.com/MikaNatus/open-lovable/cmd/lovable/init"
	servecmder "github.com/MikaNatus/open-lovable/cmd/lovable/serve"
	versioncmder "github.com/MikaNatus/open-lovable/cmd/version"
)

const lovableLongDesc string = `Lovable turns a prompt into a running website.

The relay streams a model's generated code to the client, reports the
packages it needs as they appear, then hands the code to an apply service
and relays its progress.

Run services using:
  lovable serve                  Run the generation relay
  lovable generate "a blog"      Generate a website through the relay

Manage local state using:
  lovable init                   Create a local .lovable/ directory
  lovable auth <provider>        Store a provider API key
  lovable config                 Get and set configuration`

const lovableShortDesc string = "Lovable - streaming website generation"

func NewLovableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lovable",
		Short:         lovableShortDesc,
		Long:          lovableLongDesc,
		SilenceUsage:  true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .lovable/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(generatecmder.NewGenerateCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
