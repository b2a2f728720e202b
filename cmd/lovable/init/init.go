// Package initcmder provides the init command for initializing a local
// .lovable directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikaNatus/open-lovable/pkg/cliui"
	"github.com/MikaNatus/open-lovable/pkg/config"
	"github.com/MikaNatus/open-lovable/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .lovable/ directory in the current working directory.

Creates a local .lovable/ directory with a config.toml. The local directory
takes precedence over ~/.lovable/ for configuration and credentials, which
keeps per-project relay settings separate.

Use --preset to pick the default model for a provider:
  groq, anthropic, openai, google, lorem

Examples:
  lovable init
  lovable init --preset anthropic`

const initShortDesc string = "Initialize a local .lovable/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout(), preset)
		},
		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.Flags().StringVar(&preset, "preset", "",
		"Provider preset for the default model ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func runInit(w io.Writer, preset string) error {
	cfg := config.NewDefaultConfig()
	if preset != "" {
		var err error
		cfg, err = config.PresetConfig(preset)
		if err != nil {
			return err
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	dir := filepath.Join(cwd, dotdir.DirName)

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("creating .lovable directory: %w", err)
	}

	if _, err := os.Stat(cfger.GetTarget()); err == nil {
		if preset == "" {
			fmt.Fprintf(w, "Already initialized: %s\n", dir)
			return nil
		}
		// A preset on an existing directory only updates the model.
		existing, err := cfger.LoadConfig()
		if err != nil {
			return err
		}
		existing.Relay.DefaultModel = cfg.Relay.DefaultModel
		cfg = existing
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Initialized %s\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))
	fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("relay.default_model:"), cliui.ValueStyle.Render(cfg.Relay.DefaultModel))
	return nil
}
