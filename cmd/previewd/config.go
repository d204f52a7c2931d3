// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"previewd/internal/config"
)

// newConfigCommand creates the `previewd config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage previewd configuration",
		Long: `Manage previewd configuration.

Configuration is stored in:
  - Linux: ~/.config/previewd/config.toml
  - macOS: ~/Library/Application Support/previewd/config.toml
  - Windows: %APPDATA%\previewd\config.toml

Every value can also be set with a PREVIEWD_* environment variable, which
takes precedence over the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}
	fmt.Fprint(app.stdout, config.GenerateTOML(cfg))
	return nil
}

func initConfigFile(app *App) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.Save(config.DefaultConfig()); err != nil {
		return err
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)
	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("created:"), path)
	return nil
}

func showConfigPath(app *App) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
	return nil
}
