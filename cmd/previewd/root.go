// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"previewd/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug logging
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "previewd",
		Short: "Branch-scoped preview containers for dev servers",
		Long: TitleStyle.Render("previewd") + SubtitleStyle.Render(" - branch-scoped preview containers") + `

previewd runs one isolated, resource-capped dev-server container per
(project, branch) pair. Containers are reused across requests, paused
when idle, and removed after prolonged idleness. Docker and Podman are
supported.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Check your container engine with: previewd doctor
  2. Start a preview: previewd start --branch main
  3. Open the printed URL

` + SubtitleStyle.Render("Examples:") + `
  previewd start                 Preview the current directory
  previewd start -b feature/foo  Preview a branch worktree
  previewd list                  List managed preview containers
  previewd logs <container>      Show dev server output
  previewd clean                 Remove every managed container`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/previewd/config.toml)")

	app := NewApp(Dependencies{})

	rootCmd.AddCommand(newStartCommand(app))
	rootCmd.AddCommand(newStopCommand(app))
	rootCmd.AddCommand(newListCommand(app))
	rootCmd.AddCommand(newLogsCommand(app))
	rootCmd.AddCommand(newPauseCommand(app))
	rootCmd.AddCommand(newResumeCommand(app))
	rootCmd.AddCommand(newCleanCommand(app))
	rootCmd.AddCommand(newDoctorCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig applies the global flags before any command runs.
func initRootConfig() {
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render with their suggestions; in verbose mode the full chain is shown.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
