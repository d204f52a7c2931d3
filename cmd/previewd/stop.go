// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newStopCommand creates the `previewd stop` command.
func newStopCommand(app *App) *cobra.Command {
	var all bool

	stopCmd := &cobra.Command{
		Use:   "stop [container...]",
		Short: "Stop and remove preview containers",
		Long: `Stop and remove preview containers.

Containers are addressed by engine id or name (previewd-<slug>). Stopping
a container that is already gone is not an error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return runClean(cmd.Context(), app)
			}
			if len(args) == 0 {
				return fmt.Errorf("specify at least one container, or --all")
			}
			return runStop(cmd.Context(), app, args)
		},
	}

	stopCmd.Flags().BoolVar(&all, "all", false, "stop every managed preview container")

	return stopCmd
}

// newCleanCommand creates the `previewd clean` command.
func newCleanCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove every managed preview container",
		Long: `Remove every container previewd has ever created, running or not.

Useful after a crash left orphaned containers behind, or to reclaim
resources in one sweep. Dependency-cache volumes are kept so the next
preview still starts fast.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), app)
		},
	}
}

func runStop(ctx context.Context, app *App, containers []string) error {
	manager, _, err := app.containerManager(ctx)
	if err != nil {
		return startFailure(app, err)
	}
	for _, name := range containers {
		if err := manager.StopContainer(ctx, name); err != nil {
			fmt.Fprintln(app.stderr, ErrorStyle.Render("error: ")+fmt.Sprintf("stopping %s: %v", name, err))
			return &ExitError{Code: 1, Err: err}
		}
		fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("stopped:"), name)
	}
	return nil
}

func runClean(ctx context.Context, app *App) error {
	manager, _, err := app.containerManager(ctx)
	if err != nil {
		return startFailure(app, err)
	}
	removed, err := manager.CleanupAll(ctx)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	if len(removed) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("no managed containers found"))
		return nil
	}
	fmt.Fprintf(app.stdout, "%s %d container(s)\n", SuccessStyle.Render("removed:"), len(removed))
	return nil
}
