// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newPauseCommand creates the `previewd pause` command.
func newPauseCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <container>",
		Short: "Suspend a preview container",
		Long: `Suspend all processes in a preview container.

A paused preview holds no CPU but keeps its memory and installed
dependencies, so resuming is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPause(cmd.Context(), app, args[0])
		},
	}
}

// newResumeCommand creates the `previewd resume` command.
func newResumeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "resume <container>",
		Aliases: []string{"unpause"},
		Short:   "Resume a paused preview container",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResume(cmd.Context(), app, args[0])
		},
	}
}

func runPause(ctx context.Context, app *App, containerID string) error {
	manager, _, err := app.containerManager(ctx)
	if err != nil {
		return startFailure(app, err)
	}
	if err := manager.PauseContainer(ctx, containerID); err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	fmt.Fprintf(app.stdout, "%s %s\n", WarningStyle.Render("paused:"), containerID)
	return nil
}

func runResume(ctx context.Context, app *App, containerID string) error {
	manager, _, err := app.containerManager(ctx)
	if err != nil {
		return startFailure(app, err)
	}
	if err := manager.UnpauseContainer(ctx, containerID); err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("resumed:"), containerID)
	return nil
}
