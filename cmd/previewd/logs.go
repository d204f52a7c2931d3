// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newLogsCommand creates the `previewd logs` command.
func newLogsCommand(app *App) *cobra.Command {
	var tail int

	logsCmd := &cobra.Command{
		Use:   "logs <container>",
		Short: "Show dev server output for a preview container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd.Context(), app, args[0], tail)
		},
	}

	logsCmd.Flags().IntVarP(&tail, "tail", "n", 100, "number of lines to show from the end of the logs")

	return logsCmd
}

func runLogs(ctx context.Context, app *App, containerID string, tail int) error {
	manager, _, err := app.containerManager(ctx)
	if err != nil {
		return startFailure(app, err)
	}
	logs, err := manager.Logs(ctx, containerID, tail)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	fmt.Fprint(app.stdout, logs)
	return nil
}
