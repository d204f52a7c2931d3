// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"previewd/internal/preview"
)

// newListCommand creates the `previewd list` command.
func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List managed preview containers",
		Long: `List every container previewd created, with its engine-level state.

Branch and URL details live in the orchestrating process and are not
recoverable from the engine alone; a foreground 'previewd start' prints
them when the preview comes up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), app)
		},
	}
}

func runList(ctx context.Context, app *App) error {
	manager, _, err := app.containerManager(ctx)
	if err != nil {
		return startFailure(app, err)
	}
	ids, err := manager.ListManaged(ctx)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	if len(ids) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("no managed containers found"))
		return nil
	}

	rows := make([]listRow, 0, len(ids))
	for _, id := range ids {
		status, ok := manager.ContainerStatus(ctx, id)
		if !ok {
			status = preview.StatusStopped
		}
		rows = append(rows, listRow{EngineID: shortID(id), Status: string(status)})
	}
	renderList(app.stdout, rows)
	return nil
}

type listRow struct {
	EngineID string
	Status   string
}

// renderList writes the container table.
func renderList(w io.Writer, rows []listRow) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", headerStyle.Render("CONTAINER"), headerStyle.Render("STATUS"))
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row.EngineID, statusStyle(row.Status).Render(row.Status))
	}
	_ = tw.Flush()
}

// shortID truncates an engine container id for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
