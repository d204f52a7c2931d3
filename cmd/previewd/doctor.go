// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"previewd/internal/issue"
)

// newDoctorCommand creates the `previewd doctor` command.
func newDoctorCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the container runtime",
		Long: `Check whether a compatible container engine (Docker or Podman) is
installed and running, and print install or start guidance when it is not.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), app)
		},
	}
}

func runDoctor(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		fmt.Fprintln(app.stderr, WarningStyle.Render("warning: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	info := app.runtimeManager(cfg).Detect(ctx)

	fmt.Fprintln(app.stdout, TitleStyle.Render("previewd doctor"))
	switch {
	case info.Engine == "":
		fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("engine:"), ErrorStyle.Render("none found"))
		rendered, rerr := issue.Get(issue.RuntimeUnavailableId).Render("dark")
		if rerr == nil {
			fmt.Fprint(app.stdout, rendered)
		}
		return &ExitError{Code: 1, Err: fmt.Errorf("no container engine installed")}
	case !info.Running:
		fmt.Fprintf(app.stdout, "%s %s (%s)\n", SubtitleStyle.Render("engine:"), string(info.Engine), WarningStyle.Render("installed, not running"))
		rendered, rerr := issue.Get(issue.RuntimeNotRunningId).Render("dark")
		if rerr == nil {
			fmt.Fprint(app.stdout, rendered)
		}
		return &ExitError{Code: 1, Err: fmt.Errorf("container engine %s is not running", info.Engine)}
	default:
		fmt.Fprintf(app.stdout, "%s %s (%s)\n", SubtitleStyle.Render("engine:"), string(info.Engine), SuccessStyle.Render("running"))
		if info.Version != "" {
			fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("version:"), info.Version)
		}
		fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("network:"), cfg.NetworkName)
		fmt.Fprintf(app.stdout, "%s %d\n", SubtitleStyle.Render("max previews:"), cfg.MaxContainers)
		fmt.Fprintln(app.stdout, SuccessStyle.Render("ready to start previews"))
		return nil
	}
}
