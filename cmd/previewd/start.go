// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"previewd/internal/container"
	"previewd/internal/issue"
	"previewd/internal/preview"
	"previewd/internal/runtime"
)

// newStartCommand creates the `previewd start` command.
func newStartCommand(app *App) *cobra.Command {
	var (
		branch    string
		sessionID string
		projectID string
		detach    bool
		publish   []string
		volumes   []string
	)

	startCmd := &cobra.Command{
		Use:   "start [project-path]",
		Short: "Start a preview container for a branch",
		Long: `Start a preview container for a branch.

The project path defaults to the current directory. The dev server's
install and run commands are auto-detected from the project (package.json,
go.mod, Gemfile) and can be overridden with a preview.toml file in the
project root.

Without --detach the command stays in the foreground: it pauses idle
previews, removes long-idle ones, and stops the container on Ctrl-C. With
--detach the container is left running and must be cleaned up with
'previewd stop' or 'previewd clean'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath := "."
			if len(args) == 1 {
				projectPath = args[0]
			}
			return runStart(cmd.Context(), app, startOptions{
				projectPath: projectPath,
				branch:      branch,
				sessionID:   sessionID,
				projectID:   projectID,
				detach:      detach,
				publish:     publish,
				volumes:     volumes,
			})
		},
	}

	startCmd.Flags().StringVarP(&branch, "branch", "b", "main", "branch being previewed")
	startCmd.Flags().StringVar(&sessionID, "session", "", "session id (defaults to a random UUID)")
	startCmd.Flags().StringVar(&projectID, "project-id", "", "project id (defaults to the project directory name)")
	startCmd.Flags().BoolVarP(&detach, "detach", "d", false, "leave the container running and exit")
	startCmd.Flags().StringArrayVarP(&publish, "publish", "p", nil, "extra port mapping hostPort:containerPort[/protocol] (repeatable)")
	startCmd.Flags().StringArrayVar(&volumes, "volume", nil, "extra volume mount host:container[:options] (repeatable)")

	return startCmd
}

type startOptions struct {
	projectPath string
	branch      string
	sessionID   string
	projectID   string
	detach      bool
	publish     []string
	volumes     []string
}

func runStart(ctx context.Context, app *App, opts startOptions) error {
	projectPath, err := filepath.Abs(opts.projectPath)
	if err != nil {
		return fmt.Errorf("resolving project path: %w", err)
	}
	if info, err := os.Stat(projectPath); err != nil || !info.IsDir() {
		rendered, _ := issue.Get(issue.ProjectPathNotFoundId).Render("dark")
		fmt.Fprint(app.stderr, rendered)
		return &ExitError{Code: 1, Err: fmt.Errorf("project path %q is not a directory", projectPath)}
	}
	extraPorts := make([]container.PortMapping, 0, len(opts.publish))
	for _, raw := range opts.publish {
		pm, err := container.ParsePortMapping(raw)
		if err != nil {
			return fmt.Errorf("invalid --publish %q: %w", raw, err)
		}
		extraPorts = append(extraPorts, pm)
	}
	extraMounts := make([]container.VolumeMount, 0, len(opts.volumes))
	for _, raw := range opts.volumes {
		vm, err := container.ParseVolumeMount(raw)
		if err != nil {
			return fmt.Errorf("invalid --volume %q: %w", raw, err)
		}
		extraMounts = append(extraMounts, vm)
	}

	if opts.sessionID == "" {
		opts.sessionID = uuid.NewString()
	}
	if opts.projectID == "" {
		opts.projectID = filepath.Base(projectPath)
	}

	orch, cfg, err := app.orchestrator(ctx)
	if err != nil {
		return startFailure(app, err)
	}

	res, err := orch.StartPreview(ctx, preview.StartRequest{
		SessionID:   opts.sessionID,
		ProjectID:   opts.projectID,
		ProjectPath: projectPath,
		Branch:      opts.branch,
		ExtraPorts:  extraPorts,
		ExtraMounts: extraMounts,
	})
	if err != nil {
		return startFailure(app, err)
	}

	c := res.Container
	fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("preview:"), c.Slug)
	if c.Framework != "" {
		fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("detected:"), string(c.Framework))
	}

	c, healthy := waitHealthy(ctx, orch, c.ID, cfg.HealthTimeout)
	if !healthy {
		rendered, _ := issue.Get(issue.ContainerUnhealthyId).Render("dark")
		fmt.Fprint(app.stderr, rendered)
		if c.Error != "" {
			fmt.Fprintln(app.stderr, ErrorStyle.Render("error: ")+c.Error)
		}
		_ = orch.Shutdown(context.Background())
		return &ExitError{Code: 1, Err: fmt.Errorf("preview %s never became healthy", c.Slug)}
	}

	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("ready:"), URLStyle.Render(c.URL))

	if opts.detach {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("running detached; stop with: previewd stop "+c.Slug))
		return nil
	}

	fmt.Fprintln(app.stdout, SubtitleStyle.Render("press Ctrl-C to stop the preview"))
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.EngineTimeout)
	defer cancel()
	return orch.Shutdown(shutdownCtx)
}

// waitHealthy polls the registry until the container leaves the starting
// state or the budget (plus scheduling slack) runs out.
func waitHealthy(ctx context.Context, orch *preview.Orchestrator, id string, budget time.Duration) (preview.PreviewContainer, bool) {
	deadline := time.Now().Add(budget + 10*time.Second)
	var last preview.PreviewContainer
	for time.Now().Before(deadline) && ctx.Err() == nil {
		for _, c := range orch.ListPreviews() {
			if c.ID != id {
				continue
			}
			last = c
			switch c.Status {
			case preview.StatusRunning, preview.StatusPaused:
				return c, true
			case preview.StatusError, preview.StatusStopped:
				return c, false
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	return last, false
}

// startFailure renders the guidance matching a start error and wraps it in
// an ExitError.
func startFailure(app *App, err error) error {
	var id issue.Id
	switch {
	case errors.Is(err, runtime.ErrRuntimeUnavailable):
		id = issue.RuntimeUnavailableId
	case errors.Is(err, runtime.ErrRuntimeNotRunning):
		id = issue.RuntimeNotRunningId
	case errors.Is(err, preview.ErrContainerCreateFailed):
		id = issue.ContainerCreateFailedId
	}
	if id != 0 {
		if rendered, rerr := issue.Get(id).Render("dark"); rerr == nil {
			fmt.Fprint(app.stderr, rendered)
		}
	}
	fmt.Fprintln(app.stderr, ErrorStyle.Render("error: ")+formatErrorForDisplay(err, verbose))
	return &ExitError{Code: 1, Err: err}
}
