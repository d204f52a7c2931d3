// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// PodmanEngine implements the Engine interface using the Podman CLI.
// It embeds BaseCLIEngine for common CLI operations.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a new Podman engine.
// On Linux with SELinux enabled, volume mounts are automatically labeled with :z.
func NewPodmanEngine(opts ...BaseCLIEngineOption) *PodmanEngine {
	path, _ := exec.LookPath("podman")

	// Podman needs SELinux volume labels on Linux (prepend to user options)
	allOpts := []BaseCLIEngineOption{
		WithName(string(EngineTypePodman)),
		WithVolumeFormatter(formatVolumeWithSELinux),
	}
	if os.Geteuid() != 0 {
		// Rootless podman remaps UIDs; keep-id keeps bind-mounted project
		// files owned by the invoking user inside the container.
		allOpts = append(allOpts, WithCreateArgsTransformer(addUsernsKeepID))
	}
	allOpts = append(allOpts, opts...)

	return &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine(path, allOpts...),
	}
}

// Name returns the engine name.
func (e *PodmanEngine) Name() string {
	return string(EngineTypePodman)
}

// Installed reports whether the podman binary exists on PATH.
func (e *PodmanEngine) Installed() bool {
	return e.BinaryPath() != ""
}

// Available checks if Podman is available.
func (e *PodmanEngine) Available() bool {
	if e.BinaryPath() == "" {
		return false
	}
	cmd := e.CreateCommand(context.Background(), "version", "--format", "{{.Version}}")
	return cmd.Run() == nil
}

// Version returns the Podman version.
func (e *PodmanEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", "{{.Version}}")
	if err != nil {
		return "", fmt.Errorf("failed to get podman version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// addUsernsKeepID inserts --userns=keep-id right after the run subcommand.
// Non-run commands pass through unchanged.
func addUsernsKeepID(args []string) []string {
	if len(args) == 0 || args[0] != "run" {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0], "--userns=keep-id")
	return append(out, args[1:]...)
}

// isSELinuxEnabled checks if SELinux is enabled on the system
func isSELinuxEnabled() bool {
	// Check /sys/fs/selinux/enforce for SELinux status
	data, err := os.ReadFile("/sys/fs/selinux/enforce")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}

// formatVolumeWithSELinux renders a volume mount, adding the :z label when
// SELinux is enforcing and the mount doesn't carry one already. Without the
// label, container processes cannot access bind-mounted host paths on
// SELinux-enforcing systems.
func formatVolumeWithSELinux(mount VolumeMount) string {
	if isSELinuxEnabled() && mount.SELinux == SELinuxLabelNone {
		mount.SELinux = SELinuxLabelShared
	}
	return FormatVolumeMount(mount)
}
