// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"previewd/internal/config"
	"previewd/internal/container"
	"previewd/internal/issue"

	"github.com/charmbracelet/log"
)

var (
	// ErrRuntimeUnavailable is returned when no container engine is installed.
	ErrRuntimeUnavailable = errors.New("no container engine installed")
	// ErrRuntimeNotRunning is returned when an engine is installed but its
	// daemon is not answering, and the auto-start attempt did not help.
	ErrRuntimeNotRunning = errors.New("container engine not running")
)

type (
	// Info describes the detected container runtime.
	Info struct {
		// Engine is the detected engine type; empty when none is installed.
		Engine container.EngineType
		// Running reports whether the engine daemon is answering.
		Running bool
		// Version is the engine version, when the daemon answered.
		Version string
	}

	// ProbedEngine is the slice of container.Engine the manager needs,
	// plus installation probing. DockerEngine and PodmanEngine satisfy it.
	ProbedEngine interface {
		container.Engine
		Installed() bool
	}

	// Manager detects the container runtime and gets it running.
	Manager struct {
		preferred     config.ContainerEngine
		candidates    []ProbedEngine
		execCommand   container.ExecCommandFunc
		goos          string
		probeAttempts int
		probeBackoff  time.Duration
		logger        *log.Logger
	}

	// ManagerOption configures a Manager.
	ManagerOption func(*Manager)
)

// WithEngines replaces the engine candidates, primarily for tests.
func WithEngines(engines ...ProbedEngine) ManagerOption {
	return func(m *Manager) {
		m.candidates = engines
	}
}

// WithExecCommand sets a custom exec function for the auto-start commands.
func WithExecCommand(fn container.ExecCommandFunc) ManagerOption {
	return func(m *Manager) {
		m.execCommand = fn
	}
}

// WithGOOS overrides the detected operating system, primarily for tests.
func WithGOOS(goos string) ManagerOption {
	return func(m *Manager) {
		m.goos = goos
	}
}

// WithStartProbe tunes how often and how patiently the manager re-probes
// the engine after an auto-start attempt.
func WithStartProbe(attempts int, backoff time.Duration) ManagerOption {
	return func(m *Manager) {
		m.probeAttempts = attempts
		m.probeBackoff = backoff
	}
}

// NewManager creates a runtime manager honoring the configured engine
// preference. With ContainerEngineAuto, Docker is probed before Podman.
func NewManager(preferred config.ContainerEngine, opts ...ManagerOption) *Manager {
	m := &Manager{
		preferred:     preferred,
		execCommand:   exec.CommandContext,
		goos:          runtime.GOOS,
		probeAttempts: 5,
		probeBackoff:  2 * time.Second,
		logger:        log.With("component", "runtime"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.candidates == nil {
		m.candidates = defaultCandidates(preferred)
	}
	return m
}

// defaultCandidates orders the real engines by preference.
func defaultCandidates(preferred config.ContainerEngine) []ProbedEngine {
	docker := container.NewDockerEngine()
	podman := container.NewPodmanEngine()
	if preferred == config.ContainerEnginePodman {
		return []ProbedEngine{podman, docker}
	}
	return []ProbedEngine{docker, podman}
}

// Detect reports the best engine on this host. A running engine wins over a
// merely installed one regardless of preference order.
func (m *Manager) Detect(ctx context.Context) Info {
	for _, e := range m.candidates {
		if !e.Installed() || !e.Available() {
			continue
		}
		version, err := e.Version(ctx)
		if err != nil {
			m.logger.Debug("engine answered but version probe failed", "engine", e.Name(), "err", err)
		}
		return Info{Engine: container.EngineType(e.Name()), Running: true, Version: version}
	}

	for _, e := range m.candidates {
		if e.Installed() {
			return Info{Engine: container.EngineType(e.Name())}
		}
	}

	return Info{}
}

// EnsureRunning returns the Info unchanged when the engine already answers.
// Otherwise it makes exactly one auto-start attempt and re-probes with
// backoff; a daemon that still does not answer is reported with start
// guidance, and a host with no engine at all with install guidance.
func (m *Manager) EnsureRunning(ctx context.Context, info Info) (Info, error) {
	if info.Running {
		return info, nil
	}

	if info.Engine == "" {
		return info, issue.NewErrorContext().
			WithOperation("detect container engine").
			WithSuggestion("Install Docker Desktop from https://docs.docker.com/get-docker/").
			WithSuggestion("Or install Podman from https://podman.io/getting-started/installation").
			WithSuggestion("Run 'previewd doctor' for platform-specific instructions").
			Wrap(ErrRuntimeUnavailable).
			BuildError()
	}

	m.logger.Info("engine installed but not running, attempting start", "engine", info.Engine)
	if err := m.startEngine(ctx, info.Engine); err != nil {
		m.logger.Debug("auto-start command failed", "engine", info.Engine, "err", err)
	}

	// Docker Desktop and podman machine both take a few seconds to come up.
	err := container.RetryWithBackoff(ctx, m.probeAttempts, m.probeBackoff, func(int) (bool, error) {
		if e := m.engineByType(info.Engine); e != nil && e.Available() {
			return false, nil
		}
		return true, fmt.Errorf("engine %s not answering yet", info.Engine)
	})
	if err != nil {
		return info, issue.NewErrorContext().
			WithOperation("start container engine").
			WithResource(string(info.Engine)).
			WithSuggestion(m.startSuggestion(info.Engine)).
			WithSuggestion("Verify the engine works with '" + string(info.Engine) + " info'").
			WithSuggestion("Run 'previewd doctor' for platform-specific instructions").
			Wrap(ErrRuntimeNotRunning).
			BuildError()
	}

	return m.Detect(ctx), nil
}

// Engine returns a ready-to-use engine, driving Detect and EnsureRunning.
func (m *Manager) Engine(ctx context.Context) (container.Engine, error) {
	info, err := m.EnsureRunning(ctx, m.Detect(ctx))
	if err != nil {
		return nil, err
	}
	if e := m.engineByType(info.Engine); e != nil {
		return e, nil
	}
	return nil, fmt.Errorf("engine %s disappeared after detection: %w", info.Engine, ErrRuntimeNotRunning)
}

// engineByType finds the candidate for an engine type.
func (m *Manager) engineByType(t container.EngineType) ProbedEngine {
	for _, e := range m.candidates {
		if e.Name() == string(t) {
			return e
		}
	}
	return nil
}

// startEngine issues the platform's engine start command. The attempt is
// best-effort: failures surface through the availability re-probe.
func (m *Manager) startEngine(ctx context.Context, t container.EngineType) error {
	var cmd *exec.Cmd

	switch t {
	case container.EngineTypeDocker:
		switch m.goos {
		case "darwin":
			cmd = m.execCommand(ctx, "open", "-a", "Docker")
		case "linux":
			cmd = m.execCommand(ctx, "systemctl", "start", "docker")
		default:
			return fmt.Errorf("no auto-start for docker on %s", m.goos)
		}
	case container.EngineTypePodman:
		// Rootful linux podman has no machine; the command fails fast there
		// and the re-probe reports the real condition.
		cmd = m.execCommand(ctx, "podman", "machine", "start")
	default:
		return fmt.Errorf("unknown engine type %q", t)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("start %s: %w: %s", t, err, string(out))
	}
	return nil
}

// startSuggestion returns the platform-appropriate manual start instruction.
func (m *Manager) startSuggestion(t container.EngineType) string {
	if t == container.EngineTypePodman {
		return "Start the podman machine with 'podman machine start'"
	}
	switch m.goos {
	case "darwin":
		return "Start Docker Desktop with 'open -a Docker'"
	case "linux":
		return "Start the Docker daemon with 'sudo systemctl start docker'"
	default:
		return "Start Docker Desktop from the start menu"
	}
}
