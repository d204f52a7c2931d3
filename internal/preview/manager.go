// SPDX-License-Identifier: MPL-2.0

package preview

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"

	"previewd/internal/config"
	"previewd/internal/container"
	"previewd/internal/spec"
)

// ManagedLabel marks every container previewd creates. Orphan reclamation
// and cleanup discover containers through it rather than by name.
const ManagedLabel = "previewd.managed"

// ManagedLabelSelector is the label filter matching all managed containers.
const ManagedLabelSelector = ManagedLabel + "=true"

const (
	labelSession = "previewd.session"
	labelProject = "previewd.project"
	labelBranch  = "previewd.branch"
)

// ErrContainerCreateFailed is returned when the engine could not create or
// start a preview container. There is no automatic retry; the caller issues
// a fresh start request if it wants another attempt.
var ErrContainerCreateFailed = errors.New("container create failed")

// CreateFailedError carries the failing slug and the engine error.
type CreateFailedError struct {
	Slug string
	Err  error
}

// Error implements the error interface.
func (e *CreateFailedError) Error() string {
	return fmt.Sprintf("creating preview container %q: %v", e.Slug, e.Err)
}

// Unwrap makes the error match both ErrContainerCreateFailed and the
// underlying engine error.
func (e *CreateFailedError) Unwrap() []error {
	return []error{ErrContainerCreateFailed, e.Err}
}

// CreateRequest identifies the branch a container is created for.
type CreateRequest struct {
	SessionID   string
	ProjectID   string
	ProjectPath string
	Branch      string
	// ExtraPorts are caller-fixed mappings published alongside the
	// allocator-assigned spec ports.
	ExtraPorts []container.PortMapping
	// ExtraMounts are caller-supplied volumes added after the project bind
	// and the dependency cache.
	ExtraMounts []container.VolumeMount
}

// ContainerManager translates preview operations into engine calls. Every
// engine invocation is bounded by the configured engine timeout so a stuck
// daemon fails one operation instead of wedging a sweeper.
type ContainerManager struct {
	engine container.Engine
	cfg    *config.PreviewConfig
	ports  *PortAllocator
	logger *log.Logger
}

// NewContainerManager returns a manager driving the given engine.
func NewContainerManager(engine container.Engine, cfg *config.PreviewConfig) *ContainerManager {
	return &ContainerManager{
		engine: engine,
		cfg:    cfg,
		ports:  NewPortAllocator(cfg.BasePort),
		logger: log.With("component", "manager", "engine", engine.Name()),
	}
}

// Ports exposes the allocator, mainly for tests.
func (m *ContainerManager) Ports() *PortAllocator { return m.ports }

func (m *ContainerManager) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.cfg.EngineTimeout)
}

// EnsureNetwork creates the shared isolation network if it does not exist.
func (m *ContainerManager) EnsureNetwork(ctx context.Context) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	return m.engine.EnsureNetwork(ctx, m.cfg.NetworkName)
}

// EnsureVolume creates the named volume if it does not exist.
func (m *ContainerManager) EnsureVolume(ctx context.Context, name string) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	return m.engine.EnsureVolume(ctx, name)
}

// CreateContainer provisions network and dependency volume, allocates one
// host port per named spec port, and launches the container detached. It
// returns the engine id and the chosen host ports. On failure the allocated
// ports are released before returning.
func (m *ContainerManager) CreateContainer(ctx context.Context, req CreateRequest, s spec.PreviewSpec) (string, map[string]int, error) {
	slug := ContainerSlug(req.ProjectPath, req.Branch)

	command, err := startupCommand(s.Commands)
	if err != nil {
		return "", nil, &CreateFailedError{Slug: slug, Err: err}
	}

	if err := m.EnsureNetwork(ctx); err != nil {
		return "", nil, &CreateFailedError{Slug: slug, Err: err}
	}
	depVolume := DepVolumeName(req.ProjectPath)
	if err := m.EnsureVolume(ctx, depVolume); err != nil {
		return "", nil, &CreateFailedError{Slug: slug, Err: err}
	}

	hostPorts := make(map[string]int, len(s.Ports))
	mappings := make([]container.PortMapping, 0, len(s.Ports)+len(req.ExtraPorts))
	for _, name := range sortedPortNames(s.Ports) {
		host := m.ports.Allocate()
		hostPorts[name] = host
		mappings = append(mappings, container.PortMapping{
			HostPort:      container.NetworkPort(host),
			ContainerPort: container.NetworkPort(s.Ports[name]),
		})
	}
	mappings = append(mappings, req.ExtraPorts...)

	env := make(map[string]string, len(s.Env)+1)
	for k, v := range s.Env {
		env[k] = v
	}
	if _, ok := env["PORT"]; !ok {
		env["PORT"] = fmt.Sprintf("%d", s.PrimaryPort())
	}

	opts := container.CreateOptions{
		Image:   s.Image,
		Name:    "previewd-" + slug,
		Command: command,
		Workdir: s.Workdir,
		Env:     env,
		Volumes: append([]container.VolumeMount{
			{HostPath: req.ProjectPath, ContainerPath: s.Workdir},
			{HostPath: depVolume, ContainerPath: depMountPath(s)},
		}, req.ExtraMounts...),
		Ports:   mappings,
		Network: m.cfg.NetworkName,
		Labels: map[string]string{
			ManagedLabel: "true",
			labelSession: req.SessionID,
			labelProject: req.ProjectID,
			labelBranch:  req.Branch,
		},
		Memory: resourceOrDefault(s.Resources.Memory, m.cfg.Memory),
		CPUs:   resourceOrDefault(s.Resources.CPUs, m.cfg.CPUs),
	}

	opCtx, cancel := m.opCtx(ctx)
	defer cancel()
	engineID, err := m.engine.CreateDetached(opCtx, opts)
	if err != nil {
		for _, port := range hostPorts {
			m.ports.Release(port)
		}
		return "", nil, &CreateFailedError{Slug: slug, Err: err}
	}
	m.logger.Debug("created container", "slug", slug, "id", engineID, "ports", hostPorts)
	return engineID, hostPorts, nil
}

// StopContainer stops and removes a container. A container the engine no
// longer knows about is treated as already stopped.
func (m *ContainerManager) StopContainer(ctx context.Context, engineID string) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	if err := m.engine.Stop(ctx, engineID); err != nil && !errors.Is(err, container.ErrContainerNotFound) {
		return err
	}
	return nil
}

// PauseContainer suspends a container. A missing container is not an error.
func (m *ContainerManager) PauseContainer(ctx context.Context, engineID string) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	if err := m.engine.Pause(ctx, engineID); err != nil && !errors.Is(err, container.ErrContainerNotFound) {
		return err
	}
	return nil
}

// UnpauseContainer resumes a paused container. A missing container is not
// an error.
func (m *ContainerManager) UnpauseContainer(ctx context.Context, engineID string) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	if err := m.engine.Unpause(ctx, engineID); err != nil && !errors.Is(err, container.ErrContainerNotFound) {
		return err
	}
	return nil
}

// ContainerStatus returns the tracked-state equivalent of the engine's view
// of a container. The second return is false when the engine has no record
// of it, which is how loss of tracked state is detected.
func (m *ContainerManager) ContainerStatus(ctx context.Context, engineID string) (Status, bool) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	st, err := m.engine.State(ctx, engineID)
	if err != nil {
		return "", false
	}
	return statusFromEngineState(st), true
}

// Logs returns up to tail lines of container output.
func (m *ContainerManager) Logs(ctx context.Context, engineID string, tail int) (string, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	return m.engine.Logs(ctx, engineID, tail)
}

// ListManaged returns the engine ids of every container previewd created,
// running or not.
func (m *ContainerManager) ListManaged(ctx context.Context) ([]string, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	return m.engine.ListByLabel(ctx, ManagedLabelSelector)
}

// CleanupAll force-stops every managed container. It keeps going on
// individual failures and returns the ids it removed.
func (m *ContainerManager) CleanupAll(ctx context.Context) ([]string, error) {
	ids, err := m.ListManaged(ctx)
	if err != nil {
		return nil, err
	}
	removed := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := m.StopContainer(ctx, id); err != nil {
			m.logger.Warn("failed to stop managed container", "id", id, "error", err)
			continue
		}
		removed = append(removed, id)
	}
	return removed, nil
}

// statusFromEngineState maps the engine's inspect state onto the tracked
// status vocabulary.
func statusFromEngineState(st container.State) Status {
	switch st {
	case container.StateRunning:
		return StatusRunning
	case container.StatePaused:
		return StatusPaused
	case container.StateCreated, container.StateRestarting:
		return StatusStarting
	default:
		return StatusStopped
	}
}

// startupCommand chains the install, setup, and dev stages with && so a
// failure in any stage fails the whole startup. Each stage must parse as
// shell; a spec carrying a malformed command is rejected before the engine
// is ever invoked.
func startupCommand(c spec.Commands) (string, error) {
	stages := make([]string, 0, 2+len(c.Setup))
	stages = append(stages, c.Install)
	stages = append(stages, c.Setup...)
	stages = append(stages, c.Dev)

	parser := syntax.NewParser()
	for _, stage := range stages {
		if strings.TrimSpace(stage) == "" {
			return "", fmt.Errorf("empty command stage")
		}
		if _, err := parser.Parse(strings.NewReader(stage), "startup"); err != nil {
			quoted, qerr := syntax.Quote(stage, syntax.LangBash)
			if qerr != nil {
				quoted = stage
			}
			return "", fmt.Errorf("invalid command stage %s: %w", quoted, err)
		}
	}
	return strings.Join(stages, " && "), nil
}

// depMountPath is where the dependency-cache volume is mounted. Node
// installs land in node_modules under the workdir; other stacks get the
// same mount, which is harmless when unused.
func depMountPath(s spec.PreviewSpec) string {
	return path.Join(s.Workdir, "node_modules")
}

func sortedPortNames(ports map[string]int) []string {
	names := make([]string, 0, len(ports))
	for name := range ports {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func resourceOrDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
