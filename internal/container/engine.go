// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
)

// Engine defines the interface for container lifecycle operations.
type Engine interface {
	// Name returns the engine name (docker or podman)
	Name() string
	// Available checks if the engine is available on the system
	Available() bool
	// Version returns the engine version
	Version(ctx context.Context) (string, error)

	// CreateDetached creates and starts a container in the background,
	// returning the engine's container id.
	CreateDetached(ctx context.Context, opts CreateOptions) (string, error)
	// Stop stops and removes a container. A missing container is not an error.
	Stop(ctx context.Context, containerID string) error
	// Pause suspends all processes in a container.
	Pause(ctx context.Context, containerID string) error
	// Unpause resumes a paused container.
	Unpause(ctx context.Context, containerID string) error
	// State returns the engine-level state of a container.
	// It returns ErrContainerNotFound when the engine has no record of it.
	State(ctx context.Context, containerID string) (State, error)
	// Logs returns up to tail lines of combined container output.
	Logs(ctx context.Context, containerID string, tail int) (string, error)
	// EnsureNetwork creates the named bridge network if it does not exist.
	EnsureNetwork(ctx context.Context, name string) error
	// EnsureVolume creates the named volume if it does not exist.
	EnsureVolume(ctx context.Context, name string) error
	// ListByLabel returns ids of all containers (running or not) carrying the label.
	ListByLabel(ctx context.Context, label string) ([]string, error)
}

// State is the engine-level container state as reported by inspect.
type State string

const (
	StateCreated    State = "created"
	StateRunning    State = "running"
	StatePaused     State = "paused"
	StateRestarting State = "restarting"
	StateExited     State = "exited"
	StateDead       State = "dead"
)

// Alive reports whether the container still has a live process.
func (s State) Alive() bool {
	return s == StateRunning || s == StatePaused || s == StateRestarting
}

// ErrContainerNotFound is returned by State/Logs when the engine has no
// record of the requested container. Stop/Pause/Unpause swallow it so
// repeated teardown is idempotent.
var ErrContainerNotFound = errors.New("container not found")

// EngineType identifies the container engine type
type EngineType string

const (
	EngineTypePodman EngineType = "podman"
	EngineTypeDocker EngineType = "docker"
)

// ErrEngineNotAvailable is returned when a container engine is not available
type ErrEngineNotAvailable struct {
	Engine string
	Reason string
}

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// NewEngine creates a new container engine based on preference
func NewEngine(preferredType EngineType) (Engine, error) {
	switch preferredType {
	case EngineTypePodman:
		engine := NewPodmanEngine()
		if engine.Available() {
			return engine, nil
		}
		// Fall back to Docker
		dockerEngine := NewDockerEngine()
		if dockerEngine.Available() {
			return dockerEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	case EngineTypeDocker:
		engine := NewDockerEngine()
		if engine.Available() {
			return engine, nil
		}
		// Fall back to Podman
		podmanEngine := NewPodmanEngine()
		if podmanEngine.Available() {
			return podmanEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

// AutoDetectEngine tries to find an available container engine.
// Docker is preferred because dev-server images are most commonly built for it.
func AutoDetectEngine() (Engine, error) {
	docker := NewDockerEngine()
	if docker.Available() {
		return docker, nil
	}

	podman := NewPodmanEngine()
	if podman.Available() {
		return podman, nil
	}

	return nil, &ErrEngineNotAvailable{
		Engine: "any",
		Reason: "no container engine (docker or podman) is available on this system",
	}
}
