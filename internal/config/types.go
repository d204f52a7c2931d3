// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"
	// ContainerEngineAuto lets the orchestrator pick whichever engine is available.
	ContainerEngineAuto ContainerEngine = ""
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidNetworkPort is returned when a port number is outside the valid range.
	ErrInvalidNetworkPort = errors.New("invalid network port")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container runtime to use.
	// The zero value means "auto-detect".
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	// It wraps ErrInvalidContainerEngine for errors.Is() compatibility.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// InvalidConfigError is returned when a PreviewConfig has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// PreviewConfig holds the process-wide orchestrator tunables. It is loaded
	// once at construction and never mutated afterwards.
	PreviewConfig struct {
		// MaxContainers caps how many previews are tracked at once; the
		// least-recently-accessed preview is evicted to make room.
		MaxContainers int `json:"max_containers" mapstructure:"max_containers"`
		// IdleTimeout is how long a running preview may go unaccessed before
		// it is paused.
		IdleTimeout time.Duration `json:"idle_timeout" mapstructure:"idle_timeout"`
		// CleanupTimeout is how long a paused preview may go unaccessed before
		// it is removed entirely.
		CleanupTimeout time.Duration `json:"cleanup_timeout" mapstructure:"cleanup_timeout"`
		// HealthTimeout bounds how long a new container may stay "starting"
		// before it is marked unhealthy.
		HealthTimeout time.Duration `json:"health_timeout" mapstructure:"health_timeout"`
		// HealthInterval is the poll cadence while a container is starting.
		HealthInterval time.Duration `json:"health_interval" mapstructure:"health_interval"`
		// SweepInterval is the tick cadence of the idle and status sweepers.
		SweepInterval time.Duration `json:"sweep_interval" mapstructure:"sweep_interval"`
		// EngineTimeout bounds every individual engine CLI invocation.
		EngineTimeout time.Duration `json:"engine_timeout" mapstructure:"engine_timeout"`
		// Memory is the per-container memory cap (engine syntax, e.g. "2g").
		Memory string `json:"memory" mapstructure:"memory"`
		// CPUs is the per-container CPU cap (engine syntax, e.g. "2").
		CPUs string `json:"cpus" mapstructure:"cpus"`
		// NetworkName is the shared bridge network previews are attached to.
		NetworkName string `json:"network_name" mapstructure:"network_name"`
		// BasePort is where host port allocation starts.
		BasePort int `json:"base_port" mapstructure:"base_port"`
		// Engine is the preferred container engine; empty means auto-detect.
		Engine ContainerEngine `json:"engine" mapstructure:"engine"`
	}
)

// String returns the string representation of the ContainerEngine.
func (ce ContainerEngine) String() string { return string(ce) }

// IsValid returns whether the ContainerEngine is one of the defined engine types,
// and a list of validation errors if it is not.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEngineDocker, ContainerEnginePodman, ContainerEngineAuto:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: ce}}
	}
}

// Error implements the error interface for InvalidContainerEngineError.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman, or empty for auto-detect)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error {
	return ErrInvalidContainerEngine
}

// IsValid returns whether the PreviewConfig has valid fields.
// It checks positivity of the capacity and every timer, the host port range,
// and delegates to Engine.IsValid().
func (c PreviewConfig) IsValid() (bool, []error) {
	var errs []error

	if c.MaxContainers < 1 {
		errs = append(errs, fmt.Errorf("max_containers must be at least 1, got %d", c.MaxContainers))
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"idle_timeout", c.IdleTimeout},
		{"cleanup_timeout", c.CleanupTimeout},
		{"health_timeout", c.HealthTimeout},
		{"health_interval", c.HealthInterval},
		{"sweep_interval", c.SweepInterval},
		{"engine_timeout", c.EngineTimeout},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.value))
		}
	}
	if c.BasePort < 1 || c.BasePort > 65535 {
		errs = append(errs, fmt.Errorf("base_port %d: %w: must be in range 1-65535", c.BasePort, ErrInvalidNetworkPort))
	}
	if valid, fieldErrs := c.Engine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s): %s", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration.
func DefaultConfig() *PreviewConfig {
	return &PreviewConfig{
		MaxContainers:  10,
		IdleTimeout:    10 * time.Minute,
		CleanupTimeout: 30 * time.Minute,
		HealthTimeout:  60 * time.Second,
		HealthInterval: 2 * time.Second,
		SweepInterval:  30 * time.Second,
		EngineTimeout:  30 * time.Second,
		Memory:         "2g",
		CPUs:           "2",
		NetworkName:    "previewd",
		BasePort:       3100,
		Engine:         ContainerEngineAuto,
	}
}
