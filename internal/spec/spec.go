// SPDX-License-Identifier: MPL-2.0

package spec

import (
	"encoding/json"
	"fmt"
)

const (
	// CurrentVersion is the schema version written to cached blobs.
	CurrentVersion = 1

	// PrimaryPortName is the port entry backing the preview's public URL.
	PrimaryPortName = "primary"

	// DefaultImage runs JavaScript dev servers, the dominant preview workload.
	DefaultImage = "node:20-alpine"
	// DefaultPrimaryPort is the container port assumed when a spec declares none.
	DefaultPrimaryPort = 3000
	// DefaultWorkdir is where the project is mounted inside the container.
	DefaultWorkdir = "/app"
	// DefaultMemory caps container memory when the spec does not.
	DefaultMemory = "2g"
	// DefaultCPUs caps container CPU when the spec does not.
	DefaultCPUs = "2"
	// DefaultHealthTimeoutSeconds bounds the startup health check.
	DefaultHealthTimeoutSeconds = 60
)

type (
	// PreviewSpec is the declarative run recipe for one preview container.
	// It is immutable once resolved for a container's lifetime.
	PreviewSpec struct {
		// Version is the spec schema version.
		Version int `json:"version"`
		// Image is the container image to run.
		Image string `json:"image,omitempty"`
		// Ports maps port names to container ports. "primary" backs the
		// public URL; additional named ports (e.g. "backend") are optional.
		Ports map[string]int `json:"ports"`
		// Commands are the startup stages.
		Commands Commands `json:"commands"`
		// Env is injected into the container environment.
		Env map[string]string `json:"env,omitempty"`
		// Workdir is the working directory inside the container.
		Workdir string `json:"workdir,omitempty"`
		// Health is the startup health-check target.
		Health Health `json:"health,omitempty"`
		// Resources are the container resource caps.
		Resources Resources `json:"resources,omitempty"`
	}

	// Commands are the startup stages, composed as install && setup... && dev.
	Commands struct {
		// Install fetches dependencies (e.g. "npm ci").
		Install string `json:"install"`
		// Setup holds optional one-time steps run between install and dev.
		Setup []string `json:"setup,omitempty"`
		// Dev starts the development server in the foreground.
		Dev string `json:"dev"`
	}

	// Health is the startup health-check target.
	Health struct {
		// Port names an entry of Ports; defaults to "primary".
		Port string `json:"port,omitempty"`
		// Path is the HTTP path probed; defaults to "/".
		Path string `json:"path,omitempty"`
		// TimeoutSeconds bounds how long startup may take.
		TimeoutSeconds int `json:"timeout_seconds,omitempty"`
	}

	// Resources are per-container caps in engine syntax.
	Resources struct {
		Memory string `json:"memory,omitempty"`
		CPUs   string `json:"cpus,omitempty"`
	}
)

// Normalize fills every unset field with its default so downstream code can
// rely on a primary port, install and dev commands, resource caps, and a
// health target being present.
func (s *PreviewSpec) Normalize() {
	if s.Version == 0 {
		s.Version = CurrentVersion
	}
	if s.Image == "" {
		s.Image = DefaultImage
	}
	if s.Ports == nil {
		s.Ports = map[string]int{}
	}
	if _, ok := s.Ports[PrimaryPortName]; !ok {
		s.Ports[PrimaryPortName] = DefaultPrimaryPort
	}
	if s.Commands.Install == "" {
		s.Commands.Install = "npm install"
	}
	if s.Commands.Dev == "" {
		s.Commands.Dev = "npm run dev"
	}
	if s.Workdir == "" {
		s.Workdir = DefaultWorkdir
	}
	if s.Health.Port == "" {
		s.Health.Port = PrimaryPortName
	}
	if _, ok := s.Ports[s.Health.Port]; !ok {
		// A health target naming an undeclared port would never pass.
		s.Health.Port = PrimaryPortName
	}
	if s.Health.Path == "" {
		s.Health.Path = "/"
	}
	if s.Health.TimeoutSeconds <= 0 {
		s.Health.TimeoutSeconds = DefaultHealthTimeoutSeconds
	}
	if s.Resources.Memory == "" {
		s.Resources.Memory = DefaultMemory
	}
	if s.Resources.CPUs == "" {
		s.Resources.CPUs = DefaultCPUs
	}
}

// PrimaryPort returns the container port backing the public URL.
func (s PreviewSpec) PrimaryPort() int {
	return s.Ports[PrimaryPortName]
}

// MarshalBlob encodes the spec as the JSON cache blob handed back to callers
// for persistence.
func (s PreviewSpec) MarshalBlob() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal preview spec: %w", err)
	}
	return data, nil
}
