// SPDX-License-Identifier: MPL-2.0

// Package container provides a unified abstraction layer for container engines (Docker/Podman).
//
// The Engine interface defines the lifecycle operations preview containers need:
// CreateDetached, Stop, Pause, Unpause, State, Logs, EnsureNetwork, EnsureVolume,
// and ListByLabel. Two implementations are provided: DockerEngine and PodmanEngine,
// both embedding BaseCLIEngine for shared CLI argument construction and command
// execution.
//
// Engine selection uses NewEngine(EngineType) with automatic fallback if the
// preferred engine is unavailable, or AutoDetectEngine() for preference-less
// detection (Docker is tried first since dev-server images are most commonly
// built and tested against it).
//
// Container commands are run through "sh -lc", so a dev-server command composed
// of &&-chained install and setup stages behaves the same on both engines.
package container
