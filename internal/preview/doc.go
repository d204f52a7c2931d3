// SPDX-License-Identifier: MPL-2.0

// Package preview is the core of previewd: it tracks one dev-server
// container per (project, branch) pair and drives its lifecycle.
//
// The Orchestrator owns an in-memory registry of PreviewContainer records
// guarded by a single mutex. Containers move through a small state
// machine: starting on creation, running once a health probe succeeds,
// paused when idle, and finally removed (or error) when they outlive
// their welcome or die underneath us. Two ticker loops drive the
// time-based transitions: the idle sweeper pauses and removes idle
// containers, and the status sweeper confirms tracked containers are
// still alive at the engine level. A per-container health poller with a
// bounded wall-clock budget promotes starting containers to running.
//
// Nothing here is persisted. A process restart loses all tracking; the
// next Initialize reclaims orphaned containers by label instead of
// resuming them.
package preview
