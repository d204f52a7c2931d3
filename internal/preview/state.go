// SPDX-License-Identifier: MPL-2.0

package preview

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"

	"previewd/internal/spec"
)

// Status is the tracked lifecycle state of a preview container. It is the
// orchestrator's view, not the engine's: a container the engine reports as
// "running" is still Status "starting" until its health probe passes.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusStopped  Status = "stopped"
	StatusError    Status = "error"
)

// Terminal reports whether the status is an end state. A terminal container
// is replaced, never revived, by the next start request for its branch.
func (s Status) Terminal() bool {
	return s == StatusStopped || s == StatusError
}

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusStarting, StatusRunning, StatusPaused, StatusStopped, StatusError:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s Status) String() string { return string(s) }

// PreviewContainer is the registry record for one branch preview.
type PreviewContainer struct {
	// ID is the deterministic short hash of (project path, branch). It is
	// stable across repeated start requests for the same pair and
	// independent of the engine's own container identifier.
	ID string
	// EngineID is the id the container engine assigned.
	EngineID string
	// Slug is the human-readable container name suffix.
	Slug string
	// SessionID is the caller session that started the preview.
	SessionID string
	// ProjectID identifies the project the branch belongs to.
	ProjectID string
	// Branch is the branch being previewed.
	Branch string
	// ProjectPath is the host checkout bind-mounted into the container.
	ProjectPath string
	// Status is the tracked lifecycle state.
	Status Status
	// URL is where the primary port is reachable on the host.
	URL string
	// Port is the host port mapped to the spec's primary port.
	Port int
	// Ports maps every named spec port to its allocated host port.
	Ports map[string]int
	// Framework is the detected project kind, empty when the spec came
	// from the cache.
	Framework spec.Framework
	// StartedAt is when the container was created.
	StartedAt time.Time
	// LastAccessedAt is the idle clock; reset on every access.
	LastAccessedAt time.Time
	// Error holds the failure description for StatusError containers.
	Error string
}

// idleSince returns the reference time for idle calculations, falling back
// to StartedAt for containers that were never accessed.
func (c *PreviewContainer) idleSince() time.Time {
	if c.LastAccessedAt.IsZero() {
		return c.StartedAt
	}
	return c.LastAccessedAt
}

// clone returns a copy safe to hand to callers outside the registry lock.
func (c *PreviewContainer) clone() PreviewContainer {
	out := *c
	if c.Ports != nil {
		out.Ports = make(map[string]int, len(c.Ports))
		for name, port := range c.Ports {
			out.Ports[name] = port
		}
	}
	return out
}

// shortHashLen is the hex length of derived ids and volume-name hashes.
const shortHashLen = 12

// maxSlugLen bounds slugs so container names stay URL and DNS friendly.
const maxSlugLen = 48

// ContainerID derives the stable tracked id for a (project path, branch)
// pair. The NUL separator keeps ("a", "b/c") and ("a/b", "c") distinct.
func ContainerID(projectPath, branch string) string {
	sum := sha256.Sum256([]byte(projectPath + "\x00" + branch))
	return hex.EncodeToString(sum[:])[:shortHashLen]
}

// ContainerSlug derives the human-readable name for a preview container
// from the project directory name and the branch.
func ContainerSlug(projectPath, branch string) string {
	slug := sanitizeSlugPart(filepath.Base(projectPath)) + "-" + sanitizeSlugPart(branch)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "preview"
	}
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// sanitizeSlugPart lowercases the input and collapses every run of
// non-alphanumeric characters into a single dash.
func sanitizeSlugPart(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// DepVolumeName derives the dependency-cache volume name for a project.
// The name is keyed by the project path so a recreated container for the
// same project reuses previously fetched dependencies.
func DepVolumeName(projectPath string) string {
	sum := sha256.Sum256([]byte(projectPath))
	return "previewd-deps-" + hex.EncodeToString(sum[:])[:shortHashLen]
}
