// SPDX-License-Identifier: MPL-2.0

package spec

import (
	"github.com/charmbracelet/log"
)

// Resolver produces the PreviewSpec for a project.
type Resolver struct {
	logger *log.Logger
}

// NewResolver creates a spec resolver.
func NewResolver() *Resolver {
	return &Resolver{
		logger: log.With("component", "spec"),
	}
}

// Result is the outcome of a resolution.
type Result struct {
	// Spec is the fully-defaulted run recipe.
	Spec PreviewSpec
	// Framework is the detected project kind; empty when the spec came
	// from the cache.
	Framework Framework
	// Detected reports that the spec did not come from the cached blob,
	// so the caller should persist Spec.MarshalBlob() as the new cache
	// entry.
	Detected bool
}

// Resolve returns the spec for a project. It never fails: an invalid cached
// blob or override file is logged and skipped, and detection always yields a
// usable spec.
//
// Priority: cached blob, then preview.toml override applied on top of
// detection, then detection alone.
func (r *Resolver) Resolve(projectPath string, cached []byte) Result {
	if len(cached) > 0 {
		if s, err := ParseCachedBlob(cached); err == nil {
			return Result{Spec: *s}
		} else {
			r.logger.Warn("cached spec invalid, falling through to detection",
				"project", projectPath, "err", err)
		}
	}

	s, framework := Detect(projectPath)

	override, err := loadOverride(projectPath)
	if err != nil {
		r.logger.Warn("spec override unreadable, using detection only",
			"project", projectPath, "err", err)
	}
	if override != nil {
		if ignored := override.apply(&s); len(ignored) > 0 {
			r.logger.Warn("spec override ports out of range, ignored",
				"project", projectPath, "ports", ignored)
		}
		s.Normalize()
	}

	return Result{Spec: s, Framework: framework, Detected: true}
}
