// SPDX-License-Identifier: MPL-2.0

// Package issue maps known orchestrator failures to actionable guidance.
//
// Every failure a user can fix themselves (engine not installed, daemon not
// running, preview never became healthy) has a registered issue id whose
// Markdown body is rendered in the terminal with concrete remediation steps.
// ActionableError carries the operation, the affected resource, and
// suggestions alongside the underlying error.
package issue
