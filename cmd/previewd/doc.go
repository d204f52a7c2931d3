// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for previewd.
//
// This package implements the Cobra command hierarchy for the previewd
// CLI: starting and stopping branch previews, listing managed containers,
// inspecting logs, and diagnosing the container runtime.
package cmd
