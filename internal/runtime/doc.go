// SPDX-License-Identifier: MPL-2.0

// Package runtime detects the host's container engine and gets it into a
// usable state before any preview is started.
//
// Detect reports which engine is installed, whether its daemon is answering,
// and its version. EnsureRunning makes at most one auto-start attempt
// (launching Docker Desktop on macOS, starting the podman machine where one
// is configured) and otherwise fails with actionable install or start
// guidance. The orchestrator treats these as the only two fatal runtime
// conditions: no engine installed, or an engine installed but not running.
package runtime
