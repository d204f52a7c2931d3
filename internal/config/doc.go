// SPDX-License-Identifier: MPL-2.0

// Package config handles the orchestrator tunables using Viper with TOML as the file format.
//
// Configuration is loaded from ~/.config/previewd/config.toml (or XDG equivalent on Linux,
// ~/Library/Application Support/previewd/config.toml on macOS, %APPDATA%\previewd\config.toml
// on Windows). Values resolve with defaults < config file < PREVIEWD_* environment
// variables, and the result is validated before it reaches the orchestrator, so invalid
// timers or port ranges fail at startup rather than mid-sweep.
package config
