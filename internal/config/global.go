// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride redirects config directory lookup, set by tests that
// must not touch the real user config. os.UserHomeDir() does not reliably
// follow the HOME environment variable on every platform.
var configDirOverride string

// SetConfigDirOverride points config loading at dir instead of the user's
// config directory.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// Reset clears the directory override. Call from test cleanup.
func Reset() {
	configDirOverride = ""
}
