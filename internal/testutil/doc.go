// SPDX-License-Identifier: MPL-2.0

// Package testutil provides shared test helpers. The main one is FakeClock,
// a manually driven time source for code that takes an injectable clock,
// such as the idle sweeper's timeout accounting.
package testutil
