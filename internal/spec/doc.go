// SPDX-License-Identifier: MPL-2.0

// Package spec resolves the run recipe for a preview container.
//
// A PreviewSpec says which image to run, which named ports to expose, how to
// install dependencies and start the dev server, and what resource caps and
// health target apply. Resolution priority is: a cached spec blob (validated
// against an embedded CUE schema), then a preview.toml override in the
// project root, then filesystem heuristics (package.json, go.mod, Gemfile,
// static files). Resolve never fails; malformed input at any level falls
// through to the next, so the orchestrator always receives a usable,
// fully-defaulted spec.
package spec
