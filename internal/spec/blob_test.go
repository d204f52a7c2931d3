// SPDX-License-Identifier: MPL-2.0

package spec

import (
	"strings"
	"testing"
)

func TestParseCachedBlob_Valid(t *testing.T) {
	t.Parallel()

	blob := []byte(`{
		"version": 1,
		"image": "node:20-alpine",
		"ports": {"primary": 3000, "backend": 4000},
		"commands": {"install": "npm ci", "dev": "npm run dev", "setup": ["npm run db:migrate"]},
		"env": {"NODE_ENV": "development"},
		"workdir": "/app"
	}`)

	s, err := ParseCachedBlob(blob)
	if err != nil {
		t.Fatalf("ParseCachedBlob: %v", err)
	}
	if s.Ports["backend"] != 4000 {
		t.Errorf("backend port = %d, want 4000", s.Ports["backend"])
	}
	if len(s.Commands.Setup) != 1 {
		t.Errorf("setup steps = %v, want one", s.Commands.Setup)
	}
	// Fields the blob omits are defaulted.
	if s.Resources.Memory != DefaultMemory {
		t.Errorf("Memory = %q, want defaulted %q", s.Resources.Memory, DefaultMemory)
	}
	if s.Health.Port != PrimaryPortName {
		t.Errorf("Health.Port = %q, want defaulted primary", s.Health.Port)
	}
}

func TestParseCachedBlob_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		blob string
	}{
		{"empty", ""},
		{"not json", "nope{"},
		{"missing version", `{"ports": {"primary": 3000}, "commands": {"install": "npm ci", "dev": "npm run dev"}}`},
		{"missing primary port", `{"version": 1, "ports": {"backend": 4000}, "commands": {"install": "npm ci", "dev": "npm run dev"}}`},
		{"empty dev command", `{"version": 1, "ports": {"primary": 3000}, "commands": {"install": "npm ci", "dev": ""}}`},
		{"port out of range", `{"version": 1, "ports": {"primary": 99999}, "commands": {"install": "npm ci", "dev": "npm run dev"}}`},
		{"wrong port type", `{"version": 1, "ports": {"primary": "3000"}, "commands": {"install": "npm ci", "dev": "npm run dev"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseCachedBlob([]byte(tt.blob)); err == nil {
				t.Errorf("ParseCachedBlob(%q) succeeded, want error", tt.blob)
			}
		})
	}
}

func TestParseCachedBlob_ErrorNamesThePath(t *testing.T) {
	t.Parallel()

	_, err := ParseCachedBlob([]byte(`{"version": 1, "ports": {"primary": 3000}, "commands": {"install": "npm ci", "dev": 42}}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "dev") {
		t.Errorf("error should reference the invalid field, got: %v", err)
	}
}
