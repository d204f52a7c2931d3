// SPDX-License-Identifier: MPL-2.0

// Integration tests for the preview lifecycle against a real container
// engine. These tests require Docker or Podman to be available.
package preview

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"

	"previewd/internal/container"
)

// checkTestcontainersAvailable safely checks if testcontainers can be used.
// Returns true if containers are available, false otherwise.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// TestPreviewLifecycle_Integration runs a full start/pause/resume/stop
// cycle with a real engine and a busybox httpd standing in for a dev
// server.
func TestPreviewLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	engine, err := container.AutoDetectEngine()
	if err != nil {
		t.Skipf("skipping preview integration tests: no container engine available: %v", err)
	}
	if !engine.Available() {
		t.Skip("skipping preview integration tests: container engine not available")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping preview integration tests: testcontainers provider not available")
	}

	projectPath := t.TempDir()
	if err := os.WriteFile(filepath.Join(projectPath, "index.html"), []byte("<h1>preview</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.BasePort = 43180
	cfg.HealthTimeout = 90 * time.Second
	cfg.HealthInterval = time.Second
	cfg.EngineTimeout = 60 * time.Second
	cfg.NetworkName = "previewd-it"

	orch := NewOrchestrator(cfg, WithEngine(engine))
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		_ = orch.Shutdown(shutdownCtx)
	})

	ctx := context.Background()

	// busybox httpd serves the bind-mounted project directory, which is
	// enough to exercise the full health cycle without npm installs.
	blob := []byte(`{"version":1,"image":"busybox:latest","ports":{"primary":3000},"commands":{"install":"true","dev":"httpd -f -p 3000 -h /app"}}`)

	req := StartRequest{
		SessionID:   "it-session",
		ProjectID:   "it-project",
		ProjectPath: projectPath,
		Branch:      "main",
		CachedSpec:  blob,
	}

	res, err := orch.StartPreview(ctx, req)
	if err != nil {
		t.Fatalf("StartPreview() error = %v", err)
	}
	if res.Container.Status != StatusStarting {
		t.Fatalf("Status = %s, want starting", res.Container.Status)
	}

	running := waitForStatus(t, orch, res.Container.ID, StatusRunning)
	if running.URL == "" {
		t.Fatal("running preview has no URL")
	}

	// Reuse: a second start must return the same container.
	again, err := orch.StartPreview(ctx, req)
	if err != nil {
		t.Fatalf("second StartPreview() error = %v", err)
	}
	if again.Container.EngineID != res.Container.EngineID {
		t.Error("second start created a new container")
	}

	if err := orch.PausePreview(ctx, res.Container.ID); err != nil {
		t.Fatalf("PausePreview() error = %v", err)
	}
	state, err := engine.State(ctx, res.Container.EngineID)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state != container.StatePaused {
		t.Errorf("engine state = %s after pause, want paused", state)
	}

	if err := orch.UnpausePreview(ctx, res.Container.ID); err != nil {
		t.Fatalf("UnpausePreview() error = %v", err)
	}

	logs, err := orch.GetLogs(ctx, res.Container.ID, 50)
	if err != nil {
		t.Fatalf("GetLogs() error = %v", err)
	}
	_ = logs

	if err := orch.StopPreview(ctx, res.Container.ID); err != nil {
		t.Fatalf("StopPreview() error = %v", err)
	}
	if _, err := engine.State(ctx, res.Container.EngineID); err == nil {
		t.Error("container still exists at engine level after stop")
	}
}
