// SPDX-License-Identifier: MPL-2.0

package preview

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"previewd/internal/container"
	"previewd/internal/spec"
	"previewd/internal/testutil"
)

func TestHealthPoller_PromotesToRunning(t *testing.T) {
	t.Parallel()
	o, _, _ := newTestOrchestrator(t, testConfig(), true)
	path := t.TempDir()

	res, err := o.StartPreview(context.Background(), startRequest(path, "main"))
	if err != nil {
		t.Fatalf("StartPreview() error = %v", err)
	}
	got := waitForStatus(t, o, res.Container.ID, StatusRunning)
	if got.Error != "" {
		t.Errorf("Error = %q, want empty after successful health check", got.Error)
	}
}

func TestHealthPoller_TimesOut(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.HealthTimeout = 30 * time.Millisecond
	o, _, _ := newTestOrchestrator(t, cfg, false)
	path := t.TempDir()

	res, err := o.StartPreview(context.Background(), startRequest(path, "main"))
	if err != nil {
		t.Fatalf("StartPreview() error = %v", err)
	}
	got := waitForStatus(t, o, res.Container.ID, StatusError)
	if !strings.Contains(got.Error, "timed out") {
		t.Errorf("Error = %q, want timeout description", got.Error)
	}
}

func TestHealthPoller_TimeoutCapturesLogs(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.HealthTimeout = 30 * time.Millisecond
	o, fe, _ := newTestOrchestrator(t, cfg, false)
	path := t.TempDir()

	res, err := o.StartPreview(context.Background(), startRequest(path, "main"))
	if err != nil {
		t.Fatalf("StartPreview() error = %v", err)
	}
	fe.logs[res.Container.EngineID] = "Error: Cannot find module 'left-pad'"

	got := waitForStatus(t, o, res.Container.ID, StatusError)
	if !strings.Contains(got.Error, "left-pad") {
		t.Errorf("Error = %q, want last container output included", got.Error)
	}
}

func TestHealthPoller_ContainerExitedEarly(t *testing.T) {
	t.Parallel()
	o, fe, _ := newTestOrchestrator(t, testConfig(), false)
	path := t.TempDir()

	res, err := o.StartPreview(context.Background(), startRequest(path, "main"))
	if err != nil {
		t.Fatalf("StartPreview() error = %v", err)
	}
	fe.setState(res.Container.EngineID, container.StateExited)

	got := waitForStatus(t, o, res.Container.ID, StatusError)
	if !strings.Contains(got.Error, "exited before becoming healthy") {
		t.Errorf("Error = %q, want early-exit description", got.Error)
	}
}

func TestHealthPoller_PromotionReleasesPollContext(t *testing.T) {
	t.Parallel()
	fe := newFakeEngine()
	clock := testutil.NewFakeClock(time.Time{})
	var (
		mu      sync.Mutex
		pollCtx context.Context
	)
	o := NewOrchestrator(testConfig(),
		WithEngine(fe),
		WithClock(clock.Now),
		WithProbe(func(ctx context.Context, url string) bool {
			mu.Lock()
			pollCtx = ctx
			mu.Unlock()
			return true
		}),
	)
	t.Cleanup(func() {
		if err := o.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})

	res, err := o.StartPreview(context.Background(), startRequest(t.TempDir(), "main"))
	if err != nil {
		t.Fatalf("StartPreview() error = %v", err)
	}
	waitForStatus(t, o, res.Container.ID, StatusRunning)

	// The per-container poll context must be released once the poller is done,
	// not left live for the rest of the process.
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		done := pollCtx != nil && pollCtx.Err() != nil
		mu.Unlock()
		if done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("poll context still live after the container became running")
		}
		time.Sleep(time.Millisecond)
	}

	o.mu.Lock()
	n := len(o.pollCancels)
	o.mu.Unlock()
	if n != 0 {
		t.Errorf("pollCancels size = %d after promotion, want 0", n)
	}
}

func TestHealthPoller_StopCancelsPoll(t *testing.T) {
	t.Parallel()
	o, _, _ := newTestOrchestrator(t, testConfig(), false)
	path := t.TempDir()

	res, err := o.StartPreview(context.Background(), startRequest(path, "main"))
	if err != nil {
		t.Fatalf("StartPreview() error = %v", err)
	}
	if err := o.StopPreview(context.Background(), res.Container.ID); err != nil {
		t.Fatalf("StopPreview() error = %v", err)
	}
	if n := len(o.ListPreviews()); n != 0 {
		t.Errorf("registry size = %d after stop, want 0", n)
	}
}

func TestHealthURL(t *testing.T) {
	t.Parallel()
	record := &PreviewContainer{
		Port:  42000,
		Ports: map[string]int{"primary": 42000, "admin": 42001},
	}
	tests := []struct {
		name   string
		health spec.PreviewSpec
		want   string
	}{
		{
			name: "defaults to primary root",
			want: "http://localhost:42000/",
		},
		{
			name: "named health port",
			health: spec.PreviewSpec{
				Health: spec.Health{Port: "admin", Path: "/healthz"},
			},
			want: "http://localhost:42001/healthz",
		},
		{
			name: "path without leading slash",
			health: spec.PreviewSpec{
				Health: spec.Health{Path: "status"},
			},
			want: "http://localhost:42000/status",
		},
		{
			name: "unknown port name falls back to primary",
			health: spec.PreviewSpec{
				Health: spec.Health{Port: "metrics"},
			},
			want: "http://localhost:42000/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := healthURL(record, tt.health); got != tt.want {
				t.Errorf("healthURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
