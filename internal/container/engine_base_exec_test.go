// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"testing"
)

func TestCreateDetached_ReturnsID(t *testing.T) {
	engine, recorder := newMockEngine(t)
	recorder.Stdout = "f2a9c1e7b3d44e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9\n"

	id, err := engine.CreateDetached(context.Background(), CreateOptions{
		Image:   "node:20-alpine",
		Name:    "previewd-acme-shop-main",
		Command: "npm ci && npm run dev",
	})
	if err != nil {
		t.Fatalf("CreateDetached: %v", err)
	}
	if id != "f2a9c1e7b3d44e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9" {
		t.Errorf("unexpected container id %q", id)
	}

	recorder.AssertInvocationCount(t, 1)
	recorder.AssertCommandName(t, "docker")
	recorder.AssertFirstArg(t, "run")
	recorder.AssertArgsContainAll(t, []string{"-d", "--name previewd-acme-shop-main", "sh -lc"})
}

func TestCreateDetached_SkipsPullProgress(t *testing.T) {
	engine, recorder := newMockEngine(t)
	// Image pulls write progress lines before the id on combined output.
	recorder.Stdout = "Unable to find image 'node:20-alpine' locally\nlatest: Pulling from library/node\nabc123def456\n"

	id, err := engine.CreateDetached(context.Background(), CreateOptions{
		Image:   "node:20-alpine",
		Command: "npm run dev",
	})
	if err != nil {
		t.Fatalf("CreateDetached: %v", err)
	}
	if id != "abc123def456" {
		t.Errorf("expected last output token as id, got %q", id)
	}
}

func TestCreateDetached_InvalidOptions(t *testing.T) {
	engine, recorder := newMockEngine(t)

	_, err := engine.CreateDetached(context.Background(), CreateOptions{Image: "node:20-alpine"})
	if !errors.Is(err, ErrInvalidCreateOptions) {
		t.Fatalf("expected ErrInvalidCreateOptions, got %v", err)
	}

	// Validation failures must never reach the engine binary.
	recorder.AssertInvocationCount(t, 0)
}

func TestStop_StopsAndRemoves(t *testing.T) {
	engine, recorder := newMockEngine(t)

	if err := engine.Stop(context.Background(), "abc123"); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	recorder.AssertInvocationCount(t, 2)
	first := recorder.Invocations[0]
	if first.Args[0] != "stop" || !recorder.HasArgPair("-f", "abc123") {
		t.Errorf("expected stop then rm -f, got %v", recorder.Invocations)
	}
	recorder.AssertFirstArg(t, "rm")
}

func TestStop_GoneContainerIsIdempotent(t *testing.T) {
	engine, recorder := newMockEngine(t)
	recorder.ExitCode = 1
	recorder.Stderr = "Error response from daemon: No such container: abc123"

	if err := engine.Stop(context.Background(), "abc123"); err != nil {
		t.Fatalf("Stop on missing container should succeed, got %v", err)
	}
	recorder.AssertInvocationCount(t, 2)
}

func TestStop_RealFailurePropagates(t *testing.T) {
	engine, recorder := newMockEngine(t)
	recorder.ExitCode = 1
	recorder.Stderr = "Error response from daemon: cannot connect to the Docker daemon"

	if err := engine.Stop(context.Background(), "abc123"); err == nil {
		t.Fatal("expected error when the daemon is unreachable")
	}
}

func TestPause_NotFound(t *testing.T) {
	engine, recorder := newMockEngine(t)
	recorder.ExitCode = 1
	recorder.Stderr = "Error: no container with name or ID \"abc123\" found"

	if err := engine.Pause(context.Background(), "abc123"); !errors.Is(err, ErrContainerNotFound) {
		t.Errorf("expected ErrContainerNotFound, got %v", err)
	}
	if err := engine.Unpause(context.Background(), "abc123"); !errors.Is(err, ErrContainerNotFound) {
		t.Errorf("expected ErrContainerNotFound, got %v", err)
	}
}

func TestState_ParsesInspectOutput(t *testing.T) {
	engine, recorder := newMockEngine(t)
	recorder.Stdout = "running\n"

	state, err := engine.State(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != StateRunning {
		t.Errorf("State = %q, want %q", state, StateRunning)
	}
	recorder.AssertFirstArg(t, "inspect")
	recorder.AssertArgsContain(t, "{{.State.Status}}")
}

func TestState_NotFound(t *testing.T) {
	engine, recorder := newMockEngine(t)
	recorder.ExitCode = 1
	recorder.Stderr = "Error: No such object: abc123"

	if _, err := engine.State(context.Background(), "abc123"); !errors.Is(err, ErrContainerNotFound) {
		t.Errorf("expected ErrContainerNotFound, got %v", err)
	}
}

func TestLogs_PassesTail(t *testing.T) {
	engine, recorder := newMockEngine(t)
	recorder.Stdout = "ready - started server on 0.0.0.0:3000\n"

	out, err := engine.Logs(context.Background(), "abc123", 100)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if out == "" {
		t.Error("expected log output")
	}
	recorder.AssertFirstArg(t, "logs")
	recorder.AssertArgsContain(t, "--tail 100")
}

func TestListByLabel_ParsesIDs(t *testing.T) {
	engine, recorder := newMockEngine(t)
	recorder.Stdout = "abc123\n\ndef456\n"

	ids, err := engine.ListByLabel(context.Background(), "previewd.managed=true")
	if err != nil {
		t.Fatalf("ListByLabel: %v", err)
	}
	if len(ids) != 2 || ids[0] != "abc123" || ids[1] != "def456" {
		t.Errorf("ListByLabel = %v, want [abc123 def456]", ids)
	}
	recorder.AssertArgsContain(t, "label=previewd.managed=true")
}

func TestEnsureNetwork_ExistingShortCircuits(t *testing.T) {
	engine, recorder := newMockEngine(t)

	if err := engine.EnsureNetwork(context.Background(), "previewd"); err != nil {
		t.Fatalf("EnsureNetwork: %v", err)
	}
	// Inspect succeeded, so no create call follows.
	recorder.AssertInvocationCount(t, 1)
	recorder.AssertFirstArg(t, "network")
}

func TestEnsureNetwork_CreatesWhenMissing(t *testing.T) {
	engine, recorder := newMockEngine(t)
	recorder.Script = map[string]MockResult{
		"network inspect": {Stderr: "Error: No such network: previewd", ExitCode: 1},
		"network create":  {Stdout: "previewd"},
	}

	if err := engine.EnsureNetwork(context.Background(), "previewd"); err != nil {
		t.Fatalf("EnsureNetwork: %v", err)
	}
	recorder.AssertInvocationCount(t, 2)
	recorder.AssertArgsContain(t, "network create previewd")
}

func TestEnsureNetwork_ToleratesCreateRace(t *testing.T) {
	engine, recorder := newMockEngine(t)
	recorder.Script = map[string]MockResult{
		"network inspect": {Stderr: "Error: No such network: previewd", ExitCode: 1},
		"network create":  {Stderr: "Error: network with name previewd already exists", ExitCode: 1},
	}

	// Another process created the network between inspect and create.
	if err := engine.EnsureNetwork(context.Background(), "previewd"); err != nil {
		t.Fatalf("EnsureNetwork should tolerate a concurrent create, got %v", err)
	}
}

func TestEnsureVolume_Idempotent(t *testing.T) {
	engine, recorder := newMockEngine(t)
	recorder.Stdout = "previewd-deps-ab12cd34ef56\n"

	if err := engine.EnsureVolume(context.Background(), "previewd-deps-ab12cd34ef56"); err != nil {
		t.Fatalf("EnsureVolume: %v", err)
	}
	recorder.AssertFirstArg(t, "volume")
	recorder.AssertArgsContain(t, "create previewd-deps-ab12cd34ef56")
}
