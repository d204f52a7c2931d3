// SPDX-License-Identifier: MPL-2.0

package preview

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"previewd/internal/container"
)

// fakeEngine is an in-memory container.Engine for orchestrator tests. It
// records lifecycle calls and lets tests flip container states underneath
// the orchestrator.
type fakeEngine struct {
	mu         sync.Mutex
	nextID     int
	containers map[string]*fakeContainer
	networks   map[string]bool
	volumes    map[string]bool
	logs       map[string]string

	createErr   error
	stopErr     error
	stopCalls   []string
	pauseCalls  []string
	resumeCalls []string
}

type fakeContainer struct {
	opts  container.CreateOptions
	state container.State
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		containers: make(map[string]*fakeContainer),
		networks:   make(map[string]bool),
		volumes:    make(map[string]bool),
		logs:       make(map[string]string),
	}
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Available() bool { return true }

func (f *fakeEngine) Version(ctx context.Context) (string, error) { return "0.0-test", nil }

func (f *fakeEngine) CreateDetached(ctx context.Context, opts container.CreateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("eng-%d", f.nextID)
	f.containers[id] = &fakeContainer{opts: opts, state: container.StateRunning}
	return id, nil
}

func (f *fakeEngine) Stop(ctx context.Context, containerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls = append(f.stopCalls, containerID)
	if f.stopErr != nil {
		return f.stopErr
	}
	delete(f.containers, containerID)
	return nil
}

func (f *fakeEngine) Pause(ctx context.Context, containerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauseCalls = append(f.pauseCalls, containerID)
	c, ok := f.containers[containerID]
	if !ok {
		return container.ErrContainerNotFound
	}
	c.state = container.StatePaused
	return nil
}

func (f *fakeEngine) Unpause(ctx context.Context, containerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumeCalls = append(f.resumeCalls, containerID)
	c, ok := f.containers[containerID]
	if !ok {
		return container.ErrContainerNotFound
	}
	c.state = container.StateRunning
	return nil
}

func (f *fakeEngine) State(ctx context.Context, containerID string) (container.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[containerID]
	if !ok {
		return "", container.ErrContainerNotFound
	}
	return c.state, nil
}

func (f *fakeEngine) Logs(ctx context.Context, containerID string, tail int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.containers[containerID]; !ok {
		return "", container.ErrContainerNotFound
	}
	return f.logs[containerID], nil
}

func (f *fakeEngine) EnsureNetwork(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.networks[name] = true
	return nil
}

func (f *fakeEngine) EnsureVolume(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes[name] = true
	return nil
}

func (f *fakeEngine) ListByLabel(ctx context.Context, label string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, value, _ := strings.Cut(label, "=")
	var ids []string
	for id, c := range f.containers {
		if c.opts.Labels[key] == value {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// setState flips a container's engine-level state, simulating a crash or
// external restart.
func (f *fakeEngine) setState(containerID string, state container.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.containers[containerID]; ok {
		c.state = state
	}
}

// kill removes a container from the engine entirely.
func (f *fakeEngine) kill(containerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.containers, containerID)
}

// seed installs a container record directly, for orphan reclamation tests.
func (f *fakeEngine) seed(id string, labels map[string]string, state container.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers[id] = &fakeContainer{
		opts:  container.CreateOptions{Labels: labels},
		state: state,
	}
}

func (f *fakeEngine) get(containerID string) (container.CreateOptions, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[containerID]
	if !ok {
		return container.CreateOptions{}, false
	}
	return c.opts, true
}

func (f *fakeEngine) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.containers)
}
