// SPDX-License-Identifier: MPL-2.0

package preview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"previewd/internal/spec"
)

// ProbeFunc reports whether the dev server answers at url. Implementations
// must respect the context deadline.
type ProbeFunc func(ctx context.Context, url string) bool

// probeClientTimeout bounds a single health probe request.
const probeClientTimeout = 2 * time.Second

// httpProbe is the default probe: any HTTP response below 500 counts as
// healthy. Dev servers routinely 404 on / before routes are compiled, so
// status codes are mostly ignored.
func httpProbe(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeClientTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// spawnHealthPollerLocked starts the bounded poller for a freshly created
// container and records its cancel func so an explicit stop can end the
// poll early. Caller holds o.mu.
func (o *Orchestrator) spawnHealthPollerLocked(record *PreviewContainer, s spec.PreviewSpec) {
	budget := o.cfg.HealthTimeout
	if s.Health.TimeoutSeconds > 0 {
		budget = time.Duration(s.Health.TimeoutSeconds) * time.Second
	}
	url := healthURL(record, s)

	ctx, cancel := context.WithCancel(context.Background())
	o.pollCancels[record.ID] = cancel

	o.loopWG.Add(1)
	go o.pollHealth(ctx, record.ID, record.EngineID, url, budget)
}

// pollHealth re-checks a starting container on a fixed interval until it
// becomes healthy, dies, exhausts its budget, or is cancelled. It mutates
// the registry entry exactly once and then terminates; a lookup miss means
// the preview was stopped and the poll result no longer matters.
func (o *Orchestrator) pollHealth(ctx context.Context, id, engineID, url string, budget time.Duration) {
	defer o.loopWG.Done()
	deadline := time.NewTimer(budget)
	defer deadline.Stop()
	ticker := time.NewTicker(o.cfg.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			tail := o.logTail(ctx, engineID)
			o.finishPoll(id, StatusError, fmt.Sprintf("health check timed out after %s%s", budget, tail))
			o.mets.HealthFailures.Inc()
			return
		case <-ticker.C:
			status, ok := o.containerStatus(ctx, engineID)
			if ok && status == StatusStopped {
				tail := o.logTail(ctx, engineID)
				o.finishPoll(id, StatusError, "container exited before becoming healthy"+tail)
				o.mets.HealthFailures.Inc()
				return
			}
			if o.probe(ctx, url) {
				o.finishPoll(id, StatusRunning, "")
				return
			}
		}
	}
}

// containerStatus is a nil-safe status lookup for the poller.
func (o *Orchestrator) containerStatus(ctx context.Context, engineID string) (Status, bool) {
	o.mu.Lock()
	manager := o.manager
	o.mu.Unlock()
	if manager == nil {
		return "", false
	}
	return manager.ContainerStatus(ctx, engineID)
}

// finishPoll applies the poll outcome to the registry entry, if it still
// exists and is still starting.
func (o *Orchestrator) finishPoll(id string, status Status, errMsg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.registry[id]
	if !ok || entry.Status != StatusStarting {
		return
	}
	entry.Status = status
	entry.Error = errMsg
	if cancel, ok := o.pollCancels[id]; ok {
		// Release the poll context; the goroutine is about to return.
		cancel()
		delete(o.pollCancels, id)
	}
	if status == StatusRunning {
		o.logger.Info("preview healthy", "slug", entry.Slug, "url", entry.URL)
	} else {
		o.logger.Warn("preview failed health check", "slug", entry.Slug, "error", errMsg)
	}
}

// logTail captures the last lines of container output for error messages.
// Failures to fetch logs are ignored; the message just loses its tail.
func (o *Orchestrator) logTail(ctx context.Context, engineID string) string {
	o.mu.Lock()
	manager := o.manager
	o.mu.Unlock()
	if manager == nil {
		return ""
	}
	logs, err := manager.Logs(ctx, engineID, 20)
	if err != nil || errors.Is(ctx.Err(), context.Canceled) {
		return ""
	}
	logs = strings.TrimSpace(logs)
	if logs == "" {
		return ""
	}
	const maxTail = 500
	if len(logs) > maxTail {
		logs = logs[len(logs)-maxTail:]
	}
	return "; last output: " + logs
}

// healthURL is where the probe knocks: the host port mapped to the health
// port name, or the primary port when the spec does not name one.
func healthURL(record *PreviewContainer, s spec.PreviewSpec) string {
	portName := s.Health.Port
	if portName == "" {
		portName = spec.PrimaryPortName
	}
	hostPort, ok := record.Ports[portName]
	if !ok {
		hostPort = record.Port
	}
	path := s.Health.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("http://localhost:%d%s", hostPort, path)
}
