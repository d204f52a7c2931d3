// SPDX-License-Identifier: MPL-2.0

package preview

import (
	"context"
	"time"
)

// runIdleSweeper pauses idle previews and removes long-idle paused ones on
// a fixed interval until the context is cancelled.
func (o *Orchestrator) runIdleSweeper(ctx context.Context) {
	defer o.loopWG.Done()
	ticker := time.NewTicker(o.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.sweepIdle(ctx)
		}
	}
}

// sweepIdle applies the two idle deadlines to every tracked container:
// running past IdleTimeout is paused, paused past CleanupTimeout is
// removed. A failed pause leaves the container running for the next tick.
func (o *Orchestrator) sweepIdle(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, entry := range o.entriesLocked() {
		idle := now.Sub(entry.idleSince())
		switch entry.Status {
		case StatusRunning:
			if idle < o.cfg.IdleTimeout {
				continue
			}
			if err := o.manager.PauseContainer(ctx, entry.EngineID); err != nil {
				o.logger.Warn("idle pause failed", "slug", entry.Slug, "error", err)
				continue
			}
			o.logger.Info("paused idle preview", "slug", entry.Slug, "idle", idle.Round(time.Second))
			entry.Status = StatusPaused
			o.mets.Pauses.Inc()
		case StatusPaused:
			if idle < o.cfg.CleanupTimeout {
				continue
			}
			o.logger.Info("removing long-idle preview", "slug", entry.Slug, "idle", idle.Round(time.Second))
			o.removeLocked(ctx, entry)
		}
	}
}

// runStatusSweeper confirms tracked running containers are still alive at
// the engine level on a fixed interval until the context is cancelled.
func (o *Orchestrator) runStatusSweeper(ctx context.Context) {
	defer o.loopWG.Done()
	ticker := time.NewTicker(o.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.sweepStatus(ctx)
		}
	}
}

// sweepStatus marks running or paused previews whose container the engine
// no longer reports alive as crashed. The record stays in the registry in
// StatusError so callers observe the failure by polling; the next start
// request for the branch replaces it.
func (o *Orchestrator) sweepStatus(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, entry := range o.entriesLocked() {
		if entry.Status != StatusRunning && entry.Status != StatusPaused {
			continue
		}
		status, ok := o.manager.ContainerStatus(ctx, entry.EngineID)
		if ok && (status == StatusRunning || status == StatusPaused || status == StatusStarting) {
			continue
		}
		o.logger.Warn("preview container died", "slug", entry.Slug, "engine_status", string(status))
		if cancel, exists := o.pollCancels[entry.ID]; exists {
			cancel()
			delete(o.pollCancels, entry.ID)
		}
		entry.Status = StatusError
		entry.Error = "container exited unexpectedly"
		o.mets.Crashes.Inc()
	}
}
