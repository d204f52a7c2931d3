// SPDX-License-Identifier: MPL-2.0

package preview

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"previewd/internal/config"
	"previewd/internal/container"
	"previewd/internal/metrics"
	"previewd/internal/runtime"
	"previewd/internal/spec"
)

// StartRequest identifies the preview a caller wants running.
type StartRequest struct {
	SessionID   string
	ProjectID   string
	ProjectPath string
	Branch      string
	// CachedSpec is the blob a previous start returned, if the caller kept
	// it. Malformed blobs fall through to detection and are never fatal.
	CachedSpec []byte
	// ExtraPorts are caller-supplied host:container mappings published in
	// addition to the spec's ports. Their host ports are fixed by the
	// caller, not drawn from the allocator.
	ExtraPorts []container.PortMapping
	// ExtraMounts are caller-supplied volumes mounted after the project
	// bind and the dependency cache.
	ExtraMounts []container.VolumeMount
}

// StartResult is the outcome of a start request.
type StartResult struct {
	Container PreviewContainer
	// DetectedSpec is the freshly resolved spec blob when the cached one
	// was absent or unusable. Callers persist it for the next request.
	DetectedSpec []byte
}

// State is a read-only snapshot of the orchestrator.
type State struct {
	Ready         bool
	Engine        string
	MaxContainers int
	Containers    []PreviewContainer
}

// Orchestrator tracks one preview container per (project, branch) and
// drives the lifecycle described in the package doc. A single instance per
// process; the registry is in-memory only.
type Orchestrator struct {
	cfg      *config.PreviewConfig
	rt       *runtime.Manager
	resolver *spec.Resolver
	mets     *metrics.Collectors
	logger   *log.Logger

	// now is the sweepers' clock, injectable for tests.
	now func() time.Time
	// probe checks whether the dev server answers at a URL.
	probe ProbeFunc

	mu          sync.Mutex
	initialized bool
	engine      container.Engine
	manager     *ContainerManager
	registry    map[string]*PreviewContainer
	pollCancels map[string]context.CancelFunc

	loopCancel context.CancelFunc
	loopWG     sync.WaitGroup
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithRuntimeManager sets the runtime manager used to locate the engine.
func WithRuntimeManager(rt *runtime.Manager) OrchestratorOption {
	return func(o *Orchestrator) { o.rt = rt }
}

// WithEngine injects a ready engine directly, bypassing runtime detection.
func WithEngine(engine container.Engine) OrchestratorOption {
	return func(o *Orchestrator) { o.engine = engine }
}

// WithClock overrides the time source used for idle accounting.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// WithProbe overrides the health probe.
func WithProbe(probe ProbeFunc) OrchestratorOption {
	return func(o *Orchestrator) { o.probe = probe }
}

// WithMetrics overrides the metrics collectors.
func WithMetrics(mets *metrics.Collectors) OrchestratorOption {
	return func(o *Orchestrator) { o.mets = mets }
}

// NewOrchestrator returns an orchestrator for the given config. Call
// Initialize (or let the first StartPreview do it) before use.
func NewOrchestrator(cfg *config.PreviewConfig, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		cfg:         cfg,
		resolver:    spec.NewResolver(),
		mets:        metrics.Default(),
		logger:      log.With("component", "orchestrator"),
		now:         time.Now,
		probe:       httpProbe,
		registry:    make(map[string]*PreviewContainer),
		pollCancels: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.rt == nil && o.engine == nil {
		o.rt = runtime.NewManager(cfg.Engine)
	}
	return o
}

// Initialize makes the orchestrator ready: it locates a running engine,
// force-stops orphaned containers left over from a previous process, and
// starts the background sweepers. Idempotent; concurrent callers after the
// first return immediately.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initializeLocked(ctx)
}

func (o *Orchestrator) initializeLocked(ctx context.Context) error {
	if o.initialized {
		return nil
	}
	if o.engine == nil {
		engine, err := o.rt.Engine(ctx)
		if err != nil {
			return err
		}
		o.engine = engine
	}
	o.manager = NewContainerManager(o.engine, o.cfg)

	// Crash recovery is reclamation only. Containers from a previous
	// process lifetime are stopped, never resumed.
	if removed, err := o.manager.CleanupAll(ctx); err != nil {
		o.logger.Warn("orphan reclamation failed", "error", err)
	} else if len(removed) > 0 {
		o.logger.Info("reclaimed orphaned containers", "count", len(removed))
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	o.loopCancel = cancel
	o.loopWG.Add(2)
	go o.runIdleSweeper(loopCtx)
	go o.runStatusSweeper(loopCtx)

	o.initialized = true
	o.logger.Info("orchestrator ready", "engine", o.engine.Name(), "max_containers", o.cfg.MaxContainers)
	return nil
}

// EnsureReady lazily initializes the orchestrator. It fails with
// runtime.ErrRuntimeUnavailable when no engine is installed and with
// runtime.ErrRuntimeNotRunning when the engine refused to start.
func (o *Orchestrator) EnsureReady(ctx context.Context) error {
	return o.Initialize(ctx)
}

// StartPreview returns a ready-or-starting container for the requested
// branch, creating one only when no live container exists. At capacity the
// least recently used container is evicted synchronously before the new
// one is created.
func (o *Orchestrator) StartPreview(ctx context.Context, req StartRequest) (StartResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.initializeLocked(ctx); err != nil {
		return StartResult{}, err
	}

	id := ContainerID(req.ProjectPath, req.Branch)
	if existing, ok := o.registry[id]; ok {
		switch {
		case existing.Status == StatusPaused:
			if err := o.manager.UnpauseContainer(ctx, existing.EngineID); err != nil {
				return StartResult{}, fmt.Errorf("unpausing preview %s: %w", existing.Slug, err)
			}
			existing.Status = StatusRunning
			existing.LastAccessedAt = o.now()
			o.mets.PreviewsReused.Inc()
			return StartResult{Container: existing.clone()}, nil
		case !existing.Status.Terminal():
			existing.LastAccessedAt = o.now()
			o.mets.PreviewsReused.Inc()
			return StartResult{Container: existing.clone()}, nil
		default:
			// A stopped or errored record is replaced, not revived.
			o.removeLocked(ctx, existing)
		}
	}

	for len(o.registry) >= o.cfg.MaxContainers {
		victim := o.lruLocked()
		if victim == nil {
			break
		}
		o.logger.Info("evicting least recently used preview", "slug", victim.Slug)
		o.removeLocked(ctx, victim)
		o.mets.Evictions.Inc()
	}

	resolved := o.resolver.Resolve(req.ProjectPath, req.CachedSpec)
	var detectedBlob []byte
	if resolved.Detected {
		blob, err := resolved.Spec.MarshalBlob()
		if err != nil {
			o.logger.Warn("could not serialize detected spec", "error", err)
		} else {
			detectedBlob = blob
		}
	}

	engineID, hostPorts, err := o.manager.CreateContainer(ctx, CreateRequest{
		SessionID:   req.SessionID,
		ProjectID:   req.ProjectID,
		ProjectPath: req.ProjectPath,
		Branch:      req.Branch,
		ExtraPorts:  req.ExtraPorts,
		ExtraMounts: req.ExtraMounts,
	}, resolved.Spec)
	if err != nil {
		return StartResult{}, err
	}

	now := o.now()
	primary := hostPorts[spec.PrimaryPortName]
	record := &PreviewContainer{
		ID:             id,
		EngineID:       engineID,
		Slug:           ContainerSlug(req.ProjectPath, req.Branch),
		SessionID:      req.SessionID,
		ProjectID:      req.ProjectID,
		Branch:         req.Branch,
		ProjectPath:    req.ProjectPath,
		Status:         StatusStarting,
		URL:            fmt.Sprintf("http://localhost:%d", primary),
		Port:           primary,
		Ports:          hostPorts,
		Framework:      resolved.Framework,
		StartedAt:      now,
		LastAccessedAt: now,
	}
	o.registry[id] = record
	o.mets.PreviewsStarted.WithLabelValues(string(resolved.Framework)).Inc()
	o.mets.TrackedContainers.Set(float64(len(o.registry)))

	o.spawnHealthPollerLocked(record, resolved.Spec)

	return StartResult{Container: record.clone(), DetectedSpec: detectedBlob}, nil
}

// StopPreview stops and removes a tracked container, releases its ports,
// and deletes the registry entry. An unknown id is a no-op.
func (o *Orchestrator) StopPreview(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.registry[id]
	if !ok {
		return nil
	}
	o.removeLocked(ctx, entry)
	return nil
}

// StopPreviewBySession stops every preview the session started.
func (o *Orchestrator) StopPreviewBySession(ctx context.Context, sessionID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, entry := range o.entriesLocked() {
		if entry.SessionID == sessionID {
			o.removeLocked(ctx, entry)
		}
	}
	return nil
}

// StopPreviewByBranch stops the preview for a (project, branch) pair.
func (o *Orchestrator) StopPreviewByBranch(ctx context.Context, projectID, branch string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, entry := range o.entriesLocked() {
		if entry.ProjectID == projectID && entry.Branch == branch {
			o.removeLocked(ctx, entry)
		}
	}
	return nil
}

// PausePreview suspends a running preview. Any other state is a no-op.
func (o *Orchestrator) PausePreview(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.registry[id]
	if !ok || entry.Status != StatusRunning {
		return nil
	}
	if err := o.manager.PauseContainer(ctx, entry.EngineID); err != nil {
		return fmt.Errorf("pausing preview %s: %w", entry.Slug, err)
	}
	entry.Status = StatusPaused
	o.mets.Pauses.Inc()
	return nil
}

// UnpausePreview resumes a paused preview and resets its idle clock. Any
// other state is a no-op.
func (o *Orchestrator) UnpausePreview(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.registry[id]
	if !ok || entry.Status != StatusPaused {
		return nil
	}
	if err := o.manager.UnpauseContainer(ctx, entry.EngineID); err != nil {
		return fmt.Errorf("unpausing preview %s: %w", entry.Slug, err)
	}
	entry.Status = StatusRunning
	entry.LastAccessedAt = o.now()
	return nil
}

// MarkAccessed resets the idle clock for a preview. Unknown ids are
// ignored.
func (o *Orchestrator) MarkAccessed(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if entry, ok := o.registry[id]; ok {
		entry.LastAccessedAt = o.now()
	}
}

// GetLogs returns up to tail lines of output for a tracked preview.
func (o *Orchestrator) GetLogs(ctx context.Context, id string, tail int) (string, error) {
	o.mu.Lock()
	entry, ok := o.registry[id]
	var engineID string
	if ok {
		engineID = entry.EngineID
	}
	manager := o.manager
	o.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("no preview with id %q", id)
	}
	return manager.Logs(ctx, engineID, tail)
}

// GetState returns a snapshot of the orchestrator and every tracked
// container, sorted by start time.
func (o *Orchestrator) GetState() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := State{
		Ready:         o.initialized,
		MaxContainers: o.cfg.MaxContainers,
		Containers:    o.snapshotLocked(),
	}
	if o.engine != nil {
		st.Engine = o.engine.Name()
	}
	return st
}

// ListPreviews returns a snapshot of every tracked container, sorted by
// start time.
func (o *Orchestrator) ListPreviews() []PreviewContainer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Shutdown cancels the background loops, stops every tracked container,
// and clears the registry.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if o.loopCancel != nil {
		o.loopCancel()
		o.loopCancel = nil
	}
	entries := o.entriesLocked()
	for _, entry := range entries {
		o.removeLocked(ctx, entry)
	}
	o.initialized = false
	o.mu.Unlock()

	o.loopWG.Wait()
	o.logger.Info("orchestrator stopped", "stopped_containers", len(entries))
	return nil
}

// removeLocked is the single teardown path: cancel the health poller, stop
// the container, release its ports, drop the registry entry. Stop errors
// are logged, not returned; the entry is removed regardless so an explicit
// stop always wins over in-flight ticks.
func (o *Orchestrator) removeLocked(ctx context.Context, entry *PreviewContainer) {
	if cancel, ok := o.pollCancels[entry.ID]; ok {
		cancel()
		delete(o.pollCancels, entry.ID)
	}
	delete(o.registry, entry.ID)
	if err := o.manager.StopContainer(ctx, entry.EngineID); err != nil {
		o.logger.Warn("failed to stop container", "slug", entry.Slug, "error", err)
	}
	for _, port := range entry.Ports {
		o.manager.Ports().Release(port)
	}
	o.mets.Removals.Inc()
	o.mets.TrackedContainers.Set(float64(len(o.registry)))
}

// lruLocked returns the entry with the oldest idle reference time.
func (o *Orchestrator) lruLocked() *PreviewContainer {
	var victim *PreviewContainer
	for _, entry := range o.registry {
		if victim == nil || entry.idleSince().Before(victim.idleSince()) {
			victim = entry
		}
	}
	return victim
}

func (o *Orchestrator) entriesLocked() []*PreviewContainer {
	entries := make([]*PreviewContainer, 0, len(o.registry))
	for _, entry := range o.registry {
		entries = append(entries, entry)
	}
	return entries
}

func (o *Orchestrator) snapshotLocked() []PreviewContainer {
	out := make([]PreviewContainer, 0, len(o.registry))
	for _, entry := range o.registry {
		out = append(out, entry.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}
