package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cutline/internal/config"
	"cutline/internal/history"
	"cutline/internal/logging"
	"cutline/internal/planner"
	"cutline/internal/render"
	"cutline/internal/services"
	"cutline/internal/timeline"
	"cutline/internal/transcode"
	"cutline/internal/validation"
)

// DefaultRetainedHandles is how many finished exports keep their Handle in
// memory. Older finished exports are still available from history.
const DefaultRetainedHandles = 64

// Exporter runs timeline exports. Each export gets its own Handle; exports
// to different output paths may run concurrently.
type Exporter struct {
	cfg       *config.Config
	runner    transcode.Runner
	validator *validation.Validator
	planner   *planner.Planner
	store     *history.Store
	logger    *slog.Logger

	skipPreflight bool

	mu       sync.RWMutex
	handles  map[string]*Handle
	latest   *Handle
	finished []string
	retain   int
}

// Option configures optional Exporter behavior.
type Option func(*Exporter)

// WithHistory records exports in store.
func WithHistory(store *history.Store) Option {
	return func(e *Exporter) { e.store = store }
}

// WithRetainedHandles caps how many finished exports stay addressable by
// Handle, Progress and Cancel. A non-positive n keeps DefaultRetainedHandles.
func WithRetainedHandles(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.retain = n
		}
	}
}

// WithoutPreflight skips filesystem preflight checks.
func WithoutPreflight() Option {
	return func(e *Exporter) { e.skipPreflight = true }
}

// New constructs an Exporter.
func New(cfg *config.Config, runner transcode.Runner, prober validation.Prober, logger *slog.Logger, opts ...Option) *Exporter {
	logger = logging.NewComponentLogger(logger, "export")
	e := &Exporter{
		cfg:       cfg,
		runner:    runner,
		validator: validation.New(cfg, prober, logger),
		planner:   planner.New(planner.OptionsFromConfig(cfg)),
		logger:    logger,
		handles:   make(map[string]*Handle),
		retain:    DefaultRetainedHandles,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export runs an export to completion. Cancelling ctx cancels the export.
func (e *Exporter) Export(ctx context.Context, clips []timeline.Clip, cfg timeline.ExportConfig, mode render.Mode) (Result, error) {
	h, err := e.start(ctx, clips, cfg, mode)
	if err != nil {
		return Result{}, err
	}
	<-h.done
	return h.result, h.err
}

// Start launches an export in the background and returns its handle. The
// export outlives ctx; use Cancel or Handle.Cancel to stop it.
func (e *Exporter) Start(ctx context.Context, clips []timeline.Clip, cfg timeline.ExportConfig, mode render.Mode) (*Handle, error) {
	return e.start(context.WithoutCancel(ctx), clips, cfg, mode)
}

func (e *Exporter) start(parent context.Context, clips []timeline.Clip, cfg timeline.ExportConfig, mode render.Mode) (*Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, string(PhasePreparing), "export config", "", err)
	}
	if mode == "" {
		mode = render.ModeSequential
	}
	lock, err := acquireOutputLock(cfg.OutputPath)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()
	h := &Handle{
		ID:         id,
		OutputPath: cfg.OutputPath,
		Mode:       mode,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.tracker = newTracker(id, e.progressObserver(ctx, id))

	e.mu.Lock()
	e.handles[id] = h
	e.latest = h
	e.mu.Unlock()

	go func() {
		defer close(h.done)
		defer e.retire(h)
		defer cancel()
		defer lock.release(e.logger)
		h.result, h.err = e.run(services.WithExportID(ctx, id), h, clips, cfg)
	}()
	return h, nil
}

// retire records h as finished and forgets the oldest finished handles
// beyond the retention cap. Latest keeps its own reference.
func (e *Exporter) retire(h *Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished = append(e.finished, h.ID)
	for len(e.finished) > e.retain {
		delete(e.handles, e.finished[0])
		e.finished = e.finished[1:]
	}
}

// Progress returns the snapshot of export id.
func (e *Exporter) Progress(id string) (Progress, bool) {
	h, ok := e.Handle(id)
	if !ok {
		return Progress{}, false
	}
	return h.Progress(), true
}

// Latest returns the progress of the most recently started export, or idle.
func (e *Exporter) Latest() Progress {
	e.mu.RLock()
	h := e.latest
	e.mu.RUnlock()
	if h == nil {
		return IdleProgress()
	}
	return h.Progress()
}

// Handle looks up an export by id.
func (e *Exporter) Handle(id string) (*Handle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.handles[strings.TrimSpace(id)]
	return h, ok
}

// Active returns the progress of every export that has not finished,
// oldest first.
func (e *Exporter) Active() []Progress {
	e.mu.RLock()
	var active []Progress
	for _, h := range e.handles {
		select {
		case <-h.done:
		default:
			active = append(active, h.Progress())
		}
	}
	e.mu.RUnlock()
	sort.Slice(active, func(i, j int) bool { return active[i].UpdatedAt.Before(active[j].UpdatedAt) })
	return active
}

// Cancel stops export id.
func (e *Exporter) Cancel(id string) error {
	h, ok := e.Handle(id)
	if !ok {
		return fmt.Errorf("export %s: %w", id, services.ErrNotFound)
	}
	h.Cancel()
	return nil
}

// Wait blocks until every running export has finished or ctx is done.
func (e *Exporter) Wait(ctx context.Context) error {
	e.mu.RLock()
	handles := make([]*Handle, 0, len(e.handles))
	for _, h := range e.handles {
		handles = append(handles, h)
	}
	e.mu.RUnlock()
	for _, h := range handles {
		select {
		case <-h.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// progressObserver logs sampled progress and mirrors it into history.
func (e *Exporter) progressObserver(ctx context.Context, id string) func(Progress) {
	sampler := logging.NewProgressSampler(10)
	logger := e.logger.With(logging.String(logging.FieldExportID, id))
	return func(p Progress) {
		if sampler.ShouldLog(string(p.Phase), p.Percentage) {
			logger.Info("export progress",
				logging.String(logging.FieldPhase, string(p.Phase)),
				logging.Float64("percent", p.Percentage),
				logging.String("message", p.Message),
			)
		}
		if e.store == nil || p.Phase.Terminal() {
			return
		}
		if err := e.store.UpdateProgress(context.WithoutCancel(ctx), id, string(p.Phase), p.Percentage, p.Message); err != nil && !errors.Is(err, history.ErrNotFound) {
			logger.Warn("failed to record export progress", logging.Error(err))
		}
	}
}
