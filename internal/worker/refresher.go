package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"shelterstats/internal/amqp"
	"shelterstats/internal/services"
	"shelterstats/internal/storage"

	"github.com/google/uuid"
)

// ErrRefreshInFlight is returned when a refresh is requested while another
// one is still running. The request is dropped, not queued.
var ErrRefreshInFlight = errors.New("refresh already in flight")

// Refresh triggers.
const (
	TriggerStartup  = "startup"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
	TriggerAMQP     = "amqp"
)

type (
	// Loader loads a fresh set of records.
	Loader interface {
		Load(ctx context.Context) services.LoadResult
	}

	// Journal persists refresh runs.
	Journal interface {
		RecordRefresh(ctx context.Context, run storage.RefreshRun) error
	}

	// Publisher announces finished runs.
	Publisher interface {
		PublishRefreshCompleted(ctx context.Context, msg *amqp.RefreshCompletedMessage) error
	}

	// Recorder receives refresh metrics.
	Recorder interface {
		ObserveRefresh(trigger, status string, d time.Duration, records, dropped int, version uint64, published bool)
		RefreshSkipped()
	}

	pruner interface {
		PruneRefreshes(ctx context.Context, maxAge time.Duration) (int64, error)
	}
)

// RefresherConfig holds configuration for the refresher
type RefresherConfig struct {
	// Interval between scheduled refreshes (default: 5m)
	Interval time.Duration

	// Timeout bounds a single load (default: 1m)
	Timeout time.Duration

	// JournalRetention is how long journal entries are kept (default: 30 days)
	JournalRetention time.Duration
}

// DefaultRefresherConfig returns sensible defaults
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		Interval:         5 * time.Minute,
		Timeout:          time.Minute,
		JournalRetention: 30 * 24 * time.Hour,
	}
}

// Option configures optional refresher collaborators.
type Option func(*Refresher)

func WithJournal(j Journal) Option     { return func(r *Refresher) { r.journal = j } }
func WithPublisher(p Publisher) Option { return func(r *Refresher) { r.publisher = p } }
func WithRecorder(m Recorder) Option   { return func(r *Refresher) { r.recorder = m } }

// Refresher reloads records on a fixed interval and publishes each new
// dataset atomically. Readers keep seeing the previous dataset until the
// new one is complete.
type Refresher struct {
	loader    Loader
	config    RefresherConfig
	journal   Journal
	publisher Publisher
	recorder  Recorder

	current  atomic.Pointer[services.Dataset]
	inFlight atomic.Bool
	async    sync.WaitGroup
	now      func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	loopCtx context.Context
	cancel  context.CancelFunc
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRefresher creates a new refresher
func NewRefresher(loader Loader, config RefresherConfig, opts ...Option) *Refresher {
	def := DefaultRefresherConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.JournalRetention <= 0 {
		config.JournalRetention = def.JournalRetention
	}
	r := &Refresher{loader: loader, config: config, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Current returns the published dataset, or nil before the first load.
func (r *Refresher) Current() *services.Dataset {
	return r.current.Load()
}

// Ready reports whether records have been loaded at least once.
func (r *Refresher) Ready() bool {
	ds := r.current.Load()
	return ds != nil && ds.Version > 0
}

// InFlight reports whether a refresh is running.
func (r *Refresher) InFlight() bool {
	return r.inFlight.Load()
}

// Start begins the refresh loop. Returns an error if already running.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("refresher is already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	r.running = true
	r.loopCtx = ctx
	r.cancel = cancel
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	r.stopCh, r.doneCh = stopCh, doneCh
	r.mu.Unlock()

	r.pruneJournal(ctx)

	go r.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Refresher started",
		"component", "refresh",
		"interval", r.config.Interval,
		"timeout", r.config.Timeout)
	return nil
}

// Stop cancels the pending timer and any in-flight load, then waits for
// the loop and background refreshes to finish.
func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running || r.stopCh == nil {
		r.mu.Unlock()
		return nil
	}
	cancel, stopCh, doneCh := r.cancel, r.stopCh, r.doneCh
	r.stopCh = nil
	r.mu.Unlock()

	close(stopCh)
	cancel()

	waited := make(chan struct{})
	go func() {
		<-doneCh
		r.async.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		slog.InfoContext(ctx, "Refresher stopped gracefully", "component", "refresh")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Refresher stop timed out", "component", "refresh")
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	return nil
}

// IsRunning returns whether the refresh loop is running
func (r *Refresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Refresher) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.tryRefresh(ctx, TriggerStartup)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tryRefresh(ctx, TriggerInterval)
		}
	}
}

func (r *Refresher) tryRefresh(ctx context.Context, trigger string) {
	if _, err := r.RefreshNow(ctx, trigger); errors.Is(err, ErrRefreshInFlight) {
		slog.InfoContext(ctx, "Scheduled refresh skipped, previous one still running",
			"component", "refresh", "trigger", trigger)
	}
}

// RefreshNow runs one refresh synchronously. It returns ErrRefreshInFlight
// without loading anything when another refresh is running.
func (r *Refresher) RefreshNow(ctx context.Context, trigger string) (storage.RefreshRun, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		if r.recorder != nil {
			r.recorder.RefreshSkipped()
		}
		return storage.RefreshRun{}, ErrRefreshInFlight
	}
	defer r.inFlight.Store(false)
	return r.refresh(ctx, trigger), nil
}

// Trigger starts a refresh in the background and returns immediately. The
// run is bounded by the refresher's timeout and cancelled by Stop, never by
// the caller's request context.
func (r *Refresher) Trigger(trigger string) error {
	if !r.inFlight.CompareAndSwap(false, true) {
		if r.recorder != nil {
			r.recorder.RefreshSkipped()
		}
		return ErrRefreshInFlight
	}

	r.mu.Lock()
	base := context.Background()
	if r.running {
		base = r.loopCtx
	}
	r.mu.Unlock()

	r.async.Add(1)
	go func() {
		defer r.async.Done()
		defer r.inFlight.Store(false)
		r.refresh(base, trigger)
	}()
	return nil
}

// HandleRefreshRequest serves a refresh request received over AMQP. A request
// arriving during a refresh is acknowledged and dropped.
func (r *Refresher) HandleRefreshRequest(ctx context.Context, msg *amqp.RefreshRequestMessage) error {
	slog.InfoContext(ctx, "Processing refresh request",
		"component", "refresh",
		"requested_by", msg.RequestedBy,
		"reason", msg.Reason)

	_, err := r.RefreshNow(ctx, TriggerAMQP)
	if errors.Is(err, ErrRefreshInFlight) {
		slog.InfoContext(ctx, "Refresh request dropped, refresh already in flight", "component", "refresh")
		return nil
	}
	return err
}

// refresh loads, publishes and reports one run. Callers hold inFlight.
func (r *Refresher) refresh(ctx context.Context, trigger string) storage.RefreshRun {
	runID := uuid.NewString()
	started := r.now()

	loadCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	res := r.loader.Load(loadCtx)
	cancel()

	finished := r.now()
	next, published := r.nextDataset(res, finished)
	r.current.Store(next)

	run := storage.RefreshRun{
		ID:         runID,
		Trigger:    trigger,
		Status:     res.Status.String(),
		Source:     res.Source,
		Records:    len(res.Records),
		Dropped:    res.Dropped,
		Version:    next.Version,
		Error:      errString(res.Err),
		StartedAt:  started,
		DurationMs: finished.Sub(started).Milliseconds(),
	}
	r.logRun(ctx, run)
	r.report(ctx, run, finished.Sub(started), published)
	return run
}

// nextDataset builds the dataset to publish. An unavailable load keeps the
// previous records and version and only updates the status fields.
func (r *Refresher) nextDataset(res services.LoadResult, at time.Time) (*services.Dataset, bool) {
	prev := r.current.Load()

	if res.Status == services.Unavailable {
		next := &services.Dataset{}
		if prev != nil {
			cp := *prev
			next = &cp
		}
		next.Status = services.Unavailable
		next.LastError = errString(res.Err)
		next.CheckedAt = at
		return next, false
	}

	var version uint64 = 1
	if prev != nil {
		version = prev.Version + 1
	}
	return &services.Dataset{
		Version:   version,
		Records:   res.Records,
		Dropped:   res.Dropped,
		Source:    res.Source,
		LoadedAt:  at,
		Status:    res.Status,
		LastError: errString(res.Err),
		CheckedAt: at,
	}, true
}

func (r *Refresher) logRun(ctx context.Context, run storage.RefreshRun) {
	attrs := []any{
		"component", "refresh",
		"run_id", run.ID,
		"trigger", run.Trigger,
		"status", run.Status,
		"source", run.Source,
		"records", run.Records,
		"dropped", run.Dropped,
		"version", run.Version,
		"duration_ms", run.DurationMs,
	}
	switch run.Status {
	case services.Fetched.String():
		slog.InfoContext(ctx, "Records refreshed", attrs...)
	case services.FellBackToFile.String():
		slog.WarnContext(ctx, "Records refreshed from fallback file", append(attrs, "error", run.Error)...)
	default:
		slog.ErrorContext(ctx, "Records unavailable, keeping previous dataset", append(attrs, "error", run.Error)...)
	}
}

// report fans the run out to metrics, the journal and the broker. Failures
// there are logged and never fail the refresh.
func (r *Refresher) report(ctx context.Context, run storage.RefreshRun, d time.Duration, published bool) {
	if r.recorder != nil {
		r.recorder.ObserveRefresh(run.Trigger, run.Status, d, run.Records, run.Dropped, run.Version, published)
	}

	// The journal and the broker get their own deadline so a cancelled
	// refresh still leaves a trace.
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if r.journal != nil {
		if err := r.journal.RecordRefresh(reportCtx, run); err != nil {
			slog.ErrorContext(ctx, "Failed to journal refresh run", "component", "storage", "run_id", run.ID, "error", err)
		}
	}
	if r.publisher != nil {
		msg := &amqp.RefreshCompletedMessage{
			RunID:     run.ID,
			Trigger:   run.Trigger,
			Status:    run.Status,
			Source:    run.Source,
			Records:   run.Records,
			Dropped:   run.Dropped,
			Version:   run.Version,
			Error:     run.Error,
			Timestamp: r.now(),
		}
		if err := r.publisher.PublishRefreshCompleted(reportCtx, msg); err != nil {
			slog.WarnContext(ctx, "Failed to publish refresh event", "component", "amqp", "run_id", run.ID, "error", err)
		}
	}
}

func (r *Refresher) pruneJournal(ctx context.Context) {
	p, ok := r.journal.(pruner)
	if !ok {
		return
	}
	n, err := p.PruneRefreshes(ctx, r.config.JournalRetention)
	if err != nil {
		slog.WarnContext(ctx, "Failed to prune refresh journal", "component", "storage", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Pruned refresh journal", "component", "storage", "removed", n)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
