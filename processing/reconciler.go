package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reqsync/config"
	"reqsync/internal/messaging/producer"
	"reqsync/internal/models"
	remote "reqsync/remote/client"
	"reqsync/storage/store"
)

// PassStats summarises one reconciliation pass
type PassStats struct {
	Skipped     bool // remote was unreachable, nothing pushed
	Pending     int  // records in the unsynced snapshot
	Attempted   int
	Synced      int
	Rejected    int
	Unreachable int
	Duration    time.Duration
}

// ProbeListener is told the result of every health probe the reconciler makes
type ProbeListener func(reachable bool)

// Option configures a Reconciler
type Option func(*Reconciler)

// WithProbeListener registers fn to receive probe results
func WithProbeListener(fn ProbeListener) Option {
	return func(r *Reconciler) { r.listeners = append(r.listeners, fn) }
}

// Reconciler periodically retries pending records against the remote
type Reconciler struct {
	interval   time.Duration
	runOnStart bool
	logger     *log.Logger
	store      store.Store
	probe      remote.HealthProbe
	forwarder  remote.Forwarder
	producer   producer.Producer
	listeners  []ProbeListener
	tracer     trace.Tracer

	passMu sync.Mutex // one pass at a time
}

// New creates a new Reconciler instance
func New(cfg config.ReconcilerConfig, logger *log.Logger, s store.Store, probe remote.HealthProbe, f remote.Forwarder, p producer.Producer, opts ...Option) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		logger.Printf("Warning: invalid reconciler interval '%s', using default 5m", interval)
		interval = 5 * time.Minute
	}

	r := &Reconciler{
		interval:   interval,
		runOnStart: cfg.RunOnStart,
		logger:     logger,
		store:      s,
		probe:      probe,
		forwarder:  f,
		producer:   p,
		tracer:     otel.Tracer("reqsync/reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a pass every interval until ctx is cancelled
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Printf("Reconciler started, interval: %s, run_on_start: %v", r.interval, r.runOnStart)
	if r.runOnStart {
		r.RunOnce(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Println("Reconciler stopped.")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single pass. It never fails; everything goes to the log and the stats.
//
// A pass is skipped when the probe reports the remote down. Otherwise every
// record of the unsynced snapshot is pushed in snapshot order; one record's
// failure never stops the rest. Cancelling ctx abandons the in-flight push
// and starts no new one.
func (r *Reconciler) RunOnce(ctx context.Context) PassStats {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	ctx, span := r.tracer.Start(ctx, "reconciler.pass")
	defer span.End()

	start := time.Now()
	var stats PassStats
	defer func() {
		span.SetAttributes(
			attribute.Bool("pass.skipped", stats.Skipped),
			attribute.Int("pass.attempted", stats.Attempted),
			attribute.Int("pass.synced", stats.Synced),
			attribute.Int("pass.rejected", stats.Rejected),
			attribute.Int("pass.unreachable", stats.Unreachable),
		)
	}()

	reachable := r.probe.IsReachable(ctx)
	for _, fn := range r.listeners {
		fn(reachable)
	}
	if !reachable {
		stats.Skipped = true
		stats.Duration = time.Since(start)
		r.logger.Println("Remote unreachable, skipping reconciliation pass")
		return stats
	}

	pending, err := r.store.ListUnsynced(ctx)
	if err != nil {
		span.RecordError(err)
		r.logger.Printf("Reconciler: failed to list unsynced records: %v", err)
		stats.Duration = time.Since(start)
		return stats
	}
	stats.Pending = len(pending)

	// Marks must land even if shutdown starts right after an Accepted answer.
	markCtx := context.WithoutCancel(ctx)
	var events []*models.RecordEvent

	for i := range pending {
		if ctx.Err() != nil {
			r.logger.Printf("Reconciler: cancelled, %d records left for the next run", len(pending)-i)
			break
		}
		rec := pending[i]
		stats.Attempted++

		out := r.forwarder.Push(ctx, rec)
		switch out.Verdict {
		case remote.Accepted:
			if err := r.store.MarkSynced(markCtx, rec.ID); err != nil {
				r.logger.Printf("Reconciler: record %s accepted but could not be marked synced: %v", rec.ID, err)
				continue
			}
			stats.Synced++
			events = append(events, models.NewRecordEvent(models.EventSynced, rec.ID, ""))
		case remote.Rejected:
			if err := r.store.MarkRejected(markCtx, rec.ID, out.Reason); err != nil {
				r.logger.Printf("Reconciler: record %s rejected but could not be marked: %v", rec.ID, err)
				continue
			}
			stats.Rejected++
			events = append(events, models.NewRecordEvent(models.EventRejected, rec.ID, out.Reason))
			r.logger.Printf("Reconciler: record %s rejected by remote: %s", rec.ID, out.Reason)
		default:
			stats.Unreachable++
			r.logger.Printf("Reconciler: record %s still unsynced: %s", rec.ID, out)
		}
	}

	if len(events) > 0 {
		if err := r.producer.PublishBatch(markCtx, events); err != nil {
			r.logger.Printf("Reconciler: failed to publish %d record events: %v", len(events), err)
		}
	}

	stats.Duration = time.Since(start)
	r.logger.Printf("Pass performance: pending=%d, attempted=%d, synced=%d, rejected=%d, unreachable=%d, total=%v",
		stats.Pending, stats.Attempted, stats.Synced, stats.Rejected, stats.Unreachable, stats.Duration)
	return stats
}
