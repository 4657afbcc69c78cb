package sync

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/terrapesca/checkin-backend-go/internal/domain/attendance"
	"github.com/terrapesca/checkin-backend-go/internal/domain/vendor"
	"github.com/terrapesca/checkin-backend-go/internal/pkg/connectivity"
	"github.com/terrapesca/checkin-backend-go/internal/service/notification"
)

// ErrSyncInProgress is returned to an explicit sync request that raced an
// in-flight reconciliation pass. The periodic and connectivity triggers treat
// the same condition as a silent no-op.
var ErrSyncInProgress = errors.New("a reconciliation pass is already running")

// Status is the sync state exposed to clients.
type Status struct {
	Online       bool       `json:"online"`
	Syncing      bool       `json:"syncing"`
	PendingCount int        `json:"pending_count"`
	LastSyncAt   *time.Time `json:"last_sync_at"`
}

// Reconciler drains the pending-event queue against the remote store. At most
// one pass runs at a time; whichever trigger arrives first proceeds and the
// rest are no-ops for that tick.
type Reconciler struct {
	queue      attendance.PendingStore
	events     attendance.EventRepository
	vendors    vendor.VendorRepository
	monitor    *connectivity.Monitor
	dispatcher notification.Dispatcher
	policy     attendance.Policy

	passTimeout time.Duration
	inFlight    atomic.Bool
	lastSync    atomic.Pointer[time.Time]
}

func NewReconciler(
	queue attendance.PendingStore,
	events attendance.EventRepository,
	vendors vendor.VendorRepository,
	monitor *connectivity.Monitor,
	dispatcher notification.Dispatcher,
	policy attendance.Policy,
) *Reconciler {
	return &Reconciler{
		queue:       queue,
		events:      events,
		vendors:     vendors,
		monitor:     monitor,
		dispatcher:  dispatcher,
		policy:      policy,
		passTimeout: 2 * time.Minute,
	}
}

// SyncNow runs one pass on behalf of an explicit user request. Unlike the
// background triggers it reports a racing pass as ErrSyncInProgress.
func (r *Reconciler) SyncNow(ctx context.Context) error {
	if !r.inFlight.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer r.inFlight.Store(false)

	r.runPass(ctx)
	return nil
}

// Job is the periodic trigger, wired to the cron scheduler.
func (r *Reconciler) Job(ctx context.Context) error {
	r.TryPass(ctx)
	return nil
}

// Watch reacts to offline-to-online transitions until ctx is done. Run it on
// its own goroutine.
func (r *Reconciler) Watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.monitor.Notify():
			r.TryPass(ctx)
		}
	}
}

// TryPass runs one pass unless offline, the queue is empty, or a pass is
// already in flight.
func (r *Reconciler) TryPass(ctx context.Context) {
	if !r.monitor.Online() {
		return
	}
	count, err := r.queue.Count()
	if err != nil {
		slog.Error("Failed to read pending queue", "error", err)
		return
	}
	if count == 0 {
		return
	}

	if !r.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer r.inFlight.Store(false)

	r.runPass(ctx)
}

// runPass drains a snapshot of the queue, one event at a time, in insertion
// order. Failure of one event never aborts the pass or skips the rest; the
// queue rewrite afterwards removes exactly the committed events.
func (r *Reconciler) runPass(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, r.passTimeout)
	defer cancel()

	pending, err := r.queue.List()
	if err != nil {
		slog.Error("Failed to snapshot pending queue", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	slog.Info("Starting reconciliation pass", "pending", len(pending))

	var succeeded []int
	failures := make(map[string]string)

	for i, pe := range pending {
		event := pe.Event
		event.Synced = true

		if err := r.events.Create(passCtx, event); err != nil {
			slog.Error("Failed to reconcile event",
				"event_id", event.ID, "vendor_id", event.VendorID, "kind", event.Kind,
				"attempts", pe.Attempts+1, "error", err)
			failures[event.ID] = err.Error()
			continue
		}

		succeeded = append(succeeded, i)
		r.notifyCommitted(passCtx, event)
	}

	if err := r.queue.RemoveSucceeded(succeeded); err != nil {
		slog.Error("Failed to remove reconciled events from queue", "error", err)
		return
	}
	if err := r.queue.MarkFailed(failures); err != nil {
		slog.Error("Failed to record reconciliation failures", "error", err)
	}

	if len(succeeded) > 0 {
		now := time.Now().UTC()
		r.lastSync.Store(&now)
		r.monitor.SetOnline(true)
	}

	slog.Info("Reconciliation pass finished",
		"committed", len(succeeded), "remaining", len(pending)-len(succeeded))
}

func (r *Reconciler) notifyCommitted(ctx context.Context, event attendance.Event) {
	if r.dispatcher == nil || !r.policy.NotifyOnReconcile {
		return
	}

	v, err := r.vendors.GetByID(ctx, event.VendorID)
	if err != nil {
		slog.Warn("Skipping notification for reconciled event, vendor lookup failed",
			"event_id", event.ID, "vendor_id", event.VendorID, "error", err)
		return
	}
	r.dispatcher.DispatchCommitted(v, event)
}

// Status implements the sync status view.
func (r *Reconciler) Status() Status {
	count, err := r.queue.Count()
	if err != nil {
		slog.Error("Failed to count pending queue", "error", err)
	}
	return Status{
		Online:       r.monitor.Online(),
		Syncing:      r.inFlight.Load(),
		PendingCount: count,
		LastSyncAt:   r.lastSync.Load(),
	}
}
