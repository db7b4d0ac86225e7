package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mealmart/internal/metrics"
	"mealmart/internal/model"
	"mealmart/internal/service"
	"mealmart/internal/store"
)

const (
	SweepUnpaid        = "unpaid-timeout"
	SweepStaleDelivery = "stale-delivery"

	timeoutCancelReason = "order timed out, auto-cancelled"
)

// Config holds the externally configurable sweep cadences and deadline
// thresholds.
type Config struct {
	// Cron specs (minute-granularity, five fields).
	UnpaidSpec        string
	StaleDeliverySpec string
	// How long an order may sit unpaid before it is cancelled.
	UnpaidTimeout time.Duration
	// Grace window for orders still marked in delivery, measured from
	// order placement.
	DeliveryGrace time.Duration
}

// Reconciler runs the two background sweeps that force stuck orders into
// terminal states. The two sweep kinds operate on disjoint status filters
// and may overlap each other, but each kind is serialized with itself via
// a run-mutex.
type Reconciler struct {
	lifecycle *service.LifecycleManager
	orders    store.OrderStore
	cfg       Config
	metrics   *metrics.SweepMetrics

	cron       *cron.Cron
	unpaidMu   sync.Mutex
	deliveryMu sync.Mutex
	now        func() time.Time
}

func NewReconciler(lifecycle *service.LifecycleManager, orders store.OrderStore, cfg Config, m *metrics.SweepMetrics) *Reconciler {
	if cfg.UnpaidSpec == "" {
		cfg.UnpaidSpec = "* * * * *"
	}
	if cfg.StaleDeliverySpec == "" {
		cfg.StaleDeliverySpec = "0 1 * * *"
	}
	if cfg.UnpaidTimeout <= 0 {
		cfg.UnpaidTimeout = 15 * time.Minute
	}
	if cfg.DeliveryGrace <= 0 {
		cfg.DeliveryGrace = 60 * time.Minute
	}

	return &Reconciler{
		lifecycle: lifecycle,
		orders:    orders,
		cfg:       cfg,
		metrics:   m,
		now:       time.Now,
	}
}

// Start registers both sweeps with the cron scheduler and begins firing
// them. Jobs run off the request path; ctx bounds each invocation.
func (r *Reconciler) Start(ctx context.Context) error {
	c := cron.New()

	if _, err := c.AddFunc(r.cfg.UnpaidSpec, func() {
		if err := r.SweepUnpaid(ctx); err != nil {
			slog.Error("unpaid-timeout sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register %s job: %w", SweepUnpaid, err)
	}

	if _, err := c.AddFunc(r.cfg.StaleDeliverySpec, func() {
		if err := r.SweepStaleDeliveries(ctx); err != nil {
			slog.Error("stale-delivery sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register %s job: %w", SweepStaleDelivery, err)
	}

	c.Start()
	r.cron = c
	slog.Info("reconciler started",
		"unpaid_spec", r.cfg.UnpaidSpec,
		"stale_delivery_spec", r.cfg.StaleDeliverySpec)
	return nil
}

// Stop halts the scheduler and waits for any in-flight sweep to finish.
func (r *Reconciler) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
	slog.Info("reconciler stopped")
}

// SweepUnpaid cancels orders that sat in PENDING_PAYMENT past the unpaid
// timeout. A failure on one order never aborts the rest; re-running is
// safe because only orders still pending are re-selected.
func (r *Reconciler) SweepUnpaid(ctx context.Context) error {
	if !r.unpaidMu.TryLock() {
		slog.Warn("unpaid-timeout sweep already running, skipping")
		return nil
	}
	defer r.unpaidMu.Unlock()

	started := time.Now()
	now := r.now()
	deadline := now.Add(-r.cfg.UnpaidTimeout)

	orders, err := r.orders.FindByStatusBefore(ctx, model.StatusPendingPayment, deadline)
	if err != nil {
		return fmt.Errorf("select unpaid orders: %w", err)
	}

	transitions, failures := 0, 0
	for _, o := range orders {
		if err := r.lifecycle.ForceCancel(ctx, o.ID, timeoutCancelReason, r.now()); err != nil {
			failures++
			slog.Error("failed to cancel timed-out order", "order", o.ID, "error", err)
			continue
		}
		transitions++
	}

	r.metrics.ObserveRun(SweepUnpaid, started, transitions, failures)
	slog.Info("unpaid-timeout sweep done", "selected", len(orders), "cancelled", transitions, "failed", failures)
	return nil
}

// SweepStaleDeliveries completes orders still marked DELIVERY_IN_PROGRESS
// past the grace window. The deadline is measured from order placement,
// not delivery start.
func (r *Reconciler) SweepStaleDeliveries(ctx context.Context) error {
	if !r.deliveryMu.TryLock() {
		slog.Warn("stale-delivery sweep already running, skipping")
		return nil
	}
	defer r.deliveryMu.Unlock()

	started := time.Now()
	now := r.now()
	deadline := now.Add(-r.cfg.DeliveryGrace)

	orders, err := r.orders.FindByStatusBefore(ctx, model.StatusDeliveryInProgress, deadline)
	if err != nil {
		return fmt.Errorf("select stale deliveries: %w", err)
	}

	transitions, failures := 0, 0
	for _, o := range orders {
		if err := r.lifecycle.ForceComplete(ctx, o.ID, r.now()); err != nil {
			failures++
			slog.Error("failed to complete stale delivery", "order", o.ID, "error", err)
			continue
		}
		transitions++
	}

	r.metrics.ObserveRun(SweepStaleDelivery, started, transitions, failures)
	slog.Info("stale-delivery sweep done", "selected", len(orders), "completed", transitions, "failed", failures)
	return nil
}
