package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mealmart/internal/events"
	"mealmart/internal/model"
	"mealmart/internal/service"
	"mealmart/internal/store"
)

type countingPublisher struct {
	mu    sync.Mutex
	count int
}

func (p *countingPublisher) PublishStatusChange(context.Context, events.StatusChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	return nil
}

func (p *countingPublisher) Close() error { return nil }

func (p *countingPublisher) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func newTestReconciler(orders store.OrderStore, pub events.Publisher, now time.Time) *Reconciler {
	lifecycle := service.NewLifecycleManager(orders, pub)
	r := NewReconciler(lifecycle, orders, Config{}, nil)
	r.now = func() time.Time { return now }
	return r
}

func TestSweepUnpaidCancelsStaleOrders(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	stale := orders.Put(model.Order{Status: model.StatusPendingPayment, OrderTime: now.Add(-20 * time.Minute)})
	fresh := orders.Put(model.Order{Status: model.StatusPendingPayment, OrderTime: now.Add(-5 * time.Minute)})
	confirmed := orders.Put(model.Order{Status: model.StatusConfirmed, OrderTime: now.Add(-2 * time.Hour)})

	r := newTestReconciler(orders, nil, now)
	if err := r.SweepUnpaid(context.Background()); err != nil {
		t.Fatalf("SweepUnpaid: %v", err)
	}

	got, _ := orders.GetByID(context.Background(), stale.ID)
	if got.Status != model.StatusCancelled {
		t.Errorf("stale order status = %s, want CANCELLED", got.Status)
	}
	if got.CancelReason == "" || got.CancelTime == nil {
		t.Errorf("cancelled order must carry reason and time: %+v", got)
	}
	if !got.CancelTime.Equal(now) {
		t.Errorf("cancelTime = %v, want %v", got.CancelTime, now)
	}

	for _, o := range []model.Order{fresh, confirmed} {
		got, _ := orders.GetByID(context.Background(), o.ID)
		if got.Status != o.Status {
			t.Errorf("order %s status changed to %s, want %s untouched", o.ID, got.Status, o.Status)
		}
	}
}

func TestSweepUnpaidIsIdempotent(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		orders.Put(model.Order{Status: model.StatusPendingPayment, OrderTime: now.Add(-30 * time.Minute)})
	}

	pub := &countingPublisher{}
	r := newTestReconciler(orders, pub, now)

	if err := r.SweepUnpaid(context.Background()); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if pub.total() != 3 {
		t.Fatalf("first sweep cancelled %d orders, want 3", pub.total())
	}

	if err := r.SweepUnpaid(context.Background()); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if pub.total() != 3 {
		t.Errorf("second sweep cancelled %d more orders, want 0", pub.total()-3)
	}
}

func TestSweepStaleDeliveries(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	now := time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC)

	old := orders.Put(model.Order{Status: model.StatusDeliveryInProgress, OrderTime: now.Add(-90 * time.Minute)})
	recent := orders.Put(model.Order{Status: model.StatusDeliveryInProgress, OrderTime: now.Add(-30 * time.Minute)})

	r := newTestReconciler(orders, nil, now)
	if err := r.SweepStaleDeliveries(context.Background()); err != nil {
		t.Fatalf("SweepStaleDeliveries: %v", err)
	}

	got, _ := orders.GetByID(context.Background(), old.ID)
	if got.Status != model.StatusCompleted {
		t.Errorf("old delivery status = %s, want COMPLETED", got.Status)
	}

	got, _ = orders.GetByID(context.Background(), recent.ID)
	if got.Status != model.StatusDeliveryInProgress {
		t.Errorf("recent delivery status = %s, want DELIVERY_IN_PROGRESS", got.Status)
	}
}

// flakyOrderStore fails updates for one specific order id.
type flakyOrderStore struct {
	*store.MemoryOrderStore
	failID string
}

func (s *flakyOrderStore) Update(ctx context.Context, order model.Order) error {
	if order.ID == s.failID {
		return errors.New("deadlock detected")
	}
	return s.MemoryOrderStore.Update(ctx, order)
}

func TestSweepContinuesPastPerOrderFailures(t *testing.T) {
	mem := store.NewMemoryOrderStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	bad := mem.Put(model.Order{Status: model.StatusPendingPayment, OrderTime: now.Add(-40 * time.Minute)})
	good := mem.Put(model.Order{Status: model.StatusPendingPayment, OrderTime: now.Add(-20 * time.Minute)})

	orders := &flakyOrderStore{MemoryOrderStore: mem, failID: bad.ID}
	r := newTestReconciler(orders, nil, now)

	if err := r.SweepUnpaid(context.Background()); err != nil {
		t.Fatalf("sweep must not fail on a single bad order: %v", err)
	}

	got, _ := mem.GetByID(context.Background(), good.ID)
	if got.Status != model.StatusCancelled {
		t.Errorf("good order status = %s, want CANCELLED despite sibling failure", got.Status)
	}
	got, _ = mem.GetByID(context.Background(), bad.ID)
	if got.Status != model.StatusPendingPayment {
		t.Errorf("failed order should remain pending, got %s", got.Status)
	}
}

func TestSweepConfigDefaults(t *testing.T) {
	r := NewReconciler(nil, nil, Config{}, nil)

	if r.cfg.UnpaidTimeout != 15*time.Minute {
		t.Errorf("unpaid timeout default = %v, want 15m", r.cfg.UnpaidTimeout)
	}
	if r.cfg.DeliveryGrace != 60*time.Minute {
		t.Errorf("delivery grace default = %v, want 60m", r.cfg.DeliveryGrace)
	}
	if r.cfg.UnpaidSpec != "* * * * *" || r.cfg.StaleDeliverySpec != "0 1 * * *" {
		t.Errorf("cron spec defaults = %q / %q", r.cfg.UnpaidSpec, r.cfg.StaleDeliverySpec)
	}
}
