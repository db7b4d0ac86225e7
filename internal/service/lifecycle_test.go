package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mealmart/internal/events"
	"mealmart/internal/model"
	"mealmart/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.StatusChange
	fail   bool
}

func (p *recordingPublisher) PublishStatusChange(_ context.Context, evt events.StatusChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestForceCancelSetsReasonAndTime(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	pub := &recordingPublisher{}
	m := NewLifecycleManager(orders, pub)

	o := orders.Put(model.Order{Status: model.StatusPendingPayment, OrderTime: time.Now().Add(-time.Hour)})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := m.ForceCancel(context.Background(), o.ID, "order timed out, auto-cancelled", now); err != nil {
		t.Fatalf("ForceCancel: %v", err)
	}

	got, err := orders.GetByID(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got.Status)
	}
	if got.CancelReason != "order timed out, auto-cancelled" {
		t.Errorf("cancel reason = %q", got.CancelReason)
	}
	if got.CancelTime == nil || !got.CancelTime.Equal(now) {
		t.Errorf("cancel time = %v, want %v", got.CancelTime, now)
	}

	if len(pub.events) != 1 || pub.events[0].Status != model.StatusCancelled {
		t.Errorf("expected one cancellation event, got %+v", pub.events)
	}
}

func TestForceCancelRejectsTerminalStates(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	m := NewLifecycleManager(orders, nil)

	for _, status := range []model.Status{model.StatusCompleted, model.StatusCancelled} {
		o := orders.Put(model.Order{Status: status})
		err := m.ForceCancel(context.Background(), o.ID, "too late", time.Now())
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("cancel from %s: err = %v, want ErrInvalidTransition", status, err)
		}
	}
}

func TestForceCompleteOnlyFromDelivery(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	m := NewLifecycleManager(orders, nil)

	o := orders.Put(model.Order{Status: model.StatusDeliveryInProgress})
	if err := m.ForceComplete(context.Background(), o.ID, time.Now()); err != nil {
		t.Fatalf("ForceComplete: %v", err)
	}
	got, _ := orders.GetByID(context.Background(), o.ID)
	if got.Status != model.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
	if got.CancelReason != "" || got.CancelTime != nil {
		t.Errorf("completion must not set cancel fields: %+v", got)
	}

	for _, status := range []model.Status{
		model.StatusPendingPayment, model.StatusToBeConfirmed, model.StatusConfirmed,
		model.StatusCompleted, model.StatusCancelled,
	} {
		o := orders.Put(model.Order{Status: status})
		err := m.ForceComplete(context.Background(), o.ID, time.Now())
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("complete from %s: err = %v, want ErrInvalidTransition", status, err)
		}
	}
}

func TestForceCancelUnknownOrder(t *testing.T) {
	m := NewLifecycleManager(store.NewMemoryOrderStore(), nil)

	err := m.ForceCancel(context.Background(), "missing", "whatever", time.Now())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	pub := &recordingPublisher{fail: true}
	m := NewLifecycleManager(orders, pub)

	o := orders.Put(model.Order{Status: model.StatusDeliveryInProgress})
	if err := m.ForceComplete(context.Background(), o.ID, time.Now()); err != nil {
		t.Fatalf("ForceComplete should succeed despite publish failure: %v", err)
	}
	got, _ := orders.GetByID(context.Background(), o.ID)
	if got.Status != model.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
}
