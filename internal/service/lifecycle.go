package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mealmart/internal/events"
	"mealmart/internal/model"
	"mealmart/internal/store"
)

// ErrInvalidTransition is returned when a requested state change violates
// the lifecycle transition table.
var ErrInvalidTransition = errors.New("invalid order state transition")

// LifecycleManager owns the state-transition rules for forcing orders into
// a new state. It touches nothing beyond the single order's status fields.
type LifecycleManager struct {
	orders store.OrderStore
	events events.Publisher
}

func NewLifecycleManager(orders store.OrderStore, publisher events.Publisher) *LifecycleManager {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &LifecycleManager{orders: orders, events: publisher}
}

// ForceCancel moves the order to CANCELLED and records the reason and the
// cancellation time. Valid from any non-terminal state.
func (m *LifecycleManager) ForceCancel(ctx context.Context, orderID, reason string, now time.Time) error {
	order, err := m.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(model.StatusCancelled) {
		return fmt.Errorf("cancel order %s from %s: %w", orderID, order.Status, ErrInvalidTransition)
	}

	order.Status = model.StatusCancelled
	order.CancelReason = reason
	cancelTime := now
	order.CancelTime = &cancelTime

	if err := m.orders.Update(ctx, order); err != nil {
		return fmt.Errorf("persist cancellation: %w", err)
	}

	m.publish(ctx, events.StatusChange{
		OrderID: orderID,
		Status:  model.StatusCancelled,
		Reason:  reason,
		At:      now,
	})

	return nil
}

// ForceComplete moves the order to COMPLETED. Valid only from
// DELIVERY_IN_PROGRESS.
func (m *LifecycleManager) ForceComplete(ctx context.Context, orderID string, now time.Time) error {
	order, err := m.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if order.Status != model.StatusDeliveryInProgress {
		return fmt.Errorf("complete order %s from %s: %w", orderID, order.Status, ErrInvalidTransition)
	}

	order.Status = model.StatusCompleted

	if err := m.orders.Update(ctx, order); err != nil {
		return fmt.Errorf("persist completion: %w", err)
	}

	m.publish(ctx, events.StatusChange{
		OrderID: orderID,
		Status:  model.StatusCompleted,
		At:      now,
	})

	return nil
}

// publish is best-effort: a failed event must not undo a committed
// transition.
func (m *LifecycleManager) publish(ctx context.Context, evt events.StatusChange) {
	if err := m.events.PublishStatusChange(ctx, evt); err != nil {
		slog.Error("failed to publish status change", "order", evt.OrderID, "status", evt.Status, "error", err)
	}
}
