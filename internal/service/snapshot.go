package service

import (
	"context"
	"time"

	"mealmart/internal/model"
	"mealmart/internal/store"
)

// SnapshotService computes point-in-time dashboard metrics over an
// arbitrary window. It issues several sequential read queries against the
// same nominal window; concurrent writes between them can skew the result
// slightly. That approximate consistency is intentional for dashboards.
type SnapshotService struct {
	orders store.OrderStore
	users  store.UserStore
	now    func() time.Time
}

func NewSnapshotService(orders store.OrderStore, users store.UserStore) *SnapshotService {
	return &SnapshotService{orders: orders, users: users, now: time.Now}
}

// BusinessData summarizes turnover, completion rate, average ticket price
// and user growth over [begin, end]. Both ratios are 0 when their
// denominator is 0.
func (s *SnapshotService) BusinessData(ctx context.Context, begin, end time.Time) (model.BusinessSnapshot, error) {
	win := store.TimeWindow{Begin: begin, End: end}
	completed := model.StatusCompleted

	totalOrders, err := s.orders.CountByFilter(ctx, win, nil)
	if err != nil {
		return model.BusinessSnapshot{}, aggregateFailed("total order count", err)
	}

	sum, err := s.orders.SumAmountByFilter(ctx, win, completed)
	if err != nil {
		return model.BusinessSnapshot{}, aggregateFailed("turnover", err)
	}
	turnover := sum.Float64

	validOrders, err := s.orders.CountByFilter(ctx, win, &completed)
	if err != nil {
		return model.BusinessSnapshot{}, aggregateFailed("valid order count", err)
	}

	unitPrice := 0.0
	if validOrders != 0 {
		unitPrice = turnover / float64(validOrders)
	}
	completionRate := 0.0
	if totalOrders != 0 {
		completionRate = float64(validOrders) / float64(totalOrders)
	}

	newUsers, err := s.users.CountByFilter(ctx, win)
	if err != nil {
		return model.BusinessSnapshot{}, aggregateFailed("new users", err)
	}

	return model.BusinessSnapshot{
		Turnover:            turnover,
		ValidOrderCount:     validOrders,
		OrderCompletionRate: completionRate,
		UnitPrice:           unitPrice,
		NewUsers:            newUsers,
	}, nil
}

// OrderOverview counts today's orders per status bucket plus an unfiltered
// total.
func (s *SnapshotService) OrderOverview(ctx context.Context) (model.OrderOverview, error) {
	win := dayWindow(s.now())

	countFor := func(status model.Status) (int, error) {
		return s.orders.CountByFilter(ctx, win, &status)
	}

	waiting, err := countFor(model.StatusToBeConfirmed)
	if err != nil {
		return model.OrderOverview{}, aggregateFailed("waiting orders", err)
	}
	delivering, err := countFor(model.StatusConfirmed)
	if err != nil {
		return model.OrderOverview{}, aggregateFailed("orders to deliver", err)
	}
	completedCount, err := countFor(model.StatusCompleted)
	if err != nil {
		return model.OrderOverview{}, aggregateFailed("completed orders", err)
	}
	cancelled, err := countFor(model.StatusCancelled)
	if err != nil {
		return model.OrderOverview{}, aggregateFailed("cancelled orders", err)
	}
	all, err := s.orders.CountByFilter(ctx, win, nil)
	if err != nil {
		return model.OrderOverview{}, aggregateFailed("all orders", err)
	}

	return model.OrderOverview{
		WaitingOrders:   waiting,
		DeliveredOrders: delivering,
		CompletedOrders: completedCount,
		CancelledOrders: cancelled,
		AllOrders:       all,
	}, nil
}
