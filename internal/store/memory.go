package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mealmart/internal/model"
)

// MemoryOrderStore is a mutex-guarded in-memory OrderStore. It backs the
// test suites and the dev mode that runs without Postgres.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]model.Order
	items  map[string][]model.OrderItem
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		orders: map[string]model.Order{},
		items:  map[string][]model.OrderItem{},
	}
}

// Put inserts or replaces an order, assigning an id when absent, and
// returns the stored copy.
func (s *MemoryOrderStore) Put(order model.Order) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	s.orders[order.ID] = order
	return order
}

// PutItems replaces the item lines of an order.
func (s *MemoryOrderStore) PutItems(orderID string, items ...model.OrderItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range items {
		items[i].OrderID = orderID
	}
	s.items[orderID] = items
}

func (s *MemoryOrderStore) GetByID(ctx context.Context, id string) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o, nil
}

func (s *MemoryOrderStore) FindByStatusBefore(ctx context.Context, status model.Status, cutoff time.Time) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orders []model.Order
	for _, o := range s.orders {
		if o.Status == status && o.OrderTime.Before(cutoff) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].OrderTime.Before(orders[j].OrderTime)
	})
	return orders, nil
}

func (s *MemoryOrderStore) Update(ctx context.Context, order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.orders[order.ID]
	if !ok {
		return fmt.Errorf("order %s: %w", order.ID, ErrNotFound)
	}

	existing.Status = order.Status
	existing.PayStatus = order.PayStatus
	existing.CancelReason = order.CancelReason
	existing.CancelTime = order.CancelTime
	s.orders[order.ID] = existing
	return nil
}

func inWindow(t time.Time, win TimeWindow) bool {
	if !win.Begin.IsZero() && t.Before(win.Begin) {
		return false
	}
	return !t.After(win.End)
}

func (s *MemoryOrderStore) CountByFilter(ctx context.Context, win TimeWindow, status *model.Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, o := range s.orders {
		if status != nil && o.Status != *status {
			continue
		}
		if inWindow(o.OrderTime, win) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryOrderStore) SumAmountByFilter(ctx context.Context, win TimeWindow, status model.Status) (sql.NullFloat64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum sql.NullFloat64
	for _, o := range s.orders {
		if o.Status != status || !inWindow(o.OrderTime, win) {
			continue
		}
		sum.Valid = true
		sum.Float64 += o.Amount
	}
	return sum, nil
}

func (s *MemoryOrderStore) TopSellingItems(ctx context.Context, win TimeWindow, limit int) ([]model.ItemSales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := map[string]int{}
	for id, o := range s.orders {
		if o.Status != model.StatusCompleted || !inWindow(o.OrderTime, win) {
			continue
		}
		for _, item := range s.items[id] {
			totals[item.Name] += item.Quantity
		}
	}

	sales := make([]model.ItemSales, 0, len(totals))
	for name, qty := range totals {
		sales = append(sales, model.ItemSales{Name: name, Quantity: qty})
	}
	sort.Slice(sales, func(i, j int) bool {
		if sales[i].Quantity != sales[j].Quantity {
			return sales[i].Quantity > sales[j].Quantity
		}
		return sales[i].Name < sales[j].Name
	})

	if len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

// MemoryUserStore is the in-memory counterpart of PostgresUserStore. It
// only tracks registration times, which is all reporting reads.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users []time.Time
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{}
}

// Add registers a user created at the given time.
func (s *MemoryUserStore) Add(createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, createdAt)
}

func (s *MemoryUserStore) CountByFilter(ctx context.Context, win TimeWindow) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, createdAt := range s.users {
		if inWindow(createdAt, win) {
			count++
		}
	}
	return count, nil
}
