package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mealmart/internal/model"
)

// ErrNotFound is returned when a referenced order does not resolve.
var ErrNotFound = errors.New("not found")

// TimeWindow is a closed [Begin, End] interval used to scope aggregate
// queries. A zero Begin means the lower bound is unbounded.
type TimeWindow struct {
	Begin time.Time
	End   time.Time
}

// OrderStore is the persistence surface the lifecycle and reporting code
// depends on. Implementations must keep Update atomic over the status
// fields (status, cancel_reason, cancel_time committed together).
type OrderStore interface {
	GetByID(ctx context.Context, id string) (model.Order, error)
	FindByStatusBefore(ctx context.Context, status model.Status, cutoff time.Time) ([]model.Order, error)
	// Update persists the status-related fields of the order. It never
	// touches amount, items or payment beyond pay_status.
	Update(ctx context.Context, order model.Order) error
	// CountByFilter counts orders inside the window; a nil status means no
	// status filter.
	CountByFilter(ctx context.Context, win TimeWindow, status *model.Status) (int, error)
	// SumAmountByFilter sums order amounts inside the window for the given
	// status. An invalid (NULL) result means no rows matched, which is not
	// an error.
	SumAmountByFilter(ctx context.Context, win TimeWindow, status model.Status) (sql.NullFloat64, error)
	// TopSellingItems ranks item names by total quantity sold on completed
	// orders inside the window, descending. Ties break by name ascending.
	TopSellingItems(ctx context.Context, win TimeWindow, limit int) ([]model.ItemSales, error)
}

// UserStore exposes the single count the reporting side needs. A zero
// win.Begin counts all users registered up to win.End; a set Begin counts
// registrations inside the window.
type UserStore interface {
	CountByFilter(ctx context.Context, win TimeWindow) (int, error)
}
