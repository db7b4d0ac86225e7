package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mealmart/internal/model"
)

// PostgresOrderStore implements OrderStore over the orders and order_items
// tables.
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

const orderColumns = `id, user_id, number, status, pay_status, amount, order_time, cancel_reason, cancel_time`

func scanOrder(row interface{ Scan(...any) error }) (model.Order, error) {
	var (
		o            model.Order
		cancelReason sql.NullString
		cancelTime   sql.NullTime
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Number, &o.Status, &o.PayStatus,
		&o.Amount, &o.OrderTime, &cancelReason, &cancelTime)
	if err != nil {
		return model.Order{}, err
	}
	if cancelReason.Valid {
		o.CancelReason = cancelReason.String
	}
	if cancelTime.Valid {
		t := cancelTime.Time
		o.CancelTime = &t
	}
	return o, nil
}

func (s *PostgresOrderStore) GetByID(ctx context.Context, id string) (model.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *PostgresOrderStore) FindByStatusBefore(ctx context.Context, status model.Status, cutoff time.Time) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = $1 AND order_time < $2
		ORDER BY order_time ASC
	`, status, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query stale orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, nil
}

func (s *PostgresOrderStore) Update(ctx context.Context, order model.Order) error {
	var (
		cancelReason sql.NullString
		cancelTime   sql.NullTime
	)
	if order.CancelReason != "" {
		cancelReason = sql.NullString{String: order.CancelReason, Valid: true}
	}
	if order.CancelTime != nil {
		cancelTime = sql.NullTime{Time: *order.CancelTime, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, pay_status = $2, cancel_reason = $3, cancel_time = $4
		WHERE id = $5
	`, order.Status, order.PayStatus, cancelReason, cancelTime, order.ID)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("order %s: %w", order.ID, ErrNotFound)
	}

	return nil
}

func (s *PostgresOrderStore) CountByFilter(ctx context.Context, win TimeWindow, status *model.Status) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE order_time >= $1 AND order_time <= $2`
	args := []any{win.Begin, win.End}
	if status != nil {
		query += ` AND status = $3`
		args = append(args, *status)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func (s *PostgresOrderStore) SumAmountByFilter(ctx context.Context, win TimeWindow, status model.Status) (sql.NullFloat64, error) {
	var sum sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(amount) FROM orders
		WHERE order_time >= $1 AND order_time <= $2 AND status = $3
	`, win.Begin, win.End, status).Scan(&sum)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("sum order amounts: %w", err)
	}
	return sum, nil
}

func (s *PostgresOrderStore) TopSellingItems(ctx context.Context, win TimeWindow, limit int) ([]model.ItemSales, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT oi.name, SUM(oi.quantity) AS quantity
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = $1 AND o.order_time >= $2 AND o.order_time <= $3
		GROUP BY oi.name
		ORDER BY quantity DESC, oi.name ASC
		LIMIT $4
	`, model.StatusCompleted, win.Begin, win.End, limit)
	if err != nil {
		return nil, fmt.Errorf("query top sellers: %w", err)
	}
	defer rows.Close()

	var sales []model.ItemSales
	for rows.Next() {
		var s model.ItemSales
		if err := rows.Scan(&s.Name, &s.Quantity); err != nil {
			return nil, fmt.Errorf("scan top seller: %w", err)
		}
		sales = append(sales, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return sales, nil
}
