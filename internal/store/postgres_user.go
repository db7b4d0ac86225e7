package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresUserStore implements UserStore over the users table.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) CountByFilter(ctx context.Context, win TimeWindow) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE created_at <= $1`
	args := []any{win.End}
	if !win.Begin.IsZero() {
		query += ` AND created_at >= $2`
		args = append(args, win.Begin)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
