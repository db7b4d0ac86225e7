package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"mealmart/internal/model"
)

var (
	ErrLoginTaken         = errors.New("login already exists")
	ErrInvalidCredentials = errors.New("invalid login or password")
)

// AuthService manages back-office employee accounts for the admin API.
type AuthService struct {
	db *sql.DB
}

func NewAuthService(db *sql.DB) *AuthService {
	return &AuthService{db: db}
}

func (s *AuthService) Register(ctx context.Context, login, password string) (*model.Employee, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	query := `INSERT INTO employees (login, password_hash) VALUES ($1, $2) RETURNING id, login, created_at`
	row := s.db.QueryRowContext(ctx, query, login, hash)

	var emp model.Employee
	if err := row.Scan(&emp.ID, &emp.Login, &emp.CreatedAt); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, ErrLoginTaken
		}
		return nil, fmt.Errorf("insert employee: %w", err)
	}
	emp.PasswordHash = hash

	return &emp, nil
}

func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*model.Employee, error) {
	query := `SELECT id, login, password_hash, created_at FROM employees WHERE login = $1`
	row := s.db.QueryRowContext(ctx, query, login)

	var emp model.Employee
	if err := row.Scan(&emp.ID, &emp.Login, &emp.PasswordHash, &emp.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(emp.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &emp, nil
}
