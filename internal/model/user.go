package model

import "time"

// User is a customer account. Customers are created by the checkout flow;
// the reporting side only ever counts them by registration time.
type User struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	CreatedAt time.Time `json:"created_at"`
}

// Employee is a back-office account with access to the admin API.
type Employee struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
