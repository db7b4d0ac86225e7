package model

import (
	"time"
)

// Status is the order lifecycle state. Stored as text in the orders table.
type Status string

const (
	StatusPendingPayment     Status = "PENDING_PAYMENT"
	StatusToBeConfirmed      Status = "TO_BE_CONFIRMED"
	StatusConfirmed          Status = "CONFIRMED"
	StatusDeliveryInProgress Status = "DELIVERY_IN_PROGRESS"
	StatusCompleted          Status = "COMPLETED"
	StatusCancelled          Status = "CANCELLED"
)

// transitions is the single source of truth for legal lifecycle moves.
// Cancellation is a side branch reachable from every non-terminal state;
// COMPLETED and CANCELLED are terminal.
var transitions = map[Status][]Status{
	StatusPendingPayment:     {StatusToBeConfirmed, StatusCancelled},
	StatusToBeConfirmed:      {StatusConfirmed, StatusCancelled},
	StatusConfirmed:          {StatusDeliveryInProgress, StatusCancelled},
	StatusDeliveryInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:          {},
	StatusCancelled:          {},
}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to target is a legal
// lifecycle transition.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// PayStatus tracks the payment side of an order.
type PayStatus string

const (
	PayStatusUnpaid   PayStatus = "UNPAID"
	PayStatusPaid     PayStatus = "PAID"
	PayStatusRefunded PayStatus = "REFUNDED"
)

// Order is a single food order. CancelReason and CancelTime are set if and
// only if Status is CANCELLED.
type Order struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Number       string     `json:"number"`
	Status       Status     `json:"status"`
	PayStatus    PayStatus  `json:"pay_status"`
	Amount       float64    `json:"amount"`
	OrderTime    time.Time  `json:"order_time"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	CancelTime   *time.Time `json:"cancel_time,omitempty"`
}

// OrderItem is one line of an order, kept for sales ranking.
type OrderItem struct {
	OrderID  string `json:"order_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ItemSales is an aggregate row produced by TopSellingItems.
type ItemSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
