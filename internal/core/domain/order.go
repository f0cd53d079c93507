package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further automatic transition happens from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed
}

// allowedFrom maps a target status to the statuses it may be entered from.
// failed -> processing is the retry edge; completed is never left.
var allowedFrom = map[OrderStatus][]OrderStatus{
	OrderStatusProcessing: {OrderStatusPending, OrderStatusFailed},
	OrderStatusCompleted:  {OrderStatusProcessing},
	OrderStatusFailed:     {OrderStatusProcessing},
}

// CanTransition reports whether from -> to is a legal status change.
// An order can never move back before the furthest state it reached, so a
// redelivered task cannot regress a completed order.
func CanTransition(from, to OrderStatus) bool {
	for _, f := range allowedFrom[to] {
		if f == from {
			return true
		}
	}
	return false
}

// TransitionSources returns the statuses from which to may be entered.
func TransitionSources(to OrderStatus) []OrderStatus {
	return allowedFrom[to]
}

type Order struct {
	ID         string
	ProductID  string
	Quantity   int
	TotalPrice float64
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
