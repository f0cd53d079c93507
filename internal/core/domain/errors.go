package domain

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")

	// ErrInsufficientStock means the stock check under the row lock failed.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConstraintViolated means a concurrent mutation tripped the database
	// stock constraint. Callers treat it exactly like ErrInsufficientStock.
	ErrConstraintViolated = errors.New("stock constraint violated")

	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)
