package domain

import (
	"strings"
	"time"
)

type Product struct {
	ID        string
	Name      string
	Price     float64
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the catalog invariants: positive price, non-negative stock.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidProduct
	}
	if p.Price <= 0 {
		return ErrInvalidProduct
	}
	if p.Stock < 0 {
		return ErrInvalidProduct
	}
	return nil
}

// ProductPatch carries a partial update; nil fields are left unchanged.
type ProductPatch struct {
	Name  *string
	Price *float64
	Stock *int
}

func (p ProductPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrInvalidProduct
	}
	if p.Price != nil && *p.Price <= 0 {
		return ErrInvalidProduct
	}
	if p.Stock != nil && *p.Stock < 0 {
		return ErrInvalidProduct
	}
	return nil
}
