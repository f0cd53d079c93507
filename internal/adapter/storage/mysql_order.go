package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dhnam/shoplite/internal/core/domain"
)

type MySQLOrderStore struct {
	db *sql.DB
}

func NewMySQLOrderStore(db *sql.DB) *MySQLOrderStore {
	return &MySQLOrderStore{db: db}
}

// Reserve runs the whole reservation in one transaction: lock the product
// row, re-read stock under the lock, decrement, insert the order. The lock
// is held only for this check-decrement-insert sequence; commit releases it.
func (s *MySQLOrderStore) Reserve(ctx context.Context, productID string, quantity int) (domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var price float64
	var stock int
	err = tx.QueryRowContext(ctx, `
		SELECT price, stock FROM products WHERE id = ? FOR UPDATE`, productID,
	).Scan(&price, &stock)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("lock product: %w", err)
	}

	if stock < quantity {
		return domain.Order{}, domain.ErrInsufficientStock
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE products SET stock = stock - ?, updated_at = NOW()
		WHERE id = ?`, quantity, productID,
	)
	if isCheckViolation(err) {
		return domain.Order{}, domain.ErrConstraintViolated
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("decrement stock: %w", err)
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:         uuid.NewString(),
		ProductID:  productID,
		Quantity:   quantity,
		TotalPrice: price * float64(quantity),
		Status:     domain.OrderStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, product_id, quantity, total_price, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.ProductID, order.Quantity, order.TotalPrice, order.Status,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit: %w", err)
	}
	return order, nil
}

func (s *MySQLOrderStore) GetByID(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, quantity, total_price, status, created_at, updated_at
		FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.ProductID, &o.Quantity, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("query order: %w", err)
	}
	return o, nil
}

func (s *MySQLOrderStore) List(ctx context.Context, page, pageSize int, status domain.OrderStatus) ([]domain.Order, int, error) {
	where := ""
	args := []any{}
	if status != "" {
		where = "WHERE status = ?"
		args = append(args, status)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, quantity, total_price, status, created_at, updated_at
		FROM orders `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, append(args, pageSize, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Quantity, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

// Transition applies the status change only when the current status is a
// legal predecessor, guarding in SQL so concurrent workers cannot regress
// an order past its furthest state.
func (s *MySQLOrderStore) Transition(ctx context.Context, orderID string, to domain.OrderStatus) (bool, error) {
	sources := domain.TransitionSources(to)
	if len(sources) == 0 {
		return false, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(sources)), ", ")
	args := []any{to, orderID}
	for _, from := range sources {
		args = append(args, from)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = NOW()
		WHERE id = ? AND status IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
