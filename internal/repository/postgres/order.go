package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/egannguyen/go-cart-service/internal/entity"
	"github.com/egannguyen/go-cart-service/internal/repository"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository backed by Postgres.
func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

// SaveProjection writes a placed order into the read model. Replayed
// orders are skipped via ON CONFLICT so the write is idempotent.
func (r *orderRepository) SaveProjection(ctx context.Context, order entity.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var inserted bool
	err = tx.QueryRowContext(ctx,
		"INSERT INTO orders (id, total, original_total, savings, status, created_at) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING RETURNING true",
		order.ID, order.Total, order.OriginalTotal, order.Savings, order.Status, order.CreatedAt,
	).Scan(&inserted)
	if err == sql.ErrNoRows {
		// Already projected.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, title, price, discount_percentage, quantity) VALUES ($1, $2, $3, $4, $5, $6)",
			order.ID, item.ProductID, item.Title, item.Price, item.Discount, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *orderRepository) FindRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, total, original_total, savings, status, created_at FROM orders ORDER BY created_at DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		var o entity.Order
		if err := rows.Scan(&o.ID, &o.Total, &o.OriginalTotal, &o.Savings, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Fetch items for each order.
	for i := range orders {
		itemRows, err := r.db.QueryContext(ctx,
			"SELECT product_id, title, price, discount_percentage, quantity FROM order_items WHERE order_id = $1",
			orders[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to query order items: %w", err)
		}

		for itemRows.Next() {
			var item entity.OrderItem
			if err := itemRows.Scan(&item.ProductID, &item.Title, &item.Price, &item.Discount, &item.Quantity); err != nil {
				itemRows.Close()
				return nil, fmt.Errorf("failed to scan order item: %w", err)
			}
			orders[i].Items = append(orders[i].Items, item)
		}
		itemRows.Close()
	}

	return orders, nil
}
