package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bitesync/bitesync/internal/models"
	"github.com/bitesync/bitesync/internal/remote"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) InsertOrder(ctx context.Context, order *models.Order) error {
	query := `
        INSERT INTO orders (
            id, customer_name, customer_email, customer_phone,
            total_amount, status, notes, created_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8
        )
    `

	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.TotalAmount,
		order.Status,
		order.Notes,
		order.CreatedAt,
	)
	if err != nil {
		return remote.Classify(err)
	}
	return nil
}

func (r *OrderRepository) InsertOrderItems(ctx context.Context, orderID string, items []models.OrderItem) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"order_items"},
		[]string{
			"order_id", "menu_item_id", "item_name", "quantity",
			"unit_price", "line_total", "position",
		},
		pgx.CopyFromSlice(len(items), func(i int) ([]interface{}, error) {
			return []interface{}{
				orderID,
				items[i].MenuItemID,
				items[i].ItemName,
				items[i].Quantity,
				items[i].UnitPrice,
				items[i].LineTotal,
				i,
			}, nil
		}),
	)
	if err != nil {
		return remote.Classify(err)
	}
	return nil
}

func (r *OrderRepository) InsertStatusLog(ctx context.Context, orderID string, status string, at time.Time) error {
	query := `
        INSERT INTO order_status_logs (order_id, status, created_at)
        VALUES ($1, $2, $3)
    `

	_, err := r.pool.Exec(ctx, query, orderID, status, at)
	if err != nil {
		return remote.Classify(err)
	}
	return nil
}
