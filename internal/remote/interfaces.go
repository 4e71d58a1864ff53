// Package remote defines the contract with the hosted backend: order
// submission, menu reads and a liveness probe. The Postgres
// implementations live in remote/postgres.
package remote

import (
	"context"
	"time"

	"github.com/bitesync/bitesync/internal/models"
)

type OrderService interface {
	// InsertOrder writes the order header. The client-generated order ID
	// is the remote primary key, so a resubmission after a lost success
	// response fails with a duplicate-key error (KindDuplicate).
	InsertOrder(ctx context.Context, order *models.Order) error
	InsertOrderItems(ctx context.Context, orderID string, items []models.OrderItem) error
	InsertStatusLog(ctx context.Context, orderID string, status string, at time.Time) error
}

type MenuService interface {
	// ListCategories returns active categories ordered by display order.
	ListCategories(ctx context.Context) ([]models.Category, error)
	// ListMenuItems returns available items ordered by display order.
	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
}

type HealthChecker interface {
	// Ping is lightweight and side-effect free; used only to decide
	// whether a sync pass is worth attempting.
	Ping(ctx context.Context) error
}
