package store

import (
	"context"

	"github.com/bitesync/bitesync/internal/models"
)

// OrderQueue is the pending-order surface shared by the durable store and
// the in-memory fallback used when local storage capability is absent.
type OrderQueue interface {
	EnqueueOrder(ctx context.Context, order *models.Order) error
	ListUnsyncedOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncFailed(ctx context.Context, id string, msg string) error
	ResetSyncAttempts(ctx context.Context) error
	PendingOrderCount(ctx context.Context) (int, error)
	AppendSyncLog(ctx context.Context, entry *models.SyncLogEntry) error
}

var (
	_ OrderQueue = (*Store)(nil)
	_ OrderQueue = (*Memory)(nil)
)
