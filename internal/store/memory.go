package store

import (
	"context"
	"sync"
	"time"

	"github.com/bitesync/bitesync/internal/models"
)

// Memory is a session-scoped order queue used when the capability probe
// reports that durable storage is unavailable. Orders are still accepted
// and synced, but do not survive a process restart.
type Memory struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	logs   []models.SyncLogEntry
}

func NewMemory() *Memory {
	return &Memory{orders: make(map[string]*models.Order)}
}

func (m *Memory) EnqueueOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *order
	clone.Items = append([]models.OrderItem(nil), order.Items...)
	m.orders[order.ID] = &clone
	return nil
}

func (m *Memory) ListUnsyncedOrders(ctx context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if !o.Synced {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *Memory) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *o
	return &clone, nil
}

func (m *Memory) MarkSynced(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok && !o.Synced {
		now := time.Now().UTC()
		o.Synced = true
		o.LastSyncError = ""
		o.LastSyncAttemptAt = &now
	}
	return nil
}

func (m *Memory) MarkSyncFailed(ctx context.Context, id string, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok && !o.Synced {
		now := time.Now().UTC()
		o.SyncAttempts++
		o.LastSyncError = msg
		o.LastSyncAttemptAt = &now
	}
	return nil
}

func (m *Memory) ResetSyncAttempts(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if !o.Synced {
			o.SyncAttempts = 0
			o.LastSyncError = ""
		}
	}
	return nil
}

func (m *Memory) PendingOrderCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, o := range m.orders {
		if !o.Synced {
			count++
		}
	}
	return count, nil
}

func (m *Memory) AppendSyncLog(ctx context.Context, entry *models.SyncLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, *entry)
	return nil
}
