package agent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitesync/bitesync/internal/capability"
	"github.com/bitesync/bitesync/internal/models"
	"github.com/bitesync/bitesync/internal/store"
)

func newDegradedAgent() *Agent {
	return &Agent{
		queue: store.NewMemory(),
		log:   zerolog.Nop(),
		cap:   capability.Capability{Degraded: true},
	}
}

func newDurableAgent(t *testing.T) *Agent {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "agent.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return &Agent{
		store: st,
		queue: st,
		log:   zerolog.Nop(),
		cap:   capability.Capability{Database: true, KeyValue: true, BlobCache: true},
	}
}

func TestSubmitOrderComputesTotals(t *testing.T) {
	a := newDurableAgent(t)
	ctx := context.Background()

	id, err := a.SubmitOrder(ctx, models.OrderInput{
		CustomerName: "Dana Willis",
		Items: []models.OrderItemInput{
			{MenuItemID: "mi-1", ItemName: "Margherita", Quantity: 1, UnitPrice: 12.99},
			{MenuItemID: "mi-2", ItemName: "Tiramisu", Quantity: 2, UnitPrice: 6.50},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	order, err := a.store.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.InDelta(t, 25.99, order.TotalAmount, 0.001)
	assert.False(t, order.Synced)
	assert.Zero(t, order.SyncAttempts)
	require.Len(t, order.Items, 2)
	assert.InDelta(t, 12.99, order.Items[0].LineTotal, 0.001)
	assert.InDelta(t, 13.00, order.Items[1].LineTotal, 0.001)
	assert.Equal(t, 0, order.Items[0].Position)
	assert.Equal(t, 1, order.Items[1].Position)
}

func TestSubmitOrderValidation(t *testing.T) {
	a := newDurableAgent(t)
	ctx := context.Background()

	_, err := a.SubmitOrder(ctx, models.OrderInput{
		Items: []models.OrderItemInput{{MenuItemID: "mi-1", Quantity: 1, UnitPrice: 5}},
	})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = a.SubmitOrder(ctx, models.OrderInput{CustomerName: "Dana Willis"})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = a.SubmitOrder(ctx, models.OrderInput{
		CustomerName: "Dana Willis",
		Items:        []models.OrderItemInput{{MenuItemID: "mi-1", Quantity: 0, UnitPrice: 5}},
	})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	count, err := a.PendingOrderCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "rejected orders must not be queued")
}

func TestSubmitOrderIDsAreUnique(t *testing.T) {
	a := newDegradedAgent()
	ctx := context.Background()
	input := models.OrderInput{
		CustomerName: "Dana Willis",
		Items:        []models.OrderItemInput{{MenuItemID: "mi-1", ItemName: "Espresso", Quantity: 1, UnitPrice: 3.20}},
	}

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := a.SubmitOrder(ctx, input)
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate order id %s", id)
		seen[id] = true
	}
}

func TestDegradedModeStillAcceptsOrders(t *testing.T) {
	a := newDegradedAgent()
	ctx := context.Background()

	assert.True(t, a.Degraded())

	id, err := a.SubmitOrder(ctx, models.OrderInput{
		CustomerName: "Sam Ortiz",
		Items:        []models.OrderItemInput{{MenuItemID: "mi-9", ItemName: "Lemonade", Quantity: 3, UnitPrice: 2.75}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	count, err := a.PendingOrderCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stats, err := a.CacheStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PendingOrders)
	assert.Zero(t, stats.Categories)

	assert.Error(t, a.RefreshCache(ctx))
	assert.NoError(t, a.ClearAll(ctx), "reset is a no-op without a durable store")
}

func TestCacheStatisticsDurable(t *testing.T) {
	a := newDurableAgent(t)
	ctx := context.Background()

	_, err := a.SubmitOrder(ctx, models.OrderInput{
		CustomerName: "Sam Ortiz",
		Items:        []models.OrderItemInput{{MenuItemID: "mi-9", ItemName: "Lemonade", Quantity: 1, UnitPrice: 2.75}},
	})
	require.NoError(t, err)

	stats, err := a.CacheStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PendingOrders)
	assert.Nil(t, stats.LastCacheUpdate)
}
