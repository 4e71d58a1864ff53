// Package agent assembles the offline order capture core: durable store
// (or in-memory fallback), network monitor, sync engine, cache manager
// and optional event publishing. Everything is explicitly constructed
// and passed down; there are no package-level singletons.
package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucsky/cuid"
	"github.com/rs/zerolog"

	"github.com/bitesync/bitesync/internal/cache"
	"github.com/bitesync/bitesync/internal/capability"
	"github.com/bitesync/bitesync/internal/events"
	"github.com/bitesync/bitesync/internal/models"
	"github.com/bitesync/bitesync/internal/netmon"
	"github.com/bitesync/bitesync/internal/remote/postgres"
	"github.com/bitesync/bitesync/internal/store"
	"github.com/bitesync/bitesync/internal/syncengine"
)

var ErrInvalidOrder = errors.New("agent: invalid order")

type Agent struct {
	cfg *models.Config
	log zerolog.Logger
	cap capability.Capability

	store    *store.Store // nil in degraded mode
	queue    store.OrderQueue
	pool     *pgxpool.Pool
	monitor  *netmon.Monitor
	engine   *syncengine.Engine
	cache    *cache.Manager // nil in degraded mode
	producer *events.Producer
}

// New probes the environment, opens local storage (falling back to a
// session-scoped in-memory queue when degraded) and wires the sync
// machinery. The backend pool is created lazily so startup succeeds
// offline.
func New(ctx context.Context, cfg *models.Config, log zerolog.Logger) (*Agent, error) {
	a := &Agent{cfg: cfg, log: log}

	a.cap = capability.Probe(ctx, cfg.DataDir, log)
	if a.cap.Degraded {
		log.Warn().Msg("running with in-memory order queue; orders will not survive a restart")
		a.queue = store.NewMemory()
	} else {
		st, err := store.Open(filepath.Join(cfg.DataDir, "bitesync.db"), log)
		if err != nil {
			return nil, fmt.Errorf("error opening local store: %w", err)
		}
		a.store = st
		a.queue = st
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		a.closeStore()
		return nil, fmt.Errorf("error configuring backend pool: %w", err)
	}
	a.pool = pool

	orderRepo := postgres.NewOrderRepository(pool)
	menuRepo := postgres.NewMenuRepository(pool)
	health := postgres.NewHealth(pool)

	a.monitor = netmon.New(health, netmon.Options{
		CheckInterval: cfg.NetCheckInterval,
		ProbeTimeout:  cfg.HealthTimeout,
	}, log)

	var pub syncengine.Publisher
	if cfg.KafkaEnabled {
		producer, err := events.NewProducer(cfg, log)
		if err != nil {
			log.Warn().Err(err).Msg("event publishing disabled")
		} else {
			a.producer = producer
			pub = producer
		}
	}

	a.engine = syncengine.New(a.queue, orderRepo, a.monitor, pub, syncengine.Config{
		Interval:      cfg.SyncInterval,
		SettleDelay:   cfg.SettleDelay,
		MaxAttempts:   cfg.MaxSyncAttempts,
		SubmitTimeout: cfg.SubmitTimeout,
		MaxBackoff:    cfg.MaxBackoff,
	}, log)

	if a.store != nil {
		fetcher := &cache.RoutingFetcher{HTTP: cache.NewHTTPFetcher(cfg.FetchTimeout)}
		if cfg.S3Region != "" {
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
			if err != nil {
				log.Warn().Err(err).Msg("s3 asset fetching disabled")
			} else {
				fetcher.S3 = cache.NewS3Fetcher(s3.NewFromConfig(awsCfg))
			}
		}
		expiry := time.Duration(cfg.AssetExpiryHours) * time.Hour
		a.cache = cache.NewManager(a.store, menuRepo, fetcher, expiry, log)
	}

	return a, nil
}

// Run starts the background machinery and blocks until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	a.monitor.Start()
	a.engine.Start()
	<-ctx.Done()
	return ctx.Err()
}

func (a *Agent) Close() {
	if a.engine != nil {
		a.engine.Stop()
	}
	if a.monitor != nil {
		a.monitor.Close()
	}
	if a.producer != nil {
		a.producer.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	a.closeStore()
}

func (a *Agent) closeStore() {
	if a.store != nil {
		a.store.Close()
	}
}

// Capability reports the startup storage probe result.
func (a *Agent) Capability() capability.Capability { return a.cap }

// Degraded is true when orders are only held in memory for this session.
func (a *Agent) Degraded() bool { return a.cap.Degraded }

// SubmitOrder accepts an order locally and returns its ID immediately.
// It never blocks on the network; the sync engine reconciles later.
func (a *Agent) SubmitOrder(ctx context.Context, input models.OrderInput) (string, error) {
	if input.CustomerName == "" {
		return "", fmt.Errorf("%w: customer name is required", ErrInvalidOrder)
	}
	if len(input.Items) == 0 {
		return "", fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	}

	order := &models.Order{
		ID:            cuid.New(),
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,
		Status:        models.OrderStatusPending,
		Notes:         input.Notes,
		CreatedAt:     time.Now().UTC(),
	}
	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return "", fmt.Errorf("%w: item %d has non-positive quantity", ErrInvalidOrder, i)
		}
		lineTotal := float64(item.Quantity) * item.UnitPrice
		order.Items = append(order.Items, models.OrderItem{
			OrderID:    order.ID,
			MenuItemID: item.MenuItemID,
			ItemName:   item.ItemName,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LineTotal:  lineTotal,
			Position:   i,
		})
		order.TotalAmount += lineTotal
	}

	if err := a.queue.EnqueueOrder(ctx, order); err != nil {
		return "", fmt.Errorf("error queueing order: %w", err)
	}
	a.log.Info().Str("order_id", order.ID).Float64("total", order.TotalAmount).
		Int("items", len(order.Items)).Msg("order queued")
	return order.ID, nil
}

func (a *Agent) PendingOrderCount(ctx context.Context) (int, error) {
	return a.queue.PendingOrderCount(ctx)
}

// ForceSyncNow resets retry counters and drains the queue immediately.
func (a *Agent) ForceSyncNow(ctx context.Context) (syncengine.Report, error) {
	return a.engine.ForceSync(ctx)
}

// CacheStatistics aggregates local cache state for display. In degraded
// mode only the pending-order count is meaningful.
func (a *Agent) CacheStatistics(ctx context.Context) (*models.CacheStats, error) {
	if a.store == nil {
		pending, err := a.queue.PendingOrderCount(ctx)
		if err != nil {
			return nil, err
		}
		return &models.CacheStats{PendingOrders: pending}, nil
	}
	return a.store.CacheStats(ctx)
}

// RefreshCache refreshes the local menu cache from the backend. Not
// available in degraded mode.
func (a *Agent) RefreshCache(ctx context.Context) error {
	if a.cache == nil {
		return errors.New("agent: cache unavailable in degraded mode")
	}
	err := a.cache.RefreshMenu(ctx)
	if err == nil && a.producer != nil {
		if stats, statsErr := a.store.CacheStats(ctx); statsErr == nil {
			a.producer.MenuCached(stats.Categories, stats.MenuItems)
		}
	}
	return err
}

// CacheManager exposes the cache layer (nil when degraded).
func (a *Agent) CacheManager() *cache.Manager { return a.cache }

// Store exposes the durable store (nil when degraded).
func (a *Agent) Store() *store.Store { return a.store }

// OnConnectivityChange registers fn for online/offline transitions and
// returns an unsubscribe function.
func (a *Agent) OnConnectivityChange(fn func(online bool)) func() {
	return a.monitor.OnChange(fn)
}

// ClearAll wipes local state (logout / reset).
func (a *Agent) ClearAll(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.ClearAll(ctx)
}
