// Package syncengine drains the local pending-order queue against the
// remote backend: one pass at a time, oldest order first, each order
// retried independently with exponential backoff.
package syncengine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bitesync/bitesync/internal/models"
	"github.com/bitesync/bitesync/internal/remote"
)

// Connectivity is the slice of the network monitor the engine consumes.
type Connectivity interface {
	IsOnline() bool
	CheckServerConnection(ctx context.Context) bool
	OnChange(fn func(online bool)) func()
}

// Queue is the slice of the local store the engine consumes.
type Queue interface {
	ListUnsyncedOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncFailed(ctx context.Context, id string, msg string) error
	ResetSyncAttempts(ctx context.Context) error
	AppendSyncLog(ctx context.Context, entry *models.SyncLogEntry) error
}

// Publisher receives notifications for successfully synced orders.
// Optional; may be nil.
type Publisher interface {
	OrderSynced(order *models.Order)
}

type Config struct {
	Interval      time.Duration // periodic pass cadence
	SettleDelay   time.Duration // wait after a reconnect before syncing
	MaxAttempts   int           // automatic retry ceiling per order
	SubmitTimeout time.Duration // bound on one order's remote submission
	MaxBackoff    time.Duration // retry delay cap
}

func (c *Config) defaults() {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = 30 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 60 * time.Second
	}
}

// Report summarizes one sync pass.
type Report struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type Engine struct {
	queue  Queue
	orders remote.OrderService
	net    Connectivity
	pub    Publisher
	cfg    Config
	log    zerolog.Logger

	// at-most-one-concurrent-pass guard
	passRunning atomic.Bool

	// retry bookkeeping; the engine owns every outstanding timer and
	// cancels them all on Stop
	timerMu     sync.Mutex
	retryTimers map[string]*time.Timer
	settleTimer *time.Timer

	ticker      *time.Ticker
	unsubscribe func()
	stop        chan struct{}
	wg          sync.WaitGroup
	stopOnce    sync.Once
	stopped     atomic.Bool
}

func New(queue Queue, orders remote.OrderService, net Connectivity, pub Publisher, cfg Config, log zerolog.Logger) *Engine {
	cfg.defaults()
	return &Engine{
		queue:       queue,
		orders:      orders,
		net:         net,
		pub:         pub,
		cfg:         cfg,
		log:         log,
		retryTimers: make(map[string]*time.Timer),
		stop:        make(chan struct{}),
	}
}

// Start begins the periodic pass loop and reacts to connectivity
// restoration after a short settle delay.
func (e *Engine) Start() {
	e.ticker = time.NewTicker(e.cfg.Interval)
	e.unsubscribe = e.net.OnChange(func(online bool) {
		if !online {
			return
		}
		e.timerMu.Lock()
		if e.settleTimer != nil {
			e.settleTimer.Stop()
		}
		e.settleTimer = time.AfterFunc(e.cfg.SettleDelay, func() {
			if e.stopped.Load() {
				return
			}
			e.SyncPass(context.Background())
		})
		e.timerMu.Unlock()
	})

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case <-e.stop:
				return
			case <-e.ticker.C:
				e.SyncPass(context.Background())
			}
		}
	}()
}

// Stop cancels the periodic loop, the connectivity subscription and every
// outstanding per-order retry timer.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.stopped.Store(true)
		close(e.stop)
		if e.ticker != nil {
			e.ticker.Stop()
		}
		if e.unsubscribe != nil {
			e.unsubscribe()
		}
		e.timerMu.Lock()
		if e.settleTimer != nil {
			e.settleTimer.Stop()
			e.settleTimer = nil
		}
		for id, t := range e.retryTimers {
			t.Stop()
			delete(e.retryTimers, id)
		}
		e.timerMu.Unlock()
		e.wg.Wait()
	})
}

// SyncPass drains the queue once. If a pass is already in progress, or
// the link or server is down, it returns an empty report immediately.
// Individual order failures never abort the batch.
func (e *Engine) SyncPass(ctx context.Context) Report {
	if !e.passRunning.CompareAndSwap(false, true) {
		return Report{}
	}
	defer e.passRunning.Store(false)

	if !e.net.IsOnline() {
		return Report{}
	}
	if !e.net.CheckServerConnection(ctx) {
		return Report{}
	}

	orders, err := e.queue.ListUnsyncedOrders(ctx)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to load unsynced orders")
		return Report{}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	var report Report
	for i := range orders {
		order := &orders[i]
		if order.SyncAttempts >= e.cfg.MaxAttempts {
			continue
		}
		if err := e.syncOrder(ctx, order); err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	if report.Succeeded > 0 || report.Failed > 0 {
		e.log.Info().
			Int("succeeded", report.Succeeded).
			Int("failed", report.Failed).
			Msg("sync pass complete")
	}
	return report
}

// ForceSync is the user-facing retry entry point: it resets attempt
// counters (bypassing the automatic ceiling) and runs a pass immediately.
func (e *Engine) ForceSync(ctx context.Context) (Report, error) {
	if err := e.queue.ResetSyncAttempts(ctx); err != nil {
		return Report{}, fmt.Errorf("error resetting sync attempts: %w", err)
	}
	return e.SyncPass(ctx), nil
}

// syncOrder runs one submission attempt for one order and updates local
// state from the outcome.
func (e *Engine) syncOrder(ctx context.Context, order *models.Order) error {
	err := e.submit(ctx, order)
	if err != nil {
		msg := err.Error()
		if markErr := e.queue.MarkSyncFailed(ctx, order.ID, msg); markErr != nil {
			e.log.Error().Err(markErr).Str("order_id", order.ID).Msg("failed to record sync failure")
		}
		e.appendLog(ctx, models.SyncActionOrderSync, models.SyncOutcomeError,
			fmt.Sprintf("order %s attempt %d", order.ID, order.SyncAttempts+1), msg)
		e.scheduleRetry(order.ID, order.SyncAttempts+1)
		return err
	}

	if markErr := e.queue.MarkSynced(ctx, order.ID); markErr != nil {
		e.log.Error().Err(markErr).Str("order_id", order.ID).Msg("failed to mark order synced")
		return markErr
	}
	e.cancelRetry(order.ID)
	e.appendLog(ctx, models.SyncActionOrderSync, models.SyncOutcomeSuccess,
		fmt.Sprintf("order %s", order.ID), "")
	if e.pub != nil {
		e.pub.OrderSynced(order)
	}
	return nil
}

// submit performs the three dependent remote writes: header first (the
// authoritative existence marker), items second, status log last. A
// duplicate-key rejection on the header means a previous attempt already
// landed; that is success, and the items are not re-sent.
func (e *Engine) submit(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SubmitTimeout)
	defer cancel()

	if err := e.orders.InsertOrder(ctx, order); err != nil {
		if remote.IsDuplicate(err) {
			e.log.Debug().Str("order_id", order.ID).Msg("order already exists remotely, treating as synced")
			return nil
		}
		return fmt.Errorf("insert order header: %w", err)
	}
	if err := e.orders.InsertOrderItems(ctx, order.ID, order.Items); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	if err := e.orders.InsertStatusLog(ctx, order.ID, models.OrderStatusPending, order.CreatedAt); err != nil {
		return fmt.Errorf("insert status log: %w", err)
	}
	return nil
}

// scheduleRetry arms (or re-arms) the independent retry timer for one
// order. attempts is the post-failure counter value.
func (e *Engine) scheduleRetry(id string, attempts int) {
	if attempts >= e.cfg.MaxAttempts {
		e.log.Warn().Str("order_id", id).Int("attempts", attempts).
			Msg("order reached automatic retry ceiling; manual sync required")
		return
	}
	delay := backoffDelay(attempts, e.cfg.MaxBackoff)

	e.timerMu.Lock()
	defer e.timerMu.Unlock()
	if e.stopped.Load() {
		return
	}
	if t, ok := e.retryTimers[id]; ok {
		t.Stop()
	}
	e.retryTimers[id] = time.AfterFunc(delay, func() {
		e.retryOrder(id)
	})
	e.log.Debug().Str("order_id", id).Dur("delay", delay).Msg("retry scheduled")
}

func (e *Engine) cancelRetry(id string) {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()
	if t, ok := e.retryTimers[id]; ok {
		t.Stop()
		delete(e.retryTimers, id)
	}
}

// retryOrder is the per-order timer callback. It re-reads current state
// immediately before acting: the order may have been synced by an
// intervening pass, or force-synced, or the engine may be shutting down.
func (e *Engine) retryOrder(id string) {
	if e.stopped.Load() {
		return
	}
	e.cancelRetry(id)

	ctx := context.Background()
	order, err := e.queue.GetOrder(ctx, id)
	if err != nil {
		e.log.Error().Err(err).Str("order_id", id).Msg("retry: failed to reload order")
		return
	}
	if order.Synced || order.SyncAttempts >= e.cfg.MaxAttempts {
		return
	}
	if !e.net.IsOnline() {
		// leave it to the reconnect trigger; re-arm nothing here so a
		// flapping link does not spin
		return
	}
	if err := e.syncOrder(ctx, order); err != nil {
		e.log.Debug().Err(err).Str("order_id", id).Msg("retry attempt failed")
	}
}

func (e *Engine) appendLog(ctx context.Context, action, outcome, detail, errMsg string) {
	entry := &models.SyncLogEntry{
		Action:  action,
		Outcome: outcome,
		Detail:  detail,
		Error:   errMsg,
	}
	if err := e.queue.AppendSyncLog(ctx, entry); err != nil {
		e.log.Warn().Err(err).Msg("failed to append sync log")
	}
}
