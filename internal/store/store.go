// Package store implements the embedded durable store backing offline
// order capture: the pending-order queue, cached reference data, cached
// assets, sync activity logs and a small settings table.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/bitesync/bitesync/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// Open opens (creating if necessary) the local database at path and
// applies the schema.
func Open(path string, log zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_time_format=sqlite&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening local database: %w", err)
	}
	// modernc sqlite is single-writer; serialize access through one conn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error applying schema: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnqueueOrder persists a new order and its line items as unsynced in a
// single transaction. The caller is expected to have checked storage
// capability first; failures here are returned, never swallowed.
func (s *Store) EnqueueOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO orders (
            id, customer_name, customer_email, customer_phone,
            total_amount, status, notes, created_at,
            synced, sync_attempts, last_sync_error
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, '')`,
		order.ID, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.TotalAmount, order.Status, order.Notes, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting order %s: %w", order.ID, err)
	}

	for i, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO order_items (
                order_id, menu_item_id, item_name, quantity, unit_price, line_total, position
            ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			order.ID, item.MenuItemID, item.ItemName, item.Quantity, item.UnitPrice, item.LineTotal, i,
		)
		if err != nil {
			return fmt.Errorf("error inserting order item for %s: %w", order.ID, err)
		}
	}

	return tx.Commit()
}

// ListUnsyncedOrders returns every order still awaiting remote
// confirmation, with line items attached. Ordering is up to the caller.
func (s *Store) ListUnsyncedOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, `SELECT * FROM orders WHERE synced = 0`)
	if err != nil {
		return nil, fmt.Errorf("error listing unsynced orders: %w", err)
	}
	for i := range orders {
		if err := s.attachItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// ListOrders returns the full local order history, oldest first, with
// line items attached.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, `SELECT * FROM orders ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("error listing orders: %w", err)
	}
	for i := range orders {
		if err := s.attachItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching order %s: %w", id, err)
	}
	if err := s.attachItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) attachItems(ctx context.Context, order *models.Order) error {
	err := s.db.SelectContext(ctx, &order.Items,
		`SELECT * FROM order_items WHERE order_id = ? ORDER BY position`, order.ID)
	if err != nil {
		return fmt.Errorf("error fetching items for order %s: %w", order.ID, err)
	}
	return nil
}

// MarkSynced flips an order to synced and clears its last error. Calling
// it on an already-synced order is a no-op.
func (s *Store) MarkSynced(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE orders
        SET synced = 1, last_sync_error = '', last_sync_attempt_at = ?
        WHERE id = ? AND synced = 0`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("error marking order %s synced: %w", id, err)
	}
	return nil
}

// MarkSyncFailed records a failed submission attempt: increments the
// attempt counter, stamps the attempt time and stores the error message.
func (s *Store) MarkSyncFailed(ctx context.Context, id string, msg string) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE orders
        SET sync_attempts = sync_attempts + 1, last_sync_attempt_at = ?, last_sync_error = ?
        WHERE id = ? AND synced = 0`,
		time.Now().UTC(), msg, id,
	)
	if err != nil {
		return fmt.Errorf("error marking order %s failed: %w", id, err)
	}
	return nil
}

// ResetSyncAttempts zeroes the attempt counter and clears errors on every
// unsynced order. Used by the manual force-sync path to bypass the
// automatic retry ceiling.
func (s *Store) ResetSyncAttempts(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE orders SET sync_attempts = 0, last_sync_error = '' WHERE synced = 0`)
	if err != nil {
		return fmt.Errorf("error resetting sync attempts: %w", err)
	}
	return nil
}

func (s *Store) PendingOrderCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM orders WHERE synced = 0`)
	return count, err
}

// ReplaceReferenceData swaps the cached categories and menu items
// wholesale inside one transaction. Readers see either the previous set
// or the new set, never a mix.
func (s *Store) ReplaceReferenceData(ctx context.Context, categories []models.Category, items []models.MenuItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("error clearing categories: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items`); err != nil {
		return fmt.Errorf("error clearing menu items: %w", err)
	}

	for _, c := range categories {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO categories (id, name, description, image_url, display_order, active)
            VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Description, c.ImageURL, c.DisplayOrder, c.Active,
		)
		if err != nil {
			return fmt.Errorf("error inserting category %s: %w", c.ID, err)
		}
	}
	for _, m := range items {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO menu_items (id, category_id, name, description, price, image_url, display_order, available)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.CategoryID, m.Name, m.Description, m.Price, m.ImageURL, m.DisplayOrder, m.Available,
		)
		if err != nil {
			return fmt.Errorf("error inserting menu item %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories,
		`SELECT * FROM categories WHERE active = 1 ORDER BY display_order`)
	return categories, err
}

func (s *Store) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.SelectContext(ctx, &items,
		`SELECT * FROM menu_items WHERE available = 1 ORDER BY display_order`)
	return items, err
}

// PutAsset stores (or replaces) a cached asset blob.
func (s *Store) PutAsset(ctx context.Context, asset *models.CachedAsset) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO cached_assets (url, data, content_type, cached_at, expires_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(url) DO UPDATE SET
            data = excluded.data,
            content_type = excluded.content_type,
            cached_at = excluded.cached_at,
            expires_at = excluded.expires_at`,
		asset.URL, asset.Data, asset.ContentType, asset.CachedAt, asset.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("error caching asset %s: %w", asset.URL, err)
	}
	return nil
}

// GetAsset returns the cached asset for url if present and unexpired.
// Expired rows are deleted on the way out (lazy eviction).
func (s *Store) GetAsset(ctx context.Context, url string) (*models.CachedAsset, error) {
	var asset models.CachedAsset
	err := s.db.GetContext(ctx, &asset, `SELECT * FROM cached_assets WHERE url = ?`, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching asset %s: %w", url, err)
	}
	if time.Now().After(asset.ExpiresAt) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM cached_assets WHERE url = ?`, url); err != nil {
			s.log.Warn().Err(err).Str("url", url).Msg("failed to evict expired asset")
		}
		return nil, ErrNotFound
	}
	return &asset, nil
}

// PurgeExpiredAssets removes every expired asset. Optional sweep; reads
// already evict lazily.
func (s *Store) PurgeExpiredAssets(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cached_assets WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("error purging expired assets: %w", err)
	}
	return res.RowsAffected()
}

// AppendSyncLog records one sync activity entry. Entries are never
// mutated after insertion.
func (s *Store) AppendSyncLog(ctx context.Context, entry *models.SyncLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO sync_logs (action, outcome, detail, error, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		entry.Action, entry.Outcome, entry.Detail, entry.Error, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error appending sync log: %w", err)
	}
	return nil
}

func (s *Store) ListSyncLogs(ctx context.Context, limit int) ([]models.SyncLogEntry, error) {
	var entries []models.SyncLogEntry
	err := s.db.SelectContext(ctx, &entries,
		`SELECT * FROM sync_logs ORDER BY id DESC LIMIT ?`, limit)
	return entries, err
}

// CacheStats aggregates counts across the cache tables plus the
// timestamp of the last successful reference-data refresh.
func (s *Store) CacheStats(ctx context.Context) (*models.CacheStats, error) {
	stats := &models.CacheStats{}
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM categories`, &stats.Categories},
		{`SELECT COUNT(*) FROM menu_items`, &stats.MenuItems},
		{`SELECT COUNT(*) FROM orders WHERE synced = 0`, &stats.PendingOrders},
		{`SELECT COUNT(*) FROM cached_assets`, &stats.CachedAssets},
	}
	for _, c := range counts {
		if err := s.db.GetContext(ctx, c.dest, c.query); err != nil {
			return nil, fmt.Errorf("error computing cache stats: %w", err)
		}
	}

	var last time.Time
	err := s.db.GetContext(ctx, &last, `
        SELECT created_at FROM sync_logs
        WHERE action = ? AND outcome = ?
        ORDER BY id DESC LIMIT 1`,
		models.SyncActionDataCache, models.SyncOutcomeSuccess,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// no successful refresh yet
	case err != nil:
		return nil, fmt.Errorf("error computing last cache update: %w", err)
	default:
		stats.LastCacheUpdate = &last
	}
	return stats, nil
}

// ClearAll wipes every table. Used for logout and reset flows.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"order_items", "orders", "categories", "menu_items", "cached_assets", "sync_logs", "settings"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("error clearing table %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// KVPut stores a key/value pair in the settings table.
func (s *Store) KVPut(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO settings (key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// KVGet fetches a settings value; ErrNotFound when the key is absent.
func (s *Store) KVGet(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}
