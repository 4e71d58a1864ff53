package models

import "time"

// CachedAsset holds raw media bytes keyed by source URL, evicted lazily
// on read once expired.
type CachedAsset struct {
	URL         string    `db:"url" json:"url"`
	Data        []byte    `db:"data" json:"-"`
	ContentType string    `db:"content_type" json:"content_type"`
	CachedAt    time.Time `db:"cached_at" json:"cached_at"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
}

// SyncLogEntry is an append-only diagnostic record of sync activity.
type SyncLogEntry struct {
	ID        int64     `db:"id" json:"id"`
	Action    string    `db:"action" json:"action"`   // order_sync, data_cache, asset_cache
	Outcome   string    `db:"outcome" json:"outcome"` // success, error, pending
	Detail    string    `db:"detail" json:"detail"`
	Error     string    `db:"error" json:"error,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CacheStats is the aggregate view surfaced to diagnostics and the UI.
type CacheStats struct {
	Categories      int        `json:"categories"`
	MenuItems       int        `json:"menu_items"`
	PendingOrders   int        `json:"pending_orders"`
	CachedAssets    int        `json:"cached_assets"`
	LastCacheUpdate *time.Time `json:"last_cache_update,omitempty"`
}
