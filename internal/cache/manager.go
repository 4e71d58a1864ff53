// Package cache refreshes local reference data and media from the remote
// backend for offline browsing.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bitesync/bitesync/internal/models"
	"github.com/bitesync/bitesync/internal/remote"
	"github.com/bitesync/bitesync/internal/store"
)

type Manager struct {
	store   *store.Store
	menu    remote.MenuService
	fetcher Fetcher
	expiry  time.Duration
	log     zerolog.Logger

	// Progress, when set, is called after each asset download during a
	// refresh (CLI progress display).
	Progress func(done, total int)
}

func NewManager(st *store.Store, menu remote.MenuService, fetcher Fetcher, expiry time.Duration, log zerolog.Logger) *Manager {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Manager{store: st, menu: menu, fetcher: fetcher, expiry: expiry, log: log}
}

// RefreshMenu pulls categories and menu items from the backend and swaps
// the local cache wholesale, then caches referenced images best-effort.
// Image failures are logged and never fail the refresh.
func (m *Manager) RefreshMenu(ctx context.Context) error {
	categories, err := m.menu.ListCategories(ctx)
	if err != nil {
		return m.refreshFailed(ctx, fmt.Errorf("error fetching categories: %w", err))
	}
	items, err := m.menu.ListMenuItems(ctx)
	if err != nil {
		return m.refreshFailed(ctx, fmt.Errorf("error fetching menu items: %w", err))
	}

	if err := m.store.ReplaceReferenceData(ctx, categories, items); err != nil {
		return m.refreshFailed(ctx, fmt.Errorf("error replacing reference data: %w", err))
	}

	m.appendLog(ctx, models.SyncActionDataCache, models.SyncOutcomeSuccess,
		fmt.Sprintf("%d categories, %d items", len(categories), len(items)), "")
	m.log.Info().Int("categories", len(categories)).Int("items", len(items)).Msg("menu cache refreshed")

	m.cacheImages(ctx, categories, items)
	return nil
}

func (m *Manager) refreshFailed(ctx context.Context, err error) error {
	m.appendLog(ctx, models.SyncActionDataCache, models.SyncOutcomeError, "menu refresh", err.Error())
	return err
}

func (m *Manager) cacheImages(ctx context.Context, categories []models.Category, items []models.MenuItem) {
	urls := make([]string, 0, len(categories)+len(items))
	seen := make(map[string]bool)
	add := func(url string) {
		if url != "" && !seen[url] {
			seen[url] = true
			urls = append(urls, url)
		}
	}
	for _, c := range categories {
		add(c.ImageURL)
	}
	for _, it := range items {
		add(it.ImageURL)
	}

	for i, url := range urls {
		if _, err := m.Asset(ctx, url); err != nil {
			m.log.Warn().Err(err).Str("url", url).Msg("image cache failed")
			m.appendLog(ctx, models.SyncActionAssetCache, models.SyncOutcomeError, url, err.Error())
		}
		if m.Progress != nil {
			m.Progress(i+1, len(urls))
		}
	}
}

// Asset is the read-through accessor: a fresh cached copy is returned
// directly; otherwise the asset is fetched and stored with the configured
// expiry. Expired rows are evicted by the store on read.
func (m *Manager) Asset(ctx context.Context, url string) ([]byte, error) {
	cached, err := m.store.GetAsset(ctx, url)
	if err == nil {
		return cached.Data, nil
	}
	if err != store.ErrNotFound {
		return nil, err
	}

	data, contentType, err := m.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("error fetching asset %s: %w", url, err)
	}
	now := time.Now().UTC()
	asset := &models.CachedAsset{
		URL:         url,
		Data:        data,
		ContentType: contentType,
		CachedAt:    now,
		ExpiresAt:   now.Add(m.expiry),
	}
	if err := m.store.PutAsset(ctx, asset); err != nil {
		// serve the bytes anyway; only the cache write failed
		m.log.Warn().Err(err).Str("url", url).Msg("asset cache write failed")
	}
	return data, nil
}

func (m *Manager) appendLog(ctx context.Context, action, outcome, detail, errMsg string) {
	entry := &models.SyncLogEntry{Action: action, Outcome: outcome, Detail: detail, Error: errMsg}
	if err := m.store.AppendSyncLog(ctx, entry); err != nil {
		m.log.Warn().Err(err).Msg("failed to append sync log")
	}
}
