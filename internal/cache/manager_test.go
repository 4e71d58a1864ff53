package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitesync/bitesync/internal/factories"
	"github.com/bitesync/bitesync/internal/models"
	"github.com/bitesync/bitesync/internal/store"
)

type fakeMenu struct {
	categories []models.Category
	items      []models.MenuItem
	err        error
}

func (f *fakeMenu) ListCategories(ctx context.Context) ([]models.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func (f *fakeMenu) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeFetcher struct {
	mu      sync.Mutex
	fetched []string
	fail    map[string]bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, url)
	if f.fail[url] {
		return nil, "", errors.New("fetch failed")
	}
	return []byte("image-bytes-" + url), "image/png", nil
}

func newTestManager(t *testing.T, menu *fakeMenu, fetcher *fakeFetcher) (*Manager, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewManager(st, menu, fetcher, 24*time.Hour, zerolog.Nop()), st
}

func TestRefreshMenuReplacesWholesale(t *testing.T) {
	mf := &factories.MenuFactory{}
	ctx := context.Background()

	oldCat := mf.CreateCategory(0)
	oldItem := mf.CreateMenuItem(oldCat.ID, 0)
	newCat := mf.CreateCategory(0)
	newItems := []models.MenuItem{
		mf.CreateMenuItem(newCat.ID, 0),
		mf.CreateMenuItem(newCat.ID, 1),
	}

	menu := &fakeMenu{categories: []models.Category{newCat}, items: newItems}
	m, st := newTestManager(t, menu, &fakeFetcher{})
	require.NoError(t, st.ReplaceReferenceData(ctx, []models.Category{oldCat}, []models.MenuItem{oldItem}))

	require.NoError(t, m.RefreshMenu(ctx))

	cats, err := st.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, newCat.ID, cats[0].ID)

	items, err := st.ListMenuItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	logs, err := st.ListSyncLogs(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	var found bool
	for _, entry := range logs {
		if entry.Action == models.SyncActionDataCache && entry.Outcome == models.SyncOutcomeSuccess {
			found = true
		}
	}
	assert.True(t, found, "expected a data_cache success log entry")
}

func TestRefreshMenuFailureKeepsOldDataAndLogs(t *testing.T) {
	mf := &factories.MenuFactory{}
	ctx := context.Background()

	oldCat := mf.CreateCategory(0)
	menu := &fakeMenu{err: errors.New("backend unreachable")}
	m, st := newTestManager(t, menu, &fakeFetcher{})
	require.NoError(t, st.ReplaceReferenceData(ctx, []models.Category{oldCat}, nil))

	err := m.RefreshMenu(ctx)
	require.Error(t, err)

	cats, listErr := st.ListCategories(ctx)
	require.NoError(t, listErr)
	require.Len(t, cats, 1)
	assert.Equal(t, oldCat.ID, cats[0].ID)

	logs, logErr := st.ListSyncLogs(ctx, 10)
	require.NoError(t, logErr)
	require.NotEmpty(t, logs)
	assert.Equal(t, models.SyncOutcomeError, logs[0].Outcome)
}

func TestRefreshMenuCachesImagesBestEffort(t *testing.T) {
	mf := &factories.MenuFactory{}
	ctx := context.Background()

	cat := mf.CreateCategory(0)
	cat.ImageURL = "https://cdn.example.com/cat.png"
	good := mf.CreateMenuItem(cat.ID, 0)
	good.ImageURL = "https://cdn.example.com/good.png"
	bad := mf.CreateMenuItem(cat.ID, 1)
	bad.ImageURL = "https://cdn.example.com/bad.png"

	menu := &fakeMenu{categories: []models.Category{cat}, items: []models.MenuItem{good, bad}}
	fetcher := &fakeFetcher{fail: map[string]bool{bad.ImageURL: true}}
	m, st := newTestManager(t, menu, fetcher)

	var progress [][2]int
	m.Progress = func(done, total int) { progress = append(progress, [2]int{done, total}) }

	// one bad image must not fail the refresh
	require.NoError(t, m.RefreshMenu(ctx))
	assert.Len(t, fetcher.fetched, 3)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)

	_, err := st.GetAsset(ctx, good.ImageURL)
	assert.NoError(t, err)
	_, err = st.GetAsset(ctx, bad.ImageURL)
	assert.ErrorIs(t, err, store.ErrNotFound)

	logs, err := st.ListSyncLogs(ctx, 10)
	require.NoError(t, err)
	var assetErrors int
	for _, entry := range logs {
		if entry.Action == models.SyncActionAssetCache && entry.Outcome == models.SyncOutcomeError {
			assetErrors++
		}
	}
	assert.Equal(t, 1, assetErrors)
}

func TestAssetReadThrough(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{}
	m, _ := newTestManager(t, &fakeMenu{}, fetcher)

	url := "https://cdn.example.com/pizza.png"
	data, err := m.Asset(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes-"+url), data)
	assert.Len(t, fetcher.fetched, 1)

	// second read is served from the cache
	again, err := m.Asset(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, data, again)
	assert.Len(t, fetcher.fetched, 1)
}

func TestAssetFetchErrorPropagates(t *testing.T) {
	ctx := context.Background()
	url := "https://cdn.example.com/missing.png"
	fetcher := &fakeFetcher{fail: map[string]bool{url: true}}
	m, _ := newTestManager(t, &fakeMenu{}, fetcher)

	_, err := m.Asset(ctx, url)
	assert.Error(t, err)
}
