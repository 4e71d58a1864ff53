package models

const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	SyncActionOrderSync  = "order_sync"
	SyncActionDataCache  = "data_cache"
	SyncActionAssetCache = "asset_cache"
)

const (
	SyncOutcomeSuccess = "success"
	SyncOutcomeError   = "error"
	SyncOutcomePending = "pending"
)
