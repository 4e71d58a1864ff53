package models

import "time"

type Order struct {
	ID                string     `db:"id" json:"id"`
	CustomerName      string     `db:"customer_name" json:"customer_name"`
	CustomerEmail     string     `db:"customer_email" json:"customer_email"`
	CustomerPhone     string     `db:"customer_phone" json:"customer_phone"`
	TotalAmount       float64    `db:"total_amount" json:"total_amount"`
	Status            string     `db:"status" json:"status"` // e.g., "pending", "preparing", "ready", "completed", "cancelled"
	Notes             string     `db:"notes" json:"notes"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	Synced            bool       `db:"synced" json:"synced"`
	SyncAttempts      int        `db:"sync_attempts" json:"sync_attempts"`
	LastSyncAttemptAt *time.Time `db:"last_sync_attempt_at" json:"last_sync_attempt_at,omitempty"`
	LastSyncError     string     `db:"last_sync_error" json:"last_sync_error,omitempty"`

	Items []OrderItem `db:"-" json:"items"`
}

// OrderItem carries a name/price snapshot so queued orders stay displayable
// after the referenced menu item changes or disappears remotely.
type OrderItem struct {
	OrderID    string  `db:"order_id" json:"order_id"`
	MenuItemID string  `db:"menu_item_id" json:"menu_item_id"`
	ItemName   string  `db:"item_name" json:"item_name"`
	Quantity   int     `db:"quantity" json:"quantity"`
	UnitPrice  float64 `db:"unit_price" json:"unit_price"`
	LineTotal  float64 `db:"line_total" json:"line_total"`
	Position   int     `db:"position" json:"position"`
}

// OrderInput is the submission payload accepted from the presentation layer.
type OrderInput struct {
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
	Notes         string          `json:"notes"`
	Items         []OrderItemInput `json:"items"`
}

type OrderItemInput struct {
	MenuItemID string  `json:"menu_item_id"`
	ItemName   string  `json:"item_name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}
