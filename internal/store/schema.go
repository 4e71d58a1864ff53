package store

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id                   TEXT PRIMARY KEY,
    customer_name        TEXT NOT NULL DEFAULT '',
    customer_email       TEXT NOT NULL DEFAULT '',
    customer_phone       TEXT NOT NULL DEFAULT '',
    total_amount         REAL NOT NULL DEFAULT 0,
    status               TEXT NOT NULL DEFAULT 'pending',
    notes                TEXT NOT NULL DEFAULT '',
    created_at           TIMESTAMP NOT NULL,
    synced               INTEGER NOT NULL DEFAULT 0,
    sync_attempts        INTEGER NOT NULL DEFAULT 0,
    last_sync_attempt_at TIMESTAMP,
    last_sync_error      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_orders_synced ON orders(synced);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items (
    order_id     TEXT NOT NULL REFERENCES orders(id),
    menu_item_id TEXT NOT NULL,
    item_name    TEXT NOT NULL DEFAULT '',
    quantity     INTEGER NOT NULL DEFAULT 1,
    unit_price   REAL NOT NULL DEFAULT 0,
    line_total   REAL NOT NULL DEFAULT 0,
    position     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

CREATE TABLE IF NOT EXISTS categories (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    image_url     TEXT NOT NULL DEFAULT '',
    display_order INTEGER NOT NULL DEFAULT 0,
    active        INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS menu_items (
    id            TEXT PRIMARY KEY,
    category_id   TEXT NOT NULL DEFAULT '',
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    price         REAL NOT NULL DEFAULT 0,
    image_url     TEXT NOT NULL DEFAULT '',
    display_order INTEGER NOT NULL DEFAULT 0,
    available     INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS cached_assets (
    url          TEXT PRIMARY KEY,
    data         BLOB NOT NULL,
    content_type TEXT NOT NULL DEFAULT '',
    cached_at    TIMESTAMP NOT NULL,
    expires_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cached_assets_expires ON cached_assets(expires_at);

CREATE TABLE IF NOT EXISTS sync_logs (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    action     TEXT NOT NULL,
    outcome    TEXT NOT NULL,
    detail     TEXT NOT NULL DEFAULT '',
    error      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sync_logs_action ON sync_logs(action, outcome);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL DEFAULT ''
);
`
