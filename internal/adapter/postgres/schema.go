package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id               SERIAL PRIMARY KEY,
		number           TEXT NOT NULL UNIQUE,
		customer_name    TEXT NOT NULL,
		phone_number     TEXT NOT NULL,
		delivery_address TEXT NOT NULL,
		latitude         DOUBLE PRECISION NOT NULL,
		longitude        DOUBLE PRECISION NOT NULL,
		notes            TEXT,
		total_amount     NUMERIC(10,2) NOT NULL,
		status           TEXT NOT NULL DEFAULT 'pending',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id         SERIAL PRIMARY KEY,
		order_id   INTEGER NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		quantity   INTEGER NOT NULL,
		price      NUMERIC(10,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_status_log (
		id         SERIAL PRIMARY KEY,
		order_id   INTEGER NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		status     TEXT NOT NULL,
		changed_by TEXT NOT NULL,
		changed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS devices (
		id                SERIAL PRIMARY KEY,
		port              TEXT NOT NULL UNIQUE,
		status            TEXT NOT NULL,
		last_seen         TIMESTAMPTZ NOT NULL,
		orders_dispatched INTEGER NOT NULL DEFAULT 0,
		status_events     INTEGER NOT NULL DEFAULT 0,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
	`CREATE INDEX IF NOT EXISTS idx_order_status_log_order_id ON order_status_log (order_id)`,
}

// Migrate creates the tables the service needs. It is safe to run on every start.
func Migrate(ctx context.Context, db DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
