package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/orderbridge/internal/domain"
	"github.com/YelzhanWeb/orderbridge/internal/interfaces"
	"github.com/jackc/pgx/v5"
)

type deviceRepository struct {
	db DB
}

func NewDeviceRepository(db DB) interfaces.DeviceRepository {
	return &deviceRepository{db: db}
}

// Upsert registers the device on its port, or brings an existing record back online.
func (r *deviceRepository) Upsert(ctx context.Context, device *domain.Device) error {
	query := `
		INSERT INTO devices (port, status, last_seen, orders_dispatched, status_events, created_at)
		VALUES ($1, $2, $3, 0, 0, $4)
		ON CONFLICT (port) DO UPDATE
		SET status = EXCLUDED.status, last_seen = EXCLUDED.last_seen
		RETURNING id, orders_dispatched, status_events, created_at
	`
	err := r.db.QueryRow(ctx, query,
		device.Port, string(device.Status), device.LastSeen, device.CreatedAt,
	).Scan(&device.ID, &device.OrdersDispatched, &device.StatusEvents, &device.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}
	return nil
}

func (r *deviceRepository) FindByPort(ctx context.Context, port string) (*domain.Device, error) {
	query := `
		SELECT id, port, status, last_seen, orders_dispatched, status_events, created_at
		FROM devices
		WHERE port = $1
	`

	var (
		device domain.Device
		status string
	)
	err := r.db.QueryRow(ctx, query, port).Scan(
		&device.ID, &device.Port, &status, &device.LastSeen,
		&device.OrdersDispatched, &device.StatusEvents, &device.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find device: %w", err)
	}
	device.Status = domain.DeviceStatus(status)

	return &device, nil
}

func (r *deviceRepository) SetStatus(ctx context.Context, port string, status domain.DeviceStatus) error {
	query := `UPDATE devices SET status = $1, last_seen = $2 WHERE port = $3`
	_, err := r.db.Exec(ctx, query, string(status), time.Now().UTC(), port)
	if err != nil {
		return fmt.Errorf("failed to set device status: %w", err)
	}
	return nil
}

func (r *deviceRepository) IncrementDispatched(ctx context.Context, port string) error {
	query := `
		UPDATE devices
		SET orders_dispatched = orders_dispatched + 1
		WHERE port = $1
	`
	_, err := r.db.Exec(ctx, query, port)
	if err != nil {
		return fmt.Errorf("failed to increment orders dispatched: %w", err)
	}
	return nil
}

// RecordStatusEvent counts a status frame from the device and refreshes last_seen.
func (r *deviceRepository) RecordStatusEvent(ctx context.Context, port string) error {
	query := `
		UPDATE devices
		SET status_events = status_events + 1, last_seen = $1, status = $2
		WHERE port = $3
	`
	_, err := r.db.Exec(ctx, query, time.Now().UTC(), string(domain.DeviceStatusOnline), port)
	if err != nil {
		return fmt.Errorf("failed to record status event: %w", err)
	}
	return nil
}
